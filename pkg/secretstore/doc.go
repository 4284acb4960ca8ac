// Package secretstore envelope-encrypts short secrets, such as TOTP seeds, with a
// process-wide 32-byte data key using AES-256-GCM.
//
// Every call to Encrypt draws a fresh 96-bit nonce from crypto/rand, so two
// encryptions of the same plaintext never produce the same ciphertext. The
// persisted layout is self-contained:
//
//	nonce (12 bytes) | tag (16 bytes) | ciphertext
//
// Decrypt fails closed: a wrong key, a truncated payload or a single flipped
// bit yields an error wrapping ErrDecryptionFailed and never partial plaintext.
//
// # Data keys
//
// The data key is resolved once at startup through a KeyProvider. StaticKey
// accepts a base64 or hex encoded key from configuration; KMSKeyProvider
// unwraps a key that was encrypted by AWS KMS, so the raw key never sits in
// the environment. MustNew panics on a missing or malformed key: a process
// without a usable data key must not start.
//
// # Usage
//
//	store := secretstore.MustNew(key)
//
//	ct, err := store.Encrypt("JBSWY3DPEHPK3PXP")
//	if err != nil {
//	    // handle error
//	}
//	persisted := ct.String() // base64
//
//	ct, _ = secretstore.ParseCiphertext(persisted)
//	plain, err := store.Decrypt(ct)
//	if errors.Is(err, secretstore.ErrDecryptionFailed) {
//	    // tampered or encrypted under another key
//	}
package secretstore
