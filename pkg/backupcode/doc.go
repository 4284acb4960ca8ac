// Package backupcode issues and consumes single-use recovery codes.
//
// Codes are ten characters drawn from a 32-symbol alphabet without look-alike
// characters (50 bits each) and are shown once, grouped as XXXXX-XXXXX. Only a
// peppered digest is stored: HMAC-SHA256 over the normalized code, keyed with a
// subkey derived from the server-side pepper by HKDF. The pepper never lives
// next to the hashes.
//
// Consume is pure. It returns a new hash slice with the matched entry removed
// and leaves its input untouched; the caller replaces the persisted list with
// the result under a compare-and-swap so a code can be spent only once.
//
// # Usage
//
//	m := backupcode.MustNew(os.Getenv("BACKUP_PEPPER"))
//
//	records, _ := m.Generate(backupcode.DefaultCount)
//	for _, r := range records {
//	    show(r.Code)         // once
//	    persist(r.Hash)      // always
//	}
//
//	next, ok := m.Consume(input, stored)
//	if ok {
//	    stored = next
//	}
package backupcode
