package main

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log"

	"github.com/dmitrymomot/mfakit/pkg/secretstore"
)

func main() {
	dataKey, err := secretstore.GenerateEncodedKey()
	if err != nil {
		log.Fatalf("Failed to generate data encryption key: %v", err)
	}

	pepper := make([]byte, 32)
	if _, err := rand.Read(pepper); err != nil {
		log.Fatalf("Failed to generate backup code pepper: %v", err)
	}

	fmt.Printf("MFA_DATA_KEY=%s\n", dataKey)
	fmt.Printf("BACKUP_PEPPER=%s\n", base64.StdEncoding.EncodeToString(pepper))
}
