package crypt_test

import (
	"errors"
	"testing"

	"github.com/herbveda/storefront/pkg/crypt"
)

func TestRoundTrip(t *testing.T) {
	plain := "the quick brown fox"
	sealed, err := crypt.Encrypt(plain)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if sealed == plain {
		t.Fatal("ciphertext equals plaintext")
	}

	got, err := crypt.Decrypt(sealed)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if got != plain {
		t.Fatalf("roundtrip mismatch: got %q", got)
	}
}

func TestNonceUniqueness(t *testing.T) {
	a, _ := crypt.Encrypt("same input")
	b, _ := crypt.Encrypt("same input")
	if a == b {
		t.Fatal("two encryptions of the same input produced identical ciphertext")
	}
}

func TestTamperDetected(t *testing.T) {
	sealed, err := crypt.Encrypt("payload")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	tampered := []byte(sealed)
	tampered[len(tampered)-1] ^= 1
	if _, err := crypt.Decrypt(string(tampered)); !errors.Is(err, crypt.ErrDecrypt) {
		t.Fatalf("expected ErrDecrypt, got %v", err)
	}
}

func TestJSONRoundTrip(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
		Hash string `json:"hash"`
	}
	sealed, err := crypt.EncryptJSON(payload{Name: "Asha", Hash: "$2a$10$abc"})
	if err != nil {
		t.Fatalf("encrypt json: %v", err)
	}

	var got payload
	if err := crypt.DecryptJSON(sealed, &got); err != nil {
		t.Fatalf("decrypt json: %v", err)
	}
	if got.Name != "Asha" || got.Hash != "$2a$10$abc" {
		t.Fatalf("unexpected payload: %+v", got)
	}
}
