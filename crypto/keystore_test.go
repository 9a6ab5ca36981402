package crypto

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestEscrowKeyRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "escrow.keystore")

	key, err := GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	if err := SaveEscrowKey(path, key, "open sesame"); err != nil {
		t.Fatalf("save: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat keystore: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("unexpected keystore permissions %o", perm)
	}

	loaded, err := LoadEscrowKey(path, "open sesame")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !bytes.Equal(loaded.Bytes(), key.Bytes()) {
		t.Fatalf("loaded key differs from the saved one")
	}
	if loaded.PubKey().Address().String() != key.PubKey().Address().String() {
		t.Fatalf("loaded key derives a different address")
	}
}

func TestLoadEscrowKeyRejectsWrongPassphrase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "escrow.keystore")
	key, err := GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	if err := SaveEscrowKey(path, key, "correct"); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := LoadEscrowKey(path, "wrong"); err == nil {
		t.Fatalf("expected decryption failure")
	}
}

func TestSaveEscrowKeyReplacesExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "escrow.keystore")
	first, err := GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	if err := SaveEscrowKey(path, first, ""); err != nil {
		t.Fatalf("save first: %v", err)
	}
	second, err := GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	if err := SaveEscrowKey(path, second, ""); err != nil {
		t.Fatalf("save second: %v", err)
	}
	loaded, err := LoadEscrowKey(path, "")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !bytes.Equal(loaded.Bytes(), second.Bytes()) {
		t.Fatalf("keystore still holds the replaced key")
	}
}

func TestEscrowKeyValidation(t *testing.T) {
	if err := SaveEscrowKey("", nil, ""); err == nil {
		t.Fatalf("expected nil key rejection")
	}
	key, err := GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	if err := SaveEscrowKey("", key, ""); err == nil {
		t.Fatalf("expected empty path rejection")
	}
	if _, err := LoadEscrowKey("", ""); err == nil {
		t.Fatalf("expected empty path rejection")
	}
}
