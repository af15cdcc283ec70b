package crypto

import (
	"bytes"
	"errors"
	"testing"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	salt, err := GenerateSalt()
	if err != nil {
		t.Fatalf("GenerateSalt failed: %v", err)
	}
	key := DeriveKey("server-secret", salt)

	encrypted, nonce, err := EncryptProviderKey("sk-or-v1-abcdef123456", key)
	if err != nil {
		t.Fatalf("EncryptProviderKey failed: %v", err)
	}
	if bytes.Contains(encrypted, []byte("sk-or-v1")) {
		t.Fatal("ciphertext leaks the plaintext")
	}

	plaintext, err := DecryptProviderKey(encrypted, nonce, key)
	if err != nil {
		t.Fatalf("DecryptProviderKey failed: %v", err)
	}
	if plaintext != "sk-or-v1-abcdef123456" {
		t.Errorf("plaintext = %q", plaintext)
	}
}

func TestDecryptWithWrongKey(t *testing.T) {
	salt, _ := GenerateSalt()
	key := DeriveKey("server-secret", salt)
	encrypted, nonce, err := EncryptProviderKey("sk-test", key)
	if err != nil {
		t.Fatalf("EncryptProviderKey failed: %v", err)
	}

	wrongKey := DeriveKey("another-secret", salt)
	if _, err := DecryptProviderKey(encrypted, nonce, wrongKey); !errors.Is(err, ErrDecryptionFailed) {
		t.Fatalf("err = %v, want ErrDecryptionFailed", err)
	}
}

func TestDeriveKeyDeterministic(t *testing.T) {
	salt, _ := GenerateSalt()
	k1 := DeriveKey("secret", salt)
	k2 := DeriveKey("secret", salt)
	if !bytes.Equal(k1, k2) {
		t.Error("same secret and salt should derive the same key")
	}

	otherSalt, _ := GenerateSalt()
	k3 := DeriveKey("secret", otherSalt)
	if bytes.Equal(k1, k3) {
		t.Error("different salts should derive different keys")
	}
}

func TestEncryptRejectsBadKeyLength(t *testing.T) {
	if _, _, err := EncryptProviderKey("sk-test", []byte("short")); !errors.Is(err, ErrInvalidKeyLength) {
		t.Fatalf("err = %v, want ErrInvalidKeyLength", err)
	}
}
