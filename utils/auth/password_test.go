package auth

import (
	"errors"
	"testing"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if hash == "correct horse battery staple" {
		t.Fatal("hash must not equal the plaintext")
	}

	if err := VerifyPassword(hash, "correct horse battery staple"); err != nil {
		t.Errorf("VerifyPassword rejected the right password: %v", err)
	}
	if err := VerifyPassword(hash, "wrong password"); !errors.Is(err, ErrPasswordMismatch) {
		t.Errorf("VerifyPassword wrong-password err = %v, want ErrPasswordMismatch", err)
	}
}

func TestHashPasswordEnforcesPolicy(t *testing.T) {
	if _, err := HashPassword("short"); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("HashPassword(short) err = %v, want ErrWeakPassword", err)
	}
}

func TestCheckPasswordStrength(t *testing.T) {
	cases := map[string]bool{
		"":                     false,
		"1234567":              false, // too short
		"12345678":             false, // no letter
		"pass1234":             true,
		"long enough password": true,
	}
	for password, wantOK := range cases {
		err := CheckPasswordStrength(password)
		if wantOK && err != nil {
			t.Errorf("CheckPasswordStrength(%q) = %v, want nil", password, err)
		}
		if !wantOK && !errors.Is(err, ErrWeakPassword) {
			t.Errorf("CheckPasswordStrength(%q) = %v, want ErrWeakPassword", password, err)
		}
	}
}
