package auth

import (
	"errors"
	"testing"
)

func TestPasswordHashAndCheck(t *testing.T) {
	hash, err := HashPassword("correct-horse-9")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "correct-horse-9" {
		t.Error("hash equals plaintext")
	}
	if err := CheckPassword(hash, "correct-horse-9"); err != nil {
		t.Errorf("check correct password: %v", err)
	}
	if err := CheckPassword(hash, "wrong-horse-9"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("check wrong password err = %v, want ErrInvalidCredentials", err)
	}
}

func TestCheckPasswordBadHash(t *testing.T) {
	err := CheckPassword("not-a-bcrypt-hash", "whatever")
	if err == nil || errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("err = %v, want non-credential error", err)
	}
}
