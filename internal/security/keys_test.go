package security

import (
	"strings"
	"testing"
)

func TestKeyCipherRoundTrip(t *testing.T) {
	cipher, err := NewKeyCipher("unit-test-passphrase")
	if err != nil {
		t.Fatalf("unexpected error creating cipher: %v", err)
	}

	secrets := []string{
		"sk-1234567890abcdef",
		"a",
		strings.Repeat("long-key-", 64),
		"key with spaces and ünïcödé",
	}
	for _, secret := range secrets {
		token, err := cipher.Encrypt(secret)
		if err != nil {
			t.Fatalf("encrypt %q: %v", secret, err)
		}
		if token == secret {
			t.Fatalf("token must not equal plaintext")
		}
		got, err := cipher.Decrypt(token)
		if err != nil {
			t.Fatalf("decrypt %q: %v", secret, err)
		}
		if got != secret {
			t.Fatalf("round trip mismatch: got %q want %q", got, secret)
		}
	}
}

func TestKeyCipherRejectsEmptyInputs(t *testing.T) {
	if _, err := NewKeyCipher(""); err == nil {
		t.Fatalf("expected error for empty passphrase")
	}

	cipher, err := NewKeyCipher("p")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := cipher.Encrypt(""); err == nil {
		t.Fatalf("expected error encrypting empty secret")
	}
}

func TestKeyCipherRejectsTamperedToken(t *testing.T) {
	cipher, err := NewKeyCipher("p")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	token, err := cipher.Encrypt("secret")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if _, err := cipher.Decrypt("x" + token); err == nil {
		t.Fatalf("expected error for tampered token")
	}
	if _, err := cipher.Decrypt("not-base64!!!"); err == nil {
		t.Fatalf("expected error for malformed token")
	}
}
