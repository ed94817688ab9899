// Package security protects stored provider API keys at rest with AES-GCM.
package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
)

// KeyCipher encrypts and decrypts short secrets such as provider API keys.
// The cipher key is derived from a configured passphrase; an empty passphrase
// is rejected at construction so a decryptable key always implies a usable
// provider credential.
type KeyCipher struct {
	aead cipher.AEAD
}

// NewKeyCipher derives an AES-256-GCM cipher from the passphrase.
func NewKeyCipher(passphrase string) (*KeyCipher, error) {
	if passphrase == "" {
		return nil, fmt.Errorf("encryption passphrase must not be empty")
	}
	sum := sha256.Sum256([]byte(passphrase))
	block, err := aes.NewCipher(sum[:])
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("init gcm: %w", err)
	}
	return &KeyCipher{aead: aead}, nil
}

// Encrypt seals plaintext and returns a base64 token with the nonce prepended.
func (c *KeyCipher) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", fmt.Errorf("refusing to encrypt empty secret")
	}
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt.
func (c *KeyCipher) Decrypt(token string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return "", fmt.Errorf("decode token: %w", err)
	}
	nonceSize := c.aead.NonceSize()
	if len(raw) < nonceSize {
		return "", fmt.Errorf("token too short")
	}
	plain, err := c.aead.Open(nil, raw[:nonceSize], raw[nonceSize:], nil)
	if err != nil {
		return "", fmt.Errorf("decrypt token: %w", err)
	}
	return string(plain), nil
}
