package config

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"

	"golang.org/x/crypto/chacha20poly1305"
)

// LoadKey reads a chacha20poly1305.KeySize-byte key, base64-encoded, from
// path (e.g. "/etc/fernet.key"). The keyfile is a process-local secret: its
// permissions are not enforced here, only its shape.
func LoadKey(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading keyfile %q: %w", path, err)
	}
	key, err := base64.StdEncoding.DecodeString(string(raw))
	if err != nil {
		return nil, fmt.Errorf("config: keyfile %q is not valid base64: %w", path, err)
	}
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("config: keyfile %q holds %d bytes, want %d", path, len(key), chacha20poly1305.KeySize)
	}
	return key, nil
}

// GenerateKey returns a fresh, random, base64-encoded key suitable for
// writing to a keyfile. Used by the key-generation utility and by tests
// that need a throwaway key.
func GenerateKey() (string, error) {
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := rand.Read(key); err != nil {
		return "", fmt.Errorf("config: generating key: %w", err)
	}
	return base64.StdEncoding.EncodeToString(key), nil
}
