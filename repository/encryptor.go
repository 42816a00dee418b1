package repository

import (
	"crypto/rand"
	"fmt"
	"os"

	"golang.org/x/crypto/chacha20poly1305"
)

// Encryptor performs authenticated symmetric encryption of the compressed
// archive, using the same AEAD primitive as the config store
// for internal consistency — a production deployment would more likely
// shell out to gpg, represented here behind this capability's interface.
type Encryptor struct {
	loggable
	key []byte
}

// NewEncryptor returns an Encryptor keyed with key (chacha20poly1305.KeySize
// bytes, conventionally the same key the config store loads).
func NewEncryptor(key []byte) *Encryptor {
	return &Encryptor{key: key}
}

// Encrypt reads srcPath, seals it, and writes the result to destPath.
func (e *Encryptor) Encrypt(srcPath, destPath string) error {
	e.debugf("encryptor: encrypting %s -> %s", srcPath, destPath)
	plaintext, err := os.ReadFile(srcPath)
	if err != nil {
		return fmt.Errorf("repository: reading %q: %w", srcPath, err)
	}

	aead, err := chacha20poly1305.New(e.key)
	if err != nil {
		return fmt.Errorf("repository: building cipher: %w", err)
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("repository: generating nonce: %w", err)
	}
	sealed := aead.Seal(nonce, nonce, plaintext, nil)

	if err := os.WriteFile(destPath, sealed, 0o640); err != nil {
		e.errorf("encryptor: failed writing %s: %v", destPath, err)
		return fmt.Errorf("repository: writing %q: %w", destPath, err)
	}
	return nil
}

// Decrypt reads srcPath (as written by Encrypt) and writes the recovered
// plaintext to destPath.
func (e *Encryptor) Decrypt(srcPath, destPath string) error {
	e.debugf("encryptor: decrypting %s -> %s", srcPath, destPath)
	sealed, err := os.ReadFile(srcPath)
	if err != nil {
		return fmt.Errorf("repository: reading %q: %w", srcPath, err)
	}

	aead, err := chacha20poly1305.New(e.key)
	if err != nil {
		return fmt.Errorf("repository: building cipher: %w", err)
	}
	if len(sealed) < aead.NonceSize() {
		return fmt.Errorf("repository: %q is shorter than a nonce", srcPath)
	}
	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		e.errorf("encryptor: authentication failed for %s: %v", srcPath, err)
		return fmt.Errorf("repository: decrypting %q: %w", srcPath, err)
	}

	if err := os.WriteFile(destPath, plaintext, 0o640); err != nil {
		return fmt.Errorf("repository: writing %q: %w", destPath, err)
	}
	return nil
}
