package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nightvault/archivist/command"
)

func writeTestKey(t *testing.T, dir string) []byte {
	t.Helper()
	encoded, err := GenerateKey()
	require.NoError(t, err)
	path := filepath.Join(dir, "fernet.key")
	require.NoError(t, os.WriteFile(path, []byte(encoded), 0o600))
	key, err := LoadKey(path)
	require.NoError(t, err)
	return key
}

func writeTestConfig(t *testing.T, dir string, key []byte) string {
	t.Helper()
	ciphertext, err := seal(key, "s3cr3t")
	require.NoError(t, err)

	contents := "cleartext:\n" +
		"  retention_days: 30\n" +
		"secrets:\n" +
		"  database:\n" +
		"    password: \"" + ciphertext + "\"\n"

	path := filepath.Join(dir, "archivist.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestGetClearTextValue(t *testing.T) {
	dir := t.TempDir()
	key := writeTestKey(t, dir)
	path := writeTestConfig(t, dir, key)

	cfg, err := Load(path, key)
	require.NoError(t, err)

	v, err := cfg.Get("cleartext.retention_days")
	require.NoError(t, err)
	assert.Equal(t, 30, v)
}

func TestGetSecretDecryptsAndMasks(t *testing.T) {
	dir := t.TempDir()
	key := writeTestKey(t, dir)
	path := writeTestConfig(t, dir, key)

	cfg, err := Load(path, key)
	require.NoError(t, err)

	v, err := cfg.Get("secrets.database.password")
	require.NoError(t, err)

	secret, ok := v.(command.Secret)
	require.True(t, ok)
	assert.Equal(t, "**********", secret.Display())
	assert.Equal(t, "s3cr3t", secret.Reveal())
}

func TestGetMissingKeyReturnsKeyError(t *testing.T) {
	dir := t.TempDir()
	key := writeTestKey(t, dir)
	path := writeTestConfig(t, dir, key)

	cfg, err := Load(path, key)
	require.NoError(t, err)

	_, err = cfg.Get("secrets.database.missing")
	var keyErr *KeyError
	assert.ErrorAs(t, err, &keyErr)
}

func TestGetCorruptCiphertextReturnsDecryptError(t *testing.T) {
	dir := t.TempDir()
	key := writeTestKey(t, dir)
	path := writeTestConfig(t, dir, key)

	cfg, err := Load(path, key)
	require.NoError(t, err)
	cfg.secrets["database"].(map[string]any)["password"] = "not-valid-base64!!"

	_, err = cfg.Get("secrets.database.password")
	var decryptErr *DecryptError
	assert.ErrorAs(t, err, &decryptErr)
}

func TestSetRewritesFileAtomicallyAndRoundTrips(t *testing.T) {
	dir := t.TempDir()
	key := writeTestKey(t, dir)
	path := writeTestConfig(t, dir, key)

	cfg, err := Load(path, key)
	require.NoError(t, err)

	require.NoError(t, cfg.Set("secrets.storage.access_key", "AKIA-NEW"))

	reloaded, err := Load(path, key)
	require.NoError(t, err)

	v, err := reloaded.Get("secrets.storage.access_key")
	require.NoError(t, err)
	assert.Equal(t, command.Secret("AKIA-NEW"), v)

	// the original secret survives the rewrite untouched.
	v, err = reloaded.Get("secrets.database.password")
	require.NoError(t, err)
	assert.Equal(t, command.Secret("s3cr3t"), v)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp")
	}
}
