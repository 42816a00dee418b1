package repository_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nightvault/archivist/repository"
)

func TestStagingCreateAndRemoveDirectoryIsIdempotent(t *testing.T) {
	root := t.TempDir()
	staging := repository.NewStaging(root)

	path, err := staging.CreateDirectory("run-1", "pgdump")
	require.NoError(t, err)
	require.DirExists(t, path)

	// Creating twice is a no-op, matching "make_if_not_exists".
	again, err := staging.CreateDirectory("run-1", "pgdump")
	require.NoError(t, err)
	assert.Equal(t, path, again)

	require.NoError(t, staging.RemoveDirectory(path))
	assert.NoDirExists(t, path)

	// Removing an already-absent directory succeeds.
	require.NoError(t, staging.RemoveDirectory(path))
}

func TestStagingRemoveFileOfMissingFileSucceeds(t *testing.T) {
	staging := repository.NewStaging(t.TempDir())
	assert.NoError(t, staging.RemoveFile(filepath.Join(t.TempDir(), "does-not-exist")))
}

func TestArchiverRoundTrip(t *testing.T) {
	srcDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "schema.sql"), []byte("CREATE TABLE t();"), 0o640))
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "data.sql"), []byte("INSERT INTO t VALUES ();"), 0o640))

	archiver := repository.NewArchiver()
	tarball := filepath.Join(t.TempDir(), "dump.tar.gz")
	require.NoError(t, archiver.Compress(srcDir, tarball))
	require.FileExists(t, tarball)

	destDir := t.TempDir()
	require.NoError(t, archiver.Decompress(tarball, destDir))

	schema, err := os.ReadFile(filepath.Join(destDir, "schema.sql"))
	require.NoError(t, err)
	assert.Equal(t, "CREATE TABLE t();", string(schema))

	data, err := os.ReadFile(filepath.Join(destDir, "data.sql"))
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO t VALUES ();", string(data))
}

func TestEncryptorRoundTrip(t *testing.T) {
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	enc := repository.NewEncryptor(key)

	srcPath := filepath.Join(t.TempDir(), "plain.tar.gz")
	require.NoError(t, os.WriteFile(srcPath, []byte("archive bytes"), 0o640))

	encPath := filepath.Join(t.TempDir(), "plain.tar.gz.enc")
	require.NoError(t, enc.Encrypt(srcPath, encPath))

	encrypted, err := os.ReadFile(encPath)
	require.NoError(t, err)
	assert.NotContains(t, string(encrypted), "archive bytes")

	decPath := filepath.Join(t.TempDir(), "recovered.tar.gz")
	require.NoError(t, enc.Decrypt(encPath, decPath))

	recovered, err := os.ReadFile(decPath)
	require.NoError(t, err)
	assert.Equal(t, "archive bytes", string(recovered))
}

func TestMoverMoveAcrossDirectories(t *testing.T) {
	mover := repository.NewMover(t.TempDir())

	srcPath := filepath.Join(t.TempDir(), "artifact.enc")
	require.NoError(t, os.WriteFile(srcPath, []byte("0123456789"), 0o640))

	destDir, err := mover.CreateDirectory("run-1", "storage")
	require.NoError(t, err)
	destPath := filepath.Join(destDir, "artifact.enc")

	size, err := mover.Move(srcPath, destPath)
	require.NoError(t, err)
	assert.Equal(t, int64(10), size)
	assert.NoFileExists(t, srcPath)
	assert.FileExists(t, destPath)
}
