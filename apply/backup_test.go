package apply

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackupHiveDefaultDir(t *testing.T) {
	dir := t.TempDir()
	hive := filepath.Join(dir, "SOFTWARE")
	require.NoError(t, os.WriteFile(hive, []byte("regf-payload"), 0o644))

	dst, err := backupHive(hive, "")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, backupDirName), filepath.Dir(dst))
	assert.True(t, strings.HasPrefix(filepath.Base(dst), "SOFTWARE-"))
	assert.True(t, strings.HasSuffix(dst, ".bak"))

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, []byte("regf-payload"), data)
}

func TestBackupHiveExplicitDir(t *testing.T) {
	dir := t.TempDir()
	hive := filepath.Join(dir, "SYSTEM")
	require.NoError(t, os.WriteFile(hive, []byte("x"), 0o644))

	target := filepath.Join(dir, "nested", "backups")
	dst, err := backupHive(hive, target)
	require.NoError(t, err)
	assert.Equal(t, target, filepath.Dir(dst))
}

func TestBackupHiveMissingSource(t *testing.T) {
	_, err := backupHive(filepath.Join(t.TempDir(), "absent"), "")
	require.Error(t, err)
}
