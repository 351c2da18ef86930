package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFull(t *testing.T) {
	path := writeManifest(t, `
images:
  - D:\mount\image1
  - D:\mount\image2
regFiles:
  - tweaks.reg
  - cleanup.reg
inputEncoding: UTF-16LE
backup: false
backupDir: E:\backups
continueOnError: false
`)
	m, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{`D:\mount\image1`, `D:\mount\image2`}, m.Images)
	assert.Equal(t, []string{"tweaks.reg", "cleanup.reg"}, m.RegFiles)
	assert.Equal(t, "UTF-16LE", m.InputEncoding)

	opts := m.Options()
	assert.False(t, opts.Backup)
	assert.Equal(t, `E:\backups`, opts.BackupDir)
	assert.False(t, opts.ContinueOnError)
}

func TestLoadDefaults(t *testing.T) {
	path := writeManifest(t, `
images: [D:\mount\image1]
regFiles: [tweaks.reg]
`)
	m, err := Load(path)
	require.NoError(t, err)

	// Unset booleans take the apply defaults, both true.
	opts := m.Options()
	assert.True(t, opts.Backup)
	assert.True(t, opts.ContinueOnError)
	assert.Empty(t, opts.BackupDir)
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	path := writeManifest(t, `
images: [D:\mount\image1]
regFiles: [tweaks.reg]
continueOnErrors: true
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "continueOnErrors")
}

func TestLoadRejectsEmptyLists(t *testing.T) {
	_, err := Load(writeManifest(t, `regFiles: [tweaks.reg]`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no images")

	_, err = Load(writeManifest(t, `images: [D:\mount\image1]`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no reg files")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
