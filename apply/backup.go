package apply

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

const backupDirName = "regapply-backup"

// backupHive copies a hive file into dir before it is mutated, returning
// the backup path. An empty dir places the copy in a "regapply-backup"
// directory beside the hive. The copy is taken while the hive is unloaded,
// so it is a consistent snapshot.
func backupHive(file, dir string) (string, error) {
	if dir == "" {
		dir = filepath.Join(filepath.Dir(file), backupDirName)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}

	stamp := time.Now().Format("20060102-150405")
	dst := filepath.Join(dir, fmt.Sprintf("%s-%s.bak", filepath.Base(file), stamp))

	src, err := os.Open(file)
	if err != nil {
		return "", fmt.Errorf("open hive for backup: %w", err)
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("create backup file: %w", err)
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		os.Remove(dst)
		return "", fmt.Errorf("copy hive to backup: %w", err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("finish backup: %w", err)
	}
	return dst, nil
}
