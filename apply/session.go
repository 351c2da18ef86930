package apply

import (
	"context"

	"github.com/joshuapare/regapply/internal/hivepath"
	"github.com/joshuapare/regapply/pkg/types"
)

// Session is a hive file loaded into a temporary mutable namespace. Its only
// capability is resolving and mutating keys and values inside that namespace;
// the raw load handle is never exposed. At most one session may be open for a
// given hive file at a time (the load point is a process-global name), so
// the engine drains a hive's operations before releasing its session.
type Session interface {
	// HasValue reports whether the named value exists under key.
	// A missing key is reported as a missing value, not an error.
	HasValue(key, name string) (bool, error)

	// SetValue writes a typed value, creating intermediate keys as needed.
	SetValue(key, name string, v types.Value) error

	// DeleteValue removes a named value. Absence is not an error.
	DeleteValue(key, name string) error

	// DeleteKey removes a key and its entire subtree. Absence is not an error.
	DeleteKey(key string) error

	// Close unloads the hive from its temporary namespace. It must be called
	// on every exit path; the engine guarantees this even when an operation
	// in the batch fails.
	Close() error
}

// Opener acquires sessions. The engine uses the platform opener by default;
// tests substitute an in-memory one.
type Opener interface {
	Open(ctx context.Context, hv hivepath.Resolved, opts OpenOptions) (Session, error)
}

// OpenOptions configure session acquisition.
type OpenOptions struct {
	// Backup copies the hive file aside before the hive is loaded for
	// mutation.
	Backup bool

	// BackupDir receives the copy. Empty selects a "regapply-backup"
	// directory beside the hive file.
	BackupDir string
}
