package apply

import (
	"io"

	"github.com/sirupsen/logrus"
)

// Options configures an apply run.
type Options struct {
	// ContinueOnError keeps applying a hive's remaining operations after one
	// fails. When false, the first failure stops that hive's group; the
	// session is still released and other hive groups still run.
	ContinueOnError bool

	// Backup copies each hive file into BackupDir before its first mutation.
	Backup bool

	// BackupDir receives hive backups. Empty selects a "regapply-backup"
	// directory beside each hive file.
	BackupDir string

	// Logger receives progress and warnings. Nil discards them.
	Logger logrus.FieldLogger

	// Opener acquires hive sessions. Nil selects the platform opener
	// (the Windows registry loader; unsupported elsewhere).
	Opener Opener
}

// DefaultOptions returns the defaults used when Apply receives a nil Options.
func DefaultOptions() Options {
	return Options{
		ContinueOnError: true,
		Backup:          true,
	}
}

func (o *Options) logger() logrus.FieldLogger {
	if o.Logger != nil {
		return o.Logger
	}
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func (o *Options) opener() Opener {
	if o.Opener != nil {
		return o.Opener
	}
	return platformOpener()
}
