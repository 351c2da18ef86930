// Package manifest loads the YAML batch description consumed by the CLI:
// which images to service, which .reg files to apply, and how.
package manifest

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/joshuapare/regapply/apply"
)

// Manifest describes one batch servicing run.
type Manifest struct {
	// Images are offline image mount roots, processed in order.
	Images []string `yaml:"images"`

	// RegFiles are .reg files applied to every image, in order.
	RegFiles []string `yaml:"regFiles"`

	// InputEncoding overrides .reg input encoding detection for files
	// without a BOM ("UTF-8", "UTF-16LE", "Windows-1252").
	InputEncoding string `yaml:"inputEncoding"`

	// Backup, BackupDir and ContinueOnError mirror apply.Options.
	// Unset booleans take the apply defaults (both true).
	Backup          *bool  `yaml:"backup"`
	BackupDir       string `yaml:"backupDir"`
	ContinueOnError *bool  `yaml:"continueOnError"`
}

// Load reads and validates a manifest file. Unknown fields are rejected so
// typos fail loudly instead of silently applying defaults.
func Load(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)

	var m Manifest
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("decode manifest %s: %w", path, err)
	}
	if len(m.Images) == 0 {
		return nil, fmt.Errorf("manifest %s: no images listed", path)
	}
	if len(m.RegFiles) == 0 {
		return nil, fmt.Errorf("manifest %s: no reg files listed", path)
	}
	return &m, nil
}

// Options translates the manifest into apply options, filling unset fields
// with the apply defaults.
func (m *Manifest) Options() apply.Options {
	opts := apply.DefaultOptions()
	if m.Backup != nil {
		opts.Backup = *m.Backup
	}
	opts.BackupDir = m.BackupDir
	if m.ContinueOnError != nil {
		opts.ContinueOnError = *m.ContinueOnError
	}
	return opts
}
