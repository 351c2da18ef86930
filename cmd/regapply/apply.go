package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuapare/regapply/apply"
	"github.com/joshuapare/regapply/internal/manifest"
	"github.com/joshuapare/regapply/internal/regtext"
	"github.com/joshuapare/regapply/pkg/types"
)

var applyCmd = &cobra.Command{
	Use:   "apply [flags] <reg-file>...",
	Short: "Apply .reg files to one or more offline images",
	Long: `Apply registry changes from .reg files to the hive files of offline
Windows images. Images are processed sequentially; within each image,
operations are grouped so every hive is loaded exactly once. Each hive
is backed up before its first mutation unless --backup=false.

Loading offline hives uses the Windows registry API, so this command
requires Windows and administrative rights.

Examples:
  # Apply a tweak file to one mounted image
  regapply apply --mount D:\mount\image1 tweaks.reg

  # Several images, stop each hive at the first failure
  regapply apply --mount D:\m1 --mount D:\m2 --continue-on-error=false base.reg

  # Batch run described by a manifest
  regapply apply --manifest servicing.yaml`,
	RunE: runApply,
}

var (
	applyMounts    []string
	applyManifest  string
	applyBackup    bool
	applyBackupDir string
	applyContinue  bool
	applyEncoding  string
)

func init() {
	applyCmd.Flags().StringArrayVar(&applyMounts, "mount", nil, "Offline image mount root (repeatable)")
	applyCmd.Flags().StringVar(&applyManifest, "manifest", "", "YAML manifest describing images, reg files, and options")
	applyCmd.Flags().BoolVarP(&applyBackup, "backup", "b", true, "Back up each hive before mutating it")
	applyCmd.Flags().StringVar(&applyBackupDir, "backup-dir", "", "Directory for hive backups")
	applyCmd.Flags().BoolVar(&applyContinue, "continue-on-error", true, "Keep applying a hive's operations after one fails")
	applyCmd.Flags().StringVar(&applyEncoding, "encoding", "", "Input encoding when no BOM is present (UTF-8, UTF-16LE, Windows-1252)")
	rootCmd.AddCommand(applyCmd)
}

func runApply(cmd *cobra.Command, args []string) error {
	log := newLogger()

	images := applyMounts
	regFiles := args
	opts := apply.Options{
		ContinueOnError: applyContinue,
		Backup:          applyBackup,
		BackupDir:       applyBackupDir,
	}
	encoding := applyEncoding

	if applyManifest != "" {
		m, err := manifest.Load(applyManifest)
		if err != nil {
			return err
		}
		images = append(images, m.Images...)
		regFiles = append(regFiles, m.RegFiles...)
		if !cmd.Flags().Changed("backup") && !cmd.Flags().Changed("backup-dir") &&
			!cmd.Flags().Changed("continue-on-error") {
			opts = m.Options()
		}
		if encoding == "" {
			encoding = m.InputEncoding
		}
	}
	if len(images) == 0 {
		return fmt.Errorf("no images: pass --mount or a manifest")
	}
	if len(regFiles) == 0 {
		return fmt.Errorf("no .reg files: pass file arguments or a manifest")
	}
	opts.Logger = log

	var ops []types.Operation
	for _, path := range regFiles {
		data, err := readRegFile(path)
		if err != nil {
			return err
		}
		parsed, err := regtext.Parse(data, regtext.ParseOptions{
			InputEncoding: encoding,
			Logger:        log.WithField("file", path),
		})
		if err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		ops = append(ops, parsed...)
	}
	printInfo("Applying %d operation(s) to %d image(s)...\n", len(ops), len(images))

	results, err := apply.Apply(cmd.Context(), images, ops, opts)
	if err != nil {
		return err
	}

	if jsonOut {
		return printJSON(buildApplyReport(results))
	}

	totalFailed := 0
	for _, res := range results {
		printInfo("%s: %d succeeded, %d failed\n", res.Image, res.Succeeded, res.Failed)
		for _, f := range res.Failures() {
			printError("  line %d: %s %s: %v\n", f.Op.SourceLineNumber, f.Kind, f.Op.Path(), f.Err)
		}
		totalFailed += res.Failed
	}
	if totalFailed > 0 {
		return fmt.Errorf("%d operation(s) failed", totalFailed)
	}
	return nil
}

// applyReport is the JSON shape of an apply run.
type applyReport struct {
	Image     string          `json:"image"`
	Succeeded int             `json:"succeeded"`
	Failed    int             `json:"failed"`
	Failures  []failureReport `json:"failures,omitempty"`
}

type failureReport struct {
	Line  int    `json:"line"`
	Kind  string `json:"kind"`
	Path  string `json:"path"`
	Error string `json:"error"`
}

func buildApplyReport(results []apply.ImageResult) []applyReport {
	out := make([]applyReport, 0, len(results))
	for _, res := range results {
		r := applyReport{Image: res.Image, Succeeded: res.Succeeded, Failed: res.Failed}
		for _, f := range res.Failures() {
			r.Failures = append(r.Failures, failureReport{
				Line:  f.Op.SourceLineNumber,
				Kind:  f.Kind.String(),
				Path:  f.Op.Path(),
				Error: f.Err.Error(),
			})
		}
		out = append(out, r)
	}
	return out
}
