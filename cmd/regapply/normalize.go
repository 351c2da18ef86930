package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/regapply/internal/regtext"
	"github.com/joshuapare/regapply/pkg/types"
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize <reg-file>...",
	Short: "Re-emit .reg files in canonical form",
	Long: `Parse .reg files and re-emit them as one canonical UTF-8 export:
sections in source order, names quoted and escaped, typed payloads in
their canonical spelling. Useful for diffing hand-edited tweak files.

Examples:
  regapply normalize tweaks.reg
  regapply normalize --output combined.reg base.reg patch.reg --utf16`,
	Args: cobra.MinimumNArgs(1),
	RunE: runNormalize,
}

var (
	normalizeOutput   string
	normalizeUTF16    bool
	normalizeEncoding string
)

func init() {
	normalizeCmd.Flags().StringVarP(&normalizeOutput, "output", "o", "", "Write to file instead of stdout")
	normalizeCmd.Flags().BoolVar(&normalizeUTF16, "utf16", false, "Emit UTF-16LE with BOM (regedit's native encoding)")
	normalizeCmd.Flags().StringVar(&normalizeEncoding, "encoding", "", "Input encoding when no BOM is present")
	rootCmd.AddCommand(normalizeCmd)
}

func runNormalize(cmd *cobra.Command, args []string) error {
	log := newLogger()

	var ops []types.Operation
	for _, path := range args {
		data, err := readRegFile(path)
		if err != nil {
			return err
		}
		parsed, err := regtext.Parse(data, regtext.ParseOptions{
			InputEncoding: normalizeEncoding,
			Logger:        log.WithField("file", path),
		})
		if err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		ops = append(ops, parsed...)
	}

	opts := regtext.FormatOptions{}
	if normalizeUTF16 {
		opts.OutputEncoding = regtext.EncodingUTF16LE
		opts.WithBOM = true
	}
	out, err := regtext.Format(ops, opts)
	if err != nil {
		return fmt.Errorf("format: %w", err)
	}

	if normalizeOutput == "" {
		_, err = os.Stdout.Write(out)
		return err
	}
	if err := os.WriteFile(normalizeOutput, out, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", normalizeOutput, err)
	}
	printInfo("Wrote %d operation(s) to %s\n", len(ops), normalizeOutput)
	return nil
}
