package main

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/joshuapare/regapply/internal/hivepath"
	"github.com/joshuapare/regapply/internal/regtext"
	"github.com/joshuapare/regapply/pkg/types"
)

var parseCmd = &cobra.Command{
	Use:   "parse <reg-file>...",
	Short: "Parse .reg files and show the resolved operations (dry run)",
	Long: `Parse one or more .reg files and print every operation that an apply
would perform (kind, hive, key, value name, declared type, and decoded
value) without touching any hive.

With --mount, each operation is also resolved against that image root so
you can see exactly which hive file it would hit.

Examples:
  # Show what a tweak file would do
  regapply parse tweaks.reg

  # Resolve against a mounted image and emit JSON
  regapply parse --mount D:\mount\image1 --json tweaks.reg`,
	Args: cobra.MinimumNArgs(1),
	RunE: runParse,
}

var (
	parseMount    string
	parseEncoding string
)

func init() {
	parseCmd.Flags().StringVar(&parseMount, "mount", "", "Resolve hive files against this image mount root")
	parseCmd.Flags().StringVar(&parseEncoding, "encoding", "", "Input encoding when no BOM is present (UTF-8, UTF-16LE, Windows-1252)")
	rootCmd.AddCommand(parseCmd)
}

// opReport is the JSON shape of one resolved operation.
type opReport struct {
	Kind      string      `json:"kind"`
	Hive      string      `json:"hive"`
	Key       string      `json:"key"`
	ValueName string      `json:"valueName,omitempty"`
	ValueType string      `json:"valueType"`
	Value     interface{} `json:"value,omitempty"`
	HiveFile  string      `json:"hiveFile,omitempty"`
	Line      int         `json:"line"`
}

func runParse(cmd *cobra.Command, args []string) error {
	log := newLogger()

	var all []types.Operation
	for _, path := range args {
		data, err := readRegFile(path)
		if err != nil {
			return err
		}
		ops, err := regtext.Parse(data, regtext.ParseOptions{
			InputEncoding: parseEncoding,
			Logger:        log.WithField("file", path),
		})
		if err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		printInfo("%s: %d operation(s)\n", path, len(ops))
		all = append(all, ops...)
	}

	if jsonOut {
		reports := make([]opReport, 0, len(all))
		for _, op := range all {
			reports = append(reports, buildReport(op))
		}
		return printJSON(reports)
	}

	for _, op := range all {
		printOperation(op)
	}
	return nil
}

func buildReport(op types.Operation) opReport {
	r := opReport{
		Kind:      op.Kind.String(),
		Hive:      op.Hive,
		Key:       op.Key,
		ValueName: op.ValueName,
		ValueType: op.ValueType.String(),
		Line:      op.SourceLineNumber,
	}
	if op.Value != nil {
		r.Value = op.Value
	}
	if parseMount != "" {
		if hv, err := hivepath.Resolve(parseMount, op.Hive, op.Key); err == nil {
			r.HiveFile = hv.File
		}
	}
	return r
}

func printOperation(op types.Operation) {
	kind := kindColor(op.Kind).Sprintf("%-9s", op.Kind)
	switch op.Kind {
	case types.OpRemoveKey:
		printInfo("%s %s\n", kind, op.Path())
	case types.OpRemove:
		printInfo("%s %s : %s\n", kind, op.Path(), displayName(op.ValueName))
	default:
		printInfo("%s %s : %s = %s (%s)\n",
			kind, op.Path(), displayName(op.ValueName), formatValue(op.Value), op.ValueType)
	}
	if parseMount != "" {
		if hv, err := hivepath.Resolve(parseMount, op.Hive, op.Key); err == nil {
			printInfo("          -> %s\n", hv.File)
		}
	}
}

func kindColor(k types.OpKind) *color.Color {
	switch k {
	case types.OpCreate:
		return color.New(color.FgGreen)
	case types.OpModify:
		return color.New(color.FgYellow)
	case types.OpRemove, types.OpRemoveKey:
		return color.New(color.FgRed)
	default:
		return color.New(color.Reset)
	}
}

func displayName(name string) string {
	if name == "" {
		return "(default)"
	}
	return name
}

// formatValue renders a decoded payload for human output, truncating
// oversized binary blobs.
func formatValue(v types.Value) string {
	const maxBinaryShown = 16
	switch val := v.(type) {
	case types.StringValue:
		return fmt.Sprintf("%q", string(val))
	case types.ExpandValue:
		return fmt.Sprintf("%q", string(val))
	case types.DWORDValue:
		return fmt.Sprintf("0x%08x (%d)", uint32(val), uint32(val))
	case types.QWORDValue:
		return fmt.Sprintf("0x%016x (%d)", uint64(val), uint64(val))
	case types.MultiStringValue:
		return "[" + strings.Join(val, ", ") + "]"
	case types.BinaryValue:
		if len(val) > maxBinaryShown {
			return fmt.Sprintf("%s... (%d bytes)", hex.EncodeToString(val[:maxBinaryShown]), len(val))
		}
		return hex.EncodeToString(val)
	case nil:
		return "<none>"
	default:
		return fmt.Sprintf("%v", v)
	}
}
