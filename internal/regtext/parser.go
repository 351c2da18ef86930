// Package regtext parses and emits the textual Windows Registry Editor
// (.reg) export format, mapping it to regapply operations.
//
// Parsing is line-oriented with per-line fault isolation: a malformed line
// is logged and skipped, it never discards the rest of the file.
package regtext

import (
	"bufio"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/joshuapare/regapply/pkg/types"
)

// ParseOptions configures .reg text parsing.
type ParseOptions struct {
	// InputEncoding declares the input encoding when no BOM is present
	// ("" or "UTF-8", "UTF-16LE", "Windows-1252"). A BOM always wins.
	InputEncoding string

	// Logger receives parse warnings (skipped lines, decode fallbacks).
	// Nil discards them.
	Logger logrus.FieldLogger
}

// Parse converts .reg text into an ordered list of operations.
//
// Blank lines, comments, and the signature header are skipped. A
// `[path]` section sets the current key context; `[-path]` emits a
// RemoveKey and clears the context so orphaned value lines that follow
// are ignored rather than misattributed. Value lines split on the `=`
// after the (possibly quoted) name; the special name `@` addresses the
// key's default value and a bare
// `-` payload deletes the value. Hex payloads ending in a line
// continuation backslash are joined with the following lines.
//
// The only returned error is a failed input transcode; everything else
// is recovered per line.
func Parse(data []byte, opts ParseOptions) ([]types.Operation, error) {
	log := opts.Logger
	if log == nil {
		log = nopLogger()
	}

	text, err := decodeInput(data, opts.InputEncoding)
	if err != nil {
		return nil, &types.Error{Kind: types.ErrKindParse, Msg: "decode .reg input", Err: err}
	}

	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, ScannerInitialBufferSize), ScannerMaxLineSize)

	var (
		ops        []types.Operation
		curHive    string
		curKey     string
		haveKey    bool
		lineNumber int
	)

	for scanner.Scan() {
		lineNumber++
		startLine := lineNumber
		line := strings.TrimSpace(strings.TrimRight(scanner.Text(), "\r"))

		if line == "" || strings.HasPrefix(line, CommentPrefix) {
			continue
		}
		if strings.HasPrefix(line, RegFileHeaderPrefix) || line == RegFileHeaderLegacy {
			continue
		}

		// Multi-line hex payloads end each fragment with a continuation
		// backslash; stitch them back into one logical line.
		for strings.HasSuffix(line, Backslash) && scanner.Scan() {
			lineNumber++
			line += strings.TrimSpace(strings.TrimRight(scanner.Text(), "\r"))
		}

		if strings.HasPrefix(line, KeyOpenBracket) && strings.HasSuffix(line, KeyCloseBracket) {
			section := strings.TrimSuffix(strings.TrimPrefix(line, KeyOpenBracket), KeyCloseBracket)
			if strings.HasPrefix(section, DeleteKeyPrefix) {
				path := strings.TrimSpace(section[len(DeleteKeyPrefix):])
				hive, key := splitHivePath(path)
				if hive == "" {
					log.WithField("line", startLine).Warnf("skipping key deletion with empty path: %s", line)
				} else {
					ops = append(ops, types.Operation{
						Kind:             types.OpRemoveKey,
						Hive:             hive,
						Key:              key,
						ValueType:        types.REG_NONE,
						SourceLine:       line,
						SourceLineNumber: startLine,
					})
				}
				// Value lines after a deleted key would be orphaned; drop
				// the context so they are ignored instead of misattributed.
				curHive, curKey, haveKey = "", "", false
				continue
			}
			curHive, curKey = splitHivePath(section)
			haveKey = curHive != ""
			if !haveKey {
				log.WithField("line", startLine).Warnf("skipping section with empty path: %s", line)
			}
			continue
		}

		if haveKey && strings.Contains(line, ValueAssignment) {
			op, warn := parseValueLine(curHive, curKey, line)
			op.SourceLine = line
			op.SourceLineNumber = startLine
			if warn != nil {
				log.WithField("line", startLine).Warnf("value %q decoded as raw string: %v", op.ValueName, warn)
			}
			ops = append(ops, op)
			continue
		}

		log.WithField("line", startLine).Warnf("skipping unrecognized line: %s", line)
	}
	if err := scanner.Err(); err != nil {
		return nil, &types.Error{Kind: types.ErrKindParse, Msg: "scan .reg input", Err: err}
	}
	return ops, nil
}

// ParseReader reads all of r and parses it.
func ParseReader(r io.Reader, opts ParseOptions) ([]types.Operation, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &types.Error{Kind: types.ErrKindParse, Msg: "read .reg input", Err: err}
	}
	return Parse(data, opts)
}

// parseValueLine handles a `name=payload` line under the current key.
// The returned warning is non-nil when the payload fell back to raw-string
// decoding; the operation is still usable.
func parseValueLine(hive, key, line string) (types.Operation, error) {
	namePart, payload := cutValueLine(line)

	name := strings.TrimSpace(namePart)
	if name == DefaultValueName {
		name = ""
	} else {
		if len(name) >= 2 && strings.HasPrefix(name, Quote) && strings.HasSuffix(name, Quote) {
			name = name[1 : len(name)-1]
		}
		name = unescapeRegString(name)
	}

	op := types.Operation{
		Kind:      types.OpCreate,
		Hive:      hive,
		Key:       key,
		ValueName: name,
		ValueType: types.REG_NONE,
	}

	payload = strings.TrimSpace(payload)
	if payload == DeleteValueToken {
		op.Kind = types.OpRemove
		return op, nil
	}

	value, valueType, warn := DecodeValue(payload)
	op.Value = value
	op.ValueType = valueType
	return op, warn
}

// cutValueLine splits a value line into its name part and payload. Quoted
// names may themselves contain `=`, so for those the separator is searched
// after the closing quote rather than at the first occurrence.
func cutValueLine(line string) (name, payload string) {
	if strings.HasPrefix(line, Quote) {
		if end := findClosingQuote(line); end > 0 {
			rest := line[end+1:]
			if eq := strings.Index(rest, ValueAssignment); eq >= 0 {
				return line[:end+1], rest[eq+len(ValueAssignment):]
			}
		}
	}
	name, payload, _ = strings.Cut(line, ValueAssignment)
	return name, payload
}

// splitHivePath splits a full key path on the first separator into the
// symbolic hive root and the key path relative to it.
func splitHivePath(path string) (hive, key string) {
	hive, key, _ = strings.Cut(path, Backslash)
	return hive, key
}

func nopLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
