package regtext

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/joshuapare/regapply/pkg/types"
)

// FormatOptions control emitted .reg text.
type FormatOptions struct {
	// OutputEncoding selects the output encoding ("" or "UTF-8", "UTF-16LE").
	// Regedit itself writes UTF-16LE with a BOM.
	OutputEncoding string
	// WithBOM prepends a byte order mark for UTF-16LE output.
	WithBOM bool
}

// Format serializes operations back to .reg text. Operations re-parse to
// the same (hive, key, valueName, valueType, value) tuples, so parse → edit
// → format round-trips.
func Format(ops []types.Operation, opts FormatOptions) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(RegFileHeader + CRLF)

	currentPath := ""
	haveSection := false
	for _, op := range ops {
		if op.Kind == types.OpRemoveKey {
			buf.WriteString(CRLF + KeyOpenBracket + DeleteKeyPrefix + op.Path() + KeyCloseBracket + CRLF)
			// A deletion header ends the current section in regedit too.
			currentPath, haveSection = "", false
			continue
		}
		if path := op.Path(); !haveSection || path != currentPath {
			buf.WriteString(CRLF + KeyOpenBracket + path + KeyCloseBracket + CRLF)
			currentPath, haveSection = path, true
		}
		emitValueLine(&buf, op)
	}

	switch strings.ToUpper(opts.OutputEncoding) {
	case "", EncodingUTF8:
		return buf.Bytes(), nil
	case EncodingUTF16LE:
		bom := unicode.IgnoreBOM
		if opts.WithBOM {
			bom = unicode.ExpectBOM
		}
		enc := unicode.UTF16(unicode.LittleEndian, bom).NewEncoder()
		out, _, err := transform.Bytes(enc, buf.Bytes())
		if err != nil {
			return nil, err
		}
		return out, nil
	default:
		return nil, errUnsupportedEnc
	}
}

func emitValueLine(buf *bytes.Buffer, op types.Operation) {
	if op.ValueName == "" {
		buf.WriteString(DefaultValueName)
	} else {
		buf.WriteString(Quote + escapeRegString(op.ValueName) + Quote)
	}
	buf.WriteString(ValueAssignment)

	if op.Kind == types.OpRemove {
		buf.WriteString(DeleteValueToken + CRLF)
		return
	}

	switch v := op.Value.(type) {
	case types.StringValue:
		buf.WriteString(Quote + escapeRegString(string(v)) + Quote)
	case types.ExpandValue:
		buf.WriteString(HexExpandSZPrefix + formatHex(encodeUTF16ZeroTerminated(string(v))))
	case types.MultiStringValue:
		buf.WriteString(HexMultiSZPrefix + formatHex(encodeUTF16MultiString(v)))
	case types.DWORDValue:
		buf.WriteString(DWORDPrefix)
		fmt.Fprintf(buf, DWORDHexFormat, uint32(v))
	case types.QWORDValue:
		buf.WriteString(QWORDPrefix)
		fmt.Fprintf(buf, QWORDHexFormat, uint64(v))
	case types.BinaryValue:
		buf.WriteString(HexPrefix + formatHex(v))
	default:
		// No payload to express; regedit has no empty-value syntax beyond "".
		buf.WriteString(Quote + Quote)
	}
	buf.WriteString(CRLF)
}

func formatHex(data []byte) string {
	if len(data) == 0 {
		return "00"
	}
	parts := make([]string, len(data))
	for i, b := range data {
		parts[i] = fmt.Sprintf(HexByteFormat, b)
	}
	return strings.Join(parts, HexByteSeparator)
}
