package regtext

import (
	"strconv"
	"strings"

	"github.com/joshuapare/regapply/pkg/types"
)

// DecodeValue decodes the right-hand side of a value line (already trimmed)
// into a typed payload. Rules are checked in order, first match wins:
// quoted string, dword:, qword:, hex(7):, hex(2):, hex:, raw string.
//
// A typed rule that fails to decode does not fail the line: the payload
// falls back to the raw-string rule and the decode error is returned
// alongside the usable value so the caller can log it. The returned Value
// is always non-nil.
func DecodeValue(payload string) (types.Value, types.RegType, error) {
	if len(payload) >= 2 && strings.HasPrefix(payload, Quote) && strings.HasSuffix(payload, Quote) {
		s := unescapeRegString(payload[1 : len(payload)-1])
		return types.StringValue(s), types.REG_SZ, nil
	}

	if rest, ok := foldCutPrefix(payload, DWORDPrefix); ok {
		if len(rest) == DWORDHexLength {
			if n, err := strconv.ParseUint(rest, 16, 32); err == nil {
				return types.DWORDValue(uint32(n)), types.REG_DWORD, nil
			}
		}
		return rawFallback(payload, errInvalidHexDigits)
	}

	if rest, ok := foldCutPrefix(payload, QWORDPrefix); ok {
		if n, err := strconv.ParseUint(rest, 16, 64); err == nil {
			return types.QWORDValue(n), types.REG_QWORD, nil
		}
		return rawFallback(payload, errInvalidHexDigits)
	}

	if rest, ok := foldCutPrefix(payload, HexMultiSZPrefix); ok {
		data, err := parseHexByteStream(rest)
		if err != nil {
			return rawFallback(payload, err)
		}
		strs, err := decodeUTF16MultiString(data)
		if err != nil {
			return rawFallback(payload, err)
		}
		return types.MultiStringValue(strs), types.REG_MULTI_SZ, nil
	}

	if rest, ok := foldCutPrefix(payload, HexExpandSZPrefix); ok {
		data, err := parseHexByteStream(rest)
		if err != nil {
			return rawFallback(payload, err)
		}
		s, err := decodeUTF16String(data)
		if err != nil {
			return rawFallback(payload, err)
		}
		return types.ExpandValue(s), types.REG_EXPAND_SZ, nil
	}

	if rest, ok := foldCutPrefix(payload, HexPrefix); ok {
		data, err := parseHexByteStream(rest)
		if err != nil {
			return rawFallback(payload, err)
		}
		return types.BinaryValue(data), types.REG_BINARY, nil
	}

	return types.StringValue(payload), types.REG_SZ, nil
}

// rawFallback applies the default rule after a typed decode failed.
func rawFallback(payload string, cause error) (types.Value, types.RegType, error) {
	return types.StringValue(payload), types.REG_SZ, cause
}

// foldCutPrefix is strings.CutPrefix with ASCII case folding, since .reg
// type prefixes are case-insensitive.
func foldCutPrefix(s, prefix string) (string, bool) {
	if len(s) < len(prefix) || !strings.EqualFold(s[:len(prefix)], prefix) {
		return s, false
	}
	return s[len(prefix):], true
}
