package regtext

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"strings"
	"unicode/utf16"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	errOddHexDigits     = errors.New("regtext: odd number of hex digits")
	errOddUTF16Payload  = errors.New("regtext: UTF-16 payload has odd byte count")
	errUnsupportedEnc   = errors.New("regtext: unsupported input encoding")
	errEmptyHexPayload  = errors.New("regtext: empty hex payload")
	errInvalidHexDigits = errors.New("regtext: invalid hex digits")
)

// unescapeRegString unescapes a string from .reg format.
// .reg files escape backslashes as \\ and quotes as \".
func unescapeRegString(s string) string {
	if strings.IndexByte(s, '\\') == -1 {
		return s // no backslashes, no escapes
	}
	s = strings.ReplaceAll(s, EscapedBackslash, Backslash)
	s = strings.ReplaceAll(s, EscapedQuote, Quote)
	return s
}

// escapeRegString escapes a string for .reg output.
func escapeRegString(s string) string {
	s = strings.ReplaceAll(s, Backslash, EscapedBackslash)
	s = strings.ReplaceAll(s, Quote, EscapedQuote)
	return s
}

// findClosingQuote finds the position of the closing quote in a line,
// accounting for escaped quotes (preceded by an odd number of backslashes).
// Returns -1 if no valid closing quote is found. The search starts at
// position 1 (the opening quote is assumed at position 0).
func findClosingQuote(line string) int {
	for i := 1; i < len(line); i++ {
		if line[i] == '"' {
			numBackslashes := 0
			for j := i - 1; j >= 0 && line[j] == '\\'; j-- {
				numBackslashes++
			}
			if numBackslashes%2 == 1 {
				continue // escaped quote, keep looking
			}
			return i
		}
	}
	return -1
}

// parseHexByteStream decodes the comma-separated hex byte stream that follows
// a hex-family prefix. Commas, whitespace, and line-continuation backslashes
// are stripped before pairing digits. An odd-length residual is an error for
// this value only; the caller falls back to raw-string decoding.
func parseHexByteStream(payload string) ([]byte, error) {
	var sb strings.Builder
	sb.Grow(len(payload))
	for i := 0; i < len(payload); i++ {
		switch c := payload[i]; c {
		case ' ', '\t', '\r', '\n', ',', '\\':
			// separator or continuation, skip
		default:
			sb.WriteByte(c)
		}
	}
	cleaned := sb.String()
	if cleaned == "" {
		return nil, errEmptyHexPayload
	}
	if len(cleaned)%2 != 0 {
		return nil, errOddHexDigits
	}
	data, err := hex.DecodeString(cleaned)
	if err != nil {
		return nil, errInvalidHexDigits
	}
	return data, nil
}

// decodeUTF16String interprets b as a null-terminated UTF-16LE string.
// Trailing null terminators are dropped; embedded data past the first null
// is ignored, matching how the registry itself reads REG_EXPAND_SZ payloads.
func decodeUTF16String(b []byte) (string, error) {
	if len(b)%UTF16CodeUnitSize != 0 {
		return "", errOddUTF16Payload
	}
	words := make([]uint16, len(b)/UTF16CodeUnitSize)
	for i := range words {
		words[i] = binary.LittleEndian.Uint16(b[i*UTF16CodeUnitSize:])
	}
	for i, w := range words {
		if w == 0 {
			words = words[:i]
			break
		}
	}
	return string(utf16.Decode(words)), nil
}

// decodeUTF16MultiString interprets b as a double-null-terminated sequence of
// UTF-16LE strings (REG_MULTI_SZ layout). Order is preserved.
func decodeUTF16MultiString(b []byte) ([]string, error) {
	if len(b)%UTF16CodeUnitSize != 0 {
		return nil, errOddUTF16Payload
	}
	words := make([]uint16, len(b)/UTF16CodeUnitSize)
	for i := range words {
		words[i] = binary.LittleEndian.Uint16(b[i*UTF16CodeUnitSize:])
	}
	// Drop trailing terminators so the split below yields no ghost entries.
	for len(words) > 0 && words[len(words)-1] == 0 {
		words = words[:len(words)-1]
	}
	if len(words) == 0 {
		return nil, nil
	}
	var out []string
	start := 0
	for i, w := range words {
		if w == 0 {
			out = append(out, string(utf16.Decode(words[start:i])))
			start = i + 1
		}
	}
	out = append(out, string(utf16.Decode(words[start:])))
	return out, nil
}

// encodeUTF16ZeroTerminated encodes a string to UTF-16LE with a null terminator.
func encodeUTF16ZeroTerminated(s string) []byte {
	words := utf16.Encode([]rune(s))
	buf := make([]byte, (len(words)+1)*UTF16CodeUnitSize)
	for i, w := range words {
		binary.LittleEndian.PutUint16(buf[i*UTF16CodeUnitSize:], w)
	}
	return buf
}

// encodeUTF16MultiString encodes strings as a double-null-terminated
// UTF-16LE sequence (REG_MULTI_SZ layout).
func encodeUTF16MultiString(values []string) []byte {
	var buf bytes.Buffer
	for _, v := range values {
		buf.Write(encodeUTF16ZeroTerminated(v))
	}
	buf.Write(DoubleNullTerminator)
	return buf.Bytes()
}

// decodeInput converts raw .reg file bytes to UTF-8 text. A UTF-16LE or
// UTF-8 BOM wins over the declared encoding; without a BOM the declared
// encoding is honored ("" means UTF-8). Regedit exports UTF-16LE with BOM;
// hivex-style exporters emit Windows-1252.
func decodeInput(data []byte, declared string) (string, error) {
	if bytes.HasPrefix(data, UTF16LEBOM) {
		dec := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
		out, _, err := transform.Bytes(dec, data)
		if err != nil {
			return "", err
		}
		return string(out), nil
	}
	if bytes.HasPrefix(data, UTF8BOM) {
		return string(data[len(UTF8BOM):]), nil
	}
	switch strings.ToUpper(declared) {
	case "", EncodingUTF8:
		return string(data), nil
	case EncodingUTF16LE:
		dec := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()
		out, _, err := transform.Bytes(dec, data)
		if err != nil {
			return "", err
		}
		return string(out), nil
	case EncodingWindows1252:
		out, _, err := transform.Bytes(charmap.Windows1252.NewDecoder(), data)
		if err != nil {
			return "", err
		}
		return string(out), nil
	default:
		return "", errUnsupportedEnc
	}
}
