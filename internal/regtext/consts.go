package regtext

const (
	// RegFileHeader is the signature line for .reg files version 5.00.
	RegFileHeader = "Windows Registry Editor Version 5.00"

	// RegFileHeaderPrefix matches any Registry Editor signature variant
	// (REGEDIT4 exports carry a different version suffix).
	RegFileHeaderPrefix = "Windows Registry Editor"

	// RegFileHeaderLegacy is the REGEDIT4 (ANSI) signature line.
	RegFileHeaderLegacy = "REGEDIT4"

	// KeyOpenBracket marks the start of a registry key path.
	KeyOpenBracket = "["

	// KeyCloseBracket marks the end of a registry key path.
	KeyCloseBracket = "]"

	// DeleteKeyPrefix marks a key for deletion (e.g., [-HKEY_LOCAL_MACHINE\...]).
	DeleteKeyPrefix = "-"

	// ValueAssignment separates value names from their data.
	ValueAssignment = "="

	// DefaultValueName is the token for the default (unnamed) value.
	DefaultValueName = "@"

	// CommentPrefix marks a comment line.
	CommentPrefix = ";"

	// DeleteValueToken marks a value for deletion.
	DeleteValueToken = "-"

	// Quote is the double-quote character for value names and string data.
	Quote = "\""

	// Backslash is used for escaping and path separators.
	Backslash = "\\"

	// EscapedQuote is the escaped double-quote sequence.
	EscapedQuote = "\\\""

	// EscapedBackslash is the escaped backslash sequence.
	EscapedBackslash = "\\\\"

	// CRLF is the Windows line ending used when emitting .reg text.
	CRLF = "\r\n"

	// DWORDPrefix identifies a 32-bit integer value in .reg format.
	DWORDPrefix = "dword:"

	// QWORDPrefix identifies a 64-bit integer value in .reg format.
	QWORDPrefix = "qword:"

	// HexPrefix identifies raw binary data in .reg format.
	HexPrefix = "hex:"

	// HexExpandSZPrefix identifies REG_EXPAND_SZ values (type 2).
	HexExpandSZPrefix = "hex(2):"

	// HexMultiSZPrefix identifies REG_MULTI_SZ values (type 7).
	HexMultiSZPrefix = "hex(7):"

	// DWORDHexLength is the expected length of a DWORD hex string.
	DWORDHexLength = 8

	// DWORDHexFormat formats DWORD values (8 hex digits).
	DWORDHexFormat = "%08x"

	// QWORDHexFormat formats QWORD values (16 hex digits).
	QWORDHexFormat = "%016x"

	// HexByteSeparator separates bytes in hex data.
	HexByteSeparator = ","

	// HexByteFormat formats a single hex byte.
	HexByteFormat = "%02x"

	// EncodingUTF8 is the identifier for UTF-8 input.
	EncodingUTF8 = "UTF-8"

	// EncodingUTF16LE is the identifier for UTF-16 little-endian input.
	EncodingUTF16LE = "UTF-16LE"

	// EncodingWindows1252 is the identifier for Windows-1252 (Latin-1) input,
	// the local encoding hivex-style exporters produce on non-Windows hosts.
	EncodingWindows1252 = "WINDOWS-1252"

	// ScannerInitialBufferSize is the initial buffer size for the line scanner.
	ScannerInitialBufferSize = 64 * 1024 // 64KB

	// ScannerMaxLineSize is the maximum line size for the line scanner.
	// Some exports carry huge single-line binary values.
	ScannerMaxLineSize = 1024 * 1024 // 1MB

	// UTF16CodeUnitSize is the size of a UTF-16 code unit in bytes.
	UTF16CodeUnitSize = 2
)

var (
	// UTF16LEBOM is the byte order mark for UTF-16 little-endian.
	UTF16LEBOM = []byte{0xFF, 0xFE}

	// UTF8BOM is the byte order mark for UTF-8.
	UTF8BOM = []byte{0xEF, 0xBB, 0xBF}

	// DoubleNullTerminator terminates REG_MULTI_SZ payloads.
	DoubleNullTerminator = []byte{0x00, 0x00}
)
