// Package types defines the shared API surface for regapply: registry
// operations, the typed value union, and stable error categories.
package types

import "fmt"

// -----------------------------------------------------------------------------
// Typed Errors (stable categories for programmatic handling)
// -----------------------------------------------------------------------------

// ErrKind classifies errors so callers can branch on intent rather than text.
type ErrKind int

const (
	ErrKindValidation  ErrKind = iota // bad request: missing hive, unsupported root
	ErrKindParse                      // malformed .reg input that could not be recovered
	ErrKindLoad                       // hive file could not be loaded/unloaded
	ErrKindApply                      // a single operation failed against a loaded hive
	ErrKindUnsupported                // recognized feature unavailable (e.g., platform)
)

// Error is a typed error with an optional underlying cause.
type Error struct {
	Kind ErrKind
	Msg  string
	Err  error // optional underlying cause
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Sentinels commonly returned by implementations.
var (
	// ErrUnsupportedRoot indicates a symbolic root with no offline hive file
	// (e.g., HKEY_CURRENT_USER has no meaning for an unbooted image).
	ErrUnsupportedRoot = &Error{Kind: ErrKindValidation, Msg: "registry root not available offline"}
	// ErrUnknownRoot indicates a symbolic root this tool does not recognize.
	ErrUnknownRoot = &Error{Kind: ErrKindValidation, Msg: "unrecognized registry root"}
	// ErrMissingHive indicates an operation without a hive root.
	ErrMissingHive = &Error{Kind: ErrKindValidation, Msg: "operation has no hive root"}
	// ErrWindowsOnly indicates offline hive loading was requested off-Windows.
	ErrWindowsOnly = &Error{Kind: ErrKindUnsupported, Msg: "offline hive loading requires windows"}
)

// ValidationError wraps err as ErrKindValidation with a message.
func ValidationError(msg string, err error) *Error {
	return &Error{Kind: ErrKindValidation, Msg: msg, Err: err}
}

// LoadError wraps a hive load/unload failure.
func LoadError(msg string, err error) *Error {
	return &Error{Kind: ErrKindLoad, Msg: msg, Err: err}
}

// -----------------------------------------------------------------------------
// Registry value types
// -----------------------------------------------------------------------------

// RegType enumerates Windows registry value types. The numbers align with
// the Windows definitions, so they can be handed to the registry API as-is.
type RegType uint32

const (
	REG_NONE      RegType = 0
	REG_SZ        RegType = 1
	REG_EXPAND_SZ RegType = 2
	REG_BINARY    RegType = 3
	REG_DWORD     RegType = 4
	REG_MULTI_SZ  RegType = 7
	REG_QWORD     RegType = 11
)

// String implements the Stringer interface for RegType.
func (t RegType) String() string {
	switch t {
	case REG_NONE:
		return "REG_NONE"
	case REG_SZ:
		return "REG_SZ"
	case REG_EXPAND_SZ:
		return "REG_EXPAND_SZ"
	case REG_BINARY:
		return "REG_BINARY"
	case REG_DWORD:
		return "REG_DWORD"
	case REG_MULTI_SZ:
		return "REG_MULTI_SZ"
	case REG_QWORD:
		return "REG_QWORD"
	default:
		return fmt.Sprintf("UNKNOWN_TYPE_%d", uint32(t))
	}
}

// -----------------------------------------------------------------------------
// Value union
// -----------------------------------------------------------------------------

// Value is the decoded payload of a value operation. It is a closed union:
// exactly one concrete type per registry value type, decidable at parse time.
// A nil Value means the operation carries no payload (deletions).
type Value interface {
	Type() RegType
	isValue()
}

// StringValue is a REG_SZ payload.
type StringValue string

// ExpandValue is a REG_EXPAND_SZ payload (environment references unexpanded).
type ExpandValue string

// DWORDValue is a REG_DWORD payload.
type DWORDValue uint32

// QWORDValue is a REG_QWORD payload.
type QWORDValue uint64

// BinaryValue is a REG_BINARY payload.
type BinaryValue []byte

// MultiStringValue is a REG_MULTI_SZ payload, order-preserving.
type MultiStringValue []string

func (StringValue) Type() RegType      { return REG_SZ }
func (ExpandValue) Type() RegType      { return REG_EXPAND_SZ }
func (DWORDValue) Type() RegType       { return REG_DWORD }
func (QWORDValue) Type() RegType       { return REG_QWORD }
func (BinaryValue) Type() RegType      { return REG_BINARY }
func (MultiStringValue) Type() RegType { return REG_MULTI_SZ }

func (StringValue) isValue()      {}
func (ExpandValue) isValue()      {}
func (DWORDValue) isValue()       {}
func (QWORDValue) isValue()       {}
func (BinaryValue) isValue()      {}
func (MultiStringValue) isValue() {}

// -----------------------------------------------------------------------------
// Operations
// -----------------------------------------------------------------------------

// OpKind is the mutation intent of an Operation.
type OpKind uint8

const (
	// OpCreate sets a value that is not expected to exist yet. The engine
	// reclassifies it as OpModify at apply time when the target is present;
	// the write primitive is the same either way.
	OpCreate OpKind = iota
	// OpModify sets a value that already exists.
	OpModify
	// OpRemove deletes a named value. Absence is not an error.
	OpRemove
	// OpRemoveKey deletes a key and its entire subtree. Absence is not an error.
	OpRemoveKey
)

// String returns the string representation of the OpKind.
func (k OpKind) String() string {
	switch k {
	case OpCreate:
		return "Create"
	case OpModify:
		return "Modify"
	case OpRemove:
		return "Remove"
	case OpRemoveKey:
		return "RemoveKey"
	default:
		return "Unknown"
	}
}

// Operation is one registry mutation intent parsed from .reg text.
// Operations are immutable value objects: the parser creates them and the
// engine consumes them read-only.
type Operation struct {
	// Kind of mutation.
	Kind OpKind

	// Hive is the symbolic root as written in the source, e.g.
	// "HKEY_LOCAL_MACHINE" or "HKLM". Never empty for a well-formed operation.
	Hive string

	// Key is the key path relative to the hive root, backslash-separated.
	// Empty addresses the root of the hive.
	Key string

	// ValueName names the value; "" is the key's default (unnamed) value.
	// Unused for OpRemoveKey.
	ValueName string

	// Value is the decoded payload. Nil for OpRemove and OpRemoveKey.
	Value Value

	// ValueType is the declared type, kept even when Value is nil
	// (REG_NONE when absent or unknown).
	ValueType RegType

	// SourceLine and SourceLineNumber record provenance for diagnostics.
	SourceLine       string
	SourceLineNumber int
}

// Path returns the full display path of the operation's key.
func (o Operation) Path() string {
	if o.Key == "" {
		return o.Hive
	}
	return o.Hive + `\` + o.Key
}
