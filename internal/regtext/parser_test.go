package regtext

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"github.com/joshuapare/regapply/pkg/types"
)

func TestParseBasicFile(t *testing.T) {
	input := `Windows Registry Editor Version 5.00

; tweak a service and clean up an old key

[HKEY_LOCAL_MACHINE\SOFTWARE\Foo]
@="Default"
"Count"=dword:0000002a
"Path"="C:\\Temp"
"Old"=-

[-HKEY_LOCAL_MACHINE\SOFTWARE\Obsolete]
`

	ops, err := Parse([]byte(input), ParseOptions{})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(ops) != 5 {
		t.Fatalf("expected 5 operations, got %d", len(ops))
	}

	want := []types.Operation{
		{Kind: types.OpCreate, Hive: "HKEY_LOCAL_MACHINE", Key: `SOFTWARE\Foo`, ValueName: "", Value: types.StringValue("Default"), ValueType: types.REG_SZ},
		{Kind: types.OpCreate, Hive: "HKEY_LOCAL_MACHINE", Key: `SOFTWARE\Foo`, ValueName: "Count", Value: types.DWORDValue(42), ValueType: types.REG_DWORD},
		{Kind: types.OpCreate, Hive: "HKEY_LOCAL_MACHINE", Key: `SOFTWARE\Foo`, ValueName: "Path", Value: types.StringValue(`C:\Temp`), ValueType: types.REG_SZ},
		{Kind: types.OpRemove, Hive: "HKEY_LOCAL_MACHINE", Key: `SOFTWARE\Foo`, ValueName: "Old", ValueType: types.REG_NONE},
		{Kind: types.OpRemoveKey, Hive: "HKEY_LOCAL_MACHINE", Key: `SOFTWARE\Obsolete`, ValueType: types.REG_NONE},
	}
	for i, w := range want {
		got := ops[i]
		if got.Kind != w.Kind || got.Hive != w.Hive || got.Key != w.Key ||
			got.ValueName != w.ValueName || got.ValueType != w.ValueType ||
			!reflect.DeepEqual(got.Value, w.Value) {
			t.Errorf("op %d: expected %+v, got %+v", i, w, got)
		}
		if got.SourceLineNumber == 0 {
			t.Errorf("op %d: missing source line number", i)
		}
	}
}

func TestParseKeyDeletionClearsContext(t *testing.T) {
	input := `Windows Registry Editor Version 5.00

[-HKEY_LOCAL_MACHINE\SOFTWARE\Gone]
"Orphan"=dword:00000001

[HKEY_LOCAL_MACHINE\SOFTWARE\Kept]
"Live"=dword:00000002
`
	log, hook := logtest.NewNullLogger()
	ops, err := Parse([]byte(input), ParseOptions{Logger: log})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	// The orphaned value line after the deletion must not be attributed to
	// any key, deleted or otherwise.
	if len(ops) != 2 {
		t.Fatalf("expected 2 operations, got %d", len(ops))
	}
	if ops[0].Kind != types.OpRemoveKey || ops[0].Key != `SOFTWARE\Gone` {
		t.Errorf("unexpected first op: %+v", ops[0])
	}
	if ops[1].ValueName != "Live" || ops[1].Key != `SOFTWARE\Kept` {
		t.Errorf("unexpected second op: %+v", ops[1])
	}

	if !hasWarningContaining(hook, "Orphan") {
		t.Error("expected a warning for the orphaned value line")
	}
}

func TestParseDecodeFallbackWarnsButKeepsGoing(t *testing.T) {
	input := `Windows Registry Editor Version 5.00

[HKEY_LOCAL_MACHINE\SOFTWARE\Foo]
"Bad"=hex:ab,c
"Good"=dword:00000007
`
	log, hook := logtest.NewNullLogger()
	ops, err := Parse([]byte(input), ParseOptions{Logger: log})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(ops) != 2 {
		t.Fatalf("expected 2 operations, got %d", len(ops))
	}

	// The malformed hex payload degrades to a raw string, it does not
	// abort the file.
	if ops[0].ValueType != types.REG_SZ {
		t.Errorf("expected raw-string fallback, got %v", ops[0].ValueType)
	}
	if ops[0].Value != types.Value(types.StringValue("hex:ab,c")) {
		t.Errorf("expected verbatim payload, got %#v", ops[0].Value)
	}
	if ops[1].Value != types.Value(types.DWORDValue(7)) {
		t.Errorf("expected later line to parse, got %#v", ops[1].Value)
	}
	if !hasWarningContaining(hook, "raw string") {
		t.Error("expected a fallback warning")
	}
}

func TestParseLineContinuation(t *testing.T) {
	input := "Windows Registry Editor Version 5.00\r\n" +
		"\r\n" +
		"[HKEY_LOCAL_MACHINE\\SYSTEM\\Setup]\r\n" +
		"\"Blob\"=hex:01,02,03,\\\r\n" +
		"  04,05,06\r\n" +
		"\"After\"=dword:00000001\r\n"

	ops, err := Parse([]byte(input), ParseOptions{})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(ops) != 2 {
		t.Fatalf("expected 2 operations, got %d", len(ops))
	}
	want := types.BinaryValue{1, 2, 3, 4, 5, 6}
	if !reflect.DeepEqual(ops[0].Value, types.Value(want)) {
		t.Errorf("expected joined payload %v, got %#v", want, ops[0].Value)
	}
	if ops[0].SourceLineNumber != 4 {
		t.Errorf("expected continuation op at line 4, got %d", ops[0].SourceLineNumber)
	}
	if ops[1].SourceLineNumber != 6 {
		t.Errorf("expected following op at line 6, got %d", ops[1].SourceLineNumber)
	}
}

func TestParseQuotedNameWithEquals(t *testing.T) {
	input := `Windows Registry Editor Version 5.00

[HKEY_LOCAL_MACHINE\SOFTWARE\Foo]
"a=b"=dword:00000001
"Esc\"aped"="x"
`
	ops, err := Parse([]byte(input), ParseOptions{})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(ops) != 2 {
		t.Fatalf("expected 2 operations, got %d", len(ops))
	}
	if ops[0].ValueName != "a=b" {
		t.Errorf("expected name %q, got %q", "a=b", ops[0].ValueName)
	}
	if ops[1].ValueName != `Esc"aped` {
		t.Errorf("expected name %q, got %q", `Esc"aped`, ops[1].ValueName)
	}
}

func TestParseSkipsHeadersCommentsAndJunk(t *testing.T) {
	input := `REGEDIT4
; a comment
stray text before any section

[HKEY_LOCAL_MACHINE\SOFTWARE\Foo]
not a value line
"Real"=dword:00000001
`
	log, hook := logtest.NewNullLogger()
	ops, err := Parse([]byte(input), ParseOptions{Logger: log})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(ops) != 1 || ops[0].ValueName != "Real" {
		t.Fatalf("expected only the real value line, got %+v", ops)
	}
	if !hasWarningContaining(hook, "unrecognized") {
		t.Error("expected warnings for skipped junk lines")
	}
}

func TestParseUTF16LEWithBOM(t *testing.T) {
	text := "Windows Registry Editor Version 5.00\r\n\r\n" +
		"[HKEY_LOCAL_MACHINE\\SOFTWARE\\Foo]\r\n" +
		"\"Name\"=\"wert\"\r\n"
	data := append([]byte{}, UTF16LEBOM...)
	for _, r := range text {
		data = append(data, byte(r), byte(r>>8))
	}

	// BOM wins even over a contradicting declared encoding.
	ops, err := Parse(data, ParseOptions{InputEncoding: EncodingWindows1252})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(ops) != 1 || ops[0].Value != types.Value(types.StringValue("wert")) {
		t.Fatalf("unexpected operations: %+v", ops)
	}
}

func TestParseUnsupportedEncoding(t *testing.T) {
	_, err := Parse([]byte("x"), ParseOptions{InputEncoding: "EBCDIC"})
	if err == nil {
		t.Fatal("expected an error for an unsupported encoding")
	}
	var terr *types.Error
	if !errors.As(err, &terr) || terr.Kind != types.ErrKindParse {
		t.Errorf("expected a parse-kind error, got %v", err)
	}
}

func TestParseReader(t *testing.T) {
	input := "Windows Registry Editor Version 5.00\n\n[HKEY_USERS\\.DEFAULT\\Environment]\n\"TEMP\"=\"C:\\\\T\"\n"
	ops, err := ParseReader(strings.NewReader(input), ParseOptions{})
	if err != nil {
		t.Fatalf("ParseReader failed: %v", err)
	}
	if len(ops) != 1 || ops[0].Hive != "HKEY_USERS" || ops[0].Key != `.DEFAULT\Environment` {
		t.Fatalf("unexpected operations: %+v", ops)
	}
}

func hasWarningContaining(hook *logtest.Hook, substr string) bool {
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel && strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}
