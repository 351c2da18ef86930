package regtext

import (
	"bytes"
	"reflect"
	"strings"
	"testing"

	"github.com/joshuapare/regapply/pkg/types"
)

func TestFormatRoundTrip(t *testing.T) {
	ops := []types.Operation{
		{Kind: types.OpCreate, Hive: "HKEY_LOCAL_MACHINE", Key: `SOFTWARE\Foo`, ValueName: "", Value: types.StringValue("Default"), ValueType: types.REG_SZ},
		{Kind: types.OpCreate, Hive: "HKEY_LOCAL_MACHINE", Key: `SOFTWARE\Foo`, ValueName: "Str", Value: types.StringValue(`C:\x "y"`), ValueType: types.REG_SZ},
		{Kind: types.OpCreate, Hive: "HKEY_LOCAL_MACHINE", Key: `SOFTWARE\Foo`, ValueName: "Num", Value: types.DWORDValue(42), ValueType: types.REG_DWORD},
		{Kind: types.OpCreate, Hive: "HKEY_LOCAL_MACHINE", Key: `SOFTWARE\Foo`, ValueName: "Big", Value: types.QWORDValue(1 << 40), ValueType: types.REG_QWORD},
		{Kind: types.OpCreate, Hive: "HKEY_LOCAL_MACHINE", Key: `SOFTWARE\Foo`, ValueName: "Bin", Value: types.BinaryValue{0xde, 0xad}, ValueType: types.REG_BINARY},
		{Kind: types.OpCreate, Hive: "HKEY_LOCAL_MACHINE", Key: `SOFTWARE\Foo`, ValueName: "Exp", Value: types.ExpandValue("%TEMP%"), ValueType: types.REG_EXPAND_SZ},
		{Kind: types.OpCreate, Hive: "HKEY_LOCAL_MACHINE", Key: `SOFTWARE\Foo`, ValueName: "Multi", Value: types.MultiStringValue{"a", "b"}, ValueType: types.REG_MULTI_SZ},
		{Kind: types.OpRemove, Hive: "HKEY_LOCAL_MACHINE", Key: `SOFTWARE\Foo`, ValueName: "Gone", ValueType: types.REG_NONE},
		{Kind: types.OpRemoveKey, Hive: "HKEY_LOCAL_MACHINE", Key: `SOFTWARE\Old`, ValueType: types.REG_NONE},
		{Kind: types.OpCreate, Hive: "HKEY_USERS", Key: `.DEFAULT\Environment`, ValueName: "TEMP", Value: types.StringValue(`C:\T`), ValueType: types.REG_SZ},
	}

	out, err := Format(ops, FormatOptions{})
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}
	if !strings.HasPrefix(string(out), RegFileHeader+CRLF) {
		t.Error("missing signature header")
	}

	reparsed, err := Parse(out, ParseOptions{})
	if err != nil {
		t.Fatalf("reparse failed: %v", err)
	}
	if len(reparsed) != len(ops) {
		t.Fatalf("expected %d operations after round-trip, got %d", len(ops), len(reparsed))
	}
	for i, want := range ops {
		got := reparsed[i]
		if got.Kind != want.Kind || got.Hive != want.Hive || got.Key != want.Key ||
			got.ValueName != want.ValueName || got.ValueType != want.ValueType ||
			!reflect.DeepEqual(got.Value, want.Value) {
			t.Errorf("op %d: expected %+v, got %+v", i, want, got)
		}
	}
}

func TestFormatSectionGrouping(t *testing.T) {
	ops := []types.Operation{
		{Kind: types.OpCreate, Hive: "HKLM", Key: `SOFTWARE\A`, ValueName: "x", Value: types.DWORDValue(1), ValueType: types.REG_DWORD},
		{Kind: types.OpCreate, Hive: "HKLM", Key: `SOFTWARE\A`, ValueName: "y", Value: types.DWORDValue(2), ValueType: types.REG_DWORD},
		{Kind: types.OpCreate, Hive: "HKLM", Key: `SOFTWARE\B`, ValueName: "z", Value: types.DWORDValue(3), ValueType: types.REG_DWORD},
	}
	out, err := Format(ops, FormatOptions{})
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}
	text := string(out)
	if strings.Count(text, `[HKLM\SOFTWARE\A]`) != 1 {
		t.Errorf("expected one section header for consecutive values, got:\n%s", text)
	}
	if !strings.Contains(text, `[HKLM\SOFTWARE\B]`) {
		t.Errorf("missing second section header:\n%s", text)
	}
}

func TestFormatUTF16RoundTrip(t *testing.T) {
	ops := []types.Operation{
		{Kind: types.OpCreate, Hive: "HKLM", Key: `SOFTWARE\Foo`, ValueName: "Name", Value: types.StringValue("wert \u00fc"), ValueType: types.REG_SZ},
	}
	out, err := Format(ops, FormatOptions{OutputEncoding: EncodingUTF16LE, WithBOM: true})
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}
	if !bytes.HasPrefix(out, UTF16LEBOM) {
		t.Fatal("expected a UTF-16LE BOM")
	}

	reparsed, err := Parse(out, ParseOptions{})
	if err != nil {
		t.Fatalf("reparse failed: %v", err)
	}
	if len(reparsed) != 1 || reparsed[0].Value != types.Value(types.StringValue("wert \u00fc")) {
		t.Fatalf("unexpected round-trip result: %+v", reparsed)
	}
}

func TestFormatUnsupportedEncoding(t *testing.T) {
	_, err := Format(nil, FormatOptions{OutputEncoding: "KOI8-R"})
	if err == nil {
		t.Fatal("expected an error for an unsupported output encoding")
	}
}
