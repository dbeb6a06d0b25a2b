package dump

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"romdump/internal/schema"
)

func newTestDumper(data []byte, syms map[uint32]string) *Dumper {
	return New(bytes.NewReader(data), syms)
}

func mustInt(t *testing.T, kind schema.IntKind, base schema.IntBase) schema.Integer {
	t.Helper()
	i, err := schema.NewInteger(kind, base)
	if err != nil {
		t.Fatal(err)
	}
	return i
}

func mustBool(t *testing.T, size int) schema.Boolean {
	t.Helper()
	b, err := schema.NewBoolean(size)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func mustArray(t *testing.T, count int, elem schema.Def, opts schema.ArrayOpts) schema.Array {
	t.Helper()
	a, err := schema.NewArray(count, elem, opts)
	if err != nil {
		t.Fatal(err)
	}
	return a
}

func le32(val uint32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], val)
	return b[:]
}

func TestIntegerDecoding(t *testing.T) {
	tests := []struct {
		name string
		kind schema.IntKind
		base schema.IntBase
		data []byte
		want string
	}{
		{"u8 dec max", schema.U8, schema.Dec, []byte{0xFF}, "255"},
		{"s8 dec -1", schema.S8, schema.Dec, []byte{0xFF}, "-1"},
		{"s8 dec min", schema.S8, schema.Dec, []byte{0x80}, "-128"},
		{"u16 dec", schema.U16, schema.Dec, []byte{0x34, 0x12}, "4660"},
		{"s16 dec -1", schema.S16, schema.Dec, []byte{0xFF, 0xFF}, "-1"},
		{"u32 dec", schema.U32, schema.Dec, []byte{0x78, 0x56, 0x34, 0x12}, "305419896"},
		{"s32 dec -1", schema.S32, schema.Dec, []byte{0xFF, 0xFF, 0xFF, 0xFF}, "-1"},
		{"u8 hex", schema.U8, schema.Hex, []byte{0x01}, "0x1"},
		{"u16 hex", schema.U16, schema.Hex, []byte{0x34, 0x12}, "0x1234"},
		{"s8 hex bit pattern", schema.S8, schema.Hex, []byte{0xFF}, "0xFF"},
		{"s16 hex bit pattern", schema.S16, schema.Hex, []byte{0xFE, 0xFF}, "0xFFFE"},
		{"s32 hex bit pattern", schema.S32, schema.Hex, []byte{0xFF, 0xFF, 0xFF, 0xFF}, "0xFFFFFFFF"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestDumper(tt.data, nil)
			got, err := d.Dump(0, mustInt(t, tt.kind, tt.base), "")
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMultiByteReadsRealign(t *testing.T) {
	// Cursor starts at 1; a u16 read must skip to offset 2 first.
	data := []byte{0xEE, 0xEE, 0x34, 0x12, 0x78, 0x56, 0x00, 0x00, 0x21, 0x43, 0x65, 0x87}
	d := newTestDumper(data, nil)
	got, err := d.Dump(1, mustInt(t, schema.U16, schema.Dec), "")
	if err != nil {
		t.Fatal(err)
	}
	if got != "4660" {
		t.Errorf("u16 at unaligned start: got %q, want %q", got, "4660")
	}

	// Same for u32: start at 5, aligned read begins at 8.
	got, err = d.Dump(5, mustInt(t, schema.U32, schema.Hex), "")
	if err != nil {
		t.Fatal(err)
	}
	if got != "0x87654321" {
		t.Errorf("u32 at unaligned start: got %q, want %q", got, "0x87654321")
	}
}

func TestByteReadsNeverRealign(t *testing.T) {
	data := []byte{0x00, 0x07}
	d := newTestDumper(data, nil)
	got, err := d.Dump(1, mustInt(t, schema.U8, schema.Dec), "")
	if err != nil {
		t.Fatal(err)
	}
	if got != "7" {
		t.Errorf("got %q, want %q", got, "7")
	}
}

func TestBooleanDecoding(t *testing.T) {
	for _, size := range []int{1, 2, 4} {
		data := make([]byte, size)
		d := newTestDumper(data, nil)
		got, err := d.Dump(0, mustBool(t, size), "")
		if err != nil {
			t.Fatalf("size %d zero: %v", size, err)
		}
		if got != "FALSE" {
			t.Errorf("size %d zero: got %q, want FALSE", size, got)
		}

		data[0] = 1
		d = newTestDumper(data, nil)
		got, err = d.Dump(0, mustBool(t, size), "")
		if err != nil {
			t.Fatalf("size %d one: %v", size, err)
		}
		if got != "TRUE" {
			t.Errorf("size %d one: got %q, want TRUE", size, got)
		}

		data[0] = 2
		d = newTestDumper(data, nil)
		if _, err := d.Dump(0, mustBool(t, size), ""); !errors.Is(err, ErrInvalidData) {
			t.Errorf("size %d two: expected ErrInvalidData, got %v", size, err)
		}
	}
}

func TestEnumValDecoding(t *testing.T) {
	ev, err := schema.NewEnumVal(1, schema.EnumDef{0: "SPECIES_NONE", 1: "SPECIES_FIRST"})
	if err != nil {
		t.Fatal(err)
	}

	d := newTestDumper([]byte{0x01}, nil)
	got, err := d.Dump(0, ev, "")
	if err != nil {
		t.Fatal(err)
	}
	if got != "SPECIES_FIRST" {
		t.Errorf("mapped: got %q, want SPECIES_FIRST", got)
	}

	d = newTestDumper([]byte{0x07}, nil)
	got, err = d.Dump(0, ev, "")
	if err != nil {
		t.Fatal(err)
	}
	if got != "7" {
		t.Errorf("unmapped: got %q, want 7", got)
	}
}

func TestStructAlignsToFourBytes(t *testing.T) {
	// Struct dumped from offset 2 must read its first field at offset 4.
	data := []byte{0xEE, 0xEE, 0xEE, 0xEE, 0x07}
	st := schema.NewStruct([]schema.Field{{Name: "val", Def: mustInt(t, schema.U8, schema.Dec)}})
	d := newTestDumper(data, nil)
	got, err := d.Dump(2, st, "")
	if err != nil {
		t.Fatal(err)
	}
	want := "{\n    .val = 7\n}"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestStructFormatting(t *testing.T) {
	st := schema.NewStruct([]schema.Field{
		{Name: "a", Def: mustInt(t, schema.U8, schema.Hex)},
		{Name: "b", Def: mustBool(t, 1)},
	})
	d := newTestDumper([]byte{0x01, 0x01}, nil)
	got, err := d.Dump(0, st, "")
	if err != nil {
		t.Fatal(err)
	}
	want := "{\n    .a = 0x1,\n    .b = TRUE\n}"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestNestedStructIndentation(t *testing.T) {
	inner := schema.NewStruct([]schema.Field{{Name: "x", Def: mustInt(t, schema.U8, schema.Dec)}})
	outer := schema.NewStruct([]schema.Field{{Name: "in", Def: inner}})
	d := newTestDumper([]byte{0x05}, nil)
	got, err := d.Dump(0, outer, "")
	if err != nil {
		t.Fatal(err)
	}
	want := "{\n    .in = {\n        .x = 5\n    }\n}"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestArraySingleLine(t *testing.T) {
	arr := mustArray(t, 3, mustInt(t, schema.U8, schema.Dec), schema.ArrayOpts{Format: schema.SingleLine})
	d := newTestDumper([]byte{1, 2, 3}, nil)
	got, err := d.Dump(0, arr, "")
	if err != nil {
		t.Fatal(err)
	}
	if got != "{ 1, 2, 3 }" {
		t.Errorf("got %q, want %q", got, "{ 1, 2, 3 }")
	}
}

func TestArrayMultiLineTrailingComma(t *testing.T) {
	arr := mustArray(t, 2, mustInt(t, schema.U8, schema.Dec), schema.ArrayOpts{TrailingComma: true})
	d := newTestDumper([]byte{1, 2}, nil)
	got, err := d.Dump(0, arr, "")
	if err != nil {
		t.Fatal(err)
	}
	want := "{\n    1,\n    2,\n}"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestArrayIntIndex(t *testing.T) {
	arr := mustArray(t, 2, mustInt(t, schema.U8, schema.Dec), schema.ArrayOpts{Format: schema.IntIndex})
	d := newTestDumper([]byte{9, 8}, nil)
	got, err := d.Dump(0, arr, "")
	if err != nil {
		t.Fatal(err)
	}
	want := "{\n    [0] = 9,\n    [1] = 8\n}"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestArrayEnumIndexFallsBackToInteger(t *testing.T) {
	arr := mustArray(t, 2, mustInt(t, schema.U8, schema.Dec), schema.ArrayOpts{
		Format:    schema.EnumIndex,
		IndexEnum: schema.EnumDef{0: "ITEM_POTION"},
	})
	d := newTestDumper([]byte{3, 4}, nil)
	got, err := d.Dump(0, arr, "")
	if err != nil {
		t.Fatal(err)
	}
	want := "{\n    [ITEM_POTION] = 3,\n    [1] = 4\n}"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestArrayExplicitElements(t *testing.T) {
	elems := []schema.Def{
		mustInt(t, schema.U8, schema.Dec),
		mustInt(t, schema.U8, schema.Hex),
	}
	arr, err := schema.NewArrayItems(2, elems, schema.ArrayOpts{Format: schema.SingleLine})
	if err != nil {
		t.Fatal(err)
	}
	d := newTestDumper([]byte{10, 10}, nil)
	got, err := d.Dump(0, arr, "")
	if err != nil {
		t.Fatal(err)
	}
	if got != "{ 10, 0xA }" {
		t.Errorf("got %q, want %q", got, "{ 10, 0xA }")
	}
}

func TestArrayASCII(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"trailing zeros stripped", []byte{'T', 'e', 's', 't', 0x00}, `"Test"`},
		{"embedded zero preserved", []byte{'A', 0x00, 'B', 0x00, 0x00}, `"A\0B"`},
		{"control escapes", []byte{'A', 0x09, 0x0A, 0x0D, 0x21}, `"A\t\n\r!"`},
		{"all zeros", []byte{0x00, 0x00, 0x00, 0x00, 0x00}, `""`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			arr := mustArray(t, len(tt.data), mustInt(t, schema.U8, schema.Dec), schema.ArrayOpts{Format: schema.ASCII})
			d := newTestDumper(tt.data, nil)
			got, err := d.Dump(0, arr, "")
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPointerNull(t *testing.T) {
	d := newTestDumper(le32(0), nil)
	got, err := d.Dump(0, schema.NewPointer(""), "")
	if err != nil {
		t.Fatal(err)
	}
	if got != "NULL" {
		t.Errorf("got %q, want NULL", got)
	}
	if len(d.Pointers()) != 0 {
		t.Errorf("NULL pointer must not touch the registry, got %d entries", len(d.Pointers()))
	}
}

func TestPointerSymbol(t *testing.T) {
	// Symbol given ROM-relative; New rebases it to absolute.
	syms := map[uint32]string{0x10: "gMonStats"}
	d := newTestDumper(le32(ROMOffset+0x10), syms)
	got, err := d.Dump(0, schema.NewPointer(""), "gRoot")
	if err != nil {
		t.Fatal(err)
	}
	if got != "gMonStats" {
		t.Errorf("got %q, want gMonStats", got)
	}
	descs, ok := d.Pointers()[ROMOffset+0x10]
	if !ok {
		t.Fatal("registry missing target address")
	}
	if _, ok := descs["gRoot,gMonStats"]; !ok {
		t.Errorf("registry descriptions = %v, want gRoot,gMonStats", descs)
	}
}

func TestPointerCast(t *testing.T) {
	d := newTestDumper(le32(ROMOffset+0x20), nil)
	got, err := d.Dump(0, schema.NewPointer("const struct Foo*"), "")
	if err != nil {
		t.Fatal(err)
	}
	if got != "(const struct Foo*)0x8000020" {
		t.Errorf("got %q", got)
	}

	// No cast falls back to void*.
	d = newTestDumper(le32(ROMOffset+0x20), nil)
	got, err = d.Dump(0, schema.NewPointer(""), "")
	if err != nil {
		t.Fatal(err)
	}
	if got != "(void*)0x8000020" {
		t.Errorf("got %q", got)
	}
}

func TestPointerOutsideWindow(t *testing.T) {
	for _, val := range []uint32{0x4, ROMOffset - 1, ROMOffset + ROMSize, 0xFFFF_FFFF} {
		d := newTestDumper(le32(val), nil)
		if _, err := d.Dump(0, schema.NewPointer(""), ""); !errors.Is(err, ErrInvalidData) {
			t.Errorf("value 0x%X: expected ErrInvalidData, got %v", val, err)
		}
	}
}

func TestPointerRegistryDeduplicates(t *testing.T) {
	target := ROMOffset + 0x40
	data := append(le32(target), le32(target)...)
	d := newTestDumper(data, nil)

	// Two anonymous dumps with the same cast collapse to one description.
	if _, err := d.Dump(0, schema.NewPointer(""), ""); err != nil {
		t.Fatal(err)
	}
	if _, err := d.Dump(4, schema.NewPointer(""), ""); err != nil {
		t.Fatal(err)
	}
	descs := d.Pointers()[target]
	if len(descs) != 1 {
		t.Fatalf("identical descriptions must collapse, got %v", descs)
	}

	// Distinct field paths keep distinct descriptions.
	if _, err := d.Dump(0, schema.NewPointer(""), "gFirst"); err != nil {
		t.Fatal(err)
	}
	if _, err := d.Dump(4, schema.NewPointer(""), "gSecond"); err != nil {
		t.Fatal(err)
	}
	descs = d.Pointers()[target]
	if len(descs) != 3 {
		t.Fatalf("expected 3 descriptions, got %v", descs)
	}
	for _, want := range []string{"void*", "gFirst,void*", "gSecond,void*"} {
		if _, ok := descs[want]; !ok {
			t.Errorf("missing description %q in %v", want, descs)
		}
	}
}

func TestPointerFieldPathThroughStructAndArray(t *testing.T) {
	ptrArr := mustArray(t, 2, schema.NewPointer(""), schema.ArrayOpts{})
	st := schema.NewStruct([]schema.Field{{Name: "targets", Def: ptrArr}})

	target := ROMOffset + 0x100
	data := append(le32(target), le32(0)...)
	d := newTestDumper(data, nil)
	if _, err := d.Dump(0, st, "gTable"); err != nil {
		t.Fatal(err)
	}
	descs := d.Pointers()[target]
	if _, ok := descs["gTable,targets,0,void*"]; !ok {
		t.Errorf("descriptions = %v, want gTable,targets,0,void*", descs)
	}
}

func TestCursorLeftPastLastByteConsumed(t *testing.T) {
	d := newTestDumper([]byte{1, 2, 3, 4}, nil)
	if _, err := d.Dump(0, mustInt(t, schema.U8, schema.Dec), ""); err != nil {
		t.Fatal(err)
	}
	pos, err := d.r.tell()
	if err != nil {
		t.Fatal(err)
	}
	if pos != 1 {
		t.Errorf("cursor at %d, want 1", pos)
	}

	// The next sequential read continues from there.
	val, err := d.r.read8(false)
	if err != nil {
		t.Fatal(err)
	}
	if val != 2 {
		t.Errorf("next byte = %d, want 2", val)
	}
}

func TestReadPastEndIsIOError(t *testing.T) {
	d := newTestDumper([]byte{1}, nil)
	_, err := d.Dump(0, mustInt(t, schema.U32, schema.Dec), "")
	if err == nil {
		t.Fatal("expected error reading past end")
	}
	if errors.Is(err, ErrInvalidData) {
		t.Errorf("short read must surface as I/O error, not invalid data: %v", err)
	}
}
