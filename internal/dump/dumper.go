// Package dump decodes fixed-layout data out of a GBA ROM image into C
// literal expressions, driven by a schema definition, and records every
// pointer value it encounters together with the field path that
// referenced it.
package dump

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"romdump/internal/schema"
)

// GBA cartridge address window. All nonzero pointers must land inside
// [ROMOffset, ROMOffset+ROMSize).
const (
	ROMOffset uint32 = 0x0800_0000
	ROMSize   uint32 = 0x80_0000
)

const tab = "    "

// ErrInvalidData is the sentinel wrapped by all decode-time contract
// violations (bad boolean value, pointer outside the ROM window).
var ErrInvalidData = errors.New("dump: invalid data")

// charMap holds the control bytes that render as escapes in ASCII arrays.
var charMap = map[byte]string{
	0x00: `\0`,
	0x09: `\t`,
	0x0A: `\n`,
	0x0D: `\r`,
}

// Dumper decodes schema-described regions of one ROM image. It owns the
// cursor of its byte source for the duration of each Dump call; a
// Dumper is not safe for concurrent use. Decode multiple regions in
// parallel with independent Dumpers over independent readers.
type Dumper struct {
	r    reader
	syms map[uint32]string
	ptrs map[uint32]map[string]struct{}
}

// New creates a Dumper over rom. Symbol addresses below ROMOffset are
// rebased into absolute form.
func New(rom io.ReadSeeker, syms map[uint32]string) *Dumper {
	d := &Dumper{
		r:    reader{src: rom},
		syms: make(map[uint32]string, len(syms)),
		ptrs: make(map[uint32]map[string]struct{}),
	}
	for addr, name := range syms {
		if addr < ROMOffset {
			addr += ROMOffset
		}
		d.syms[addr] = name
	}
	return d
}

// Dump seeks to addr and decodes def into its C literal representation.
// name, when non-empty, seeds the field path used to describe pointers.
// On return the cursor sits just past the last byte consumed.
func (d *Dumper) Dump(addr uint32, def schema.Def, name string) (string, error) {
	if err := d.r.seekTo(int64(addr)); err != nil {
		return "", err
	}
	var parents []string
	if name != "" {
		parents = []string{name}
	}
	return d.dump(def, 0, parents)
}

// Pointers returns the registry of pointer targets accumulated so far,
// keyed by absolute address, each with the set of field-path
// descriptions that referenced it. The map is owned by the Dumper and
// must only be read after decoding completes.
func (d *Dumper) Pointers() map[uint32]map[string]struct{} {
	return d.ptrs
}

func (d *Dumper) dump(def schema.Def, depth int, parents []string) (string, error) {
	switch v := def.(type) {
	case schema.Integer:
		val, err := d.r.readInt(v.Size(), v.Signed())
		if err != nil {
			return "", err
		}
		if v.Base() == schema.Hex {
			if val < 0 {
				val += int64(1) << (v.Size() * 8)
			}
			return fmt.Sprintf("0x%X", val), nil
		}
		return strconv.FormatInt(val, 10), nil
	case schema.Boolean:
		val, err := d.r.readInt(v.Size(), false)
		if err != nil {
			return "", err
		}
		if val > 1 {
			off, _ := d.r.tell()
			return "", fmt.Errorf("%w: bool value %d at 0x%X", ErrInvalidData, val, off)
		}
		if val == 0 {
			return "FALSE", nil
		}
		return "TRUE", nil
	case schema.EnumVal:
		val, err := d.r.readInt(v.Size(), false)
		if err != nil {
			return "", err
		}
		if name, ok := v.Name(uint32(val)); ok {
			return name, nil
		}
		return strconv.FormatInt(val, 10), nil
	case schema.Struct:
		return d.dumpStruct(v, depth, parents)
	case schema.Array:
		return d.dumpArray(v, depth, parents)
	case schema.Pointer:
		return d.dumpPointer(v, parents)
	default:
		return "", fmt.Errorf("dump: unhandled definition type %T", def)
	}
}

// dumpStruct aligns to a 4-byte boundary before the first field; struct
// alignment is fixed at 4 regardless of field types, matching the GBA ABI.
func (d *Dumper) dumpStruct(st schema.Struct, depth int, parents []string) (string, error) {
	if err := d.r.align(4); err != nil {
		return "", err
	}
	fields := st.Fields()
	indent := strings.Repeat(tab, depth)
	lines := make([]string, 0, len(fields)+2)
	lines = append(lines, "{")
	for i, f := range fields {
		s, err := d.dump(f.Def, depth+1, appendPath(parents, f.Name))
		if err != nil {
			return "", err
		}
		s = indent + tab + "." + f.Name + " = " + s
		if i < len(fields)-1 {
			s += ","
		}
		lines = append(lines, s)
	}
	lines = append(lines, indent+"}")
	return strings.Join(lines, "\n"), nil
}

func (d *Dumper) dumpArray(arr schema.Array, depth int, parents []string) (string, error) {
	if arr.Format() == schema.ASCII {
		return d.dumpASCII(arr)
	}
	isSingle := arr.Format() == schema.SingleLine
	indent := strings.Repeat(tab, depth)
	inner := indent + tab
	if isSingle {
		inner = ""
	}
	lines := []string{"{"}
	for i := 0; i < arr.Count(); i++ {
		s, err := d.dump(arr.Elem(i), depth+1, appendPath(parents, strconv.Itoa(i)))
		if err != nil {
			return "", err
		}
		name, covered := arr.IndexName(i)
		switch {
		case arr.Format() == schema.IntIndex || (arr.HasIndexEnum() && !covered):
			s = fmt.Sprintf("%s[%d] = %s", inner, i, s)
		case covered:
			s = fmt.Sprintf("%s[%s] = %s", inner, name, s)
		default:
			s = inner + s
		}
		if i < arr.Count()-1 || arr.TrailingComma() {
			s += ","
		}
		lines = append(lines, s)
	}
	if isSingle {
		lines = append(lines, "}")
		return strings.Join(lines, " "), nil
	}
	lines = append(lines, indent+"}")
	return strings.Join(lines, "\n"), nil
}

// dumpASCII reads the raw bytes, strips trailing zero bytes only, and
// renders the rest as a quoted string. Embedded zero bytes stay and
// render as the \0 escape.
func (d *Dumper) dumpASCII(arr schema.Array) (string, error) {
	raw, err := d.r.readBytes(arr.Count())
	if err != nil {
		return "", err
	}
	raw = bytes.TrimRight(raw, "\x00")
	var sb strings.Builder
	sb.WriteByte('"')
	for _, b := range raw {
		if esc, ok := charMap[b]; ok {
			sb.WriteString(esc)
		} else {
			sb.WriteRune(rune(b))
		}
	}
	sb.WriteByte('"')
	return sb.String(), nil
}

func (d *Dumper) dumpPointer(ptr schema.Pointer, parents []string) (string, error) {
	val64, err := d.r.read32(false)
	if err != nil {
		return "", err
	}
	val := uint32(val64)
	if val == 0 {
		return "NULL", nil
	}
	if val < ROMOffset || val >= ROMOffset+ROMSize {
		off, _ := d.r.tell()
		return "", fmt.Errorf("%w: pointer 0x%X outside ROM at 0x%X", ErrInvalidData, val, off)
	}
	var s, desc string
	if name, ok := d.syms[val]; ok {
		s = name
		desc = name
	} else {
		tc := ptr.TypeCast()
		if tc == "" {
			tc = "void*"
		}
		s = fmt.Sprintf("(%s)0x%x", tc, val)
		desc = tc
	}
	full := strings.Join(appendPath(parents, desc), ",")
	set, ok := d.ptrs[val]
	if !ok {
		set = make(map[string]struct{})
		d.ptrs[val] = set
	}
	set[full] = struct{}{}
	return s, nil
}

// appendPath extends a field path without mutating the shared ancestor
// slice; paths are threaded immutably through the recursion.
func appendPath(parents []string, seg string) []string {
	path := make([]string, 0, len(parents)+1)
	path = append(path, parents...)
	path = append(path, seg)
	return path
}
