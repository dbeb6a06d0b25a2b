// Package schema models the shape of fixed-layout ROM data as a closed
// set of variant types. Every structural invariant is checked at
// construction time, so an invalid schema can never reach the dumper.
package schema

import (
	"errors"
	"fmt"
)

// ErrSchema is the sentinel wrapped by all construction-time errors.
var ErrSchema = errors.New("schema: invalid definition")

// EnumDef maps decoded integer values to their source-level names.
type EnumDef map[uint32]string

// Def describes how to interpret a region of bytes. It is implemented
// only by the six variants in this package.
type Def interface {
	def()
}

// IntKind identifies one of the six supported integer encodings.
type IntKind int

const (
	U8 IntKind = iota
	U16
	U32
	S8
	S16
	S32
)

func (k IntKind) String() string {
	switch k {
	case U8:
		return "u8"
	case U16:
		return "u16"
	case U32:
		return "u32"
	case S8:
		return "s8"
	case S16:
		return "s16"
	case S32:
		return "s32"
	default:
		return fmt.Sprintf("IntKind(%d)", int(k))
	}
}

// IntBase selects the rendered numeral base.
type IntBase int

const (
	Dec IntBase = iota
	Hex
)

// Integer is a 1, 2 or 4 byte integer field.
type Integer struct {
	kind IntKind
	base IntBase
}

// NewInteger builds an Integer. The width and signedness derive from
// the kind, so no invalid width can be represented.
func NewInteger(kind IntKind, base IntBase) (Integer, error) {
	switch kind {
	case U8, U16, U32, S8, S16, S32:
	default:
		return Integer{}, fmt.Errorf("%w: unknown int kind %d", ErrSchema, int(kind))
	}
	switch base {
	case Dec, Hex:
	default:
		return Integer{}, fmt.Errorf("%w: unknown int base %d", ErrSchema, int(base))
	}
	return Integer{kind: kind, base: base}, nil
}

func (Integer) def() {}

// Kind returns the integer encoding.
func (i Integer) Kind() IntKind { return i.kind }

// Base returns the rendered numeral base.
func (i Integer) Base() IntBase { return i.base }

// Size returns the width in bytes.
func (i Integer) Size() int {
	switch i.kind {
	case U8, S8:
		return 1
	case U16, S16:
		return 2
	default:
		return 4
	}
}

// Signed reports whether the value is two's-complement.
func (i Integer) Signed() bool {
	switch i.kind {
	case S8, S16, S32:
		return true
	default:
		return false
	}
}

// Boolean is a 1, 2 or 4 byte field whose decoded value must be 0 or 1.
type Boolean struct {
	size int
}

// NewBoolean builds a Boolean of the given width.
func NewBoolean(size int) (Boolean, error) {
	if size != 1 && size != 2 && size != 4 {
		return Boolean{}, fmt.Errorf("%w: invalid boolean size %d", ErrSchema, size)
	}
	return Boolean{size: size}, nil
}

func (Boolean) def() {}

// Size returns the width in bytes.
func (b Boolean) Size() int { return b.size }

// EnumVal is an integer field rendered through an enum name mapping.
// Values without a mapping fall back to their decimal numeral.
type EnumVal struct {
	size int
	enum EnumDef
}

// NewEnumVal builds an EnumVal of the given width over a resolved mapping.
func NewEnumVal(size int, enum EnumDef) (EnumVal, error) {
	if size != 1 && size != 2 && size != 4 {
		return EnumVal{}, fmt.Errorf("%w: invalid enum value size %d", ErrSchema, size)
	}
	return EnumVal{size: size, enum: enum}, nil
}

func (EnumVal) def() {}

// Size returns the width in bytes.
func (e EnumVal) Size() int { return e.size }

// Name returns the mapped name for val, if any.
func (e EnumVal) Name(val uint32) (string, bool) {
	name, ok := e.enum[val]
	return name, ok
}

// Pointer is a 4-byte ROM address field. TypeCast, when non-empty, is
// the C cast used when the target has no symbol.
type Pointer struct {
	typeCast string
}

// NewPointer builds a Pointer. An empty typeCast renders as void*.
func NewPointer(typeCast string) Pointer {
	return Pointer{typeCast: typeCast}
}

func (Pointer) def() {}

// TypeCast returns the cast label, or "" when none was given.
func (p Pointer) TypeCast() string { return p.typeCast }

// Field is one named member of a Struct.
type Field struct {
	Name string
	Def  Def
}

// Struct is an ordered sequence of named fields. Field names are not
// required to be unique; output stays unambiguous because order is
// preserved.
type Struct struct {
	fields []Field
}

// NewStruct builds a Struct over the given fields.
func NewStruct(fields []Field) Struct {
	fs := make([]Field, len(fields))
	copy(fs, fields)
	return Struct{fields: fs}
}

func (Struct) def() {}

// Fields returns the fields in declaration order.
func (s Struct) Fields() []Field { return s.fields }

// ArrFormat selects the array layout policy.
type ArrFormat int

const (
	MultiLine ArrFormat = iota
	SingleLine
	IntIndex
	EnumIndex
	ASCII
)

func (f ArrFormat) String() string {
	switch f {
	case MultiLine:
		return "multi_line"
	case SingleLine:
		return "single_line"
	case IntIndex:
		return "int_index"
	case EnumIndex:
		return "enum_index"
	case ASCII:
		return "ascii"
	default:
		return fmt.Sprintf("ArrFormat(%d)", int(f))
	}
}

// ArrayOpts carries the optional layout settings for arrays.
type ArrayOpts struct {
	Format        ArrFormat // zero value is MultiLine
	IndexEnum     EnumDef   // optional index -> name mapping
	TrailingComma bool
}

// Array is a fixed-count sequence, either of one shared element
// definition or of an explicit per-index definition list.
type Array struct {
	count    int
	elem     Def   // shared element; nil when elems is set
	elems    []Def // explicit per-index elements; nil when elem is set
	format   ArrFormat
	idxEnum  EnumDef
	trailing bool
}

// NewArray builds an Array of count elements sharing one definition.
func NewArray(count int, elem Def, opts ArrayOpts) (Array, error) {
	if err := checkArray(count, elem, nil, opts); err != nil {
		return Array{}, err
	}
	return Array{
		count:    count,
		elem:     elem,
		format:   opts.Format,
		idxEnum:  opts.IndexEnum,
		trailing: opts.TrailingComma,
	}, nil
}

// NewArrayItems builds an Array with an explicit definition per index.
// len(elems) must equal count.
func NewArrayItems(count int, elems []Def, opts ArrayOpts) (Array, error) {
	if err := checkArray(count, nil, elems, opts); err != nil {
		return Array{}, err
	}
	es := make([]Def, len(elems))
	copy(es, elems)
	return Array{
		count:    count,
		elems:    es,
		format:   opts.Format,
		idxEnum:  opts.IndexEnum,
		trailing: opts.TrailingComma,
	}, nil
}

func checkArray(count int, elem Def, elems []Def, opts ArrayOpts) error {
	if count <= 0 {
		return fmt.Errorf("%w: array count %d must be greater than 0", ErrSchema, count)
	}
	if elems != nil && len(elems) != count {
		return fmt.Errorf("%w: array has %d elements but count %d", ErrSchema, len(elems), count)
	}
	if opts.IndexEnum != nil && opts.Format != MultiLine && opts.Format != EnumIndex {
		return fmt.Errorf("%w: array format %s cannot carry an index enum", ErrSchema, opts.Format)
	}
	switch opts.Format {
	case SingleLine:
		if isNested(elem) {
			return fmt.Errorf("%w: single-line array cannot hold struct or array elements", ErrSchema)
		}
		for _, e := range elems {
			if isNested(e) {
				return fmt.Errorf("%w: single-line array cannot hold struct or array elements", ErrSchema)
			}
		}
	case ASCII:
		i, ok := elem.(Integer)
		if !ok || i.Size() != 1 {
			return fmt.Errorf("%w: ascii array elements must be u8 or s8", ErrSchema)
		}
	}
	return nil
}

func isNested(d Def) bool {
	switch d.(type) {
	case Struct, Array:
		return true
	default:
		return false
	}
}

func (Array) def() {}

// Count returns the element count.
func (a Array) Count() int { return a.count }

// Elem returns the definition of element i.
func (a Array) Elem(i int) Def {
	if a.elems != nil {
		return a.elems[i]
	}
	return a.elem
}

// SharedElem returns the shared element definition, or nil when the
// array uses explicit per-index definitions.
func (a Array) SharedElem() Def { return a.elem }

// Format returns the layout policy.
func (a Array) Format() ArrFormat { return a.format }

// IndexName returns the index enum name for i, if the array carries an
// index enum covering i.
func (a Array) IndexName(i int) (string, bool) {
	if a.idxEnum == nil {
		return "", false
	}
	name, ok := a.idxEnum[uint32(i)]
	return name, ok
}

// HasIndexEnum reports whether an index enum was supplied.
func (a Array) HasIndexEnum() bool { return a.idxEnum != nil }

// TrailingComma reports whether the last element is comma-terminated.
func (a Array) TrailingComma() bool { return a.trailing }
