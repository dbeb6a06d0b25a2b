// Package config parses the declarative JSON descriptions that drive a
// dump: the context file (named enums and type definitions) and the
// input file (the list of addressed data items to decode).
package config

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"romdump/internal/schema"
)

// Context holds named enums and type definitions shared across items.
type Context struct {
	Enums map[string]schema.EnumDef
	Defs  map[string]schema.Def
}

// DataItem is one addressed region to decode.
type DataItem struct {
	Def  schema.Def
	Addr uint32
	Name string // optional variable name
	Decl string // optional C declaration prefix, e.g. "const struct Foo"
}

// ParseContext reads a context file: {"enums": {...}, "defs": {...}}.
// Definitions may reference earlier definitions and named enums.
func ParseContext(r io.Reader) (*Context, error) {
	var raw struct {
		Enums map[string]json.RawMessage `json:"enums"`
		Defs  map[string]json.RawMessage `json:"defs"`
	}
	dec := json.NewDecoder(r)
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("config: decode context: %w", err)
	}
	ctx := &Context{
		Enums: make(map[string]schema.EnumDef),
		Defs:  make(map[string]schema.Def),
	}
	for name, msg := range raw.Enums {
		ed, err := parseEnumDef(msg)
		if err != nil {
			return nil, fmt.Errorf("config: enum %q: %w", name, err)
		}
		ctx.Enums[name] = ed
	}
	// json maps are unordered; defs referencing other defs are resolved
	// by retrying until a pass makes no progress.
	pending := raw.Defs
	for len(pending) > 0 {
		next := make(map[string]json.RawMessage)
		var lastErr error
		for name, msg := range pending {
			def, err := ctx.parseDef(msg)
			if err != nil {
				next[name] = msg
				lastErr = fmt.Errorf("config: def %q: %w", name, err)
				continue
			}
			ctx.Defs[name] = def
		}
		if len(next) == len(pending) {
			return nil, lastErr
		}
		pending = next
	}
	return ctx, nil
}

// ParseInput reads an input file: a list of groups, each with a shared
// definition and a list of addressed items. Groups flagged "arrays"
// wrap the definition in a multi-line array sized per item.
func ParseInput(r io.Reader, ctx *Context) ([]DataItem, error) {
	var groups []struct {
		Def    json.RawMessage `json:"def"`
		Decl   string          `json:"decl"`
		Arrays bool            `json:"arrays"`
		Items  []struct {
			Addr  json.RawMessage `json:"addr"`
			Name  string          `json:"name"`
			Count json.RawMessage `json:"count"`
		} `json:"items"`
	}
	dec := json.NewDecoder(r)
	if err := dec.Decode(&groups); err != nil {
		return nil, fmt.Errorf("config: decode input: %w", err)
	}
	if ctx == nil {
		ctx = &Context{}
	}
	var all []DataItem
	for gi, g := range groups {
		def, err := ctx.parseDef(g.Def)
		if err != nil {
			return nil, fmt.Errorf("config: group %d: %w", gi, err)
		}
		for _, item := range g.Items {
			addr, err := parseInt(item.Addr)
			if err != nil {
				return nil, fmt.Errorf("config: group %d addr: %w", gi, err)
			}
			vd := def
			if g.Arrays {
				count, err := parseInt(item.Count)
				if err != nil {
					return nil, fmt.Errorf("config: group %d count: %w", gi, err)
				}
				arr, err := schema.NewArray(int(count), def, schema.ArrayOpts{})
				if err != nil {
					return nil, fmt.Errorf("config: group %d: %w", gi, err)
				}
				vd = arr
			}
			all = append(all, DataItem{
				Def:  vd,
				Addr: uint32(addr),
				Name: item.Name,
				Decl: g.Decl,
			})
		}
	}
	return all, nil
}

// parseDef builds a schema definition from either a reference to a
// named definition or an inline {"kind": ...} object.
func (c *Context) parseDef(msg json.RawMessage) (schema.Def, error) {
	var ref string
	if err := json.Unmarshal(msg, &ref); err == nil {
		def, ok := c.Defs[ref]
		if !ok {
			return nil, fmt.Errorf("def %q not found", ref)
		}
		return def, nil
	}
	var obj struct {
		Kind          string          `json:"kind"`
		Type          string          `json:"type"`
		Base          string          `json:"base"`
		Size          json.RawMessage `json:"size"`
		EnumDef       json.RawMessage `json:"enum_def"`
		TypeCast      string          `json:"type_cast"`
		Count         json.RawMessage `json:"count"`
		Items         json.RawMessage `json:"items"`
		Format        string          `json:"format"`
		TrailingComma bool            `json:"trailing_comma"`
		Fields        []struct {
			Name string          `json:"name"`
			Type json.RawMessage `json:"type"`
		} `json:"fields"`
	}
	if err := json.Unmarshal(msg, &obj); err != nil {
		return nil, err
	}
	switch obj.Kind {
	case "int":
		kind, err := parseIntKind(obj.Type)
		if err != nil {
			return nil, err
		}
		base := schema.Dec
		if obj.Base != "" {
			base, err = parseIntBase(obj.Base)
			if err != nil {
				return nil, err
			}
		}
		return schema.NewInteger(kind, base)
	case "bool":
		size, err := parseInt(obj.Size)
		if err != nil {
			return nil, err
		}
		return schema.NewBoolean(int(size))
	case "enum_val":
		size, err := parseInt(obj.Size)
		if err != nil {
			return nil, err
		}
		ed, err := c.resolveEnumDef(obj.EnumDef)
		if err != nil {
			return nil, err
		}
		return schema.NewEnumVal(int(size), ed)
	case "struct":
		fields := make([]schema.Field, 0, len(obj.Fields))
		for _, f := range obj.Fields {
			fd, err := c.parseDef(f.Type)
			if err != nil {
				return nil, err
			}
			fields = append(fields, schema.Field{Name: f.Name, Def: fd})
		}
		return schema.NewStruct(fields), nil
	case "array":
		count, err := parseInt(obj.Count)
		if err != nil {
			return nil, err
		}
		opts := schema.ArrayOpts{TrailingComma: obj.TrailingComma}
		if obj.Format != "" {
			opts.Format, err = parseArrFormat(obj.Format)
			if err != nil {
				return nil, err
			}
		}
		if obj.EnumDef != nil {
			opts.IndexEnum, err = c.resolveEnumDef(obj.EnumDef)
			if err != nil {
				return nil, err
			}
		}
		var list []json.RawMessage
		if err := json.Unmarshal(obj.Items, &list); err == nil {
			elems := make([]schema.Def, 0, len(list))
			for _, m := range list {
				e, err := c.parseDef(m)
				if err != nil {
					return nil, err
				}
				elems = append(elems, e)
			}
			return schema.NewArrayItems(int(count), elems, opts)
		}
		elem, err := c.parseDef(obj.Items)
		if err != nil {
			return nil, err
		}
		return schema.NewArray(int(count), elem, opts)
	case "pointer":
		return schema.NewPointer(obj.TypeCast), nil
	default:
		return nil, fmt.Errorf("invalid kind %q", obj.Kind)
	}
}

// resolveEnumDef accepts a named enum reference or an inline enum form.
func (c *Context) resolveEnumDef(msg json.RawMessage) (schema.EnumDef, error) {
	var ref string
	if err := json.Unmarshal(msg, &ref); err == nil {
		ed, ok := c.Enums[ref]
		if !ok {
			return nil, fmt.Errorf("enum %q not found", ref)
		}
		return ed, nil
	}
	return parseEnumDef(msg)
}

// parseEnumDef accepts either a list of names (values 0..n-1) or an
// object of {value: name} with base-0 string keys.
func parseEnumDef(msg json.RawMessage) (schema.EnumDef, error) {
	var list []string
	if err := json.Unmarshal(msg, &list); err == nil {
		ed := make(schema.EnumDef, len(list))
		for i, name := range list {
			ed[uint32(i)] = name
		}
		return ed, nil
	}
	var obj map[string]string
	if err := json.Unmarshal(msg, &obj); err != nil {
		return nil, fmt.Errorf("invalid enum def form")
	}
	ed := make(schema.EnumDef, len(obj))
	for key, name := range obj {
		val, err := strconv.ParseUint(key, 0, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid enum key %q: %w", key, err)
		}
		ed[uint32(val)] = name
	}
	return ed, nil
}

// parseInt accepts a JSON number or a base-0 string ("0x..." works).
func parseInt(msg json.RawMessage) (int64, error) {
	if msg == nil {
		return 0, fmt.Errorf("missing integer")
	}
	var n int64
	if err := json.Unmarshal(msg, &n); err == nil {
		return n, nil
	}
	var s string
	if err := json.Unmarshal(msg, &s); err != nil {
		return 0, fmt.Errorf("invalid integer %s", msg)
	}
	return strconv.ParseInt(s, 0, 64)
}

func parseIntKind(s string) (schema.IntKind, error) {
	switch s {
	case "u8":
		return schema.U8, nil
	case "u16":
		return schema.U16, nil
	case "u32":
		return schema.U32, nil
	case "s8":
		return schema.S8, nil
	case "s16":
		return schema.S16, nil
	case "s32":
		return schema.S32, nil
	default:
		return 0, fmt.Errorf("invalid int type %q", s)
	}
}

func parseIntBase(s string) (schema.IntBase, error) {
	switch s {
	case "dec":
		return schema.Dec, nil
	case "hex":
		return schema.Hex, nil
	default:
		return 0, fmt.Errorf("invalid int base %q", s)
	}
}

func parseArrFormat(s string) (schema.ArrFormat, error) {
	switch s {
	case "multi_line":
		return schema.MultiLine, nil
	case "single_line":
		return schema.SingleLine, nil
	case "int_index":
		return schema.IntIndex, nil
	case "enum_index":
		return schema.EnumIndex, nil
	case "ascii":
		return schema.ASCII, nil
	default:
		return 0, fmt.Errorf("invalid array format %q", s)
	}
}
