// Package output assembles dump results into C source text and writes
// the pointer registry file.
package output

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"romdump/internal/config"
	"romdump/internal/dump"
	"romdump/internal/schema"
)

// RenderItems decodes each item in order and returns the C output
// lines: an address comment per item, the decoded literal (wrapped in a
// declaration when the item is named), and a blank line between items.
func RenderItems(d *dump.Dumper, items []config.DataItem) ([]string, error) {
	var lines []string
	for i, item := range items {
		lines = append(lines, fmt.Sprintf("// 0x%x", item.Addr))
		text, err := d.Dump(item.Addr, item.Def, item.Name)
		if err != nil {
			return nil, fmt.Errorf("output: item at 0x%x: %w", item.Addr, err)
		}
		if item.Name != "" {
			text = fmt.Sprintf("%s %s%s = %s;", item.Decl, item.Name, arraySuffix(item.Def), text)
		}
		lines = append(lines, text)
		if i < len(items)-1 {
			lines = append(lines, "")
		}
	}
	return lines, nil
}

// arraySuffix returns the C array declarator suffix ("[8][4]"...) for
// nested shared-element arrays.
func arraySuffix(def schema.Def) string {
	var sb strings.Builder
	for {
		arr, ok := def.(schema.Array)
		if !ok {
			break
		}
		fmt.Fprintf(&sb, "[%d]", arr.Count())
		def = arr.SharedElem()
		if def == nil {
			break
		}
	}
	return sb.String()
}

// WriteLines writes output lines separated by newlines.
func WriteLines(w io.Writer, lines []string) error {
	_, err := io.WriteString(w, strings.Join(lines, "\n")+"\n")
	return err
}

// WritePointers writes the pointer registry as sorted lines of
// "<hex-address>\t<descriptions joined by '; ', sorted>".
func WritePointers(w io.Writer, ptrs map[uint32]map[string]struct{}) error {
	addrs := make([]uint32, 0, len(ptrs))
	for addr := range ptrs {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })
	for _, addr := range addrs {
		descs := make([]string, 0, len(ptrs[addr]))
		for desc := range ptrs[addr] {
			descs = append(descs, desc)
		}
		sort.Strings(descs)
		if _, err := fmt.Fprintf(w, "%X\t%s\n", addr, strings.Join(descs, "; ")); err != nil {
			return err
		}
	}
	return nil
}
