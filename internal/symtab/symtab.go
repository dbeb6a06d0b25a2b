// Package symtab parses symbol table files mapping ROM addresses to
// names, as produced by disassembly tooling. Lines hold a hex address
// and a name; ';' starts a comment.
package symtab

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Parse reads a symbol file. Addresses at or above base are stored
// base-relative so files with absolute or ROM-relative addresses both
// work; the dumper rebases them into absolute form. Duplicate names and
// duplicate normalized addresses are errors.
func Parse(r io.Reader, base uint32) (map[uint32]string, error) {
	syms := make(map[uint32]string)
	names := make(map[string]struct{})
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if idx := strings.IndexByte(line, ';'); idx != -1 {
			line = line[:idx]
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 2 {
			return nil, fmt.Errorf("symtab: line %d: expected address and name", lineNo)
		}
		addrStr, name := fields[0], fields[1]
		if _, ok := names[name]; ok {
			return nil, fmt.Errorf("symtab: line %d: name %q repeated", lineNo, name)
		}
		names[name] = struct{}{}
		addr64, err := strconv.ParseUint(addrStr, 16, 32)
		if err != nil {
			return nil, fmt.Errorf("symtab: line %d: bad address %q: %w", lineNo, addrStr, err)
		}
		addr := uint32(addr64)
		if addr >= base {
			addr -= base
		}
		if _, ok := syms[addr]; ok {
			return nil, fmt.Errorf("symtab: line %d: address %X repeated", lineNo, addr)
		}
		syms[addr] = name
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("symtab: read: %w", err)
	}
	return syms, nil
}
