// Package disasm provides ARM7TDMI (ARM mode) disassembly for GBA ROM
// code regions, as a quick preview when a pointer target turns out to
// be code rather than data.
package disasm

import (
	"encoding/binary"
	"fmt"
	"strings"

	"golang.org/x/arch/arm/armasm"
)

// Inst is a decoded ARM instruction with address and raw encoding.
type Inst struct {
	Addr uint32
	Raw  uint32
	Text string // GNU-syntax disassembly, or ".word 0x%08X" if undecodable
}

const defaultMaxSteps = 1 << 20

// Disassemble decodes ARM-mode instructions from a byte region starting
// at base. max caps the instruction count; 0 means a large default.
func Disassemble(data []byte, base uint32, max int) []Inst {
	if max <= 0 {
		max = defaultMaxSteps
	}
	n := len(data) / 4
	if n > max {
		n = max
	}
	out := make([]Inst, 0, n)
	for i := 0; i < n; i++ {
		off := i * 4
		raw := binary.LittleEndian.Uint32(data[off : off+4])
		text := fmt.Sprintf(".word 0x%08X", raw)
		if inst, err := armasm.Decode(data[off:off+4], armasm.ModeARM); err == nil {
			text = armasm.GNUSyntax(inst)
		}
		out = append(out, Inst{
			Addr: base + uint32(off),
			Raw:  raw,
			Text: text,
		})
	}
	return out
}

// Format renders instructions one per line: address, raw word, text.
func Format(insts []Inst) string {
	var sb strings.Builder
	for _, in := range insts {
		fmt.Fprintf(&sb, "%08X:  %08x  %s\n", in.Addr, in.Raw, in.Text)
	}
	return sb.String()
}
