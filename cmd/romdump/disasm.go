package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"romdump/internal/disasm"
	"romdump/internal/dump"
	"romdump/internal/gba"
)

func cmdDisasm(args []string) error {
	fs := flag.NewFlagSet("disasm", flag.ExitOnError)
	romPath := fs.String("rom", "", "path to ROM image")
	addrStr := fs.String("addr", "", "start address (ROM-relative or absolute, base 0 syntax)")
	count := fs.Int("count", 16, "number of instructions")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *romPath == "" || *addrStr == "" {
		return fmt.Errorf("--rom and --addr are required")
	}

	addr64, err := strconv.ParseUint(*addrStr, 0, 32)
	if err != nil {
		return fmt.Errorf("bad address %q: %w", *addrStr, err)
	}
	addr := uint32(addr64)
	if addr >= dump.ROMOffset {
		addr -= dump.ROMOffset
	}

	rom, err := gba.Open(*romPath)
	if err != nil {
		return err
	}
	defer rom.Close()

	data := make([]byte, *count*4)
	n, err := rom.ReadAt(data, int64(addr))
	if err != nil && err != io.EOF {
		return fmt.Errorf("read rom: %w", err)
	}
	data = data[:n&^3]

	insts := disasm.Disassemble(data, dump.ROMOffset+addr, *count)
	fmt.Fprint(os.Stdout, disasm.Format(insts))
	return nil
}
