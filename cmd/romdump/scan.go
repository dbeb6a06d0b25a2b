package main

import (
	"flag"
	"fmt"
	"os"

	"romdump/internal/gba"
)

func cmdScan(args []string) error {
	fs := flag.NewFlagSet("scan", flag.ExitOnError)
	romPath := fs.String("rom", "", "path to ROM image")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *romPath == "" {
		return fmt.Errorf("--rom is required")
	}

	rom, err := gba.Open(*romPath)
	if err != nil {
		return err
	}
	defer rom.Close()

	h := rom.Header
	fmt.Fprintf(os.Stdout, "title:      %s\n", h.Title)
	fmt.Fprintf(os.Stdout, "game code:  %s\n", h.GameCode)
	fmt.Fprintf(os.Stdout, "maker code: %s\n", h.MakerCode)
	fmt.Fprintf(os.Stdout, "version:    %d\n", h.Version)
	fmt.Fprintf(os.Stdout, "entry:      0x%08X\n", h.Entry)
	fmt.Fprintf(os.Stdout, "checksum:   0x%02X\n", h.Checksum)
	fmt.Fprintf(os.Stdout, "size:       0x%X\n", rom.Size())
	return nil
}
