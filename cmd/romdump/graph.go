package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/zboralski/lattice/render"
	"go.uber.org/zap"

	"romdump/internal/dump"
	"romdump/internal/gba"
	"romdump/internal/output"
	"romdump/internal/refgraph"
)

func cmdGraph(args []string) error {
	fs := flag.NewFlagSet("graph", flag.ExitOnError)
	romPath := fs.String("rom", "", "path to ROM image")
	inputPath := fs.String("input", "", "input json file listing data items")
	contextPath := fs.String("context", "", "context json file (enums and defs)")
	symbolsPath := fs.String("symbols", "", "symbol table file")
	outPath := fs.String("out", "graph.dot", "DOT output file")
	title := fs.String("title", "pointer references", "graph title")
	verbose := fs.Bool("v", false, "verbose logging")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *romPath == "" || *inputPath == "" {
		return fmt.Errorf("--rom and --input are required")
	}

	log := newLogger(*verbose)
	defer log.Sync()

	syms, items, err := loadInputs(*contextPath, *symbolsPath, *inputPath, log)
	if err != nil {
		return err
	}

	rom, err := gba.Open(*romPath)
	if err != nil {
		return err
	}
	defer rom.Close()

	d := dump.New(rom, syms)
	if _, err := output.RenderItems(d, items); err != nil {
		return err
	}

	// Registry addresses are absolute; rebase the symbol map to match.
	absSyms := make(map[uint32]string, len(syms))
	for addr, name := range syms {
		if addr < dump.ROMOffset {
			addr += dump.ROMOffset
		}
		absSyms[addr] = name
	}

	g := refgraph.Build(d.Pointers(), absSyms)
	log.Debug("built reference graph", zap.Int("nodes", len(g.Nodes)), zap.Int("edges", len(g.Edges)))

	dot := render.DOT(g, *title)
	if err := os.WriteFile(*outPath, []byte(dot), 0644); err != nil {
		return fmt.Errorf("write %s: %w", *outPath, err)
	}
	fmt.Fprintf(os.Stderr, "wrote %s\n", *outPath)
	return nil
}
