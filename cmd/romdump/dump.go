package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"romdump/internal/config"
	"romdump/internal/dump"
	"romdump/internal/output"
	"romdump/internal/symtab"
)

func cmdDump(args []string) error {
	fs := flag.NewFlagSet("dump", flag.ExitOnError)
	romPath := fs.String("rom", "", "path to ROM image")
	inputPath := fs.String("input", "", "input json file listing data items")
	contextPath := fs.String("context", "", "context json file (enums and defs)")
	symbolsPath := fs.String("symbols", "", "symbol table file")
	outPath := fs.String("out", "", "output file (default stdout)")
	ptrOut := fs.String("ptr-out", "", "pointer registry output file")
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

	rom, err := os.Open(*romPath)
	if err != nil {
		return fmt.Errorf("open rom: %w", err)
	}
	defer rom.Close()

	d := dump.New(rom, syms)
	lines, err := output.RenderItems(d, items)
	if err != nil {
		return err
	}
	log.Debug("decoded items", zap.Int("count", len(items)), zap.Int("pointers", len(d.Pointers())))

	w := os.Stdout
	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		w = f
	}
	if err := output.WriteLines(w, lines); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	if *ptrOut != "" {
		f, err := os.Create(*ptrOut)
		if err != nil {
			return fmt.Errorf("create pointer output: %w", err)
		}
		defer f.Close()
		if err := output.WritePointers(f, d.Pointers()); err != nil {
			return fmt.Errorf("write pointers: %w", err)
		}
	}
	return nil
}

// loadInputs parses the context, symbol and input files shared by the
// dump and graph commands.
func loadInputs(contextPath, symbolsPath, inputPath string, log *zap.Logger) (map[uint32]string, []config.DataItem, error) {
	var ctx *config.Context
	if contextPath != "" {
		f, err := os.Open(contextPath)
		if err != nil {
			return nil, nil, fmt.Errorf("open context: %w", err)
		}
		ctx, err = config.ParseContext(f)
		f.Close()
		if err != nil {
			return nil, nil, err
		}
		log.Debug("parsed context", zap.Int("enums", len(ctx.Enums)), zap.Int("defs", len(ctx.Defs)))
	}

	var syms map[uint32]string
	if symbolsPath != "" {
		f, err := os.Open(symbolsPath)
		if err != nil {
			return nil, nil, fmt.Errorf("open symbols: %w", err)
		}
		syms, err = symtab.Parse(f, dump.ROMOffset)
		f.Close()
		if err != nil {
			return nil, nil, err
		}
		log.Debug("parsed symbols", zap.Int("count", len(syms)))
	}

	f, err := os.Open(inputPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()
	items, err := config.ParseInput(f, ctx)
	if err != nil {
		return nil, nil, err
	}
	log.Debug("parsed input", zap.Int("items", len(items)))
	return syms, items, nil
}
