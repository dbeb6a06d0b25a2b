package main

import (
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "dump":
		err = cmdDump(os.Args[2:])
	case "scan":
		err = cmdScan(os.Args[2:])
	case "graph":
		err = cmdGraph(os.Args[2:])
	case "disasm":
		err = cmdDisasm(os.Args[2:])
	case "help", "-h", "--help":
		usage()
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		usage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `romdump — GBA ROM data dumper

Usage:
  romdump dump   --rom <path> --input <json>     Decode data items to C literals
  romdump scan   --rom <path>                    Print cartridge header info
  romdump graph  --rom <path> --input <json>     Write pointer reference graph (DOT)
  romdump disasm --rom <path> --addr <hex>       ARM-mode disassembly preview

Common dump/graph flags:
  --context <json>   Named enums and type definitions
  --symbols <file>   Address/name symbol table
  --out <path>       Output file (default stdout / graph.dot)
  --ptr-out <path>   Write pointer registry file (dump only)
  -v                 Verbose logging
`)
}
