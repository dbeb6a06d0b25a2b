// Package refgraph builds a pointer reference graph from a dump's
// pointer registry: which decoded items reference which ROM addresses.
package refgraph

import (
	"fmt"
	"strings"

	"github.com/zboralski/lattice"
)

// Build constructs a lattice.Graph from the pointer registry. Each
// field-path description contributes an edge from its root segment (the
// decoded item for named dumps, else the bare pointer description) to
// the referenced target. Targets use the symbol name when syms covers
// the address, else ptr_<HEX>.
func Build(ptrs map[uint32]map[string]struct{}, syms map[uint32]string) *lattice.Graph {
	g := &lattice.Graph{}
	for addr, descs := range ptrs {
		target, ok := syms[addr]
		if !ok {
			target = fmt.Sprintf("ptr_%X", addr)
		}
		g.Nodes = append(g.Nodes, target)
		for desc := range descs {
			root := desc
			if idx := strings.IndexByte(desc, ','); idx != -1 {
				root = desc[:idx]
			}
			g.Nodes = append(g.Nodes, root)
			g.Edges = append(g.Edges, lattice.Edge{
				Caller: root,
				Callee: target,
			})
		}
	}
	g.Dedup()
	return g
}
