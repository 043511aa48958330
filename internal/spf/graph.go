package spf

import (
	"sort"

	"github.com/pedro-gerhardt/ospf-intent-aware/internal/wire"
)

// Edge is a directed adjacency with the QoS attributes the originator
// advertised for it.
type Edge struct {
	To        string
	Bandwidth float64 // Mbps
	Delay     float64 // ms; the edge cost
}

// Graph is the directed topology derived from an LSDB snapshot, using
// adjacency lists indexed by router-id.
type Graph struct {
	Nodes map[string][]Edge
}

// Build constructs the graph from an LSDB snapshot. An edge u->v exists only
// when u's LSA lists v and v's LSA lists u back (bidirectional confirmation),
// so a one-sided stale adjacency is never used. Edge attributes come from
// u's own advertisement. Adjacency lists are sorted by target id to keep
// traversal order deterministic.
func Build(db map[string]wire.LSA) *Graph {
	g := &Graph{Nodes: make(map[string][]Edge, len(db))}

	for origin, lsa := range db {
		edges := make([]Edge, 0, len(lsa.Links))
		for _, link := range lsa.Links {
			peer, ok := db[link.Peer]
			if !ok {
				continue
			}
			if !listsPeer(peer, origin) {
				continue
			}
			edges = append(edges, Edge{To: link.Peer, Bandwidth: link.Bandwidth, Delay: link.Delay})
		}
		sort.Slice(edges, func(i, j int) bool { return edges[i].To < edges[j].To })
		g.Nodes[origin] = edges
	}

	return g
}

func listsPeer(lsa wire.LSA, id string) bool {
	for _, link := range lsa.Links {
		if link.Peer == id {
			return true
		}
	}
	return false
}

// FilterBandwidth returns a copy of the graph without edges whose bandwidth
// is below the floor.
func (g *Graph) FilterBandwidth(minBandwidth float64) *Graph {
	out := &Graph{Nodes: make(map[string][]Edge, len(g.Nodes))}
	for id, edges := range g.Nodes {
		kept := make([]Edge, 0, len(edges))
		for _, e := range edges {
			if e.Bandwidth >= minBandwidth {
				kept = append(kept, e)
			}
		}
		out.Nodes[id] = kept
	}
	return out
}

// EdgeCount returns the number of directed edges, for SPF run logging.
func (g *Graph) EdgeCount() int {
	n := 0
	for _, edges := range g.Nodes {
		n += len(edges)
	}
	return n
}
