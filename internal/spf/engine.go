// Package spf is the path engine: it turns an LSDB snapshot plus the intent
// table into the set of routes this node should install.
package spf

import (
	"sort"

	"github.com/pedro-gerhardt/ospf-intent-aware/internal/intent"
	"github.com/pedro-gerhardt/ospf-intent-aware/internal/wire"
)

// IntentStatus records how a route relates to the intent table.
type IntentStatus int

const (
	// IntentNone: no intent constrains this destination.
	IntentNone IntentStatus = iota
	// IntentSatisfied: every edge on the path meets the intent's
	// constraints and the total delay is within max_latency.
	IntentSatisfied
	// IntentUnsatisfied: no constrained path existed; the route is the
	// unconstrained fallback.
	IntentUnsatisfied
)

func (s IntentStatus) String() string {
	switch s {
	case IntentSatisfied:
		return "intent-satisfied"
	case IntentUnsatisfied:
		return "intent-unsatisfied"
	default:
		return "none"
	}
}

// Route is one computed forwarding decision.
type Route struct {
	Prefix    string
	Dest      string // destination router-id
	NextHop   string // next-hop router-id
	NextHopIP string
	Iface     string
	Cost      float64
	Intent    IntentStatus
}

// NextHopResolver maps a TWO-WAY neighbor router-id to its link addressing.
// The neighbor table implements it.
type NextHopResolver interface {
	NextHop(routerID string) (iface string, peerIP string, ok bool)
}

// Input is one consistent snapshot for a recomputation pass.
type Input struct {
	LocalID  string
	DB       map[string]wire.LSA
	Intents  []intent.Intent
	Resolver NextHopResolver
}

// Stats describes one SPF run for the log surface.
type Stats struct {
	Vertices  int
	Edges     int
	SPFRuns   int // Dijkstra executions (1 + one per destination with a min_bandwidth floor)
	Fallbacks int // constrained destinations that fell back to the unconstrained path
}

// constraint is the effective constraint set for one destination router,
// folded from every intent that resolves to it. When several intents target
// the same destination the most restrictive combination wins.
type constraint struct {
	minBandwidth *float64
	maxLatency   *float64
}

func (c *constraint) fold(in intent.Intent) {
	if in.MinBandwidth != nil && (c.minBandwidth == nil || *in.MinBandwidth > *c.minBandwidth) {
		c.minBandwidth = in.MinBandwidth
	}
	if in.MaxLatency != nil && (c.maxLatency == nil || *in.MaxLatency < *c.maxLatency) {
		c.maxLatency = in.MaxLatency
	}
}

// Compute runs the path engine over one snapshot and returns the full route
// set, sorted by prefix for stable diffing.
func Compute(in Input) ([]Route, Stats) {
	g := Build(in.DB)
	stats := Stats{Vertices: len(g.Nodes), Edges: g.EdgeCount()}

	base := shortestPathTree(g, in.LocalID)
	stats.SPFRuns++

	constraints := resolveConstraints(in)

	// Constrained trees are computed once per distinct destination router.
	trees := make(map[string]tree)

	var routes []Route
	for _, dest := range sortedOrigins(in.DB) {
		if dest == in.LocalID {
			continue
		}
		lsa := in.DB[dest]
		if len(lsa.Stubs) == 0 {
			continue
		}

		cons, constrained := constraints[dest]

		status := IntentNone
		useTree := base
		if constrained {
			ct, ok := trees[dest]
			if !ok {
				if cons.minBandwidth != nil {
					ct = shortestPathTree(g.FilterBandwidth(*cons.minBandwidth), in.LocalID)
					stats.SPFRuns++
				} else {
					// Only a latency bound: the delay-metric tree is
					// already the minimum-latency tree.
					ct = base
				}
				trees[dest] = ct
			}

			feasible := ct.reachable(dest)
			if feasible && cons.maxLatency != nil && ct.dist[dest] > *cons.maxLatency {
				feasible = false
			}

			if feasible {
				status = IntentSatisfied
				useTree = ct
			} else {
				// Fallback: default shortest path, flagged for observability.
				status = IntentUnsatisfied
				stats.Fallbacks++
			}
		}

		if !useTree.reachable(dest) {
			continue // no path at all; leave no route
		}

		hop := useTree.nextHop[dest]
		iface, peerIP, ok := in.Resolver.NextHop(hop)
		if !ok {
			continue // next hop not (yet) a two-way neighbor
		}

		stubs := append([]string(nil), lsa.Stubs...)
		sort.Strings(stubs)
		for _, prefix := range stubs {
			routes = append(routes, Route{
				Prefix:    prefix,
				Dest:      dest,
				NextHop:   hop,
				NextHopIP: peerIP,
				Iface:     iface,
				Cost:      useTree.dist[dest],
				Intent:    status,
			})
		}
	}

	sort.Slice(routes, func(i, j int) bool { return routes[i].Prefix < routes[j].Prefix })
	return routes, stats
}

// resolveConstraints maps destination router-ids to their folded constraint
// set. An intent's dst may name a destination router directly, a host
// advertised in some LSA's host map, or a literal stub prefix. Intents with
// an empty constraint set are equivalent to no intent and are skipped.
func resolveConstraints(in Input) map[string]constraint {
	byDest := make(map[string]constraint)

	for _, it := range in.Intents {
		if !it.Constrained() {
			continue
		}
		dest, ok := resolveDst(in.DB, it.Dst)
		if !ok {
			continue // destination unknown in the current topology
		}
		c := byDest[dest]
		c.fold(it)
		byDest[dest] = c
	}
	return byDest
}

// resolveDst finds the router that owns an intent destination token.
func resolveDst(db map[string]wire.LSA, dst string) (string, bool) {
	if _, ok := db[dst]; ok {
		return dst, true
	}
	for origin, lsa := range db {
		if _, ok := lsa.Hosts[dst]; ok {
			return origin, true
		}
		for _, prefix := range lsa.Stubs {
			if prefix == dst {
				return origin, true
			}
		}
	}
	return "", false
}

func sortedOrigins(db map[string]wire.LSA) []string {
	ids := make([]string, 0, len(db))
	for id := range db {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
