package spf

import (
	"container/heap"
	"math"
)

// tree is a single-source shortest-path tree. NextHop maps each reachable
// destination to the first hop out of the source.
type tree struct {
	dist    map[string]float64
	nextHop map[string]string
}

// shortestPathTree runs Dijkstra from src over non-negative edge costs
// (delay). Equal-cost candidates are resolved toward the smallest next-hop
// router-id, so repeated runs on identical input yield an identical tree.
func shortestPathTree(g *Graph, src string) tree {
	t := tree{
		dist:    make(map[string]float64, len(g.Nodes)),
		nextHop: make(map[string]string, len(g.Nodes)),
	}
	if _, ok := g.Nodes[src]; !ok {
		return t
	}

	for id := range g.Nodes {
		t.dist[id] = math.Inf(1)
	}
	t.dist[src] = 0

	pq := &priorityQueue{}
	heap.Init(pq)
	heap.Push(pq, &pqItem{nodeID: src, cost: 0})

	for pq.Len() > 0 {
		item := heap.Pop(pq).(*pqItem)
		u := item.nodeID

		if item.cost > t.dist[u] {
			continue // stale entry
		}

		for _, edge := range g.Nodes[u] {
			alt := t.dist[u] + edge.Delay

			// First hop toward edge.To when routed through u.
			hop := t.nextHop[u]
			if u == src {
				hop = edge.To
			}

			better := alt < t.dist[edge.To]
			if !better && alt == t.dist[edge.To] {
				// Deterministic tie-break on the next-hop router-id.
				better = hop < t.nextHop[edge.To]
			}
			if better {
				t.dist[edge.To] = alt
				t.nextHop[edge.To] = hop
				heap.Push(pq, &pqItem{nodeID: edge.To, cost: alt})
			}
		}
	}

	return t
}

// reachable reports whether dst has a finite distance in the tree.
func (t tree) reachable(dst string) bool {
	d, ok := t.dist[dst]
	return ok && !math.IsInf(d, 1)
}

// --- priority queue for Dijkstra ---

type pqItem struct {
	nodeID string
	cost   float64
	index  int
}

type priorityQueue []*pqItem

func (pq priorityQueue) Len() int { return len(pq) }
func (pq priorityQueue) Less(i, j int) bool {
	if pq[i].cost != pq[j].cost {
		return pq[i].cost < pq[j].cost
	}
	return pq[i].nodeID < pq[j].nodeID
}
func (pq priorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}
func (pq *priorityQueue) Push(x any) {
	item := x.(*pqItem)
	item.index = len(*pq)
	*pq = append(*pq, item)
}
func (pq *priorityQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*pq = old[:n-1]
	return item
}
