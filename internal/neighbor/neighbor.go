// Package neighbor maintains the local interface table and the per-neighbor
// adjacency state machine. Interfaces and neighbors live in flat maps keyed
// by interface name; records refer to each other by key, never by pointer.
package neighbor

import (
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"
)

// State is the adjacency state of a neighbor.
type State int

const (
	// StateInit: we have heard the neighbor but it has not yet confirmed
	// hearing us.
	StateInit State = iota
	// StateTwoWay: both sides have observed each other's HELLOs. Only
	// two-way adjacencies are advertised and used for flooding.
	StateTwoWay
	// StateDead: no HELLO within the dead interval, or interface admin-down.
	StateDead
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StateTwoWay:
		return "TWO-WAY"
	case StateDead:
		return "DEAD"
	default:
		return "unknown"
	}
}

// Interface is a local point-to-point link endpoint.
type Interface struct {
	Name      string
	LocalIP   string
	PeerIP    string
	Bandwidth float64 // Mbps
	Delay     float64 // one-way ms
	Up        bool
}

// ParseInterface parses the "name:local_ip:peer_ip:bw:delay" argv tuple.
func ParseInterface(tuple string) (Interface, error) {
	parts := strings.Split(tuple, ":")
	if len(parts) != 5 {
		return Interface{}, fmt.Errorf("interface tuple %q: want name:local_ip:peer_ip:bw:delay", tuple)
	}

	bw, err := strconv.ParseFloat(parts[3], 64)
	if err != nil || bw <= 0 {
		return Interface{}, fmt.Errorf("interface tuple %q: bad bandwidth %q", tuple, parts[3])
	}
	delay, err := strconv.ParseFloat(parts[4], 64)
	if err != nil || delay < 0 {
		return Interface{}, fmt.Errorf("interface tuple %q: bad delay %q", tuple, parts[4])
	}

	return Interface{
		Name:      parts[0],
		LocalIP:   parts[1],
		PeerIP:    parts[2],
		Bandwidth: bw,
		Delay:     delay,
		Up:        true,
	}, nil
}

// Neighbor is the adjacency record for the peer on one interface.
type Neighbor struct {
	RouterID  string
	Iface     string
	State     State
	LastHeard time.Time
}

// Table owns the interface and neighbor maps. It is owned by the daemon
// event loop and is not safe for concurrent use.
type Table struct {
	DeadInterval time.Duration

	ifaces    map[string]Interface
	neighbors map[string]*Neighbor // keyed by interface name (links are point-to-point)

	now func() time.Time
}

// NewTable creates a table over the given interfaces.
func NewTable(ifaces []Interface, deadInterval time.Duration) *Table {
	t := &Table{
		DeadInterval: deadInterval,
		ifaces:       make(map[string]Interface, len(ifaces)),
		neighbors:    make(map[string]*Neighbor),
		now:          time.Now,
	}
	for _, ifc := range ifaces {
		t.ifaces[ifc.Name] = ifc
	}
	return t
}

// SetClock replaces the time source. Tests use this to drive the dead sweep.
func (t *Table) SetClock(now func() time.Time) { t.now = now }

// Interfaces returns all configured interfaces sorted by name.
func (t *Table) Interfaces() []Interface {
	out := make([]Interface, 0, len(t.ifaces))
	for _, ifc := range t.ifaces {
		out = append(out, ifc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Interface looks up one interface by name.
func (t *Table) Interface(name string) (Interface, bool) {
	ifc, ok := t.ifaces[name]
	return ifc, ok
}

// IfaceByPeerIP resolves the interface a datagram arrived on from its source
// IP. Links are point-to-point, so the peer IP identifies the link.
func (t *Table) IfaceByPeerIP(ip string) (Interface, bool) {
	for _, ifc := range t.ifaces {
		if ifc.PeerIP == ip {
			return ifc, true
		}
	}
	return Interface{}, false
}

// OnHello processes a HELLO from peerID heard on the named interface.
// localID is this node's router-id; when the sender's seen list contains it
// the adjacency is two-way. Returns true when the neighbor changed state,
// which obliges the caller to re-originate its LSA.
func (t *Table) OnHello(ifaceName, peerID, localID string, seen []string) bool {
	ifc, ok := t.ifaces[ifaceName]
	if !ok || !ifc.Up {
		return false
	}

	nb, exists := t.neighbors[ifaceName]
	if exists && nb.RouterID != peerID {
		// A second router-id on the same point-to-point link violates the
		// one-neighbor-per-interface invariant. Reset the record.
		slog.Error("conflicting neighbor on interface, resetting",
			"iface", ifaceName, "have", nb.RouterID, "got", peerID)
		delete(t.neighbors, ifaceName)
		exists = false
	}

	if !exists {
		nb = &Neighbor{RouterID: peerID, Iface: ifaceName, State: StateInit}
		t.neighbors[ifaceName] = nb
	}

	prev := nb.State
	nb.LastHeard = t.now()

	if slices.Contains(seen, localID) {
		nb.State = StateTwoWay
	} else {
		// Heard again but not acknowledged: a DEAD neighbor restarts in INIT.
		if nb.State == StateDead {
			nb.State = StateInit
		}
	}

	if nb.State != prev {
		if nb.State == StateTwoWay {
			slog.Info("neighbor up", "iface", ifaceName, "peer", peerID, "from", prev.String())
		} else {
			slog.Info("neighbor state change",
				"iface", ifaceName, "peer", peerID, "from", prev.String(), "to", nb.State.String())
		}
	}
	return nb.State != prev
}

// Sweep marks any neighbor whose last HELLO is older than the dead interval
// as DEAD. Returns the router-ids that transitioned on this pass.
func (t *Table) Sweep() []string {
	cutoff := t.now().Add(-t.DeadInterval)

	var died []string
	for _, nb := range t.neighbors {
		if nb.State == StateDead {
			continue
		}
		if nb.LastHeard.Before(cutoff) {
			nb.State = StateDead
			died = append(died, nb.RouterID)
			slog.Info("neighbor down", "iface", nb.Iface, "peer", nb.RouterID, "reason", "dead interval expired")
		}
	}
	sort.Strings(died)
	return died
}

// SetAdminStatus raises or lowers an interface. Admin-down kills the
// neighbor on that interface immediately. Returns true when a neighbor
// changed state.
func (t *Table) SetAdminStatus(ifaceName string, up bool) bool {
	ifc, ok := t.ifaces[ifaceName]
	if !ok {
		return false
	}
	ifc.Up = up
	t.ifaces[ifaceName] = ifc

	nb, ok := t.neighbors[ifaceName]
	if !ok || up || nb.State == StateDead {
		return false
	}

	nb.State = StateDead
	slog.Info("neighbor down", "iface", ifaceName, "peer", nb.RouterID, "reason", "admin down")
	return true
}

// Neighbor returns the adjacency record for one interface.
func (t *Table) Neighbor(ifaceName string) (Neighbor, bool) {
	nb, ok := t.neighbors[ifaceName]
	if !ok {
		return Neighbor{}, false
	}
	return *nb, true
}

// Neighbors returns a copy of every adjacency record, sorted by interface.
func (t *Table) Neighbors() []Neighbor {
	out := make([]Neighbor, 0, len(t.neighbors))
	for _, nb := range t.neighbors {
		out = append(out, *nb)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Iface < out[j].Iface })
	return out
}

// TwoWay returns the TWO-WAY adjacencies sorted by interface name.
func (t *Table) TwoWay() []Neighbor {
	out := make([]Neighbor, 0, len(t.neighbors))
	for _, nb := range t.neighbors {
		if nb.State == StateTwoWay {
			out = append(out, *nb)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Iface < out[j].Iface })
	return out
}

// Seen returns the router-ids of every neighbor currently heard (INIT or
// TWO-WAY) on any interface, sorted. This is the HELLO "seen" list.
func (t *Table) Seen() []string {
	set := make(map[string]struct{})
	for _, nb := range t.neighbors {
		if nb.State != StateDead {
			set[nb.RouterID] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// NextHop resolves a TWO-WAY neighbor router-id to its link addressing:
// outbound interface and the peer's IP on the shared link. When the same
// neighbor is reachable on several interfaces the smallest interface name
// wins, keeping route generation deterministic.
func (t *Table) NextHop(routerID string) (iface string, peerIP string, ok bool) {
	for _, nb := range t.TwoWay() {
		if nb.RouterID != routerID {
			continue
		}
		ifc := t.ifaces[nb.Iface]
		return ifc.Name, ifc.PeerIP, true
	}
	return "", "", false
}
