// Package rib reconciles the routes the path engine computed with the host
// forwarding table, issuing the minimum set of kernel operations on each
// recomputation.
package rib

import (
	"log/slog"
	"sort"

	"github.com/pedro-gerhardt/ospf-intent-aware/internal/metrics"
	"github.com/pedro-gerhardt/ospf-intent-aware/internal/spf"
)

// Installer abstracts the host forwarding-table facility.
type Installer interface {
	// Install adds or replaces the route for prefix.
	Install(prefix, nextHopIP, iface string) error

	// Remove deletes the route for prefix.
	Remove(prefix string) error
}

// Manager holds the shadow table. The shadow records what should be
// installed; a failed kernel operation never poisons it and is retried on
// the next recomputation pass.
type Manager struct {
	installer Installer

	desired   map[string]spf.Route // shadow: what should be installed
	installed map[string]spf.Route // what the kernel is believed to hold
}

// NewManager creates a manager over the given installer.
func NewManager(installer Installer) *Manager {
	return &Manager{
		installer: installer,
		desired:   make(map[string]spf.Route),
		installed: make(map[string]spf.Route),
	}
}

// Apply diffs the freshly computed route set against the kernel state and
// issues installs for new or changed next-hops and removes for withdrawn
// prefixes. Prefixes whose forwarding decision is unchanged cost nothing.
func (m *Manager) Apply(routes []spf.Route) {
	next := make(map[string]spf.Route, len(routes))
	for _, r := range routes {
		next[r.Prefix] = r
	}

	for prefix, r := range next {
		have, ok := m.installed[prefix]
		if ok && have.NextHopIP == r.NextHopIP && have.Iface == r.Iface {
			m.installed[prefix] = r // refresh cost/intent bookkeeping only
			continue
		}

		if err := m.installer.Install(r.Prefix, r.NextHopIP, r.Iface); err != nil {
			metrics.RIBFailures.Inc()
			slog.Warn("rib install failed",
				"prefix", r.Prefix, "next_hop", r.NextHopIP, "iface", r.Iface, "error", err)
			continue
		}
		metrics.RIBInstalls.Inc()
		slog.Info("rib install",
			"prefix", r.Prefix, "next_hop", r.NextHopIP, "iface", r.Iface,
			"cost", r.Cost, "intent", r.Intent.String())
		m.installed[prefix] = r
	}

	for prefix := range m.installed {
		if _, ok := next[prefix]; ok {
			continue
		}
		if err := m.installer.Remove(prefix); err != nil {
			metrics.RIBFailures.Inc()
			slog.Warn("rib remove failed", "prefix", prefix, "error", err)
			continue
		}
		metrics.RIBRemoves.Inc()
		slog.Info("rib remove", "prefix", prefix)
		delete(m.installed, prefix)
	}

	m.desired = next
}

// Routes returns the shadow table sorted the way the path engine emitted it.
func (m *Manager) Routes() []spf.Route {
	out := make([]spf.Route, 0, len(m.desired))
	for _, r := range m.desired {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Prefix < out[j].Prefix })
	return out
}
