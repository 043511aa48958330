package daemon

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/pedro-gerhardt/ospf-intent-aware/internal/intent"
	"github.com/pedro-gerhardt/ospf-intent-aware/internal/neighbor"
	"github.com/pedro-gerhardt/ospf-intent-aware/internal/spf"
	"github.com/pedro-gerhardt/ospf-intent-aware/internal/wire"
)

// Status publishes read-only views of the loop-owned state for the admin
// HTTP listener. The event loop pushes copies in; HTTP handlers only ever
// read them, so loop state is never shared.
type Status struct {
	mu        sync.RWMutex
	routerID  string
	startTime time.Time

	neighbors []neighbor.Neighbor
	lsas      []wire.LSA
	intents   []intent.Intent
	routes    []spf.Route
}

func newStatus(routerID string) *Status {
	return &Status{routerID: routerID, startTime: time.Now()}
}

func (s *Status) setNeighbors(nbs []neighbor.Neighbor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.neighbors = nbs
}

func (s *Status) setLSDB(lsas []wire.LSA) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lsas = lsas
}

func (s *Status) setIntents(ins []intent.Intent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.intents = ins
}

func (s *Status) setRoutes(rs []spf.Route) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes = rs
}

// healthView is the JSON body for GET /health.
type healthView struct {
	Status    string    `json:"status"`
	RouterID  string    `json:"router_id"`
	Timestamp time.Time `json:"timestamp"`
	Uptime    string    `json:"uptime"`
	Neighbors int       `json:"neighbors"`
	LSDBSize  int       `json:"lsdb_size"`
	Routes    int       `json:"routes"`
}

// neighborView is one row of GET /neighbors.
type neighborView struct {
	RouterID  string    `json:"router_id"`
	Iface     string    `json:"iface"`
	State     string    `json:"state"`
	LastHeard time.Time `json:"last_heard"`
}

// routeView is one row of GET /routes.
type routeView struct {
	Prefix  string  `json:"prefix"`
	Dest    string  `json:"dest"`
	NextHop string  `json:"next_hop"`
	Via     string  `json:"via"`
	Iface   string  `json:"iface"`
	Cost    float64 `json:"cost"`
	Intent  string  `json:"intent"`
}

// AdminHandler serves the operator surface: JSON views of the protocol
// state, the health probe, and administrative interface up/down.
func (d *Daemon) AdminHandler() http.Handler {
	s := d.status
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		s.mu.RLock()
		view := healthView{
			Status:    "healthy",
			RouterID:  s.routerID,
			Timestamp: time.Now(),
			Uptime:    time.Since(s.startTime).String(),
			Neighbors: len(s.neighbors),
			LSDBSize:  len(s.lsas),
			Routes:    len(s.routes),
		}
		s.mu.RUnlock()
		writeJSON(w, http.StatusOK, view)
	})

	mux.HandleFunc("/neighbors", func(w http.ResponseWriter, r *http.Request) {
		s.mu.RLock()
		views := make([]neighborView, 0, len(s.neighbors))
		for _, nb := range s.neighbors {
			views = append(views, neighborView{
				RouterID:  nb.RouterID,
				Iface:     nb.Iface,
				State:     nb.State.String(),
				LastHeard: nb.LastHeard,
			})
		}
		s.mu.RUnlock()
		writeJSON(w, http.StatusOK, views)
	})

	mux.HandleFunc("/lsdb", func(w http.ResponseWriter, r *http.Request) {
		s.mu.RLock()
		lsas := s.lsas
		s.mu.RUnlock()
		writeJSON(w, http.StatusOK, lsas)
	})

	mux.HandleFunc("/intents", func(w http.ResponseWriter, r *http.Request) {
		s.mu.RLock()
		ins := s.intents
		s.mu.RUnlock()
		writeJSON(w, http.StatusOK, ins)
	})

	mux.HandleFunc("/routes", func(w http.ResponseWriter, r *http.Request) {
		s.mu.RLock()
		views := make([]routeView, 0, len(s.routes))
		for _, rt := range s.routes {
			views = append(views, routeView{
				Prefix:  rt.Prefix,
				Dest:    rt.Dest,
				NextHop: rt.NextHop,
				Via:     rt.NextHopIP,
				Iface:   rt.Iface,
				Cost:    rt.Cost,
				Intent:  rt.Intent.String(),
			})
		}
		s.mu.RUnlock()
		writeJSON(w, http.StatusOK, views)
	})

	mux.HandleFunc("/interface", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		name := r.URL.Query().Get("name")
		if name == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
			return
		}
		up, err := strconv.ParseBool(r.URL.Query().Get("up"))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "up must be true or false"})
			return
		}
		d.AdminSetInterface(name, up)
		writeJSON(w, http.StatusAccepted, map[string]any{"iface": name, "up": up})
	})

	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
