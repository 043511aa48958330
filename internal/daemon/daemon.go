// Package daemon binds sockets, timers, and the routing components into one
// cooperative event loop. All mutable protocol state is owned by that loop;
// mutation only happens between suspension points, so the components carry
// no locks.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"path/filepath"
	"time"

	"github.com/pedro-gerhardt/ospf-intent-aware/internal/flood"
	"github.com/pedro-gerhardt/ospf-intent-aware/internal/intent"
	"github.com/pedro-gerhardt/ospf-intent-aware/internal/lsdb"
	"github.com/pedro-gerhardt/ospf-intent-aware/internal/neighbor"
	"github.com/pedro-gerhardt/ospf-intent-aware/internal/rib"
)

// Timer defaults. Domain-wide agreement is only required on dead > hello.
const (
	DefaultPort            = 20001
	DefaultHelloInterval   = 2 * time.Second
	DefaultDeadInterval    = 8 * time.Second
	DefaultRefreshInterval = 30 * time.Second
	DefaultCoalesceWindow  = 100 * time.Millisecond
)

// Stub is a directly attached prefix with the host names living on it.
type Stub struct {
	Prefix string   `yaml:"prefix"`
	Hosts  []string `yaml:"hosts"`
}

// Config is the full daemon configuration.
type Config struct {
	RouterID        string
	Port            int
	Interfaces      []neighbor.Interface
	Stubs           []Stub
	HelloInterval   time.Duration
	DeadInterval    time.Duration
	RefreshInterval time.Duration
	CoalesceWindow  time.Duration
	DataDir         string // enables intent persistence when set
	StatusAddr      string // enables the admin/metrics HTTP listener when set
}

// Validate checks the configuration and applies defaults.
func (c *Config) Validate() error {
	if c.RouterID == "" {
		return errors.New("router-id is required")
	}
	if len(c.Interfaces) == 0 {
		return errors.New("at least one interface is required")
	}
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.HelloInterval <= 0 {
		c.HelloInterval = DefaultHelloInterval
	}
	if c.DeadInterval <= 0 {
		c.DeadInterval = 4 * c.HelloInterval
	}
	if c.DeadInterval <= c.HelloInterval {
		return fmt.Errorf("dead interval %s must exceed hello interval %s", c.DeadInterval, c.HelloInterval)
	}
	if c.RefreshInterval <= 0 {
		c.RefreshInterval = DefaultRefreshInterval
	}
	if c.CoalesceWindow <= 0 {
		c.CoalesceWindow = DefaultCoalesceWindow
	}
	return nil
}

// packet is one received datagram with its source address.
type packet struct {
	data []byte
	src  *net.UDPAddr
}

// adminCmd is an operator mutation routed into the event loop so HTTP
// handlers never touch loop-owned state.
type adminCmd struct {
	iface string
	up    bool
}

// Daemon is the per-node routing daemon.
type Daemon struct {
	cfg Config

	neighbors *neighbor.Table
	db        *lsdb.DB
	flooder   *flood.Flooder
	intents   *intent.Store
	rib       *rib.Manager
	status    *Status

	seq  uint64 // own LSA sequence, monotonically increasing
	send flood.SendFunc

	conn          *net.UDPConn
	adminCh       chan adminCmd
	coalesceTimer *time.Timer

	recomputePending bool
}

// New wires a daemon from its configuration and a forwarding-table
// installer. Call Run to start it.
func New(cfg Config, installer rib.Installer) (*Daemon, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	intentPath := ""
	if cfg.DataDir != "" {
		intentPath = filepath.Join(cfg.DataDir, "intents.json")
	}

	d := &Daemon{
		cfg:       cfg,
		neighbors: neighbor.NewTable(cfg.Interfaces, cfg.DeadInterval),
		db:        lsdb.New(),
		intents:   intent.NewStore(intentPath),
		rib:       rib.NewManager(installer),
		status:    newStatus(cfg.RouterID),
		adminCh:   make(chan adminCmd, 8),
	}
	d.flooder = &flood.Flooder{DB: d.db, Neighbors: d.neighbors, Send: d.sendMsg}
	d.send = d.sendUDP

	if err := d.intents.Load(); err != nil {
		slog.Warn("intent restore failed", "error", err)
	} else if d.intents.Len() > 0 {
		slog.Info("intents restored", "count", d.intents.Len())
	}

	return d, nil
}

// Status exposes the admin views for the optional HTTP listener.
func (d *Daemon) Status() *Status { return d.status }

// AdminSetInterface queues an administrative interface status change for the
// event loop. Safe to call from other goroutines.
func (d *Daemon) AdminSetInterface(iface string, up bool) {
	select {
	case d.adminCh <- adminCmd{iface: iface, up: up}:
	default:
		slog.Warn("admin command dropped, queue full", "iface", iface)
	}
}

// Run binds the control socket and drives the event loop until ctx is
// cancelled. On shutdown no state is flushed; peers notice the silence via
// their dead timers.
func (d *Daemon) Run(ctx context.Context) error {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{Port: d.cfg.Port})
	if err != nil {
		return fmt.Errorf("bind control port %d: %w", d.cfg.Port, err)
	}
	d.conn = conn
	defer conn.Close()

	slog.Info("daemon up",
		"router_id", d.cfg.RouterID, "port", d.cfg.Port,
		"interfaces", len(d.cfg.Interfaces), "stubs", len(d.cfg.Stubs))

	packets := make(chan packet, 64)
	go readLoop(conn, packets)

	helloTicker := time.NewTicker(d.cfg.HelloInterval)
	defer helloTicker.Stop()
	refreshTicker := time.NewTicker(d.cfg.RefreshInterval)
	defer refreshTicker.Stop()

	coalesce := time.NewTimer(d.cfg.CoalesceWindow)
	if !coalesce.Stop() {
		<-coalesce.C
	}
	defer coalesce.Stop()
	d.coalesceTimer = coalesce

	// Claim our stubs immediately; adjacencies will follow.
	d.originateLSA()
	d.sendHellos()

	for {
		select {
		case <-ctx.Done():
			slog.Info("daemon stopping", "router_id", d.cfg.RouterID)
			return nil

		case pkt := <-packets:
			d.handleDatagram(pkt.data, pkt.src)

		case <-helloTicker.C:
			d.sendHellos()
			if died := d.neighbors.Sweep(); len(died) > 0 {
				d.originateLSA()
			}
			d.status.setNeighbors(d.neighbors.Neighbors())

		case <-refreshTicker.C:
			d.originateLSA()

		case cmd := <-d.adminCh:
			if changed := d.neighbors.SetAdminStatus(cmd.iface, cmd.up); changed {
				d.originateLSA()
			}
			d.status.setNeighbors(d.neighbors.Neighbors())

		case <-coalesce.C:
			d.recomputePending = false
			d.recompute()
		}
	}
}

// readLoop is the only goroutine besides the event loop; it owns nothing but
// the socket read side.
func readLoop(conn *net.UDPConn, out chan<- packet) {
	buf := make([]byte, 64*1024)
	for {
		n, src, err := conn.ReadFromUDP(buf)
		if err != nil {
			return // socket closed on shutdown
		}
		data := make([]byte, n)
		copy(data, buf[:n])
		out <- packet{data: data, src: src}
	}
}
