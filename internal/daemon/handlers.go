package daemon

import (
	"log/slog"
	"net"
	"time"

	"github.com/pedro-gerhardt/ospf-intent-aware/internal/intent"
	"github.com/pedro-gerhardt/ospf-intent-aware/internal/lsdb"
	"github.com/pedro-gerhardt/ospf-intent-aware/internal/metrics"
	"github.com/pedro-gerhardt/ospf-intent-aware/internal/spf"
	"github.com/pedro-gerhardt/ospf-intent-aware/internal/wire"
)

// handleDatagram classifies and dispatches one received datagram. Peer
// misbehavior never escapes this function.
func (d *Daemon) handleDatagram(data []byte, src *net.UDPAddr) {
	msg, err := wire.Decode(data)
	if err != nil {
		metrics.MalformedDropped.Inc()
		slog.Debug("datagram dropped", "src", src.String(), "error", err)
		return
	}

	switch m := msg.(type) {
	case wire.Hello:
		d.onHello(m, src)
	case wire.LSA:
		d.onLSA(m, src)
	case wire.Intent:
		d.onIntent(m)
	case wire.IntentDelete:
		d.onIntentDelete(m)
	}
}

func (d *Daemon) onHello(m wire.Hello, src *net.UDPAddr) {
	metrics.HelloRx.Inc()

	ifc, ok := d.neighbors.IfaceByPeerIP(src.IP.String())
	if !ok {
		slog.Debug("hello from unknown link", "src", src.IP.String(), "router_id", m.RouterID)
		return
	}
	slog.Debug("hello rx", "iface", ifc.Name, "peer", m.RouterID)

	if changed := d.neighbors.OnHello(ifc.Name, m.RouterID, d.cfg.RouterID, m.Seen); changed {
		d.originateLSA()
	}
	d.status.setNeighbors(d.neighbors.Neighbors())
}

func (d *Daemon) onLSA(m wire.LSA, src *net.UDPAddr) {
	ifc, ok := d.neighbors.IfaceByPeerIP(src.IP.String())
	if !ok {
		metrics.MalformedDropped.Inc()
		slog.Debug("lsa from unknown link", "src", src.IP.String(), "origin", m.Origin)
		return
	}
	if m.Origin == d.cfg.RouterID {
		// Our own LSA echoed back. A higher sequence means a peer still
		// holds a pre-restart advertisement; jump past it and re-assert.
		if m.Seq > d.seq {
			d.seq = m.Seq
			d.originateLSA()
		}
		return
	}
	if outcome := d.flooder.OnReceive(ifc.Name, m); outcome == lsdb.Accepted {
		d.scheduleRecompute()
	}
}

func (d *Daemon) onIntent(m wire.Intent) {
	in := intent.Intent{
		Src:          m.Src,
		Dst:          m.Dst,
		MinBandwidth: m.MinBandwidth,
		MaxLatency:   m.MaxLatency,
	}
	if err := d.intents.Put(in); err != nil {
		metrics.MalformedDropped.Inc()
		slog.Warn("intent rejected", "src", m.Src, "dst", m.Dst, "error", err)
		return
	}
	slog.Info("intent apply", "src", m.Src, "dst", m.Dst,
		"min_bandwidth", ptrOr(m.MinBandwidth), "max_latency", ptrOr(m.MaxLatency))
	d.status.setIntents(d.intents.List())
	d.scheduleRecompute()
}

func (d *Daemon) onIntentDelete(m wire.IntentDelete) {
	if removed := d.intents.Delete(m.Src, m.Dst); !removed {
		slog.Debug("intent delete for unknown flow", "src", m.Src, "dst", m.Dst)
		return
	}
	slog.Info("intent delete", "src", m.Src, "dst", m.Dst)
	d.status.setIntents(d.intents.List())
	d.scheduleRecompute()
}

// sendHellos emits one HELLO per up interface with this interface's link
// attributes and the router-ids currently heard anywhere.
func (d *Daemon) sendHellos() {
	seen := d.neighbors.Seen()
	for _, ifc := range d.neighbors.Interfaces() {
		if !ifc.Up {
			continue
		}
		hello := wire.Hello{
			RouterID:  d.cfg.RouterID,
			Iface:     ifc.Name,
			Bandwidth: ifc.Bandwidth,
			Delay:     ifc.Delay,
			Seen:      seen,
		}
		if err := d.sendMsg(ifc.PeerIP, hello); err != nil {
			slog.Debug("hello send failed", "iface", ifc.Name, "error", err)
			continue
		}
		metrics.HelloTx.Inc()
	}
}

// originateLSA builds this node's advertisement from its TWO-WAY
// adjacencies and attached stubs, accepts it locally, and floods it.
func (d *Daemon) originateLSA() {
	d.seq++

	lsa := wire.LSA{
		Origin: d.cfg.RouterID,
		Seq:    d.seq,
		TS:     float64(time.Now().UnixNano()) / float64(time.Second),
	}
	for _, nb := range d.neighbors.TwoWay() {
		ifc, ok := d.neighbors.Interface(nb.Iface)
		if !ok {
			continue
		}
		lsa.Links = append(lsa.Links, wire.Link{
			Peer:      nb.RouterID,
			Bandwidth: ifc.Bandwidth,
			Delay:     ifc.Delay,
		})
	}
	for _, stub := range d.cfg.Stubs {
		lsa.Stubs = append(lsa.Stubs, stub.Prefix)
		for _, host := range stub.Hosts {
			if lsa.Hosts == nil {
				lsa.Hosts = make(map[string]string)
			}
			lsa.Hosts[host] = stub.Prefix
		}
	}

	d.db.Offer(lsa)
	metrics.LSAOriginated.Inc()
	slog.Info("lsa originate", "seq", lsa.Seq, "links", len(lsa.Links), "stubs", len(lsa.Stubs))

	d.flooder.Flood(lsa, "")
	d.scheduleRecompute()
}

// scheduleRecompute arms the coalescing timer; triggers landing inside the
// window fold into one recomputation.
func (d *Daemon) scheduleRecompute() {
	if d.recomputePending {
		return
	}
	d.recomputePending = true
	if d.coalesceTimer != nil {
		d.coalesceTimer.Reset(d.cfg.CoalesceWindow)
	}
}

// recompute runs the path engine on a consistent snapshot and reconciles the
// result with the host forwarding table.
func (d *Daemon) recompute() {
	start := time.Now()

	routes, stats := spf.Compute(spf.Input{
		LocalID:  d.cfg.RouterID,
		DB:       d.db.Snapshot(),
		Intents:  d.intents.List(),
		Resolver: d.neighbors,
	})

	elapsed := time.Since(start)
	metrics.SPFRuns.Inc()
	metrics.SPFDuration.Observe(elapsed.Seconds())
	for i := 0; i < stats.Fallbacks; i++ {
		metrics.IntentFallbacks.Inc()
	}
	slog.Info("spf run",
		"duration", elapsed, "vertices", stats.Vertices, "edges", stats.Edges,
		"routes", len(routes), "fallbacks", stats.Fallbacks)

	d.rib.Apply(routes)
	d.status.setRoutes(d.rib.Routes())
	d.status.setLSDB(d.snapshotLSAs())
}

func (d *Daemon) snapshotLSAs() []wire.LSA {
	out := make([]wire.LSA, 0, d.db.Len())
	for _, origin := range d.db.Origins() {
		if lsa, ok := d.db.Get(origin); ok {
			out = append(out, lsa)
		}
	}
	return out
}

// sendMsg encodes and transmits one message to a peer's control port.
func (d *Daemon) sendMsg(peerIP string, msg wire.Message) error {
	return d.send(peerIP, msg)
}

// sendUDP is the production transport.
func (d *Daemon) sendUDP(peerIP string, msg wire.Message) error {
	data, err := wire.Encode(msg)
	if err != nil {
		return err
	}
	ip := net.ParseIP(peerIP)
	if ip == nil {
		return &net.AddrError{Err: "bad peer IP", Addr: peerIP}
	}
	_, err = d.conn.WriteToUDP(data, &net.UDPAddr{IP: ip, Port: d.cfg.Port})
	return err
}

func ptrOr(v *float64) any {
	if v == nil {
		return "unset"
	}
	return *v
}
