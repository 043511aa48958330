// Package flood implements reliable bounded LSA propagation: accepted LSAs
// are forwarded on every other TWO-WAY interface, duplicates are suppressed,
// and lagging peers are caught up with an anti-entropy reply.
package flood

import (
	"log/slog"

	"github.com/pedro-gerhardt/ospf-intent-aware/internal/lsdb"
	"github.com/pedro-gerhardt/ospf-intent-aware/internal/metrics"
	"github.com/pedro-gerhardt/ospf-intent-aware/internal/neighbor"
	"github.com/pedro-gerhardt/ospf-intent-aware/internal/wire"
)

// SendFunc transmits one message to a peer's control port. Transmit errors
// are transient; the flooder drops and relies on the next periodic refresh.
type SendFunc func(peerIP string, msg wire.Message) error

// Flooder binds the LSDB and the neighbor table to the datagram transport.
// It is owned by the daemon event loop.
type Flooder struct {
	DB        *lsdb.DB
	Neighbors *neighbor.Table
	Send      SendFunc
}

// OnReceive applies the reception rule to an LSA arriving on ifaceName and
// returns the database outcome. Accepted obliges the caller to schedule a
// recomputation.
func (f *Flooder) OnReceive(ifaceName string, lsa wire.LSA) lsdb.Outcome {
	metrics.LSAFloodRx.Inc()

	outcome := f.DB.Offer(lsa)
	switch outcome {
	case lsdb.Accepted:
		slog.Debug("lsa accepted", "origin", lsa.Origin, "seq", lsa.Seq, "iface", ifaceName)
		f.Flood(lsa, ifaceName)
	case lsdb.Duplicate:
		metrics.LSAIgnored.Inc()
		slog.Debug("lsa ignored", "origin", lsa.Origin, "seq", lsa.Seq, "reason", "duplicate")
	case lsdb.Stale:
		metrics.LSAIgnored.Inc()
		// Anti-entropy: the sender is behind, hand it our copy directly.
		stored, ok := f.DB.Get(lsa.Origin)
		if !ok {
			break
		}
		if ifc, found := f.Neighbors.Interface(ifaceName); found {
			slog.Debug("lsa anti-entropy reply",
				"origin", lsa.Origin, "their_seq", lsa.Seq, "our_seq", stored.Seq, "peer", ifc.PeerIP)
			f.send(ifc.PeerIP, stored)
		}
	}
	return outcome
}

// Flood transmits an LSA on every TWO-WAY interface except excludeIface.
// Pass an empty excludeIface when originating locally.
func (f *Flooder) Flood(lsa wire.LSA, excludeIface string) {
	for _, nb := range f.Neighbors.TwoWay() {
		if nb.Iface == excludeIface {
			continue // never back out the inbound interface
		}
		ifc, ok := f.Neighbors.Interface(nb.Iface)
		if !ok || !ifc.Up {
			continue
		}
		f.send(ifc.PeerIP, lsa)
	}
}

func (f *Flooder) send(peerIP string, lsa wire.LSA) {
	if err := f.Send(peerIP, lsa); err != nil {
		slog.Warn("lsa send failed", "origin", lsa.Origin, "seq", lsa.Seq, "peer", peerIP, "error", err)
		return
	}
	metrics.LSAFloodTx.Inc()
}
