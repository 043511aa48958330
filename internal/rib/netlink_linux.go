//go:build linux

package rib

import (
	"fmt"
	"net"

	"github.com/vishvananda/netlink"
)

// routeProtocol tags every route this daemon installs so removal can never
// touch routes owned by the OS or another process.
const routeProtocol netlink.RouteProtocol = 201

// kernelInstaller programs the Linux forwarding table over netlink.
type kernelInstaller struct{}

// NewKernelInstaller returns the host forwarding-table installer.
// Requires CAP_NET_ADMIN.
func NewKernelInstaller() Installer {
	return kernelInstaller{}
}

func (kernelInstaller) Install(prefix, nextHopIP, iface string) error {
	_, dst, err := net.ParseCIDR(prefix)
	if err != nil {
		return fmt.Errorf("parse prefix %q: %w", prefix, err)
	}
	gw := net.ParseIP(nextHopIP)
	if gw == nil {
		return fmt.Errorf("parse next hop %q", nextHopIP)
	}
	link, err := netlink.LinkByName(iface)
	if err != nil {
		return fmt.Errorf("lookup link %q: %w", iface, err)
	}

	route := &netlink.Route{
		LinkIndex: link.Attrs().Index,
		Dst:       dst,
		Gw:        gw,
		Protocol:  routeProtocol,
	}
	if err := netlink.RouteReplace(route); err != nil {
		return fmt.Errorf("route replace %s via %s dev %s: %w", prefix, nextHopIP, iface, err)
	}
	return nil
}

func (kernelInstaller) Remove(prefix string) error {
	_, dst, err := net.ParseCIDR(prefix)
	if err != nil {
		return fmt.Errorf("parse prefix %q: %w", prefix, err)
	}

	route := &netlink.Route{
		Dst:      dst,
		Protocol: routeProtocol,
	}
	if err := netlink.RouteDel(route); err != nil {
		return fmt.Errorf("route del %s: %w", prefix, err)
	}
	return nil
}
