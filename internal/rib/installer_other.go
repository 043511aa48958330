//go:build !linux

package rib

import "log/slog"

// loggingInstaller stands in for the kernel on platforms without netlink
// support. Routes are recorded in the shadow table only.
type loggingInstaller struct{}

// NewKernelInstaller returns a logging stand-in on non-Linux hosts.
func NewKernelInstaller() Installer {
	slog.Warn("kernel route programming unsupported on this platform, routes are shadow-only")
	return loggingInstaller{}
}

func (loggingInstaller) Install(prefix, nextHopIP, iface string) error {
	slog.Debug("install skipped", "prefix", prefix, "next_hop", nextHopIP, "iface", iface)
	return nil
}

func (loggingInstaller) Remove(prefix string) error {
	slog.Debug("remove skipped", "prefix", prefix)
	return nil
}
