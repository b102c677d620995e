// Package netutil provides small host:port helpers shared by the
// election core and the CLI.
package netutil

import (
	"fmt"
	"net"
	"os"
	"strconv"
)

// DiscoverHost resolves the address a replica should advertise in its
// LEASE/CURRENT payloads from a named network interface: the first
// site-local address on that interface wins; failing that, the first
// non-loopback address; failing that, the OS-reported local hostname.
// An empty interfaceName skips discovery and returns the local
// hostname directly. A named interface that cannot be found is a
// configuration error and is reported rather than silently ignored.
func DiscoverHost(interfaceName string) (string, error) {
	if interfaceName == "" {
		return os.Hostname()
	}

	iface, err := net.InterfaceByName(interfaceName)
	if err != nil {
		return "", fmt.Errorf("network interface %q not found: %w", interfaceName, err)
	}

	addrs, err := iface.Addrs()
	if err != nil {
		return "", fmt.Errorf("list addresses on interface %q: %w", interfaceName, err)
	}

	var firstNonLoopback string
	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok || ipNet.IP.IsLoopback() {
			continue
		}
		if firstNonLoopback == "" {
			firstNonLoopback = ipNet.IP.String()
		}
		if ipNet.IP.IsPrivate() {
			// net.IP.IsPrivate reports RFC1918/RFC4193 site-local
			// ranges; IsLinkLocalUnicast site-local addresses are
			// deliberately excluded since they are not routable beyond
			// the local link and unsuitable for advertising to clients.
			return ipNet.IP.String(), nil
		}
	}

	if firstNonLoopback != "" {
		return firstNonLoopback, nil
	}

	return os.Hostname()
}

// DiscoverHostAndPort runs DiscoverHost and formats the result with
// port as a "host:port" string, matching the LeaseRecord/
// CurrentTSORecord payload format.
func DiscoverHostAndPort(interfaceName string, port int) (string, error) {
	host, err := DiscoverHost(interfaceName)
	if err != nil {
		return "", err
	}
	return JoinHostPort(host, port), nil
}

// JoinHostPort formats a host and port as "host:port", matching the
// LeaseRecord/CurrentTSORecord payload format.
func JoinHostPort(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}

// SplitHostPort parses a "host:port" string into its parts.
func SplitHostPort(hostAndPort string) (host string, port int, err error) {
	h, p, err := net.SplitHostPort(hostAndPort)
	if err != nil {
		return "", 0, fmt.Errorf("invalid host:port %q: %w", hostAndPort, err)
	}
	portNum, err := strconv.Atoi(p)
	if err != nil {
		return "", 0, fmt.Errorf("invalid port in %q: %w", hostAndPort, err)
	}
	return h, portNum, nil
}
