package controlcmd

/*
	Copyright 2023 Canonical Ltd.  This software is licensed under the
	GNU Affero General Public License version 3 (see the file LICENSE).
*/

// Package controlcmd parses the operator command lines of spec.md §4.5.3:
// the "arp" and "route" families shared by the ARP tool and router
// binaries. Invalid syntax is reported as an error, per spec.md §7, for
// the caller to log to the diagnostic channel rather than act on.
import (
	"fmt"
	"strconv"
	"strings"

	"github.com/canonical/netdevlab/internal/cliconfig"
	"github.com/canonical/netdevlab/internal/ethernet"
)

// ARPCommand is a parsed "arp" or "arp <ip> <iface>" line.
type ARPCommand struct {
	HasQuery bool
	IP       ethernet.IPv4Addr
	Iface    string
}

// ParseARP parses an "arp" control line already split on whitespace, with
// fields[0] == "arp".
func ParseARP(fields []string) (ARPCommand, error) {
	switch len(fields) {
	case 1:
		return ARPCommand{}, nil
	case 3:
		ip, err := parseIP(fields[1])
		if err != nil {
			return ARPCommand{}, err
		}
		return ARPCommand{HasQuery: true, IP: ip, Iface: fields[2]}, nil
	default:
		return ARPCommand{}, fmt.Errorf("arp: expected 'arp' or 'arp <ip> <iface>', got %q", strings.Join(fields, " "))
	}
}

// RouteCommand is a parsed "route"/"route list"/"route add ..."/"route
// del ..." line. NextHop is the zero address for an on-link route.
type RouteCommand struct {
	Op      string // "list", "add", "del"
	Network ethernet.IPv4Addr
	Netmask ethernet.IPv4Addr
	NextHop ethernet.IPv4Addr
	Iface   string
}

// ParseRoute parses a "route" control line already split on whitespace,
// with fields[0] == "route".
func ParseRoute(fields []string) (RouteCommand, error) {
	if len(fields) == 1 || (len(fields) == 2 && fields[1] == "list") {
		return RouteCommand{Op: "list"}, nil
	}
	if len(fields) != 7 {
		return RouteCommand{}, fmt.Errorf("route: unrecognised syntax %q", strings.Join(fields, " "))
	}
	op := fields[1]
	if op != "add" && op != "del" {
		return RouteCommand{}, fmt.Errorf("route: unrecognised syntax %q", strings.Join(fields, " "))
	}
	if fields[3] != "via" || fields[5] != "dev" {
		return RouteCommand{}, fmt.Errorf("route: expected 'route %s <net>/<mask> via <next-hop> dev <iface>'", op)
	}
	network, netmask, err := parseCIDR(fields[2])
	if err != nil {
		return RouteCommand{}, err
	}
	nextHop, err := parseIP(fields[4])
	if err != nil {
		return RouteCommand{}, err
	}
	return RouteCommand{Op: op, Network: network, Netmask: netmask, NextHop: nextHop, Iface: fields[6]}, nil
}

// parseCIDR parses an "<ip>/<prefixlen>" token, the same grammar
// cliconfig.Parse uses for interface IPV4 specifications.
func parseCIDR(s string) (network, netmask ethernet.IPv4Addr, err error) {
	parts := strings.SplitN(s, "/", 2)
	if len(parts) != 2 {
		return network, netmask, fmt.Errorf("route: %q missing /prefixlen", s)
	}
	network, err = parseIP(parts[0])
	if err != nil {
		return network, netmask, err
	}
	prefix, err := strconv.Atoi(parts[1])
	if err != nil || prefix < 0 || prefix > 32 {
		return network, netmask, fmt.Errorf("route: invalid prefix length %q", parts[1])
	}
	netmask = cliconfig.PrefixToNetmask(prefix)
	return network, netmask, nil
}

func parseIP(s string) (ethernet.IPv4Addr, error) {
	var ip ethernet.IPv4Addr
	octets := strings.Split(s, ".")
	if len(octets) != 4 {
		return ip, fmt.Errorf("invalid IPv4 address %q", s)
	}
	for i, o := range octets {
		v, err := strconv.Atoi(o)
		if err != nil || v < 0 || v > 255 {
			return ip, fmt.Errorf("invalid IPv4 address %q", s)
		}
		ip[i] = byte(v)
	}
	return ip, nil
}
