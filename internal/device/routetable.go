package device

/*
	Copyright 2023 Canonical Ltd.  This software is licensed under the
	GNU Affero General Public License version 3 (see the file LICENSE).
*/

import (
	"encoding/binary"
	"fmt"

	"github.com/canonical/netdevlab/internal/ethernet"
)

// RouteTableCapacity is the fixed capacity of the routing table.
const RouteTableCapacity = 16

// onLink is the next-hop value meaning "destination IP is the ARP target".
var onLink = ethernet.IPv4Addr{0, 0, 0, 0}

// RouteEntry is one routing table row. NextHop == onLink means the route is
// directly connected: the packet's own destination IP is ARPed for.
type RouteEntry struct {
	Network ethernet.IPv4Addr
	Netmask ethernet.IPv4Addr
	NextHop ethernet.IPv4Addr
	IfcNum  uint16
}

// IsOnLink reports whether the route's next-hop is the on-link sentinel.
func (r RouteEntry) IsOnLink() bool {
	return r.NextHop == onLink
}

func netmaskValue(m ethernet.IPv4Addr) uint32 {
	return binary.BigEndian.Uint32(m[:])
}

func matchesNetwork(ip, network, netmask ethernet.IPv4Addr) bool {
	for i := 0; i < 4; i++ {
		if ip[i]&netmask[i] != network[i]&netmask[i] {
			return false
		}
	}
	return true
}

// RouteTable is an ordered, capacity-bounded list of RouteEntry rows.
type RouteTable struct {
	entries []RouteEntry
}

// NewRouteTable creates an empty routing table.
func NewRouteTable() *RouteTable {
	return &RouteTable{entries: make([]RouteEntry, 0, RouteTableCapacity)}
}

// Add appends a route. It fails if the table is already at capacity.
func (t *RouteTable) Add(e RouteEntry) error {
	if len(t.entries) >= RouteTableCapacity {
		return fmt.Errorf("routing table full (capacity %d)", RouteTableCapacity)
	}
	t.entries = append(t.entries, e)
	return nil
}

// Remove deletes the first entry exactly matching network/netmask/next-hop/
// interface. It is a silent no-op if no entry matches.
func (t *RouteTable) Remove(network, netmask, nextHop ethernet.IPv4Addr, ifcNum uint16) {
	for i, e := range t.entries {
		if e.Network == network && e.Netmask == netmask && e.NextHop == nextHop && e.IfcNum == ifcNum {
			t.entries = append(t.entries[:i], t.entries[i+1:]...)
			return
		}
	}
}

// Lookup performs longest-prefix-match: the entry with the largest netmask
// value among matches wins; ties go to the first match in table order.
func (t *RouteTable) Lookup(dst ethernet.IPv4Addr) (RouteEntry, bool) {
	var best RouteEntry
	found := false
	var bestMask uint32
	for _, e := range t.entries {
		if !matchesNetwork(dst, e.Network, e.Netmask) {
			continue
		}
		mask := netmaskValue(e.Netmask)
		if !found || mask > bestMask {
			best = e
			bestMask = mask
			found = true
		}
	}
	return best, found
}

// All returns every route, in table order, for the "route list" command.
func (t *RouteTable) All() []RouteEntry {
	out := make([]RouteEntry, len(t.entries))
	copy(out, t.entries)
	return out
}
