package device

/*
	Copyright 2023 Canonical Ltd.  This software is licensed under the
	GNU Affero General Public License version 3 (see the file LICENSE).
*/

import "github.com/canonical/netdevlab/internal/ethernet"

const (
	// RouterARPCacheCapacity is the bound used by the router engine.
	RouterARPCacheCapacity = 16
	// ToolARPCacheCapacity is the bound used by the standalone ARP tool.
	ToolARPCacheCapacity = 50
)

// ARPEntry is one resolved IPv4 -> MAC mapping, carrying enough of the
// owning interface's context to answer "arp" and forward without a second
// lookup against the Device's interface table.
type ARPEntry struct {
	IP      ethernet.IPv4Addr
	MAC     ethernet.MAC
	IfcNum  uint16
	Netmask ethernet.IPv4Addr
	MTU     uint16
	Name    string
}

type arpSlot struct {
	entry ARPEntry
	used  bool
}

// ARPCache is a bounded IPv4 -> ARPEntry mapping with the same
// overwrite-oldest replacement policy as MACTable, keyed by IP.
type ARPCache struct {
	slots []arpSlot
	index map[ethernet.IPv4Addr]int
	next  int
}

// NewARPCache creates a cache with the given fixed capacity.
func NewARPCache(capacity int) *ARPCache {
	return &ARPCache{
		slots: make([]arpSlot, capacity),
		index: make(map[ethernet.IPv4Addr]int, capacity),
	}
}

// Learn inserts or, for an existing IP, updates entry in place.
func (c *ARPCache) Learn(entry ARPEntry) {
	if pos, ok := c.index[entry.IP]; ok {
		c.slots[pos].entry = entry
		return
	}

	pos := c.next
	old := c.slots[pos]
	if old.used {
		delete(c.index, old.entry.IP)
	}
	c.slots[pos] = arpSlot{entry: entry, used: true}
	c.index[entry.IP] = pos
	c.next = (c.next + 1) % len(c.slots)
}

// Lookup returns the cached entry for ip, if any.
func (c *ARPCache) Lookup(ip ethernet.IPv4Addr) (ARPEntry, bool) {
	pos, ok := c.index[ip]
	if !ok {
		return ARPEntry{}, false
	}
	return c.slots[pos].entry, true
}

// LookupOnInterface returns the cached entry for ip only if it was learned
// on ifcNum.
func (c *ARPCache) LookupOnInterface(ip ethernet.IPv4Addr, ifcNum uint16) (ARPEntry, bool) {
	entry, ok := c.Lookup(ip)
	if !ok || entry.IfcNum != ifcNum {
		return ARPEntry{}, false
	}
	return entry, true
}

// All returns every currently cached entry, in insertion-slot order, for
// the "arp" print command.
func (c *ARPCache) All() []ARPEntry {
	entries := make([]ARPEntry, 0, len(c.index))
	for _, s := range c.slots {
		if s.used {
			entries = append(entries, s.entry)
		}
	}
	return entries
}
