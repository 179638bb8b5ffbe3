package device

/*
	Copyright 2023 Canonical Ltd.  This software is licensed under the
	GNU Affero General Public License version 3 (see the file LICENSE).
*/

import "github.com/canonical/netdevlab/internal/ethernet"

// MACTableCapacity is the fixed capacity of a switch's MAC learning table.
const MACTableCapacity = 50

type macKey struct {
	VLAN uint16
	MAC  ethernet.MAC
}

type macSlot struct {
	key    macKey
	ifcNum uint16
	used   bool
}

// MACTable is a bounded MAC -> interface mapping with insertion-ordered,
// overwrite-oldest replacement on overflow: the writer cursor advances
// circularly through a fixed-capacity array, and an update of an existing
// key never moves its slot. Entries are keyed by (VLAN, MAC) so the switch
// engine uses VLAN 0 throughout and the vswitch engine gets one table per
// VLAN for free.
type MACTable struct {
	slots []macSlot
	index map[macKey]int
	next  int
}

// NewMACTable creates a table with the given fixed capacity.
func NewMACTable(capacity int) *MACTable {
	return &MACTable{
		slots: make([]macSlot, capacity),
		index: make(map[macKey]int, capacity),
	}
}

// Learn records that mac was seen on ifcNum within vlan. An existing entry
// for (vlan, mac) is updated in place; otherwise the entry is written to
// the next circular slot, evicting whatever key occupied it.
func (t *MACTable) Learn(vlan uint16, mac ethernet.MAC, ifcNum uint16) {
	key := macKey{VLAN: vlan, MAC: mac}
	if pos, ok := t.index[key]; ok {
		t.slots[pos].ifcNum = ifcNum
		return
	}

	pos := t.next
	old := t.slots[pos]
	if old.used {
		delete(t.index, old.key)
	}
	t.slots[pos] = macSlot{key: key, ifcNum: ifcNum, used: true}
	t.index[key] = pos
	t.next = (t.next + 1) % len(t.slots)
}

// Lookup returns the learned egress interface for (vlan, mac), if any.
func (t *MACTable) Lookup(vlan uint16, mac ethernet.MAC) (uint16, bool) {
	pos, ok := t.index[macKey{VLAN: vlan, MAC: mac}]
	if !ok {
		return 0, false
	}
	return t.slots[pos].ifcNum, true
}

// Size reports the number of distinct keys currently held.
func (t *MACTable) Size() int {
	return len(t.index)
}
