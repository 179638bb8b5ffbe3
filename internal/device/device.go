package device

/*
	Copyright 2023 Canonical Ltd.  This software is licensed under the
	GNU Affero General Public License version 3 (see the file LICENSE).
*/

import (
	"fmt"

	"github.com/canonical/netdevlab/internal/ethernet"
)

// Device is the process-wide mutable state shared by all four engines:
// the set of interfaces (dense 1-based numbering) plus whichever of the
// MAC table / ARP cache / routing table the owning engine needs. Per the
// single-threaded event-loop model, Device carries no locking of its own;
// callers invoked concurrently from multiple goroutines must serialize
// access themselves.
type Device struct {
	interfaces []*Interface // index i holds ifc_num i+1

	MACTable   *MACTable
	ARPCache   *ARPCache
	RouteTable *RouteTable
}

// New creates a Device for the given dense 1..N interface names. Neither
// MACTable, ARPCache nor RouteTable is allocated; callers wire in the ones
// their engine needs.
func New(names []string) *Device {
	d := &Device{interfaces: make([]*Interface, len(names))}
	for i, name := range names {
		d.interfaces[i] = NewInterface(uint16(i+1), name)
	}
	return d
}

// Interfaces returns every configured interface, in ifc_num order.
func (d *Device) Interfaces() []*Interface {
	return d.interfaces
}

// Interface returns the interface with the given 1-based number. It panics
// (an invariant violation per spec) if num is out of range.
func (d *Device) Interface(num uint16) *Interface {
	if num < 1 || int(num) > len(d.interfaces) {
		panic(fmt.Sprintf("device: interface number %d out of range [1,%d]", num, len(d.interfaces)))
	}
	return d.interfaces[num-1]
}

// InterfaceByName returns the interface with the given name, if any.
func (d *Device) InterfaceByName(name string) (*Interface, bool) {
	for _, ifc := range d.interfaces {
		if ifc.Name == name {
			return ifc, true
		}
	}
	return nil, false
}

// SetInterfaceMAC assigns the MAC address the harness reports for ifcNum.
func (d *Device) SetInterfaceMAC(ifcNum uint16, mac ethernet.MAC) {
	ifc := d.Interface(ifcNum)
	ifc.MAC = mac
}
