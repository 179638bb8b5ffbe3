package device

/*
	Copyright 2023 Canonical Ltd.  This software is licensed under the
	GNU Affero General Public License version 3 (see the file LICENSE).
*/

import (
	"fmt"

	"github.com/canonical/netdevlab/internal/ethernet"
)

const (
	// EthernetHeaderLen is added to every interface's configured MTU to
	// arrive at the MTU enforced against wire frames.
	EthernetHeaderLen = 14

	defaultIPMTU = 1500
	minIPMTU     = 400
	maxIPMTU     = 65535
)

// Interface is one network port of a Device, identified by a dense 1-based
// Num. MAC is assigned at runtime by the harness, not at construction.
type Interface struct {
	Num  uint16
	Name string
	MAC  ethernet.MAC

	// IP/Netmask are set for L3-capable interfaces (ARP tool, router).
	// IP is the zero value for L2-only interfaces (switch, vswitch).
	IP      ethernet.IPv4Addr
	Netmask ethernet.IPv4Addr
	HasIP   bool

	// MTU is the full Ethernet-frame MTU (IP MTU + EthernetHeaderLen).
	MTU uint16

	// VLAN membership, for vswitch interfaces only.
	UntaggedVLAN *uint16
	TaggedVLANs  map[uint16]bool
}

// NewInterface creates interface number num with the given name and the
// default MTU (1500 bytes of IP payload plus the Ethernet header).
func NewInterface(num uint16, name string) *Interface {
	return &Interface{
		Num:         num,
		Name:        name,
		MTU:         defaultIPMTU + EthernetHeaderLen,
		TaggedVLANs: make(map[uint16]bool),
	}
}

// SetMTU validates and sets the interface's IP-layer MTU (excluding the
// Ethernet header), per spec bounds of 400..65535.
func (ifc *Interface) SetMTU(ipMTU int) error {
	if ipMTU < minIPMTU || ipMTU > maxIPMTU {
		return fmt.Errorf("interface %s: MTU %d out of range [%d,%d]", ifc.Name, ipMTU, minIPMTU, maxIPMTU)
	}
	ifc.MTU = uint16(ipMTU + EthernetHeaderLen)
	return nil
}

// NetworkMatches reports whether ip falls in ifc's configured subnet.
func (ifc *Interface) NetworkMatches(ip ethernet.IPv4Addr) bool {
	for i := 0; i < 4; i++ {
		if ip[i]&ifc.Netmask[i] != ifc.IP[i]&ifc.Netmask[i] {
			return false
		}
	}
	return true
}

// IsTrunkMemberOf reports whether ifc carries tagged traffic for vid.
func (ifc *Interface) IsTrunkMemberOf(vid uint16) bool {
	return ifc.TaggedVLANs[vid]
}

// IsAccessMemberOf reports whether ifc is the untagged port for vid.
func (ifc *Interface) IsAccessMemberOf(vid uint16) bool {
	return ifc.UntaggedVLAN != nil && *ifc.UntaggedVLAN == vid
}
