package cliconfig

/*
	Copyright 2023 Canonical Ltd.  This software is licensed under the
	GNU Affero General Public License version 3 (see the file LICENSE).
*/

import (
	"fmt"

	"github.com/canonical/netdevlab/internal/device"
)

// Names extracts just the interface names from a list of parsed specs, in
// order, for device.New.
func Names(specs []Spec) []string {
	names := make([]string, len(specs))
	for i, s := range specs {
		names[i] = s.Name
	}
	return names
}

// ApplyVLAN configures ifc's VLAN membership from s. Used by the vswitch
// binary.
func ApplyVLAN(ifc *device.Interface, s Spec) error {
	if s.UntaggedVLAN != nil {
		vid := *s.UntaggedVLAN
		ifc.UntaggedVLAN = &vid
	}
	for _, vid := range s.TaggedVLANs {
		ifc.TaggedVLANs[vid] = true
	}
	return nil
}

// ApplyIPv4 configures ifc's IPv4 address, netmask and MTU from s. Used by
// the ARP tool and router binaries.
func ApplyIPv4(ifc *device.Interface, s Spec) error {
	if !s.HasIP {
		return fmt.Errorf("interface %s: missing required [IPV4:ip/prefixlen]", ifc.Name)
	}
	ifc.IP = s.IP
	ifc.Netmask = s.Netmask
	ifc.HasIP = true
	if s.HasIPMTU {
		if err := ifc.SetMTU(s.IPMTU); err != nil {
			return err
		}
	}
	return nil
}
