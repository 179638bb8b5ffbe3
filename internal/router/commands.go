package router

/*
	Copyright 2023 Canonical Ltd.  This software is licensed under the
	GNU Affero General Public License version 3 (see the file LICENSE).
*/

import (
	"fmt"
	"io"

	"github.com/canonical/netdevlab/internal/device"
	"github.com/canonical/netdevlab/internal/ethernet"
)

// AddRoute implements `route add <network>/<netmask> via <next-hop> dev
// <iface>`. nextHop is the zero address for an on-link route.
func (e *Engine) AddRoute(network, netmask, nextHop ethernet.IPv4Addr, iface string) error {
	ifc, ok := e.Device.InterfaceByName(iface)
	if !ok {
		return fmt.Errorf("unknown interface %q", iface)
	}
	if err := e.Device.RouteTable.Add(device.RouteEntry{
		Network: network,
		Netmask: netmask,
		NextHop: nextHop,
		IfcNum:  ifc.Num,
	}); err != nil {
		return err
	}
	e.m.RoutesTotal.Set(float64(len(e.Device.RouteTable.All())))
	return nil
}

// DelRoute implements `route del <network>/<netmask> via <next-hop> dev
// <iface>`. It is a silent no-op if no matching route exists, matching
// spec.md's stated "ignore" behavior.
func (e *Engine) DelRoute(network, netmask, nextHop ethernet.IPv4Addr, iface string) error {
	ifc, ok := e.Device.InterfaceByName(iface)
	if !ok {
		return fmt.Errorf("unknown interface %q", iface)
	}
	e.Device.RouteTable.Remove(network, netmask, nextHop, ifc.Num)
	e.m.RoutesTotal.Set(float64(len(e.Device.RouteTable.All())))
	return nil
}

// PrintRoutes implements `route list`: one line per entry as
// "<network>/<netmask> -> <next-hop> (<iface>)", with next-hop printed as
// 0.0.0.0 for on-link routes.
func (e *Engine) PrintRoutes(out io.Writer) {
	for _, r := range e.Device.RouteTable.All() {
		ifc := e.Device.Interface(r.IfcNum)
		fmt.Fprintf(out, "%s/%s -> %s (%s)\n", ipString(r.Network), ipString(r.Netmask), ipString(r.NextHop), ifc.Name)
	}
}

func ipString(ip ethernet.IPv4Addr) string {
	return fmt.Sprintf("%d.%d.%d.%d", ip[0], ip[1], ip[2], ip[3])
}
