package arpengine

/*
	Copyright 2023 Canonical Ltd.  This software is licensed under the
	GNU Affero General Public License version 3 (see the file LICENSE).
*/

// Package arpengine implements the ARP cache and request/response state
// machine of spec.md §4.4: learning on every valid ARP packet, answering
// requests for an interface's own IP, and issuing queries on the `arp
// <ip> <iface>` command.
import (
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/canonical/netdevlab/internal/device"
	"github.com/canonical/netdevlab/internal/ethernet"
	"github.com/canonical/netdevlab/internal/metrics"
)

// Emit sends frame out on the given interface number.
type Emit func(ifcNum uint16, frame []byte)

// Engine is an ARP cache plus request/response state machine bound to a
// Device.
type Engine struct {
	Device *device.Device
	log    zerolog.Logger
	m      *metrics.Registry
}

// New creates an ARP engine over dev, whose ARPCache must already be
// allocated with the caller's desired capacity (device.RouterARPCacheCapacity
// or device.ToolARPCacheCapacity).
func New(dev *device.Device, log zerolog.Logger, m *metrics.Registry) *Engine {
	return &Engine{Device: dev, log: log, m: m}
}

// HandleFrame decodes raw as an Ethernet frame carrying an ARP packet and
// processes it. It is used by the standalone ARP tool binary; the router
// engine instead calls HandleARPPacket directly on a frame it has already
// decoded for EtherType dispatch.
func (e *Engine) HandleFrame(ingress uint16, raw []byte, emit Emit) {
	f, err := ethernet.DecodeFrame(raw)
	if err != nil {
		e.log.Debug().Uint16("ifc", ingress).Err(err).Msg("dropping malformed frame")
		return
	}
	e.HandleARPPacket(ingress, f, emit)
}

// HandleARPPacket processes an already-decoded Ethernet frame whose payload
// is an ARP packet, per spec.md §4.4.
func (e *Engine) HandleARPPacket(ingress uint16, f *ethernet.Frame, emit Emit) {
	pkt, err := ethernet.DecodeARP(f.Payload)
	if err != nil {
		e.log.Debug().Uint16("ifc", ingress).Msg("dropping non-conforming ARP packet")
		e.m.Frames.WithLabelValues("drop_malformed_arp").Inc()
		return
	}
	if f.Src != pkt.SHA {
		e.log.Debug().Uint16("ifc", ingress).Msg("dropping ARP packet with Ethernet/ARP sender mismatch")
		e.m.Frames.WithLabelValues("drop_arp_sha_mismatch").Inc()
		return
	}

	ifc := e.Device.Interface(ingress)

	if pkt.Oper == ethernet.ARPOperRequest && ifc.HasIP && pkt.TPA == ifc.IP {
		reply := &ethernet.ARPPacket{
			Oper: ethernet.ARPOperReply,
			SHA:  ifc.MAC,
			SPA:  ifc.IP,
			THA:  pkt.SHA,
			TPA:  pkt.SPA,
		}
		replyFrame := &ethernet.Frame{
			Dst:       pkt.SHA,
			Src:       ifc.MAC,
			EtherType: ethernet.EtherTypeARP,
			Payload:   reply.Encode(),
		}
		emit(ingress, replyFrame.Encode())
		e.m.Frames.WithLabelValues("arp_reply").Inc()
	}

	e.Device.ARPCache.Learn(device.ARPEntry{
		IP:      pkt.SPA,
		MAC:     pkt.SHA,
		IfcNum:  ingress,
		Netmask: ifc.Netmask,
		MTU:     ifc.MTU,
		Name:    ifc.Name,
	})
	e.m.ARPCacheSize.Set(float64(len(e.Device.ARPCache.All())))
}

// Resolve implements the `arp <ip> <iface>` command: print a cached MAC,
// or emit an ARP request if ip is on-link for iface.
func (e *Engine) Resolve(ip ethernet.IPv4Addr, iface string, out io.Writer, emit Emit) error {
	ifc, ok := e.Device.InterfaceByName(iface)
	if !ok {
		return fmt.Errorf("unknown interface %q", iface)
	}

	if entry, ok := e.Device.ARPCache.LookupOnInterface(ip, ifc.Num); ok {
		fmt.Fprintf(out, "%s\n", entry.MAC)
		return nil
	}

	if !ifc.NetworkMatches(ip) {
		e.log.Debug().Str("ip", ipString(ip)).Str("iface", iface).Msg("query IP not on interface's subnet, ignoring")
		return nil
	}

	request := &ethernet.ARPPacket{
		Oper: ethernet.ARPOperRequest,
		SHA:  ifc.MAC,
		SPA:  ifc.IP,
		THA:  ethernet.Zero,
		TPA:  ip,
	}
	frame := &ethernet.Frame{
		Dst:       ethernet.Broadcast,
		Src:       ifc.MAC,
		EtherType: ethernet.EtherTypeARP,
		Payload:   request.Encode(),
	}
	emit(ifc.Num, frame.Encode())
	e.m.Frames.WithLabelValues("arp_request").Inc()
	return nil
}

// PrintCache implements the bare `arp` command: one line per cache entry as
// "<ip> -> <mac> (<iface-name>)".
func (e *Engine) PrintCache(out io.Writer) {
	for _, entry := range e.Device.ARPCache.All() {
		fmt.Fprintf(out, "%s -> %s (%s)\n", ipString(entry.IP), entry.MAC, entry.Name)
	}
}

func ipString(ip ethernet.IPv4Addr) string {
	return fmt.Sprintf("%d.%d.%d.%d", ip[0], ip[1], ip[2], ip[3])
}
