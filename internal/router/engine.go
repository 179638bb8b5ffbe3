package router

/*
	Copyright 2023 Canonical Ltd.  This software is licensed under the
	GNU Affero General Public License version 3 (see the file LICENSE).
*/

// Package router implements IPv4 routing per spec.md §4.5: longest-prefix
// route lookup, TTL handling, ARP-based next-hop resolution, forwarding
// with fragmentation, and the ICMP error replies the original lacks (or
// leaves as dead code) for the no-route and needs-fragmentation-but-DF
// cases.
import (
	"github.com/rs/zerolog"

	"github.com/canonical/netdevlab/internal/arpengine"
	"github.com/canonical/netdevlab/internal/device"
	"github.com/canonical/netdevlab/internal/ethernet"
	"github.com/canonical/netdevlab/internal/metrics"
)

// Emit sends frame out on the given interface number.
type Emit func(ifcNum uint16, frame []byte)

// Engine is an IPv4 router bound to a Device, with an embedded ARP engine
// handling ARP traffic and next-hop resolution.
type Engine struct {
	Device *device.Device
	ARP    *arpengine.Engine
	log    zerolog.Logger
	m      *metrics.Registry
}

// New creates a router engine over dev, whose RouteTable and ARPCache must
// already be allocated (the latter with device.RouterARPCacheCapacity).
func New(dev *device.Device, log zerolog.Logger, m *metrics.Registry) *Engine {
	return &Engine{
		Device: dev,
		ARP:    arpengine.New(dev, log, m),
		log:    log,
		m:      m,
	}
}

// HandleFrame dispatches a frame received on ingress by EtherType: ARP to
// the embedded ARP engine, IPv4 to the routing path, anything else dropped.
func (e *Engine) HandleFrame(ingress uint16, raw []byte, emit Emit) {
	f, err := ethernet.DecodeFrame(raw)
	if err != nil {
		e.log.Debug().Uint16("ifc", ingress).Err(err).Msg("dropping malformed frame")
		e.m.Frames.WithLabelValues("drop_malformed").Inc()
		return
	}

	switch f.EtherType {
	case ethernet.EtherTypeARP:
		e.ARP.HandleARPPacket(ingress, f, arpengine.Emit(emit))
	case ethernet.EtherTypeIPv4:
		e.route(ingress, f, emit)
	default:
		e.log.Debug().Uint16("ifc", ingress).Uint16("ethertype", uint16(f.EtherType)).Msg("dropping unsupported ethertype")
		e.m.Frames.WithLabelValues("drop_unsupported_ethertype").Inc()
	}
}

// route implements spec.md §4.5's forwarding decision.
func (e *Engine) route(ingress uint16, f *ethernet.Frame, emit Emit) {
	ingressIfc := e.Device.Interface(ingress)

	pkt, err := ethernet.DecodeIPv4(f.Payload)
	if err != nil {
		e.log.Debug().Uint16("ifc", ingress).Err(err).Msg("dropping malformed IPv4 packet")
		e.m.Frames.WithLabelValues("drop_malformed_ipv4").Inc()
		return
	}

	route, ok := e.Device.RouteTable.Lookup(pkt.Header.Dst)
	if !ok {
		e.sendICMPError(ingressIfc, pkt.Header, f.Payload, ethernet.ICMPHeader{
			Type: ethernet.ICMPTypeDestUnreachable,
			Code: ethernet.ICMPCodeNetUnreachable,
		}, ingress, f.Src, emit)
		e.m.ICMPEmitted.WithLabelValues("net_unreachable").Inc()
		e.m.Frames.WithLabelValues("drop_no_route").Inc()
		return
	}

	newHeader := pkt.Header
	newHeader.TTL--
	if newHeader.TTL < 1 {
		e.log.Debug().Uint16("ifc", ingress).Msg("dropping packet with expired TTL")
		e.m.Frames.WithLabelValues("drop_ttl_expired").Inc()
		return
	}

	egressIfc := e.Device.Interface(route.IfcNum)

	nextHop := pkt.Header.Dst
	if !route.IsOnLink() {
		nextHop = route.NextHop
	}

	nextHopMAC, ok := e.Device.ARPCache.LookupOnInterface(nextHop, egressIfc.Num)
	if !ok {
		e.requestARP(egressIfc, nextHop, emit)
		e.m.Frames.WithLabelValues("drop_arp_miss").Inc()
		return
	}

	ipMTU := int(egressIfc.MTU) - device.EthernetHeaderLen
	if int(newHeader.TotalLength) <= ipMTU {
		out := newHeader.Encode(pkt.Payload)
		e.emitIPv4(egressIfc, nextHopMAC.MAC, out, emit)
		e.m.Frames.WithLabelValues("forward").Inc()
		return
	}

	if newHeader.DF {
		e.sendICMPError(ingressIfc, pkt.Header, f.Payload, ethernet.NextHopMTUHeader(uint16(ipMTU)), ingress, f.Src, emit)
		e.m.ICMPEmitted.WithLabelValues("frag_needed").Inc()
		e.m.Frames.WithLabelValues("drop_needs_frag_df_set").Inc()
		return
	}

	headerLen := newHeader.HeaderLen()
	fragMTU := ipMTU - headerLen
	fragments := fragment(newHeader, pkt.Payload, fragMTU)
	for _, fragBytes := range fragments {
		e.emitIPv4(egressIfc, nextHopMAC.MAC, fragBytes, emit)
	}
	e.m.Fragments.Add(float64(len(fragments)))
	e.m.Frames.WithLabelValues("forward_fragmented").Inc()
}

// emitIPv4 wraps an already-encoded IPv4 packet in an Ethernet frame
// addressed to dstMAC and sends it out ifc.
func (e *Engine) emitIPv4(ifc *device.Interface, dstMAC ethernet.MAC, ipv4 []byte, emit Emit) {
	frame := &ethernet.Frame{
		Dst:       dstMAC,
		Src:       ifc.MAC,
		EtherType: ethernet.EtherTypeIPv4,
		Payload:   ipv4,
	}
	emit(ifc.Num, frame.Encode())
}

// requestARP emits a broadcast ARP request for target out ifc, driving
// resolution of a miss found during forwarding.
func (e *Engine) requestARP(ifc *device.Interface, target ethernet.IPv4Addr, emit Emit) {
	req := &ethernet.ARPPacket{
		Oper: ethernet.ARPOperRequest,
		SHA:  ifc.MAC,
		SPA:  ifc.IP,
		THA:  ethernet.Zero,
		TPA:  target,
	}
	frame := &ethernet.Frame{
		Dst:       ethernet.Broadcast,
		Src:       ifc.MAC,
		EtherType: ethernet.EtherTypeARP,
		Payload:   req.Encode(),
	}
	emit(ifc.Num, frame.Encode())
	e.m.Frames.WithLabelValues("arp_request").Inc()
}

// sendICMPError builds and emits an ICMP error back towards the original
// sender, out the interface the original packet arrived on.
func (e *Engine) sendICMPError(origin *device.Interface, origHeader ethernet.IPv4Header, origRaw []byte, icmp ethernet.ICMPHeader, ingress uint16, senderMAC ethernet.MAC, emit Emit) {
	ipv4 := buildICMPError(origin, origHeader, origRaw, icmp)
	e.emitIPv4(origin, senderMAC, ipv4, emit)
}
