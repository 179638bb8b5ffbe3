package vswitch

/*
	Copyright 2023 Canonical Ltd.  This software is licensed under the
	GNU Affero General Public License version 3 (see the file LICENSE).
*/

// Package vswitch extends switchengine with IEEE 802.1Q ingress
// classification and egress tagging per spec.md §4.3.
import (
	"github.com/rs/zerolog"

	"github.com/canonical/netdevlab/internal/device"
	"github.com/canonical/netdevlab/internal/ethernet"
	"github.com/canonical/netdevlab/internal/metrics"
)

// Emit sends frame out on the given interface number.
type Emit func(ifcNum uint16, frame []byte)

// Engine is an 802.1Q-aware learning bridge bound to a Device.
type Engine struct {
	Device *device.Device
	log    zerolog.Logger
	m      *metrics.Registry
}

// New creates a vswitch engine over dev, whose MACTable must already be
// allocated with device.MACTableCapacity.
func New(dev *device.Device, log zerolog.Logger, m *metrics.Registry) *Engine {
	return &Engine{Device: dev, log: log, m: m}
}

// HandleFrame processes one frame received on ingress.
func (e *Engine) HandleFrame(ingress uint16, raw []byte, emit Emit) {
	f, err := ethernet.DecodeFrame(raw)
	if err != nil {
		e.log.Debug().Uint16("ifc", ingress).Err(err).Msg("dropping malformed frame")
		e.m.Frames.WithLabelValues("drop_malformed").Inc()
		return
	}
	if f.Src == f.Dst {
		e.log.Debug().Uint16("ifc", ingress).Msg("dropping frame with equal src/dst MAC")
		e.m.Frames.WithLabelValues("drop_src_eq_dst").Inc()
		return
	}
	if f.Src.IsGroup() {
		e.log.Debug().Uint16("ifc", ingress).Msg("dropping frame with group source MAC")
		e.m.Frames.WithLabelValues("drop_group_src").Inc()
		return
	}

	ifc := e.Device.Interface(ingress)

	var vid uint16
	if f.VLAN != nil {
		vid = f.VLAN.VID
		if !ifc.IsTrunkMemberOf(vid) {
			e.log.Debug().Uint16("ifc", ingress).Uint16("vlan", vid).Msg("dropping tagged frame for non-member VLAN")
			e.m.Frames.WithLabelValues("drop_vlan_not_member").Inc()
			return
		}
	} else {
		if ifc.UntaggedVLAN == nil {
			e.log.Debug().Uint16("ifc", ingress).Msg("dropping untagged frame on port with no access VLAN")
			e.m.Frames.WithLabelValues("drop_no_access_vlan").Inc()
			return
		}
		vid = *ifc.UntaggedVLAN
	}

	e.Device.MACTable.Learn(vid, f.Src, ingress)
	e.m.MACTableSize.Set(float64(e.Device.MACTable.Size()))

	if port, ok := e.Device.MACTable.Lookup(vid, f.Dst); ok {
		if port == ingress {
			e.log.Debug().Uint16("ifc", ingress).Msg("dropping self-loopback forward")
			e.m.Frames.WithLabelValues("drop_loopback").Inc()
			return
		}
		if out := e.encapsulate(f, vid, e.Device.Interface(port)); out != nil {
			emit(port, out)
			e.m.Frames.WithLabelValues("forward").Inc()
		}
		return
	}

	flooded := 0
	for _, other := range e.Device.Interfaces() {
		if other.Num == ingress {
			continue
		}
		out := e.encapsulate(f, vid, other)
		if out == nil {
			continue
		}
		emit(other.Num, out)
		flooded++
	}
	if flooded > 0 {
		e.m.Frames.WithLabelValues("flood").Add(float64(flooded))
	}
}

// encapsulate builds the frame to emit on port P for internal VLAN vid, per
// spec.md §4.3's egress rules, or returns nil if P is not a member of vid.
func (e *Engine) encapsulate(f *ethernet.Frame, vid uint16, port *device.Interface) []byte {
	switch {
	case port.IsAccessMemberOf(vid):
		return f.WithoutVLAN(f.EtherType, f.Payload).Encode()
	case port.IsTrunkMemberOf(vid):
		return f.WithVLAN(vid, f.EtherType, f.Payload).Encode()
	default:
		return nil
	}
}
