package switchengine

/*
	Copyright 2023 Canonical Ltd.  This software is licensed under the
	GNU Affero General Public License version 3 (see the file LICENSE).
*/

// Package switchengine implements the learning-bridge data plane of
// spec.md §4.2: a bounded MAC table and a five-step forward/flood policy.
import (
	"github.com/rs/zerolog"

	"github.com/canonical/netdevlab/internal/device"
	"github.com/canonical/netdevlab/internal/ethernet"
	"github.com/canonical/netdevlab/internal/metrics"
)

// Emit sends frame out on the given interface number.
type Emit func(ifcNum uint16, frame []byte)

// Engine is a learning-bridge instance bound to a Device.
type Engine struct {
	Device *device.Device
	log    zerolog.Logger
	m      *metrics.Registry
}

// New creates a switch engine over dev, whose MACTable must already be
// allocated with device.MACTableCapacity.
func New(dev *device.Device, log zerolog.Logger, m *metrics.Registry) *Engine {
	return &Engine{Device: dev, log: log, m: m}
}

// HandleFrame processes one frame received on ingress, applying spec.md
// §4.2's five rules in order, and calls emit once per outbound copy.
func (e *Engine) HandleFrame(ingress uint16, frame []byte, emit Emit) {
	if len(frame) < 14 {
		e.log.Debug().Uint16("ifc", ingress).Msg("dropping frame shorter than an Ethernet header")
		e.m.Frames.WithLabelValues("drop_short").Inc()
		return
	}

	var dst, src ethernet.MAC
	copy(dst[:], frame[0:6])
	copy(src[:], frame[6:12])

	if src == dst {
		e.log.Debug().Uint16("ifc", ingress).Msg("dropping frame with equal src/dst MAC")
		e.m.Frames.WithLabelValues("drop_src_eq_dst").Inc()
		return
	}
	if src.IsGroup() {
		e.log.Debug().Uint16("ifc", ingress).Str("src", src.String()).Msg("dropping frame with group source MAC")
		e.m.Frames.WithLabelValues("drop_group_src").Inc()
		return
	}

	e.Device.MACTable.Learn(0, src, ingress)
	e.m.MACTableSize.Set(float64(e.Device.MACTable.Size()))

	if port, ok := e.Device.MACTable.Lookup(0, dst); ok {
		if port == ingress {
			e.log.Debug().Uint16("ifc", ingress).Msg("dropping self-loopback forward")
			e.m.Frames.WithLabelValues("drop_loopback").Inc()
			return
		}
		emit(port, frame)
		e.m.Frames.WithLabelValues("forward").Inc()
		return
	}

	flooded := 0
	for _, ifc := range e.Device.Interfaces() {
		if ifc.Num == ingress {
			continue
		}
		emit(ifc.Num, frame)
		flooded++
	}
	if flooded > 0 {
		e.m.Frames.WithLabelValues("flood").Add(float64(flooded))
	}
}
