package vswitch

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/canonical/netdevlab/internal/device"
	"github.com/canonical/netdevlab/internal/ethernet"
	"github.com/canonical/netdevlab/internal/logging"
	"github.com/canonical/netdevlab/internal/metrics"
)

func vid(v uint16) *uint16 { return &v }

func newTestDevice() *device.Device {
	dev := device.New([]string{"eth0", "eth1", "eth2"})
	dev.MACTable = device.NewMACTable(device.MACTableCapacity)
	dev.Interface(1).UntaggedVLAN = vid(10) // access VLAN 10
	dev.Interface(2).TaggedVLANs[10] = true // trunk carrying VLAN 10
	dev.Interface(2).TaggedVLANs[20] = true
	dev.Interface(3).UntaggedVLAN = vid(20) // access VLAN 20
	return dev
}

func accessFrame(dst, src ethernet.MAC) []byte {
	return (&ethernet.Frame{Dst: dst, Src: src, EtherType: 0x9999, Payload: []byte{1, 2, 3}}).Encode()
}

func TestUntaggedDropsWithoutAccessVLAN(t *testing.T) {
	dev := device.New([]string{"eth0", "eth1"})
	dev.MACTable = device.NewMACTable(device.MACTableCapacity)
	eng := New(dev, logging.New("vswitch-test"), metrics.New("vswitch-test-1"))

	var emitted []uint16
	eng.HandleFrame(1, accessFrame(ethernet.Broadcast, ethernet.MAC{2, 0, 0, 0, 0, 1}), func(ifc uint16, f []byte) {
		emitted = append(emitted, ifc)
	})
	require.Empty(t, emitted)
}

func TestTaggedDropsForNonMemberVLAN(t *testing.T) {
	dev := newTestDevice()
	eng := New(dev, logging.New("vswitch-test"), metrics.New("vswitch-test-2"))

	tagged := (&ethernet.Frame{
		Dst: ethernet.Broadcast, Src: ethernet.MAC{2, 0, 0, 0, 0, 1},
		VLAN: &ethernet.VLANTag{VID: 99}, EtherType: 0x9999, Payload: []byte{1},
	}).Encode()

	var emitted []uint16
	eng.HandleFrame(2, tagged, func(ifc uint16, f []byte) { emitted = append(emitted, ifc) })
	require.Empty(t, emitted)
}

func TestUntaggedAccessFloodsToTrunkTagged(t *testing.T) {
	dev := newTestDevice()
	eng := New(dev, logging.New("vswitch-test"), metrics.New("vswitch-test-3"))

	src := ethernet.MAC{2, 0, 0, 0, 0, 1}
	frame := accessFrame(ethernet.Broadcast, src)

	var emitted []uint16
	eng.HandleFrame(1, frame, func(ifc uint16, f []byte) {
		emitted = append(emitted, ifc)
		if ifc == 2 {
			decoded, err := ethernet.DecodeFrame(f)
			require.NoError(t, err)
			require.NotNil(t, decoded.VLAN)
			require.Equal(t, uint16(10), decoded.VLAN.VID)
		}
	})
	// eth1 (ifc2, VLAN10 trunk member) receives tagged; eth2 (ifc3, access
	// VLAN20) is not a VLAN10 member and does not receive the frame.
	require.ElementsMatch(t, []uint16{2}, emitted)
}

func TestVLANIsolatedLearningAndUnicast(t *testing.T) {
	dev := newTestDevice()
	eng := New(dev, logging.New("vswitch-test"), metrics.New("vswitch-test-4"))

	learned := ethernet.MAC{2, 0, 0, 0, 0, 9}
	// Learn `learned` on eth0 (ifc1, access VLAN10) via a flood.
	eng.HandleFrame(1, accessFrame(ethernet.Broadcast, learned), func(uint16, []byte) {})

	// eth1 (ifc2, trunk VLAN10) sends a VLAN10-tagged unicast to `learned`.
	unicast := (&ethernet.Frame{
		Dst: learned, Src: ethernet.MAC{2, 0, 0, 0, 0, 2},
		VLAN: &ethernet.VLANTag{VID: 10}, EtherType: 0x9999, Payload: []byte{7},
	}).Encode()

	var emitted []uint16
	eng.HandleFrame(2, unicast, func(ifc uint16, f []byte) {
		emitted = append(emitted, ifc)
		decoded, err := ethernet.DecodeFrame(f)
		require.NoError(t, err)
		require.Nil(t, decoded.VLAN) // eth0 is an access port: untagged on egress
	})
	require.Equal(t, []uint16{1}, emitted)
}
