package router

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/canonical/netdevlab/internal/device"
	"github.com/canonical/netdevlab/internal/ethernet"
	"github.com/canonical/netdevlab/internal/logging"
	"github.com/canonical/netdevlab/internal/metrics"
)

func newTestDevice(t *testing.T) *device.Device {
	t.Helper()
	dev := device.New([]string{"eth0", "eth1"})
	dev.RouteTable = device.NewRouteTable()
	dev.ARPCache = device.NewARPCache(device.RouterARPCacheCapacity)

	eth0 := dev.Interface(1)
	eth0.MAC = ethernet.MAC{0x02, 0, 0, 0, 0, 1}
	eth0.IP = ethernet.IPv4Addr{10, 0, 0, 1}
	eth0.Netmask = ethernet.IPv4Addr{255, 255, 255, 0}
	eth0.HasIP = true

	eth1 := dev.Interface(2)
	eth1.MAC = ethernet.MAC{0x02, 0, 0, 0, 0, 2}
	eth1.IP = ethernet.IPv4Addr{10, 0, 0, 9}
	eth1.Netmask = ethernet.IPv4Addr{255, 255, 255, 0}
	eth1.HasIP = true

	require.NoError(t, dev.RouteTable.Add(device.RouteEntry{
		Network: ethernet.IPv4Addr{10, 0, 1, 0},
		Netmask: ethernet.IPv4Addr{255, 255, 255, 0},
		NextHop: ethernet.IPv4Addr{10, 0, 0, 5},
		IfcNum:  2,
	}))
	dev.ARPCache.Learn(device.ARPEntry{
		IP:     ethernet.IPv4Addr{10, 0, 0, 5},
		MAC:    ethernet.MAC{0xaa, 0xaa, 0xaa, 0xaa, 0xaa, 0xaa},
		IfcNum: 2,
		Name:   "eth1",
	})
	return dev
}

func inboundFrame(dst ethernet.IPv4Addr, ttl uint8, payload []byte) []byte {
	header := ethernet.IPv4Header{
		IHL:      5,
		TTL:      ttl,
		Protocol: 17,
		Src:      ethernet.IPv4Addr{10, 0, 0, 200},
		Dst:      dst,
	}
	ipv4 := header.Encode(payload)
	f := &ethernet.Frame{
		Dst:       ethernet.MAC{0x02, 0, 0, 0, 0, 1},
		Src:       ethernet.MAC{0x02, 0, 0, 0, 0, 0x99},
		EtherType: ethernet.EtherTypeIPv4,
		Payload:   ipv4,
	}
	return f.Encode()
}

// TestS6ForwardsWithTTLDecrement matches spec.md scenario S6: a directly
// routable packet is forwarded to the route's ARPed next-hop with TTL
// decremented and the checksum recomputed, payload untouched.
func TestS6ForwardsWithTTLDecrement(t *testing.T) {
	dev := newTestDevice(t)
	eng := New(dev, logging.New("router-test"), metrics.New("router-test-1"))

	payload := make([]byte, 100)
	for i := range payload {
		payload[i] = byte(i)
	}
	raw := inboundFrame(ethernet.IPv4Addr{10, 0, 1, 7}, 64, payload)

	var gotIfc uint16
	var gotFrame []byte
	eng.HandleFrame(1, raw, func(ifc uint16, f []byte) {
		gotIfc = ifc
		gotFrame = f
	})

	require.Equal(t, uint16(2), gotIfc)
	f, err := ethernet.DecodeFrame(gotFrame)
	require.NoError(t, err)
	require.Equal(t, ethernet.MAC{0xaa, 0xaa, 0xaa, 0xaa, 0xaa, 0xaa}, f.Dst)
	require.Equal(t, dev.Interface(2).MAC, f.Src)
	require.Equal(t, ethernet.EtherTypeIPv4, f.EtherType)

	pkt, err := ethernet.DecodeIPv4(f.Payload)
	require.NoError(t, err)
	require.Equal(t, uint8(63), pkt.Header.TTL)
	require.Equal(t, payload, pkt.Payload)
	require.True(t, pkt.Header.VerifyChecksum(f.Payload[:pkt.Header.HeaderLen()]))
}

// TestS7Fragments matches spec.md scenario S7: the same route, but eth1's
// configured IP MTU of 600 is too small for the 1000-byte payload and DF is
// clear, so the packet is split into two fragments whose payloads
// concatenate back to the original and whose offsets/MF flags follow the
// round-down-to-8 rule.
func TestS7Fragments(t *testing.T) {
	dev := newTestDevice(t)
	require.NoError(t, dev.Interface(2).SetMTU(600))
	eng := New(dev, logging.New("router-test"), metrics.New("router-test-2"))

	payload := make([]byte, 1000)
	for i := range payload {
		payload[i] = byte(i % 251)
	}
	raw := inboundFrame(ethernet.IPv4Addr{10, 0, 1, 7}, 64, payload)

	var frames [][]byte
	eng.HandleFrame(1, raw, func(ifc uint16, f []byte) {
		require.Equal(t, uint16(2), ifc)
		frames = append(frames, f)
	})
	require.Len(t, frames, 2)

	first, err := ethernet.DecodeFrame(frames[0])
	require.NoError(t, err)
	firstPkt, err := ethernet.DecodeIPv4(first.Payload)
	require.NoError(t, err)
	require.True(t, firstPkt.Header.MF)
	require.Equal(t, uint16(0), firstPkt.Header.FragOffset)
	require.Len(t, firstPkt.Payload, 576)
	require.True(t, firstPkt.Header.VerifyChecksum(first.Payload[:firstPkt.Header.HeaderLen()]))

	second, err := ethernet.DecodeFrame(frames[1])
	require.NoError(t, err)
	secondPkt, err := ethernet.DecodeIPv4(second.Payload)
	require.NoError(t, err)
	require.False(t, secondPkt.Header.MF)
	require.Equal(t, uint16(72), secondPkt.Header.FragOffset)
	require.Len(t, secondPkt.Payload, 424)

	require.Equal(t, payload, append(append([]byte{}, firstPkt.Payload...), secondPkt.Payload...))
}

func TestDropsOnTTLExpiry(t *testing.T) {
	dev := newTestDevice(t)
	eng := New(dev, logging.New("router-test"), metrics.New("router-test-3"))

	raw := inboundFrame(ethernet.IPv4Addr{10, 0, 1, 7}, 1, []byte{1, 2, 3})

	var emitted bool
	eng.HandleFrame(1, raw, func(uint16, []byte) { emitted = true })
	require.False(t, emitted)
}

func TestNoRouteSendsICMPNetUnreachable(t *testing.T) {
	dev := newTestDevice(t)
	eng := New(dev, logging.New("router-test"), metrics.New("router-test-4"))

	raw := inboundFrame(ethernet.IPv4Addr{192, 168, 9, 9}, 64, []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10})

	var gotIfc uint16
	var gotFrame []byte
	eng.HandleFrame(1, raw, func(ifc uint16, f []byte) {
		gotIfc = ifc
		gotFrame = f
	})
	require.Equal(t, uint16(1), gotIfc)

	f, err := ethernet.DecodeFrame(gotFrame)
	require.NoError(t, err)
	pkt, err := ethernet.DecodeIPv4(f.Payload)
	require.NoError(t, err)
	require.Equal(t, dev.Interface(1).IP, pkt.Header.Src)
	require.Equal(t, ethernet.IPv4Addr{10, 0, 0, 200}, pkt.Header.Dst)

	icmp, err := ethernet.DecodeICMP(pkt.Payload)
	require.NoError(t, err)
	require.Equal(t, ethernet.ICMPTypeDestUnreachable, icmp.Type)
	require.Equal(t, ethernet.ICMPCodeNetUnreachable, icmp.Code)
}

func TestARPMissTriggersRequestAndDrop(t *testing.T) {
	dev := newTestDevice(t)
	eng := New(dev, logging.New("router-test"), metrics.New("router-test-5"))

	// Route to a next-hop with no ARP cache entry.
	require.NoError(t, dev.RouteTable.Add(device.RouteEntry{
		Network: ethernet.IPv4Addr{10, 0, 2, 0},
		Netmask: ethernet.IPv4Addr{255, 255, 255, 0},
		NextHop: ethernet.IPv4Addr{10, 0, 0, 6},
		IfcNum:  2,
	}))
	raw := inboundFrame(ethernet.IPv4Addr{10, 0, 2, 7}, 64, []byte{1, 2, 3})

	var gotIfc uint16
	var gotFrame []byte
	eng.HandleFrame(1, raw, func(ifc uint16, f []byte) {
		gotIfc = ifc
		gotFrame = f
	})
	require.Equal(t, uint16(2), gotIfc)

	f, err := ethernet.DecodeFrame(gotFrame)
	require.NoError(t, err)
	require.Equal(t, ethernet.Broadcast, f.Dst)
	arp, err := ethernet.DecodeARP(f.Payload)
	require.NoError(t, err)
	require.Equal(t, ethernet.ARPOperRequest, arp.Oper)
	require.Equal(t, ethernet.IPv4Addr{10, 0, 0, 6}, arp.TPA)
}

func TestRouteCommands(t *testing.T) {
	dev := newTestDevice(t)
	eng := New(dev, logging.New("router-test"), metrics.New("router-test-6"))

	require.NoError(t, eng.AddRoute(
		ethernet.IPv4Addr{172, 16, 0, 0}, ethernet.IPv4Addr{255, 255, 0, 0},
		ethernet.IPv4Addr{}, "eth0",
	))
	require.Len(t, dev.RouteTable.All(), 2)

	require.NoError(t, eng.DelRoute(ethernet.IPv4Addr{172, 16, 0, 0}, ethernet.IPv4Addr{255, 255, 0, 0}, ethernet.IPv4Addr{}, "eth0"))
	require.Len(t, dev.RouteTable.All(), 1)

	// Deleting again is a silent no-op.
	require.NoError(t, eng.DelRoute(ethernet.IPv4Addr{172, 16, 0, 0}, ethernet.IPv4Addr{255, 255, 0, 0}, ethernet.IPv4Addr{}, "eth0"))
	require.Len(t, dev.RouteTable.All(), 1)
}
