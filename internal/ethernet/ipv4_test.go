package ethernet

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIPv4RoundTripAndChecksum(t *testing.T) {
	h := IPv4Header{
		IHL:            5,
		TTL:            64,
		Protocol:       ProtoICMP,
		Identification: 0xbeef,
		Src:            IPv4Addr{10, 0, 0, 1},
		Dst:            IPv4Addr{10, 0, 1, 7},
	}
	payload := []byte("hello, router")
	wire := h.Encode(payload)

	got, err := DecodeIPv4(wire)
	require.NoError(t, err)
	require.Equal(t, payload, got.Payload)
	require.Equal(t, h.Src, got.Header.Src)
	require.Equal(t, h.Dst, got.Header.Dst)
	require.True(t, got.Header.VerifyChecksum(wire[:got.Header.HeaderLen()]))
}

func TestIPv4RejectsTotalLengthBeyondBuffer(t *testing.T) {
	h := IPv4Header{IHL: 5, TTL: 1, Protocol: ProtoICMP}
	wire := h.Encode([]byte{1, 2, 3})
	_, err := DecodeIPv4(wire[:len(wire)-1])
	require.ErrorIs(t, err, ErrMalformedIPv4)
}

func TestIPv4RejectsShortIHL(t *testing.T) {
	buf := make([]byte, 20)
	buf[0] = (4 << 4) | 4 // IHL=4, invalid
	_, err := DecodeIPv4(buf)
	require.ErrorIs(t, err, ErrMalformedIPv4)
}

func TestIPv4FlagsRoundTrip(t *testing.T) {
	h := IPv4Header{IHL: 5, TTL: 10, Protocol: ProtoICMP, DF: true, FragOffset: 185}
	wire := h.Encode(nil)
	got, err := DecodeIPv4(wire)
	require.NoError(t, err)
	require.True(t, got.Header.DF)
	require.False(t, got.Header.MF)
	require.Equal(t, uint16(185), got.Header.FragOffset)
}

func TestChecksum16Symmetry(t *testing.T) {
	data := []byte{0x45, 0x00, 0x00, 0x3c, 0x1c, 0x46, 0x40, 0x00, 0x40, 0x06, 0x00, 0x00, 0xac, 0x10, 0x0a, 0x63, 0xac, 0x10, 0x0a, 0x0c}
	cs := Checksum16(data)
	data[10] = byte(cs >> 8)
	data[11] = byte(cs)
	require.Equal(t, uint16(0), Checksum16(data))
}
