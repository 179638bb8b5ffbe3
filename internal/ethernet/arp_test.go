package ethernet

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestARPRoundTrip(t *testing.T) {
	p := &ARPPacket{
		Oper: ARPOperRequest,
		SHA:  MAC{0x02, 0, 0, 0, 0, 1},
		SPA:  IPv4Addr{10, 0, 0, 2},
		THA:  Zero,
		TPA:  IPv4Addr{10, 0, 0, 4},
	}
	got, err := DecodeARP(p.Encode())
	require.NoError(t, err)
	require.Equal(t, p, got)
}

func TestDecodeARPRejectsWrongFixedFields(t *testing.T) {
	p := &ARPPacket{Oper: ARPOperReply, SHA: Zero, SPA: IPv4Addr{1, 2, 3, 4}, THA: Zero, TPA: IPv4Addr{5, 6, 7, 8}}
	buf := p.Encode()
	buf[1] = 0x06 // corrupt ptype
	_, err := DecodeARP(buf)
	require.ErrorIs(t, err, ErrNotARPoE)
}

func TestDecodeARPTooShort(t *testing.T) {
	_, err := DecodeARP(make([]byte, 10))
	require.ErrorIs(t, err, ErrNotARPoE)
}
