package cliconfig

import (
	"testing"

	"github.com/canonical/netdevlab/internal/ethernet"
	"github.com/stretchr/testify/require"
)

func TestParsePlainName(t *testing.T) {
	s, err := Parse("eth0")
	require.NoError(t, err)
	require.Equal(t, "eth0", s.Name)
	require.False(t, s.HasIP)
}

func TestParseUntaggedVLAN(t *testing.T) {
	s, err := Parse("eth0[U:10]")
	require.NoError(t, err)
	require.NotNil(t, s.UntaggedVLAN)
	require.Equal(t, uint16(10), *s.UntaggedVLAN)
}

func TestParseTaggedVLANList(t *testing.T) {
	s, err := Parse("eth0[T:10,20,30]")
	require.NoError(t, err)
	require.Equal(t, []uint16{10, 20, 30}, s.TaggedVLANs)
}

func TestParseHybridVLAN(t *testing.T) {
	s, err := Parse("eth0[U:5,T:10,20]")
	require.NoError(t, err)
	require.Equal(t, uint16(5), *s.UntaggedVLAN)
	require.Equal(t, []uint16{10, 20}, s.TaggedVLANs)
}

func TestParseIPv4AndMTU(t *testing.T) {
	s, err := Parse("eth0[IPV4:10.0.0.2/24]=600")
	require.NoError(t, err)
	require.True(t, s.HasIP)
	require.Equal(t, ethernet.IPv4Addr{10, 0, 0, 2}, s.IP)
	require.Equal(t, ethernet.IPv4Addr{255, 255, 255, 0}, s.Netmask)
	require.True(t, s.HasIPMTU)
	require.Equal(t, 600, s.IPMTU)
}

func TestParseRejectsBadMTU(t *testing.T) {
	_, err := Parse("eth0[IPV4:10.0.0.2/24]=notanumber")
	require.Error(t, err)
}

func TestParseRejectsUnterminatedBracket(t *testing.T) {
	_, err := Parse("eth0[IPV4:10.0.0.2/24")
	require.Error(t, err)
}

func TestParseRejectsBadPrefixLen(t *testing.T) {
	_, err := Parse("eth0[IPV4:10.0.0.2/33]")
	require.Error(t, err)
}
