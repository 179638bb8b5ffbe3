package device

import (
	"testing"

	"github.com/canonical/netdevlab/internal/ethernet"
	"github.com/stretchr/testify/require"
)

func ip(a, b, c, d byte) ethernet.IPv4Addr {
	return ethernet.IPv4Addr{a, b, c, d}
}

func TestARPCacheLearnAndLookup(t *testing.T) {
	c := NewARPCache(2)
	c.Learn(ARPEntry{IP: ip(10, 0, 0, 4), MAC: mac(1), IfcNum: 1, Name: "eth2"})

	entry, ok := c.Lookup(ip(10, 0, 0, 4))
	require.True(t, ok)
	require.Equal(t, "eth2", entry.Name)
}

func TestARPCacheUpdateInPlace(t *testing.T) {
	c := NewARPCache(2)
	c.Learn(ARPEntry{IP: ip(10, 0, 0, 4), MAC: mac(1), IfcNum: 1})
	c.Learn(ARPEntry{IP: ip(10, 0, 0, 4), MAC: mac(2), IfcNum: 1})

	entry, ok := c.Lookup(ip(10, 0, 0, 4))
	require.True(t, ok)
	require.Equal(t, mac(2), entry.MAC)
	require.Len(t, c.All(), 1)
}

func TestARPCacheEvictsOldest(t *testing.T) {
	c := NewARPCache(2)
	c.Learn(ARPEntry{IP: ip(1, 1, 1, 1), MAC: mac(1)})
	c.Learn(ARPEntry{IP: ip(2, 2, 2, 2), MAC: mac(2)})
	c.Learn(ARPEntry{IP: ip(3, 3, 3, 3), MAC: mac(3)})

	_, ok := c.Lookup(ip(1, 1, 1, 1))
	require.False(t, ok)
	_, ok = c.Lookup(ip(2, 2, 2, 2))
	require.True(t, ok)
	_, ok = c.Lookup(ip(3, 3, 3, 3))
	require.True(t, ok)
}

func TestARPCacheLookupOnInterface(t *testing.T) {
	c := NewARPCache(4)
	c.Learn(ARPEntry{IP: ip(10, 0, 0, 4), MAC: mac(1), IfcNum: 2})

	_, ok := c.LookupOnInterface(ip(10, 0, 0, 4), 3)
	require.False(t, ok)

	entry, ok := c.LookupOnInterface(ip(10, 0, 0, 4), 2)
	require.True(t, ok)
	require.Equal(t, uint16(2), entry.IfcNum)
}
