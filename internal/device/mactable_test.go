package device

import (
	"testing"

	"github.com/canonical/netdevlab/internal/ethernet"
	"github.com/stretchr/testify/require"
)

func mac(n byte) ethernet.MAC {
	return ethernet.MAC{0x02, 0, 0, 0, 0, n}
}

func TestMACTableLearnAndLookup(t *testing.T) {
	tbl := NewMACTable(3)
	tbl.Learn(0, mac(1), 5)

	got, ok := tbl.Lookup(0, mac(1))
	require.True(t, ok)
	require.Equal(t, uint16(5), got)

	_, ok = tbl.Lookup(0, mac(2))
	require.False(t, ok)
}

func TestMACTableUpdateInPlace(t *testing.T) {
	tbl := NewMACTable(3)
	tbl.Learn(0, mac(1), 1)
	tbl.Learn(0, mac(1), 2)
	require.Equal(t, 1, tbl.Size())

	got, ok := tbl.Lookup(0, mac(1))
	require.True(t, ok)
	require.Equal(t, uint16(2), got)
}

func TestMACTableOverwritesOldestOnOverflow(t *testing.T) {
	tbl := NewMACTable(2)
	tbl.Learn(0, mac(1), 1)
	tbl.Learn(0, mac(2), 2)
	tbl.Learn(0, mac(3), 3) // evicts mac(1), the oldest slot

	_, ok := tbl.Lookup(0, mac(1))
	require.False(t, ok)

	got, ok := tbl.Lookup(0, mac(2))
	require.True(t, ok)
	require.Equal(t, uint16(2), got)

	got, ok = tbl.Lookup(0, mac(3))
	require.True(t, ok)
	require.Equal(t, uint16(3), got)
}

func TestMACTableKeyedByVLAN(t *testing.T) {
	tbl := NewMACTable(4)
	tbl.Learn(10, mac(1), 1)
	tbl.Learn(20, mac(1), 2)

	got, ok := tbl.Lookup(10, mac(1))
	require.True(t, ok)
	require.Equal(t, uint16(1), got)

	got, ok = tbl.Lookup(20, mac(1))
	require.True(t, ok)
	require.Equal(t, uint16(2), got)
}
