package device

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewDeviceDenseNumbering(t *testing.T) {
	d := New([]string{"eth0", "eth1", "eth2"})
	require.Len(t, d.Interfaces(), 3)
	require.Equal(t, uint16(1), d.Interface(1).Num)
	require.Equal(t, "eth1", d.Interface(2).Name)

	ifc, ok := d.InterfaceByName("eth2")
	require.True(t, ok)
	require.Equal(t, uint16(3), ifc.Num)
}

func TestDeviceInterfaceOutOfRangePanics(t *testing.T) {
	d := New([]string{"eth0"})
	require.Panics(t, func() { d.Interface(2) })
}

func TestDeviceSetInterfaceMAC(t *testing.T) {
	d := New([]string{"eth0"})
	d.SetInterfaceMAC(1, mac(9))
	require.Equal(t, mac(9), d.Interface(1).MAC)
}
