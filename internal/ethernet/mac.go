package ethernet

/*
	Copyright 2023 Canonical Ltd.  This software is licensed under the
	GNU Affero General Public License version 3 (see the file LICENSE).
*/

import (
	"errors"
	"fmt"
)

// ErrMalformedMAC is returned when a string does not parse as a MAC address.
var ErrMalformedMAC = errors.New("malformed MAC address")

// MAC is a 6-byte IEEE 802.3 hardware address.
type MAC [6]byte

// Broadcast is the all-ones MAC address.
var Broadcast = MAC{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}

// Zero is the all-zeros MAC address.
var Zero = MAC{}

// ParseMAC parses a colon-separated MAC address such as "aa:bb:cc:dd:ee:ff".
func ParseMAC(s string) (MAC, error) {
	var m MAC
	if len(s) != 17 {
		return m, ErrMalformedMAC
	}
	n, err := fmt.Sscanf(s, "%02x:%02x:%02x:%02x:%02x:%02x",
		&m[0], &m[1], &m[2], &m[3], &m[4], &m[5])
	if err != nil || n != 6 {
		return m, ErrMalformedMAC
	}
	return m, nil
}

// String renders the address as "aa:bb:cc:dd:ee:ff".
func (m MAC) String() string {
	return fmt.Sprintf("%02x:%02x:%02x:%02x:%02x:%02x", m[0], m[1], m[2], m[3], m[4], m[5])
}

// IsBroadcast reports whether m is the all-ones address.
func (m MAC) IsBroadcast() bool {
	return m == Broadcast
}

// IsZero reports whether m is the all-zeros address.
func (m MAC) IsZero() bool {
	return m == Zero
}

// IsGroup reports whether the low bit of the first octet is set, marking m
// as a broadcast or multicast address. A group address must never appear as
// a frame's source.
func (m MAC) IsGroup() bool {
	return m[0]&0x01 != 0
}
