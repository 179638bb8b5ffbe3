package ethernet

/*
	Copyright 2023 Canonical Ltd.  This software is licensed under the
	GNU Affero General Public License version 3 (see the file LICENSE).
*/

import (
	"encoding/binary"
	"errors"
)

const arpLen = 28

// ARP operation codes.
const (
	ARPOperRequest uint16 = 1
	ARPOperReply   uint16 = 2
)

// Fixed fields required of every ARP-over-Ethernet-IPv4 packet this codec
// accepts; any other combination is dropped, per spec.
const (
	arpHType uint16 = 1
	arpPType uint16 = 0x0800
	arpHLen  uint8  = 6
	arpPLen  uint8  = 4
)

// ErrNotARPoE is returned when a packet's fixed fields do not match
// Ethernet-ARP-over-IPv4 and must be dropped silently.
var ErrNotARPoE = errors.New("not an ARP-over-Ethernet-IPv4 packet")

// IPv4Addr is a 4-byte IPv4 address in network byte order.
type IPv4Addr [4]byte

// ARPPacket is a decoded ARP-over-Ethernet-IPv4 packet (RFC 826).
type ARPPacket struct {
	Oper uint16
	SHA  MAC
	SPA  IPv4Addr
	THA  MAC
	TPA  IPv4Addr
}

// DecodeARP parses buf as an ARP-over-Ethernet-IPv4 packet. Any other
// combination of htype/ptype/hlen/plen, or a short buffer, returns
// ErrNotARPoE and the caller must drop the packet silently.
func DecodeARP(buf []byte) (*ARPPacket, error) {
	if len(buf) < arpLen {
		return nil, ErrNotARPoE
	}
	htype := binary.BigEndian.Uint16(buf[0:2])
	ptype := binary.BigEndian.Uint16(buf[2:4])
	hlen := buf[4]
	plen := buf[5]
	if htype != arpHType || ptype != arpPType || hlen != arpHLen || plen != arpPLen {
		return nil, ErrNotARPoE
	}
	oper := binary.BigEndian.Uint16(buf[6:8])
	if oper != ARPOperRequest && oper != ARPOperReply {
		return nil, ErrNotARPoE
	}
	p := &ARPPacket{Oper: oper}
	copy(p.SHA[:], buf[8:14])
	copy(p.SPA[:], buf[14:18])
	copy(p.THA[:], buf[18:24])
	copy(p.TPA[:], buf[24:28])
	return p, nil
}

// Encode serializes the ARP packet into its 28-byte wire form.
func (p *ARPPacket) Encode() []byte {
	b := make([]byte, arpLen)
	binary.BigEndian.PutUint16(b[0:2], arpHType)
	binary.BigEndian.PutUint16(b[2:4], arpPType)
	b[4] = arpHLen
	b[5] = arpPLen
	binary.BigEndian.PutUint16(b[6:8], p.Oper)
	copy(b[8:14], p.SHA[:])
	copy(b[14:18], p.SPA[:])
	copy(b[18:24], p.THA[:])
	copy(b[24:28], p.TPA[:])
	return b
}
