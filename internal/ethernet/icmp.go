package ethernet

/*
	Copyright 2023 Canonical Ltd.  This software is licensed under the
	GNU Affero General Public License version 3 (see the file LICENSE).
*/

import (
	"encoding/binary"
	"errors"
)

const icmpHeaderLen = 8

// ICMP type/code combinations emitted by the router engine.
const (
	ICMPTypeDestUnreachable uint8 = 3
	ICMPCodeNetUnreachable  uint8 = 0
	ICMPCodeFragNeeded      uint8 = 4

	ICMPTypeTimeExceeded uint8 = 11
	ICMPCodeTTLExceeded  uint8 = 0
)

// ErrMalformedICMP is returned when a buffer is too short to hold an ICMP
// header.
var ErrMalformedICMP = errors.New("malformed ICMP header")

// ICMPHeader is a decoded ICMP header. Rest carries the type-specific
// 4-byte "rest of header" field; for Destination-Unreachable/Fragmentation-
// Needed, the low 16 bits hold the Next-Hop MTU.
type ICMPHeader struct {
	Type uint8
	Code uint8
	Rest [4]byte
}

// NextHopMTUHeader builds a type=3/code=4 (fragmentation needed) header
// carrying the given next-hop MTU.
func NextHopMTUHeader(mtu uint16) ICMPHeader {
	h := ICMPHeader{Type: ICMPTypeDestUnreachable, Code: ICMPCodeFragNeeded}
	binary.BigEndian.PutUint16(h.Rest[2:4], mtu)
	return h
}

// DecodeICMP parses the fixed 8-byte ICMP header from buf.
func DecodeICMP(buf []byte) (*ICMPHeader, error) {
	if len(buf) < icmpHeaderLen {
		return nil, ErrMalformedICMP
	}
	h := &ICMPHeader{Type: buf[0], Code: buf[1]}
	copy(h.Rest[:], buf[4:8])
	return h, nil
}

// Encode serializes the ICMP header and payload, computing the checksum
// over the header (with the checksum field zeroed) plus payload.
func (h *ICMPHeader) Encode(payload []byte) []byte {
	b := make([]byte, icmpHeaderLen+len(payload))
	b[0] = h.Type
	b[1] = h.Code
	binary.BigEndian.PutUint16(b[2:4], 0)
	copy(b[4:8], h.Rest[:])
	copy(b[icmpHeaderLen:], payload)

	cs := Checksum16(b)
	binary.BigEndian.PutUint16(b[2:4], cs)
	return b
}
