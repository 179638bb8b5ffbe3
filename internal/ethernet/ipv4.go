package ethernet

/*
	Copyright 2023 Canonical Ltd.  This software is licensed under the
	GNU Affero General Public License version 3 (see the file LICENSE).
*/

import (
	"encoding/binary"
	"errors"
)

// IP protocol numbers used by this codec.
const (
	ProtoICMP uint8 = 1
)

const (
	ipv4MinHeaderLen = 20
	ipv4Version      = 4
	flagDF           = 1 << 1
	flagMF           = 1 << 0
)

// ErrMalformedIPv4 is returned when a buffer cannot be parsed as a valid
// IPv4 header.
var ErrMalformedIPv4 = errors.New("malformed IPv4 header")

// IPv4Header is a decoded IPv4 header (RFC 791), options tolerated but not
// interpreted.
type IPv4Header struct {
	IHL            uint8 // header length in 32-bit words, >= 5
	DSCP           uint8
	TotalLength    uint16
	Identification uint16
	DF             bool
	MF             bool
	FragOffset     uint16 // in 8-byte units
	TTL            uint8
	Protocol       uint8
	Checksum       uint16
	Src            IPv4Addr
	Dst            IPv4Addr
	Options        []byte
}

// HeaderLen returns the header length in bytes (IHL*4).
func (h *IPv4Header) HeaderLen() int {
	return int(h.IHL) * 4
}

func (h *IPv4Header) flagsAndOffset() uint16 {
	var f uint16
	if h.DF {
		f |= flagDF
	}
	if h.MF {
		f |= flagMF
	}
	return (f << 13) | (h.FragOffset & 0x1fff)
}

func decodeFlagsAndOffset(h *IPv4Header, v uint16) {
	h.DF = v&(flagDF<<13) != 0
	h.MF = v&(flagMF<<13) != 0
	h.FragOffset = v & 0x1fff
}

// IPv4Packet is a decoded IPv4 header plus the payload it carries.
type IPv4Packet struct {
	Header  IPv4Header
	Payload []byte
}

// DecodeIPv4 parses buf as an IPv4 packet. It rejects a header with IHL < 5
// and a total_length larger than len(buf) (or smaller than the header);
// trailing bytes beyond TotalLength (Ethernet padding) are not included in
// Payload.
func DecodeIPv4(buf []byte) (*IPv4Packet, error) {
	if len(buf) < ipv4MinHeaderLen {
		return nil, ErrMalformedIPv4
	}
	version := buf[0] >> 4
	ihl := buf[0] & 0x0f
	if version != ipv4Version || ihl < 5 {
		return nil, ErrMalformedIPv4
	}
	headerLen := int(ihl) * 4
	if len(buf) < headerLen {
		return nil, ErrMalformedIPv4
	}
	totalLength := binary.BigEndian.Uint16(buf[2:4])
	if int(totalLength) > len(buf) || int(totalLength) < headerLen {
		return nil, ErrMalformedIPv4
	}

	h := IPv4Header{
		IHL:            ihl,
		DSCP:           buf[1],
		TotalLength:    totalLength,
		Identification: binary.BigEndian.Uint16(buf[4:6]),
		TTL:            buf[8],
		Protocol:       buf[9],
		Checksum:       binary.BigEndian.Uint16(buf[10:12]),
	}
	decodeFlagsAndOffset(&h, binary.BigEndian.Uint16(buf[6:8]))
	copy(h.Src[:], buf[12:16])
	copy(h.Dst[:], buf[16:20])
	if headerLen > ipv4MinHeaderLen {
		h.Options = append([]byte(nil), buf[ipv4MinHeaderLen:headerLen]...)
	}

	return &IPv4Packet{
		Header:  h,
		Payload: buf[headerLen:totalLength],
	}, nil
}

// Encode serializes the header and payload into wire bytes, recomputing
// TotalLength and Checksum. The header's own TotalLength field is
// overwritten with HeaderLen()+len(payload).
func (h *IPv4Header) Encode(payload []byte) []byte {
	headerLen := h.HeaderLen()
	total := headerLen + len(payload)
	b := make([]byte, total)

	b[0] = (ipv4Version << 4) | (h.IHL & 0x0f)
	b[1] = h.DSCP
	binary.BigEndian.PutUint16(b[2:4], uint16(total))
	binary.BigEndian.PutUint16(b[4:6], h.Identification)
	binary.BigEndian.PutUint16(b[6:8], h.flagsAndOffset())
	b[8] = h.TTL
	b[9] = h.Protocol
	binary.BigEndian.PutUint16(b[10:12], 0)
	copy(b[12:16], h.Src[:])
	copy(b[16:20], h.Dst[:])
	if len(h.Options) > 0 {
		copy(b[20:headerLen], h.Options)
	}

	cs := Checksum16(b[:headerLen])
	binary.BigEndian.PutUint16(b[10:12], cs)

	copy(b[headerLen:], payload)
	return b
}

// VerifyChecksum reports whether the header checksum (as decoded) is valid
// for the given raw header bytes (length HeaderLen()).
func (h *IPv4Header) VerifyChecksum(rawHeader []byte) bool {
	return Checksum16(rawHeader) == 0
}
