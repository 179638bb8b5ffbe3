package ethernet

/*
	Copyright 2023 Canonical Ltd.  This software is licensed under the
	GNU Affero General Public License version 3 (see the file LICENSE).
*/

import (
	"encoding/binary"
	"errors"
)

const (
	minFrameLen = 14
	macLen      = 6
	vlanTagLen  = 4
)

// EtherType identifies the payload carried by a Frame.
type EtherType uint16

// EtherType values understood by the codec.
const (
	EtherTypeIPv4 EtherType = 0x0800
	EtherTypeARP  EtherType = 0x0806
	EtherTypeVLAN EtherType = 0x8100
)

// TPID is the tag protocol identifier for an 802.1Q tag.
const TPID uint16 = 0x8100

// ErrMalformedFrame is returned when a byte slice is too short to hold a
// valid Ethernet frame.
var ErrMalformedFrame = errors.New("malformed ethernet frame")

// ErrMalformedVLAN is returned when an 802.1Q tag cannot be parsed.
var ErrMalformedVLAN = errors.New("malformed VLAN tag")

// VLANTag is an IEEE 802.1Q tag.
type VLANTag struct {
	// PCP is the 3-bit priority code point.
	PCP uint8
	// DEI is the drop-eligible-indicator bit.
	DEI bool
	// VID is the 12-bit VLAN identifier, 0..4094 are valid member IDs.
	VID uint16
}

func decodeVLANTag(buf []byte) (*VLANTag, error) {
	if len(buf) < vlanTagLen {
		return nil, ErrMalformedVLAN
	}
	tci := binary.BigEndian.Uint16(buf[0:2])
	return &VLANTag{
		PCP: uint8(tci >> 13),
		DEI: tci&0x1000 != 0,
		VID: tci & 0x0fff,
	}, nil
}

func (v *VLANTag) encodeTCI() uint16 {
	tci := (uint16(v.PCP) << 13) & 0xe000
	if v.DEI {
		tci |= 0x1000
	}
	tci |= v.VID & 0x0fff
	return tci
}

// Frame is a decoded Ethernet II frame, with at most one optional 802.1Q
// tag stripped out into VLAN.
type Frame struct {
	Dst MAC
	Src MAC

	// VLAN is non-nil if the frame carried exactly one 802.1Q tag.
	VLAN *VLANTag

	// EtherType is the type of Payload: the tag's own EtherType field if
	// VLAN is set, otherwise the frame's own EtherType.
	EtherType EtherType

	Payload []byte
}

// DecodeFrame parses an Ethernet II frame, stripping a single 802.1Q tag
// into Frame.VLAN if present.
func DecodeFrame(buf []byte) (*Frame, error) {
	if len(buf) < minFrameLen {
		return nil, ErrMalformedFrame
	}

	f := &Frame{}
	copy(f.Dst[:], buf[0:6])
	copy(f.Src[:], buf[6:12])

	etherType := binary.BigEndian.Uint16(buf[12:14])
	rest := buf[14:]

	if etherType == uint16(EtherTypeVLAN) {
		tag, err := decodeVLANTag(rest)
		if err != nil {
			return nil, err
		}
		if len(rest) < vlanTagLen {
			return nil, ErrMalformedFrame
		}
		f.VLAN = tag
		etherType = binary.BigEndian.Uint16(rest[2:4])
		rest = rest[vlanTagLen:]
	}

	f.EtherType = EtherType(etherType)
	f.Payload = rest
	return f, nil
}

// Encode serializes the Frame back into wire bytes, re-inserting the 802.1Q
// tag if VLAN is set.
func (f *Frame) Encode() []byte {
	size := 12 + 2 + len(f.Payload)
	if f.VLAN != nil {
		size += vlanTagLen
	}
	b := make([]byte, size)
	copy(b[0:6], f.Dst[:])
	copy(b[6:12], f.Src[:])

	off := 12
	if f.VLAN != nil {
		binary.BigEndian.PutUint16(b[off:off+2], TPID)
		binary.BigEndian.PutUint16(b[off+2:off+4], f.VLAN.encodeTCI())
		off += vlanTagLen
	}
	binary.BigEndian.PutUint16(b[off:off+2], uint16(f.EtherType))
	off += 2
	copy(b[off:], f.Payload)
	return b
}

// WithoutVLAN returns a copy of f with no 802.1Q tag, EtherType set to et.
func (f *Frame) WithoutVLAN(et EtherType, payload []byte) *Frame {
	return &Frame{Dst: f.Dst, Src: f.Src, EtherType: et, Payload: payload}
}

// WithVLAN returns a copy of f tagged with vid, untouched PCP/DEI.
func (f *Frame) WithVLAN(vid uint16, et EtherType, payload []byte) *Frame {
	return &Frame{
		Dst:       f.Dst,
		Src:       f.Src,
		VLAN:      &VLANTag{VID: vid},
		EtherType: et,
		Payload:   payload,
	}
}
