package router

/*
	Copyright 2023 Canonical Ltd.  This software is licensed under the
	GNU Affero General Public License version 3 (see the file LICENSE).
*/

import (
	"github.com/canonical/netdevlab/internal/device"
	"github.com/canonical/netdevlab/internal/ethernet"
)

const (
	icmpErrorTTL      = 32
	origHeaderAndMore = 8 // bytes of original payload carried in an ICMP error
)

// buildICMPError constructs the outer IPv4 packet carrying an ICMP error
// back to the original sender, per spec.md §4.5.1: the payload is the ICMP
// header followed by the original (as-received, pre-TTL-decrement) IPv4
// header plus the first 8 bytes of its payload.
func buildICMPError(origin *device.Interface, origHeader ethernet.IPv4Header, origRaw []byte, icmp ethernet.ICMPHeader) []byte {
	headerLen := origHeader.HeaderLen()
	n := origRawAndFirst8(origRaw, headerLen)

	outer := ethernet.IPv4Header{
		IHL:      5,
		TTL:      icmpErrorTTL,
		Protocol: ethernet.ProtoICMP,
		Src:      origin.IP,
		Dst:      origHeader.Src,
	}
	return outer.Encode(icmp.Encode(n))
}

// origRawAndFirst8 returns the original IPv4 header bytes plus up to the
// first 8 bytes of its payload, from the raw (pre-decrement) packet bytes.
func origRawAndFirst8(raw []byte, headerLen int) []byte {
	end := headerLen + origHeaderAndMore
	if end > len(raw) {
		end = len(raw)
	}
	out := make([]byte, end)
	copy(out, raw[:end])
	return out
}
