package router

/*
	Copyright 2023 Canonical Ltd.  This software is licensed under the
	GNU Affero General Public License version 3 (see the file LICENSE).
*/

import "github.com/canonical/netdevlab/internal/ethernet"

// fragment splits payload into IPv4 fragments that fit within mtu bytes of
// IP-layer payload each, per spec.md §4.5.2: fragment sizes are rounded
// down to a multiple of 8, every fragment but the last gets MF set, and the
// last fragment preserves the original packet's own MF flag (it may itself
// be one link in a longer fragmentation chain).
func fragment(header ethernet.IPv4Header, payload []byte, mtu int) [][]byte {
	fragSize := mtu - (mtu % 8)
	origMF := header.MF

	var out [][]byte
	for offset := 0; offset < len(payload); offset += fragSize {
		end := offset + fragSize
		last := end >= len(payload)
		if last {
			end = len(payload)
		}

		h := header
		h.MF = !last || origMF
		h.FragOffset = uint16(offset / 8)
		out = append(out, h.Encode(payload[offset:end]))
	}
	return out
}
