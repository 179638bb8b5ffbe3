package cliconfig

/*
	Copyright 2023 Canonical Ltd.  This software is licensed under the
	GNU Affero General Public License version 3 (see the file LICENSE).
*/

// Package cliconfig parses the per-interface argv grammar of spec.md §6:
//
//	ethNAME
//	ethNAME[U:<vid>]
//	ethNAME[T:<vid>,<vid>,...]
//	ethNAME[U:<vid>,T:<vid>,...]          (hybrid port, supplemented per
//	                                        original_source/team11/vswitch.c)
//	ethNAME[IPV4:<ip>/<prefixlen>]
//	ethNAME[IPV4:<ip>/<prefixlen>]=<mtu>
import (
	"fmt"
	"strconv"
	"strings"

	"github.com/canonical/netdevlab/internal/ethernet"
)

// Spec is one parsed interface specification from argv.
type Spec struct {
	Name string

	UntaggedVLAN *uint16
	TaggedVLANs  []uint16

	IP        ethernet.IPv4Addr
	Netmask   ethernet.IPv4Addr
	HasIP     bool
	IPMTU     int
	HasIPMTU  bool
}

// Parse parses a single argv token into a Spec.
func Parse(arg string) (Spec, error) {
	s := Spec{}

	body := arg
	var bracket string
	if i := strings.IndexByte(arg, '['); i >= 0 {
		if !strings.HasSuffix(arg, "]") && !strings.Contains(arg, "]=") {
			return s, fmt.Errorf("interface specification %q: unterminated bracket", arg)
		}
		end := strings.IndexByte(arg, ']')
		if end < 0 || end < i {
			return s, fmt.Errorf("interface specification %q: unterminated bracket", arg)
		}
		body = arg[:i]
		bracket = arg[i+1 : end]

		if rest := arg[end+1:]; rest != "" {
			if !strings.HasPrefix(rest, "=") {
				return s, fmt.Errorf("interface specification %q: unexpected trailing text %q", arg, rest)
			}
			mtu, err := strconv.Atoi(rest[1:])
			if err != nil {
				return s, fmt.Errorf("interface specification %q: MTU not a number", arg)
			}
			s.IPMTU = mtu
			s.HasIPMTU = true
		}
	}
	if body == "" {
		return s, fmt.Errorf("interface specification %q: missing interface name", arg)
	}
	s.Name = body

	if bracket == "" {
		return s, nil
	}

	switch {
	case strings.HasPrefix(bracket, "IPV4:"):
		if err := parseIPV4(&s, bracket[len("IPV4:"):]); err != nil {
			return s, fmt.Errorf("interface specification %q: %w", arg, err)
		}
	case strings.HasPrefix(bracket, "U:") || strings.HasPrefix(bracket, "T:"):
		if err := parseVLAN(&s, bracket); err != nil {
			return s, fmt.Errorf("interface specification %q: %w", arg, err)
		}
	default:
		return s, fmt.Errorf("interface specification %q: unrecognised bracket %q", arg, bracket)
	}
	return s, nil
}

func parseIPV4(s *Spec, spec string) error {
	parts := strings.SplitN(spec, "/", 2)
	if len(parts) != 2 {
		return fmt.Errorf("IPV4 specification %q missing /prefixlen", spec)
	}
	ip, err := parseIP(parts[0])
	if err != nil {
		return err
	}
	prefix, err := strconv.Atoi(parts[1])
	if err != nil || prefix < 0 || prefix > 32 {
		return fmt.Errorf("invalid prefix length %q", parts[1])
	}
	s.IP = ip
	s.Netmask = PrefixToNetmask(prefix)
	s.HasIP = true
	return nil
}

func parseIP(s string) (ethernet.IPv4Addr, error) {
	var ip ethernet.IPv4Addr
	octets := strings.Split(s, ".")
	if len(octets) != 4 {
		return ip, fmt.Errorf("invalid IPv4 address %q", s)
	}
	for i, o := range octets {
		v, err := strconv.Atoi(o)
		if err != nil || v < 0 || v > 255 {
			return ip, fmt.Errorf("invalid IPv4 address %q", s)
		}
		ip[i] = byte(v)
	}
	return ip, nil
}

// PrefixToNetmask converts a CIDR prefix length (0-32) to its dotted netmask.
func PrefixToNetmask(prefix int) ethernet.IPv4Addr {
	var m ethernet.IPv4Addr
	for i := 0; i < prefix; i++ {
		m[i/8] |= 1 << (7 - uint(i%8))
	}
	return m
}

func parseVLAN(s *Spec, bracket string) error {
	for _, part := range strings.Split(bracket, ",T:") {
		part = strings.TrimPrefix(part, "T:")
		switch {
		case strings.HasPrefix(part, "U:"):
			vid, err := parseVID(part[len("U:"):])
			if err != nil {
				return err
			}
			if s.UntaggedVLAN != nil {
				return fmt.Errorf("multiple untagged VLANs specified")
			}
			s.UntaggedVLAN = &vid
		default:
			vids, err := splitVIDList(part)
			if err != nil {
				return err
			}
			s.TaggedVLANs = append(s.TaggedVLANs, vids...)
		}
	}
	return nil
}

func splitVIDList(s string) ([]uint16, error) {
	if s == "" {
		return nil, nil
	}
	var out []uint16
	for _, tok := range strings.Split(s, ",") {
		vid, err := parseVID(tok)
		if err != nil {
			return nil, err
		}
		out = append(out, vid)
	}
	return out, nil
}

func parseVID(s string) (uint16, error) {
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 || v > 4094 {
		return 0, fmt.Errorf("invalid VLAN id %q", s)
	}
	return uint16(v), nil
}
