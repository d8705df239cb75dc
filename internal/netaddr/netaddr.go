// Package netaddr parses the address ranges and port lists accepted by the
// scan engines and converts between dotted-quad strings and 32-bit integers.
package netaddr

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// MaxPrefixLen is the longest accepted prefix. A /31 or /32 has no usable host range.
const MaxPrefixLen = 30

var (
	ErrInvalidFormat  = errors.New("invalid CIDR format")
	ErrInvalidAddress = errors.New("invalid IP address")
	ErrInvalidPrefix  = errors.New("CIDR must be 30 or less")
	ErrInvalidRange   = errors.New("invalid port range")
	ErrInvalidPort    = errors.New("invalid port value")
	ErrEmpty          = errors.New("no ports to scan")
)

// AddressRange is an IPv4 block whose base is aligned to its prefix.
type AddressRange struct {
	Base      uint32
	PrefixLen int
}

// ParseCIDR parses "a.b.c.d/n" and masks the address down to the prefix.
func ParseCIDR(text string) (AddressRange, error) {
	parts := strings.Split(text, "/")
	if len(parts) != 2 {
		return AddressRange{}, ErrInvalidFormat
	}

	base, ok := ParseIPv4(parts[0])
	if !ok {
		return AddressRange{}, ErrInvalidAddress
	}

	prefix, err := strconv.ParseUint(parts[1], 10, 8)
	if err != nil {
		return AddressRange{}, fmt.Errorf("%w: %q", ErrInvalidFormat, parts[1])
	}
	if prefix > MaxPrefixLen {
		return AddressRange{}, ErrInvalidPrefix
	}

	r := AddressRange{PrefixLen: int(prefix)}
	r.Base = base & r.Mask()
	return r, nil
}

// Mask returns the network mask for the range's prefix length.
func (r AddressRange) Mask() uint32 {
	if r.PrefixLen == 0 {
		return 0
	}
	return ^uint32(0) << (32 - r.PrefixLen)
}

// Size returns the number of addresses in the range, 2^(32-prefix).
func (r AddressRange) Size() uint64 {
	return uint64(1) << (32 - r.PrefixLen)
}

// Start returns the first address of the range.
func (r AddressRange) Start() uint32 {
	return r.Base
}

// End returns the last address of the range, inclusive.
func (r AddressRange) End() uint32 {
	return r.Base | ^r.Mask()
}

// Contains reports whether ip falls inside the range.
func (r AddressRange) Contains(ip uint32) bool {
	return ip >= r.Start() && ip <= r.End()
}

// ContainsString reports whether the dotted-quad ip falls inside the range.
// Unparseable input is never contained.
func (r AddressRange) ContainsString(ip string) bool {
	v, ok := ParseIPv4(ip)
	return ok && r.Contains(v)
}

// String renders the range back in CIDR notation.
func (r AddressRange) String() string {
	return fmt.Sprintf("%s/%d", FormatIPv4(r.Base), r.PrefixLen)
}

// ParseIPv4 converts a dotted-quad string to its integer form.
func ParseIPv4(text string) (uint32, bool) {
	octets := strings.Split(text, ".")
	if len(octets) != 4 {
		return 0, false
	}

	var ip uint32
	for _, octet := range octets {
		v, err := strconv.ParseUint(octet, 10, 8)
		if err != nil {
			return 0, false
		}
		ip = ip<<8 | uint32(v)
	}
	return ip, true
}

// FormatIPv4 converts an integer address back to dotted-quad form.
func FormatIPv4(ip uint32) string {
	return fmt.Sprintf("%d.%d.%d.%d", ip>>24&0xff, ip>>16&0xff, ip>>8&0xff, ip&0xff)
}

// IsSpecialIP reports destinations that are never probed: the multicast
// ranges 224.* and 239.* and the limited broadcast address.
func IsSpecialIP(ip string) bool {
	return strings.HasPrefix(ip, "224.") ||
		strings.HasPrefix(ip, "239.") ||
		ip == "255.255.255.255"
}

// PortSet is a sorted, de-duplicated list of ports in [1,65535].
type PortSet []uint16

// ParsePorts expands a spec like "22,80-82,443" into a PortSet.
// Empty tokens are skipped; a spec yielding no ports is an error.
func ParsePorts(spec string) (PortSet, error) {
	seen := make(map[uint16]struct{})

	for _, token := range strings.Split(spec, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}

		if lo, hi, found := strings.Cut(token, "-"); found {
			start, err1 := parsePort(lo)
			end, err2 := parsePort(hi)
			if err1 != nil || err2 != nil || end < start {
				return nil, fmt.Errorf("%w: %s", ErrInvalidRange, token)
			}
			for p := uint32(start); p <= uint32(end); p++ {
				seen[uint16(p)] = struct{}{}
			}
			continue
		}

		port, err := parsePort(token)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidPort, token)
		}
		seen[port] = struct{}{}
	}

	if len(seen) == 0 {
		return nil, ErrEmpty
	}

	ports := make(PortSet, 0, len(seen))
	for p := range seen {
		ports = append(ports, p)
	}
	slices.Sort(ports)
	return ports, nil
}

func parsePort(text string) (uint16, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(text), 10, 16)
	if err != nil {
		return 0, err
	}
	if v == 0 {
		return 0, ErrInvalidPort
	}
	return uint16(v), nil
}
