package platform

import (
	"bufio"
	"bytes"
	"strings"

	"github.com/anstrom/reconkit/internal/netaddr"
)

func lines(out []byte) []string {
	var result []string
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		result = append(result, scanner.Text())
	}
	return result
}

func localRecord(ip string) HostRecord {
	return HostRecord{IP: ip, MAC: LocalMAC, Hostname: LocalHostname, Vendor: LocalVendor}
}

// ParseLocalAddresses extracts this machine's IPv4 addresses from the
// interface listing of the given OS. Loopback addresses are kept; callers
// filter by range.
func ParseLocalAddresses(os OS, out []byte) []HostRecord {
	var records []HostRecord
	for _, line := range lines(out) {
		line = strings.TrimSpace(line)
		var ip string

		switch os {
		case Windows:
			if !strings.Contains(line, "IPv4 Address") {
				continue
			}
			_, value, ok := strings.Cut(line, ":")
			if !ok {
				continue
			}
			ip = strings.TrimSuffix(strings.TrimSpace(value), "(Preferred)")
		case Darwin:
			if !strings.HasPrefix(line, "inet ") {
				continue
			}
			fields := strings.Fields(line)
			if len(fields) < 2 {
				continue
			}
			ip = fields[1]
		default:
			if !strings.HasPrefix(line, "inet ") {
				continue
			}
			fields := strings.Fields(line)
			if len(fields) < 2 {
				continue
			}
			ip, _, _ = strings.Cut(fields[1], "/")
		}

		ip = strings.TrimSpace(ip)
		if _, ok := netaddr.ParseIPv4(ip); ok {
			records = append(records, localRecord(ip))
		}
	}
	return records
}

// ParseNeighborTable turns a neighbor cache dump into records. Vendor is
// always Unknown; no OUI lookup is done.
func ParseNeighborTable(os OS, out []byte) []HostRecord {
	var records []HostRecord
	for _, line := range lines(out) {
		fields := strings.Fields(line)
		var rec HostRecord

		switch os {
		case Windows:
			// 192.168.1.1           aa-bb-cc-dd-ee-ff     dynamic
			if len(fields) < 2 || !strings.Contains(fields[0], ".") || !strings.Contains(fields[1], "-") {
				continue
			}
			rec = HostRecord{IP: fields[0], MAC: fields[1]}
		case Darwin:
			// router.lan (192.168.1.1) at aa:bb:cc:dd:ee:ff on en0 ifscope [ethernet]
			if len(fields) < 4 || !strings.HasPrefix(fields[1], "(") {
				continue
			}
			rec = HostRecord{
				IP:       strings.Trim(fields[1], "()"),
				MAC:      fields[3],
				Hostname: strings.TrimSuffix(fields[0], "?"),
			}
		default:
			// 192.168.1.1 dev eth0 lladdr aa:bb:cc:dd:ee:ff REACHABLE
			if len(fields) < 5 {
				continue
			}
			rec = HostRecord{IP: fields[0], MAC: fields[4]}
		}

		if _, ok := netaddr.ParseIPv4(rec.IP); !ok {
			continue
		}
		rec.Vendor = UnknownVendor
		records = append(records, rec)
	}
	return records
}

// ParseNeighborLookup finds the hardware address for ip in the output of a
// single-address neighbor query. On Darwin the name arp printed is kept.
func ParseNeighborLookup(os OS, ip string, out []byte) (HostRecord, bool) {
	for _, line := range lines(out) {
		fields := strings.Fields(line)
		var mac, hostname string

		switch os {
		case Windows:
			if len(fields) < 2 || fields[0] != ip {
				continue
			}
			mac = fields[1]
		case Darwin:
			if len(fields) < 4 || strings.Trim(fields[1], "()") != ip {
				continue
			}
			mac = fields[3]
			hostname = strings.TrimSuffix(fields[0], "?")
		default:
			if len(fields) < 5 || fields[0] != ip || fields[3] != "lladdr" {
				continue
			}
			mac = fields[4]
		}

		if !informativeMAC(mac) {
			return HostRecord{}, false
		}
		return HostRecord{IP: ip, MAC: mac, Hostname: hostname, Vendor: UnknownVendor}, true
	}
	return HostRecord{}, false
}

// informativeMAC rejects incomplete entries and the broadcast and IPv4
// multicast hardware addresses.
func informativeMAC(mac string) bool {
	m, ok := normalizeMAC(mac)
	if !ok {
		return false
	}
	return m != "ff:ff:ff:ff:ff:ff" && !strings.HasPrefix(m, "01:00:5e")
}

// normalizeMAC lower-cases mac, uses ':' separators and pads the single
// digit octets printed by BSD arp.
func normalizeMAC(mac string) (string, bool) {
	parts := strings.Split(strings.ToLower(strings.ReplaceAll(mac, "-", ":")), ":")
	if len(parts) != 6 {
		return "", false
	}
	for i, p := range parts {
		switch len(p) {
		case 1:
			parts[i] = "0" + p
		case 2:
		default:
			return "", false
		}
		if strings.Trim(parts[i], "0123456789abcdef") != "" {
			return "", false
		}
	}
	return strings.Join(parts, ":"), true
}

// ParseNbtstat returns the <00> UNIQUE workstation name from nbtstat -A output.
func ParseNbtstat(ip string, out []byte) (string, bool) {
	for _, line := range lines(out) {
		if !strings.Contains(line, "<00>") || !strings.Contains(line, "UNIQUE") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		name := fields[0]
		if name != "" && name != ip {
			return name, true
		}
	}
	return "", false
}
