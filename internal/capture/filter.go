package capture

import "strings"

var protocolClauses = map[string]string{
	"tcp":  "tcp",
	"udp":  "udp",
	"icmp": "icmp or icmp6",
	"arp":  "arp",
	"dns":  "(udp port 53 or tcp port 53)",
}

// KnownProtocol reports whether name selects a protocol filter clause.
func KnownProtocol(name string) bool {
	_, ok := protocolClauses[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

// ProtocolFilter OR-joins the BPF clauses for the named protocols.
// Unknown names are ignored. The result is empty when nothing matched.
func ProtocolFilter(protocols []string) string {
	var clauses []string
	for _, p := range protocols {
		if clause, ok := protocolClauses[strings.ToLower(strings.TrimSpace(p))]; ok {
			clauses = append(clauses, clause)
		}
	}
	return strings.Join(clauses, " or ")
}

// BuildFilter combines protocol selections with a raw BPF expression.
// With both present the result is "<protocols> and (<raw>)"; either alone
// is used as is; neither yields "" which captures everything.
func BuildFilter(protocols []string, raw string) string {
	p := ProtocolFilter(protocols)
	u := strings.TrimSpace(raw)

	switch {
	case p != "" && u != "":
		return p + " and (" + u + ")"
	case p != "":
		return p
	default:
		return u
	}
}
