package policy

import "fmt"

// evaluateNetwork implements §4.2's network policy semantics: allow only
// if host, port, and protocol each belong to their configured set,
// otherwise emit one deny reason per violating dimension.
func evaluateNetwork(rules *NetworkRules, in *NetworkInput) Decision {
	var reasons []string

	if _, ok := rules.hosts[in.Host]; !ok {
		reasons = append(reasons, fmt.Sprintf("host '%s' is not allowed", in.Host))
	}
	if _, ok := rules.ports[in.Port]; !ok {
		reasons = append(reasons, fmt.Sprintf("port %d is not allowed", in.Port))
	}
	if _, ok := rules.protocols[in.Protocol]; !ok {
		reasons = append(reasons, fmt.Sprintf("protocol '%s' is not allowed", in.Protocol))
	}

	if len(reasons) > 0 {
		return Decision{Allow: false, DenyReasons: reasons}
	}
	return allow("network request will be audited")
}
