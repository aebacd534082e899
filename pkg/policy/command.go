package policy

import (
	"fmt"

	"github.com/fcchi/mcp-security-gateway/pkg/rbac"
)

// evaluateCommand implements §4.2's command policy semantics: dangerous
// commands are denied outright regardless of role; admins are allowed
// with an audit warning; everyone else needs an allowlist hit.
func evaluateCommand(rules *CommandRules, in *CommandInput, user UserInput) Decision {
	if _, dangerous := rules.dangerous[in.Name]; dangerous {
		return deny(fmt.Sprintf("command '%s' is dangerous and forbidden", in.Name))
	}

	if user.HasRole(rbac.RoleAdmin) {
		return allow("running as admin; all operations audited")
	}

	if _, ok := rules.allowed[in.Name]; ok {
		return allow()
	}

	return deny(fmt.Sprintf("command '%s' not in allowlist", in.Name))
}
