// Package policy implements the Policy Decision Engine: a compiled rule
// bundle evaluated against a structured PolicyInput to produce an
// allow/deny verdict with deny reasons and warnings. It mirrors the
// teacher repo's OPA-style evaluator, but the rule set is fixed to the
// command/file/network sub-packages the gateway requires rather than an
// arbitrary Rego program.
package policy

// Input is the structured document the engine evaluates. Sub-sections are
// pointers so that "unset" (nil) is distinguishable from a populated-but-
// empty value: the dispatcher classifies the task by which sub-section is
// present.
type Input struct {
	Command *CommandInput
	File    *FileInput
	Network *NetworkInput
	User    UserInput
}

// CommandInput describes a requested command execution.
type CommandInput struct {
	Name string
	Args []string
}

// FileMode is the requested file operation mode for policy purposes.
type FileMode string

const (
	FileModeRead    FileMode = "read"
	FileModeWrite   FileMode = "write"
	FileModeExecute FileMode = "execute"
)

// FileInput describes a requested file operation.
type FileInput struct {
	Path string
	Mode FileMode
}

// NetworkInput describes a requested outbound network call.
type NetworkInput struct {
	Host     string
	Port     int
	Protocol string
}

// UserInput carries the caller's asserted roles. Authentication itself is
// assumed to happen upstream of the gateway.
type UserInput struct {
	Roles []string
}

// HasRole reports whether the set of roles contains name.
func (u UserInput) HasRole(name string) bool {
	for _, r := range u.Roles {
		if r == name {
			return true
		}
	}
	return false
}

// Decision is the engine's verdict. Deny reasons and warnings preserve
// insertion order from rule evaluation.
type Decision struct {
	Allow       bool
	DenyReasons []string
	Warnings    []string
}

func deny(reason string) Decision {
	return Decision{Allow: false, DenyReasons: []string{reason}}
}

func allow(warnings ...string) Decision {
	return Decision{Allow: true, Warnings: warnings}
}
