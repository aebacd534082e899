package policy

import (
	"fmt"
	"path/filepath"
	"strings"
)

// evaluateFile implements §4.2's file policy semantics: deny on denied
// prefix match or missing mode-prefix match; warn-and-allow on write.
func evaluateFile(rules *FileRules, in *FileInput) Decision {
	normalized := filepath.Clean(in.Path)
	if !strings.HasPrefix(normalized, "/") || normalized != in.Path {
		return deny(fmt.Sprintf("path '%s' is not a canonical absolute path", in.Path))
	}

	for _, prefix := range rules.DeniedPaths {
		if hasPathPrefix(normalized, prefix) {
			return deny(fmt.Sprintf("path '%s' matches denied prefix '%s'", normalized, prefix))
		}
	}

	var modePrefixes []string
	switch in.Mode {
	case FileModeRead:
		modePrefixes = rules.ReadPaths
	case FileModeWrite:
		modePrefixes = rules.WritePaths
	case FileModeExecute:
		modePrefixes = rules.ExecutePaths
	}

	matched := false
	for _, prefix := range modePrefixes {
		if hasPathPrefix(normalized, prefix) {
			matched = true
			break
		}
	}
	if !matched {
		return deny(fmt.Sprintf("path '%s' is not permitted for mode '%s'", normalized, in.Mode))
	}

	if in.Mode == FileModeWrite {
		return allow("file write will be audited")
	}
	return allow()
}

// hasPathPrefix reports whether path is prefix or a descendant of prefix,
// using literal startsWith per §4.2 rather than filepath.Rel semantics.
func hasPathPrefix(path, prefix string) bool {
	return strings.HasPrefix(path, prefix)
}
