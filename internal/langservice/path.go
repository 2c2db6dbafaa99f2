package langservice

import "strings"

// CombinePath joins dir and name using the separator style of dir. A dir
// written with backslashes only, such as `C:\sdk`, is joined with `\`;
// anything else with `/`. A rooted name is returned unchanged.
func CombinePath(dir, name string) string {
	if dir == "" || isRooted(name) {
		return name
	}
	if name == "" {
		return dir
	}

	sep := "/"
	if strings.Contains(dir, `\`) && !strings.Contains(dir, "/") {
		sep = `\`
	}
	trimmed := strings.TrimRight(dir, `/\`)
	if trimmed == "" {
		// dir was only separators, i.e. a root.
		return sep + name
	}
	return trimmed + sep + name
}

func isRooted(p string) bool {
	if strings.HasPrefix(p, "/") || strings.HasPrefix(p, `\`) {
		return true
	}
	// Drive letter, e.g. C:\ or C:/.
	return len(p) >= 3 && p[1] == ':' && (p[2] == '\\' || p[2] == '/')
}
