package gpu

import "strings"

// cstring appends the NUL byte which the Vulkan bindings expect at the end of
// every C string. Strings which already end with one are returned unchanged.
func cstring(s string) string {
	if strings.HasSuffix(s, "\x00") {
		return s
	}
	return s + "\x00"
}

func cstrings(names []string) []string {
	out := make([]string, 0, len(names))
	for _, name := range names {
		out = append(out, cstring(name))
	}
	return out
}

func trimNUL(s string) string {
	return strings.TrimRight(s, "\x00")
}
