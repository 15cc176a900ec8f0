// Package mention extracts @handle references from free text.
package mention

import "regexp"

// handlePattern is '@' followed by one or more ASCII word characters.
var handlePattern = regexp.MustCompile(`@(\w+)`)

// Detect returns the distinct handles referenced in text, in order of first
// occurrence. Matching is case-sensitive. Empty text yields an empty slice.
func Detect(text string) []string {
	handles := []string{}
	if text == "" {
		return handles
	}

	seen := make(map[string]struct{})
	for _, m := range handlePattern.FindAllStringSubmatch(text, -1) {
		h := m[1]
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}
		handles = append(handles, h)
	}
	return handles
}
