package ranking

import "strings"

const maxObjectCandidates = 32

// firstBalancedObject returns the substring of s spanning the first '{' at or
// after from up to its matching '}', ignoring braces inside JSON string
// literals. ok is false when no balanced object exists.
func firstBalancedObject(s string, from int) (obj string, start int, ok bool) {
	rel := strings.IndexByte(s[from:], '{')
	if rel < 0 {
		return "", -1, false
	}
	start = from + rel

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], start, true
			}
		}
	}
	return "", start, false
}

// findObject tries balanced objects in order of their opening brace and
// returns the first one accept approves.
func findObject(s string, accept func(string) bool) (string, bool) {
	from := 0
	for n := 0; n < maxObjectCandidates && from < len(s); n++ {
		obj, start, ok := firstBalancedObject(s, from)
		if start < 0 {
			return "", false
		}
		if ok && accept(obj) {
			return obj, true
		}
		from = start + 1
	}
	return "", false
}
