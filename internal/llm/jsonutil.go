package llm

import (
	"strings"
)

// ExtractJSON returns the first balanced top-level {...} in content, or "".
// Braces inside string literals are ignored, so prose after the object
// cannot extend the match.
func ExtractJSON(content string) string {
	return extractBalanced(content, '{', '}')
}

// ExtractJSONArray returns the first balanced top-level [...] in content, or "".
func ExtractJSONArray(content string) string {
	return extractBalanced(content, '[', ']')
}

func extractBalanced(content string, open, close byte) string {
	for start := 0; start < len(content); start++ {
		if content[start] != open {
			continue
		}
		if end := matchClose(content, start, open, close); end > 0 {
			return cleanJSON(content[start : end+1])
		}
	}
	return ""
}

// stringTracker follows JSON string literals byte by byte
type stringTracker struct {
	inString bool
	escaped  bool
}

// structural consumes ch and reports whether it lies outside every string
// literal. Quote characters themselves are never structural.
func (st *stringTracker) structural(ch byte) bool {
	switch {
	case st.escaped:
		st.escaped = false
		return false
	case st.inString:
		switch ch {
		case '\\':
			st.escaped = true
		case '"':
			st.inString = false
		}
		return false
	case ch == '"':
		st.inString = true
		return false
	}
	return true
}

// matchClose returns the index of the bracket closing content[start], or -1.
func matchClose(content string, start int, open, close byte) int {
	depth := 0
	var st stringTracker
	for i := start; i < len(content); i++ {
		ch := content[i]
		if !st.structural(ch) {
			continue
		}
		switch ch {
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// cleanJSON drops commas directly before ] or }, a common artifact of model
// output. Commas inside string values are left alone.
func cleanJSON(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	var st stringTracker
	for i := 0; i < len(raw); i++ {
		ch := raw[i]
		if st.structural(ch) && ch == ',' {
			j := i + 1
			for j < len(raw) && isJSONSpace(raw[j]) {
				j++
			}
			if j < len(raw) && (raw[j] == '}' || raw[j] == ']') {
				i = j - 1
				continue
			}
		}
		b.WriteByte(ch)
	}
	return b.String()
}

func isJSONSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r'
}
