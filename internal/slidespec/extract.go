package slidespec

import (
	"regexp"
	"strings"
)

var fencedJSON = regexp.MustCompile("(?s)```json\\s*(.*?)\\s*```")

// ExtractJSON pulls a JSON object or array out of free-form model output.
// A ```json fenced block wins when its body looks like JSON; otherwise the
// span from the first '{' or '[' to the last '}' or ']' is used. Line
// comments outside string literals are removed from the result.
func ExtractJSON(response string) (string, bool) {
	if m := fencedJSON.FindStringSubmatch(response); m != nil {
		candidate := strings.TrimSpace(m[1])
		if looksLikeJSON(candidate) {
			return StripLineComments(candidate), true
		}
	}
	start := strings.IndexAny(response, "{[")
	if start < 0 {
		return "", false
	}
	end := strings.LastIndexAny(response, "}]")
	if end <= start {
		return "", false
	}
	candidate := strings.TrimSpace(response[start : end+1])
	if !looksLikeJSON(candidate) {
		return "", false
	}
	return StripLineComments(candidate), true
}

func looksLikeJSON(s string) bool {
	if len(s) < 2 {
		return false
	}
	first, last := s[0], s[len(s)-1]
	return (first == '{' && last == '}') || (first == '[' && last == ']')
}

// StripLineComments removes // comments that start outside string literals.
func StripLineComments(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inString, escaped := false, false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			b.WriteByte(c)
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		if c == '"' {
			inString = true
			b.WriteByte(c)
			continue
		}
		if c == '/' && i+1 < len(s) && s[i+1] == '/' {
			for i < len(s) && s[i] != '\n' {
				i++
			}
			if i < len(s) {
				b.WriteByte('\n')
			}
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}
