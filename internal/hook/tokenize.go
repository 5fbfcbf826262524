package hook

import "strings"

// Tokenize splits a command line into arguments.
//
// Spaces separate arguments unless inside a '"' or '\'' group. A backslash
// outside a group is dropped and the next character taken literally; inside a
// group the backslash and the character are both kept, so the escape reaches
// the spawned program (e.g. a nested `bash -c` string) intact. Closing a group
// ends the argument. Unterminated groups are flushed at end of input.
func Tokenize(input string) []string {
	var (
		out     []string
		buf     strings.Builder
		quote   rune
		inGroup bool
		escaped bool
	)

	flush := func() {
		out = append(out, buf.String())
		buf.Reset()
	}

	for _, ch := range input {
		if escaped {
			escaped = false
			if inGroup {
				buf.WriteRune('\\')
			}
			buf.WriteRune(ch)
			continue
		}

		switch {
		case ch == '\\':
			escaped = true
		case inGroup && ch == quote:
			inGroup = false
			quote = 0
			flush()
		case !inGroup && (ch == '"' || ch == '\''):
			inGroup = true
			quote = ch
		case !inGroup && ch == ' ':
			if buf.Len() > 0 {
				flush()
			}
		default:
			buf.WriteRune(ch)
		}
	}

	if buf.Len() > 0 {
		flush()
	}
	return out
}
