package backend

import (
	"fmt"
	"strings"
)

const (
	tokenPrefix = "RM_"
	castToken   = "RM_STATIC_CAST"
)

// translate rewrites annotation tokens in src. Comments, string literals
// and character literals are copied untouched.
func translate(t *table, src string) (string, error) {
	var sb strings.Builder
	sb.Grow(len(src))

	line := 1
	for i := 0; i < len(src); {
		c := src[i]
		switch {
		case c == '\n':
			line++
			sb.WriteByte(c)
			i++

		case strings.HasPrefix(src[i:], "//"):
			end := strings.IndexByte(src[i:], '\n')
			if end < 0 {
				end = len(src) - i
			}
			sb.WriteString(src[i : i+end])
			i += end

		case strings.HasPrefix(src[i:], "/*"):
			end := strings.Index(src[i+2:], "*/")
			if end < 0 {
				end = len(src) - i
			} else {
				end += 4
			}
			chunk := src[i : i+end]
			line += strings.Count(chunk, "\n")
			sb.WriteString(chunk)
			i += end

		case c == '"' || c == '\'':
			end := skipQuoted(src, i)
			sb.WriteString(src[i:end])
			i = end

		case isIdentStart(c):
			j := i + 1
			for j < len(src) && isIdentPart(src[j]) {
				j++
			}
			ident := src[i:j]
			if !strings.HasPrefix(ident, tokenPrefix) {
				sb.WriteString(ident)
				i = j
				continue
			}

			if ident == castToken {
				out, next, err := t.rewriteCast(src, j, line)
				if err != nil {
					return "", err
				}
				line += strings.Count(src[i:next], "\n")
				sb.WriteString(out)
				i = next
				continue
			}

			a, ok := ParseAnnotation(ident)
			if !ok {
				return "", &Error{Backend: t.name, Token: ident, Line: line, Err: ErrUnmappedAnnotation}
			}
			qual := t.qualifiers[a]
			if !qual.Supported {
				return "", &Error{Backend: t.name, Token: ident, Line: line, Err: ErrCapabilityGap}
			}
			if qual.Text == "" {
				// Drop the token along with the blanks that separated it
				// from the next word.
				for j < len(src) && (src[j] == ' ' || src[j] == '\t') {
					j++
				}
			} else {
				sb.WriteString(qual.Text)
			}
			i = j

		default:
			sb.WriteByte(c)
			i++
		}
	}
	return sb.String(), nil
}

// rewriteCast parses "(type, expr)" starting at pos and returns the native
// cast expression and the offset just past the closing parenthesis.
func (t *table) rewriteCast(src string, pos, line int) (string, int, error) {
	for pos < len(src) && (src[pos] == ' ' || src[pos] == '\t') {
		pos++
	}
	if pos >= len(src) || src[pos] != '(' {
		return "", 0, &Error{Backend: t.name, Token: castToken, Line: line, Err: fmt.Errorf("expected '('")}
	}

	depth := 0
	comma := -1
	for i := pos; i < len(src); i++ {
		switch src[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				if comma < 0 {
					return "", 0, &Error{Backend: t.name, Token: castToken, Line: line, Err: fmt.Errorf("expected two arguments")}
				}
				typ := strings.TrimSpace(src[pos+1 : comma])
				expr := strings.TrimSpace(src[comma+1 : i])
				return t.cast(typ, expr), i + 1, nil
			}
		case ',':
			if depth == 1 && comma < 0 {
				comma = i
			}
		}
	}
	return "", 0, &Error{Backend: t.name, Token: castToken, Line: line, Err: fmt.Errorf("unterminated argument list")}
}

func skipQuoted(src string, i int) int {
	quote := src[i]
	for j := i + 1; j < len(src); j++ {
		switch src[j] {
		case '\\':
			j++
		case '\n':
			return j
		case quote:
			return j + 1
		}
	}
	return len(src)
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func cCast(typ, expr string) string { return "(" + typ + ")(" + expr + ")" }

func cppCast(typ, expr string) string { return "static_cast<" + typ + ">(" + expr + ")" }

func ctorCast(typ, expr string) string { return typ + "(" + expr + ")" }
