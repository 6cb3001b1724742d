package functions

import (
	"regexp"
	"strings"
)

// Call is a function-call directive parsed from a model reply.
type Call struct {
	Name   string
	Params map[string]string
}

// The directive grammar is the machine-readable channel between model output
// and the dispatcher: FUNCTION_CALL: name(key1: value1, key2: "value2").
// A single first-match expression; everything outside it is prose.
var directiveRe = regexp.MustCompile(`FUNCTION_CALL:\s*(\w+)\s*\(([^)]*)\)`)

// ParseDirective scans reply for the first function-call directive. Values
// may be quoted or bare; whitespace is trimmed either way.
func ParseDirective(reply string) (*Call, bool) {
	m := directiveRe.FindStringSubmatch(reply)
	if m == nil {
		return nil, false
	}

	call := &Call{Name: m[1], Params: make(map[string]string)}
	for _, pair := range splitArgs(m[2]) {
		key, value, ok := strings.Cut(pair, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		value = strings.Trim(value, `"'`)
		if key != "" {
			call.Params[key] = value
		}
	}
	return call, true
}

// splitArgs splits the argument list on commas that are not inside quotes.
func splitArgs(args string) []string {
	var out []string
	var sb strings.Builder
	inQuote := byte(0)
	for i := 0; i < len(args); i++ {
		c := args[i]
		switch {
		case inQuote != 0:
			if c == inQuote {
				inQuote = 0
			}
			sb.WriteByte(c)
		case c == '"' || c == '\'':
			inQuote = c
			sb.WriteByte(c)
		case c == ',':
			out = append(out, sb.String())
			sb.Reset()
		default:
			sb.WriteByte(c)
		}
	}
	if s := strings.TrimSpace(sb.String()); s != "" {
		out = append(out, s)
	}
	return out
}
