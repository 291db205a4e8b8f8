package placeholders

import (
	"os"
	"strings"
)

// LookupFunc resolves a variable name. The boolean reports whether it is set.
type LookupFunc func(name string) (string, bool)

const envPrefix = "ENV["

// Expand substitutes every variable reference in s using lookup.
func Expand(s string, lookup LookupFunc) string {
	if !strings.Contains(s, "$") {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(s); {
		ref, ok := scan(s, i)
		if !ok {
			b.WriteByte(s[i])
			i++
			continue
		}

		switch {
		case ref.literal:
			b.WriteByte('$')
		case ref.env:
			if v, found := os.LookupEnv(ref.name); found {
				b.WriteString(v)
			} else {
				b.WriteString(s[i:ref.end])
			}
		default:
			if v, found := lookup(ref.name); found {
				b.WriteString(v)
			} else {
				b.WriteString(s[i:ref.end])
			}
		}
		i = ref.end
	}

	return b.String()
}

// References returns the install variable names referenced by s in
// first-seen order. Environment lookups are not included.
func References(s string) []string {
	var names []string
	seen := make(map[string]bool)

	for i := 0; i < len(s); {
		ref, ok := scan(s, i)
		if !ok {
			i++
			continue
		}
		if !ref.literal && !ref.env && !seen[ref.name] {
			seen[ref.name] = true
			names = append(names, ref.name)
		}
		i = ref.end
	}

	return names
}

type reference struct {
	name    string
	end     int
	env     bool
	literal bool
}

// scan parses a reference starting at s[i], which must be '$'.
func scan(s string, i int) (reference, bool) {
	if s[i] != '$' || i+1 >= len(s) {
		return reference{}, false
	}

	next := s[i+1]
	switch {
	case next == '$':
		return reference{end: i + 2, literal: true}, true

	case next == '{':
		closing := strings.IndexByte(s[i+2:], '}')
		if closing <= 0 {
			return reference{}, false
		}
		name := s[i+2 : i+2+closing]
		end := i + 2 + closing + 1
		if strings.HasPrefix(name, envPrefix) && strings.HasSuffix(name, "]") {
			envName := name[len(envPrefix) : len(name)-1]
			if envName == "" {
				return reference{}, false
			}
			return reference{name: envName, end: end, env: true}, true
		}
		return reference{name: name, end: end}, true

	case isNameChar(next):
		j := i + 1
		for j < len(s) && isNameChar(s[j]) {
			j++
		}
		return reference{name: s[i+1 : j], end: j}, true
	}

	return reference{}, false
}

func isNameChar(c byte) bool {
	return c == '_' ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9')
}
