package zone

import (
	"regexp"
	"strings"
)

// Variable is one `name = literal` declaration inside the zone.
type Variable struct {
	Name    string
	Value   Value
	Comment string
	Line    int // 1-based, relative to the zone text
}

// Variables keeps declaration order.
type Variables []Variable

func (vs Variables) Lookup(name string) (Variable, bool) {
	for _, v := range vs {
		if v.Name == name {
			return v, true
		}
	}
	return Variable{}, false
}

// Mutable returns only the variables whose literal could be decoded.
func (vs Variables) Mutable() Variables {
	out := make(Variables, 0, len(vs))
	for _, v := range vs {
		if !v.Value.Opaque() {
			out = append(out, v)
		}
	}
	return out
}

func (vs Variables) Map() map[string]Value {
	m := make(map[string]Value, len(vs))
	for _, v := range vs {
		m[v.Name] = v.Value
	}
	return m
}

// declRe matches the prefix of a declaration line up to the literal. The
// optional type allows `Name float64 = 0.5`.
var declRe = regexp.MustCompile(`^\s*(?:(?:const|var)\s+)?([A-Za-z_][A-Za-z0-9_]*)(?:\s+[A-Za-z_][A-Za-z0-9_.]*)?\s*=\s*`)

type decl struct {
	name     string
	litStart int // offsets relative to the scanned text
	litEnd   int
	comment  string
	line     int
}

// scanDeclarations walks text line by line, skipping the extension sub-zone.
// The first declaration of a name wins.
func scanDeclarations(text string) []decl {
	var out []decl
	seen := make(map[string]bool)
	inExtension := false

	for _, l := range splitLines(text) {
		trimmed := strings.TrimSpace(l.text)
		switch trimmed {
		case ExtensionBeginMarker:
			inExtension = true
			continue
		case ExtensionEndMarker:
			inExtension = false
			continue
		}
		if inExtension {
			continue
		}

		m := declRe.FindStringSubmatchIndex(l.text)
		if m == nil {
			continue
		}
		rest := l.text[m[1]:]
		if strings.HasPrefix(rest, "=") {
			// `a == b` is a comparison, not a declaration.
			continue
		}
		name := l.text[m[2]:m[3]]
		if seen[name] {
			continue
		}

		lit, comment := SplitComment(rest)
		lit = strings.TrimRight(lit, " \t\r")
		if lit == "" {
			continue
		}
		seen[name] = true
		start := l.start + m[1]
		out = append(out, decl{
			name:     name,
			litStart: start,
			litEnd:   start + len(lit),
			comment:  strings.TrimSpace(comment),
			line:     l.num,
		})
	}
	return out
}

// SplitComment separates a trailing `//` or `/*` comment from the literal,
// ignoring comment openers inside string, raw string and rune literals.
func SplitComment(s string) (code, comment string) {
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch quote {
		case 0:
			switch c {
			case '"', '\'', '`':
				quote = c
			case '/':
				if i+1 < len(s) && (s[i+1] == '/' || s[i+1] == '*') {
					return s[:i], s[i:]
				}
			}
		case '`':
			if c == '`' {
				quote = 0
			}
		default:
			if c == '\\' {
				i++
				continue
			}
			if c == quote {
				quote = 0
			}
		}
	}
	return s, ""
}

// ParseVariables extracts every declaration in the zone text. Declarations
// whose literal cannot be decoded are kept as opaque values.
func ParseVariables(zoneText string) Variables {
	decls := scanDeclarations(zoneText)
	vars := make(Variables, 0, len(decls))
	for _, d := range decls {
		vars = append(vars, Variable{
			Name:    d.name,
			Value:   ParseLiteral(zoneText[d.litStart:d.litEnd]),
			Comment: d.comment,
			Line:    d.line,
		})
	}
	return vars
}
