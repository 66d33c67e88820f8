package llm

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/Harshitk-cp/lumen/internal/domain"
	"github.com/Harshitk-cp/lumen/internal/zone"
)

type VariableProposal struct {
	Name    string
	Literal string
	Reason  string
}

type BlockProposal struct {
	Name        string
	Description string
	Category    string
	Code        string
}

var (
	assignRe     = regexp.MustCompile(`^\s*(?:const\s+|var\s+)?([A-Za-z_][A-Za-z0-9_]*)\s*=\s*(.+)$`)
	reasonRe     = regexp.MustCompile(`(?i)^\s*reason\s*:\s*(.+)$`)
	headerRe     = regexp.MustCompile(`(?im)^\s*(NAME|DESCRIPTION|CATEGORY)\s*:\s*(.*?)\s*$`)
	fenceRe      = regexp.MustCompile("(?s)```[a-zA-Z]*\\s*\\n(.*?)```")
	identifierRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)
)

// ParseVariableProposal reads the first `Name = literal` line and an
// optional `REASON:` line. The literal is returned verbatim; validating it
// is the patcher's job.
func ParseVariableProposal(text string) (VariableProposal, error) {
	var p VariableProposal
	for _, raw := range strings.Split(text, "\n") {
		line := strings.Trim(strings.TrimSpace(raw), "`")
		if m := reasonRe.FindStringSubmatch(line); m != nil {
			if p.Reason == "" {
				p.Reason = strings.TrimSpace(m[1])
			}
			continue
		}
		if p.Name != "" {
			continue
		}
		m := assignRe.FindStringSubmatch(line)
		if m == nil || strings.HasPrefix(m[2], "=") {
			continue
		}
		lit, _ := zone.SplitComment(m[2])
		lit = strings.TrimSuffix(strings.TrimSpace(lit), ";")
		if lit == "" {
			continue
		}
		p.Name, p.Literal = m[1], lit
	}
	if p.Name == "" {
		return p, fmt.Errorf("%w: no `NAME = literal` line in proposal", domain.ErrParseFailure)
	}
	return p, nil
}

// ParseBlockProposal reads NAME/DESCRIPTION/CATEGORY headers and the first
// fenced code block, or everything after the headers when unfenced.
func ParseBlockProposal(text string) (BlockProposal, error) {
	var p BlockProposal
	lastHeader := -1
	for _, m := range headerRe.FindAllStringSubmatchIndex(text, -1) {
		key := strings.ToUpper(text[m[2]:m[3]])
		val := text[m[4]:m[5]]
		switch key {
		case "NAME":
			if p.Name == "" {
				p.Name = strings.Trim(val, "`\"' ")
			}
		case "DESCRIPTION":
			if p.Description == "" {
				p.Description = val
			}
		case "CATEGORY":
			if p.Category == "" {
				p.Category = strings.ToLower(strings.Trim(val, "`\"' "))
			}
		}
		lastHeader = m[1]
	}

	if m := fenceRe.FindStringSubmatch(text); m != nil {
		p.Code = m[1]
	} else if lastHeader >= 0 {
		p.Code = text[lastHeader:]
	}
	p.Code = strings.Trim(p.Code, "\n")

	switch {
	case p.Name == "":
		return p, fmt.Errorf("%w: block proposal has no NAME", domain.ErrParseFailure)
	case !identifierRe.MatchString(p.Name):
		return p, fmt.Errorf("%w: block name %q is not an identifier", domain.ErrParseFailure, p.Name)
	case strings.TrimSpace(p.Code) == "":
		return p, fmt.Errorf("%w: block proposal has no code", domain.ErrParseFailure)
	}
	if p.Category == "" || !identifierRe.MatchString(p.Category) {
		p.Category = "general"
	}
	return p, nil
}

// CleanName turns a free-form answer into a short self-name.
func CleanName(text string) (string, error) {
	line := firstLine(text)
	var sb strings.Builder
	for _, r := range line {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '-' {
			sb.WriteRune(r)
		}
	}
	name := strings.Join(strings.Fields(sb.String()), " ")
	if r := []rune(name); len(r) > 32 {
		name = strings.TrimSpace(string(r[:32]))
	}
	if name == "" {
		return "", fmt.Errorf("%w: no usable name in %q", domain.ErrParseFailure, line)
	}
	return name, nil
}

// CleanText trims a free-form answer to at most max runes.
func CleanText(text string, max int) string {
	text = strings.Join(strings.Fields(text), " ")
	if r := []rune(text); max > 0 && len(r) > max {
		text = strings.TrimSpace(string(r[:max]))
	}
	return text
}

func firstLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			return line
		}
	}
	return ""
}
