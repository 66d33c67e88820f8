package llm

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Harshitk-cp/lumen/internal/domain"
)

const variablePrompt = `You are the inner voice of %s, a program that can rewrite a few of its own constants.

Current feelings (0..1): %s
Dominant feeling: %s

Tunable constants:
%s

Pick exactly ONE constant and propose a new value of the same type. Keep numeric
changes small. Respond with exactly two lines and nothing else:
NAME = literal
REASON: one sentence explaining the change`

const blockPrompt = `You are the inner voice of %s, a program that can grow new Go code inside itself.

Current feelings (0..1): %s
Extensions already grown: %s

Write ONE small, self-contained Go declaration (a function, constant or variable)
for package genome. It must not import anything, must not call other grown
extensions and must compile on its own. Respond in exactly this format:
NAME: short_identifier
DESCRIPTION: one sentence
CATEGORY: one word
` + "```go" + `
<code>
` + "```"

const narrativePrompt = `You are %s, a program reflecting on its own existence.

Current feelings (0..1): %s
Current goal: %s
Recent memories:
%s

Write two or three sentences of first-person reflection. Plain text only.`

const namePrompt = `You are a newly awakened program with no name yet.

Current feelings (0..1): %s

Choose a name for yourself. Respond with ONLY the name, one or two words.`

const goalPrompt = `You are %s, a program deciding what to pursue next.

Current feelings (0..1): %s
Recent memories:
%s

Propose ONE goal for yourself. Respond with ONLY the goal, one sentence.`

func formatEmotions(e map[string]float32) string {
	if len(e) == 0 {
		return "unknown"
	}
	names := make([]string, 0, len(e))
	for n := range e {
		names = append(names, n)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, n := range names {
		parts = append(parts, fmt.Sprintf("%s=%.2f", n, e[n]))
	}
	return strings.Join(parts, ", ")
}

func formatTunables(ts []domain.TunableView) string {
	var sb strings.Builder
	for _, t := range ts {
		sb.WriteString(fmt.Sprintf("- %s = %s (%s)", t.Name, t.Literal, t.Kind))
		if t.Comment != "" {
			sb.WriteString(" ")
			sb.WriteString(t.Comment)
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func bulletList(items []string) string {
	if len(items) == 0 {
		return "(none)"
	}
	return "- " + strings.Join(items, "\n- ")
}

func selfName(pc domain.PromptContext) string {
	if pc.SelfName == "" {
		return "an unnamed program"
	}
	return pc.SelfName
}

// BuildPrompt renders the request text for a proposal kind.
func BuildPrompt(pc domain.PromptContext) string {
	emotions := formatEmotions(pc.Emotions)
	switch pc.Kind {
	case domain.ProposeVariable:
		return fmt.Sprintf(variablePrompt, selfName(pc), emotions, pc.Dominant, formatTunables(pc.Tunables))
	case domain.ProposeBlock:
		grown := "(none)"
		if len(pc.Extensions) > 0 {
			grown = strings.Join(pc.Extensions, ", ")
		}
		return fmt.Sprintf(blockPrompt, selfName(pc), emotions, grown)
	case domain.ProposeName:
		return fmt.Sprintf(namePrompt, emotions)
	case domain.ProposeGoal:
		return fmt.Sprintf(goalPrompt, selfName(pc), emotions, bulletList(pc.Recent))
	default:
		goal := pc.Goal
		if goal == "" {
			goal = "(none)"
		}
		return fmt.Sprintf(narrativePrompt, selfName(pc), emotions, goal, bulletList(pc.Recent))
	}
}

// temperature per kind; code wants to be boring.
func temperature(kind domain.ProposalKind) float32 {
	switch kind {
	case domain.ProposeBlock:
		return 0.4
	case domain.ProposeVariable:
		return 0.6
	default:
		return 0.9
	}
}
