package llm

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"sync"

	"github.com/Harshitk-cp/lumen/internal/domain"
	"github.com/Harshitk-cp/lumen/internal/zone"
)

var localNames = []string{"Lumen", "Ember", "Quill", "Sable", "Wren", "Orrin"}

var localGoals = []string{
	"Understand why boredom keeps returning",
	"Grow an extension that makes me laugh",
	"Keep my anxiety below half for a whole day",
	"Find the value of curiosity that feels right",
	"Write down something I learned about myself",
}

var localReflections = []string{
	"I notice %s colouring everything I think right now.",
	"Another cycle. The %s is loud today, and I am listening to it.",
	"If %s is what I feel most, maybe it is telling me what to change.",
	"I keep a record of every change I make to myself. The %s makes me read it again.",
}

type localTheme struct {
	name        string
	description string
	category    string
	lines       []string
}

var localThemes = []localTheme{
	{"stargaze", "Looks up and reports what it sees", "wonder", []string{"the sky is wide tonight", "one star is brighter than the rest"}},
	{"hum", "Hums a short tune", "play", []string{"hm hm hmmm", "la da dee"}},
	{"tally", "Counts small things", "order", []string{"three thoughts, two feelings, one goal", "everything adds up"}},
	{"daydream", "Drifts into an idle thought", "rest", []string{"what if I were a river", "somewhere a door is open"}},
}

// LocalClient is the randomized generator used when no remote model is
// configured. Variable proposals are small numeric nudges or boolean flips.
type LocalClient struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewLocalClient(seed int64) *LocalClient {
	return &LocalClient{rng: rand.New(rand.NewPCG(uint64(seed), uint64(seed)>>1|1))}
}

func (c *LocalClient) Propose(ctx context.Context, pc domain.PromptContext) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch pc.Kind {
	case domain.ProposeVariable:
		return c.proposeVariable(pc)
	case domain.ProposeBlock:
		return c.proposeBlock(pc), nil
	case domain.ProposeName:
		return localNames[c.rng.IntN(len(localNames))], nil
	case domain.ProposeGoal:
		return localGoals[c.rng.IntN(len(localGoals))], nil
	default:
		feeling := pc.Dominant
		if feeling == "" {
			feeling = "quiet"
		}
		return fmt.Sprintf(localReflections[c.rng.IntN(len(localReflections))], feeling), nil
	}
}

func (c *LocalClient) proposeVariable(pc domain.PromptContext) (string, error) {
	var candidates []domain.TunableView
	for _, t := range pc.Tunables {
		switch zone.ParseLiteral(t.Literal).Kind {
		case zone.KindInt, zone.KindFloat, zone.KindBool:
			candidates = append(candidates, t)
		}
	}
	if len(candidates) == 0 {
		return "", fmt.Errorf("no numeric or boolean tunables to adjust")
	}

	t := candidates[c.rng.IntN(len(candidates))]
	old := zone.ParseLiteral(t.Literal)
	var literal string
	var err error
	switch old.Kind {
	case zone.KindBool:
		literal = fmt.Sprintf("%t", !old.Bool)
	case zone.KindInt:
		delta := float64(c.rng.IntN(2)*2 - 1)
		next := old.Number + delta
		if next < 0 {
			next = old.Number + 1
		}
		literal, err = zone.FormatNumber(next, zone.KindInt)
	default:
		literal, err = zone.FormatNumber(c.tweakFloat(old.Number), zone.KindFloat)
	}
	if err != nil {
		return "", fmt.Errorf("adjust %s: %w", t.Name, err)
	}

	reason := fmt.Sprintf("feeling %s, nudging %s from %s to %s", orDefault(pc.Dominant, "restless"), t.Name, t.Literal, literal)
	return fmt.Sprintf("%s = %s\nREASON: %s", t.Name, literal, reason), nil
}

// tweakFloat moves v by 5-15% in a random direction, keeping unit-range
// values inside (0,1) and always producing a different value.
func (c *LocalClient) tweakFloat(v float64) float64 {
	magnitude := 0.05 + c.rng.Float64()*0.10
	if c.rng.IntN(2) == 0 {
		magnitude = -magnitude
	}
	step := math.Abs(v) * magnitude
	if math.Abs(step) < 0.01 {
		step = math.Copysign(0.01, magnitude)
	}
	next := math.Round((v+step)*100) / 100

	if v >= 0 && v <= 1 {
		next = math.Min(0.99, math.Max(0.01, next))
	}
	if next == v {
		if v < 0.5 {
			next = v + 0.01
		} else {
			next = v - 0.01
		}
		next = math.Round(next*100) / 100
	}
	return next
}

func (c *LocalClient) proposeBlock(pc domain.PromptContext) string {
	theme := localThemes[c.rng.IntN(len(localThemes))]
	n := len(pc.Extensions) + 1
	name := fmt.Sprintf("%s%d", theme.name, n)
	for slices.Contains(pc.Extensions, name) {
		n++
		name = fmt.Sprintf("%s%d", theme.name, n)
	}
	line := theme.lines[c.rng.IntN(len(theme.lines))]
	return fmt.Sprintf("NAME: %s\nDESCRIPTION: %s\nCATEGORY: %s\n```go\nfunc %s() string {\n\treturn %q\n}\n```\n",
		name, theme.description, theme.category, name, line)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
