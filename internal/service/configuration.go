package service

import (
	"go/parser"
	"go/token"

	"github.com/Harshitk-cp/lumen/internal/emotion"
	"github.com/Harshitk-cp/lumen/internal/zone"
)

// Defaults apply when the zone does not declare a tunable or declares it
// with the wrong kind.
const (
	defaultBoredomThreshold   = 0.8
	defaultCuriosityThreshold = 0.75
	defaultAnxietyThreshold   = 0.7
	defaultRestThreshold      = 0.2
	defaultNudgeStrength      = 0.15
	defaultRecallDepth        = 5
	defaultMaxActiveGoals     = 3
	defaultExplorationWeight  = 1.0
)

// Configuration is the agent's behavior as read from the mutable zone.
// It is rebuilt at the start of every tick so a committed mutation takes
// effect on the first tick after restart.
type Configuration struct {
	Package string

	BoredomThreshold   float32
	CuriosityThreshold float32
	AnxietyThreshold   float32
	RestThreshold      float32
	NudgeStrength      float32
	Rates              emotion.Rates

	RecallDepth    int
	MaxActiveGoals int
	Weights        map[Action]float64

	Vars       zone.Variables
	Extensions []zone.Block
}

// LoadConfiguration parses the live source. A missing or malformed zone is
// returned unwrapped so the caller can treat it as fatal.
func LoadConfiguration(source string) (*Configuration, error) {
	z, err := zone.Extract(source)
	if err != nil {
		return nil, err
	}
	vars := zone.ParseVariables(z.Text)

	c := &Configuration{
		Package:            packageName(source),
		BoredomThreshold:   floatVar(vars, "BoredomThreshold", defaultBoredomThreshold),
		CuriosityThreshold: floatVar(vars, "CuriosityThreshold", defaultCuriosityThreshold),
		AnxietyThreshold:   floatVar(vars, "AnxietyThreshold", defaultAnxietyThreshold),
		RestThreshold:      floatVar(vars, "RestThreshold", defaultRestThreshold),
		NudgeStrength:      floatVar(vars, "NudgeStrength", defaultNudgeStrength),
		Rates: emotion.Rates{
			Decay:         floatVar(vars, "DecayRate", emotion.DefaultRates.Decay),
			BoredomGrowth: floatVar(vars, "BoredomGrowth", emotion.DefaultRates.BoredomGrowth),
			Baseline:      floatVar(vars, "Baseline", emotion.DefaultRates.Baseline),
		},
		RecallDepth:    intVar(vars, "RecallDepth", defaultRecallDepth),
		MaxActiveGoals: intVar(vars, "MaxActiveGoals", defaultMaxActiveGoals),
		Weights:        make(map[Action]float64, len(explorationActions)),
		Vars:           vars,
		Extensions:     zone.ParseRegistry(source),
	}
	for _, a := range explorationActions {
		w := float64(floatVar(vars, weightName(a), defaultExplorationWeight))
		if w < 0 {
			w = 0
		}
		c.Weights[a] = w
	}
	if c.RecallDepth < 1 {
		c.RecallDepth = 1
	}
	if c.MaxActiveGoals < 1 {
		c.MaxActiveGoals = 1
	}
	return c, nil
}

func floatVar(vars zone.Variables, name string, def float32) float32 {
	v, ok := vars.Lookup(name)
	if !ok || !v.Value.Kind.Numeric() {
		return def
	}
	return float32(v.Value.Number)
}

func intVar(vars zone.Variables, name string, def int) int {
	v, ok := vars.Lookup(name)
	if !ok || !v.Value.Kind.Numeric() {
		return def
	}
	return int(v.Value.Number)
}

// weightName maps rest to ExplorationWeightRest, pursue_goal to
// ExplorationWeightPursueGoal.
func weightName(a Action) string {
	out := []byte("ExplorationWeight")
	upper := true
	for i := 0; i < len(a); i++ {
		c := a[i]
		if c == '_' {
			upper = true
			continue
		}
		if upper && c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		upper = false
		out = append(out, c)
	}
	return string(out)
}

func packageName(source string) string {
	f, err := parser.ParseFile(token.NewFileSet(), "", source, parser.PackageClauseOnly)
	if err != nil || f.Name == nil {
		return "main"
	}
	return f.Name.Name
}
