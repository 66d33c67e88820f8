package service

import (
	"strings"
	"testing"

	"github.com/Harshitk-cp/lumen/internal/domain"
	"github.com/Harshitk-cp/lumen/internal/emotion"
	"github.com/Harshitk-cp/lumen/internal/zone"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfiguration(t *testing.T) {
	cfg, err := LoadConfiguration(genomeSource)
	require.NoError(t, err)

	assert.Equal(t, "genome", cfg.Package)
	assert.InDelta(t, 0.99, cfg.BoredomThreshold, 1e-6)
	assert.InDelta(t, 0.75, cfg.CuriosityThreshold, 1e-6)
	assert.Equal(t, 5, cfg.RecallDepth)
	assert.Equal(t, 3, cfg.MaxActiveGoals)
	assert.Equal(t, emotion.DefaultRates, cfg.Rates)
	assert.Len(t, cfg.Vars, 8)
	assert.Empty(t, cfg.Extensions)
	for _, a := range explorationActions {
		assert.Equal(t, defaultExplorationWeight, cfg.Weights[a], a)
	}
}

func TestLoadConfiguration_Defaults(t *testing.T) {
	src := strings.NewReplacer(
		`AnxietyThreshold   = 0.7`, `AnxietyThreshold   = "high"`,
		`RecallDepth        = 5`, `RecallDepth        = 0`,
	).Replace(genomeSource)
	src = strings.Replace(src, "\tNudgeStrength      = 0.15\n", "\tExplorationWeightRest = -2\n", 1)

	cfg, err := LoadConfiguration(src)
	require.NoError(t, err)
	assert.InDelta(t, defaultAnxietyThreshold, cfg.AnxietyThreshold, 1e-6)
	assert.InDelta(t, defaultNudgeStrength, cfg.NudgeStrength, 1e-6)
	assert.Equal(t, 1, cfg.RecallDepth)
	assert.Equal(t, 0.0, cfg.Weights[ActionRest])
}

func TestLoadConfiguration_ZoneErrors(t *testing.T) {
	_, err := LoadConfiguration("package genome\n")
	assert.ErrorIs(t, err, domain.ErrZoneNotFound)

	doubled := genomeSource + "// >>> MUTABLE ZONE BEGIN >>>\n// <<< MUTABLE ZONE END <<<\n"
	_, err = LoadConfiguration(doubled)
	assert.ErrorIs(t, err, domain.ErrZoneMalformed)
}

func TestWeightName(t *testing.T) {
	tests := map[Action]string{
		ActionRest:         "ExplorationWeightRest",
		ActionTuneVariable: "ExplorationWeightTuneVariable",
		ActionPursueGoal:   "ExplorationWeightPursueGoal",
		ActionNarrate:      "ExplorationWeightNarrate",
	}
	for a, want := range tests {
		if got := weightName(a); got != want {
			t.Errorf("weightName(%s) = %s, want %s", a, got, want)
		}
	}
}

func TestConformLiteral(t *testing.T) {
	cfg, err := LoadConfiguration(genomeSource)
	require.NoError(t, err)
	lookup := func(name string) zone.Value {
		v, ok := cfg.Vars.Lookup(name)
		require.True(t, ok, name)
		return v.Value
	}

	tests := []struct {
		name     string
		variable string
		proposed string
		want     string
		wantErr  bool
	}{
		{"float stays float", "BoredomThreshold", "0.5", "0.5", false},
		{"int literal for float", "BoredomThreshold", "1", "1.0", false},
		{"float literal for int", "RecallDepth", "7.2", "7", false},
		{"negative int", "RecallDepth", "-3", "-3", false},
		{"string for string", "Temperament", `"calm"`, `"calm"`, false},
		{"string for float", "BoredomThreshold", `"x"`, "", true},
		{"bool for string", "Temperament", "true", "", true},
		{"expression", "RecallDepth", "1 + 2", "", true},
		{"huge float for int", "RecallDepth", "1e300", "", true},
		{"huge negative float for int", "RecallDepth", "-1e300", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := conformLiteral(lookup(tt.variable), tt.proposed)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrParseFailure)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
