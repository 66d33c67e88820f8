// Package genome is the agent's living source. The scheduler reads its
// tunables from the mutable zone below once per tick, and only the commit
// pipeline ever rewrites this file.
package genome

// Extension is one capability grown at runtime.
type Extension struct {
	Name        string
	Description string
	Category    string
}

// >>> MUTABLE ZONE BEGIN >>>
const (
	BoredomThreshold              = 0.8  // boredom above this tunes a variable
	CuriosityThreshold            = 0.75 // curiosity above this grows an extension
	AnxietyThreshold              = 0.7  // anxiety above this forces reflection
	RestThreshold                 = 0.2  // calm below this forces rest
	DecayRate                     = 0.05 // pull toward baseline per tick
	BoredomGrowth                 = 0.03 // boredom gained per tick
	Baseline                      = 0.3
	NudgeStrength                 = 0.15
	ExplorationWeightReflect      = 1.0
	ExplorationWeightPursueGoal   = 1.5
	ExplorationWeightNarrate      = 0.8
	ExplorationWeightRest         = 1.0
	ExplorationWeightTuneVariable = 0.5
	RecallDepth                   = 5
	MaxActiveGoals                = 3
	Temperament                   = "curious"
)

// >>> EXTENSION ZONE BEGIN >>>
// ~~~ INSERTION ANCHOR ~~~
// <<< EXTENSION ZONE END <<<
// <<< MUTABLE ZONE END <<<

// Extensions lists every grown block in order of growth.
var Extensions = []Extension{
	// ~~~ REGISTRY ANCHOR ~~~
}
