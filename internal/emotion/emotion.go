// Package emotion holds the agent's bounded emotional scalars and the fixed
// per-tick rules that move them.
package emotion

import (
	"time"

	"github.com/Harshitk-cp/lumen/internal/domain"
)

type Name string

const (
	Joy          Name = "joy"
	Curiosity    Name = "curiosity"
	Calm         Name = "calm"
	Satisfaction Name = "satisfaction"
	Anxiety      Name = "anxiety"
	Boredom      Name = "boredom"
	Melancholy   Name = "melancholy"
)

// All lists every scalar in tie-break order for Dominant.
var All = []Name{Joy, Curiosity, Calm, Satisfaction, Anxiety, Boredom, Melancholy}

func (n Name) Positive() bool {
	return n == Joy || n == Calm || n == Satisfaction
}

func (n Name) Negative() bool {
	return n == Anxiety || n == Boredom || n == Melancholy
}

func Valid(n Name) bool {
	for _, a := range All {
		if a == n {
			return true
		}
	}
	return false
}

// Rates are the per-tick constants, read from the zone each tick.
type Rates struct {
	Decay         float32 // distance moved toward baseline
	BoredomGrowth float32
	Baseline      float32
}

var DefaultRates = Rates{Decay: 0.05, BoredomGrowth: 0.03, Baseline: 0.3}

// Model is owned by the scheduler and touched only from its tick.
type Model struct {
	values map[Name]float32
}

func New(baseline float32) *Model {
	m := &Model{values: make(map[Name]float32, len(All))}
	for _, n := range All {
		m.values[n] = domain.Clamp01(baseline)
	}
	m.values[Boredom] = 0
	m.values[Curiosity] = domain.Clamp01(baseline + 0.2)
	return m
}

func (m *Model) Get(n Name) float32 {
	return m.values[n]
}

// Decay moves every scalar but boredom toward the baseline by at most
// r.Decay without overshooting. Boredom only grows; actions relieve it.
func (m *Model) Decay(r Rates) {
	base := domain.Clamp01(r.Baseline)
	for _, n := range All {
		v := m.values[n]
		if n == Boredom {
			m.values[n] = domain.Clamp01(v + r.BoredomGrowth)
			continue
		}
		switch {
		case v > base:
			v -= r.Decay
			if v < base {
				v = base
			}
		case v < base:
			v += r.Decay
			if v > base {
				v = base
			}
		}
		m.values[n] = domain.Clamp01(v)
	}
}

// Nudge shifts one scalar by delta. Unknown names are ignored.
func (m *Model) Nudge(n Name, delta float32) {
	if !Valid(n) {
		return
	}
	m.values[n] = domain.Clamp01(m.values[n] + delta)
}

func (m *Model) Dominant() Name {
	best := All[0]
	for _, n := range All[1:] {
		if m.values[n] > m.values[best] {
			best = n
		}
	}
	return best
}

// Valence is (positive - negative) / (positive + negative), or zero when
// every scalar is at zero.
func (m *Model) Valence() float32 {
	var pos, neg float32
	for _, n := range All {
		switch {
		case n.Positive():
			pos += m.values[n]
		case n.Negative():
			neg += m.values[n]
		}
	}
	total := pos + neg
	if total == 0 {
		return 0
	}
	return domain.ClampSigned((pos - neg) / total)
}

func (m *Model) Snapshot() map[string]float32 {
	out := make(map[string]float32, len(m.values))
	for n, v := range m.values {
		out[string(n)] = v
	}
	return out
}

func (m *Model) Sample(now time.Time) domain.EmotionSample {
	return domain.EmotionSample{
		Values:    m.Snapshot(),
		Dominant:  string(m.Dominant()),
		Valence:   m.Valence(),
		CreatedAt: now,
	}
}

// Restore loads values from a persisted sample. Names the model does not
// know are dropped and missing ones keep their current value.
func (m *Model) Restore(s domain.EmotionSample) {
	for k, v := range s.Values {
		n := Name(k)
		if Valid(n) {
			m.values[n] = domain.Clamp01(v)
		}
	}
}
