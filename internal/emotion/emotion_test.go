package emotion

import (
	"testing"
	"time"

	"github.com/Harshitk-cp/lumen/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestDecayMovesTowardBaseline(t *testing.T) {
	m := New(0.3)
	m.Nudge(Joy, 0.6)    // 0.9
	m.Nudge(Anxiety, -1) // 0

	r := Rates{Decay: 0.1, BoredomGrowth: 0.05, Baseline: 0.3}
	m.Decay(r)

	assert.InDelta(t, 0.8, m.Get(Joy), 1e-6)
	assert.InDelta(t, 0.1, m.Get(Anxiety), 1e-6)
	assert.InDelta(t, 0.3, m.Get(Calm), 1e-6)
	assert.InDelta(t, 0.05, m.Get(Boredom), 1e-6)

	for i := 0; i < 50; i++ {
		m.Decay(r)
	}
	assert.InDelta(t, 0.3, m.Get(Joy), 1e-6, "decay must not overshoot the baseline")
	assert.InDelta(t, 0.3, m.Get(Anxiety), 1e-6)
	assert.Equal(t, float32(1), m.Get(Boredom))
}

func TestValuesStayBounded(t *testing.T) {
	m := New(2)
	for _, n := range All {
		v := m.Get(n)
		if v < 0 || v > 1 {
			t.Errorf("%s = %v out of [0,1]", n, v)
		}
	}

	m.Nudge(Joy, 5)
	m.Nudge(Melancholy, -5)
	m.Nudge("ennui", 1)
	assert.Equal(t, float32(1), m.Get(Joy))
	assert.Equal(t, float32(0), m.Get(Melancholy))
	assert.Equal(t, float32(0), m.Get("ennui"))

	m.Decay(Rates{Decay: 3, BoredomGrowth: 3, Baseline: -1})
	for _, n := range All {
		v := m.Get(n)
		if v < 0 || v > 1 {
			t.Errorf("%s = %v out of [0,1] after decay", n, v)
		}
	}
}

func TestDominant(t *testing.T) {
	m := New(0.3)
	m.Nudge(Boredom, 0.9)
	assert.Equal(t, Boredom, m.Dominant())

	flat := New(0)
	flat.Restore(domain.EmotionSample{Values: map[string]float32{"curiosity": 0}})
	assert.Equal(t, Joy, flat.Dominant(), "ties resolve to the first scalar")
}

func TestValence(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]float32
		want   float32
	}{
		{"all zero", map[string]float32{}, 0},
		{"only positive", map[string]float32{"joy": 0.5, "calm": 0.5}, 1},
		{"only negative", map[string]float32{"anxiety": 0.4}, -1},
		{"balanced", map[string]float32{"joy": 0.5, "boredom": 0.5}, 0},
		{"curiosity is neutral", map[string]float32{"curiosity": 1, "satisfaction": 0.3, "melancholy": 0.1}, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New(0)
			m.Restore(domain.EmotionSample{Values: tt.values})
			assert.InDelta(t, tt.want, m.Valence(), 1e-6)
		})
	}
}

func TestSampleRestoreRoundTrip(t *testing.T) {
	m := New(0.3)
	m.Nudge(Curiosity, 0.4)
	m.Nudge(Anxiety, 0.2)

	now := time.Date(2026, 4, 4, 0, 0, 0, 0, time.UTC)
	s := m.Sample(now)
	assert.Len(t, s.Values, len(All))
	assert.Equal(t, string(m.Dominant()), s.Dominant)
	assert.Equal(t, now, s.CreatedAt)

	restored := New(0)
	restored.Restore(s)
	assert.Equal(t, m.Snapshot(), restored.Snapshot())

	restored.Restore(domain.EmotionSample{Values: map[string]float32{"rage": 1, "joy": 4}})
	assert.Equal(t, float32(1), restored.Get(Joy))
	assert.Len(t, restored.Snapshot(), len(All))
}
