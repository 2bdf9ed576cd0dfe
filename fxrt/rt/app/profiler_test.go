package app

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func steppingClock(step time.Duration) func() time.Time {
	t := time.Unix(0, 0)
	return func() time.Time {
		t = t.Add(step)
		return t
	}
}

func TestProfilerScopesKeepFirstSeenOrder(t *testing.T) {
	p := NewProfiler()
	p.now = steppingClock(2 * time.Millisecond)

	for _, name := range []string{"Step", "Shadow", "Environment", "Composite"} {
		p.Scope(name)()
	}
	p.Scope("Step")()

	assert.Equal(t, []string{"Step", "Shadow", "Environment", "Composite"}, p.Order)
	assert.Equal(t, 2*time.Millisecond, p.Scopes["Shadow"])
	assert.Empty(t, p.StartTimes)
}

func TestProfilerEndWithoutBeginIsIgnored(t *testing.T) {
	p := NewProfiler()
	p.EndScope("Composite")
	assert.NotContains(t, p.Scopes, "Composite")
}

func TestProfilerStatsString(t *testing.T) {
	p := NewProfiler()
	p.now = steppingClock(1500 * time.Microsecond)
	p.Scope("Step")()
	p.SetCount("Particles", 6400)
	p.SetCount("Anchors", 1)

	stats := p.GetStatsString()
	require.Contains(t, stats, "Step")
	assert.Contains(t, stats, "1.50 ms")
	assert.Less(t, strings.Index(stats, "Anchors"), strings.Index(stats, "Particles"))
	assert.Contains(t, stats, "6400")

	p.Reset()
	assert.Equal(t, time.Duration(0), p.Scopes["Step"])
}
