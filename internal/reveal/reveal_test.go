package reveal

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func at(ms int) time.Time { return t0.Add(time.Duration(ms) * time.Millisecond) }

func TestCounter_MonotonicAndExactEndpoint(t *testing.T) {
	c := NewCounter(73, GlobalDuration, nil)
	require.True(t, c.Start(t0))

	prev := 0
	for ms := 0; ms <= 6000; ms += 37 {
		c.Tick(at(ms))
		require.GreaterOrEqual(t, c.Value(), prev, "value went down at %dms", ms)
		prev = c.Value()
	}
	c.Tick(at(6000))
	assert.Equal(t, 73, c.Value())
	assert.True(t, c.Done())

	c.Tick(at(9000))
	assert.Equal(t, 73, c.Value())
}

func TestCounter_JitteredClockNeverDecreases(t *testing.T) {
	c := NewCounter(100, time.Second, nil)
	c.Start(t0)
	c.Tick(at(600))
	assert.Equal(t, 60, c.Value())
	c.Tick(at(400))
	assert.Equal(t, 60, c.Value())
	c.Tick(at(700))
	assert.Equal(t, 70, c.Value())
}

func TestCounter_RoundsHalfUp(t *testing.T) {
	c := NewCounter(5, time.Second, nil)
	c.Start(t0)
	c.Tick(at(500))
	assert.Equal(t, 3, c.Value())
}

func TestCounter_StartIsLatched(t *testing.T) {
	c := NewCounter(73, GlobalDuration, nil)
	require.True(t, c.Start(t0))
	c.Tick(at(3000))
	mid := c.Value()
	require.Equal(t, 37, mid)

	assert.False(t, c.Start(at(3000)))
	c.SetTarget(10)
	c.Tick(at(3100))
	assert.GreaterOrEqual(t, c.Value(), mid)
	assert.Equal(t, 73, c.Target())

	c.Tick(at(6000))
	assert.Equal(t, 73, c.Value())
}

func TestCounter_SetTargetBeforeStart(t *testing.T) {
	c := NewCounter(1, time.Second, nil)
	c.SetTarget(40)
	c.Start(t0)
	c.Tick(at(1000))
	assert.Equal(t, 40, c.Value())
}

func TestAnimation_CompletionFiresOnce(t *testing.T) {
	calls := 0
	a := NewAnimation(time.Second, func() { calls++ })
	a.Start(t0)
	a.Tick(at(999))
	assert.Equal(t, 0, calls)
	a.Tick(at(1000))
	a.Tick(at(1500))
	assert.Equal(t, 1, calls)
	assert.Equal(t, t0.Add(time.Second), a.EndsAt())
}

func TestAnimation_StopSuppressesCompletion(t *testing.T) {
	calls := 0
	a := NewAnimation(time.Second, func() { calls++ })
	a.Start(t0)
	a.Tick(at(400))
	a.Stop()
	a.Tick(at(2000))
	assert.Equal(t, 0, calls)
	assert.False(t, a.Done())
	assert.InDelta(t, 0.4, a.Progress(), 1e-9)
	assert.False(t, a.Start(at(2000)), "stopped animations stay latched")
}

func TestAnimation_ZeroDuration(t *testing.T) {
	a := NewAnimation(0, nil)
	assert.True(t, a.EndsAt().IsZero())
	a.Start(t0)
	a.Tick(t0)
	assert.True(t, a.Done())
}

func TestBar(t *testing.T) {
	b := NewBar(0.8, SectionDuration, nil)
	b.Start(t0)
	b.Tick(at(1000))
	assert.InDelta(t, 0.4, b.Fill(), 1e-9)
	assert.Equal(t, 40, b.Percent())

	over := NewBar(1.4, time.Second, nil)
	over.Start(t0)
	over.Tick(at(1000))
	assert.Equal(t, 1.0, over.Fill())
}

func TestStaggerDelay(t *testing.T) {
	assert.Equal(t, 300*time.Millisecond, StaggerDelay(0))
	assert.Equal(t, 800*time.Millisecond, StaggerDelay(1))
	assert.Equal(t, 1800*time.Millisecond, StaggerDelay(3))
	assert.Equal(t, 300*time.Millisecond, StaggerDelay(-2))
}

func TestNext(t *testing.T) {
	to, ok := Next(Initial, GlobalComplete)
	assert.True(t, ok)
	assert.Equal(t, GlobalRevealed, to)

	_, ok = Next(Initial, Auto)
	assert.False(t, ok)
	_, ok = Next(Initial, LastSectionComplete)
	assert.False(t, ok)
	_, ok = Next(DetailRevealed, GlobalComplete)
	assert.False(t, ok)
}

func TestSequencer_Phases(t *testing.T) {
	var phases []string
	globalDone, sectionsDone := 0, 0
	s := NewSequencer(
		Target{Value: 54, Fraction: 54.0 / 70},
		[]Target{{Value: 85, Fraction: 0.85}, {Value: 80, Fraction: 0.8}, {Value: 70, Fraction: 0.7}},
		OnPhase(func(from, to Phase) { phases = append(phases, from.String()+">"+to.String()) }),
		OnGlobalComplete(func() { globalDone++ }),
		OnSectionsComplete(func() { sectionsDone++ }),
	)
	require.Equal(t, Initial, s.Phase())

	s.Tick(at(1000))
	assert.Equal(t, 0, s.Frame().Global.Value, "nothing moves before Start")

	require.True(t, s.Start(t0))
	assert.False(t, s.Start(t0))

	s.Tick(at(3000))
	assert.Equal(t, Initial, s.Phase())
	assert.Equal(t, 27, s.Frame().Global.Value)

	s.Tick(at(6000))
	assert.Equal(t, DetailRevealed, s.Phase())
	assert.Equal(t, []string{
		"initial>global_revealed",
		"global_revealed>sections_revealed",
		"sections_revealed>detail_revealed",
	}, phases)
	assert.Equal(t, 1, globalDone)
	f := s.Frame()
	assert.Equal(t, 54, f.Global.Value)
	assert.False(t, f.Sections[0].Started)

	// row 0 starts at +300ms, row 1 at +800ms, row 2 at +1300ms
	s.Tick(at(6300 + 1000))
	f = s.Frame()
	assert.True(t, f.Sections[0].Started)
	assert.Equal(t, 43, f.Sections[0].Value)
	assert.InDelta(t, 0.425, f.Sections[0].Fill, 1e-9)
	assert.True(t, f.Sections[1].Started)
	assert.True(t, f.Sections[2].Started)

	s.Tick(at(6000 + 1300 + 1999))
	assert.Equal(t, 0, sectionsDone)
	assert.True(t, s.Frame().Sections[1].Done)

	s.Tick(at(6000 + 1300 + 2000))
	assert.Equal(t, 1, sectionsDone)
	assert.True(t, s.SectionsComplete())

	s.Tick(at(20000))
	assert.Equal(t, 1, sectionsDone)
	assert.Equal(t, 1, globalDone)
	assert.Equal(t, DetailRevealed, s.Phase())
}

func TestSequencer_LateSampleStillUsesStaggerFromGlobalEnd(t *testing.T) {
	s := NewSequencer(Target{Value: 10, Fraction: 1}, []Target{{Value: 50, Fraction: 0.5}})
	s.Start(t0)
	// first sample after the headline ended lands 1s late
	s.Tick(at(7300))
	f := s.Frame()
	require.Equal(t, DetailRevealed, f.Phase)
	// row 0 started at 6300, so it is exactly half way
	assert.Equal(t, 25, f.Sections[0].Value)
}

func TestSequencer_NoSections(t *testing.T) {
	done := 0
	s := NewSequencer(Target{Value: 0}, nil, OnSectionsComplete(func() { done++ }))
	s.Start(t0)
	s.Tick(at(6000))
	assert.Equal(t, DetailRevealed, s.Phase())
	assert.Equal(t, 1, done)
}

func TestSequencer_StopAndReset(t *testing.T) {
	globalDone := 0
	s := NewSequencer(Target{Value: 73, Fraction: 0.73}, []Target{{Value: 1, Fraction: 1}},
		OnGlobalComplete(func() { globalDone++ }))
	s.Start(t0)
	s.Tick(at(2000))
	s.Stop()
	s.Tick(at(7000))
	assert.Equal(t, Initial, s.Phase())
	assert.Equal(t, 0, globalDone)
	assert.False(t, s.Start(at(7000)))

	s.Reset()
	assert.Equal(t, Initial, s.Phase())
	assert.Equal(t, 0, s.Frame().Global.Value)
	require.True(t, s.Start(at(8000)))
	s.Tick(at(14000))
	assert.Equal(t, 1, globalDone)
	assert.Equal(t, 73, s.Frame().Global.Value)
}

func TestSequencer_CustomDurations(t *testing.T) {
	s := NewSequencer(Target{Value: 4}, []Target{{Value: 1}, {Value: 2}},
		WithGlobalDuration(100*time.Millisecond),
		WithSectionDuration(50*time.Millisecond),
		WithStagger(10*time.Millisecond, 0),
	)
	s.Start(t0)
	s.Tick(at(100))
	s.Tick(at(160))
	assert.True(t, s.SectionsComplete())
}

func TestPlan(t *testing.T) {
	tl := Plan(4)
	assert.Equal(t, int64(6000), tl.Global.DurationMS)
	require.Len(t, tl.Sections, 4)
	assert.Equal(t, int64(6300), tl.Sections[0].OffsetMS)
	assert.Equal(t, int64(6800), tl.Sections[1].OffsetMS)
	assert.Equal(t, int64(7800), tl.Sections[3].OffsetMS)
	assert.Equal(t, int64(9800), tl.TotalMS)
	assert.Equal(t, tl.TotalMS, tl.CTADelayMS)

	empty := Plan(-1)
	assert.Empty(t, empty.Sections)
	assert.Equal(t, int64(6000), empty.TotalMS)
}

func TestPlan_MatchesSequencer(t *testing.T) {
	tl := Plan(3)
	s := NewSequencer(Target{Value: 1}, []Target{{Value: 1}, {Value: 1}, {Value: 1}})
	s.Start(t0)
	s.Tick(at(int(tl.TotalMS) - 1))
	assert.False(t, s.SectionsComplete())
	s.Tick(at(int(tl.TotalMS)))
	assert.True(t, s.SectionsComplete())
}

func TestSimulate(t *testing.T) {
	s := NewSequencer(Target{Value: 54, Fraction: 0.77}, []Target{{Value: 85, Fraction: 0.85}})
	frames := Simulate(s, t0, 500*time.Millisecond)
	require.NotEmpty(t, frames)
	last := frames[len(frames)-1]
	assert.Equal(t, DetailRevealed, last.Phase)
	assert.Equal(t, 85, last.Sections[0].Value)
	assert.True(t, last.Sections[0].Done)
	for i := 1; i < len(frames); i++ {
		assert.GreaterOrEqual(t, frames[i].Global.Value, frames[i-1].Global.Value)
	}
}

func TestDrive_StopsOnContext(t *testing.T) {
	s := NewSequencer(Target{Value: 10}, []Target{{Value: 1}})
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	err := Drive(ctx, s, 5*time.Millisecond, nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, Initial, s.Phase())
}

func TestDrive_Completes(t *testing.T) {
	s := NewSequencer(Target{Value: 10}, []Target{{Value: 1}},
		WithGlobalDuration(10*time.Millisecond),
		WithSectionDuration(10*time.Millisecond),
		WithStagger(0, 0),
	)
	frames := 0
	err := Drive(context.Background(), s, 2*time.Millisecond, func(Frame) { frames++ })
	require.NoError(t, err)
	assert.True(t, s.SectionsComplete())
	assert.Positive(t, frames)
}

func TestFrame_JSONUsesPhaseNames(t *testing.T) {
	b, err := json.Marshal(Frame{Phase: SectionsRevealed})
	require.NoError(t, err)
	assert.Contains(t, string(b), `"phase":"sections_revealed"`)
}

func TestPhase_UnmarshalText(t *testing.T) {
	var f Frame
	require.NoError(t, json.Unmarshal([]byte(`{"phase":"detail_revealed"}`), &f))
	assert.Equal(t, DetailRevealed, f.Phase)
	assert.Error(t, json.Unmarshal([]byte(`{"phase":"done"}`), &f))
}
