// Package reveal drives the staged disclosure of a results page: the headline counter,
// then the per-section bars.
//
// All animations are sampled: the owner calls Tick with the current time on every frame
// and reads the values back. Progress depends only on elapsed wall-clock time, never on
// how many frames were sampled. Types in this package are not safe for concurrent use;
// they belong to a single view.
package reveal

import (
	"math"
	"time"
)

const (
	// GlobalDuration is how long the headline counter runs.
	GlobalDuration = 6000 * time.Millisecond
	// SectionDuration is how long each section bar runs.
	SectionDuration = 2000 * time.Millisecond
	// StaggerStep separates consecutive section bars.
	StaggerStep = 500 * time.Millisecond
	// StaggerOffset delays the first section bar.
	StaggerOffset = 300 * time.Millisecond
)

// StaggerDelay is the start offset of section row i, relative to the moment sections
// are revealed.
func StaggerDelay(i int) time.Duration {
	if i < 0 {
		i = 0
	}
	return time.Duration(i)*StaggerStep + StaggerOffset
}

// Animation is a fixed-duration progress from 0 to 1.
//
// Start is latched: once an animation has started it never restarts, even after Stop.
// The completion callback runs at most once, from the Tick that reaches the end.
type Animation struct {
	duration   time.Duration
	onComplete func()

	hasAnimated bool
	running     bool
	done        bool
	startedAt   time.Time
	progress    float64
}

// NewAnimation returns an idle animation. onComplete may be nil.
func NewAnimation(d time.Duration, onComplete func()) *Animation {
	return &Animation{duration: d, onComplete: onComplete}
}

// Start begins the animation at now. It reports false, and does nothing, when the
// animation has already been started once.
func (a *Animation) Start(now time.Time) bool {
	if a.hasAnimated {
		return false
	}
	a.hasAnimated = true
	a.running = true
	a.startedAt = now
	return true
}

// Tick samples the animation at now.
func (a *Animation) Tick(now time.Time) {
	if !a.running {
		return
	}
	p := 1.0
	if a.duration > 0 {
		p = math.Min(float64(now.Sub(a.startedAt))/float64(a.duration), 1)
	}
	// a clock sampled out of order must not move the value backwards
	if p > a.progress {
		a.progress = p
	}
	if a.progress >= 1 {
		a.running = false
		a.done = true
		if a.onComplete != nil {
			a.onComplete()
		}
	}
}

// Stop cancels an in-flight animation. Completion is not signalled and the value
// freezes where it is.
func (a *Animation) Stop() {
	a.running = false
}

// Progress is the linear fraction in [0,1] reached so far.
func (a *Animation) Progress() float64 { return a.progress }

// Started reports whether Start has ever succeeded.
func (a *Animation) Started() bool { return a.hasAnimated }

// Running reports whether the animation is ticking.
func (a *Animation) Running() bool { return a.running }

// Done reports whether the animation reached its end.
func (a *Animation) Done() bool { return a.done }

// EndsAt is the instant the animation reaches 1, zero before Start.
func (a *Animation) EndsAt() time.Time {
	if !a.hasAnimated {
		return time.Time{}
	}
	return a.startedAt.Add(a.duration)
}

// Counter animates an integer from 0 to a target.
type Counter struct {
	*Animation
	target int
}

// NewCounter returns an idle counter.
func NewCounter(target int, d time.Duration, onComplete func()) *Counter {
	return &Counter{Animation: NewAnimation(d, onComplete), target: target}
}

// SetTarget changes the value the counter heads to. Ignored once the counter has started.
func (c *Counter) SetTarget(v int) {
	if c.hasAnimated {
		return
	}
	c.target = v
}

// Target is the final value.
func (c *Counter) Target() int { return c.target }

// Value is round(target * progress), rounding halves up.
func (c *Counter) Value() int {
	return int(math.Floor(float64(c.target)*c.progress + 0.5))
}

// Bar animates a fill fraction from 0 to a target in [0,1].
type Bar struct {
	*Animation
	fraction float64
}

// NewBar returns an idle bar. fraction is clamped to [0,1].
func NewBar(fraction float64, d time.Duration, onComplete func()) *Bar {
	return &Bar{Animation: NewAnimation(d, onComplete), fraction: math.Max(0, math.Min(fraction, 1))}
}

// Fill is the fraction of the track currently filled.
func (b *Bar) Fill() float64 { return b.fraction * b.progress }

// Percent is the whole percentage label shown next to the bar.
func (b *Bar) Percent() int {
	return int(math.Floor(b.Fill()*100 + 0.5))
}
