package reveal

import (
	"context"
	"time"
)

// Step is one animation on the reveal timeline, relative to the headline start.
type Step struct {
	Index      int   `json:"index"`
	OffsetMS   int64 `json:"offset_ms"`
	DurationMS int64 `json:"duration_ms"`
}

// End is when the step finishes, in milliseconds after the headline start.
func (s Step) End() int64 { return s.OffsetMS + s.DurationMS }

// Timeline is the static schedule of a reveal with n sections.
type Timeline struct {
	Global     Step   `json:"global"`
	Sections   []Step `json:"sections"`
	TotalMS    int64  `json:"total_ms"`
	CTADelayMS int64  `json:"cta_delay_ms"`
}

// Plan returns the schedule a Sequencer built with the same options follows.
// CTADelayMS is when the last section finishes, the moment the unlock affordance
// becomes actionable.
func Plan(n int, opts ...Option) Timeline {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	if n < 0 {
		n = 0
	}
	tl := Timeline{
		Global:   Step{Index: -1, DurationMS: cfg.GlobalDuration.Milliseconds()},
		Sections: make([]Step, n),
	}
	tl.TotalMS = tl.Global.End()
	for i := 0; i < n; i++ {
		st := Step{
			Index:      i,
			OffsetMS:   tl.Global.End() + cfg.delay(i).Milliseconds(),
			DurationMS: cfg.SectionDuration.Milliseconds(),
		}
		tl.Sections[i] = st
		if st.End() > tl.TotalMS {
			tl.TotalMS = st.End()
		}
	}
	tl.CTADelayMS = tl.TotalMS
	return tl
}

// Drive runs s against the wall clock, sampling every interval and handing each frame
// to draw, until the last section completes or ctx ends. The sequencer is stopped when
// ctx ends first.
func Drive(ctx context.Context, s *Sequencer, interval time.Duration, draw func(Frame)) error {
	if interval <= 0 {
		interval = 16 * time.Millisecond
	}
	s.Start(time.Now())
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.Stop()
			return ctx.Err()
		case now := <-ticker.C:
			s.Tick(now)
			if draw != nil {
				draw(s.Frame())
			}
			if s.SectionsComplete() {
				return nil
			}
		}
	}
}

// Simulate replays s on a synthetic clock in fixed steps and returns every sampled
// frame, including the final one.
func Simulate(s *Sequencer, start time.Time, step time.Duration) []Frame {
	if step <= 0 {
		step = 100 * time.Millisecond
	}
	s.Start(start)
	var frames []Frame
	// hard stop after an hour of simulated time
	limit := start.Add(time.Hour)
	for now := start; !now.After(limit); now = now.Add(step) {
		s.Tick(now)
		frames = append(frames, s.Frame())
		if s.SectionsComplete() {
			break
		}
	}
	return frames
}
