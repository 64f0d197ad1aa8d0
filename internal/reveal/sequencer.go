package reveal

import (
	"fmt"
	"time"
)

// Phase is a stage of the results page reveal. Phases only move forward.
type Phase int

const (
	Initial Phase = iota
	GlobalRevealed
	SectionsRevealed
	DetailRevealed
)

func (p Phase) String() string {
	switch p {
	case Initial:
		return "initial"
	case GlobalRevealed:
		return "global_revealed"
	case SectionsRevealed:
		return "sections_revealed"
	case DetailRevealed:
		return "detail_revealed"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// MarshalText encodes the phase by name.
func (p Phase) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *Phase) UnmarshalText(b []byte) error {
	for q := Initial; q <= DetailRevealed; q++ {
		if q.String() == string(b) {
			*p = q
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", b)
}

// Event moves the sequencer between phases.
type Event int

const (
	// GlobalComplete is raised when the headline counter finishes.
	GlobalComplete Event = iota
	// Auto is raised by the sequencer itself on entering a phase that has no gate.
	Auto
	// LastSectionComplete is raised when the last section bar finishes.
	LastSectionComplete
)

func (e Event) String() string {
	switch e {
	case GlobalComplete:
		return "global_complete"
	case Auto:
		return "auto"
	case LastSectionComplete:
		return "last_section_complete"
	default:
		return fmt.Sprintf("Event(%d)", int(e))
	}
}

// transitions is the whole state machine. GlobalRevealed and SectionsRevealed have no
// gate of their own: entering them immediately raises Auto, so section scores and the
// detail tables unlock in the same frame as the headline completes.
var transitions = map[Phase]map[Event]Phase{
	Initial:          {GlobalComplete: GlobalRevealed},
	GlobalRevealed:   {Auto: SectionsRevealed},
	SectionsRevealed: {Auto: DetailRevealed, LastSectionComplete: DetailRevealed},
	DetailRevealed:   {LastSectionComplete: DetailRevealed},
}

var autoAdvance = map[Phase]bool{
	GlobalRevealed:   true,
	SectionsRevealed: true,
}

// Next returns the phase reached from p on e, and whether the transition exists.
func Next(p Phase, e Event) (Phase, bool) {
	to, ok := transitions[p][e]
	return to, ok
}

// Target is what one meter animates to: a displayed value and a bar fill in [0,1].
type Target struct {
	Value    int
	Fraction float64
}

// Option configures a Sequencer.
type Option func(*config)

type config struct {
	GlobalDuration     time.Duration
	SectionDuration    time.Duration
	StaggerStep        time.Duration
	StaggerOffset      time.Duration
	OnPhase            func(from, to Phase)
	OnGlobalComplete   func()
	OnSectionsComplete func()
}

func WithGlobalDuration(d time.Duration) Option  { return func(c *config) { c.GlobalDuration = d } }
func WithSectionDuration(d time.Duration) Option { return func(c *config) { c.SectionDuration = d } }
func WithStagger(step, offset time.Duration) Option {
	return func(c *config) { c.StaggerStep, c.StaggerOffset = step, offset }
}
func OnPhase(fn func(from, to Phase)) Option { return func(c *config) { c.OnPhase = fn } }
func OnGlobalComplete(fn func()) Option      { return func(c *config) { c.OnGlobalComplete = fn } }
func OnSectionsComplete(fn func()) Option    { return func(c *config) { c.OnSectionsComplete = fn } }

func defaultConfig() config {
	return config{
		GlobalDuration:  GlobalDuration,
		SectionDuration: SectionDuration,
		StaggerStep:     StaggerStep,
		StaggerOffset:   StaggerOffset,
	}
}

func (c config) delay(i int) time.Duration {
	return time.Duration(i)*c.StaggerStep + c.StaggerOffset
}

// Sequencer owns the headline counter and the section bars of one results page.
type Sequencer struct {
	cfg      config
	global   Target
	sections []Target

	phase          Phase
	counter        *Counter
	globalBar      *Bar
	rows           []*Bar
	rowCounters    []*Counter
	sectionsAt     time.Time
	sectionsFired  bool
	stopped        bool
	pendingGlobal  bool
	pendingLastRow bool
}

// NewSequencer returns a sequencer in the Initial phase. sections are given in the
// order they animate.
func NewSequencer(global Target, sections []Target, opts ...Option) *Sequencer {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	s := &Sequencer{cfg: cfg, global: global, sections: append([]Target(nil), sections...)}
	s.build()
	return s
}

func (s *Sequencer) build() {
	s.phase = Initial
	s.sectionsAt = time.Time{}
	s.sectionsFired = false
	s.stopped = false
	s.pendingGlobal = false
	s.pendingLastRow = false

	s.counter = NewCounter(s.global.Value, s.cfg.GlobalDuration, func() { s.pendingGlobal = true })
	s.globalBar = NewBar(s.global.Fraction, s.cfg.GlobalDuration, nil)
	s.rows = make([]*Bar, len(s.sections))
	s.rowCounters = make([]*Counter, len(s.sections))
	last := len(s.sections) - 1
	for i, t := range s.sections {
		var done func()
		if i == last {
			done = func() { s.pendingLastRow = true }
		}
		s.rows[i] = NewBar(t.Fraction, s.cfg.SectionDuration, done)
		s.rowCounters[i] = NewCounter(t.Value, s.cfg.SectionDuration, nil)
	}
}

// Phase is the current phase.
func (s *Sequencer) Phase() Phase { return s.phase }

// Start begins the headline animation. A second call is a no-op and reports false.
func (s *Sequencer) Start(now time.Time) bool {
	if s.stopped || !s.counter.Start(now) {
		return false
	}
	s.globalBar.Start(now)
	return true
}

// Tick samples every running animation at now and advances phases.
func (s *Sequencer) Tick(now time.Time) {
	if s.stopped {
		return
	}
	s.counter.Tick(now)
	s.globalBar.Tick(now)
	if s.pendingGlobal {
		s.pendingGlobal = false
		if s.cfg.OnGlobalComplete != nil {
			s.cfg.OnGlobalComplete()
		}
		s.fire(GlobalComplete, s.counter.EndsAt())
	}
	if s.phase < SectionsRevealed {
		return
	}
	for i, row := range s.rows {
		at := s.sectionsAt.Add(s.cfg.delay(i))
		if now.Before(at) {
			continue
		}
		if !row.Started() {
			row.Start(at)
			s.rowCounters[i].Start(at)
		}
		row.Tick(now)
		s.rowCounters[i].Tick(now)
	}
	if s.pendingLastRow {
		s.pendingLastRow = false
		s.fire(LastSectionComplete, now)
	}
}

func (s *Sequencer) fire(e Event, at time.Time) {
	to, ok := Next(s.phase, e)
	if !ok {
		return
	}
	from := s.phase
	s.phase = to
	if to == SectionsRevealed && s.sectionsAt.IsZero() {
		s.sectionsAt = at
	}
	if from != to && s.cfg.OnPhase != nil {
		s.cfg.OnPhase(from, to)
	}
	if e == LastSectionComplete && !s.sectionsFired {
		s.sectionsFired = true
		if s.cfg.OnSectionsComplete != nil {
			s.cfg.OnSectionsComplete()
		}
	}
	if autoAdvance[to] {
		s.fire(Auto, at)
	}
	// no section rows means nothing will ever raise LastSectionComplete
	if to == DetailRevealed && e != LastSectionComplete && len(s.rows) == 0 {
		s.fire(LastSectionComplete, at)
	}
}

// Stop tears down every animation. Pending completions are dropped.
func (s *Sequencer) Stop() {
	s.stopped = true
	s.counter.Stop()
	s.globalBar.Stop()
	for i := range s.rows {
		s.rows[i].Stop()
		s.rowCounters[i].Stop()
	}
}

// Reset returns to Initial with fresh animations, as when the same data is mounted again.
func (s *Sequencer) Reset() {
	s.Stop()
	s.build()
}

// SectionsComplete reports whether the last section bar has finished.
func (s *Sequencer) SectionsComplete() bool { return s.sectionsFired }

// Meter is a sampled view of one animated value.
type Meter struct {
	Value   int     `json:"value"`
	Fill    float64 `json:"fill"`
	Started bool    `json:"started"`
	Done    bool    `json:"done"`
}

// Frame is everything a view needs to draw at one instant.
type Frame struct {
	Phase    Phase   `json:"phase"`
	Global   Meter   `json:"global"`
	Sections []Meter `json:"sections"`
}

// Frame returns the values sampled by the last Tick.
func (s *Sequencer) Frame() Frame {
	f := Frame{
		Phase: s.phase,
		Global: Meter{
			Value:   s.counter.Value(),
			Fill:    s.globalBar.Fill(),
			Started: s.counter.Started(),
			Done:    s.counter.Done(),
		},
		Sections: make([]Meter, len(s.rows)),
	}
	for i, row := range s.rows {
		f.Sections[i] = Meter{
			Value:   s.rowCounters[i].Value(),
			Fill:    row.Fill(),
			Started: row.Started(),
			Done:    row.Done(),
		}
	}
	return f
}
