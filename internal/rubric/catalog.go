// Package rubric holds the audit rubrics, one per kind of analysed document (LinkedIn
// profile, CV): which sections exist, what each criterion expects, and how each section
// is laid out on the results page.
package rubric

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// UndefinedExpectation is returned for criteria the rubric does not describe.
const UndefinedExpectation = "Critère non défini"

var ErrInvalidCatalog = errors.New("invalid rubric catalog")

// Catalog kinds. Each has its own embedded file and its own results table.
const (
	KindLinkedIn = "linkedin"
	KindCV       = "cv"
)

//go:embed catalog.yaml cv.yaml
var embedded embed.FS

var catalogFiles = map[string]string{
	KindLinkedIn: "catalog.yaml",
	KindCV:       "cv.yaml",
}

// CriterionDef describes one criterion. Key is set for rows that store the criterion
// under its own column prefix instead of a numbered slot.
type CriterionDef struct {
	Key         string `yaml:"key" json:"key,omitempty"`
	Title       string `yaml:"title" json:"title"`
	Expectation string `yaml:"expectation" json:"expectation"`
}

// TotalKeys names the columns holding a stored rollup.
type TotalKeys struct {
	Points  string `yaml:"points" json:"points"`
	Maximum string `yaml:"maximum" json:"maximum"`
}

// Placeholder is a synthetic criterion shown in place of data the automation does not
// produce for free profiles.
type Placeholder struct {
	Name  string `yaml:"name" json:"name"`
	Score int    `yaml:"score" json:"score"`
	Max   int    `yaml:"max" json:"max"`
	Blur  bool   `yaml:"blur" json:"blur"`
}

// SectionDef is one rubric section and its layout rules. Criterion indices are 1-based,
// matching the stored row.
type SectionDef struct {
	Key           string         `yaml:"key" json:"key"`
	Title         string         `yaml:"title" json:"title"`
	ImageField    string         `yaml:"image_field" json:"image_field,omitempty"`
	BlurLastN     int            `yaml:"blur_last_n" json:"blur_last_n,omitempty"`
	PreserveOrder bool           `yaml:"preserve_order" json:"preserve_order,omitempty"`
	AlwaysBlur    []int          `yaml:"always_blur" json:"always_blur,omitempty"`
	Forced        map[int]int    `yaml:"forced" json:"forced,omitempty"`
	Include       []int          `yaml:"include" json:"include,omitempty"`
	Placeholders  []Placeholder  `yaml:"placeholders" json:"placeholders,omitempty"`
	TotalMax      int            `yaml:"total_max" json:"total_max,omitempty"`
	SelfSum       bool           `yaml:"self_sum" json:"self_sum,omitempty"`
	Totals        *TotalKeys     `yaml:"totals" json:"totals,omitempty"`
	Criteria      []CriterionDef `yaml:"criteria" json:"criteria"`
}

// Named reports whether the section's criteria are stored under their own keys.
func (s SectionDef) Named() bool {
	return len(s.Criteria) > 0 && s.Criteria[0].Key != ""
}

// Includes reports whether stored criterion i is displayed.
func (s SectionDef) Includes(i int) bool {
	if len(s.Include) == 0 {
		return true
	}
	for _, v := range s.Include {
		if v == i {
			return true
		}
	}
	return false
}

// AlwaysBlurred reports whether stored criterion i is hidden regardless of position.
func (s SectionDef) AlwaysBlurred(i int) bool {
	for _, v := range s.AlwaysBlur {
		if v == i {
			return true
		}
	}
	return false
}

// CriterionTitle is the rubric title of criterion i, or "" when the rubric has none.
func (s SectionDef) CriterionTitle(i int) string {
	if i < 1 || i > len(s.Criteria) {
		return ""
	}
	return s.Criteria[i-1].Title
}

type Catalog struct {
	Kind     string       `yaml:"kind" json:"kind"`
	Global   *TotalKeys   `yaml:"global" json:"global,omitempty"`
	Sections []SectionDef `yaml:"sections" json:"sections"`

	byKey   map[string]int
	byTitle map[string]int
}

// Parse decodes and validates a YAML catalog.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	if err := c.index(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) index() error {
	if len(c.Sections) == 0 {
		return fmt.Errorf("%w: no sections", ErrInvalidCatalog)
	}
	c.byKey = make(map[string]int, len(c.Sections))
	c.byTitle = make(map[string]int, len(c.Sections))
	for i, s := range c.Sections {
		if s.Key == "" || s.Title == "" {
			return fmt.Errorf("%w: section %d needs key and title", ErrInvalidCatalog, i)
		}
		if _, dup := c.byKey[s.Key]; dup {
			return fmt.Errorf("%w: duplicate section %q", ErrInvalidCatalog, s.Key)
		}
		if s.BlurLastN < 0 || s.TotalMax < 0 {
			return fmt.Errorf("%w: %s: negative layout value", ErrInvalidCatalog, s.Key)
		}
		for _, idx := range append(append([]int(nil), s.Include...), s.AlwaysBlur...) {
			if idx < 1 {
				return fmt.Errorf("%w: %s: criterion index %d", ErrInvalidCatalog, s.Key, idx)
			}
		}
		for idx := range s.Forced {
			if idx < 1 {
				return fmt.Errorf("%w: %s: forced index %d", ErrInvalidCatalog, s.Key, idx)
			}
		}
		named := s.Named()
		for j, cr := range s.Criteria {
			if (cr.Key != "") != named {
				return fmt.Errorf("%w: %s: criterion %d mixes keyed and numbered criteria", ErrInvalidCatalog, s.Key, j+1)
			}
		}
		if s.Totals != nil && (s.Totals.Points == "" || s.Totals.Maximum == "") {
			return fmt.Errorf("%w: %s: totals need points and maximum columns", ErrInvalidCatalog, s.Key)
		}
		for _, p := range s.Placeholders {
			if p.Name == "" || p.Max <= 0 {
				return fmt.Errorf("%w: %s: placeholder needs name and positive max", ErrInvalidCatalog, s.Key)
			}
		}
		c.byKey[s.Key] = i
		c.byTitle[s.Title] = i
	}
	return nil
}

var (
	loadMu sync.Mutex
	loaded = map[string]*Catalog{}
)

// LoadKind returns the embedded catalog of kind. Each kind is parsed once.
func LoadKind(kind string) (*Catalog, error) {
	file, ok := catalogFiles[kind]
	if !ok {
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidCatalog, kind)
	}
	loadMu.Lock()
	defer loadMu.Unlock()
	if c, ok := loaded[kind]; ok {
		return c, nil
	}
	data, err := embedded.ReadFile(file)
	if err != nil {
		return nil, err
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	if c.Kind == "" {
		c.Kind = kind
	}
	loaded[kind] = c
	return c, nil
}

// Load returns the embedded LinkedIn catalog.
func Load() (*Catalog, error) { return LoadKind(KindLinkedIn) }

// MustLoad is Load that panics on a broken embedded catalog. Tests and fixtures use it;
// servers go through Load and report the error.
func MustLoad() *Catalog {
	c, err := Load()
	if err != nil {
		panic(err)
	}
	return c
}

// Section looks a section up by record key or by display title.
func (c *Catalog) Section(key string) (SectionDef, bool) {
	if c == nil {
		return SectionDef{}, false
	}
	if i, ok := c.byKey[key]; ok {
		return c.Sections[i], true
	}
	if i, ok := c.byTitle[key]; ok {
		return c.Sections[i], true
	}
	return SectionDef{}, false
}

// Keys lists section record keys in catalog order.
func (c *Catalog) Keys() []string {
	out := make([]string, len(c.Sections))
	for i, s := range c.Sections {
		out[i] = s.Key
	}
	return out
}

var scoreSuffix = regexp.MustCompile(` \(\d+\)$`)

// CleanTitle replaces a trailing " (n)" points marker with a colon.
func CleanTitle(t string) string {
	return scoreSuffix.ReplaceAllString(t, ":")
}

func normalizeTitle(t string) string {
	t = strings.TrimSpace(scoreSuffix.ReplaceAllString(strings.TrimSpace(t), ""))
	t = strings.TrimSuffix(t, ":")
	return strings.ToLower(strings.TrimSpace(t))
}

// Expectation returns what full marks require for the criterion titled title in section.
// Stored titles may carry a points marker; it is ignored for the lookup.
func (c *Catalog) Expectation(section, title string) string {
	s, ok := c.Section(section)
	if !ok {
		return UndefinedExpectation
	}
	want := normalizeTitle(title)
	for _, cr := range s.Criteria {
		if (cr.Title == title || normalizeTitle(cr.Title) == want) && cr.Expectation != "" {
			return cr.Expectation
		}
	}
	return UndefinedExpectation
}

// CriteriaPayload is the JSON object {section title: [criterion titles]} sent with each
// submission so the automation scores against the same rubric.
func (c *Catalog) CriteriaPayload() ([]byte, error) {
	m := make(map[string][]string, len(c.Sections))
	for _, s := range c.Sections {
		titles := make([]string, len(s.Criteria))
		for i, cr := range s.Criteria {
			titles[i] = cr.Title
		}
		m[s.Title] = titles
	}
	return json.Marshal(m)
}

// ExpectationsPayload is the JSON object {section title: {criterion title: expectation}}.
func (c *Catalog) ExpectationsPayload() ([]byte, error) {
	m := make(map[string]map[string]string, len(c.Sections))
	for _, s := range c.Sections {
		inner := make(map[string]string, len(s.Criteria))
		for _, cr := range s.Criteria {
			inner[cr.Title] = cr.Expectation
		}
		m[s.Title] = inner
	}
	return json.Marshal(m)
}
