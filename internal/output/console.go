// Package output renders reports and reveal frames for the terminal.
package output

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mimprep/profile-audit/internal/report"
	"github.com/mimprep/profile-audit/internal/reveal"
	"github.com/mimprep/profile-audit/internal/scoring"
)

const (
	defaultBarWidth = 24
	labelWidth      = 34
	maskRune        = "▒"
)

// ANSI colours per tone.
var toneColors = map[scoring.Tone]lipgloss.Color{
	scoring.ToneLow:    lipgloss.Color("9"),
	scoring.ToneMedium: lipgloss.Color("11"),
	scoring.ToneHigh:   lipgloss.Color("10"),
}

// Console writes human readable reports. Colour support is detected from the writer.
type Console struct {
	w        io.Writer
	r        *lipgloss.Renderer
	barWidth int

	title  lipgloss.Style
	header lipgloss.Style
	muted  lipgloss.Style
	locked lipgloss.Style
}

type Option func(*Console)

func WithBarWidth(n int) Option {
	return func(c *Console) {
		if n > 0 {
			c.barWidth = n
		}
	}
}

func NewConsole(w io.Writer, opts ...Option) *Console {
	r := lipgloss.NewRenderer(w)
	c := &Console{
		w:        w,
		r:        r,
		barWidth: defaultBarWidth,
		title:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("#074482")),
		header:   r.NewStyle().Bold(true).Underline(true),
		muted:    r.NewStyle().Foreground(lipgloss.Color("8")),
		locked:   r.NewStyle().Italic(true).Foreground(lipgloss.Color("13")),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Console) tone(t scoring.Tone) lipgloss.Style {
	return c.r.NewStyle().Foreground(toneColors[t])
}

// Report prints the headline score, the section summary and every detail table.
func (c *Console) Report(rep report.Report) error {
	var b strings.Builder

	name := rep.Profile.FullName()
	if name == "" {
		name = rep.Code
	}
	b.WriteString(c.title.Render(name))
	if rep.Profile.LinkedInURL != "" {
		b.WriteString(c.muted.Render("  " + rep.Profile.LinkedInURL))
	}
	b.WriteString("\n")
	if rep.Profile.Position != "" {
		b.WriteString(c.muted.Render(rep.Profile.Position) + "\n")
	}
	fmt.Fprintf(&b, "\nScore global  %s  %s\n\n",
		c.tone(rep.Global.Tone).Render(fmt.Sprintf("%d/%d", rep.Global.Score, rep.Global.Max)),
		c.bar(rep.Global.Percent/100, rep.Global.Tone))

	b.WriteString(c.header.Render("Scores par section") + "\n")
	for _, s := range rep.Summary {
		fmt.Fprintf(&b, "  %s %s %s\n",
			pad(s.Title, labelWidth),
			c.bar(s.Percent/100, s.Tone),
			c.tone(s.Tone).Render(fmt.Sprintf("%3.0f%%", s.Percent)))
	}

	for _, sec := range rep.Sections {
		b.WriteString("\n")
		c.section(&b, sec)
	}
	if len(rep.Overrides) > 0 {
		b.WriteString("\n" + c.muted.Render("Corrections appliquées:") + "\n")
		for _, o := range rep.Overrides {
			b.WriteString(c.muted.Render(fmt.Sprintf("  %s: %d/%d -> %d/%d", o.Reason, o.Original, o.OriginalMax, o.Replacement, o.ReplacementMax)) + "\n")
		}
	}
	_, err := io.WriteString(c.w, b.String())
	return err
}

func (c *Console) section(b *strings.Builder, sec report.Section) {
	fmt.Fprintf(b, "%s  %s\n",
		c.header.Render(sec.Title),
		c.tone(sec.Total.Tone).Render(fmt.Sprintf("%d/%d", sec.Total.Score, sec.Total.Max)))
	hidden := 0
	for _, row := range sec.Rows {
		if row.ShouldBlur {
			hidden++
			fmt.Fprintf(b, "  %s %s %s\n", c.locked.Render("▪"),
				c.locked.Render(pad(strings.Repeat(maskRune, min(len([]rune(row.Name)), labelWidth-2)), labelWidth-2)),
				c.locked.Render(fmt.Sprintf("?/%d", row.MaxScore)))
			continue
		}
		mark := "•"
		if row.IsMaxScore {
			mark = "✓"
		}
		t := scoring.ToneFor(scoring.Ratio(row.Criterion) * 100)
		fmt.Fprintf(b, "  %s %s %s", c.tone(t).Render(mark), pad(row.Name, labelWidth-2),
			c.tone(t).Render(fmt.Sprintf("%d/%d", row.Score, row.MaxScore)))
		if row.Display != "" {
			fmt.Fprintf(b, "  %s", c.muted.Render(row.Display))
		}
		b.WriteString("\n")
	}
	if sec.HasHidden {
		fmt.Fprintf(b, "  %s\n", c.locked.Render(fmt.Sprintf("%d critère(s) masqué(s), débloque l'analyse complète", hidden)))
	}
}

// Frame prints one sample of a running reveal, labelled with the report's summary rows.
func (c *Console) Frame(f reveal.Frame, rep report.Report) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  global %s %s\n",
		c.muted.Render(fmt.Sprintf("[%s]", f.Phase)),
		c.bar(f.Global.Fill, rep.Global.Tone),
		c.tone(rep.Global.Tone).Render(fmt.Sprintf("%d", f.Global.Value)))
	for i, m := range f.Sections {
		if !m.Started {
			continue
		}
		label := fmt.Sprintf("section %d", i+1)
		t := scoring.ToneLow
		if i < len(rep.Summary) {
			label, t = rep.Summary[i].Title, rep.Summary[i].Tone
		}
		fmt.Fprintf(&b, "  %s %s %s\n", pad(label, labelWidth), c.bar(m.Fill, t),
			c.tone(t).Render(fmt.Sprintf("%3d%%", m.Value)))
	}
	_, err := io.WriteString(c.w, b.String())
	return err
}

func (c *Console) bar(fraction float64, t scoring.Tone) string {
	fraction = math.Max(0, math.Min(fraction, 1))
	filled := int(math.Floor(fraction*float64(c.barWidth) + 0.5))
	return c.tone(t).Render(strings.Repeat("█", filled)) + c.muted.Render(strings.Repeat("░", c.barWidth-filled))
}

// pad left-aligns s in n cells, truncating with an ellipsis.
func pad(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		return string(r[:n-1]) + "…"
	}
	return s + strings.Repeat(" ", n-len(r))
}
