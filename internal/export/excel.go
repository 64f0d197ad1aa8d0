// Package export writes the admin result list as a spreadsheet.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/mimprep/profile-audit/internal/results"
	"github.com/mimprep/profile-audit/internal/scoring"
)

const (
	SummarySheet = "Summary"
	ResultsSheet = "Results"
)

var resultHeaders = []string{"Code", "Name", "LinkedIn", "Points", "Maximum", "Percent", "Created"}

// toneFills colours a result row by the tone of its percent.
var toneFills = map[scoring.Tone]string{
	scoring.ToneLow:    "FFC7CE",
	scoring.ToneMedium: "FFEB9C",
	scoring.ToneHigh:   "C6EFCE",
}

// WriteResults writes rows as an .xlsx workbook with a Summary and a Results sheet.
func WriteResults(w io.Writer, rows []results.Summary, generatedAt time.Time) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return err
	}
	if _, err := f.NewSheet(ResultsSheet); err != nil {
		return err
	}
	if err := summarySheet(f, rows, generatedAt); err != nil {
		return fmt.Errorf("summary sheet: %w", err)
	}
	if err := resultsSheet(f, rows); err != nil {
		return fmt.Errorf("results sheet: %w", err)
	}
	_, err := f.WriteTo(w)
	return err
}

func summarySheet(f *excelize.File, rows []results.Summary, generatedAt time.Time) error {
	title, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 14, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"074482"}, Pattern: 1},
	})
	if err != nil {
		return err
	}
	label, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	var sum float64
	counts := map[scoring.Tone]int{}
	for _, r := range rows {
		p := r.Percent()
		sum += p
		counts[scoring.ToneFor(p)]++
	}
	mean := 0.0
	if len(rows) > 0 {
		mean = sum / float64(len(rows))
	}

	cells := [][2]any{
		{"Profile audit results", nil},
		{"Generated at", generatedAt.UTC().Format(time.RFC3339)},
		{"Results", len(rows)},
		{"Mean percent", round1(mean)},
		{"Low (< 30%)", counts[scoring.ToneLow]},
		{"Medium (30-75%)", counts[scoring.ToneMedium]},
		{"High (>= 75%)", counts[scoring.ToneHigh]},
	}
	for i, kv := range cells {
		row := i + 1
		if err := f.SetCellValue(SummarySheet, fmt.Sprintf("A%d", row), kv[0]); err != nil {
			return err
		}
		if kv[1] != nil {
			if err := f.SetCellValue(SummarySheet, fmt.Sprintf("B%d", row), kv[1]); err != nil {
				return err
			}
			if err := f.SetCellStyle(SummarySheet, fmt.Sprintf("A%d", row), fmt.Sprintf("A%d", row), label); err != nil {
				return err
			}
		}
	}
	if err := f.MergeCell(SummarySheet, "A1", "B1"); err != nil {
		return err
	}
	if err := f.SetCellStyle(SummarySheet, "A1", "B1", title); err != nil {
		return err
	}
	return f.SetColWidth(SummarySheet, "A", "B", 28)
}

func resultsSheet(f *excelize.File, rows []results.Summary) error {
	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"074482"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return err
	}
	fills := make(map[scoring.Tone]int, len(toneFills))
	for tone, color := range toneFills {
		id, err := f.NewStyle(&excelize.Style{Fill: excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1}})
		if err != nil {
			return err
		}
		fills[tone] = id
	}

	for col, h := range resultHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(ResultsSheet, cell, h); err != nil {
			return err
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(resultHeaders), 1)
	if err := f.SetCellStyle(ResultsSheet, "A1", last, header); err != nil {
		return err
	}

	for i, r := range rows {
		n := i + 2
		name := r.FirstName
		if r.LastName != "" {
			name = fmt.Sprintf("%s %s", r.FirstName, r.LastName)
		}
		values := []any{r.Code, name, r.LinkedInURL, r.Points, r.Maximum, round1(r.Percent()), r.CreatedAt.UTC().Format("2006-01-02 15:04")}
		if err := f.SetSheetRow(ResultsSheet, fmt.Sprintf("A%d", n), &values); err != nil {
			return err
		}
		if r.LinkedInURL != "" {
			if err := f.SetCellHyperLink(ResultsSheet, fmt.Sprintf("C%d", n), r.LinkedInURL, "External"); err != nil {
				return err
			}
		}
		end, _ := excelize.CoordinatesToCellName(len(resultHeaders), n)
		if err := f.SetCellStyle(ResultsSheet, fmt.Sprintf("A%d", n), end, fills[scoring.ToneFor(r.Percent())]); err != nil {
			return err
		}
	}
	if err := f.SetPanes(ResultsSheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return err
	}
	if err := f.SetColWidth(ResultsSheet, "B", "C", 36); err != nil {
		return err
	}
	return f.AutoFilter(ResultsSheet, "A1:"+last, nil)
}

func round1(v float64) float64 {
	return float64(int64(v*10+0.5)) / 10
}
