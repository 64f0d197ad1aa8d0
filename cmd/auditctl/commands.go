package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	auth "github.com/mimprep/profile-audit/internal/auth/middleware"
	"github.com/mimprep/profile-audit/internal/export"
	"github.com/mimprep/profile-audit/internal/output"
	"github.com/mimprep/profile-audit/internal/record"
	"github.com/mimprep/profile-audit/internal/report"
	"github.com/mimprep/profile-audit/internal/results"
	"github.com/mimprep/profile-audit/internal/reveal"
	syncx "github.com/mimprep/profile-audit/internal/sync"
)

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <code> <file.json>",
		Short: "Store a result row from a JSON file ('-' reads stdin)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(cmd.Context()); err != nil {
				return err
			}
			var (
				data []byte
				err  error
			)
			if args[1] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[1])
			}
			if err != nil {
				return err
			}
			rec, err := record.Decode(data)
			if err != nil {
				return fmt.Errorf("decode %s: %w", args[1], err)
			}
			if rec == nil {
				return fmt.Errorf("%s holds no result row", args[1])
			}
			code, err := results.NormalizeCode(args[0])
			if err != nil {
				return err
			}
			if err := a.store.Put(cmd.Context(), code, rec); err != nil {
				return err
			}
			g := record.GlobalTotals(rec)
			e, err := syncx.NewEvent(syncx.TypeResultImported, code, map[string]any{
				"by": "auditctl", "points": g.Points, "maximum": g.Maximum, "source": args[1],
			})
			if err != nil {
				return err
			}
			seq, err := a.journal.Append(cmd.Context(), e)
			if err != nil {
				a.logger.Warn("journal append failed", "code", code, "error", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %s (%d/%d, event %d)\n", code, g.Points, g.Maximum, seq)
			return nil
		},
	}
}

func newShowCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show <code>",
		Short: "Print the results page breakdown for a code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rep, err := a.report(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(rep)
			}
			return output.NewConsole(cmd.OutOrStdout()).Report(rep)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report model as JSON")
	return cmd
}

func newRevealCmd(a *app) *cobra.Command {
	var (
		step time.Duration
		live bool
	)
	cmd := &cobra.Command{
		Use:   "reveal <code>",
		Short: "Play the results page reveal for a code",
		Long: `Without --live, prints the simulated frames at each --step of animation time
followed by the timeline. With --live, animates against the wall clock.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rep, err := a.report(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			con := output.NewConsole(cmd.OutOrStdout())
			seq := rep.Sequencer(reveal.OnPhase(func(from, to reveal.Phase) {
				a.logger.Debug("phase", "from", from, "to", to)
			}))

			if live {
				ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
				defer stop()
				return reveal.Drive(ctx, seq, step, func(f reveal.Frame) {
					fmt.Fprint(cmd.OutOrStdout(), "\033[H\033[2J")
					_ = con.Frame(f, rep)
				})
			}

			start := time.Unix(0, 0)
			for i, f := range reveal.Simulate(seq, start, step) {
				fmt.Fprintf(cmd.OutOrStdout(), "t=%s\n", time.Duration(i)*step)
				if err := con.Frame(f, rep); err != nil {
					return err
				}
			}
			tl := rep.Reveal
			fmt.Fprintf(cmd.OutOrStdout(), "\nheadline 0-%dms, %d sections, complete at %dms\n",
				tl.Global.End(), len(tl.Sections), tl.TotalMS)
			return nil
		},
	}
	cmd.Flags().DurationVar(&step, "step", 250*time.Millisecond, "Sampling interval")
	cmd.Flags().BoolVar(&live, "live", false, "Animate in real time")
	return cmd
}

func newListCmd(a *app) *cobra.Command {
	var opts results.ListOpts
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.open(cmd.Context()); err != nil {
				return err
			}
			rows, err := a.store.List(cmd.Context(), opts)
			if err != nil {
				return err
			}
			if len(rows) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no results")
				return nil
			}
			r := lipgloss.NewRenderer(cmd.OutOrStdout())
			header := r.NewStyle().Bold(true).Padding(0, 1)
			cell := r.NewStyle().Padding(0, 1)
			t := table.New().
				Border(lipgloss.NormalBorder()).
				Headers("CODE", "NAME", "SCORE", "%", "CREATED").
				StyleFunc(func(row, _ int) lipgloss.Style {
					if row == table.HeaderRow {
						return header
					}
					return cell
				})
			for _, s := range rows {
				t.Row(s.Code,
					strings.TrimSpace(s.FirstName+" "+s.LastName),
					fmt.Sprintf("%d/%d", s.Points, s.Maximum),
					strconv.FormatFloat(s.Percent(), 'f', 1, 64),
					s.CreatedAt.Format("2006-01-02 15:04"))
			}
			fmt.Fprintln(cmd.OutOrStdout(), t.Render())
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.Q, "query", "q", "", "Filter by code, name or LinkedIn URL")
	f.StringVar(&opts.Sort, "sort", "", "Sort by created_at|points|last_name|code")
	f.BoolVar(&opts.Asc, "asc", false, "Ascending order")
	f.IntVar(&opts.Limit, "limit", 50, "Maximum rows")
	f.IntVar(&opts.Offset, "offset", 0, "Rows to skip")
	return cmd
}

func newExportCmd(a *app) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every stored result to an .xlsx file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.open(cmd.Context()); err != nil {
				return err
			}
			if !strings.HasSuffix(strings.ToLower(out), ".xlsx") {
				out += ".xlsx"
			}
			opts := results.ListOpts{Limit: 500}
			var all []results.Summary
			for {
				page, err := a.store.List(cmd.Context(), opts)
				if err != nil {
					return err
				}
				all = append(all, page...)
				if len(page) < opts.Limit {
					break
				}
				opts.Offset += len(page)
			}
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			if err := export.WriteResults(f, all, time.Now()); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d results to %s\n", len(all), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "results.xlsx", "Output file")
	return cmd
}

func newEventsCmd(a *app) *cobra.Command {
	var (
		typ   string
		since int64
		limit int
	)
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Print the submission and import journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.open(cmd.Context()); err != nil {
				return err
			}
			events, err := a.journal.Since(cmd.Context(), typ, since, limit)
			if err != nil {
				return err
			}
			for _, e := range events {
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\t%s\t%s\n", e.Seq,
					time.Unix(e.CreatedAt, 0).UTC().Format(time.RFC3339), e.Type, e.Key, e.DataJSON)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&typ, "type", "", "Only events of this type")
	cmd.Flags().Int64Var(&since, "since", 0, "Only events after this sequence number")
	cmd.Flags().IntVar(&limit, "limit", 100, "Maximum events")
	return cmd
}

func newHashPasswordCmd(_ *app) *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password [password]",
		Short: "Print a bcrypt hash for ADMIN_PASS_HASH (reads stdin without an argument)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var pw string
			if len(args) == 1 {
				pw = args[0]
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("read password: %w", err)
				}
				pw = strings.TrimRight(line, "\r\n")
			}
			h, err := auth.HashPassword(pw)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), h)
			return nil
		},
	}
}

func (a *app) report(ctx context.Context, code string) (report.Report, error) {
	if err := a.open(ctx); err != nil {
		return report.Report{}, err
	}
	res, err := a.store.Get(ctx, code)
	if err != nil {
		return report.Report{}, err
	}
	return report.Build(res.Code, res.Record, a.catalog), nil
}
