package cli

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"carecal/internal/app"
	"carecal/internal/scheduler"
)

type generateOutput struct {
	Results  []scheduler.GenerationResult `json:"results"`
	Created  int                          `json:"created"`
	Existing int                          `json:"existing"`
}

func newGenerateCommand(open EngineOpener, opts *Options) *cobra.Command {
	var (
		childID string
		dates   []string
		days    int
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate schedules from a child's active templates",
		Long: `Generate creates the schedules a child's active templates produce on the
given dates. Slots that already have a schedule are reported, not duplicated,
so the command is safe to repeat.

Dates come from repeated --date flags, or from --days counted from today.`,
		Example: `  carectl generate --child child_1 --date 2024-01-01 --date 2024-01-02
  carectl generate --child child_1 --days 14`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if len(dates) == 0 && days <= 0 {
				return errors.New("either --date or --days is required")
			}
			return withEngine(cmd, open, opts, func(ctx context.Context, e *app.Engine) error {
				list, err := resolveDates(e, dates, days)
				if err != nil {
					return err
				}

				results, genErr := e.Generator.Generate(ctx, childID, list)
				created := scheduler.CountCreated(results)
				if err := printJSON(cmd.OutOrStdout(), generateOutput{
					Results:  nonNilResults(results),
					Created:  created,
					Existing: len(results) - created,
				}); err != nil {
					return err
				}
				return genErr
			})
		},
	}

	cmd.Flags().StringVar(&childID, "child", "", "child identifier (required)")
	cmd.Flags().StringArrayVar(&dates, "date", nil, "calendar day to generate (YYYY-MM-DD, repeatable)")
	cmd.Flags().IntVar(&days, "days", 0, "generate this many days starting today")
	_ = cmd.MarkFlagRequired("child")
	cmd.MarkFlagsMutuallyExclusive("date", "days")
	return cmd
}

func resolveDates(e *app.Engine, raw []string, days int) ([]time.Time, error) {
	if len(raw) > 0 {
		out := make([]time.Time, 0, len(raw))
		for _, r := range raw {
			d, err := parseDate("date", r, e.Location)
			if err != nil {
				return nil, err
			}
			out = append(out, d)
		}
		return out, nil
	}

	now := e.Clock.Now().In(e.Location)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, e.Location)
	out := make([]time.Time, days)
	for i := range out {
		out[i] = today.AddDate(0, 0, i)
	}
	return out, nil
}

func nonNilResults(r []scheduler.GenerationResult) []scheduler.GenerationResult {
	if r == nil {
		return []scheduler.GenerationResult{}
	}
	return r
}
