package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"carecal/internal/app"
	"carecal/internal/calendar"
	"carecal/internal/recurrence"
	"carecal/internal/types"
)

func newExportCommand(open EngineOpener, opts *Options) *cobra.Command {
	var (
		childID string
		from    string
		to      string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Print a child's schedules as iCalendar",
		Long: `Export writes the child's schedules in [from, to) as an iCalendar feed.
The window defaults to four weeks starting today.`,
		Example: `  carectl export --child child_1 > child_1.ics
  carectl export --child child_1 --from 2024-01-01 --to 2024-02-01`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEngine(cmd, open, opts, func(ctx context.Context, e *app.Engine) error {
				now := e.Clock.Now()
				start := recurrence.StartOfDay(now, e.Location)
				end := start.AddDate(0, 0, calendar.DefaultWindowDays)

				var err error
				if from != "" {
					if start, err = parseDate("from", from, e.Location); err != nil {
						return err
					}
					if to == "" {
						end = start.AddDate(0, 0, calendar.DefaultWindowDays)
					}
				}
				if to != "" {
					if end, err = parseDate("to", to, e.Location); err != nil {
						return err
					}
				}
				if !end.After(start) {
					return types.NewAppError(types.ErrCodeValidationInvalidDate,
						fmt.Sprintf("--to %s must be after --from %s", end.Format("2006-01-02"), start.Format("2006-01-02")), nil)
				}

				ics, err := e.Exporter.Export(ctx, childID, start, end, now)
				if err != nil {
					return err
				}
				_, err = io.WriteString(cmd.OutOrStdout(), ics)
				return err
			})
		},
	}

	cmd.Flags().StringVar(&childID, "child", "", "child identifier (required)")
	cmd.Flags().StringVar(&from, "from", "", "first day (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&to, "to", "", "end day, exclusive (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("child")
	return cmd
}
