package cli

import (
	"context"

	"github.com/spf13/cobra"

	"carecal/internal/app"
)

func newRollForwardCommand(open EngineOpener, opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "roll-forward",
		Short: "Run one roll-forward pass for every child",
		Long: `Roll-forward generates schedules for the next ROLLFORWARD_DAYS days for every
child with an active template. The scheduler daemon runs the same pass on
ROLLFORWARD_CRON.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEngine(cmd, open, opts, func(ctx context.Context, e *app.Engine) error {
				result, err := e.RollForward.Run(ctx, e.Clock.Now())
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), result)
			})
		},
	}
}
