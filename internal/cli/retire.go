package cli

import (
	"context"

	"github.com/spf13/cobra"

	"carecal/internal/app"
)

func newRetireCommand(open EngineOpener, opts *Options) *cobra.Command {
	var templateID string

	cmd := &cobra.Command{
		Use:   "retire",
		Short: "Deactivate a template and delete its schedules",
		Long: `Retire hard-deletes every schedule the template produced, including ones a
caregiver has edited, then marks the template inactive. Retiring an inactive
template sweeps again and succeeds.`,
		Example: `  carectl retire --template tpl_breakfast`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEngine(cmd, open, opts, func(ctx context.Context, e *app.Engine) error {
				result, err := e.Retirer.Retire(ctx, templateID)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), result)
			})
		},
	}

	cmd.Flags().StringVar(&templateID, "template", "", "template identifier (required)")
	_ = cmd.MarkFlagRequired("template")
	return cmd
}
