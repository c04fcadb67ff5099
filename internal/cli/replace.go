package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/samber/mo"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"carecal/internal/app"
	"carecal/internal/scheduler"
	"carecal/internal/types"
)

func newReplaceCommand(open EngineOpener, opts *Options) *cobra.Command {
	var (
		childID  string
		planPath string
		start    string
		weeks    int
	)

	cmd := &cobra.Command{
		Use:   "replace",
		Short: "Replace a child's horizon with a weekly plan",
		Long: `Replace deletes every unmodified schedule of the child inside the horizon and
creates one ad-hoc schedule per plan item per matching weekday. Schedules a
caregiver has completed or edited are left in place.

The plan file is a YAML (or JSON) list of items:

  - title: Breakfast
    type: meal
    time_of_day: "08:00"
    weekdays: [2, 3, 4, 5, 6]   # 1=Sunday .. 7=Saturday

An empty list clears the horizon.`,
		Example: `  carectl replace --child child_1 --plan plan.yaml
  carectl replace --child child_1 --plan plan.yaml --start 2024-01-01 --weeks 4`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			plan, err := loadPlan(planPath)
			if err != nil {
				return err
			}
			return withEngine(cmd, open, opts, func(ctx context.Context, e *app.Engine) error {
				var ro scheduler.ReplaceOptions
				if start != "" {
					d, err := parseDate("start", start, e.Location)
					if err != nil {
						return err
					}
					ro.StartDate = mo.Some(d)
				}
				if cmd.Flags().Changed("weeks") {
					ro.Weeks = mo.Some(weeks)
				}

				result, err := e.Replacer.Replace(ctx, childID, plan, ro)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), result)
			})
		},
	}

	cmd.Flags().StringVar(&childID, "child", "", "child identifier (required)")
	cmd.Flags().StringVar(&planPath, "plan", "", "plan file, YAML or JSON (required)")
	cmd.Flags().StringVar(&start, "start", "", "first day of the horizon (YYYY-MM-DD, default today)")
	cmd.Flags().IntVar(&weeks, "weeks", 0, "horizon length in weeks (default from SCHEDULE_DEFAULT_WEEKS)")
	_ = cmd.MarkFlagRequired("child")
	_ = cmd.MarkFlagRequired("plan")
	return cmd
}

// loadPlan reads a plan file. An empty file is an empty plan.
func loadPlan(path string) ([]types.PlanItem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading plan file: %w", err)
	}
	var plan []types.PlanItem
	if err := yaml.Unmarshal(data, &plan); err != nil {
		return nil, types.NewAppError(types.ErrCodeValidationInvalidField,
			fmt.Sprintf("plan file %s is not a list of plan items", path), err)
	}
	if plan == nil {
		plan = []types.PlanItem{}
	}
	return plan, nil
}
