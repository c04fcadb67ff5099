// Package cli provides the carectl operator command line.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"carecal/internal/app"
	"carecal/internal/types"
)

// Options are the persistent flags shared by every subcommand. Empty values
// leave the environment configuration in place.
type Options struct {
	Driver      string
	DatabaseURL string
	Timezone    string
	Today       string
}

// EngineOpener builds an engine for one command invocation. The returned
// close func releases the underlying store.
type EngineOpener func(ctx context.Context, opts Options) (*app.Engine, func(), error)

// NewRootCommand creates the carectl root command. open is called lazily by
// each subcommand so that --help works without a database.
func NewRootCommand(open EngineOpener, version string) *cobra.Command {
	var opts Options

	root := &cobra.Command{
		Use:   "carectl",
		Short: "Operate the care schedule engine",
		Long: `carectl runs the schedule engine operations against the configured store.

Configuration is read from the environment (DATABASE_DRIVER, DATABASE_URL,
SCHEDULE_TIMEZONE, ...). The persistent flags override it per invocation.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	f := root.PersistentFlags()
	f.StringVar(&opts.Driver, "driver", "", "database driver (postgres, sqlite, memory)")
	f.StringVar(&opts.DatabaseURL, "database-url", "", "database URL or sqlite file path")
	f.StringVar(&opts.Timezone, "timezone", "", "IANA timezone that defines calendar days")
	f.StringVar(&opts.Today, "today", "", "pin the engine's current date (YYYY-MM-DD)")

	root.AddCommand(
		newGenerateCommand(open, &opts),
		newReplaceCommand(open, &opts),
		newRetireCommand(open, &opts),
		newExportCommand(open, &opts),
		newRollForwardCommand(open, &opts),
	)
	return root
}

// withEngine opens an engine, runs fn and closes the store.
func withEngine(cmd *cobra.Command, open EngineOpener, opts *Options, fn func(ctx context.Context, e *app.Engine) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	engine, closeFn, err := open(ctx, *opts)
	if err != nil {
		return err
	}
	defer closeFn()
	return fn(ctx, engine)
}

// parseDate parses a YYYY-MM-DD flag value as midnight in loc.
func parseDate(flag, raw string, loc *time.Location) (time.Time, error) {
	d, err := time.ParseInLocation(time.DateOnly, raw, loc)
	if err != nil {
		return time.Time{}, types.NewAppError(types.ErrCodeValidationInvalidDate,
			fmt.Sprintf("--%s: invalid date %q, expected YYYY-MM-DD", flag, raw), err)
	}
	return d, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
