// Package cli is the mealctl operator command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var logger = zap.NewNop()

// errNoApp is returned by commands that need storage when the container
// could not be built.
var errNoApp = errors.New("mealctl needs a database connection; check SPANNER_* settings")

type commandContext struct {
	correlationID uuid.UUID
	startedAt     time.Time
}

type commandContextKey struct{}

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "mealctl",
		Short: "Operate meal subscriptions",
		Long: `mealctl drives the meal subscription ledger: pauses, resumes,
per-delivery cancellations, delivery scheduling and confirmation.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			info := commandContext{
				correlationID: uuid.New(),
				startedAt:     time.Now(),
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			cmd.SetContext(context.WithValue(ctx, commandContextKey{}, info))
			logger.Debug("command start",
				zap.String("command", cmd.CommandPath()),
				zap.String("correlation_id", info.correlationID.String()),
			)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			info, ok := cmd.Context().Value(commandContextKey{}).(commandContext)
			if !ok {
				return
			}
			logger.Debug("command end",
				zap.String("command", cmd.CommandPath()),
				zap.String("correlation_id", info.correlationID.String()),
				zap.Int64("duration_ms", time.Since(info.startedAt).Milliseconds()),
			)
		},
	}

	root.AddCommand(
		newCreateCmd(),
		newShowCmd(),
		newPauseCmd(),
		newResumeCmd(),
		newCancelMealsCmd(),
		newCancelCmd(),
		newNextCmd(),
		newScheduleCmd(),
		newRecordDeliveryCmd(),
		newChangeDaysCmd(),
		newServeMetricsCmd(),
		newFlushCacheCmd(),
	)
	return root
}

// ExecuteContext runs the root command.
func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// SetLogger sets the CLI logger.
func SetLogger(l *zap.Logger) {
	logger = l
}

func requireApp() (*App, error) {
	a := GetApp()
	if a == nil {
		return nil, errNoApp
	}
	return a, nil
}
