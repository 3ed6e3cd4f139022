// Package schedule handles the long-running scheduler command
package schedule

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"fjacquet/spend-intel/cmd/root"
	"fjacquet/spend-intel/internal/container"

	"github.com/spf13/cobra"
)

var runFirst bool

// Cmd represents the schedule command
var Cmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the train and recompute jobs on their cron schedules",
	Long: `Run the scheduler in the foreground. Jobs fire on schedule.train and
schedule.recompute in schedule.timezone; an empty expression disables a job.
Stops on SIGINT or SIGTERM.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := root.GetContainer()
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return Run(ctx, c, cmd.OutOrStdout(), runFirst)
	},
}

func init() {
	Cmd.Flags().BoolVar(&runFirst, "run-now", false, "Run every job once before waiting for the schedule")
}

// Run starts the scheduler and blocks until ctx is done.
func Run(ctx context.Context, c *container.Container, out io.Writer, runNow bool) error {
	s, err := c.NewScheduler()
	if err != nil {
		return err
	}

	entries := s.Entries()
	if len(entries) == 0 {
		return fmt.Errorf("no jobs scheduled: set schedule.train or schedule.recompute")
	}
	for _, e := range entries {
		fmt.Fprintf(out, "%-10s %s (%s)\n", e.Name, e.Spec, s.Location())
	}

	if runNow {
		for _, e := range entries {
			if err := s.RunNow(ctx, e.Name); err != nil {
				c.GetLogger().WithError(err).Error("Initial job run failed")
			}
		}
	}

	return s.Run(ctx)
}
