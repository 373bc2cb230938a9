// Package schedule runs periodic reprocessing
package schedule

import (
	"fmt"

	"budge/statements/cmd/root"

	"github.com/spf13/cobra"
)

var (
	cronSpec string
	timezone string
	runNow   bool
)

// Cmd represents the schedule command
var Cmd = &cobra.Command{
	Use:   "schedule",
	Short: "Reprocess unclassified records on a cron schedule",
	Long: `Stay in the foreground and reprocess unclassified records on a schedule.

The schedule and timezone default to schedule.cron and schedule.timezone from
the configuration. A run that is still going when the next one is due makes
the next one skip. Stop with Ctrl-C; the store is persisted on exit.

Example:
  budge schedule --cron "0 */6 * * *" --timezone Europe/Zurich`,
	Args: cobra.NoArgs,
	RunE: scheduleFunc,
}

func init() {
	Cmd.Flags().StringVar(&cronSpec, "cron", "", "Cron expression (default from configuration)")
	Cmd.Flags().StringVar(&timezone, "timezone", "", "Timezone the schedule is evaluated in (default from configuration)")
	Cmd.Flags().BoolVar(&runNow, "run-now", false, "Reprocess once immediately before waiting for the schedule")
}

func scheduleFunc(cmd *cobra.Command, _ []string) (err error) {
	c, err := root.NewContainer(cmd)
	if err != nil {
		return err
	}
	defer root.CloseContainer(c, &err)

	cfg := c.GetConfig()
	spec := cronSpec
	if spec == "" {
		spec = cfg.Schedule.Cron
	}
	tz := timezone
	if tz == "" {
		tz = cfg.Schedule.Timezone
	}

	ctx := root.Context(cmd)
	sched := c.GetScheduler()
	if runNow {
		if err := sched.RunOnce(ctx); err != nil {
			return err
		}
	}
	if err := sched.Start(spec, tz); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(cmd.OutOrStdout(), "Reprocessing on %q (%s), press Ctrl-C to stop\n", spec, sched.Location()); err != nil {
		return err
	}
	<-ctx.Done()
	sched.Stop()
	return nil
}
