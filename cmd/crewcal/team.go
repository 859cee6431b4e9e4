package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/crewcal/internal/agent"
	"github.com/ShayCichocki/crewcal/internal/directory"
	"github.com/ShayCichocki/crewcal/internal/executor"
	"github.com/ShayCichocki/crewcal/internal/orchestrator"
	"github.com/ShayCichocki/crewcal/internal/timeparse"
	"github.com/ShayCichocki/crewcal/pkg/models"
)

var (
	probeHours    float64
	probeTimezone string
)

var teamCmd = &cobra.Command{
	Use:   "team",
	Short: "Show team status, timezones and current shifts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDirectory(func(dir *directory.DB) error {
			employees, err := dir.ListIdentities(models.RoleEmployee)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), orchestrator.Summarize(employees, time.Now()).Render())
			return nil
		})
	},
}

var probeCmd = &cobra.Command{
	Use:   "probe <time>",
	Short: "Show which employees a directive at <time> would reach",
	Long: `Run the candidate filter and availability probe for a target time
without delegating anything. Useful to see why a supervisor picked, or could
not pick, someone.

  crewcal probe "tomorrow at 2pm" --hours 2 --timezone Europe/Berlin`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		loc, err := time.LoadLocation(probeTimezone)
		if err != nil {
			return fmt.Errorf("invalid timezone %q: %w", probeTimezone, err)
		}
		target := args[0]
		at, err := timeparse.Resolve(target, loc, time.Now())
		if err != nil {
			return err
		}

		a, err := openApp(appConfig)
		if err != nil {
			return err
		}
		defer a.Close()

		// Probing never parses text, so the registry needs no completer
		reg := agent.NewRegistry(agent.Config{
			Directory: a.dir,
			Executor:  executor.New(a.provider, executor.WithLogger(a.logger)),
			Logger:    a.logger,
		})
		scope := reg.Scope()
		employees, err := scope.Employees()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		candidates := orchestrator.Filter{}.Apply(employees, target, loc)
		fmt.Fprintf(out, "Target %s is a %s-shift time; %d of %d employees match.\n",
			timeparse.Format(at.In(loc)), orchestrator.ShiftOf(at.In(loc).Hour()), len(candidates), len(employees))
		if len(candidates) == 0 {
			return nil
		}

		results := a.prober().Probe(cmd.Context(), scope, candidates, at, probeHours)
		fmt.Fprintln(out, orchestrator.RenderAvailability(results, at.In(loc), probeHours))
		if first, ok := orchestrator.FirstFree(results); ok {
			fmt.Fprintf(out, "A directive would go to %s.\n", first.Identity.DisplayName)
		}
		return nil
	},
}

func init() {
	probeCmd.Flags().Float64Var(&probeHours, "hours", 1, "Duration to check")
	probeCmd.Flags().StringVar(&probeTimezone, "timezone", "UTC", "Timezone the target time is given in")
}
