package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"viper/internal/observ"
	"viper/internal/selftest"
)

func newSelftestCmd() *cobra.Command {
	var only []string
	cmd := &cobra.Command{
		Use:   "selftest",
		Short: "Run the end-to-end ownership scenarios",
		RunE: func(cmd *cobra.Command, args []string) error {
			scenarios, err := pickScenarios(only)
			if err != nil {
				return err
			}
			results := selftest.Run(scenarios)

			rep := newReporter(cmd.OutOrStdout(), useColor(cmd, os.Stdout))
			rep.title("viperrt selftest")
			rows := make([]reportRow, 0, len(results))
			timer := observ.NewTimer()
			for _, r := range results {
				timer.Record(r.Name, r.Elapsed, "")
				rows = append(rows, reportRow{name: r.Name, ok: r.Passed(), detail: resultDetail(r)})
			}
			rep.table(rows)

			failed := selftest.Failed(results)
			fmt.Fprintf(cmd.OutOrStdout(), "%d/%d scenarios passed\n", len(results)-failed, len(results))
			if timings, _ := cmd.Flags().GetBool("timings"); timings {
				fmt.Fprint(cmd.OutOrStdout(), timer.Summary())
			}
			if failed > 0 {
				return fmt.Errorf("%d selftest scenario(s) failed", failed)
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&only, "run", nil, "run only the named scenarios")
	return cmd
}

func pickScenarios(names []string) ([]selftest.Scenario, error) {
	all := selftest.Scenarios()
	if len(names) == 0 {
		return all, nil
	}
	byName := make(map[string]selftest.Scenario, len(all))
	for _, sc := range all {
		byName[sc.Name] = sc
	}
	picked := make([]selftest.Scenario, 0, len(names))
	for _, name := range names {
		sc, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("unknown scenario %q", name)
		}
		picked = append(picked, sc)
	}
	return picked, nil
}

func resultDetail(r selftest.Result) string {
	switch {
	case r.Err != nil:
		return r.Err.Error()
	case r.Leaked > 0:
		return fmt.Sprintf("leaked %s block(s)", formatCount(r.Leaked))
	default:
		return formatDuration(r.Elapsed)
	}
}
