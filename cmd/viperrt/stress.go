package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"viper/internal/observ"
	"viper/internal/prof"
	"viper/internal/stress"
	"viper/internal/ui"
)

type stressFlags struct {
	workers    int
	iterations int
	contexts   int
	workloads  []string
	ui         string
	profiles   prof.Options
}

func newStressCmd() *cobra.Command {
	var f stressFlags
	cmd := &cobra.Command{
		Use:   "stress",
		Short: "Run concurrent refcount, string, context and collection workloads",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := stressOptions(cmd, f)
			mode, err := parseTristate("ui", f.ui)
			if err != nil {
				return err
			}
			profiles, err := prof.Start(f.profiles)
			if err != nil {
				return err
			}

			var results []stress.Result
			if mode.resolve(os.Stdout) {
				results, err = runStressWithUI(cmd.Context(), opts)
			} else {
				results, err = stress.Run(cmd.Context(), opts)
			}
			if stopErr := profiles.Stop(); err == nil {
				err = stopErr
			}
			printStressResults(cmd, opts, results)
			return err
		},
	}
	cmd.Flags().IntVar(&f.workers, "workers", 0, "goroutines per workload (default from config)")
	cmd.Flags().IntVar(&f.iterations, "iterations", 0, "iterations per goroutine (default from config)")
	cmd.Flags().IntVar(&f.contexts, "contexts", 0, "contexts bound concurrently (default from config)")
	cmd.Flags().StringSliceVar(&f.workloads, "workload", nil, "workloads to run (refcount|strings|contexts|collections)")
	cmd.Flags().StringVar(&f.ui, "ui", "auto", "progress UI (auto|on|off)")
	cmd.Flags().StringVar(&f.profiles.CPU, "cpuprofile", "", "write a CPU profile to file")
	cmd.Flags().StringVar(&f.profiles.Mem, "memprofile", "", "write a heap profile to file")
	cmd.Flags().StringVar(&f.profiles.Trace, "exectrace", "", "write a Go execution trace to file")
	return cmd
}

// stressOptions layers the command flags over the [stress] section.
func stressOptions(cmd *cobra.Command, f stressFlags) stress.Options {
	cfg := current.cfg.Stress
	opts := stress.Options{
		Workers:    cfg.Workers,
		Iterations: cfg.Iterations,
		Contexts:   cfg.Contexts,
	}
	if cmd.Flags().Changed("workers") {
		opts.Workers = f.workers
	}
	if cmd.Flags().Changed("iterations") {
		opts.Iterations = f.iterations
	}
	if cmd.Flags().Changed("contexts") {
		opts.Contexts = f.contexts
	}
	for _, w := range f.workloads {
		opts.Workloads = append(opts.Workloads, stress.Workload(w))
	}
	return opts
}

type stressOutcome struct {
	results []stress.Result
	err     error
}

func runStressWithUI(ctx context.Context, opts stress.Options) ([]stress.Result, error) {
	workloads := opts.Workloads
	if len(workloads) == 0 {
		workloads = stress.All
	}
	events := make(chan stress.Event, 256)
	outcomeCh := make(chan stressOutcome, 1)

	go func() {
		runOpts := opts
		runOpts.Sink = stress.ChannelSink{Ch: events}
		res, err := stress.Run(ctx, runOpts)
		outcomeCh <- stressOutcome{results: res, err: err}
		close(events)
	}()

	model := ui.NewStressModel("viperrt stress", workloads, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	if uiErr != nil {
		// Keep the producer from blocking on a full channel.
		go func() {
			for range events {
			}
		}()
	}
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.results, uiErr
	}
	return outcome.results, outcome.err
}

func printStressResults(cmd *cobra.Command, opts stress.Options, results []stress.Result) {
	if len(results) == 0 {
		return
	}
	out := cmd.OutOrStdout()
	rep := newReporter(out, useColor(cmd, os.Stdout))
	timer := observ.NewTimer()
	rows := make([]reportRow, 0, len(results))
	var totalOps int64
	for _, r := range results {
		totalOps += r.Ops
		timer.Record(string(r.Workload), r.Elapsed, "")
		detail := fmt.Sprintf("%s ops in %s", formatCount(r.Ops), formatDuration(r.Elapsed))
		if r.Err != nil {
			detail = r.Err.Error()
		}
		rows = append(rows, reportRow{name: string(r.Workload), ok: r.Err == nil, detail: detail})
	}
	rep.title("viperrt stress")
	rep.table(rows)
	rep.box(keyValues([][2]string{
		{"workers", formatCount(opts.Workers)},
		{"iterations", formatCount(opts.Iterations)},
		{"total ops", formatCount(totalOps)},
	}))
	if timings, _ := cmd.Flags().GetBool("timings"); timings {
		fmt.Fprint(out, timer.Summary())
	}
}
