// Command viperrt is the host CLI for the Viper runtime core: it runs the
// end-to-end self checks, concurrent stress workloads and heap snapshots.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"viper/internal/config"
	"viper/internal/heap"
	"viper/internal/rtctx"
	"viper/internal/trace"
	"viper/internal/trap"
	"viper/internal/version"
)

// session is the state shared by every subcommand once the root pre-run
// has loaded the configuration.
type session struct {
	cfg          config.Config
	cleanupTrace func()
	prevHook     heap.AllocHook
	prevTrap     trap.Hook
	opened       bool
}

var current session

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "viperrt",
		Short:         "Viper runtime core host",
		Long:          `viperrt exercises the Viper runtime core: refcounted heap, strings, boxes, collections and per-VM contexts`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return current.open(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return current.close()
		},
	}

	root.PersistentFlags().String("config", "", "path to "+config.FileName+" (default: search upwards from the working directory)")
	root.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	root.PersistentFlags().Bool("timings", false, "show timing information")
	root.PersistentFlags().String("trace", "", "trace output file (\"-\" for stderr)")
	root.PersistentFlags().String("trace-level", "", "trace level (off|error|context|object|heap)")
	root.PersistentFlags().String("trace-mode", "", "trace storage mode (stream|ring|both)")

	root.AddCommand(newSelftestCmd())
	root.AddCommand(newStressCmd())
	root.AddCommand(newHeapdumpCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func main() {
	root := newRootCmd()
	err := root.Execute()
	// A failing RunE skips the post-run hook.
	if closeErr := current.close(); err == nil {
		err = closeErr
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "viperrt: %v\n", err)
		os.Exit(1)
	}
}

// open loads the configuration and installs the process-wide hooks it
// asks for.
func (s *session) open(cmd *cobra.Command) error {
	raw, _ := cmd.Flags().GetString("color")
	mode, err := parseTristate("color", raw)
	if err != nil {
		return err
	}
	switch mode {
	case modeOn:
		color.NoColor = false
	case modeOff:
		color.NoColor = true
	}
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	s.cfg = cfg
	s.opened = true

	cleanup, err := setupTracing(cmd, cfg)
	if err != nil {
		return err
	}
	s.cleanupTrace = cleanup

	tracer := trace.FromContext(cmd.Context())
	s.prevTrap = trap.SetHook(func(e *trap.Error) {
		trace.Trap(tracer, e.Code.String(), e.Message)
	})
	if cfg.Heap.AllocLimit > 0 {
		s.prevHook = heap.SetAllocHook(heap.LimitHook(cfg.Heap.AllocLimit))
	}
	if cfg.Heap.LeakCheck {
		heap.EnableLiveTracking(true)
	}
	if cfg.Context.RNGSeed != 0 {
		rtctx.Randomize(cfg.Context.RNGSeed)
	}
	return nil
}

func (s *session) close() error {
	if !s.opened {
		return nil
	}
	s.opened = false
	var leakErr error
	if s.cfg.Heap.LeakCheck {
		if report := heap.LeakReport(); report != "" {
			leakErr = fmt.Errorf("%s", report)
		}
		heap.EnableLiveTracking(false)
	}
	if s.cfg.Heap.AllocLimit > 0 {
		heap.SetAllocHook(s.prevHook)
	}
	trap.SetHook(s.prevTrap)
	if s.cleanupTrace != nil {
		s.cleanupTrace()
		s.cleanupTrace = nil
	}
	return leakErr
}

// useColor resolves the --color flag against the terminal state of f.
func useColor(cmd *cobra.Command, f *os.File) bool {
	raw, _ := cmd.Flags().GetString("color")
	mode, err := parseTristate("color", raw)
	return err == nil && mode.resolve(f)
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
