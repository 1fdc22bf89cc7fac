package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"viper/internal/config"
	"viper/internal/trace"
)

// setupTracing builds the tracer from the [trace] section with the trace
// flags layered on top, attaches it to the command context and installs
// it as the process-wide tracer.
func setupTracing(cmd *cobra.Command, cfg config.Config) (func(), error) {
	flags := cmd.Flags()
	for flag, dst := range map[string]*string{
		"trace":       &cfg.Trace.Output,
		"trace-level": &cfg.Trace.Level,
		"trace-mode":  &cfg.Trace.Mode,
	} {
		value, err := flags.GetString(flag)
		if err != nil {
			return nil, fmt.Errorf("failed to get %s flag: %w", flag, err)
		}
		if value != "" {
			*dst = value
		}
	}
	// An output file without an explicit level traces contexts.
	if cfg.Trace.Output != "" && (cfg.Trace.Level == "" || cfg.Trace.Level == "off") && !flags.Changed("trace-level") {
		cfg.Trace.Level = "context"
	}

	tcfg, err := cfg.TracerConfig()
	if err != nil {
		return nil, fmt.Errorf("invalid trace settings: %w", err)
	}
	if tcfg.Level == trace.LevelOff {
		cmd.SetContext(trace.WithTracer(cmd.Context(), trace.Nop))
		return func() {}, nil
	}

	tracer, err := trace.New(tcfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create tracer: %w", err)
	}
	cmd.SetContext(trace.WithTracer(cmd.Context(), tracer))
	prev := trace.Set(tracer)

	cleanup := func() {
		trace.Set(prev)
		if err := tracer.Flush(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: flush error: %v\n", err)
		}
		if err := tracer.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: close error: %v\n", err)
		}
	}
	return cleanup, nil
}
