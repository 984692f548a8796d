package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"filesorter/internal/daemonrun"
)

func newDaemonCommand(ctx *commandContext) *cobra.Command {
	var path string
	var interval int
	var logLevel string

	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Sort a directory repeatedly until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			seconds := cfg.Daemon.IntervalSeconds
			if cmd.Flags().Changed("interval") {
				if interval < 1 {
					return fmt.Errorf("--interval must be at least 1 second, got %d", interval)
				}
				seconds = interval
			}
			return daemonrun.Run(cmd.Context(), cfg, daemonrun.Options{
				Root:     path,
				Interval: time.Duration(seconds) * time.Second,
				LogLevel: logLevel,
			})
		},
	}

	cmd.Flags().StringVarP(&path, "path", "p", ".", "Directory to keep sorted")
	cmd.Flags().IntVarP(&interval, "interval", "i", 0, "Seconds between runs (defaults to daemon.interval_seconds)")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Override logging.level for the daemon")
	return cmd
}
