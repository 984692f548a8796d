package main

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"filesorter/internal/service"
)

func newInstallCommand(ctx *commandContext) *cobra.Command {
	var path string
	var interval int
	var printOnly bool

	cmd := &cobra.Command{
		Use:   "install",
		Short: "Register the daemon as a system service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			seconds := cfg.Daemon.IntervalSeconds
			if cmd.Flags().Changed("interval") {
				seconds = interval
			}
			spec, err := service.SpecFor(path, seconds, ctx.loadedConfigPath())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if printOnly {
				if runtime.GOOS == "windows" {
					fmt.Fprintln(out, "schtasks "+strings.Join(service.TaskArgs(spec), " "))
					return nil
				}
				unit, err := service.RenderUnit(spec)
				if err != nil {
					return err
				}
				fmt.Fprint(out, unit)
				return nil
			}

			installer := service.NewInstaller()
			if err := installer.Install(cmd.Context(), spec); err != nil {
				return fmt.Errorf("install service: %w", err)
			}
			if runtime.GOOS == "windows" {
				fmt.Fprintf(out, "Registered scheduled task %s\n", service.TaskName)
			} else {
				fmt.Fprintf(out, "Installed %s and started %s\n", installer.UnitPath(), service.UnitName)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&path, "path", "p", ".", "Directory the service keeps sorted")
	cmd.Flags().IntVarP(&interval, "interval", "i", 0, "Seconds between runs (defaults to daemon.interval_seconds)")
	cmd.Flags().BoolVar(&printOnly, "print", false, "Print the service definition without installing it")
	return cmd
}
