package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
)

// newRootCmd builds the command tree. Each call returns a fresh tree so
// tests can run commands in isolation.
func newRootCmd() *cobra.Command {
	a := newApp(os.Stdout)

	root := &cobra.Command{
		Use:   AppName,
		Short: "Tactical map annotation backend",
		Long: `geotime keeps a timeline-driven tactical map plan: markers, areas and
routes with time windows, scene bookmarks, a command hierarchy and a
security checklist. "serve" exposes it over HTTP and WebSocket; the other
commands work on saved plans offline.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			a.out = cmd.OutOrStdout()
			return a.setup(cmd.Context())
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			a.close()
		},
	}

	root.PersistentFlags().StringVar(&a.configDir, "config-dir", ".", "directory containing geotime.cfg.json")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override logLevel (debug, info, warn, error)")
	root.PersistentFlags().BoolVar(&a.logStdout, "log-stdout", false, "log to stdout instead of a session file")

	root.AddGroup(
		&cobra.Group{ID: "core", Title: "Core Commands:"},
		&cobra.Group{ID: "tools", Title: "Plan Tools:"},
	)

	root.AddCommand(
		newServeCmd(a),
		newRenderCmd(a),
		newClockCmd(a),
		newReportCmd(a),
		newPlotCmd(a),
		newGeocodeCmd(a),
		newTemplatesCmd(a),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		// No config or log file needed.
		PersistentPreRun: func(*cobra.Command, []string) {},
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s version %s\n", AppName, CurrentVersion)
			fmt.Fprintf(out, "built: %s\n", BuildDate)
			fmt.Fprintf(out, "go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "platform: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}
