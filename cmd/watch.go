package cmd

import (
	"github.com/spf13/cobra"

	"skysheet/internal/processor"
	"skysheet/internal/ui"
	"skysheet/internal/watcher"
)

var debounce = watcher.DefaultDebounce

var watchCmd = &cobra.Command{
	Use:   "watch <file|dir>...",
	Short: "Watch files and directories and minify them when they change",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			ui.PrintError("%v", err)
			return errFailed
		}

		if !quiet {
			ui.PrintHeader(displayVersion())
		}

		p := processor.New(cfg)
		p.DryRun = dryRun

		w, err := watcher.New(p)
		if err != nil {
			ui.PrintError("%v", err)
			return errFailed
		}
		defer w.Close()

		w.Debounce = debounce
		w.OnResult = printResult

		for _, arg := range args {
			if err := w.Add(arg); err != nil {
				ui.PrintError("Failed to watch %s: %v", arg, err)
				return errFailed
			}
			if !quiet {
				ui.PrintInfo("Watching %s", arg)
			}
		}

		if !quiet {
			ui.PrintInfo("Press Ctrl+C to stop")
			ui.PrintLine("")
		}

		return w.Run(cmd.Context())
	},
}

func init() {
	watchCmd.Flags().DurationVar(&debounce, "debounce", watcher.DefaultDebounce, "quiet period before a changed file is processed")
	rootCmd.AddCommand(watchCmd)
}
