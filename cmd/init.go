package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"skysheet/internal/config"
	"skysheet/internal/ui"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Create a skysheet.toml with the default settings",
	Long:  "Write a commented " + config.FileName + " to the given directory (default: the current one). Flags such as --ext, --backup-dir and --workers are written into it.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := "."
		if len(args) > 0 {
			dir = args[0]
		}

		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			ui.PrintError("Not a directory: %s", dir)
			return errFailed
		}

		if config.Exists(dir) && !initForce {
			ui.PrintWarning("%s already exists (use --force to overwrite)", config.FileName)
			return errFailed
		}

		cfg := config.Default()
		flags := cmd.Flags()
		if flags.Changed("workers") {
			cfg.Workers = workers
		}
		if flags.Changed("ext") {
			cfg.SetOutputExtension(outputExt)
		}
		if flags.Changed("backup-dir") {
			cfg.BackupDir = backupDir
		}
		if err := cfg.Validate(); err != nil {
			ui.PrintError("%v", err)
			return errFailed
		}

		content, err := config.Template(cfg)
		if err != nil {
			ui.PrintError("%v", err)
			return errFailed
		}

		path := filepath.Join(dir, config.FileName)
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			ui.PrintError("Failed to create %s: %v", config.FileName, err)
			return errFailed
		}

		if !quiet {
			ui.PrintSuccess("Created %s", path)
		}
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite an existing config file")
}
