package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"skysheet/internal/config"
	"skysheet/internal/logger"
	"skysheet/internal/processor"
	"skysheet/internal/ui"
	"skysheet/internal/version"
)

// Version is set by ldflags during build
var Version = "dev"

func displayVersion() string {
	return version.Resolve(Version)
}

// errFailed is returned when at least one file or path failed. The
// details have already been printed.
var errFailed = errors.New("one or more files failed")

var (
	configPath string
	workers    int
	dryRun     bool
	quiet      bool
	verbose    bool
	outputExt  string
	backupDir  string
)

var rootCmd = &cobra.Command{
	Use:   "skysheet [flags] <file|dir|glob>...",
	Short: "Minify Sky music sheets, JSON and text files",
	Args:  cobra.ArbitraryArgs,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.SetVerbose(verbose)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			cmd.Help()
			return errFailed
		}

		cfg, err := loadConfig(cmd)
		if err != nil {
			ui.PrintError("%v", err)
			return errFailed
		}

		if !quiet {
			ui.PrintHeader(displayVersion())
			ui.PrintInfo("Starting minification...")
		}

		p := processor.New(cfg)
		p.DryRun = dryRun
		summary := p.Run(cmd.Context(), args)

		for _, r := range summary.Results {
			printResult(r)
		}
		if !quiet {
			printSummary(summary, cfg)
		}

		if summary.Failed() > 0 {
			return errFailed
		}
		return nil
	},
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the CLI and exits non-zero on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errFailed) {
			ui.PrintError("%v", err)
		}
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.Long = ui.Divider() + "\n" + ui.Banner() + "\n" + ui.VersionLine(displayVersion()) + "\n\n" + ui.Divider() +
		"\n\n  Strips whitespace outside JSON string literals from .json, .txt and .skysheet files," +
		"\n  keeps the original encoding, backs up every source and writes <name>.skysheet."

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "path to a TOML config file (default ./"+config.FileName+")")
	flags.IntVarP(&workers, "workers", "w", 1, "number of files processed in parallel")
	flags.BoolVarP(&dryRun, "dry-run", "n", false, "report what would change without writing")
	flags.BoolVarP(&quiet, "quiet", "q", false, "only print errors and warnings")
	flags.BoolVarP(&verbose, "verbose", "v", false, "print diagnostic logging to stderr")
	flags.StringVar(&outputExt, "ext", "", "output extension (default .skysheet)")
	flags.StringVar(&backupDir, "backup-dir", "", "backup directory created next to each file (default backup)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
}

// loadConfig reads the config for the working directory and applies any
// flags the user set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	dir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get current directory: %w", err)
	}

	cfg, err := config.Load(dir, configPath)
	if err != nil {
		return nil, err
	}

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
		return nil, err
	}

	if cfg.Source != "" {
		logger.Debug("loaded config from %s", cfg.Source)
	}
	return cfg, nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "skysheet %s\n", displayVersion())
	},
}
