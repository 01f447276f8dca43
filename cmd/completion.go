package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"skysheet/internal/ui"
)

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion script",
	Long: `Generate shell completion script for skysheet.

To load completions:

Bash:
  $ source <(skysheet completion bash)

Zsh:
  $ skysheet completion zsh > "${fpath[1]}/_skysheet"

Fish:
  $ skysheet completion fish | source

PowerShell:
  PS> skysheet completion powershell | Out-String | Invoke-Expression

Or run 'skysheet completion install' to set it up for the current shell.
`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		return genCompletion(cmd.OutOrStdout(), args[0])
	},
}

var completionInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Install shell completion for your current shell",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		shell := detectShell(os.Getenv("SHELL"))
		if shell == "" {
			ui.PrintError("Could not detect shell. Please use 'skysheet completion [bash|zsh|fish|powershell]' manually")
			return errFailed
		}

		home, err := os.UserHomeDir()
		if err != nil {
			ui.PrintError("Could not find home directory: %v", err)
			return errFailed
		}

		inst, err := installCompletion(shell, home)
		if err != nil {
			ui.PrintError("%v", err)
			return errFailed
		}

		ui.PrintSuccess("Installed completion script to %s", inst.script)
		if inst.rcUpdated {
			ui.PrintSuccess("Updated %s", inst.rcFile)
		}
		if inst.rcFile != "" {
			ui.PrintInfo("Restart your shell or run: source %s", inst.rcFile)
		} else {
			ui.PrintInfo("Restart your shell to load completions")
		}
		return nil
	},
}

func genCompletion(w io.Writer, shell string) error {
	switch shell {
	case "bash":
		return rootCmd.GenBashCompletionV2(w, true)
	case "zsh":
		return rootCmd.GenZshCompletion(w)
	case "fish":
		return rootCmd.GenFishCompletion(w, true)
	case "powershell":
		return rootCmd.GenPowerShellCompletionWithDesc(w)
	}
	return fmt.Errorf("unsupported shell %q", shell)
}

type completionInstall struct {
	script    string
	rcFile    string
	rcUpdated bool
}

// installCompletion writes the completion script for shell below home and
// makes sure the shell's rc file loads it.
func installCompletion(shell, home string) (*completionInstall, error) {
	inst := &completionInstall{}
	var dir, sourceLine string

	switch shell {
	case "zsh":
		dir = filepath.Join(home, ".zsh", "completions")
		inst.script = filepath.Join(dir, "_skysheet")
		inst.rcFile = filepath.Join(home, ".zshrc")
		sourceLine = fmt.Sprintf("\n# skysheet completion\nfpath=(%s $fpath)\nautoload -Uz compinit && compinit\n", dir)
	case "bash":
		dir = filepath.Join(home, ".bash_completion.d")
		inst.script = filepath.Join(dir, "skysheet")
		inst.rcFile = filepath.Join(home, ".bashrc")
		sourceLine = fmt.Sprintf("\n# skysheet completion\n[ -f %s ] && source %s\n", inst.script, inst.script)
	case "fish":
		// Fish loads everything in its completions directory.
		dir = filepath.Join(home, ".config", "fish", "completions")
		inst.script = filepath.Join(dir, "skysheet.fish")
	default:
		return nil, fmt.Errorf("auto-install not supported for %s, use 'skysheet completion %s' instead", shell, shell)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create completion directory: %w", err)
	}

	f, err := os.Create(inst.script)
	if err != nil {
		return nil, fmt.Errorf("failed to create completion file: %w", err)
	}
	if err := genCompletion(f, shell); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write completion file: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to write completion file: %w", err)
	}

	if inst.rcFile == "" {
		return inst, nil
	}

	rc, _ := os.ReadFile(inst.rcFile)
	if strings.Contains(string(rc), "skysheet completion") {
		return inst, nil
	}

	rf, err := os.OpenFile(inst.rcFile, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("could not update %s, add manually: %s", inst.rcFile, strings.TrimSpace(sourceLine))
	}
	defer rf.Close()
	if _, err := rf.WriteString(sourceLine); err != nil {
		return nil, fmt.Errorf("could not update %s: %w", inst.rcFile, err)
	}
	inst.rcUpdated = true
	return inst, nil
}

func detectShell(shell string) string {
	switch {
	case strings.Contains(shell, "zsh"):
		return "zsh"
	case strings.Contains(shell, "bash"):
		return "bash"
	case strings.Contains(shell, "fish"):
		return "fish"
	}
	return ""
}

func init() {
	completionCmd.AddCommand(completionInstallCmd)
	rootCmd.AddCommand(completionCmd)
}
