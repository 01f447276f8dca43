package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"skysheet/internal/config"
	"skysheet/internal/processor"
	"skysheet/internal/ui"
)

func printResult(r *processor.Result) {
	if !r.OK() {
		ui.PrintError("%v", r.Err)
		return
	}

	if r.UnterminatedLine > 0 {
		ui.PrintWarning("%s:%d: string literal is never closed, its remainder was kept as is", r.Path, r.UnterminatedLine)
	}
	if quiet {
		return
	}

	verb := "Minified"
	if r.DryRun {
		verb = "Would minify"
	}
	ui.PrintSuccess("%s: %s → %s", verb, r.Path, filepath.Base(r.OutputPath))
	ui.PrintKeyValue("Encoding", encodingLabel(r))
	ui.PrintKeyValue("Backup", r.BackupPath)
	ui.PrintKeyValue("Size", fmt.Sprintf("%d → %d bytes", r.InputBytes, r.OutputBytes))
}

func encodingLabel(r *processor.Result) string {
	if r.BOM {
		return r.Encoding.String() + " (BOM)"
	}
	return r.Encoding.String()
}

func printSummary(s *processor.Summary, cfg *config.Config) {
	ui.PrintLine("")
	ui.PrintLine("%s", ui.Divider())
	ui.PrintLine("%s", ui.Header("Summary"))

	locations := "none"
	if len(s.Locations) > 0 {
		locations = strings.Join(s.Locations, ", ")
	}
	ui.PrintKeyValue("Processed locations", locations)
	ui.PrintKeyValue("Minified", fmt.Sprintf("%d files", s.Succeeded()))
	ui.PrintKeyValue("Errors", fmt.Sprintf("%d", s.Failed()))
	if n := s.Warnings(); n > 0 {
		ui.PrintKeyValue("Warnings", fmt.Sprintf("%d", n))
	}
	ui.PrintLine("")

	ui.PrintInfo("Originals are kept unchanged in %q subdirectories", cfg.BackupDir)
	ui.PrintInfo("Outputs keep the original encoding (UTF-8 or UTF-16-LE)")
	ui.PrintInfo("Whitespace inside JSON strings is preserved")
	ui.PrintInfo("Outputs use the %s extension", cfg.OutputExtension)
	ui.PrintLine("")

	switch {
	case s.Failed() > 0:
		ui.PrintError("Finished with %d errors", s.Failed())
	case dryRun:
		ui.PrintSuccess("Dry run complete, nothing was written")
	default:
		ui.PrintSuccess("Minification complete!")
	}
}
