// Package processor runs the minifier over files on disk: it detects the
// encoding, writes a backup of the original and writes the minified text
// next to it under the output extension.
package processor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"skysheet/internal/config"
	"skysheet/internal/logger"
	"skysheet/internal/minifier"
	"skysheet/internal/textenc"
)

// Processor minifies files according to a Config.
type Processor struct {
	Config *config.Config

	// DryRun reports what would be written without touching the disk.
	DryRun bool

	// BeforeWrite, if set, is called with each path right before it is written.
	BeforeWrite func(path string)
}

// New creates a Processor. A nil cfg uses the defaults.
func New(cfg *config.Config) *Processor {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Processor{Config: cfg}
}

// OutputPath returns where the minified version of path is written.
func (p *Processor) OutputPath(path string) string {
	dir, name := filepath.Split(path)
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	return filepath.Join(dir, stem+p.Config.OutputExtension)
}

// BackupPath returns where the backup of path is written.
func (p *Processor) BackupPath(path string) string {
	dir, name := filepath.Split(path)
	return filepath.Join(dir, p.Config.BackupDir, name+p.Config.BackupSuffix)
}

// Process minifies a single file. The backup is written before the output;
// a failure leaves whatever was already written in place.
func (p *Processor) Process(ctx context.Context, path string) *Result {
	result := &Result{
		Path:       path,
		OutputPath: p.OutputPath(path),
		BackupPath: p.BackupPath(path),
		DryRun:     p.DryRun,
	}
	log := logger.WithFile(path)

	if err := ctx.Err(); err != nil {
		result.Err = &FileError{Path: path, Op: "process", Err: err}
		return result
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			err = ErrNotFound
		}
		result.Err = &FileError{Path: path, Op: "stat", Err: err}
		return result
	}
	if !info.Mode().IsRegular() {
		result.Err = &FileError{Path: path, Op: "stat", Err: ErrUnsupportedPath}
		return result
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		result.Err = &FileError{Path: path, Op: "read", Err: err}
		return result
	}
	result.InputBytes = len(raw)
	log.Debugf("read %d bytes", len(raw))

	doc, err := textenc.Decode(raw)
	if err != nil {
		fe := &FileError{Path: path, Op: "decode", Err: err}
		var de *textenc.DecodeError
		if errors.As(err, &de) && de.Offset >= 0 {
			fe.Line = textenc.LineAt(string(raw), de.Offset)
		}
		result.Err = fe
		return result
	}
	result.Encoding = doc.Encoding
	result.BOM = doc.BOM
	log.Debugf("encoding %v (bom: %v)", doc.Encoding, doc.BOM)

	scan := minifier.Scan(doc.Text)
	if scan.Unterminated() {
		result.UnterminatedLine = textenc.LineAt(doc.Text, scan.OpenQuote)
		log.Warnf("unterminated string literal starting on line %d", result.UnterminatedLine)
	}

	out, err := textenc.Encode(scan.Text, doc.Encoding, doc.BOM)
	if err != nil {
		result.Err = &FileError{Path: path, Op: "encode", Err: err}
		return result
	}
	result.OutputBytes = len(out)

	if p.DryRun {
		log.Debugf("dry run, would write %s and %s", result.BackupPath, result.OutputPath)
		return result
	}

	if err := p.writeBackup(result.BackupPath, raw, info); err != nil {
		result.Err = &FileError{Path: result.BackupPath, Op: "backup", Err: err}
		return result
	}
	log.Debugf("backup written to %s", result.BackupPath)

	p.beforeWrite(result.OutputPath)
	if err := os.WriteFile(result.OutputPath, out, info.Mode().Perm()); err != nil {
		result.Err = &FileError{Path: result.OutputPath, Op: "write", Err: err}
		return result
	}
	log.Debugf("wrote %d bytes to %s", len(out), result.OutputPath)

	return result
}

// writeBackup stores the original bytes, keeping mode and modification time.
func (p *Processor) writeBackup(dst string, raw []byte, info os.FileInfo) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("failed to create backup directory: %w", err)
	}
	p.beforeWrite(dst)
	if err := os.WriteFile(dst, raw, info.Mode().Perm()); err != nil {
		return err
	}
	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}

func (p *Processor) beforeWrite(path string) {
	if p.BeforeWrite != nil {
		p.BeforeWrite(path)
	}
}
