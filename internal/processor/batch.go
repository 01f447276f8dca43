package processor

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"skysheet/internal/logger"
)

// Resolve turns command-line arguments into the list of files to process.
// Files are kept whatever their extension. Directories are walked for
// eligible files and glob matches are filtered the same way. Arguments
// that cannot be resolved produce failed results. Duplicates are dropped.
func (p *Processor) Resolve(args []string) ([]string, []string, []*Result) {
	var files, locations []string
	var failed []*Result
	seen := make(map[string]bool)

	add := func(path string) {
		key := absPath(path)
		if seen[key] {
			return
		}
		seen[key] = true
		files = append(files, path)
	}

	fail := func(path, op string, err error) {
		failed = append(failed, &Result{Path: path, Err: &FileError{Path: path, Op: op, Err: err}})
	}

	for _, arg := range args {
		path := filepath.Clean(arg)

		info, err := os.Stat(path)
		if err != nil && containsGlobChars(path) {
			base, pattern := splitGlob(path)
			matches, err := ExpandGlob(base, pattern)
			if err != nil {
				fail(path, "glob", err)
				continue
			}
			matches = FilterMatches(base, matches, p.Config.IsEligible, p.Config.BackupDir, p.Config.Exclude)
			if len(matches) == 0 {
				fail(path, "glob", ErrNoMatch)
				continue
			}
			locations = append(locations, path)
			for _, match := range matches {
				add(match)
			}
			continue
		}
		if err != nil {
			if os.IsNotExist(err) {
				err = ErrNotFound
			}
			fail(path, "stat", err)
			continue
		}

		switch {
		case info.Mode().IsRegular():
			locations = append(locations, path)
			add(path)
		case info.IsDir():
			found, err := Discover(path, p.Config.IsEligible, p.Config.BackupDir, p.Config.Exclude)
			if err != nil {
				fail(path, "walk", err)
				continue
			}
			logger.Debug("found %d files in %s", len(found), path)
			locations = append(locations, path)
			for _, f := range found {
				add(f)
			}
		default:
			fail(path, "stat", ErrUnsupportedPath)
		}
	}

	return files, locations, failed
}

// Run resolves args and processes every file, with up to Config.Workers
// files in flight. Files sharing an output path are processed one after
// another in the order they were found, except that a file which is its
// own output goes first so its backup holds the original bytes. Results
// keep discovery order, after the results of arguments that could not be
// resolved.
func (p *Processor) Run(ctx context.Context, args []string) *Summary {
	files, locations, failed := p.Resolve(args)

	results := make([]*Result, len(files))
	var jobs [][]int
	byOutput := make(map[string]int)
	for i, f := range files {
		out := absPath(p.OutputPath(f))
		if j, ok := byOutput[out]; ok {
			// Case-insensitive file systems map song.SKYSHEET onto song.skysheet.
			if strings.EqualFold(absPath(f), out) {
				jobs[j] = append([]int{i}, jobs[j]...)
			} else {
				jobs[j] = append(jobs[j], i)
			}
			continue
		}
		byOutput[out] = len(jobs)
		jobs = append(jobs, []int{i})
	}

	workers := p.Config.Workers
	if workers < 1 {
		workers = 1
	}
	logger.Debug("processing %d files in %d jobs with %d workers", len(files), len(jobs), workers)

	var g errgroup.Group
	g.SetLimit(workers)
	for _, job := range jobs {
		g.Go(func() error {
			for _, i := range job {
				results[i] = p.Process(ctx, files[i])
			}
			return nil
		})
	}
	// Workers never fail; per-file errors are kept in the results.
	_ = g.Wait()

	return &Summary{
		Locations: locations,
		Results:   append(failed, results...),
	}
}

func absPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
