package processor

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"skysheet/internal/logger"
)

// ExpandGlob expands a glob pattern relative to baseDir, supporting ** for
// recursive matching. Only regular files are returned, joined with baseDir.
func ExpandGlob(baseDir, pattern string) ([]string, error) {
	var results []string

	pattern = filepath.ToSlash(pattern)

	if strings.Contains(pattern, "**") {
		parts := strings.SplitN(pattern, "**", 2)
		prefix := strings.TrimSuffix(parts[0], "/")
		suffix := strings.TrimPrefix(parts[1], "/")

		startDir := baseDir
		if prefix != "" {
			startDir = filepath.Join(baseDir, filepath.FromSlash(prefix))
		}

		err := filepath.WalkDir(startDir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if path == startDir {
					return err
				}
				return nil // Skip unreadable entries
			}
			if !d.Type().IsRegular() {
				return nil
			}

			// Match the file name, then the path below the ** point
			if suffix != "" {
				matched, _ := filepath.Match(suffix, d.Name())
				if !matched {
					relFromStart, _ := filepath.Rel(startDir, path)
					matched, _ = filepath.Match(suffix, filepath.ToSlash(relFromStart))
				}
				if !matched {
					return nil
				}
			}

			results = append(results, path)
			return nil
		})
		if err != nil {
			return nil, err
		}
		return results, nil
	}

	matches, err := filepath.Glob(filepath.Join(baseDir, filepath.FromSlash(pattern)))
	if err != nil {
		return nil, err
	}
	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		results = append(results, match)
	}

	return results, nil
}

// FilterMatches keeps the glob matches below base that a directory walk
// would pick: eligible files outside directories named skipDir that match
// no exclude pattern.
func FilterMatches(base string, matches []string, eligible func(name string) bool, skipDir string, excludes []string) []string {
	var results []string
	for _, match := range matches {
		if !eligible(filepath.Base(match)) {
			continue
		}
		relPath, err := filepath.Rel(base, match)
		if err != nil {
			relPath = match
		}
		if inDir(relPath, skipDir) || IsExcluded(relPath, excludes) {
			logger.Debug("skipping %s", match)
			continue
		}
		results = append(results, match)
	}
	return results
}

// inDir reports whether any directory element of relPath is named dir.
func inDir(relPath, dir string) bool {
	elems := strings.Split(filepath.ToSlash(filepath.Dir(relPath)), "/")
	for _, elem := range elems {
		if elem == dir {
			return true
		}
	}
	return false
}

// splitGlob splits a pattern into the directory before its first glob
// element and the rest of the pattern.
func splitGlob(pattern string) (string, string) {
	pattern = filepath.ToSlash(pattern)
	elems := strings.Split(pattern, "/")
	for i, elem := range elems {
		if containsGlobChars(elem) {
			base := strings.Join(elems[:i], "/")
			if base == "" && strings.HasPrefix(pattern, "/") {
				base = "/"
			}
			if base == "" {
				base = "."
			}
			return filepath.FromSlash(base), strings.Join(elems[i:], "/")
		}
	}
	return filepath.Dir(filepath.FromSlash(pattern)), filepath.Base(pattern)
}

// containsGlobChars checks if a pattern contains glob special characters
func containsGlobChars(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[")
}

// IsExcluded checks if a path matches any of the exclude patterns
func IsExcluded(path string, excludes []string) bool {
	for _, pattern := range excludes {
		if matchPattern(path, pattern) {
			return true
		}
	}
	return false
}

// matchPattern checks if a path matches a pattern (supports * and **)
func matchPattern(path, pattern string) bool {
	path = filepath.ToSlash(path)
	pattern = filepath.ToSlash(pattern)

	if strings.Contains(pattern, "**") {
		parts := strings.SplitN(pattern, "**", 2)
		prefix := strings.TrimSuffix(parts[0], "/")
		suffix := strings.TrimPrefix(parts[1], "/")

		// The prefix must name whole path elements
		if prefix != "" && path != prefix && !strings.HasPrefix(path, prefix+"/") {
			matched, _ := filepath.Match(prefix, firstElems(path, strings.Count(prefix, "/")+1))
			if !matched {
				return false
			}
		}

		if suffix == "" {
			return true
		}
		if matched, _ := filepath.Match(suffix, filepath.Base(path)); matched {
			return true
		}
		return strings.HasSuffix(path, "/"+suffix)
	}

	if matched, _ := filepath.Match(pattern, path); matched {
		return true
	}

	// Also try matching against just the filename
	matched, _ := filepath.Match(pattern, filepath.Base(path))
	return matched
}

// firstElems returns the first n slash-separated elements of path.
func firstElems(path string, n int) string {
	elems := strings.SplitN(path, "/", n+1)
	if len(elems) > n {
		elems = elems[:n]
	}
	return strings.Join(elems, "/")
}

// Discover walks root and returns the eligible files below it, in lexical
// order. Directories named skipDir and paths matching excludes (relative
// to root) are skipped.
func Discover(root string, eligible func(name string) bool, skipDir string, excludes []string) ([]string, error) {
	var results []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			logger.Debug("skipping %s: %v", path, err)
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		if d.IsDir() {
			if path == root {
				return nil
			}
			if d.Name() == skipDir || IsExcluded(relPath, excludes) {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() || !eligible(d.Name()) || IsExcluded(relPath, excludes) {
			return nil
		}

		results = append(results, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return results, nil
}
