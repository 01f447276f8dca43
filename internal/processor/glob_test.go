package processor

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"skysheet/internal/config"
)

func makeTree(t *testing.T, files []string) string {
	t.Helper()
	tmpDir := t.TempDir()
	for _, f := range files {
		path := filepath.Join(tmpDir, filepath.FromSlash(f))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(`{ "a" : 1 }`), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return tmpDir
}

func TestExpandGlob(t *testing.T) {
	tmpDir := makeTree(t, []string{
		"sheet1.json",
		"sheet2.json",
		"notes.txt",
		"songs/a.skysheet",
		"songs/b.json",
		"songs/old/c.json",
		"assets/readme.txt",
	})

	tests := []struct {
		name     string
		pattern  string
		expected int
	}{
		{"single wildcard json", "*.json", 2},
		{"single wildcard txt", "*.txt", 1},
		{"recursive json", "**/*.json", 4},
		{"recursive txt", "**/*.txt", 2},
		{"prefixed recursive", "songs/**/*.json", 2},
		{"subdirectory wildcard", "songs/*", 2},
		{"question mark", "sheet?.json", 2},
		{"character class", "sheet[1].json", 1},
		{"no match", "*.csv", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := ExpandGlob(tmpDir, tt.pattern)
			if err != nil {
				t.Errorf("ExpandGlob(%q) error = %v", tt.pattern, err)
				return
			}
			if len(results) != tt.expected {
				t.Errorf("ExpandGlob(%q) = %d files, want %d. Got: %v", tt.pattern, len(results), tt.expected, results)
			}
		})
	}
}

func TestSplitGlob(t *testing.T) {
	tests := []struct {
		pattern string
		base    string
		rest    string
	}{
		{"*.json", ".", "*.json"},
		{"data/*.json", "data", "*.json"},
		{"data/**/*.txt", "data", "**/*.txt"},
		{"/abs/dir/*.json", "/abs/dir", "*.json"},
		{"/*.json", "/", "*.json"},
		{"a/b/c.json", "a/b", "c.json"},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			base, rest := splitGlob(tt.pattern)
			if filepath.ToSlash(base) != tt.base || rest != tt.rest {
				t.Errorf("splitGlob(%q) = %q, %q, want %q, %q", tt.pattern, base, rest, tt.base, tt.rest)
			}
		})
	}
}

func TestContainsGlobChars(t *testing.T) {
	tests := []struct {
		pattern  string
		expected bool
	}{
		{"*.json", true},
		{"file?.txt", true},
		{"[abc].txt", true},
		{"file.txt", false},
		{"songs/file.skysheet", false},
		{"**/*.json", true},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			result := containsGlobChars(tt.pattern)
			if result != tt.expected {
				t.Errorf("containsGlobChars(%q) = %v, want %v", tt.pattern, result, tt.expected)
			}
		})
	}
}

func TestIsExcluded(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		excludes []string
		expected bool
	}{
		{"no excludes", "file.json", []string{}, false},
		{"exact match", "file.json", []string{"file.json"}, true},
		{"wildcard match", "file.json", []string{"*.json"}, true},
		{"no match", "file.json", []string{"*.txt"}, false},
		{"directory exclude", "drafts/file.json", []string{"drafts/*"}, true},
		{"recursive exclude", "songs/old/file.json", []string{"**/*.json"}, true},
		{"directory tree", "drafts/deep/file.json", []string{"drafts/**"}, true},
		{"directory itself", "drafts", []string{"drafts/**"}, true},
		{"similar prefix", "drafts-old/file.json", []string{"drafts/**"}, false},
		{"multiple excludes match", "file.json", []string{"*.txt", "*.json"}, true},
		{"multiple excludes no match", "file.skysheet", []string{"*.txt", "*.json"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IsExcluded(tt.path, tt.excludes)
			if result != tt.expected {
				t.Errorf("IsExcluded(%q, %v) = %v, want %v", tt.path, tt.excludes, result, tt.expected)
			}
		})
	}
}

func TestMatchPattern(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		pattern  string
		expected bool
	}{
		{"exact match", "file.json", "file.json", true},
		{"wildcard extension", "file.json", "*.json", true},
		{"wildcard name", "file.json", "file.*", true},
		{"no match", "file.json", "*.txt", false},
		{"recursive pattern", "songs/old/file.json", "**/*.json", true},
		{"path with directory", "songs/file.json", "songs/*.json", true},
		{"directory prefix", "backup/a.json.bak", "backup/*", true},
		{"globbed prefix", "songs2/x/a.json", "songs?/**", true},
		{"path suffix", "a/b/c.json", "**/b/c.json", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := matchPattern(tt.path, tt.pattern)
			if result != tt.expected {
				t.Errorf("matchPattern(%q, %q) = %v, want %v", tt.path, tt.pattern, result, tt.expected)
			}
		})
	}
}

func TestDiscover(t *testing.T) {
	tmpDir := makeTree(t, []string{
		"a.json",
		"B.JSON",
		"notes.txt",
		"image.png",
		"backup/a.json.bak",
		"backup/old.json",
		"songs/c.skysheet",
		"songs/backup/c.skysheet.bak",
		"drafts/d.json",
	})
	cfg := config.Default()

	tests := []struct {
		name     string
		excludes []string
		expected []string
	}{
		{"defaults", nil, []string{"B.JSON", "a.json", "drafts/d.json", "notes.txt", "songs/c.skysheet"}},
		{"exclude directory", []string{"drafts/**"}, []string{"B.JSON", "a.json", "notes.txt", "songs/c.skysheet"}},
		{"exclude by name", []string{"*.txt"}, []string{"B.JSON", "a.json", "drafts/d.json", "songs/c.skysheet"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := Discover(tmpDir, cfg.IsEligible, cfg.BackupDir, tt.excludes)
			if err != nil {
				t.Fatalf("Discover() error = %v", err)
			}

			var rel []string
			for _, r := range results {
				p, _ := filepath.Rel(tmpDir, r)
				rel = append(rel, filepath.ToSlash(p))
			}
			sort.Strings(rel)

			if len(rel) != len(tt.expected) {
				t.Fatalf("Discover() = %v, want %v", rel, tt.expected)
			}
			for i := range rel {
				if rel[i] != tt.expected[i] {
					t.Errorf("Discover()[%d] = %q, want %q", i, rel[i], tt.expected[i])
				}
			}
		})
	}
}

func TestFilterMatches(t *testing.T) {
	tmpDir := makeTree(t, []string{
		"a.json",
		"a.skysheet",
		"cover.png",
		"backup/a.json.bak",
		"backup/old.json",
		"songs/b.txt",
		"songs/backup/b.txt.bak",
		"songs/backup/stale.txt",
		"drafts/d.json",
	})
	cfg := config.Default()

	tests := []struct {
		name     string
		pattern  string
		excludes []string
		expected []string
	}{
		{"recursive", "**", nil, []string{"a.json", "a.skysheet", "drafts/d.json", "songs/b.txt"}},
		{"recursive json", "**/*.json", nil, []string{"a.json", "drafts/d.json"}},
		{"single level", "*", nil, []string{"a.json", "a.skysheet"}},
		{"with excludes", "**", []string{"drafts/**", "*.skysheet"}, []string{"a.json", "songs/b.txt"}},
		{"base inside backup dir acts like a directory argument", "backup/*", nil, []string{"backup/old.json"}},
		{"nested backup dirs", "songs/**", nil, []string{"songs/b.txt"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base, pattern := splitGlob(filepath.Join(tmpDir, filepath.FromSlash(tt.pattern)))
			matches, err := ExpandGlob(base, pattern)
			if err != nil {
				t.Fatalf("ExpandGlob(%q) error = %v", tt.pattern, err)
			}

			var rel []string
			for _, m := range FilterMatches(base, matches, cfg.IsEligible, cfg.BackupDir, tt.excludes) {
				p, _ := filepath.Rel(tmpDir, m)
				rel = append(rel, filepath.ToSlash(p))
			}
			sort.Strings(rel)

			if len(rel) != len(tt.expected) {
				t.Fatalf("FilterMatches(%q) = %v, want %v", tt.pattern, rel, tt.expected)
			}
			for i := range rel {
				if rel[i] != tt.expected[i] {
					t.Errorf("FilterMatches(%q)[%d] = %q, want %q", tt.pattern, i, rel[i], tt.expected[i])
				}
			}
		})
	}
}

func TestDiscoverMissingRoot(t *testing.T) {
	_, err := Discover(filepath.Join(t.TempDir(), "missing"), config.Default().IsEligible, "backup", nil)
	if err == nil {
		t.Error("Discover() error = nil, want error for missing root")
	}
}
