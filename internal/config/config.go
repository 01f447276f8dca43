// Package config loads skysheet settings from defaults, an optional TOML
// file, a .env file and the environment, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// FileName is the config file looked up in the working directory.
const FileName = "skysheet.toml"

// Environment variables overriding the config file.
const (
	EnvWorkers    = "SKYSHEET_WORKERS"
	EnvOutputExt  = "SKYSHEET_OUTPUT_EXT"
	EnvBackupDir  = "SKYSHEET_BACKUP_DIR"
	EnvExtensions = "SKYSHEET_EXTENSIONS"
	EnvExclude    = "SKYSHEET_EXCLUDE"
)

var (
	// ErrInvalidConfig indicates a setting has an unusable value.
	ErrInvalidConfig = errors.New("invalid config")
)

// Config holds the settings of a minification run.
type Config struct {
	// Extensions eligible for minification, with leading dot.
	Extensions []string `toml:"extensions"`

	// OutputExtension replaces the extension of each processed file.
	OutputExtension string `toml:"output_extension"`

	// BackupDir is created next to each processed file.
	BackupDir string `toml:"backup_dir"`

	// BackupSuffix is appended to the file name of each backup.
	BackupSuffix string `toml:"backup_suffix"`

	// Exclude holds patterns skipped during directory traversal
	// (supports wildcards: backup/**, **/*.min.json).
	Exclude []string `toml:"exclude"`

	// Workers is the number of files processed in parallel.
	Workers int `toml:"workers"`

	// Source is the config file the settings came from, if any.
	Source string `toml:"-"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Extensions:      []string{".json", ".txt", ".skysheet"},
		OutputExtension: ".skysheet",
		BackupDir:       "backup",
		BackupSuffix:    ".bak",
		Exclude:         []string{"backup/**"},
		Workers:         1,
	}
}

// Load builds the config for dir. An explicit path must exist; otherwise
// dir/skysheet.toml is read if present.
func Load(dir, path string) (*Config, error) {
	cfg := Default()

	envPath := filepath.Join(dir, ".env")
	if err := godotenv.Load(envPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", envPath, err)
	}

	explicit := path != ""
	if !explicit {
		path = filepath.Join(dir, FileName)
	}

	if err := cfg.loadFile(path); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	c.Source = path
	return nil
}

func (c *Config) applyEnv() error {
	if v := strings.TrimSpace(os.Getenv(EnvWorkers)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not a number", ErrInvalidConfig, EnvWorkers, v)
		}
		c.Workers = n
	}
	if v := strings.TrimSpace(os.Getenv(EnvOutputExt)); v != "" {
		c.OutputExtension = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvBackupDir)); v != "" {
		c.BackupDir = v
	}
	if list := SplitList(os.Getenv(EnvExtensions)); len(list) > 0 {
		c.Extensions = list
	}
	if list := SplitList(os.Getenv(EnvExclude)); len(list) > 0 {
		c.Exclude = list
	}
	return nil
}

// normalize lowercases extensions and gives them a leading dot.
func (c *Config) normalize() {
	for i, ext := range c.Extensions {
		c.Extensions[i] = normalizeExt(ext)
	}
	c.OutputExtension = normalizeExt(c.OutputExtension)
}

// Validate checks that the settings can be used.
func (c *Config) Validate() error {
	if len(c.Extensions) == 0 {
		return fmt.Errorf("%w: no extensions configured", ErrInvalidConfig)
	}
	for _, ext := range c.Extensions {
		if ext == "" || ext == "." {
			return fmt.Errorf("%w: empty extension", ErrInvalidConfig)
		}
	}
	if c.OutputExtension == "" || c.OutputExtension == "." {
		return fmt.Errorf("%w: empty output extension", ErrInvalidConfig)
	}
	if c.BackupDir == "" || c.BackupDir != filepath.Base(c.BackupDir) || c.BackupDir == "." || c.BackupDir == ".." {
		return fmt.Errorf("%w: backup dir %q must be a single directory name", ErrInvalidConfig, c.BackupDir)
	}
	if c.BackupSuffix == "" {
		return fmt.Errorf("%w: empty backup suffix", ErrInvalidConfig)
	}
	if c.Workers < 1 {
		return fmt.Errorf("%w: workers must be at least 1, got %d", ErrInvalidConfig, c.Workers)
	}
	return nil
}

// SetOutputExtension overrides the output extension, as from a flag.
func (c *Config) SetOutputExtension(ext string) {
	c.OutputExtension = normalizeExt(ext)
}

// IsEligible reports whether name has one of the configured extensions.
// Matching ignores case.
func (c *Config) IsEligible(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range c.Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// SplitList parses a comma-separated value into a slice
func SplitList(val string) []string {
	var result []string
	for _, item := range strings.Split(val, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			result = append(result, item)
		}
	}
	return result
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// Exists checks if dir has a config file
func Exists(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, FileName))
	return err == nil && info.Mode().IsRegular()
}

// Template renders c as a commented config file.
func Template(c *Config) (string, error) {
	sections := []struct {
		comment string
		key     string
		value   any
	}{
		{"Extensions picked up when walking directories", "extensions", nonNil(c.Extensions)},
		{"Extension given to minified files", "output_extension", c.OutputExtension},
		{"Originals are copied to this directory next to each file", "backup_dir", c.BackupDir},
		{"", "backup_suffix", c.BackupSuffix},
		{"Paths skipped when walking directories (supports wildcards)", "exclude", nonNil(c.Exclude)},
		{"Files processed in parallel", "workers", c.Workers},
	}

	lines := []string{"# skysheet configuration"}
	for _, s := range sections {
		if s.comment != "" {
			lines = append(lines, "", "# "+s.comment)
		}
		// Marshal one key at a time so values are escaped the TOML way
		// while the comments stay in place.
		data, err := toml.Marshal(map[string]any{s.key: s.value})
		if err != nil {
			return "", fmt.Errorf("failed to render %s: %w", s.key, err)
		}
		lines = append(lines, strings.TrimRight(string(data), "\n"))
	}
	lines = append(lines, "")
	return strings.Join(lines, "\n"), nil
}

// nonNil keeps empty lists in the output; nil values are omitted by the encoder.
func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
