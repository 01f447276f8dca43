package cmd

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skysheet/internal/config"
)

func TestInit(t *testing.T) {
	t.Run("writes config with flags", func(t *testing.T) {
		dir := t.TempDir()

		out, err := execute(t, dir, "init", "--ext", "sky", "-w", "3")

		require.NoError(t, err)
		assert.Contains(t, out, "Created")

		cfg, err := config.Load(dir, "")
		require.NoError(t, err)
		assert.Equal(t, ".sky", cfg.OutputExtension)
		assert.Equal(t, 3, cfg.Workers)
	})

	t.Run("refuses to overwrite", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, config.FileName), "workers = 2\n")

		out, err := execute(t, dir, "init")

		assert.ErrorIs(t, err, errFailed)
		assert.Contains(t, out, "already exists")
		assert.Equal(t, "workers = 2\n", readFile(t, filepath.Join(dir, config.FileName)))
	})

	t.Run("force overwrites", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, config.FileName), "workers = 2\n")

		_, err := execute(t, dir, "init", "--force")

		require.NoError(t, err)
		assert.NotContains(t, readFile(t, filepath.Join(dir, config.FileName)), "workers = 2")

		cfg, err := config.Load(dir, "")
		require.NoError(t, err)
		assert.Equal(t, ".skysheet", cfg.OutputExtension)
	})
}
