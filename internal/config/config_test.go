package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adrata/dataops-cli/internal/resolve"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir()) // no config.yaml present

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, int32(10), cfg.Store.MaxConns)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 200, cfg.Batch.Size)
	assert.Equal(t, resolve.DefaultThreshold, cfg.Resolve.Threshold)
	assert.Equal(t, 30, cfg.Classify.SoloContactBonus)
	assert.Equal(t, 20, cfg.Classify.EarlierStagePenalty)
	assert.Equal(t, 25, cfg.Classify.LaterStageBonus)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	content := `
store:
  driver: sqlite
  database_url: local.db
resolve:
  threshold: 0.85
  corrections:
    - pattern: teh
      replacement: the
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644))
	t.Chdir(dir)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "local.db", cfg.Store.DatabaseURL)
	assert.Equal(t, 0.85, cfg.Resolve.Threshold)
	require.Len(t, cfg.Resolve.Corrections, 1)
	assert.Equal(t, resolve.Correction{Pattern: "teh", Replacement: "the"}, cfg.Resolve.Corrections[0])
}

func TestLoad_Environment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DATAOPS_STORE_DRIVER", "sqlite")
	t.Setenv("DATAOPS_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_CorrectionsFileExtendsInline(t *testing.T) {
	dir := t.TempDir()
	corrPath := filepath.Join(dir, "corrections.yaml")
	require.NoError(t, os.WriteFile(corrPath, []byte(
		"- pattern: acqusition\n  replacement: acquisition\n"), 0o644))

	content := `
resolve:
  corrections_file: ` + corrPath + `
  corrections:
    - pattern: teh
      replacement: the
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644))
	t.Chdir(dir)

	cfg, err := Load()
	require.NoError(t, err)
	require.Len(t, cfg.Resolve.Corrections, 2)
	assert.Equal(t, "teh", cfg.Resolve.Corrections[0].Pattern)
	assert.Equal(t, "acqusition", cfg.Resolve.Corrections[1].Pattern)
}

func TestLoadCorrections_MissingFile(t *testing.T) {
	_, err := LoadCorrections(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadCorrections_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{not yaml"), 0o644))

	_, err := LoadCorrections(path)
	assert.Error(t, err)
}

func TestInitLogger_BadLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "shout", Format: "json"})
	assert.Error(t, err)
}

func TestInitLogger_Valid(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	require.NoError(t, InitLogger(LogConfig{Level: "warn", Format: "json"}))
}
