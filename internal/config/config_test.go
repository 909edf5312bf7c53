package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadReturnsEmptyConfigWhenAbsent(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "", cfg.ClientID)
}

func TestLoadReadsYaml(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("client_id: ABC\ndefault_skill: reviewer\n"), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "ABC", cfg.ClientID)
	assert.Equal(t, "reviewer", cfg.DefaultSkill)
}

func TestLoadAppliesTomlOverride(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("client_id: ABC\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(`client_id = "XYZ"`+"\n"), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "XYZ", cfg.ClientID)
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Save(dir, &Config{ClientID: "AAA", TasksDir: "tasks"}))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "AAA", cfg.ClientID)
	assert.Equal(t, "tasks", cfg.TasksDir)
}
