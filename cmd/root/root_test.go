package root_test

import (
	"os"
	"path/filepath"
	"testing"

	"fjacquet/spend-intel/cmd/root"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	root.Init()
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "spend-intel", root.Cmd.Use)
	assert.Contains(t, root.Cmd.Short, "transaction intelligence")
	assert.NotNil(t, root.Cmd.Run)
	assert.NotNil(t, root.Cmd.PersistentPreRunE)
	assert.NotNil(t, root.Cmd.PersistentPostRun)
}

func TestRootCommand_Flags(t *testing.T) {
	tests := []struct {
		name      string
		shorthand string
	}{
		{"config", "c"},
		{"log-level", ""},
		{"log-format", ""},
		{"csv-delimiter", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag := root.Cmd.PersistentFlags().Lookup(tt.name)
			require.NotNil(t, flag)
			assert.Equal(t, tt.shorthand, flag.Shorthand)
			assert.Equal(t, "", flag.DefValue)
			assert.NotEmpty(t, flag.Usage)
		})
	}
}

func TestLoadConfig_FlagOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: info\nanomaly:\n  threshold: 2.5\n"), 0600))

	root.Flags.ConfigFile = path
	root.Flags.LogLevel = "DEBUG"
	root.Flags.LogFormat = "json"
	defer func() { root.Flags = root.GlobalFlags{} }()

	cfg, err := root.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 2.5, cfg.Anomaly.Threshold)
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	root.Flags.ConfigFile = filepath.Join(t.TempDir(), "missing.yaml")
	defer func() { root.Flags = root.GlobalFlags{} }()

	_, err := root.LoadConfig()
	assert.Error(t, err)
}

func TestGetContainer_NotInitialized(t *testing.T) {
	root.AppContainer = nil
	_, err := root.GetContainer()
	assert.Error(t, err)
}
