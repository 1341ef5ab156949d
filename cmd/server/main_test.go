package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_ConfigFlag(t *testing.T) {
	t.Setenv("CAIXINHA_CONFIG", "/etc/caixinha/server.yaml")

	flag := newRootCmd().PersistentFlags().Lookup("config")
	require.NotNil(t, flag)
	assert.Equal(t, "/etc/caixinha/server.yaml", flag.DefValue)
}

func TestRootCmd_MissingConfigFile(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml")})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load config")
}

func TestRootCmd_InvalidLogLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store:\n  driver: memory\nlog:\n  level: loud\n"), 0o600))

	cmd := newRootCmd()
	cmd.SetArgs([]string{"--config", path})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to build logger")
}

func TestRootCmd_RejectsArguments(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"serve"})

	assert.Error(t, cmd.Execute())
}
