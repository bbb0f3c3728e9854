package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "ownerchain", cmd.Use)
	assert.Contains(t, cmd.Long, "update chain")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := [][]string{
		{"kinds"}, {"get"}, {"list"}, {"create"}, {"update"}, {"delete"}, {"repair"},
		{"secret", "verify"}, {"secret", "rotate"},
		{"permission", "grant"}, {"permission", "revoke"}, {"permission", "check"},
		{"permission", "use"}, {"permission", "list"},
		{"privacy", "init"}, {"privacy", "get"}, {"privacy", "set"},
		{"activity", "summary"}, {"activity", "record"},
		{"sweep"}, {"stats"}, {"export"}, {"import"},
	}

	for _, path := range commands {
		name := path[len(path)-1]
		t.Run(name, func(t *testing.T) {
			subCmd, _, err := cmd.Find(path)
			require.NoError(t, err, "Command %v should exist", path)
			require.NotNil(t, subCmd)
			assert.Equal(t, name, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	defaults := map[string]string{
		"format":    "text",
		"db":        "ownerchain.db",
		"owner":     "",
		"config":    "",
		"log-level": "warn",
		"page-size": "100",
		"metrics":   "",
	}
	for name, def := range defaults {
		f := cmd.PersistentFlags().Lookup(name)
		require.NotNil(t, f, "flag --%s", name)
		assert.Equal(t, def, f.DefValue, "flag --%s", name)
	}
}

func TestListCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	listCmd, _, err := cmd.Find([]string{"list"})
	require.NoError(t, err)

	for _, name := range []string{"instance", "limit", "offset"} {
		assert.NotNil(t, listCmd.Flags().Lookup(name), "flag --%s", name)
	}
	assert.Equal(t, "0", listCmd.Flags().Lookup("limit").DefValue)
}

func TestExportCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	exportCmd, _, err := cmd.Find([]string{"export"})
	require.NoError(t, err)

	outFlag := exportCmd.Flags().Lookup("out")
	require.NotNil(t, outFlag)
	assert.Equal(t, "o", outFlag.Shorthand)
	assert.NotNil(t, exportCmd.Flags().Lookup("bundle-format"))
}

func TestSweepCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	sweepCmd, _, err := cmd.Find([]string{"sweep"})
	require.NoError(t, err)

	assert.NotNil(t, sweepCmd.Flags().Lookup("older-than"))
	policy := sweepCmd.Flags().Lookup("policy")
	require.NotNil(t, policy)
	assert.Equal(t, "false", policy.DefValue)
}

func TestExecuteReportsErrors(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("OWNERCHAIN_OWNER", "")
	db := filepath.Join(t.TempDir(), "exec.db")

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	code := Execute(context.Background(), []string{"get", "profile", "--db", db, "--format", "json"}, stdout, stderr)
	assert.Equal(t, ExitCommandError, code)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "COMMAND_ERROR", resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "owner is required")

	stdout.Reset()
	code = Execute(context.Background(), []string{"list", "--limit", "many", "--db", db}, stdout, stderr)
	assert.Equal(t, ExitCommandError, code)
	assert.Contains(t, stderr.String(), "Error [COMMAND_ERROR]: invalid flags")
	assert.Empty(t, stdout.String())

	code = Execute(context.Background(), []string{"get", "profile", "--db", db, "--owner", "agent-1"}, stdout, stderr)
	assert.Equal(t, ExitSuccess, code)
}
