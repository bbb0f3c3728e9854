package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate keeps Load away from any real config in the home directory.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
}

func testFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("db", "ownerchain.db", "")
	fs.String("owner", "", "")
	fs.String("format", "text", "")
	fs.String("log-level", "warn", "")
	fs.Int("page-size", 100, "")
	fs.String("metrics", "", "")
	return fs
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ownerchain.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "ownerchain.db", cfg.DB)
	assert.Equal(t, "", cfg.Owner)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "text", cfg.Format)
	assert.Equal(t, 100, cfg.PageSize)
	assert.Equal(t, "", cfg.Metrics)
	require.NoError(t, cfg.Validate())
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadFromFile(t *testing.T) {
	isolate(t)
	path := writeConfig(t, `
db: /var/lib/ownerchain/records.db
owner: agent-1
log_level: debug
format: json
page_size: 25
metrics: "-"
`)

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/ownerchain/records.db", cfg.DB)
	assert.Equal(t, "agent-1", cfg.Owner)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, 25, cfg.PageSize)
	assert.Equal(t, "-", cfg.Metrics)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	isolate(t)

	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadPrecedence(t *testing.T) {
	isolate(t)
	path := writeConfig(t, "owner: from-file\npage_size: 25\nformat: json\n")

	t.Setenv("OWNERCHAIN_OWNER", "from-env")
	t.Setenv("OWNERCHAIN_PAGE_SIZE", "50")

	fs := testFlags()
	require.NoError(t, fs.Parse([]string{"--page-size", "10"}))

	cfg, err := Load(path, fs)
	require.NoError(t, err)

	// env beats file, a set flag beats env, file beats an unset flag.
	assert.Equal(t, "from-env", cfg.Owner)
	assert.Equal(t, 10, cfg.PageSize)
	assert.Equal(t, "json", cfg.Format)
}

func TestLoadFlagNames(t *testing.T) {
	isolate(t)

	fs := testFlags()
	require.NoError(t, fs.Parse([]string{"--log-level", "info", "--metrics", "out.prom", "--db", "x.db"}))

	cfg, err := Load("", fs)
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "out.prom", cfg.Metrics)
	assert.Equal(t, "x.db", cfg.DB)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
		errMsg  string
	}{
		{name: "valid config", mutate: func(*Config) {}},
		{name: "json format valid", mutate: func(c *Config) { c.Format = "json" }},
		{name: "invalid format", mutate: func(c *Config) { c.Format = "xml" }, wantErr: true, errMsg: "invalid format"},
		{name: "invalid log level", mutate: func(c *Config) { c.LogLevel = "loud" }, wantErr: true, errMsg: "invalid log level"},
		{name: "zero page size", mutate: func(c *Config) { c.PageSize = 0 }, wantErr: true, errMsg: "invalid page size"},
		{name: "missing db", mutate: func(c *Config) { c.DB = "" }, wantErr: true, errMsg: "database path is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestSlogLevel(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, slog.LevelWarn, cfg.SlogLevel())

	cfg.LogLevel = "debug"
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())

	cfg.LogLevel = "ERROR"
	assert.Equal(t, slog.LevelError, cfg.SlogLevel())

	cfg.LogLevel = "nonsense"
	assert.Equal(t, slog.LevelWarn, cfg.SlogLevel())
}
