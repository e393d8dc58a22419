package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"baobab/src/logger"
)

// clearEnv blanks every variable Load reads so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"TEAMCITY_USERNAME", "TEAMCITY_PASSWORD", "GITHUB_HOST", "GITHUB_TOKEN",
		"BAOBAB_LOG_LEVEL", "REDPANDA_BROKERS",
	} {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
teamcity_username: alice
teamcity_password: s3cret
github_host: https://github.example.com
log_level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "alice", cfg.TeamCityUsername)
	assert.Equal(t, "s3cret", cfg.TeamCityPassword)
	assert.Equal(t, "https://github.example.com", cfg.GitHubHost)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, logger.DefaultLogFile, cfg.LogFile)
	assert.Equal(t, path, cfg.Path)
	assert.NoError(t, cfg.ValidateWatch())
	assert.NoError(t, cfg.ValidateSearch())
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("TEAMCITY_PASSWORD", "from-env")
	t.Setenv("GITHUB_TOKEN", "ghp_env")
	t.Setenv("BAOBAB_LOG_LEVEL", "warn")
	t.Setenv("REDPANDA_BROKERS", "localhost:9092, ,broker2:9092")

	path := writeConfig(t, "teamcity_username: alice\nteamcity_password: from-file\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "alice", cfg.TeamCityUsername)
	assert.Equal(t, "from-env", cfg.TeamCityPassword)
	assert.Equal(t, "ghp_env", cfg.GitHubToken)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, []string{"localhost:9092", "broker2:9092"}, cfg.RedpandaBrokers)
}

func TestLoad_ExpandsEnvInFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("BB_TEST_USER", "alice")

	cfg, err := Load(writeConfig(t, "teamcity_username: ${BB_TEST_USER}\nteamcity_password: \"pa$word1\"\ngithub_token: ${BB_TEST_UNSET_TOKEN}\n"))
	require.NoError(t, err)
	assert.Equal(t, "alice", cfg.TeamCityUsername)
	assert.Equal(t, "pa$word1", cfg.TeamCityPassword, "a literal $ must survive")
	assert.Equal(t, "${BB_TEST_UNSET_TOKEN}", cfg.GitHubToken, "unset references are kept verbatim")
}

func TestExpandEnv(t *testing.T) {
	t.Setenv("BB_TEST_HOST", "https://gh.example.com")
	t.Setenv("BB_TEST_EMPTY", "")

	tests := []struct {
		input    string
		expected string
	}{
		{"${BB_TEST_HOST}/api", "https://gh.example.com/api"},
		{"$BB_TEST_HOST", "$BB_TEST_HOST"},
		{"p@$$w0rd$", "p@$$w0rd$"},
		{"x${BB_TEST_EMPTY}y", "xy"},
		{"${not valid}", "${not valid}"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, expandEnv(tt.input), "expandEnv(%q)", tt.input)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), FileName)

	cfg, err := Load(path)
	require.NoError(t, err)

	err = cfg.ValidateWatch()
	require.ErrorIs(t, err, ErrConfig)
	assert.Contains(t, err.Error(), "teamcity_username and teamcity_password")
	assert.Contains(t, err.Error(), path)

	t.Setenv("TEAMCITY_USERNAME", "bob")
	t.Setenv("TEAMCITY_PASSWORD", "pw")
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.NoError(t, cfg.ValidateWatch())
}

func TestLoad_Invalid(t *testing.T) {
	clearEnv(t)

	_, err := Load(writeConfig(t, "teamcity_username: [unterminated\n"))
	assert.ErrorIs(t, err, ErrConfig)

	_, err = Load(t.TempDir()) // a directory cannot be read as a file
	assert.ErrorIs(t, err, ErrConfig)
}

func TestValidate(t *testing.T) {
	cfg := &Config{TeamCityUsername: "alice", Path: "/home/alice/.bb.yaml"}

	err := cfg.ValidateWatch()
	require.ErrorIs(t, err, ErrConfig)
	assert.Contains(t, err.Error(), "teamcity_password")
	assert.NotContains(t, err.Error(), "teamcity_username")

	assert.ErrorIs(t, cfg.ValidateSearch(), ErrConfig)
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	// Missing file is fine.
	require.NoError(t, LoadDotEnv(filepath.Join(dir, ".env")))

	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("BB_TEST_DOTENV=loaded\n"), 0o600))
	t.Setenv("BB_TEST_DOTENV", "")
	os.Unsetenv("BB_TEST_DOTENV")

	require.NoError(t, LoadDotEnv(envFile))
	assert.Equal(t, "loaded", os.Getenv("BB_TEST_DOTENV"))
}

func TestDefaultPath(t *testing.T) {
	t.Setenv("HOME", "/home/test")

	path, err := DefaultPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/home/test", FileName), path)
}
