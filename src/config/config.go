// Package config provides configuration management for baobab.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"baobab/src/logger"
)

// FileName is the config file looked up in the user's home directory.
const FileName = ".bb.yaml"

// ErrConfig is wrapped by every error this package returns.
var ErrConfig = errors.New("configuration error")

// Config holds the application configuration.
type Config struct {
	TeamCityUsername string `yaml:"teamcity_username"`
	TeamCityPassword string `yaml:"teamcity_password"`

	// GitHubHost is the GitHub Enterprise base URL used by search.
	GitHubHost  string `yaml:"github_host"`
	GitHubToken string `yaml:"github_token"`

	LogFile  string `yaml:"log_file"`
	LogLevel string `yaml:"log_level"`

	// RedpandaBrokers enables mirroring snapshots to Kafka when non-empty.
	RedpandaBrokers []string `yaml:"redpanda_brokers"`

	// Path the config was read from.
	Path string `yaml:"-"`
}

// DefaultPath returns ~/.bb.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("%w: failed to get home dir: %v", ErrConfig, err)
	}
	return filepath.Join(home, FileName), nil
}

// LoadDotEnv loads variables from a .env file if one exists at path.
// Variables already set in the environment win.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("%w: failed to load %s: %v", ErrConfig, path, err)
	}
	return nil
}

// Load reads the YAML file at path, then applies environment overrides and defaults.
// A missing file is not an error: the environment alone may be enough.
func Load(path string) (*Config, error) {
	cfg := &Config{Path: path}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("%w: failed to read %s: %v", ErrConfig, path, err)
	default:
		if err := yaml.Unmarshal([]byte(expandEnv(string(data))), cfg); err != nil {
			return nil, fmt.Errorf("%w: failed to parse %s: %v", ErrConfig, path, err)
		}
	}

	cfg.applyEnv()

	if cfg.LogFile == "" {
		cfg.LogFile = logger.DefaultLogFile
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	return cfg, nil
}

// envRefPattern matches ${NAME} references. Bare $NAME is left alone so
// passwords containing '$' survive.
var envRefPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnv replaces ${NAME} with the variable's value. References to unset
// variables are kept verbatim.
func expandEnv(s string) string {
	return envRefPattern.ReplaceAllStringFunc(s, func(ref string) string {
		name := envRefPattern.FindStringSubmatch(ref)[1]
		if v, ok := os.LookupEnv(name); ok {
			return v
		}
		return ref
	})
}

func (c *Config) applyEnv() {
	override := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	override(&c.TeamCityUsername, "TEAMCITY_USERNAME")
	override(&c.TeamCityPassword, "TEAMCITY_PASSWORD")
	override(&c.GitHubHost, "GITHUB_HOST")
	override(&c.GitHubToken, "GITHUB_TOKEN")
	override(&c.LogLevel, "BAOBAB_LOG_LEVEL")

	if v := os.Getenv("REDPANDA_BROKERS"); v != "" {
		c.RedpandaBrokers = splitList(v)
	}
}

// ValidateWatch checks what watching a build needs.
func (c *Config) ValidateWatch() error {
	var missing []string
	if c.TeamCityUsername == "" {
		missing = append(missing, "teamcity_username")
	}
	if c.TeamCityPassword == "" {
		missing = append(missing, "teamcity_password")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s missing from %s (or set TEAMCITY_USERNAME and TEAMCITY_PASSWORD)",
			ErrConfig, strings.Join(missing, " and "), c.Path)
	}
	return nil
}

// ValidateSearch checks what issue search needs.
func (c *Config) ValidateSearch() error {
	if c.GitHubHost == "" {
		return fmt.Errorf("%w: github_host missing from %s (or set GITHUB_HOST, or pass --host)", ErrConfig, c.Path)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
