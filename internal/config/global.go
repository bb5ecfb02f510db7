package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// GlobalConfig represents configuration stored in ~/.config/toppaper/config.yml.
type GlobalConfig struct {
	Workspace   string       `yaml:"workspace,omitempty"`
	UserAgent   string       `yaml:"user_agent,omitempty"`
	GitHubToken string       `yaml:"github_token,omitempty"`
	ChromePath  string       `yaml:"chrome_path,omitempty"`
	Enrich      EnrichConfig `yaml:"enrich,omitempty"`
}

// EnrichConfig holds the defaults for the enrich command.
type EnrichConfig struct {
	MinDelay   time.Duration `yaml:"min_delay,omitempty"`
	MaxDelay   time.Duration `yaml:"max_delay,omitempty"`
	ResetEvery int           `yaml:"reset_every,omitempty"`
	Hosts      []string      `yaml:"hosts,omitempty"`
	Channel    string        `yaml:"channel,omitempty"` // browser or html
}

const (
	// GlobalConfigDir is the directory name under XDG_CONFIG_HOME.
	GlobalConfigDir = "toppaper"
	// GlobalConfigFile is the config file name.
	GlobalConfigFile = "config.yml"

	// DefaultUserAgent identifies as a desktop browser; several proceedings
	// sites reject unknown agents.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// DefaultEnrichConfig returns the enrichment defaults used when neither the
// global config nor flags provide a value.
func DefaultEnrichConfig() EnrichConfig {
	return EnrichConfig{
		MinDelay:   time.Second,
		MaxDelay:   3 * time.Second,
		ResetEvery: 50,
		Hosts:      []string{"github.com", "gitlab.com"},
		Channel:    "browser",
	}
}

// globalConfigCache caches the loaded global config.
var globalConfigCache *GlobalConfig

// GlobalConfigPath returns the path to the global config file.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/toppaper/config.yml.
func GlobalConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, GlobalConfigDir, GlobalConfigFile)
}

// LoadGlobalConfig loads the global configuration file.
// Returns an empty config (not an error) if the file doesn't exist.
func LoadGlobalConfig() (*GlobalConfig, error) {
	if globalConfigCache != nil {
		return globalConfigCache, nil
	}

	path := GlobalConfigPath()
	if path == "" {
		return &GlobalConfig{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &GlobalConfig{}, nil
		}
		return nil, fmt.Errorf("reading global config: %w", err)
	}

	var cfg GlobalConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing global config: %w", err)
	}

	if cfg.Workspace != "" {
		cfg.Workspace = ExpandPath(cfg.Workspace)
	}

	globalConfigCache = &cfg
	return &cfg, nil
}

// ResetGlobalConfigCache clears the cached global config.
// Useful for testing.
func ResetGlobalConfigCache() {
	globalConfigCache = nil
}

// GetWorkspace returns the configured workspace from global config.
func GetWorkspace() string {
	cfg, err := LoadGlobalConfig()
	if err != nil {
		return ""
	}
	return cfg.Workspace
}

// GetUserAgent returns the configured User-Agent, or the browser default.
func GetUserAgent() string {
	cfg, err := LoadGlobalConfig()
	if err != nil || cfg.UserAgent == "" {
		return DefaultUserAgent
	}
	return cfg.UserAgent
}

// GetGitHubToken returns the GitHub token, preferring the environment.
func GetGitHubToken() string {
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		return token
	}
	cfg, err := LoadGlobalConfig()
	if err != nil {
		return ""
	}
	return cfg.GitHubToken
}

// GetEnrichConfig merges the global enrich section over the defaults.
func GetEnrichConfig() EnrichConfig {
	out := DefaultEnrichConfig()
	cfg, err := LoadGlobalConfig()
	if err != nil {
		return out
	}

	e := cfg.Enrich
	if e.MinDelay > 0 {
		out.MinDelay = e.MinDelay
	}
	if e.MaxDelay > 0 {
		out.MaxDelay = e.MaxDelay
	}
	if e.ResetEvery > 0 {
		out.ResetEvery = e.ResetEvery
	}
	if len(e.Hosts) > 0 {
		out.Hosts = e.Hosts
	}
	if e.Channel != "" {
		out.Channel = e.Channel
	}
	return out
}

// GetChromePath returns the configured Chrome executable, if any.
func GetChromePath() string {
	cfg, err := LoadGlobalConfig()
	if err != nil {
		return ""
	}
	return cfg.ChromePath
}
