package config

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

var validLogLevels = []string{"debug", "info", "warn", "error"}

// PracticeAll selects every registered practice.
const PracticeAll = ":all:"

// Config is the root application configuration.
type Config struct {
	Log       LogConfig
	GitLab    GitLabConfig
	Retry     RetryConfig
	Clone     CloneConfig
	Practices []Practice
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level string `yaml:"level"`
}

// GitLabConfig configures GitLab API interactions.
type GitLabConfig struct {
	BaseURL        string
	RequestTimeout time.Duration
	TokenFile      string
	PerPage        int
}

// RetryConfig configures retries for API requests.
type RetryConfig struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// CloneConfig configures git clone credentials.
type CloneConfig struct {
	User string `yaml:"user"`
}

// Practice is one assignment with its upstream reference repository.
type Practice struct {
	ID   string
	Repo string
	// EscapedRepo is the URL-escaped repository path used by the projects API.
	EscapedRepo string
}

// Load reads configuration from YAML and validates the result.
func Load(reader io.Reader) (*Config, error) {
	if reader == nil {
		return nil, fmt.Errorf("config reader is nil")
	}

	decoder := yaml.NewDecoder(reader)
	decoder.KnownFields(true)

	var raw rawConfig
	if err := decoder.Decode(&raw); err != nil {
		return nil, fmt.Errorf("unmarshal yaml: %w", err)
	}

	cfg := raw.toConfig()
	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate validates configuration values.
func (c *Config) Validate() error {
	var errs []string

	if !slices.Contains(validLogLevels, c.Log.Level) {
		errs = append(errs, "log.level must be one of debug|info|warn|error")
	}

	if _, err := url.Parse(c.GitLab.BaseURL); err != nil || !strings.HasPrefix(c.GitLab.BaseURL, "http") {
		errs = append(errs, "gitlab.base_url must be a valid http(s) URL")
	}
	if c.GitLab.PerPage <= 0 {
		errs = append(errs, "gitlab.per_page must be > 0")
	}

	if len(c.Practices) == 0 {
		errs = append(errs, "practices must contain at least one practice")
	}
	seen := make(map[string]struct{}, len(c.Practices))
	for i, practice := range c.Practices {
		prefix := fmt.Sprintf("practices[%d]", i)
		if practice.ID == "" {
			errs = append(errs, prefix+".id is required")
		}
		if practice.Repo == "" {
			errs = append(errs, prefix+".repo is required")
		}
		if _, ok := seen[practice.ID]; ok {
			errs = append(errs, "practices contains duplicate id: "+practice.ID)
		}
		seen[practice.ID] = struct{}{}
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// Practice looks up a registered practice by id.
func (c *Config) Practice(id string) (Practice, bool) {
	for _, practice := range c.Practices {
		if practice.ID == id {
			return practice, true
		}
	}
	return Practice{}, false
}

// DefaultPracticeID returns the last registered practice id.
func (c *Config) DefaultPracticeID() string {
	if len(c.Practices) == 0 {
		return ""
	}
	return c.Practices[len(c.Practices)-1].ID
}

// SelectPractices resolves a practice flag value to the practices to process.
// The empty id means the default practice; PracticeAll means every practice
// in registry order.
func (c *Config) SelectPractices(id string) ([]Practice, error) {
	if id == PracticeAll {
		return slices.Clone(c.Practices), nil
	}
	if id == "" {
		id = c.DefaultPracticeID()
	}
	practice, ok := c.Practice(id)
	if !ok {
		return nil, fmt.Errorf("unknown practice %q", id)
	}
	return []Practice{practice}, nil
}

// ReadTokenFile reads the API token from the first line of the given file.
// A missing file means unauthenticated access and is not an error.
func ReadTokenFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("read token file: %w", err)
	}
	line, _, _ := strings.Cut(string(data), "\n")
	return strings.TrimSpace(line), nil
}

func applyDefaults(cfg *Config) {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.GitLab.BaseURL == "" {
		cfg.GitLab.BaseURL = "https://gitlab.etsit.urjc.es/api/v4"
	}
	if cfg.GitLab.RequestTimeout <= 0 {
		cfg.GitLab.RequestTimeout = 30 * time.Second
	}
	if cfg.GitLab.TokenFile == "" {
		cfg.GitLab.TokenFile = "token"
	}
	if cfg.GitLab.PerPage <= 0 {
		cfg.GitLab.PerPage = 50
	}
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry.MaxAttempts = 1
	}
}

type duration struct {
	time.Duration
}

func (d *duration) UnmarshalYAML(value *yaml.Node) error {
	if value == nil || value.Kind == 0 || strings.TrimSpace(value.Value) == "" {
		d.Duration = 0
		return nil
	}

	var raw string
	if err := value.Decode(&raw); err != nil {
		return fmt.Errorf("decode duration: %w", err)
	}

	parsed, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", raw, err)
	}
	d.Duration = parsed
	return nil
}

type rawConfig struct {
	Log       LogConfig     `yaml:"log"`
	GitLab    rawGitLab     `yaml:"gitlab"`
	Retry     rawRetry      `yaml:"retry"`
	Clone     CloneConfig   `yaml:"clone"`
	Practices []rawPractice `yaml:"practices"`
}

type rawGitLab struct {
	BaseURL        string   `yaml:"base_url"`
	RequestTimeout duration `yaml:"request_timeout"`
	TokenFile      string   `yaml:"token_file"`
	PerPage        int      `yaml:"per_page"`
}

type rawRetry struct {
	MaxAttempts    int      `yaml:"max_attempts"`
	InitialBackoff duration `yaml:"initial_backoff"`
	MaxBackoff     duration `yaml:"max_backoff"`
}

type rawPractice struct {
	ID   string `yaml:"id"`
	Repo string `yaml:"repo"`
}

func (r rawConfig) toConfig() *Config {
	cfg := &Config{
		Log: r.Log,
		GitLab: GitLabConfig{
			BaseURL:        r.GitLab.BaseURL,
			RequestTimeout: r.GitLab.RequestTimeout.Duration,
			TokenFile:      r.GitLab.TokenFile,
			PerPage:        r.GitLab.PerPage,
		},
		Retry: RetryConfig{
			MaxAttempts:    r.Retry.MaxAttempts,
			InitialBackoff: r.Retry.InitialBackoff.Duration,
			MaxBackoff:     r.Retry.MaxBackoff.Duration,
		},
		Clone:     r.Clone,
		Practices: make([]Practice, 0, len(r.Practices)),
	}

	for _, practice := range r.Practices {
		cfg.Practices = append(cfg.Practices, Practice{
			ID:          practice.ID,
			Repo:        practice.Repo,
			EscapedRepo: url.PathEscape(practice.Repo),
		})
	}

	return cfg
}
