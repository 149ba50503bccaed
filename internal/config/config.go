package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/viper"

	"github.com/nathantilsley/issue-validator/internal/validate/domain"
)

// Config represents the full issue-validator configuration
type Config struct {
	GitHubToken      string `mapstructure:"github-token"`
	GitHubAPIURL     string `mapstructure:"github-api-url"`
	RequiredSections string `mapstructure:"required-sections"`
	SectionsFile     string `mapstructure:"sections-file"`
	BotLogin         string `mapstructure:"bot-login"`
	DryRun           bool   `mapstructure:"dry-run"`
	LogLevel         string `mapstructure:"log-level"`

	// Serve mode (GitHub App)
	AppID          int64  `mapstructure:"app-id"`
	PrivateKeyPath string `mapstructure:"private-key-path"`
	WebhookSecret  string `mapstructure:"webhook-secret"`
	ListenAddr     string `mapstructure:"listen-addr"`
}

// envBindings maps config keys to the environment variables they are read
// from, in priority order. Action inputs arrive as INPUT_<NAME> with the
// hyphen preserved.
var envBindings = map[string][]string{
	"github-token":      {"INPUT_GITHUB-TOKEN", "GITHUB_TOKEN"},
	"github-api-url":    {"INPUT_GITHUB-API-URL", "GITHUB_API_URL"},
	"required-sections": {"INPUT_REQUIRED-SECTIONS", "ISSUE_VALIDATOR_REQUIRED_SECTIONS"},
	"sections-file":     {"INPUT_SECTIONS-FILE", "ISSUE_VALIDATOR_SECTIONS_FILE"},
	"bot-login":         {"INPUT_BOT-LOGIN", "ISSUE_VALIDATOR_BOT_LOGIN"},
	"dry-run":           {"INPUT_DRY-RUN", "ISSUE_VALIDATOR_DRY_RUN"},
	"log-level":         {"ISSUE_VALIDATOR_LOG_LEVEL"},
	"app-id":            {"ISSUE_VALIDATOR_APP_ID"},
	"private-key-path":  {"ISSUE_VALIDATOR_PRIVATE_KEY_PATH"},
	"webhook-secret":    {"ISSUE_VALIDATOR_WEBHOOK_SECRET"},
	"listen-addr":       {"ISSUE_VALIDATOR_LISTEN_ADDR"},
}

// BindEnv registers the environment bindings on v.
func BindEnv(v *viper.Viper) error {
	for key, envs := range envBindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return fmt.Errorf("binding env for %s: %w", key, err)
		}
	}
	return nil
}

// Load loads configuration from v, which is expected to have flags, env and
// config file already wired.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(cfg)

	return cfg, nil
}

// applyDefaults sets default values for unset fields
func applyDefaults(cfg *Config) {
	cfg.GitHubToken = strings.TrimSpace(cfg.GitHubToken)

	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
}

// ValidateAction validates the configuration for a single GitHub Actions run
func (c *Config) ValidateAction() error {
	if c.GitHubToken == "" {
		return domain.NewMissingInputError("github-token", "set the github-token input or GITHUB_TOKEN")
	}
	return c.validateCommon()
}

// ValidateServe validates the configuration for the webhook server
func (c *Config) ValidateServe() error {
	if c.AppID == 0 {
		return domain.NewMissingInputError("app-id", "set --app-id or ISSUE_VALIDATOR_APP_ID")
	}

	if c.PrivateKeyPath == "" {
		return domain.NewMissingInputError("private-key-path", "set --private-key-path or ISSUE_VALIDATOR_PRIVATE_KEY_PATH")
	}

	if c.WebhookSecret == "" {
		return domain.NewMissingInputError("webhook-secret", "set --webhook-secret or ISSUE_VALIDATOR_WEBHOOK_SECRET")
	}

	return c.validateCommon()
}

func (c *Config) validateCommon() error {
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// Groups returns the label groups from required-sections followed by those
// from sections-file.
func (c *Config) Groups() ([]domain.LabelGroup, error) {
	groups := domain.ParseRequirements(c.RequiredSections)

	if c.SectionsFile != "" {
		fromFile, err := LoadSectionsFile(c.SectionsFile)
		if err != nil {
			return nil, err
		}
		groups = append(groups, fromFile...)
	}

	return groups, nil
}

// ParseLogLevel converts a level name into a slog level.
func ParseLogLevel(level string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return 0, fmt.Errorf("invalid log-level: %s (must be debug, info, warn or error)", level)
	}
	return l, nil
}
