package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

// APIKeyEnv overrides Contact.APIKey when set.
const APIKeyEnv = "RESEND_API_KEY"

// Config holds application configuration.
type Config struct {
	// SettleDelayMS is the pause between selecting an answer and advancing
	// to the next question.
	SettleDelayMS int `json:"settle_delay_ms"`

	// ProcessingDelayMS is how long the "tuning" screen is shown before
	// onboarding completes.
	ProcessingDelayMS int `json:"processing_delay_ms"`

	// SessionTTLMS is how long a visitor session may sit idle in memory
	// before it is evicted. Evicted sessions reload from the database.
	SessionTTLMS int `json:"session_ttl_ms,omitempty"`

	// Bind and Port are the address `attune serve` listens on.
	Bind string `json:"bind,omitempty"`
	Port int    `json:"port,omitempty"`

	// Contact configures the contact-form relay.
	Contact Contact `json:"contact"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// If set to 1, all database access is serialized (reduces "database is locked" errors).
	// 0 means use sql.DB default (unlimited). Only set if you experience contention.
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	// 0 means use sql.DB default. Typically set equal to DBMaxOpenConns.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	// Unknown tool names are logged as warnings.
	DisabledTools []string `json:"disabled_tools,omitempty"`

	// LogLevel is a zap level name: debug, info, warn, error.
	LogLevel string `json:"log_level,omitempty"`
}

// Contact configures the email provider used by the contact form.
// An empty APIKey puts the relay in development mode: messages are logged, not sent.
type Contact struct {
	APIKey   string `json:"api_key,omitempty"`
	Endpoint string `json:"endpoint,omitempty"`
	From     string `json:"from,omitempty"`
	To       string `json:"to,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		SettleDelayMS:     300,
		ProcessingDelayMS: 5000,
		SessionTTLMS:      30 * 60 * 1000,
		Bind:              "127.0.0.1",
		Port:              8088,
		Contact: Contact{
			Endpoint: "https://api.resend.com/emails",
			From:     "Portfolio Contact <onboarding@resend.dev>",
		},
		LogLevel: "info",
	}
}

// SettleDelay returns SettleDelayMS as a duration.
func (c *Config) SettleDelay() time.Duration {
	return time.Duration(c.SettleDelayMS) * time.Millisecond
}

// ProcessingDelay returns ProcessingDelayMS as a duration.
func (c *Config) ProcessingDelay() time.Duration {
	return time.Duration(c.ProcessingDelayMS) * time.Millisecond
}

// SessionTTL returns SessionTTLMS as a duration.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMS) * time.Millisecond
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.attune.
func Load(baseDir string) (*Config, error) {
	cfg, err := loadFile(filepath.Join(baseDir, "config.json"))
	if err != nil {
		return nil, err
	}
	return applyEnv(cfg), nil
}

// LoadWithRepo loads configuration from both global (~/.attune) and repo (.attune) directories.
// Repo config is found by walking upward from startDir to find the nearest .attune/config.json.
// Repo config takes precedence for scalar values; arrays are merged (deduplicated).
// Either or both configs may be missing. RESEND_API_KEY wins over both.
func LoadWithRepo(globalDir, startDir string) (*Config, error) {
	global, err := loadFileRaw(filepath.Join(globalDir, "config.json"))
	if err != nil {
		return nil, err
	}

	repo, err := loadFileRaw(FindRepoConfig(startDir))
	if err != nil {
		return nil, err
	}

	return applyEnv(Merge(Merge(DefaultConfig(), global), repo)), nil
}

// FindRepoConfig walks upward from startDir to find the nearest .attune/config.json.
// Returns the path if found, or empty string if not found.
func FindRepoConfig(startDir string) string {
	dir := startDir
	for {
		configPath := filepath.Join(dir, ".attune", "config.json")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	if configPath == "" {
		return &Config{}, nil
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(configPath string) (*Config, error) {
	cfg, err := loadFileRaw(configPath)
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

func applyEnv(cfg *Config) *Config {
	if key := strings.TrimSpace(os.Getenv(APIKeyEnv)); key != "" {
		cfg.Contact.APIKey = key
	}
	return cfg
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{
		SettleDelayMS:     firstInt(overlay.SettleDelayMS, base.SettleDelayMS),
		ProcessingDelayMS: firstInt(overlay.ProcessingDelayMS, base.ProcessingDelayMS),
		SessionTTLMS:      firstInt(overlay.SessionTTLMS, base.SessionTTLMS),
		Bind:              firstString(overlay.Bind, base.Bind),
		Port:              firstInt(overlay.Port, base.Port),
		Contact: Contact{
			APIKey:   firstString(overlay.Contact.APIKey, base.Contact.APIKey),
			Endpoint: firstString(overlay.Contact.Endpoint, base.Contact.Endpoint),
			From:     firstString(overlay.Contact.From, base.Contact.From),
			To:       firstString(overlay.Contact.To, base.Contact.To),
		},
		DBMaxOpenConns: firstInt(overlay.DBMaxOpenConns, base.DBMaxOpenConns),
		DBMaxIdleConns: firstInt(overlay.DBMaxIdleConns, base.DBMaxIdleConns),
		LogLevel:       firstString(overlay.LogLevel, base.LogLevel),
	}

	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)
	return result
}

// firstInt returns overlay unless it is zero.
func firstInt(overlay, base int) int {
	if overlay != 0 {
		return overlay
	}
	return base
}

func firstString(overlay, base string) string {
	if s := strings.TrimSpace(overlay); s != "" {
		return s
	}
	return base
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range append(append([]string{}, a...), b...) {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
