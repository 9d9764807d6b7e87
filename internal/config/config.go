// Package config handles configuration loading from files, defaults, .env
// files and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/cosmelab/labgrid/internal/llm"
)

// Config holds the application configuration.
type Config struct {
	Endpoint EndpointConfig `toml:"endpoint"`
	Poll     PollConfig     `toml:"poll"`
	Heatmap  HeatmapConfig  `toml:"heatmap"`
	LabLog   LabLogConfig   `toml:"lablog"`
	Visitor  VisitorConfig  `toml:"visitor"`
	LLM      LLMConfig      `toml:"llm"`
	Storage  StorageConfig  `toml:"storage"`
	UI       UIConfig       `toml:"ui"`
}

// EndpointConfig holds the web app endpoints.
type EndpointConfig struct {
	URL               string `toml:"url"`                 // availability poll + schedule
	LogURL            string `toml:"log_url"`             // lab log; defaults to url
	Timeout           string `toml:"timeout"`             // e.g., "15s"
	RequestsPerMinute int    `toml:"requests_per_minute"` // 0 disables throttling
	SubmitMode        string `toml:"submit_mode"`         // "readable" or "opaque"
}

// PollConfig holds availability poll settings.
type PollConfig struct {
	EmailSuffix string `toml:"email_suffix"` // e.g., "@ucr.edu"
	BlockLength int    `toml:"block_length"` // consecutive hours recommended
}

// HeatmapConfig holds schedule heatmap settings.
type HeatmapConfig struct {
	Thresholds      []int  `toml:"thresholds"` // low, medium, high minimum counts
	FirstNameOnly   bool   `toml:"first_name_only"`
	Sort            string `toml:"sort"` // "total" or "name"
	RandomizeColors bool   `toml:"randomize_colors"`
}

// LabLogConfig holds lab log settings.
type LabLogConfig struct {
	Projects []string `toml:"projects"`
}

// VisitorConfig holds visitor metric settings.
type VisitorConfig struct {
	Provider     string `toml:"provider"` // "estimate", "local", "countapi"
	BaseCount    int    `toml:"base_count"`
	DailyAverage int    `toml:"daily_average"`
	LaunchDate   string `toml:"launch_date"` // YYYY-MM-DD
	CacheTTL     string `toml:"cache_ttl"`   // e.g., "1h"
	CounterURL   string `toml:"counter_url"`
}

// LLMConfig holds LLM provider settings.
type LLMConfig struct {
	Provider string `toml:"provider"` // "copilot", "ollama", "lmstudio", "openai"
	Model    string `toml:"model"`    // e.g., "gpt-4o"
	BaseURL  string `toml:"base_url"` // e.g., "http://localhost:11434"
}

// StorageConfig holds database settings.
type StorageConfig struct {
	DBPath string `toml:"db_path"`
}

// UIConfig holds TUI settings.
type UIConfig struct {
	Theme string `toml:"theme"` // "dracula", "alucard"
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Endpoint: EndpointConfig{
			Timeout:           "15s",
			RequestsPerMinute: 30,
			SubmitMode:        "readable",
		},
		Poll: PollConfig{
			EmailSuffix: "@ucr.edu",
			BlockLength: 3,
		},
		Heatmap: HeatmapConfig{
			Thresholds: []int{1, 3, 5},
			Sort:       "total",
		},
		LabLog: LabLogConfig{
			Projects: []string{
				"Genomics pipeline",
				"Field sampling",
				"Microscopy",
				"Data analysis",
				"Lab maintenance",
				"Other",
			},
		},
		Visitor: VisitorConfig{
			Provider:     "estimate",
			BaseCount:    1500,
			DailyAverage: 5,
			LaunchDate:   "2024-07-01",
			CacheTTL:     "1h",
		},
		LLM: LLMConfig{
			Provider: "copilot",
			Model:    "gpt-4o",
			BaseURL:  "http://localhost:11434",
		},
		Storage: StorageConfig{
			DBPath: defaultDBPath(),
		},
		UI: UIConfig{
			Theme: "dracula",
		},
	}
}

// defaultDBPath returns the default database path.
func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "labgrid.db"
	}
	return filepath.Join(home, ".local", "share", "labgrid", "labgrid.db")
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.toml"
	}
	return filepath.Join(home, ".config", "labgrid", "config.toml")
}

// Load loads configuration from the default path, merging with defaults and env vars.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigPath())
}

// LoadFrom loads configuration from the specified path.
// It starts with defaults, overlays file config if it exists, then applies
// env overrides. Variables from a .env file next to the config file or in
// the working directory fill in for variables missing from the real
// environment.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	// Try to load from file (not an error if it doesn't exist)
	if err := loadFromFile(path, cfg); err != nil {
		return nil, err
	}

	env, err := newEnvSource(filepath.Join(filepath.Dir(path), ".env"), ".env")
	if err != nil {
		return nil, err
	}
	if err := applyEnvOverrides(cfg, env); err != nil {
		return nil, err
	}

	// Expand paths
	cfg.Storage.DBPath = expandPath(cfg.Storage.DBPath)
	if cfg.Endpoint.LogURL == "" {
		cfg.Endpoint.LogURL = cfg.Endpoint.URL
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// loadFromFile loads config from a file if it exists.
func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // File doesn't exist, use defaults
		}
		return fmt.Errorf("reading config file: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	return nil
}

// envSource resolves variables from the process environment first, then
// from .env files.
type envSource struct {
	dotenv map[string]string
}

func newEnvSource(paths ...string) (*envSource, error) {
	src := &envSource{dotenv: make(map[string]string)}
	seen := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil || seen[abs] {
			continue
		}
		seen[abs] = true

		if _, err := os.Stat(p); err != nil {
			continue
		}
		vars, err := godotenv.Read(p)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", p, err)
		}
		for k, v := range vars {
			if _, ok := src.dotenv[k]; !ok {
				src.dotenv[k] = v
			}
		}
	}
	return src, nil
}

func (e *envSource) get(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return e.dotenv[key]
}

// applyEnvOverrides applies environment variable overrides to the config.
// Environment variables take precedence over file config.
func applyEnvOverrides(cfg *Config, env *envSource) error {
	// Endpoint overrides
	if v := env.get("LABGRID_ENDPOINT_URL"); v != "" {
		cfg.Endpoint.URL = v
	}
	if v := env.get("LABGRID_LOG_URL"); v != "" {
		cfg.Endpoint.LogURL = v
	}
	if v := env.get("LABGRID_SUBMIT_MODE"); v != "" {
		cfg.Endpoint.SubmitMode = v
	}
	if v := env.get("LABGRID_REQUESTS_PER_MINUTE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("LABGRID_REQUESTS_PER_MINUTE: %w", err)
		}
		cfg.Endpoint.RequestsPerMinute = n
	}

	// Poll overrides
	if v := env.get("LABGRID_EMAIL_SUFFIX"); v != "" {
		cfg.Poll.EmailSuffix = v
	}

	// Visitor overrides
	if v := env.get("LABGRID_VISITOR_PROVIDER"); v != "" {
		cfg.Visitor.Provider = v
	}
	if v := env.get("LABGRID_COUNTER_URL"); v != "" {
		cfg.Visitor.CounterURL = v
	}

	// LLM overrides
	if v := env.get("LABGRID_LLM_PROVIDER"); v != "" {
		cfg.LLM.Provider = v
	}
	if v := env.get("LABGRID_LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := env.get("LABGRID_LLM_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}

	// Storage overrides
	if v := env.get("LABGRID_DB_PATH"); v != "" {
		cfg.Storage.DBPath = v
	}

	// UI overrides
	if v := env.get("LABGRID_UI_THEME"); v != "" {
		cfg.UI.Theme = v
	}
	return nil
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Endpoint.URL != "" && !isHTTPURL(c.Endpoint.URL) {
		return fmt.Errorf("endpoint url must start with http:// or https://, got %q", c.Endpoint.URL)
	}
	if c.Endpoint.LogURL != "" && !isHTTPURL(c.Endpoint.LogURL) {
		return fmt.Errorf("endpoint log_url must start with http:// or https://, got %q", c.Endpoint.LogURL)
	}
	if _, err := c.Endpoint.TimeoutDuration(); err != nil {
		return err
	}
	if c.Endpoint.RequestsPerMinute < 0 {
		return errors.New("requests_per_minute must not be negative")
	}
	switch strings.ToLower(c.Endpoint.SubmitMode) {
	case "", "readable", "opaque":
	default:
		return fmt.Errorf("submit_mode must be 'readable' or 'opaque', got %q", c.Endpoint.SubmitMode)
	}

	if !strings.HasPrefix(c.Poll.EmailSuffix, "@") {
		return fmt.Errorf("email_suffix must start with @, got %q", c.Poll.EmailSuffix)
	}
	if c.Poll.BlockLength < 1 || c.Poll.BlockLength > 11 {
		return fmt.Errorf("block_length must be between 1 and 11, got %d", c.Poll.BlockLength)
	}

	t := c.Heatmap.Thresholds
	if len(t) != 3 {
		return fmt.Errorf("heatmap thresholds must have 3 values, got %d", len(t))
	}
	if t[0] <= 0 || t[1] <= t[0] || t[2] <= t[1] {
		return fmt.Errorf("heatmap thresholds must be positive and increasing, got %v", t)
	}
	switch strings.ToLower(c.Heatmap.Sort) {
	case "", "total", "name":
	default:
		return fmt.Errorf("heatmap sort must be 'total' or 'name', got %q", c.Heatmap.Sort)
	}

	switch strings.ToLower(c.Visitor.Provider) {
	case "", "estimate", "local", "countapi":
	default:
		return fmt.Errorf("invalid visitor provider: %s", c.Visitor.Provider)
	}
	if _, err := c.Visitor.Launch(); err != nil {
		return err
	}
	if _, err := c.Visitor.TTL(); err != nil {
		return err
	}

	if _, err := llm.NormalizeProvider(c.LLM.Provider); err != nil {
		return err
	}

	if c.Storage.DBPath == "" {
		return errors.New("db_path must be set")
	}
	return nil
}

func isHTTPURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// TimeoutDuration parses Timeout. Empty means zero (client default).
func (e EndpointConfig) TimeoutDuration() (time.Duration, error) {
	if e.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(e.Timeout)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("timeout must be a duration like 15s, got %q", e.Timeout)
	}
	return d, nil
}

// Launch parses LaunchDate.
func (v VisitorConfig) Launch() (time.Time, error) {
	t, err := time.Parse("2006-01-02", v.LaunchDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("launch_date must be in YYYY-MM-DD format, got %q", v.LaunchDate)
	}
	return t, nil
}

// TTL parses CacheTTL. Empty means one hour.
func (v VisitorConfig) TTL() (time.Duration, error) {
	if v.CacheTTL == "" {
		return time.Hour, nil
	}
	d, err := time.ParseDuration(v.CacheTTL)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("cache_ttl must be a positive duration like 1h, got %q", v.CacheTTL)
	}
	return d, nil
}

// Save writes the configuration to the default path.
func (c *Config) Save() error {
	return c.SaveTo(DefaultConfigPath())
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}
