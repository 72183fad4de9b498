package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the full service configuration. Secrets may be overridden through
// environment variables so the yaml file can be committed without keys.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Places      PlacesConfig      `yaml:"places"`
	LLM         LLMConfig         `yaml:"llm"`
	Report      ReportConfig      `yaml:"report"`
	History     HistoryConfig     `yaml:"history"`
	Concurrency ConcurrencyConfig `yaml:"concurrency"`
	Log         LogConfig         `yaml:"log"`
	Admin       AdminConfig       `yaml:"admin"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Addr    string `yaml:"addr"`
	Timeout int    `yaml:"timeout"` // seconds, whole-request budget
}

// PlacesConfig configures the business-directory client.
type PlacesConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"` // override for tests; empty means the public API
	Timeout int    `yaml:"timeout"`  // seconds per call
}

// LLMConfig configures the OpenAI-compatible chat model.
type LLMConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
}

// ReportConfig holds the pipeline bounds. They are deployment-tier knobs, not
// constants.
type ReportConfig struct {
	MaxCompetitors      int    `yaml:"max_competitors"`       // detail+dossier fan-out bound
	MaxPooledReviews    int    `yaml:"max_pooled_reviews"`    // hard truncation for sentiment scoring
	NicheAlertThreshold int    `yaml:"niche_alert_threshold"` // topic score below this triggers an alert
	LabelMaxChars       int    `yaml:"label_max_chars"`       // scatter point label budget
	LogoPath            string `yaml:"logo_path"`
	WebsiteExcerptChars int    `yaml:"website_excerpt_chars"` // 0 disables website snapshots
}

// HistoryConfig selects and configures the history backend.
type HistoryConfig struct {
	Backend string   `yaml:"backend"` // "postgres", "csv" or "" (history disabled)
	CSVPath string   `yaml:"csv_path"`
	DB      DBConfig `yaml:"db"`
}

// DBConfig holds postgres connection settings.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslmode"`
}

// DSN returns the lib/pq connection string.
func (c DBConfig) DSN() string {
	ssl := c.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, ssl)
}

// ConcurrencyConfig paces the model calls.
type ConcurrencyConfig struct {
	QPS int `yaml:"qps"`
	RPM int `yaml:"rpm"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// AdminConfig holds the shared passphrase for the history endpoint.
type AdminConfig struct {
	Passphrase string `yaml:"passphrase"`
}

// LoadConfig reads the yaml file, applies environment overrides and defaults,
// and validates the result.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnv overrides secret fields from the environment. Non-secret knobs stay
// in the yaml file.
func (c *Config) applyEnv() {
	if v := os.Getenv("PLACES_API_KEY"); v != "" {
		c.Places.APIKey = v
	}
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv("HISTORY_DB_PASSWORD"); v != "" {
		c.History.DB.Password = v
	}
	if v := os.Getenv("ADMIN_PASSPHRASE"); v != "" {
		c.Admin.Passphrase = v
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8000"
	}
	if c.Server.Timeout <= 0 {
		c.Server.Timeout = 300
	}
	if c.Places.Timeout <= 0 {
		c.Places.Timeout = 15
	}
	if c.Report.MaxCompetitors <= 0 {
		c.Report.MaxCompetitors = 5
	}
	if c.Report.MaxPooledReviews <= 0 {
		c.Report.MaxPooledReviews = 20
	}
	if c.Report.NicheAlertThreshold <= 0 {
		c.Report.NicheAlertThreshold = 4
	}
	if c.Report.LabelMaxChars <= 0 {
		c.Report.LabelMaxChars = 15
	}
	if c.Concurrency.QPS <= 0 {
		c.Concurrency.QPS = 1
	}
	if c.Concurrency.RPM <= 0 {
		c.Concurrency.RPM = 30
	}
	if c.History.Backend == "csv" && c.History.CSVPath == "" {
		c.History.CSVPath = "history.csv"
	}
}

// Validate checks the fields without which the pipeline cannot run.
func (c *Config) Validate() error {
	if c.Places.APIKey == "" {
		return fmt.Errorf("config: places api key is missing")
	}
	if c.LLM.APIKey == "" {
		return fmt.Errorf("config: llm api key is missing")
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("config: llm model is missing")
	}
	if c.History.Backend == "postgres" && c.History.DB.Host == "" {
		return fmt.Errorf("config: history backend is postgres but db host is missing")
	}
	return nil
}
