package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	OpenAI   OpenAIConfig   `yaml:"openai"`
	SMTP     SMTPConfig     `yaml:"smtp"`
	Tracking TrackingConfig `yaml:"tracking"`
	Auth     AuthConfig     `yaml:"auth"`
	Sending  SendingConfig  `yaml:"sending"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// GetHost returns the server host, with container detection
func (c ServerConfig) GetHost() string {
	// In a container, listen on all interfaces
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "0.0.0.0"
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

// DatabaseConfig holds the Postgres connection settings
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// RedisConfig holds the Redis connection used for send throttling
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Enabled  bool   `yaml:"enabled"`
}

// OpenAIConfig holds OpenAI API configuration for email generation
type OpenAIConfig struct {
	APIKey         string `yaml:"api_key"`
	Model          string `yaml:"model"`
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the configured timeout as a duration
func (c OpenAIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// SMTPProfile is one submission host/port pair in the provider table
type SMTPProfile struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// SMTPConfig holds the two-profile provider table keyed by sender domain.
// Domains listed in ConsumerDomains route to the Consumer profile; everything
// else routes to Default.
type SMTPConfig struct {
	Consumer        SMTPProfile `yaml:"consumer"`
	Default         SMTPProfile `yaml:"default"`
	ConsumerDomains []string    `yaml:"consumer_domains"`
	TimeoutSeconds  int         `yaml:"timeout_seconds"`
}

// Timeout returns the configured timeout as a duration
func (c SMTPConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// TrackingConfig holds the public base URL used to build pixel and
// click-redirect links
type TrackingConfig struct {
	BaseURL string `yaml:"base_url"`
}

// AuthConfig holds the fixed dashboard credential pair and session cookie
// settings
type AuthConfig struct {
	Email        string `yaml:"email"`
	Password     string `yaml:"password"`
	CookieName   string `yaml:"cookie_name"`
	CookieMaxAge int    `yaml:"cookie_max_age"`
}

// SendingConfig holds batch-send pacing settings
type SendingConfig struct {
	DelayMillis  int `yaml:"delay_millis"`
	PerMinuteCap int `yaml:"per_minute_cap"`
	DailyCap     int `yaml:"daily_cap"`
}

// Delay returns the inter-send delay as a duration
func (c SendingConfig) Delay() time.Duration {
	return time.Duration(c.DelayMillis) * time.Millisecond
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// Set defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.OpenAI.Model == "" {
		cfg.OpenAI.Model = "gpt-4o-mini"
	}
	if cfg.OpenAI.BaseURL == "" {
		cfg.OpenAI.BaseURL = "https://api.openai.com"
	}
	if cfg.OpenAI.TimeoutSeconds == 0 {
		cfg.OpenAI.TimeoutSeconds = 30
	}
	if cfg.SMTP.Consumer.Host == "" {
		cfg.SMTP.Consumer = SMTPProfile{Host: "smtp.office365.com", Port: 587}
	}
	if cfg.SMTP.Default.Host == "" {
		cfg.SMTP.Default = SMTPProfile{Host: "smtp.gmail.com", Port: 587}
	}
	if len(cfg.SMTP.ConsumerDomains) == 0 {
		cfg.SMTP.ConsumerDomains = []string{"outlook.com", "hotmail.com", "live.com", "foreignadmits.com"}
	}
	if cfg.SMTP.TimeoutSeconds == 0 {
		cfg.SMTP.TimeoutSeconds = 30
	}
	if cfg.Tracking.BaseURL == "" {
		cfg.Tracking.BaseURL = "http://localhost:8080"
	}
	if cfg.Auth.CookieName == "" {
		cfg.Auth.CookieName = "email-outreach-session"
	}
	if cfg.Auth.CookieMaxAge == 0 {
		cfg.Auth.CookieMaxAge = 60 * 60 * 24 * 7 // 7 days
	}
	if cfg.Sending.DelayMillis == 0 {
		cfg.Sending.DelayMillis = 1000
	}
	if cfg.Sending.PerMinuteCap == 0 {
		cfg.Sending.PerMinuteCap = 60
	}
	if cfg.Sending.DailyCap == 0 {
		cfg.Sending.DailyCap = 2000
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}

	return &cfg, nil
}

// LoadFromEnv loads configuration with environment variable overrides.
// It automatically loads a .env file (if present) before reading env vars,
// so secrets can live in .env locally and in real env vars in production.
func LoadFromEnv(path string) (*Config, error) {
	// Load .env file if it exists (no error if missing)
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	// Override with environment variables if present
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		cfg.Database.URL = dbURL
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
		cfg.Redis.Enabled = true
	}
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		cfg.OpenAI.APIKey = apiKey
	}
	if model := os.Getenv("OPENAI_MODEL"); model != "" {
		cfg.OpenAI.Model = model
	}
	if baseURL := os.Getenv("TRACKING_BASE_URL"); baseURL != "" {
		cfg.Tracking.BaseURL = baseURL
	}
	if v := os.Getenv("AUTH_EMAIL"); v != "" {
		cfg.Auth.Email = v
	}
	if v := os.Getenv("AUTH_PASSWORD"); v != "" {
		cfg.Auth.Password = v
	}
	return cfg, nil
}
