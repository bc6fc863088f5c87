package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// Values are read by viper from a config file or environment variables.
type Config struct {
	Env      string         `mapstructure:"env"`
	Debug    bool           `mapstructure:"debug"`
	LogLevel string         `mapstructure:"log_level"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Twilio   TwilioConfig   `mapstructure:"twilio"`
	AI       AIConfig       `mapstructure:"ai"`
	Scraper  ScraperConfig  `mapstructure:"scraper"`
	Telegram TelegramConfig `mapstructure:"telegram"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	// CORSOrigins is a comma-separated list, as in the CORS_ORIGINS variable.
	CORSOrigins     string        `mapstructure:"cors_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	// URL selects the store: badger://<dir>, sqlite://<path> or postgres://...
	URL        string        `mapstructure:"url"`
	GCInterval time.Duration `mapstructure:"gc_interval"`
}

type TwilioConfig struct {
	AccountSID        string `mapstructure:"account_sid"`
	AuthToken         string `mapstructure:"auth_token"`
	PhoneNumber       string `mapstructure:"phone_number"`
	ValidateSignature bool   `mapstructure:"validate_signature"`
	// WebhookURL is the public URL Twilio signs requests against.
	WebhookURL string `mapstructure:"webhook_url"`
}

type AIConfig struct {
	// Provider is one of openai, anthropic or gemini.
	Provider    string        `mapstructure:"provider"`
	APIToken    string        `mapstructure:"api_token"`
	Model       string        `mapstructure:"model"`
	BaseURL     string        `mapstructure:"base_url"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Temperature float64       `mapstructure:"temperature"`
}

type ScraperConfig struct {
	// Backend is http or rod.
	Backend   string        `mapstructure:"backend"`
	Timeout   time.Duration `mapstructure:"timeout"`
	UserAgent string        `mapstructure:"user_agent"`
}

type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token"`
}

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"

	BackendHTTP = "http"
	BackendRod  = "rod"
)

// envBindings keeps the variable names existing deployments already use.
var envBindings = map[string][]string{
	"env":                       {"ENV"},
	"debug":                     {"DEBUG"},
	"log_level":                 {"LOG_LEVEL"},
	"server.host":               {"HOST"},
	"server.port":               {"PORT"},
	"server.cors_origins":       {"CORS_ORIGINS"},
	"server.shutdown_timeout":   {"SHUTDOWN_TIMEOUT"},
	"database.url":              {"DATABASE_URL"},
	"database.gc_interval":      {"DATABASE_GC_INTERVAL"},
	"twilio.account_sid":        {"TWILIO_ACCOUNT_SID"},
	"twilio.auth_token":         {"TWILIO_AUTH_TOKEN"},
	"twilio.phone_number":       {"TWILIO_PHONE_NUMBER"},
	"twilio.validate_signature": {"TWILIO_VALIDATE_SIGNATURE"},
	"twilio.webhook_url":        {"TWILIO_WEBHOOK_URL"},
	"ai.provider":               {"AI_PROVIDER"},
	"ai.api_token":              {"AI_API_TOKEN", "HF_API_TOKEN"},
	"ai.model":                  {"AI_MODEL", "HF_MODEL"},
	"ai.base_url":               {"AI_BASE_URL"},
	"ai.timeout":                {"AI_TIMEOUT"},
	"ai.max_tokens":             {"AI_MAX_TOKENS"},
	"ai.temperature":            {"AI_TEMPERATURE"},
	"scraper.backend":           {"SCRAPER_BACKEND"},
	"scraper.timeout":           {"SCRAPER_TIMEOUT"},
	"scraper.user_agent":        {"SCRAPER_USER_AGENT"},
	"telegram.bot_token":        {"TELEGRAM_BOT_TOKEN"},
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "development")
	v.SetDefault("debug", false)
	v.SetDefault("log_level", "info")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.cors_origins", "http://localhost:3000,http://localhost:5173")
	v.SetDefault("server.shutdown_timeout", 5*time.Second)
	v.SetDefault("database.url", "badger://./data/badger")
	v.SetDefault("database.gc_interval", 5*time.Minute)
	v.SetDefault("twilio.validate_signature", false)
	v.SetDefault("ai.provider", ProviderOpenAI)
	v.SetDefault("ai.model", "Qwen/Qwen2.5-7B-Instruct")
	v.SetDefault("ai.base_url", "https://router.huggingface.co/v1")
	v.SetDefault("ai.timeout", 60*time.Second)
	v.SetDefault("ai.max_tokens", 120)
	v.SetDefault("ai.temperature", 0.3)
	v.SetDefault("scraper.backend", BackendHTTP)
	v.SetDefault("scraper.timeout", 10*time.Second)
	v.SetDefault("scraper.user_agent", "Mozilla/5.0")
}

// LoadConfig reads configuration from file or environment variables.
// A .env file in the working directory is loaded first when present.
func LoadConfig(path string) (Config, error) {
	// Missing .env is the normal case in containers.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, names := range envBindings {
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return Config{}, fmt.Errorf("bind env for %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		// The file is optional; everything can come from the environment.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail deep inside a component.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("PORT %d is out of range", c.Server.Port)
	}
	if c.Database.URL == "" {
		return errors.New("DATABASE_URL is not set")
	}

	c.AI.Provider = strings.ToLower(strings.TrimSpace(c.AI.Provider))
	switch c.AI.Provider {
	case ProviderOpenAI, ProviderAnthropic, ProviderGemini:
	default:
		return fmt.Errorf("unknown AI_PROVIDER %q", c.AI.Provider)
	}

	c.Scraper.Backend = strings.ToLower(strings.TrimSpace(c.Scraper.Backend))
	switch c.Scraper.Backend {
	case BackendHTTP, BackendRod:
	default:
		return fmt.Errorf("unknown SCRAPER_BACKEND %q", c.Scraper.Backend)
	}

	for _, origin := range c.AllowedOrigins() {
		if origin != "*" && !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			return fmt.Errorf("CORS origin %q must start with http:// or https://", origin)
		}
	}

	if c.Twilio.ValidateSignature && (c.Twilio.AuthToken == "" || c.Twilio.WebhookURL == "") {
		return errors.New("TWILIO_VALIDATE_SIGNATURE needs TWILIO_AUTH_TOKEN and TWILIO_WEBHOOK_URL")
	}
	return nil
}

// HTTPAddr is the listen address for the API server.
func (c Config) HTTPAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// AllowedOrigins splits the CORS origin list.
func (c Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.Server.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// AIConfigured reports whether a model credential is present.
func (c Config) AIConfigured() bool {
	return strings.TrimSpace(c.AI.APIToken) != ""
}
