// Package config loads petvoice settings from an optional YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all petvoice configuration.
type Config struct {
	Port     string        `yaml:"port"`
	LogLevel string        `yaml:"log_level"`
	LLM      LLM           `yaml:"llm"`
	Weather  WeatherConfig `yaml:"weather"`
	Store    StoreConfig   `yaml:"store"`

	// UploadDir receives re-encoded pet profile images.
	UploadDir string `yaml:"upload_dir"`
}

// LLM selects and configures the text provider. An empty APIKey means demo mode.
type LLM struct {
	Provider string `yaml:"provider"` // openai, gemini, grok, kimi, moonshot
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url"`
	Timeout  string `yaml:"timeout"`

	// Temperature is the sampling temperature, 0 to 2.
	Temperature float64 `yaml:"temperature"`
}

type WeatherConfig struct {
	APIKey  string `yaml:"api_key"`
	City    string `yaml:"city"`
	BaseURL string `yaml:"base_url"`
}

type StoreConfig struct {
	Engine string `yaml:"engine"` // json or sqlite
	Path   string `yaml:"path"`
}

const (
	DefaultLLMTimeout     = 10 * time.Second
	DefaultLLMTemperature = 0.8
)

// Default returns a configuration that runs in demo mode with a local SQLite store.
func Default() *Config {
	return &Config{
		Port:     "8080",
		LogLevel: "info",
		LLM: LLM{
			Provider: "openai",
			Model:    "gpt-4o-mini",
			Timeout:  DefaultLLMTimeout.String(),

			Temperature: DefaultLLMTemperature,
		},
		Weather: WeatherConfig{
			City:    "Seoul",
			BaseURL: "https://api.openweathermap.org",
		},
		Store: StoreConfig{
			Engine: "sqlite",
			Path:   filepath.Join("data", "petvoice.db"),
		},
		UploadDir: filepath.Join("uploads", "pets"),
	}
}

// Load reads path over the defaults and then applies environment overrides.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// providerKeys maps a provider to the environment variable holding its key.
var providerKeys = map[string]string{
	"openai":   "OPENAI_API_KEY",
	"gemini":   "GEMINI_API_KEY",
	"grok":     "GROK_API_KEY",
	"kimi":     "KIMI_API_KEY",
	"moonshot": "MOONSHOT_API_KEY",
}

// applyEnvOverrides lets environment variables win over the file.
func (c *Config) applyEnvOverrides() {
	setFromEnv(&c.Port, "PORT")
	setFromEnv(&c.LogLevel, "LOG_LEVEL")
	setFromEnv(&c.UploadDir, "UPLOAD_DIR")

	if v := strings.ToLower(strings.TrimSpace(os.Getenv("LLM_PROVIDER"))); v != "" {
		c.LLM.Provider = v
	} else if os.Getenv("OPENAI_API_KEY") == "" && c.LLM.APIKey == "" {
		// No explicit choice and no OpenAI key: take the first other provider that has one.
		for _, p := range []string{"gemini", "grok", "kimi", "moonshot"} {
			if os.Getenv(providerKeys[p]) != "" {
				c.LLM.Provider = p
				c.LLM.Model = ""
				break
			}
		}
	}
	c.LLM.Provider = strings.ToLower(strings.TrimSpace(c.LLM.Provider))
	if env, ok := providerKeys[c.LLM.Provider]; ok {
		setFromEnv(&c.LLM.APIKey, env)
	}
	if c.LLM.Provider == "openai" {
		setFromEnv(&c.LLM.Model, "OPENAI_MODEL")
		setFromEnv(&c.LLM.BaseURL, "OPENAI_BASE_URL")
	}
	setFromEnv(&c.LLM.Model, "LLM_MODEL")
	setFromEnv(&c.LLM.Timeout, "LLM_TIMEOUT")
	if v := strings.TrimSpace(os.Getenv("LLM_TEMPERATURE")); v != "" {
		if t, err := strconv.ParseFloat(v, 64); err == nil {
			c.LLM.Temperature = t
		}
	}

	setFromEnv(&c.Weather.APIKey, "WEATHER_API_KEY")
	setFromEnv(&c.Weather.City, "WEATHER_CITY")

	setFromEnv(&c.Store.Engine, "STORE_ENGINE")
	setFromEnv(&c.Store.Path, "STORE_PATH")
}

func setFromEnv(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

// GetLLMTimeout parses the provider timeout, falling back to DefaultLLMTimeout.
func (c *Config) GetLLMTimeout() time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(c.LLM.Timeout))
	if err != nil || d <= 0 {
		return DefaultLLMTimeout
	}
	return d
}

// GetLLMTemperature returns the configured temperature, or DefaultLLMTemperature when it is
// outside 0 to 2.
func (c *Config) GetLLMTemperature() float64 {
	t := c.LLM.Temperature
	if t < 0 || t > 2 {
		return DefaultLLMTemperature
	}
	return t
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return ":" + strings.TrimPrefix(c.Port, ":")
}
