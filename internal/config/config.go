// Package config assembles run configuration from .env files, an optional
// YAML file and environment variables, in that order of precedence.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

type BrightpearlConfig struct {
	Account      string        `yaml:"account"`
	APIToken     string        `yaml:"api_token"`
	APIDomain    string        `yaml:"api_domain"`
	AppRef       string        `yaml:"app_ref"`
	RequestDelay time.Duration `yaml:"request_delay"`
	MaxAttempts  int           `yaml:"max_attempts"`
}

type OracleConfig struct {
	Provider        string `yaml:"provider"`
	AnthropicAPIKey string `yaml:"anthropic_api_key"`
	OpenAIAPIKey    string `yaml:"openai_api_key"`
	Model           string `yaml:"model"`
	BaseURL         string `yaml:"base_url"`
}

// APIKey returns the credential of the selected provider.
func (o OracleConfig) APIKey() string {
	if strings.EqualFold(strings.TrimSpace(o.Provider), "openai") {
		return o.OpenAIAPIKey
	}
	return o.AnthropicAPIKey
}

type CacheConfig struct {
	// Backend is csv, postgres or sqlite.
	Backend string `yaml:"backend"`
	DSN     string `yaml:"dsn"`
	// Path is the csv backend's file.
	Path string `yaml:"path"`
}

type PathsConfig struct {
	ExportDir    string `yaml:"export_dir"`
	ConvertedDir string `yaml:"converted_dir"`
}

type ConvertConfig struct {
	NamePolicy    string `yaml:"name_policy"`
	BillingPolicy string `yaml:"billing_policy"`
	XLSX          bool   `yaml:"xlsx"`
}

type WebConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	// APIKey, when set, is required in the X-API-Key header of /api requests.
	APIKey string `yaml:"api_key"`
}

// Config is the full run configuration.
type Config struct {
	Brightpearl BrightpearlConfig `yaml:"brightpearl"`
	Oracle      OracleConfig      `yaml:"oracle"`
	Cache       CacheConfig       `yaml:"cache"`
	Paths       PathsConfig       `yaml:"paths"`
	Convert     ConvertConfig     `yaml:"convert"`
	Web         WebConfig         `yaml:"web"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Brightpearl: BrightpearlConfig{
			RequestDelay: 500 * time.Millisecond,
			MaxAttempts:  5,
		},
		Oracle: OracleConfig{Provider: "anthropic"},
		Cache:  CacheConfig{Backend: "csv", Path: "normalized_addresses.csv"},
		Paths: PathsConfig{
			ExportDir:    "exported",
			ConvertedDir: "converted",
		},
		Convert: ConvertConfig{
			NamePolicy:    "full-as-last",
			BillingPolicy: "first",
		},
		Web: WebConfig{Host: "localhost", Port: 8080},
	}
}

// Load builds the configuration. path may be empty, in which case only .env
// files and the environment are consulted.
func Load(path string) (*Config, error) {
	if err := LoadEnv(); err != nil {
		return nil, eris.Wrap(err, "config: load .env")
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return nil, eris.Wrapf(err, "config: read %s", path)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, eris.Wrapf(err, "config: parse %s", path)
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Brightpearl.Account = GetEnv("BRIGHTPEARL_ACCOUNT", c.Brightpearl.Account)
	c.Brightpearl.APIToken = GetEnv("BRIGHTPEARL_API_TOKEN", c.Brightpearl.APIToken)
	c.Brightpearl.APIDomain = GetEnv("BRIGHTPEARL_API_DOMAIN", c.Brightpearl.APIDomain)
	c.Brightpearl.AppRef = GetEnv("BRIGHTPEARL_APP_REF", c.Brightpearl.AppRef)
	c.Brightpearl.MaxAttempts = GetEnvInt("BRIGHTPEARL_MAX_ATTEMPTS", c.Brightpearl.MaxAttempts)

	c.Oracle.Provider = GetEnv("ORACLE_PROVIDER", c.Oracle.Provider)
	c.Oracle.AnthropicAPIKey = GetEnv("ANTHROPIC_API_KEY", c.Oracle.AnthropicAPIKey)
	c.Oracle.OpenAIAPIKey = GetEnv("OPENAI_API_KEY", c.Oracle.OpenAIAPIKey)
	c.Oracle.Model = GetEnv("ORACLE_MODEL", c.Oracle.Model)
	c.Oracle.BaseURL = GetEnv("ORACLE_BASE_URL", c.Oracle.BaseURL)

	c.Cache.Backend = GetEnv("CACHE_BACKEND", c.Cache.Backend)
	c.Cache.DSN = GetEnv("CACHE_DSN", c.Cache.DSN)
	c.Cache.Path = GetEnv("CACHE_PATH", c.Cache.Path)

	c.Paths.ExportDir = GetEnv("EXPORT_DIR", c.Paths.ExportDir)
	c.Paths.ConvertedDir = GetEnv("CONVERTED_DIR", c.Paths.ConvertedDir)

	c.Convert.NamePolicy = GetEnv("NAME_POLICY", c.Convert.NamePolicy)
	c.Convert.BillingPolicy = GetEnv("BILLING_POLICY", c.Convert.BillingPolicy)
	c.Convert.XLSX = GetEnvBool("CONVERT_XLSX", c.Convert.XLSX)

	c.Web.Host = GetEnv("WEB_HOST", c.Web.Host)
	c.Web.Port = GetEnvInt("WEB_PORT", c.Web.Port)
	c.Web.APIKey = GetEnv("WEB_API_KEY", c.Web.APIKey)
}

// BrightpearlReady reports whether the Brightpearl credentials are complete.
func (c *Config) BrightpearlReady() error {
	missing := []string{}
	if c.Brightpearl.Account == "" {
		missing = append(missing, "BRIGHTPEARL_ACCOUNT")
	}
	if c.Brightpearl.APIDomain == "" {
		missing = append(missing, "BRIGHTPEARL_API_DOMAIN")
	}
	if c.Brightpearl.APIToken == "" {
		missing = append(missing, "BRIGHTPEARL_API_TOKEN")
	}
	if c.Brightpearl.AppRef == "" {
		missing = append(missing, "BRIGHTPEARL_APP_REF")
	}
	if len(missing) > 0 {
		return eris.Errorf("config: missing %v", missing)
	}
	return nil
}
