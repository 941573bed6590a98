// internal/config/file.go
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk layout of the configuration.
type FileConfig struct {
	HTTP    FileHTTPConfig    `yaml:"http" json:"http"`
	MySQL   FileMySQLConfig   `yaml:"mysql" json:"mysql"`
	LLM     FileLLMConfig     `yaml:"llm" json:"llm"`
	Logging FileLoggingConfig `yaml:"logging" json:"logging"`
}

type FileHTTPConfig struct {
	Port                  int                 `yaml:"port" json:"port"`
	RequestTimeoutSeconds int                 `yaml:"request_timeout_seconds" json:"request_timeout_seconds"`
	CORSOrigin            string              `yaml:"cors_origin" json:"cors_origin"`
	RateLimit             FileRateLimitConfig `yaml:"rate_limit" json:"rate_limit"`
}

type FileRateLimitConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
	RPS     int  `yaml:"rps" json:"rps"`
	Burst   int  `yaml:"burst" json:"burst"`
}

type FileMySQLConfig struct {
	ClientPath          string `yaml:"client_path" json:"client_path"`
	Executor            string `yaml:"executor" json:"executor"`
	QueryTimeoutSeconds int    `yaml:"query_timeout_seconds" json:"query_timeout_seconds"`
	MaxOutputBytes      int    `yaml:"max_output_bytes" json:"max_output_bytes"`
	MaxRows             int    `yaml:"max_rows" json:"max_rows"`
	StrictSQL           bool   `yaml:"strict_sql" json:"strict_sql"`
}

type FileLLMConfig struct {
	Provider         string `yaml:"provider" json:"provider"`
	OllamaHost       string `yaml:"ollama_host" json:"ollama_host"`
	DefaultModel     string `yaml:"default_model" json:"default_model"`
	OpenAIAPIKey     string `yaml:"openai_api_key" json:"openai_api_key"`
	OpenAIBaseURL    string `yaml:"openai_base_url" json:"openai_base_url"`
	AnthropicAPIKey  string `yaml:"anthropic_api_key" json:"anthropic_api_key"`
	AnthropicBaseURL string `yaml:"anthropic_base_url" json:"anthropic_base_url"`
	TimeoutSeconds   int    `yaml:"timeout_seconds" json:"timeout_seconds"`
	CachePath        string `yaml:"cache_path" json:"cache_path"`
}

type FileLoggingConfig struct {
	Level         string `yaml:"level" json:"level"`
	JSONFormat    bool   `yaml:"json_format" json:"json_format"`
	AuditLogPath  string `yaml:"audit_log_path" json:"audit_log_path"`
	TokenTracking bool   `yaml:"token_tracking" json:"token_tracking"`
	TokenModel    string `yaml:"token_model" json:"token_model"`
}

// ConfigFilePath holds the path to the config file (set by command line flag).
var ConfigFilePath string

const appName = "mysql-ai-bridge"

// FindConfigFile searches for a config file in standard locations.
// Returns the path to the first config file found, or empty string if none found.
func FindConfigFile() string {
	if ConfigFilePath != "" {
		return ConfigFilePath
	}
	if envPath := os.Getenv("BRIDGE_CONFIG"); envPath != "" {
		return envPath
	}

	var candidates []string
	for _, ext := range []string{"yaml", "yml", "json"} {
		candidates = append(candidates, appName+"."+ext)
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		for _, ext := range []string{"yaml", "yml", "json"} {
			candidates = append(candidates, filepath.Join(homeDir, ".config", appName, "config."+ext))
		}
	}
	for _, ext := range []string{"yaml", "yml", "json"} {
		candidates = append(candidates, filepath.Join("/etc", appName, "config."+ext))
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// LoadConfigFile loads configuration from a file (YAML or JSON).
func LoadConfigFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg FileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	default:
		// Separate targets so a partial YAML decode cannot leak into the
		// JSON attempt.
		var yamlCfg FileConfig
		if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
			var jsonCfg FileConfig
			if err := json.Unmarshal(data, &jsonCfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file (tried YAML and JSON): %w", err)
			}
			cfg = jsonCfg
		} else {
			cfg = yamlCfg
		}
	}

	return &cfg, nil
}

// ValidateConfigFile parses a config file and checks the resulting
// configuration without starting anything.
func ValidateConfigFile(path string) error {
	fc, err := LoadConfigFile(path)
	if err != nil {
		return err
	}
	return fc.ToConfig().Validate()
}

// ToConfig converts a FileConfig to the runtime Config struct. Unset file
// values keep their defaults; the environment is applied afterwards.
func (fc *FileConfig) ToConfig() *Config {
	cfg := Defaults()

	if fc.HTTP.Port > 0 {
		cfg.HTTPPort = fc.HTTP.Port
	}
	if fc.HTTP.RequestTimeoutSeconds > 0 {
		cfg.HTTPRequestTimeout = secondsToDuration(fc.HTTP.RequestTimeoutSeconds)
	}
	if fc.HTTP.CORSOrigin != "" {
		cfg.CORSOrigin = fc.HTTP.CORSOrigin
	}
	cfg.RateLimitEnabled = fc.HTTP.RateLimit.Enabled
	if fc.HTTP.RateLimit.RPS > 0 {
		cfg.RateLimitRPS = float64(fc.HTTP.RateLimit.RPS)
	}
	if fc.HTTP.RateLimit.Burst > 0 {
		cfg.RateLimitBurst = fc.HTTP.RateLimit.Burst
	}

	if fc.MySQL.ClientPath != "" {
		cfg.ClientPath = fc.MySQL.ClientPath
	}
	if fc.MySQL.Executor != "" {
		cfg.Executor = strings.ToLower(strings.TrimSpace(fc.MySQL.Executor))
	}
	if fc.MySQL.QueryTimeoutSeconds > 0 {
		cfg.QueryTimeout = secondsToDuration(fc.MySQL.QueryTimeoutSeconds)
	}
	if fc.MySQL.MaxOutputBytes > 0 {
		cfg.MaxOutputBytes = fc.MySQL.MaxOutputBytes
	}
	if fc.MySQL.MaxRows > 0 {
		cfg.MaxRows = fc.MySQL.MaxRows
	}
	cfg.StrictSQL = fc.MySQL.StrictSQL

	cfg.LLMProvider = strings.ToLower(strings.TrimSpace(fc.LLM.Provider))
	if fc.LLM.OllamaHost != "" {
		cfg.OllamaHost = fc.LLM.OllamaHost
	}
	cfg.LLMModel = fc.LLM.DefaultModel
	cfg.OpenAIAPIKey = fc.LLM.OpenAIAPIKey
	cfg.OpenAIBaseURL = fc.LLM.OpenAIBaseURL
	cfg.AnthropicAPIKey = fc.LLM.AnthropicAPIKey
	cfg.AnthropicBaseURL = fc.LLM.AnthropicBaseURL
	if fc.LLM.TimeoutSeconds > 0 {
		cfg.LLMTimeout = secondsToDuration(fc.LLM.TimeoutSeconds)
	}
	cfg.LLMCachePath = fc.LLM.CachePath

	if fc.Logging.Level != "" {
		cfg.LogLevel = fc.Logging.Level
	}
	cfg.JSONLogging = fc.Logging.JSONFormat
	cfg.AuditLogPath = fc.Logging.AuditLogPath
	cfg.TokenTracking = fc.Logging.TokenTracking
	if strings.TrimSpace(fc.Logging.TokenModel) != "" {
		cfg.TokenModel = strings.TrimSpace(fc.Logging.TokenModel)
	}

	return cfg
}

// PrintConfig renders cfg as YAML with secrets masked.
func PrintConfig(cfg *Config) string {
	fc := &FileConfig{
		HTTP: FileHTTPConfig{
			Port:                  cfg.HTTPPort,
			RequestTimeoutSeconds: int(cfg.HTTPRequestTimeout.Seconds()),
			CORSOrigin:            cfg.CORSOrigin,
			RateLimit: FileRateLimitConfig{
				Enabled: cfg.RateLimitEnabled,
				RPS:     int(cfg.RateLimitRPS),
				Burst:   cfg.RateLimitBurst,
			},
		},
		MySQL: FileMySQLConfig{
			ClientPath:          cfg.ClientPath,
			Executor:            cfg.Executor,
			QueryTimeoutSeconds: int(cfg.QueryTimeout.Seconds()),
			MaxOutputBytes:      cfg.MaxOutputBytes,
			MaxRows:             cfg.MaxRows,
			StrictSQL:           cfg.StrictSQL,
		},
		LLM: FileLLMConfig{
			Provider:         cfg.LLMProvider,
			OllamaHost:       cfg.OllamaHost,
			DefaultModel:     cfg.LLMModel,
			OpenAIAPIKey:     maskSecret(cfg.OpenAIAPIKey),
			OpenAIBaseURL:    cfg.OpenAIBaseURL,
			AnthropicAPIKey:  maskSecret(cfg.AnthropicAPIKey),
			AnthropicBaseURL: cfg.AnthropicBaseURL,
			TimeoutSeconds:   int(cfg.LLMTimeout.Seconds()),
			CachePath:        cfg.LLMCachePath,
		},
		Logging: FileLoggingConfig{
			Level:         cfg.LogLevel,
			JSONFormat:    cfg.JSONLogging,
			AuditLogPath:  cfg.AuditLogPath,
			TokenTracking: cfg.TokenTracking,
			TokenModel:    cfg.TokenModel,
		},
	}

	data, _ := yaml.Marshal(fc)
	return string(data)
}

// maskSecret keeps the last four characters of long keys.
func maskSecret(s string) string {
	switch {
	case s == "":
		return ""
	case len(s) <= 8:
		return "***"
	default:
		return "***" + s[len(s)-4:]
	}
}
