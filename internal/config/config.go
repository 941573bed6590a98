// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultHTTPPort            = 3001
	DefaultHTTPRequestTimeoutS = 120
	DefaultRateLimitRPS        = 10
	DefaultRateLimitBurst      = 20
	DefaultClientPath          = "mysql"
	DefaultExecutor            = ExecutorCLI
	DefaultQueryTimeoutSecs    = 30
	DefaultMaxOutputBytes      = 10 << 20
	DefaultMaxRows             = 10000
	DefaultOllamaHost          = "http://localhost:11434"
	DefaultLLMTimeoutSecs      = 120
	DefaultLogLevel            = "info"
	DefaultTokenModel          = "cl100k_base"

	ExecutorCLI    = "cli"
	ExecutorNative = "native"
)

// Config is the runtime configuration of the bridge.
type Config struct {
	HTTPPort           int
	HTTPRequestTimeout time.Duration
	CORSOrigin         string
	RateLimitEnabled   bool
	RateLimitRPS       float64
	RateLimitBurst     int

	ClientPath     string
	Executor       string
	QueryTimeout   time.Duration
	MaxOutputBytes int
	MaxRows        int
	StrictSQL      bool

	LLMProvider      string
	OllamaHost       string
	LLMModel         string
	OpenAIAPIKey     string
	OpenAIBaseURL    string
	AnthropicAPIKey  string
	AnthropicBaseURL string
	LLMTimeout       time.Duration
	LLMCachePath     string

	LogLevel      string
	JSONLogging   bool
	AuditLogPath  string
	TokenTracking bool
	TokenModel    string

	// Source is the config file the values came from, if any.
	Source string
}

// Defaults returns a Config with every built-in default applied.
func Defaults() *Config {
	return &Config{
		HTTPPort:           DefaultHTTPPort,
		HTTPRequestTimeout: secondsToDuration(DefaultHTTPRequestTimeoutS),
		CORSOrigin:         "*",
		RateLimitRPS:       DefaultRateLimitRPS,
		RateLimitBurst:     DefaultRateLimitBurst,
		ClientPath:         DefaultClientPath,
		Executor:           DefaultExecutor,
		QueryTimeout:       secondsToDuration(DefaultQueryTimeoutSecs),
		MaxOutputBytes:     DefaultMaxOutputBytes,
		MaxRows:            DefaultMaxRows,
		OllamaHost:         DefaultOllamaHost,
		LLMTimeout:         secondsToDuration(DefaultLLMTimeoutSecs),
		LogLevel:           DefaultLogLevel,
		TokenModel:         DefaultTokenModel,
	}
}

// Load builds the configuration from defaults, the config file (if one is
// found), a .env file and the environment, in that order of precedence.
func Load() (*Config, error) {
	cfg := Defaults()

	if path := FindConfigFile(); path != "" {
		fc, err := LoadConfigFile(path)
		if err != nil {
			return nil, err
		}
		cfg = fc.ToConfig()
		cfg.Source = path
	}

	if err := loadDotEnv(DotEnvPath); err != nil {
		return nil, err
	}
	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DotEnvPath is read by Load. Variables already in the environment win.
var DotEnvPath = ".env"

func loadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.HTTPPort = getEnvInt("API_PORT", cfg.HTTPPort)
	cfg.HTTPRequestTimeout = secondsToDuration(getEnvInt("BRIDGE_REQUEST_TIMEOUT_SECONDS", int(cfg.HTTPRequestTimeout.Seconds())))
	cfg.CORSOrigin = getEnvString("BRIDGE_CORS_ORIGIN", cfg.CORSOrigin)
	cfg.RateLimitEnabled = getEnvBool("BRIDGE_RATE_LIMIT", cfg.RateLimitEnabled)
	cfg.RateLimitRPS = float64(getEnvInt("BRIDGE_RATE_LIMIT_RPS", int(cfg.RateLimitRPS)))
	cfg.RateLimitBurst = getEnvInt("BRIDGE_RATE_LIMIT_BURST", cfg.RateLimitBurst)

	cfg.ClientPath = getEnvString("MYSQL_CLIENT_PATH", cfg.ClientPath)
	cfg.Executor = strings.ToLower(getEnvString("MYSQL_EXECUTOR", cfg.Executor))
	cfg.QueryTimeout = secondsToDuration(getEnvInt("MYSQL_QUERY_TIMEOUT_SECONDS", int(cfg.QueryTimeout.Seconds())))
	cfg.MaxOutputBytes = getEnvInt("MYSQL_MAX_OUTPUT_BYTES", cfg.MaxOutputBytes)
	cfg.MaxRows = getEnvInt("MYSQL_MAX_ROWS", cfg.MaxRows)
	cfg.StrictSQL = getEnvBool("BRIDGE_STRICT_SQL", cfg.StrictSQL)

	cfg.LLMProvider = strings.ToLower(getEnvString("LLM_PROVIDER", cfg.LLMProvider))
	cfg.OllamaHost = getEnvString("OLLAMA_HOST", cfg.OllamaHost)
	cfg.LLMModel = getEnvString("LLM_MODEL", cfg.LLMModel)
	cfg.OpenAIAPIKey = getEnvString("OPENAI_API_KEY", cfg.OpenAIAPIKey)
	cfg.OpenAIBaseURL = getEnvString("OPENAI_BASE_URL", cfg.OpenAIBaseURL)
	cfg.AnthropicAPIKey = getEnvString("ANTHROPIC_API_KEY", cfg.AnthropicAPIKey)
	cfg.AnthropicBaseURL = getEnvString("ANTHROPIC_BASE_URL", cfg.AnthropicBaseURL)
	cfg.LLMTimeout = secondsToDuration(getEnvInt("LLM_TIMEOUT_SECONDS", int(cfg.LLMTimeout.Seconds())))
	cfg.LLMCachePath = getEnvString("BRIDGE_LLM_CACHE", cfg.LLMCachePath)

	cfg.LogLevel = getEnvString("LOG_LEVEL", cfg.LogLevel)
	cfg.JSONLogging = getEnvBool("BRIDGE_JSON_LOGS", cfg.JSONLogging)
	cfg.AuditLogPath = getEnvString("BRIDGE_AUDIT_LOG", cfg.AuditLogPath)
	cfg.TokenTracking = getEnvBool("BRIDGE_TOKEN_TRACKING", cfg.TokenTracking)
	cfg.TokenModel = getEnvString("BRIDGE_TOKEN_MODEL", cfg.TokenModel)
}

// Validate reports the first setting that cannot work.
func (c *Config) Validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("http port %d out of range", c.HTTPPort)
	}
	switch c.Executor {
	case ExecutorCLI, ExecutorNative:
	default:
		return fmt.Errorf("unknown executor %q (supported: cli, native)", c.Executor)
	}
	switch c.LLMProvider {
	case "", "ollama", "openai", "anthropic":
	default:
		return fmt.Errorf("unknown llm provider %q (supported: ollama, openai, anthropic)", c.LLMProvider)
	}
	if c.QueryTimeout <= 0 {
		return fmt.Errorf("query timeout must be positive")
	}
	if c.MaxOutputBytes <= 0 {
		return fmt.Errorf("max output bytes must be positive")
	}
	if c.RateLimitEnabled && (c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0) {
		return fmt.Errorf("rate limit rps and burst must be positive")
	}
	return nil
}

func getEnvString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return def
}

func secondsToDuration(s int) time.Duration {
	return time.Duration(s) * time.Second
}
