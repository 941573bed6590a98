package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

var envVars = []string{
	"API_PORT", "BRIDGE_REQUEST_TIMEOUT_SECONDS", "BRIDGE_CORS_ORIGIN",
	"BRIDGE_RATE_LIMIT", "BRIDGE_RATE_LIMIT_RPS", "BRIDGE_RATE_LIMIT_BURST",
	"MYSQL_CLIENT_PATH", "MYSQL_EXECUTOR", "MYSQL_QUERY_TIMEOUT_SECONDS",
	"MYSQL_MAX_OUTPUT_BYTES", "MYSQL_MAX_ROWS", "BRIDGE_STRICT_SQL",
	"LLM_PROVIDER", "OLLAMA_HOST", "LLM_MODEL", "OPENAI_API_KEY", "OPENAI_BASE_URL",
	"ANTHROPIC_API_KEY", "ANTHROPIC_BASE_URL", "LLM_TIMEOUT_SECONDS", "BRIDGE_LLM_CACHE",
	"LOG_LEVEL", "BRIDGE_JSON_LOGS", "BRIDGE_AUDIT_LOG", "BRIDGE_TOKEN_TRACKING",
	"BRIDGE_TOKEN_MODEL", "BRIDGE_CONFIG",
}

// isolate clears the bridge variables and points file discovery at an
// empty directory for the duration of the test.
func isolate(t *testing.T) string {
	t.Helper()
	for _, v := range envVars {
		t.Setenv(v, "")
		os.Unsetenv(v)
	}
	dir := t.TempDir()
	t.Setenv("HOME", dir)

	oldPath, oldDotEnv := ConfigFilePath, DotEnvPath
	ConfigFilePath = ""
	DotEnvPath = filepath.Join(dir, ".env")
	t.Cleanup(func() {
		ConfigFilePath, DotEnvPath = oldPath, oldDotEnv
	})

	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoadWithDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.HTTPPort != 3001 {
		t.Errorf("expected port 3001, got %d", cfg.HTTPPort)
	}
	if cfg.ClientPath != "mysql" || cfg.Executor != ExecutorCLI {
		t.Errorf("unexpected mysql defaults: %q %q", cfg.ClientPath, cfg.Executor)
	}
	if cfg.QueryTimeout != 30*time.Second {
		t.Errorf("expected 30s query timeout, got %v", cfg.QueryTimeout)
	}
	if cfg.MaxOutputBytes != 10<<20 {
		t.Errorf("expected 10 MiB output cap, got %d", cfg.MaxOutputBytes)
	}
	if cfg.OllamaHost != "http://localhost:11434" {
		t.Errorf("unexpected ollama host %q", cfg.OllamaHost)
	}
	if cfg.StrictSQL || cfg.RateLimitEnabled || cfg.JSONLogging {
		t.Errorf("optional features should be off by default: %+v", cfg)
	}
	if cfg.Source != "" {
		t.Errorf("no config file expected, got %q", cfg.Source)
	}
}

func TestLoadOverridesFromEnv(t *testing.T) {
	isolate(t)

	t.Setenv("API_PORT", "8080")
	t.Setenv("MYSQL_EXECUTOR", "NATIVE")
	t.Setenv("MYSQL_QUERY_TIMEOUT_SECONDS", "5")
	t.Setenv("BRIDGE_STRICT_SQL", "true")
	t.Setenv("OLLAMA_HOST", "http://ollama:11434")
	t.Setenv("LLM_MODEL", "qwen2.5-coder")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-123")
	t.Setenv("BRIDGE_JSON_LOGS", "1")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.HTTPPort != 8080 {
		t.Errorf("port = %d", cfg.HTTPPort)
	}
	if cfg.Executor != ExecutorNative {
		t.Errorf("executor = %q", cfg.Executor)
	}
	if cfg.QueryTimeout != 5*time.Second {
		t.Errorf("query timeout = %v", cfg.QueryTimeout)
	}
	if !cfg.StrictSQL || !cfg.JSONLogging {
		t.Errorf("bool overrides not applied: %+v", cfg)
	}
	if cfg.OllamaHost != "http://ollama:11434" || cfg.LLMModel != "qwen2.5-coder" || cfg.AnthropicAPIKey != "sk-ant-123" {
		t.Errorf("llm overrides not applied: %+v", cfg)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := isolate(t)

	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("API_PORT=4000\nLLM_MODEL=from-dotenv\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("LLM_MODEL", "from-env")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.HTTPPort != 4000 {
		t.Errorf(".env value not applied, port = %d", cfg.HTTPPort)
	}
	if cfg.LLMModel != "from-env" {
		t.Errorf("environment should win over .env, got %q", cfg.LLMModel)
	}
}

func TestLoadFromConfigFile(t *testing.T) {
	dir := isolate(t)

	path := filepath.Join(dir, "mysql-ai-bridge.yaml")
	content := "http:\n  port: 9000\nmysql:\n  executor: native\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("API_PORT", "9100")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Source != "mysql-ai-bridge.yaml" {
		t.Errorf("source = %q", cfg.Source)
	}
	if cfg.Executor != ExecutorNative {
		t.Errorf("file value not applied: %q", cfg.Executor)
	}
	if cfg.HTTPPort != 9100 {
		t.Errorf("env should override file, port = %d", cfg.HTTPPort)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"port out of range", "API_PORT", "70000"},
		{"unknown executor", "MYSQL_EXECUTOR", "odbc"},
		{"unknown provider", "LLM_PROVIDER", "bard"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			isolate(t)
			t.Setenv(tc.key, tc.val)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%s", tc.key, tc.val)
			}
		})
	}
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("TEST_INT", "42")
	if v := getEnvInt("TEST_INT", 10); v != 42 {
		t.Errorf("expected 42, got %d", v)
	}

	t.Setenv("TEST_INT", "not-a-number")
	if v := getEnvInt("TEST_INT", 10); v != 10 {
		t.Errorf("expected default 10 for invalid value, got %d", v)
	}

	t.Setenv("TEST_INT", "")
	if v := getEnvInt("TEST_INT", 10); v != 10 {
		t.Errorf("expected default 10 for empty value, got %d", v)
	}
}

func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		val  string
		def  bool
		want bool
	}{
		{"true", false, true},
		{"1", false, true},
		{"YES", false, true},
		{"off", true, false},
		{"0", true, false},
		{"maybe", true, true},
		{"", false, false},
	}
	for _, tc := range tests {
		t.Setenv("TEST_BOOL", tc.val)
		if got := getEnvBool("TEST_BOOL", tc.def); got != tc.want {
			t.Errorf("getEnvBool(%q, %v) = %v", tc.val, tc.def, got)
		}
	}
}
