package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"whchecker-backend/internal/shared/telemetry"
)

// Config holds application configuration.
type Config struct {
	Port              string
	Env               string
	CORSAllowOrigin   []string
	DatabaseURL       string
	LLMProvider       string
	LLMModel          string
	OpenAIAPIKey      string
	GoogleAPIKey      string
	LLMTimeout        time.Duration
	NotificationGate  bool
	CatalogPath       string
	LogLevel          string
	LogFile           string
	Slack             SlackConfig
	SQSQueueURL       string
	AWSRegion         string
	WorkerConcurrency int
}

// SlackConfig holds Slack app credentials and OAuth settings.
type SlackConfig struct {
	SigningSecret string
	BotToken      string
	ClientID      string
	ClientSecret  string
	RedirectURL   string
	BotScopes     []string
	UserScopes    []string
}

// OAuthEnabled reports whether the install flow can run.
func (s SlackConfig) OAuthEnabled() bool {
	return s.ClientID != "" && s.ClientSecret != "" && s.RedirectURL != ""
}

// InstallURL derives the install link from the redirect URL, or "" when OAuth is off.
func (s SlackConfig) InstallURL() string {
	if !s.OAuthEnabled() {
		return ""
	}
	base := s.RedirectURL
	if idx := strings.Index(base, "/slack/oauth_redirect"); idx >= 0 {
		base = base[:idx]
	}
	return strings.TrimRight(base, "/") + "/slack/install"
}

const (
	defaultBotScopes  = "chat:write,reactions:write,channels:history,groups:history,im:history,mpim:history,commands"
	defaultUserScopes = "chat:write"
)

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")

	if env == "production" && dbURL == "" {
		telemetry.Warn("config.database_url_missing", map[string]any{"env": env})
	}

	provider := normalizeProvider(getEnv("LLM_PROVIDER", "openai"))
	return Config{
		Port:              getEnv("PORT", "8080"),
		Env:               env,
		CORSAllowOrigin:   splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),
		DatabaseURL:       dbURL,
		LLMProvider:       provider,
		LLMModel:          getEnv("LLM_MODEL", defaultModel(provider)),
		OpenAIAPIKey:      os.Getenv("OPENAI_API_KEY"),
		GoogleAPIKey:      os.Getenv("GOOGLE_API_KEY"),
		LLMTimeout:        time.Duration(getEnvInt("LLM_TIMEOUT_SECONDS", 30)) * time.Second,
		NotificationGate:  getEnvBool("NOTIFICATION_SCORING", true),
		CatalogPath:       os.Getenv("CATALOG_PATH"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFile:           os.Getenv("LOG_FILE"),
		SQSQueueURL:       os.Getenv("SQS_QUEUE_URL"),
		AWSRegion:         getEnv("AWS_REGION", ""),
		WorkerConcurrency: getEnvInt("WORKER_CONCURRENCY", 4),
		Slack: SlackConfig{
			SigningSecret: os.Getenv("SLACK_SIGNING_SECRET"),
			BotToken:      os.Getenv("SLACK_BOT_TOKEN"),
			ClientID:      os.Getenv("SLACK_CLIENT_ID"),
			ClientSecret:  os.Getenv("SLACK_CLIENT_SECRET"),
			RedirectURL:   os.Getenv("SLACK_REDIRECT_URL"),
			BotScopes:     splitAndTrim(getEnv("SLACK_BOT_SCOPES", defaultBotScopes)),
			UserScopes:    splitAndTrim(getEnv("SLACK_USER_SCOPES", defaultUserScopes)),
		},
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		telemetry.Warn("config.invalid_int", map[string]any{"key": key, "value": raw, "default": def})
		return def
	}
	return parsed
}

func getEnvBool(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		telemetry.Warn("config.invalid_bool", map[string]any{"key": key, "value": raw, "default": def})
		return def
	}
	return parsed
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}

func normalizeProvider(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "gemini", "google":
		return "gemini"
	case "none", "off", "disabled":
		return "none"
	default:
		return "openai"
	}
}

func defaultModel(provider string) string {
	switch provider {
	case "gemini":
		return "gemini-2.0-flash"
	case "none":
		return ""
	default:
		return "gpt-4o-mini"
	}
}
