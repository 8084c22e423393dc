package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	// LLMProvider is one of openai, gemini, stub.
	LLMProvider string

	OpenAIAPIKey         string
	OpenAIModel          string
	OpenAIBaseURL        string
	OpenAIResponseFormat string

	GeminiAPIKey   string
	GeminiModel    string
	GeminiEndpoint string

	ModelTimeout  time.Duration
	MaxImages     int
	MaxImageBytes int64
	MaxBodyBytes  int64

	RateLimit  int
	RateWindow time.Duration

	CORSOrigins   []string
	StaticDir     string
	DefaultLocale string

	LogLevel  string
	LogFormat string

	TelegramBotToken string
	WebhookURL       string
}

func mustEnv(k string) string {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		log.Fatalf("missing required env %s", k)
	}
	return v
}

func getEnv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getInt(k string, def int) int {
	v := getEnv(k, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.WithField("env", k).Warnf("not an integer, using %d", def)
		return def
	}
	return n
}

func getDuration(k string, def time.Duration) time.Duration {
	v := getEnv(k, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.WithField("env", k).Warnf("not a duration, using %s", def)
		return def
	}
	return d
}

func getList(k string, def []string) []string {
	v := getEnv(k, "")
	if v == "" {
		return def
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Load reads .env when present, then the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.WithError(err).Warn("could not read .env")
	}

	return &Config{
		Port: getEnv("PORT", "8080"),

		LLMProvider: strings.ToLower(getEnv("LLM_PROVIDER", "openai")),

		OpenAIAPIKey:         getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:          getEnv("OPENAI_MODEL", "gpt-4o"),
		OpenAIBaseURL:        getEnv("OPENAI_BASE_URL", ""),
		OpenAIResponseFormat: getEnv("OPENAI_RESPONSE_FORMAT", "json_object"),

		GeminiAPIKey:   getEnv("GEMINI_API_KEY", ""),
		GeminiModel:    getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		GeminiEndpoint: getEnv("GEMINI_ENDPOINT", ""),

		ModelTimeout:  getDuration("MODEL_TIMEOUT", 90*time.Second),
		MaxImages:     getInt("MAX_IMAGES", 10),
		MaxImageBytes: int64(getInt("MAX_IMAGE_BYTES", 20<<20)),
		MaxBodyBytes:  int64(getInt("MAX_BODY_BYTES", 50<<20)),

		RateLimit:  getInt("RATE_LIMIT", 100),
		RateWindow: getDuration("RATE_WINDOW", time.Hour),

		CORSOrigins:   getList("CORS_ORIGINS", []string{"*"}),
		StaticDir:     getEnv("STATIC_DIR", ""),
		DefaultLocale: getEnv("DEFAULT_LOCALE", "ja"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "cli"),

		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		WebhookURL:       getEnv("WEBHOOK_URL", ""),
	}
}

// LoadBot is Load for the Telegram binary, which cannot start without a token.
func LoadBot() *Config {
	cfg := Load()
	cfg.TelegramBotToken = mustEnv("TELEGRAM_BOT_TOKEN")
	return cfg
}

// Validate rejects settings the pipeline cannot run with. A missing API key
// is not an error here: the client reports it as an auth failure per request.
func (c *Config) Validate() error {
	switch c.LLMProvider {
	case "openai", "gemini", "stub":
	default:
		return fmt.Errorf("LLM_PROVIDER %q: want openai, gemini or stub", c.LLMProvider)
	}
	switch c.OpenAIResponseFormat {
	case "json_object", "json_schema":
	default:
		return fmt.Errorf("OPENAI_RESPONSE_FORMAT %q: want json_object or json_schema", c.OpenAIResponseFormat)
	}
	if c.ModelTimeout <= 0 {
		return errors.New("MODEL_TIMEOUT must be positive")
	}
	if c.MaxImages < 0 {
		return errors.New("MAX_IMAGES must not be negative")
	}
	if c.MaxImageBytes <= 0 || c.MaxBodyBytes <= 0 {
		return errors.New("MAX_IMAGE_BYTES and MAX_BODY_BYTES must be positive")
	}
	if c.RateLimit <= 0 || c.RateWindow <= 0 {
		return errors.New("RATE_LIMIT and RATE_WINDOW must be positive")
	}
	return nil
}
