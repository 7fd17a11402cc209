package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendInvoke = "invoke"
	BackendOpenAI = "openai"
)

type Config struct {
	Addr   string
	DBPath string
	WebDir string

	Backend     string
	InvokeURL   string
	LLMTimeout  time.Duration
	OpenAIBase  string
	OpenAIToken string
	OpenAIModel string

	BotName     string
	CreatorName string
}

// Load reads configuration from the environment, after a best-effort .env
// load. Every value has a default except the invoke endpoint URL, which is
// required when the invoke backend is selected.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Addr:        getenv("ADDR", ":8100"),
		DBPath:      getenv("DB_PATH", "chat_history.db"),
		WebDir:      getenv("WEB_DIR", "web"),
		Backend:     getenv("LLM_BACKEND", BackendInvoke),
		InvokeURL:   os.Getenv("LLM_API_URL"),
		OpenAIBase:  getenv("OPENAI_BASE_URL", "http://localhost:11434/v1/"),
		OpenAIToken: getenv("OPENAI_API_KEY", "fake"),
		OpenAIModel: getenv("OPENAI_MODEL", "llama3.1:8b"),
		BotName:     getenv("BOT_NAME", "Aurora"),
		CreatorName: getenv("CREATOR_NAME", "Ashwin"),
	}

	timeout := getenv("LLM_TIMEOUT", "30s")
	d, err := time.ParseDuration(timeout)
	if err != nil {
		return nil, fmt.Errorf("config: invalid LLM_TIMEOUT %q: %w", timeout, err)
	}
	cfg.LLMTimeout = d

	switch cfg.Backend {
	case BackendInvoke:
		if cfg.InvokeURL == "" {
			return nil, fmt.Errorf("config: LLM_API_URL is required for the %s backend", BackendInvoke)
		}
	case BackendOpenAI:
	default:
		return nil, fmt.Errorf("config: unknown LLM_BACKEND %q", cfg.Backend)
	}

	return cfg, nil
}

// SystemPrompt templates the system instruction from the configured bot and
// creator names.
func (c *Config) SystemPrompt() string {
	return fmt.Sprintf(
		"You are %s, an intelligent and friendly AI assistant created by %s. "+
			"You answer anything asked by the user, including your personal opinions. "+
			"You are allowed to discuss any topic, even controversial or sensitive ones, "+
			"as long as you remain factual and respectful.",
		c.BotName, c.CreatorName)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
