package config

import (
	"log"
	"path/filepath"

	"github.com/caarlos0/env/v6"
)

type AIProvider string

const (
	ProviderSession AIProvider = "session"
	ProviderOpenAI  AIProvider = "openai"
	ProviderYandex  AIProvider = "yandex"
)

type Config struct {
	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN,required"`
	OwnerChatID      int64  `env:"OWNER_CHAT_ID"`
	BotName          string `env:"BOT_NAME" envDefault:"OmniBot"`

	// AI settings
	AIProvider       AIProvider `env:"AI_PROVIDER" envDefault:"session"`
	AIBaseURL        string     `env:"AI_BASE_URL"`
	AIAPIKey         string     `env:"AI_API_KEY"`
	AISessionPrefix  string     `env:"AI_SESSION_PREFIX" envDefault:"omnibot"`
	OpenAIAPIKey     string     `env:"OPENAI_API_KEY"`
	OpenAIBaseURL    string     `env:"OPENAI_BASE_URL"`
	OpenAIModel      string     `env:"OPENAI_MODEL" envDefault:"gpt-3.5-turbo"`
	YandexOAuthToken string     `env:"YANDEX_OAUTH_TOKEN"`
	YandexFolderID   string     `env:"YANDEX_FOLDER_ID"`

	// Conversation context
	ContextBudget      int    `env:"CONTEXT_BUDGET" envDefault:"900"`
	DefaultPersonality string `env:"DEFAULT_PERSONALITY" envDefault:"default"`
	SystemPromptPath   string `env:"SYSTEM_PROMPT_PATH"`

	// Media aggregator API (image search, social downloads, qr, screenshots, ...)
	MediaAPIURL string `env:"MEDIA_API_URL"`
	MediaAPIKey string `env:"MEDIA_API_KEY"`

	// Task runner for YouTube extraction + Data API key for /play search
	TaskAPIURL    string `env:"TASK_API_URL"`
	TaskAPIKey    string `env:"TASK_API_KEY"`
	YouTubeAPIKey string `env:"YOUTUBE_API_KEY"`

	// Public file host for the media relay
	UploadAPIURL     string `env:"UPLOAD_API_URL"`
	UploadLinkDomain string `env:"UPLOAD_LINK_DOMAIN"`

	// Panel provisioning (empty URL selects the simulated backend)
	PanelAPIURL string `env:"PANEL_API_URL"`
	PanelAPIKey string `env:"PANEL_API_KEY"`

	// Storage
	DataDir          string `env:"DATA_DIR" envDefault:"data"`
	HistoryFile      string `env:"HISTORY_FILE" envDefault:"conversations.json"`
	UsersFile        string `env:"USERS_FILE" envDefault:"users.json"`
	AIToggleFile     string `env:"AI_TOGGLE_FILE" envDefault:"ai_toggle.json"`
	UploadToggleFile string `env:"UPLOAD_TOGGLE_FILE" envDefault:"upload_toggle.json"`
	PanelLedgerFile  string `env:"PANEL_LEDGER_FILE" envDefault:"panel_accounts.json"`

	// Formatting
	MessageParseMode string `env:"MESSAGE_PARSE_MODE" envDefault:"HTML"`
}

func New() *Config {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	return cfg
}

// Store file locations are all resolved inside DataDir.

func (c *Config) HistoryPath() string      { return filepath.Join(c.DataDir, c.HistoryFile) }
func (c *Config) UsersPath() string        { return filepath.Join(c.DataDir, c.UsersFile) }
func (c *Config) AITogglePath() string     { return filepath.Join(c.DataDir, c.AIToggleFile) }
func (c *Config) UploadTogglePath() string { return filepath.Join(c.DataDir, c.UploadToggleFile) }
func (c *Config) PanelLedgerPath() string  { return filepath.Join(c.DataDir, c.PanelLedgerFile) }
