package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"omnibot/internal/chat"
	"omnibot/internal/config"
	"omnibot/internal/history"
	"omnibot/internal/llm"
	"omnibot/internal/mediaapi"
	"omnibot/internal/panel"
	"omnibot/internal/scheduler"
	"omnibot/internal/tasker"
	"omnibot/internal/telegram"
	"omnibot/internal/toggles"
	"omnibot/internal/uploader"
	"omnibot/internal/users"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	cfg := config.New()
	if cfg.OwnerChatID == 0 {
		log.Printf("⚠️ OWNER_CHAT_ID not set, operator panel and notifications are disabled")
	}

	historyRepo, err := history.NewFileRepository(cfg.HistoryPath())
	if err != nil {
		log.Fatalf("failed to init history repository: %v", err)
	}
	store, err := history.NewStore(historyRepo)
	if err != nil {
		log.Fatalf("failed to load conversations: %v", err)
	}
	userCache, err := users.NewCache(cfg.UsersPath())
	if err != nil {
		log.Fatalf("failed to load user cache: %v", err)
	}
	aiToggle, err := toggles.New("aiEnabled", cfg.AITogglePath())
	if err != nil {
		log.Fatalf("failed to load ai toggle: %v", err)
	}
	uploadToggle, err := toggles.New("uploadEnabled", cfg.UploadTogglePath())
	if err != nil {
		log.Fatalf("failed to load upload toggle: %v", err)
	}
	ledger, err := panel.NewLedger(cfg.PanelLedgerPath())
	if err != nil {
		log.Fatalf("failed to load panel ledger: %v", err)
	}
	log.Printf("💾 stores ready: %d conversations, %d users", store.ChatCount(), userCache.Count())

	llmClient, err := llm.NewFactory(cfg).Create()
	if err != nil {
		log.Fatalf("failed to create llm client: %v", err)
	}

	chatSvc := chat.NewService(store, llmClient, aiToggle, chat.Options{
		SessionPrefix:      cfg.AISessionPrefix,
		Budget:             cfg.ContextBudget,
		DefaultPersonality: cfg.DefaultPersonality,
		PromptOverride:     readSystemPrompt(cfg.SystemPromptPath),
	})

	deps := telegram.Deps{
		Chat:         chatSvc,
		History:      store,
		Users:        userCache,
		AIToggle:     aiToggle,
		UploadToggle: uploadToggle,
		Ledger:       ledger,
	}
	if cfg.UploadAPIURL != "" {
		deps.Uploader = uploader.New(cfg.UploadAPIURL, cfg.UploadLinkDomain)
	} else {
		log.Printf("⚠️ UPLOAD_API_URL not set, media mirroring disabled")
	}
	if cfg.MediaAPIURL != "" {
		deps.Media = mediaapi.New(cfg.MediaAPIURL, cfg.MediaAPIKey)
	} else {
		log.Printf("⚠️ MEDIA_API_URL not set, media commands disabled")
	}
	if cfg.TaskAPIURL != "" {
		deps.Tasks = tasker.New(cfg.TaskAPIURL, cfg.TaskAPIKey)
	} else {
		log.Printf("⚠️ TASK_API_URL not set, /yt and /play disabled")
	}
	if cfg.YouTubeAPIKey != "" {
		deps.Search = tasker.NewSearch(cfg.YouTubeAPIKey)
	} else {
		log.Printf("⚠️ YOUTUBE_API_KEY not set, /play disabled")
	}
	if cfg.PanelAPIURL != "" {
		deps.Provisioner = panel.NewHTTP(cfg.PanelAPIURL, cfg.PanelAPIKey)
	} else {
		log.Printf("ℹ️ PANEL_API_URL not set, using the simulated provisioner")
		deps.Provisioner = panel.Simulator{}
	}

	bot, err := telegram.New(cfg, deps)
	if err != nil {
		log.Fatalf("failed to create bot: %v", err)
	}

	sched := scheduler.New()
	sched.SetDailyJob(bot.DailyMaintenance)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bot.Start(ctx)

	log.Println("🛑 shutting down")
	sched.Stop()
	if err := bot.Flush(); err != nil {
		log.Printf("⚠️ final flush: %v", err)
	}
	bot.NotifyOperator(fmt.Sprintf("🔴 %s is shutting down", cfg.BotName))
	log.Println("👋 bye")
}

func readSystemPrompt(path string) string {
	if path == "" {
		return ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("system prompt file not found or unreadable at %s: %v", path, err)
		return ""
	}
	return string(data)
}
