package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/PoluyanbIch/GoTriviaBot/internal/config"
	"github.com/PoluyanbIch/GoTriviaBot/internal/opentdb"
	"github.com/PoluyanbIch/GoTriviaBot/internal/service"
	"github.com/PoluyanbIch/GoTriviaBot/internal/telegram"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	if err = cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := opentdb.NewClient(cfg.OpenTDBBaseURL, cfg.OpenTDBTimeout)

	// Without a token questions may repeat, but the quiz still works.
	if _, err = client.AcquireToken(ctx); err != nil {
		log.Printf("Error acquiring session token: %v", err)
	}

	categories, err := client.ListCategories(ctx)
	if err != nil {
		log.Printf("Error loading categories: %v", err)
		categories = []service.Category{service.AnyCategory}
	}

	bot, err := telegram.NewBot(cfg.TelegramToken, client, categories, telegram.Options{
		QuestionSeconds: cfg.QuestionSeconds,
		DefaultAmount:   cfg.DefaultAmount,
		Debug:           cfg.TelegramDebug,
	})
	if err != nil {
		log.Fatal(err)
	}

	log.Println("🤖 Bot is starting...")
	bot.Start(ctx)
	log.Println("Bot stopped")
}
