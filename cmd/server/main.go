package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"finmec/internal/agent"
	"finmec/internal/config"
	"finmec/internal/db"
	"finmec/internal/dispatch"
	"finmec/internal/gemini"
	"finmec/internal/handlers"
	"finmec/internal/openai"
	"finmec/internal/processor"
	"finmec/internal/services"
	"finmec/internal/store"
	"finmec/internal/uazapi"
	"finmec/internal/websocket"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/shopspring/decimal"
)

func main() {
	cfg := config.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)
	decimal.MarshalJSONWithoutQuotes = true

	database, err := db.Connect(cfg.DatabaseURL, db.PoolOptions{MaxOpenConns: cfg.DBMaxOpenConns})
	if err != nil {
		logger.Error("failed to connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer database.Close()

	txRunner := db.NewTxRunner(database, logger)
	users := store.NewUserStore(database)
	wallets := store.NewWalletStore(database)
	transactions := store.NewTransactionStore(database)
	categories := store.NewCategoryStore(database)
	methods := store.NewPaymentMethodStore(database)
	reminders := store.NewReminderStore(database)
	hub := websocket.NewHub()

	messenger := uazapi.New(cfg.UazapiBaseURL, cfg.UazapiToken, logger)
	transcriber := openai.New(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL)
	vision := gemini.New(cfg.GeminiAPIKey, cfg.GeminiBaseURL, cfg.GeminiModel)

	catalog, err := services.NewCatalogService(categories, methods, cfg.CatalogCacheTTL)
	if err != nil {
		logger.Error("failed to build catalog cache", slog.Any("error", err))
		os.Exit(1)
	}
	defer catalog.Close()
	walletService := services.NewWalletService(txRunner, wallets, logger)
	transactionService := services.NewTransactionService(txRunner, wallets, walletService, transactions, hub, cfg.Location, logger)
	userService := services.NewUserService(txRunner, users, wallets, cfg.ProvisionPassword, logger)
	reminderService := services.NewReminderService(reminders, messenger, logger)
	analytics := services.NewAnalyticsService(transactions, cfg.Location)

	client := anthropic.NewClient(option.WithAPIKey(cfg.AnthropicAPIKey))
	assistant := agent.New(&client.Messages, agent.Deps{
		Transactions: transactionService,
		Wallets:      walletService,
		Catalog:      catalog,
		Reminders:    reminderService,
	}, agent.Config{
		Model:     cfg.AgentModel,
		MaxTurns:  cfg.AgentMaxTurns,
		MaxTokens: cfg.AgentMaxTokens,
		Location:  cfg.Location,
	}, logger)

	dispatcher := dispatch.New(30*time.Second, logger)

	handler := handlers.New(cfg, handlers.Deps{
		Transactions: transactionService,
		Wallets:      walletService,
		Catalog:      catalog,
		Reminders:    reminderService,
		Analytics:    analytics,
		Users:        userService,
		Processor:    processor.New(messenger, transcriber, vision, logger),
		Agent:        assistant,
		Messenger:    messenger,
		Dispatcher:   dispatcher,
		Hub:          hub,
	}, logger)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Webhooks wait on transcription and several model turns.
		WriteTimeout: 3 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("finmec API listening", slog.String("addr", server.Addr), slog.String("env", cfg.AppEnv))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	<-shutdown

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	hub.Close()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", slog.Any("error", err))
	}
	if err := dispatcher.Drain(ctx); err != nil {
		logger.Warn("background jobs still running at exit", slog.Any("error", err))
	}
}
