package handlers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"finmec/internal/config"
	"finmec/internal/middleware"
	"finmec/internal/validator"
	"finmec/internal/websocket"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Deps bundles the collaborators built in cmd/server.
type Deps struct {
	Transactions TransactionService
	Wallets      WalletService
	Catalog      CatalogService
	Reminders    ReminderService
	Analytics    AnalyticsService
	Users        UserService
	Processor    MessageProcessor
	Agent        Agent
	Messenger    Messenger
	Dispatcher   Dispatcher
	Hub          *websocket.Hub
}

type Handler struct {
	cfg          config.Config
	transactions TransactionService
	wallets      WalletService
	catalog      CatalogService
	reminders    ReminderService
	analytics    AnalyticsService
	users        UserService
	processor    MessageProcessor
	agent        Agent
	messenger    Messenger
	dispatcher   Dispatcher
	hub          *websocket.Hub
	logger       *slog.Logger
	loc          *time.Location
	now          func() time.Time
}

func New(cfg config.Config, deps Deps, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	return &Handler{
		cfg:          cfg,
		transactions: deps.Transactions,
		wallets:      deps.Wallets,
		catalog:      deps.Catalog,
		reminders:    deps.Reminders,
		analytics:    deps.Analytics,
		users:        deps.Users,
		processor:    deps.Processor,
		agent:        deps.Agent,
		messenger:    deps.Messenger,
		dispatcher:   deps.Dispatcher,
		hub:          deps.Hub,
		logger:       logger,
		loc:          loc,
		now:          time.Now,
	}
}

func (h *Handler) Routes() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.NewStructuredLogger(h.logger))
	router.Use(chimiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(h.cfg.AllowedOrigins),
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "apikey"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	authenticated := middleware.Auth(h.users, h.cfg.JWTSecret)

	router.Route("/api", func(r chi.Router) {
		r.Use(authenticated)

		r.Route("/transactions", func(r chi.Router) {
			r.Post("/", h.CreateTransaction)
			r.Get("/", h.ListTransactions)
			r.Get("/recent", h.RecentTransactions)
			r.Get("/{id}", h.GetTransaction)
			r.Patch("/{id}", h.UpdateTransaction)
			r.Delete("/{id}", h.DeleteTransaction)
		})

		r.Get("/categories", h.ListCategories)
		r.Get("/categories/{id}", h.GetCategory)
		r.Get("/payment-methods", h.ListPaymentMethods)
		r.Get("/payment-methods/{id}", h.GetPaymentMethod)

		r.Get("/wallet/current", h.CurrentWallet)
		r.Get("/wallet/all", h.ListWallets)
		r.Get("/wallet/{id}", h.GetWallet)

		r.Route("/reminders", func(r chi.Router) {
			r.Post("/", h.CreateReminder)
			r.Get("/", h.ListReminders)
			r.Get("/active", h.ActiveReminders)
			r.Get("/{id}", h.GetReminder)
			r.Patch("/{id}", h.UpdateReminder)
			r.Delete("/{id}", h.DeleteReminder)
		})

		r.Get("/dashboard/summary", h.DashboardSummary)
		r.Get("/charts/bar", h.BarChart)
		r.Get("/charts/pizza", h.PieChart)
	})

	router.Route("/webhook", func(r chi.Router) {
		r.Get("/test", h.WebhookTest)
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireWebhookSecret(h.cfg.WebhookSecret))
			r.Post("/finmec", h.MessageWebhook)
			r.Post("/ativacao", h.ActivationWebhook)
			r.Post("/reminders/{id}/sent", h.ReminderSent)
		})
	})

	router.Post("/auth/login", h.Login)
	router.With(authenticated).Get("/ws/balances", h.WSBalances)

	router.Get("/", h.Root)
	router.Get("/health", h.Health)
	return router
}

func (h *Handler) today() time.Time {
	return validator.DayOf(h.now().In(h.loc))
}

func allowedOrigins(raw string) []string {
	var origins []string
	for _, origin := range strings.Split(raw, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
