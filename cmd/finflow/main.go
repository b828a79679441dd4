package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/finflow/finflow/internal/auth"
	"github.com/finflow/finflow/internal/clock"
	database "github.com/finflow/finflow/internal/db"
	emailService "github.com/finflow/finflow/internal/email"
	"github.com/finflow/finflow/internal/finance/application"
	"github.com/finflow/finflow/internal/finance/infrastructure"
	"github.com/finflow/finflow/internal/finance/interfaces"
	"github.com/finflow/finflow/internal/insights"
	"github.com/finflow/finflow/internal/logger"
	"github.com/finflow/finflow/internal/queue"
	"github.com/finflow/finflow/internal/ratelimit"
	"github.com/finflow/finflow/internal/user"
)

type Response struct {
	Message string `json:"message"`
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log.Printf("Started %s %s", r.Method, r.URL.Path)

		next.ServeHTTP(w, r)

		log.Printf("Completed %s in %v", r.URL.Path, time.Since(start))
	})
}

type Server struct {
	router             *http.ServeMux
	authService        auth.Service
	dbService          *database.DBService
	userHandler        *user.Handler
	accountHandler     *interfaces.AccountHandler
	transactionHandler *interfaces.TransactionHandler
	budgetHandler      *interfaces.BudgetHandler
	receiptHandler     *interfaces.ReceiptHandler
}

func NewServer(
	authService auth.Service,
	dbService *database.DBService,
	userHandler *user.Handler,
	accountHandler *interfaces.AccountHandler,
	transactionHandler *interfaces.TransactionHandler,
	budgetHandler *interfaces.BudgetHandler,
	receiptHandler *interfaces.ReceiptHandler,
) *Server {
	return &Server{
		router:             http.NewServeMux(),
		authService:        authService,
		dbService:          dbService,
		userHandler:        userHandler,
		accountHandler:     accountHandler,
		transactionHandler: transactionHandler,
		budgetHandler:      budgetHandler,
		receiptHandler:     receiptHandler,
	}
}

func notFoundHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	json.NewEncoder(w).Encode(Response{Message: "Path not found"})
}

func checkConfiguration() error {
	err := godotenv.Load()
	if err != nil {
		log.Println("Error loading .env file, continuing with system environment variables")
	}

	if os.Getenv("JWT_SECRET") == "" {
		return errors.New("no JWT_SECRET Provided")
	}
	return nil
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(s.dbService.Health())
}

func (s *Server) RegisterRoutes() {
	protect := s.authService.JWTAccessTokenMiddleware()

	// Public routes
	publicRoutes := http.NewServeMux()
	publicRoutes.Handle("GET /api/ready", http.HandlerFunc(s.handleReady))

	// Protected routes (using JWT Access Token Middleware)
	protectedRoutes := http.NewServeMux()

	protectedRoutes.Handle("GET /api/protected/profile", protect(http.HandlerFunc(s.userHandler.HandleGetUserProfile)))

	// ACCOUNTS API
	protectedRoutes.Handle("POST /api/protected/accounts", protect(http.HandlerFunc(s.accountHandler.HandleCreateAccount)))
	protectedRoutes.Handle("GET /api/protected/accounts", protect(http.HandlerFunc(s.accountHandler.HandleGetAccounts)))
	protectedRoutes.Handle("GET /api/protected/accounts/{accountID}", protect(http.HandlerFunc(s.accountHandler.HandleGetAccount)))
	protectedRoutes.Handle("DELETE /api/protected/accounts/{accountID}", protect(http.HandlerFunc(s.accountHandler.HandleDeleteAccount)))
	protectedRoutes.Handle("PUT /api/protected/accounts/{accountID}/default", protect(http.HandlerFunc(s.accountHandler.HandleSetDefaultAccount)))

	// TRANSACTIONS API
	protectedRoutes.Handle("POST /api/protected/transactions", protect(http.HandlerFunc(s.transactionHandler.HandleCreateTransaction)))
	protectedRoutes.Handle("GET /api/protected/transactions", protect(http.HandlerFunc(s.transactionHandler.HandleGetTransactions)))
	protectedRoutes.Handle("GET /api/protected/transactions/summary", protect(http.HandlerFunc(s.transactionHandler.HandleGetTransactionSummary)))
	protectedRoutes.Handle("POST /api/protected/transactions/bulk-delete", protect(http.HandlerFunc(s.transactionHandler.HandleBulkDeleteTransactions)))
	protectedRoutes.Handle("GET /api/protected/transactions/{transactionID}", protect(http.HandlerFunc(s.transactionHandler.HandleGetTransaction)))
	protectedRoutes.Handle("PUT /api/protected/transactions/{transactionID}", protect(http.HandlerFunc(s.transactionHandler.HandleUpdateTransaction)))
	protectedRoutes.Handle("DELETE /api/protected/transactions/{transactionID}", protect(http.HandlerFunc(s.transactionHandler.HandleDeleteTransaction)))

	// RECEIPTS API
	protectedRoutes.Handle("POST /api/protected/receipts/scan", protect(http.HandlerFunc(s.receiptHandler.HandleScanReceipt)))

	// BUDGET API
	protectedRoutes.Handle("GET /api/protected/budget", protect(http.HandlerFunc(s.budgetHandler.HandleGetBudget)))
	protectedRoutes.Handle("PUT /api/protected/budget", protect(http.HandlerFunc(s.budgetHandler.HandleUpsertBudget)))

	// Main router
	mainRouter := http.NewServeMux()
	mainRouter.Handle("/api/", publicRoutes)
	mainRouter.Handle("/api/protected/", protectedRoutes)
	mainRouter.Handle("/", http.HandlerFunc(notFoundHandler))

	s.router = mainRouter
}

func main() {
	if err := checkConfiguration(); err != nil {
		log.Fatalf("Missing configuration, update to start server")
	}

	appLogger := logger.New()

	dbService, err := database.NewDBService(appLogger)
	if err != nil {
		log.Fatalf("Could not initialize database: %v", err)
	}
	defer dbService.Close()

	if err := dbService.Migrate(); err != nil {
		log.Fatalf("Could not apply migrations: %v", err)
	}

	newEmailService := emailService.NewEmailService()

	userRepo := user.NewUserRepository(dbService.DB)
	userService := user.NewUserService(userRepo)
	userHandler := user.NewHandler(userService)

	jwtManager := auth.NewJWTManager()
	authService := auth.NewAuthService(jwtManager, userService)

	accountRepo := infrastructure.NewAccountRepository(dbService.DB)
	transactionRepo := infrastructure.NewTransactionRepository(dbService.DB)
	budgetRepo := infrastructure.NewBudgetRepository(dbService.DB)

	accountService := application.NewAccountService(accountRepo)
	transactionService := application.NewTransactionService(transactionRepo, accountRepo, clock.System)

	var publisher application.RecurringPublisher
	if amqpURL := os.Getenv("AMQP_URL"); amqpURL != "" {
		queueClient, err := queue.NewClient(amqpURL, queue.DefaultExchangeName, queue.DefaultQueueName, appLogger)
		if err != nil {
			log.Fatalf("Could not connect to AMQP: %v", err)
		}
		defer queueClient.Close()
		publisher = queueClient
	} else {
		appLogger.Warn().Msg("AMQP_URL not set, recurring transactions will be processed inline")
	}

	recurringService := application.NewRecurringService(transactionRepo, publisher, clock.System, appLogger)
	budgetService := application.NewBudgetService(budgetRepo, accountRepo, transactionRepo, userService, newEmailService, clock.System, appLogger)

	aiClient, err := insights.NewClient(context.Background(), appLogger)
	if err != nil {
		appLogger.Warn().Err(err).Msg("AI client unavailable, reports fall back to generic insights")
	}
	reportService := application.NewReportService(transactionRepo, userService, aiClient, newEmailService, clock.System, appLogger)

	limiter := ratelimit.NewLimiter(ratelimit.DefaultConfig())
	defer limiter.Close()

	var scanner interfaces.ReceiptScanner
	if aiClient != nil {
		scanner = aiClient
	}

	accountHandler := interfaces.NewAccountHandler(accountService)
	transactionHandler := interfaces.NewTransactionHandler(transactionService, limiter)
	budgetHandler := interfaces.NewBudgetHandler(budgetService)
	receiptHandler := interfaces.NewReceiptHandler(scanner)

	server := NewServer(authService, dbService, userHandler, accountHandler, transactionHandler, budgetHandler, receiptHandler)
	server.RegisterRoutes()

	if err := StartSchedulers(recurringService, budgetService, reportService, appLogger); err != nil {
		log.Fatalf("Scheduler didn't start, stoping the app ...")
	}

	handler := loggingMiddleware(server.router)
	log.Println("Server starting on port 8080...")
	if err := http.ListenAndServe(":8080", handler); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}

// StartSchedulers wires the three batch jobs: the daily recurring-transaction
// scan, the six-hourly budget alert check and the monthly report run.
func StartSchedulers(
	recurringService *application.RecurringService,
	budgetService *application.BudgetService,
	reportService *application.ReportService,
	appLogger zerolog.Logger,
) error {
	c := cron.New()

	if _, err := c.AddFunc("0 0 * * *", func() {
		triggered, err := recurringService.TriggerDueTransactions(context.Background())
		if err != nil {
			appLogger.Error().Err(err).Msg("Recurring transaction scan failed")
			return
		}
		appLogger.Info().Int("triggered", triggered).Msg("Recurring transaction scan complete")
	}); err != nil {
		return err
	}

	if _, err := c.AddFunc("0 */6 * * *", func() {
		if err := budgetService.CheckBudgetAlerts(); err != nil {
			appLogger.Error().Err(err).Msg("Budget alert check failed")
		}
	}); err != nil {
		return err
	}

	if _, err := c.AddFunc("0 8 1 * *", func() {
		if err := reportService.GenerateMonthlyReports(context.Background()); err != nil {
			appLogger.Error().Err(err).Msg("Monthly report run failed")
		}
	}); err != nil {
		return err
	}

	c.Start()
	return nil
}
