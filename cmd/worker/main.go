package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/finflow/finflow/internal/clock"
	database "github.com/finflow/finflow/internal/db"
	"github.com/finflow/finflow/internal/finance/application"
	"github.com/finflow/finflow/internal/finance/infrastructure"
	"github.com/finflow/finflow/internal/logger"
	"github.com/finflow/finflow/internal/queue"
)

// The worker drains the recurring-transaction queue. It shares the conditional
// update with the inline path, so running several workers next to the API
// server is safe: a duplicate delivery becomes a skip, not a double booking.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Error loading .env file, continuing with system environment variables")
	}

	appLogger := logger.New()

	amqpURL := os.Getenv("AMQP_URL")
	if amqpURL == "" {
		appLogger.Fatal().Msg("AMQP_URL is required to run the worker")
	}

	dbService, err := database.NewDBService(appLogger)
	if err != nil {
		appLogger.Fatal().Err(err).Msg("Could not initialize database")
	}
	defer dbService.Close()

	queueClient, err := queue.NewClient(amqpURL, queue.DefaultExchangeName, queue.DefaultQueueName, appLogger)
	if err != nil {
		appLogger.Fatal().Err(err).Msg("Could not connect to AMQP")
	}
	defer queueClient.Close()

	transactionRepo := infrastructure.NewTransactionRepository(dbService.DB)
	recurringService := application.NewRecurringService(transactionRepo, nil, clock.System, appLogger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	appLogger.Info().
		Str("queue", queue.DefaultQueueName).
		Msg("Worker started, waiting for recurring transactions")

	err = queueClient.Consume(ctx, func(ctx context.Context, msg *queue.RecurringTransactionMessage) error {
		result, err := recurringService.ProcessRecurringTransaction(ctx, msg.TransactionID, msg.UserID)
		if err != nil {
			return err
		}
		if result.Status == application.StatusSkipped {
			appLogger.Info().
				Str("transaction_id", msg.TransactionID).
				Str("reason", result.Reason).
				Msg("Skipped recurring transaction")
		}
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		appLogger.Fatal().Err(err).Msg("Consumer stopped")
	}
	appLogger.Info().Msg("Worker shut down")
}
