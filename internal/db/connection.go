package database

import (
	"database/sql"
	"fmt"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"
)

// DBService wraps the shared connection pool. Environment loading happens in
// the entrypoints; this layer only reads DB_CONNECTION_STRING.
type DBService struct {
	DB     *sql.DB
	logger zerolog.Logger
}

// NewDBService opens and verifies the Postgres connection pool.
func NewDBService(logger zerolog.Logger) (*DBService, error) {
	connStr := os.Getenv("DB_CONNECTION_STRING")
	if connStr == "" {
		return nil, fmt.Errorf("missing DB_CONNECTION_STRING in environment variables")
	}

	db, err := sql.Open("pgx", connStr)
	if err != nil {
		return nil, fmt.Errorf("could not open db connection: %v", err)
	}

	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("could not connect to the database: %v", err)
	}

	logger.Info().Msg("Database connection established")
	return &DBService{DB: db, logger: logger}, nil
}

// Health pings the database and reports its status.
func (s *DBService) Health() map[string]string {
	stats := make(map[string]string)

	if err := s.DB.Ping(); err != nil {
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("db down: %v", err)
		return stats
	}

	stats["status"] = "up"
	stats["message"] = "It's healthy"
	return stats
}

// Close closes the connection pool.
func (s *DBService) Close() error {
	s.logger.Info().Msg("Closing database connection")
	return s.DB.Close()
}
