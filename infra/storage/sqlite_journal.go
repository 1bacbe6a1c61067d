package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mstgnz/gocomgate/infra/logger"
	"github.com/mstgnz/gocomgate/provider"
)

// SQLiteJournal persists gateway call records in a local SQLite database
type SQLiteJournal struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
}

// retryOperation executes a database operation with retry logic for SQLITE_BUSY errors
func (s *SQLiteJournal) retryOperation(ctx context.Context, operation func() error, maxRetries int) error {
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		err := operation()
		if err == nil {
			return nil
		}

		if !strings.Contains(err.Error(), "SQLITE_BUSY") && !strings.Contains(err.Error(), "database is locked") {
			return err
		}

		lastErr = err
		if attempt == maxRetries {
			break
		}

		// Exponential backoff: 10ms, 20ms, 40ms, 80ms
		backoff := time.Duration(10*(1<<attempt)) * time.Millisecond
		logger.Debug("sqlite busy, retrying", logger.LogContext{Fields: map[string]any{
			"backoff": backoff.String(),
			"attempt": attempt + 1,
		}})

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}

	return fmt.Errorf("operation failed after %d retries, last error: %w", maxRetries+1, lastErr)
}

// NewSQLiteJournal opens (or creates) the journal database at dbPath
func NewSQLiteJournal(dbPath string) (*SQLiteJournal, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_timeout=20000&_txlock=immediate", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(0)

	journal := &SQLiteJournal{
		db:   db,
		path: dbPath,
	}

	if err := journal.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	journal.optimize()

	logger.Info("sqlite journal initialized", logger.LogContext{Fields: map[string]any{"path": dbPath}})
	return journal, nil
}

func (s *SQLiteJournal) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS gateway_calls (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		request_id TEXT NOT NULL UNIQUE,
		gateway TEXT NOT NULL,
		operation TEXT NOT NULL,
		endpoint TEXT NOT NULL,
		request TEXT,
		http_code INTEGER NOT NULL,
		outcome TEXT NOT NULL,
		error_code INTEGER,
		error_message TEXT,
		redirect_to TEXT,
		processing_ms INTEGER NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_gateway_calls_operation ON gateway_calls(gateway, operation);
	CREATE INDEX IF NOT EXISTS idx_gateway_calls_outcome ON gateway_calls(outcome, created_at);
	`

	_, err := s.db.Exec(query)
	return err
}

func (s *SQLiteJournal) optimize() {
	pragmas := []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA synchronous = NORMAL;",
		"PRAGMA busy_timeout = 30000;",
		"PRAGMA temp_store = memory;",
	}

	for _, pragma := range pragmas {
		if _, err := s.db.Exec(pragma); err != nil {
			logger.Warn("failed to apply sqlite pragma", logger.LogContext{Fields: map[string]any{
				"pragma": pragma,
				"error":  err.Error(),
			}})
		}
	}
}

// Record stores one call record. The request payload must already be redacted.
func (s *SQLiteJournal) Record(ctx context.Context, record provider.CallRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var requestJSON []byte
	if record.Request != nil {
		var err error
		requestJSON, err = json.Marshal(record.Request)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now()
	}

	query := `
	INSERT INTO gateway_calls (request_id, gateway, operation, endpoint, request, http_code, outcome,
		error_code, error_message, redirect_to, processing_ms, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	return s.retryOperation(ctx, func() error {
		_, err := s.db.ExecContext(ctx, query,
			record.RequestID, record.Gateway, record.Operation, record.Endpoint, string(requestJSON),
			record.HTTPCode, record.Outcome, record.ErrorCode, record.ErrorMessage, record.RedirectTo,
			record.ProcessingMs, record.Timestamp.UTC(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert call record: %w", err)
		}
		return nil
	}, 3)
}

// Recent returns the latest call records, newest first
func (s *SQLiteJournal) Recent(ctx context.Context, limit int) ([]provider.CallRecord, error) {
	return s.query(ctx, "", limit)
}

// TransactionCalls returns the calls that carried a transaction id, newest first
func (s *SQLiteJournal) TransactionCalls(ctx context.Context, transID string) ([]provider.CallRecord, error) {
	return s.query(ctx, "WHERE json_extract(request, '$.transId') = ?", 100, transID)
}

// RecentFailures returns failed calls of the last hours, newest first
func (s *SQLiteJournal) RecentFailures(ctx context.Context, hours int) ([]provider.CallRecord, error) {
	since := time.Now().Add(-time.Duration(hours) * time.Hour).UTC()
	return s.query(ctx, "WHERE outcome IN ('connection_error', 'api_error') AND created_at >= ?", 100, since)
}

func (s *SQLiteJournal) query(ctx context.Context, where string, limit int, args ...any) ([]provider.CallRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
	SELECT request_id, gateway, operation, endpoint, request, http_code, outcome,
		error_code, error_message, redirect_to, processing_ms, created_at
	FROM gateway_calls `+where+` ORDER BY id DESC LIMIT ?`, append(args, limit)...)
	if err != nil {
		return nil, fmt.Errorf("failed to query call records: %w", err)
	}
	defer rows.Close()

	var records []provider.CallRecord
	for rows.Next() {
		var (
			record      provider.CallRecord
			requestJSON sql.NullString
			errorCode   sql.NullInt64
			errorMsg    sql.NullString
			redirectTo  sql.NullString
		)

		if err := rows.Scan(&record.RequestID, &record.Gateway, &record.Operation, &record.Endpoint,
			&requestJSON, &record.HTTPCode, &record.Outcome, &errorCode, &errorMsg, &redirectTo,
			&record.ProcessingMs, &record.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan call record: %w", err)
		}

		if requestJSON.Valid && requestJSON.String != "" {
			if err := json.Unmarshal([]byte(requestJSON.String), &record.Request); err != nil {
				return nil, fmt.Errorf("failed to unmarshal request of %s: %w", record.RequestID, err)
			}
		}
		record.ErrorCode = int(errorCode.Int64)
		record.ErrorMessage = errorMsg.String
		record.RedirectTo = redirectTo.String

		records = append(records, record)
	}

	return records, rows.Err()
}

// Ping checks that the database is reachable
func (s *SQLiteJournal) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection
func (s *SQLiteJournal) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// GetStats returns journal statistics
func (s *SQLiteJournal) GetStats(ctx context.Context) (map[string]any, error) {
	stats := map[string]any{"path": s.path}

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM gateway_calls").Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count call records: %w", err)
	}
	stats["total_calls"] = total

	rows, err := s.db.QueryContext(ctx, "SELECT outcome, COUNT(*) FROM gateway_calls GROUP BY outcome")
	if err != nil {
		return nil, fmt.Errorf("failed to group call records: %w", err)
	}
	defer rows.Close()

	byOutcome := map[string]int{}
	for rows.Next() {
		var outcome string
		var count int
		if err := rows.Scan(&outcome, &count); err != nil {
			return nil, fmt.Errorf("failed to scan outcome count: %w", err)
		}
		byOutcome[outcome] = count
	}
	stats["by_outcome"] = byOutcome

	return stats, rows.Err()
}
