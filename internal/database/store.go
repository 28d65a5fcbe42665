package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const maxHistoryLimit = 50

// Store defines the persistence operations used by the bot.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// UpsertSession inserts or replaces the session of session.UserID.
	UpsertSession(ctx context.Context, session *Session) error

	// GetSession returns the live session of a user, or nil, nil when there
	// is none or it has expired.
	GetSession(ctx context.Context, userID int64) (*Session, error)

	// DeleteExpiredSessions removes sessions that expired at or before now.
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)

	// SaveSolution appends a history entry, assigning ID and CreatedAt when unset.
	SaveSolution(ctx context.Context, solution *Solution) error

	// GetRecentSolutions returns up to limit history entries of a user, newest first.
	GetRecentSolutions(ctx context.Context, userID int64, limit int) ([]Solution, error)

	// DeleteSolutionsBefore removes history entries created before cutoff.
	DeleteSolutionsBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// RunSQLMaintenance performs database maintenance tasks like VACUUM.
	RunSQLMaintenance(ctx context.Context) error
}

type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a Store backed by sqlx.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *sqlxStore) UpsertSession(ctx context.Context, session *Session) error {
	if session == nil {
		return errors.New("cannot save nil session")
	}
	if session.UserID == 0 {
		return errors.New("session must have a non-zero user_id")
	}
	if session.UpdatedAt.IsZero() {
		session.UpdatedAt = time.Now()
	}
	if !session.ExpiresAt.After(session.UpdatedAt) {
		return fmt.Errorf("session for user %d expires before it was updated", session.UserID)
	}
	session.UpdatedAt = session.UpdatedAt.UTC()
	session.ExpiresAt = session.ExpiresAt.UTC()

	query := `
        INSERT INTO sessions (user_id, chat_id, last_expression, last_category, last_result, updated_at, expires_at)
        VALUES (:user_id, :chat_id, :last_expression, :last_category, :last_result, :updated_at, :expires_at)
        ON CONFLICT (user_id) DO UPDATE SET
            chat_id = excluded.chat_id,
            last_expression = excluded.last_expression,
            last_category = excluded.last_category,
            last_result = excluded.last_result,
            updated_at = excluded.updated_at,
            expires_at = excluded.expires_at;
    `
	if _, err := s.db.NamedExecContext(ctx, query, session); err != nil {
		s.logger.ErrorContext(ctx, "Error saving session", "user_id", session.UserID, "error", err)
		return fmt.Errorf("failed to save session (user %d): %w", session.UserID, err)
	}

	s.logger.DebugContext(ctx, "Session saved", "user_id", session.UserID, "expires_at", session.ExpiresAt)
	return nil
}

func (s *sqlxStore) GetSession(ctx context.Context, userID int64) (*Session, error) {
	if userID == 0 {
		return nil, errors.New("user_id cannot be zero")
	}

	var session Session
	query := `
        SELECT user_id, chat_id, last_expression, last_category, last_result, updated_at, expires_at
        FROM sessions
        WHERE user_id = ? AND expires_at > ?;
    `
	err := s.db.GetContext(ctx, &session, query, userID, time.Now().UTC())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "Error fetching session", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to fetch session (user %d): %w", userID, err)
	}
	return &session, nil
}

func (s *sqlxStore) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?;`, now.UTC())
	if err != nil {
		s.logger.ErrorContext(ctx, "Error deleting expired sessions", "error", err)
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted sessions: %w", err)
	}
	return affected, nil
}

func (s *sqlxStore) SaveSolution(ctx context.Context, solution *Solution) error {
	if solution == nil {
		return errors.New("cannot save nil solution")
	}
	if solution.UserID == 0 {
		return errors.New("solution must have a non-zero user_id")
	}
	if solution.Expression == "" {
		return errors.New("solution must have a non-empty expression")
	}
	if solution.ID == "" {
		solution.ID = uuid.NewString()
	}
	if solution.CreatedAt.IsZero() {
		solution.CreatedAt = time.Now()
	}
	solution.CreatedAt = solution.CreatedAt.UTC()

	query := `
        INSERT INTO solutions (id, user_id, chat_id, expression, category, success, result, error, created_at)
        VALUES (:id, :user_id, :chat_id, :expression, :category, :success, :result, :error, :created_at);
    `
	if _, err := s.db.NamedExecContext(ctx, query, solution); err != nil {
		s.logger.ErrorContext(ctx, "Error saving solution", "user_id", solution.UserID, "error", err)
		return fmt.Errorf("failed to save solution (user %d): %w", solution.UserID, err)
	}

	s.logger.DebugContext(ctx, "Solution saved", "user_id", solution.UserID, "solution_id", solution.ID)
	return nil
}

func (s *sqlxStore) GetRecentSolutions(ctx context.Context, userID int64, limit int) ([]Solution, error) {
	if userID == 0 {
		return nil, errors.New("user_id cannot be zero")
	}
	if limit <= 0 {
		limit = 5
	} else if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	var solutions []Solution
	query := `
        SELECT id, user_id, chat_id, expression, category, success, result, error, created_at
        FROM solutions
        WHERE user_id = ?
        ORDER BY created_at DESC, rowid DESC
        LIMIT ?;
    `
	if err := s.db.SelectContext(ctx, &solutions, query, userID, limit); err != nil {
		s.logger.ErrorContext(ctx, "Error fetching solutions", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to fetch solutions (user %d): %w", userID, err)
	}
	return solutions, nil
}

func (s *sqlxStore) DeleteSolutionsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM solutions WHERE created_at < ?;`, cutoff.UTC())
	if err != nil {
		s.logger.ErrorContext(ctx, "Error deleting old solutions", "cutoff", cutoff, "error", err)
		return 0, fmt.Errorf("failed to delete solutions before %s: %w", cutoff.Format(time.RFC3339), err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted solutions: %w", err)
	}
	return affected, nil
}

// RunSQLMaintenance executes VACUUM, which SQLite requires to run outside a transaction.
func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		s.logger.WarnContext(ctx, "Context done before starting VACUUM", "error", ctx.Err())
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Starting database maintenance (VACUUM)")

	if _, err := s.db.ExecContext(ctx, "PRAGMA busy_timeout = 5000;"); err != nil {
		s.logger.WarnContext(ctx, "Failed to set busy timeout", "error", err)
	}

	_, err := s.db.ExecContext(ctx, "VACUUM;")
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "VACUUM timed out or was cancelled", "error", err)
		return fmt.Errorf("database maintenance (VACUUM) timed out: %w", err)
	case err != nil:
		s.logger.ErrorContext(ctx, "Database maintenance (VACUUM) failed", "error", err)
		return fmt.Errorf("failed to execute VACUUM: %w", err)
	}

	s.logger.InfoContext(ctx, "Database maintenance (VACUUM) completed")
	return nil
}
