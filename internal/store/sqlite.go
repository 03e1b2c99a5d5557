package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/al3xb0/mindpal-task/internal/model"
	"github.com/al3xb0/mindpal-task/internal/store/migrations"
	"github.com/google/uuid"
	"go.uber.org/zap"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// SQLiteStore persists favorites in a SQLite file.
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// OpenSQLite opens the database at path and applies the embedded migrations.
func OpenSQLite(ctx context.Context, path string, logger *zap.Logger) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}

	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, db, migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	logger.Info("sqlite favorites store opened", zap.String("path", path))

	return &SQLiteStore{db: db, logger: logger}, nil
}

// List returns the user's favorites, newest first.
func (s *SQLiteStore) List(ctx context.Context, userID string) ([]model.FavoriteEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, character_id, character_name, character_image,
		       character_status, character_species, created_at
		FROM favorite_characters
		WHERE user_id = ?
		ORDER BY created_at DESC, rowid DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}
	defer rows.Close()

	var out []model.FavoriteEntry
	for rows.Next() {
		var (
			e         model.FavoriteEntry
			createdAt int64
		)
		if err := rows.Scan(
			&e.ID,
			&e.UserID,
			&e.CharacterID,
			&e.CharacterName,
			&e.CharacterImage,
			&e.CharacterStatus,
			&e.CharacterSpecies,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan favorite: %w", err)
		}
		e.CreatedAt = time.UnixMilli(createdAt).UTC()
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}
	return out, nil
}

// Insert stores a favorite under a new uuid.
func (s *SQLiteStore) Insert(ctx context.Context, fav model.NewFavorite) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO favorite_characters (
			id, user_id, character_id, character_name, character_image,
			character_status, character_species, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		id,
		fav.UserID,
		fav.CharacterID,
		fav.CharacterName,
		fav.CharacterImage,
		fav.CharacterStatus,
		fav.CharacterSpecies,
		fav.CreatedAt.UTC().UnixMilli(),
	)
	if err != nil {
		if isSQLiteUniqueViolation(err) {
			return "", ErrDuplicate
		}
		return "", fmt.Errorf("failed to insert favorite: %w", err)
	}
	return id, nil
}

// Delete removes the user's favorite for a character.
func (s *SQLiteStore) Delete(ctx context.Context, userID string, characterID int) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM favorite_characters WHERE user_id = ? AND character_id = ?`,
		userID, characterID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete favorite: %w", err)
	}
	return nil
}

// Ping checks the database handle.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database handle.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func isSQLiteUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return false
}

var _ Store = (*SQLiteStore)(nil)
