package store

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"

	"github.com/al3xb0/mindpal-task/internal/config"
	"github.com/al3xb0/mindpal-task/internal/model"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const pgUniqueViolation = "23505"

const postgresSchema = `
CREATE TABLE IF NOT EXISTS favorite_characters (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	user_id TEXT NOT NULL,
	character_id INTEGER NOT NULL,
	character_name TEXT NOT NULL,
	character_image TEXT NOT NULL DEFAULT '',
	character_status TEXT NOT NULL DEFAULT '',
	character_species TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (user_id, character_id)
);
CREATE INDEX IF NOT EXISTS idx_favorite_characters_user_created
	ON favorite_characters (user_id, created_at DESC);
`

// PostgresStore persists favorites in PostgreSQL.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgresStore connects to PostgreSQL and creates the favorites table if missing.
func NewPostgresStore(ctx context.Context, cfg config.PostgresConfig, logger *zap.Logger) (*PostgresStore, error) {
	return NewPostgresStoreFromDSN(ctx, postgresDSN(cfg), logger)
}

// postgresDSN renders cfg as a URL so credentials need no quoting.
func postgresDSN(cfg config.PostgresConfig) string {
	query := url.Values{}
	if cfg.MaxConnections > 0 {
		query.Set("pool_max_conns", strconv.Itoa(cfg.MaxConnections))
	}
	if cfg.MinConnections > 0 {
		query.Set("pool_min_conns", strconv.Itoa(cfg.MinConnections))
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:     "/" + cfg.Database,
		RawQuery: query.Encode(),
	}
	return u.String()
}

// NewPostgresStoreFromDSN connects using a libpq-style or URL connection string.
func NewPostgresStoreFromDSN(ctx context.Context, dsn string, logger *zap.Logger) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create favorites schema: %w", err)
	}

	logger.Info("postgres favorites store connected",
		zap.String("host", poolCfg.ConnConfig.Host),
		zap.String("database", poolCfg.ConnConfig.Database),
	)

	return &PostgresStore{pool: pool, logger: logger}, nil
}

// List returns the user's favorites, newest first.
func (s *PostgresStore) List(ctx context.Context, userID string) ([]model.FavoriteEntry, error) {
	query := `
		SELECT id::text, user_id, character_id, character_name, character_image,
		       character_status, character_species, created_at
		FROM favorite_characters
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}
	defer rows.Close()

	var out []model.FavoriteEntry
	for rows.Next() {
		var e model.FavoriteEntry
		if err := rows.Scan(
			&e.ID,
			&e.UserID,
			&e.CharacterID,
			&e.CharacterName,
			&e.CharacterImage,
			&e.CharacterStatus,
			&e.CharacterSpecies,
			&e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan favorite: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}
	return out, nil
}

// Insert stores a favorite and returns the id assigned by the database.
func (s *PostgresStore) Insert(ctx context.Context, fav model.NewFavorite) (string, error) {
	query := `
		INSERT INTO favorite_characters (
			user_id, character_id, character_name, character_image,
			character_status, character_species, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id::text
	`

	var id string
	err := s.pool.QueryRow(ctx, query,
		fav.UserID,
		fav.CharacterID,
		fav.CharacterName,
		fav.CharacterImage,
		fav.CharacterStatus,
		fav.CharacterSpecies,
		fav.CreatedAt,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return "", ErrDuplicate
		}
		return "", fmt.Errorf("failed to insert favorite: %w", err)
	}
	return id, nil
}

// Delete removes the user's favorite for a character.
func (s *PostgresStore) Delete(ctx context.Context, userID string, characterID int) error {
	query := `DELETE FROM favorite_characters WHERE user_id = $1 AND character_id = $2`

	if _, err := s.pool.Exec(ctx, query, userID, characterID); err != nil {
		return fmt.Errorf("failed to delete favorite: %w", err)
	}
	return nil
}

// Ping checks the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close closes the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

var _ Store = (*PostgresStore)(nil)
