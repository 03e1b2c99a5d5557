package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/al3xb0/mindpal-task/internal/config"
	"github.com/al3xb0/mindpal-task/internal/model"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisStore keeps each user's favorites in a sorted set scored by creation
// time plus a hash of entries keyed by character id. Inserts do not return
// an id; listed entries carry an id derived from the user and character.
type RedisStore struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisStore connects to Redis.
func NewRedisStore(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return newRedisStore(ctx, client, logger)
}

func newRedisStore(ctx context.Context, client *redis.Client, logger *zap.Logger) (*RedisStore, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{client: client, logger: logger}, nil
}

func orderKey(userID string) string {
	return "favorites:" + userID
}

func entriesKey(userID string) string {
	return "favorites:" + userID + ":entries"
}

// List returns the user's favorites, newest first.
func (s *RedisStore) List(ctx context.Context, userID string) ([]model.FavoriteEntry, error) {
	members, err := s.client.ZRevRange(ctx, orderKey(userID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}
	if len(members) == 0 {
		return nil, nil
	}

	values, err := s.client.HMGet(ctx, entriesKey(userID), members...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load favorites: %w", err)
	}

	out := make([]model.FavoriteEntry, 0, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			s.logger.Warn("favorite missing from entries hash",
				zap.String("user_id", userID),
				zap.String("character_id", members[i]),
			)
			continue
		}

		var e model.FavoriteEntry
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			return nil, fmt.Errorf("failed to decode favorite: %w", err)
		}
		e.ID = userID + ":" + members[i]
		out = append(out, e)
	}
	return out, nil
}

// Insert stores a favorite. The returned id is always empty.
func (s *RedisStore) Insert(ctx context.Context, fav model.NewFavorite) (string, error) {
	member := strconv.Itoa(fav.CharacterID)

	data, err := json.Marshal(fav.Entry(""))
	if err != nil {
		return "", fmt.Errorf("failed to marshal favorite: %w", err)
	}

	var added *redis.BoolCmd
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		added = pipe.HSetNX(ctx, entriesKey(fav.UserID), member, data)
		pipe.ZAddNX(ctx, orderKey(fav.UserID), redis.Z{
			Score:  float64(fav.CreatedAt.UnixMilli()),
			Member: member,
		})
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to insert favorite: %w", err)
	}
	if !added.Val() {
		return "", ErrDuplicate
	}
	return "", nil
}

// Delete removes the user's favorite for a character.
func (s *RedisStore) Delete(ctx context.Context, userID string, characterID int) error {
	member := strconv.Itoa(characterID)

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRem(ctx, orderKey(userID), member)
		pipe.HDel(ctx, entriesKey(userID), member)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete favorite: %w", err)
	}
	return nil
}

// Ping checks the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

var _ Store = (*RedisStore)(nil)
