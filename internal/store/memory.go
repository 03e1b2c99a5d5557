package store

import (
	"context"
	"sort"
	"sync"

	"github.com/al3xb0/mindpal-task/internal/model"
	"github.com/google/uuid"
)

// MemoryStore keeps favorites in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string][]memoryEntry
	seq     uint64
}

// memoryEntry remembers insertion order to break CreatedAt ties.
type memoryEntry struct {
	fav model.FavoriteEntry
	seq uint64
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string][]memoryEntry),
	}
}

// List returns the user's favorites, newest first.
func (s *MemoryStore) List(ctx context.Context, userID string) ([]model.FavoriteEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	rows := make([]memoryEntry, len(s.entries[userID]))
	copy(rows, s.entries[userID])
	s.mu.RUnlock()

	// Newest first; the later insert wins a timestamp tie.
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].fav.CreatedAt.Equal(rows[j].fav.CreatedAt) {
			return rows[i].fav.CreatedAt.After(rows[j].fav.CreatedAt)
		}
		return rows[i].seq > rows[j].seq
	})

	out := make([]model.FavoriteEntry, len(rows))
	for i, row := range rows {
		out[i] = row.fav
	}
	return out, nil
}

// Insert stores a favorite under a new uuid.
func (s *MemoryStore) Insert(ctx context.Context, fav model.NewFavorite) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.entries[fav.UserID] {
		if e.fav.CharacterID == fav.CharacterID {
			return "", ErrDuplicate
		}
	}

	id := uuid.NewString()
	s.seq++
	s.entries[fav.UserID] = append(s.entries[fav.UserID], memoryEntry{fav: fav.Entry(id), seq: s.seq})
	return id, nil
}

// Delete removes the user's favorite for a character.
func (s *MemoryStore) Delete(ctx context.Context, userID string, characterID int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.entries[userID][:0]
	for _, e := range s.entries[userID] {
		if e.fav.CharacterID != characterID {
			kept = append(kept, e)
		}
	}
	if len(kept) == 0 {
		delete(s.entries, userID)
		return nil
	}
	s.entries[userID] = kept
	return nil
}

// Ping always succeeds.
func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Close drops all favorites.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string][]memoryEntry)
	return nil
}

var _ Store = (*MemoryStore)(nil)
