package model

import (
	"strings"
	"time"
)

// ProvisionalIDPrefix marks favorite ids generated locally because the store
// did not return one. Such ids are never sent back to the store.
const ProvisionalIDPrefix = "local-"

// FavoriteEntry is one favorited character owned by a user.
type FavoriteEntry struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	CharacterID      int       `json:"character_id"`
	CharacterName    string    `json:"character_name"`
	CharacterImage   string    `json:"character_image"`
	CharacterStatus  string    `json:"character_status"`
	CharacterSpecies string    `json:"character_species"`
	CreatedAt        time.Time `json:"created_at"`
}

// Provisional reports whether the id was synthesized locally.
func (f FavoriteEntry) Provisional() bool {
	return strings.HasPrefix(f.ID, ProvisionalIDPrefix)
}

// NewFavorite is the snapshot of a character written to the favorites store.
type NewFavorite struct {
	UserID           string
	CharacterID      int
	CharacterName    string
	CharacterImage   string
	CharacterStatus  string
	CharacterSpecies string
	CreatedAt        time.Time
}

// Entry builds the local entry for a stored favorite.
func (n NewFavorite) Entry(id string) FavoriteEntry {
	return FavoriteEntry{
		ID:               id,
		UserID:           n.UserID,
		CharacterID:      n.CharacterID,
		CharacterName:    n.CharacterName,
		CharacterImage:   n.CharacterImage,
		CharacterStatus:  n.CharacterStatus,
		CharacterSpecies: n.CharacterSpecies,
		CreatedAt:        n.CreatedAt,
	}
}
