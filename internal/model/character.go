// Package model defines the domain types shared by the gateway and the favorites engine.
package model

// Character status values accepted by the directory.
const (
	StatusAlive   = "Alive"
	StatusDead    = "Dead"
	StatusUnknown = "unknown"
)

// Character is a directory record as returned by the upstream. Field names
// match the upstream JSON so a page can be passed through without re-shaping.
type Character struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Status   string      `json:"status"`
	Species  string      `json:"species"`
	Type     string      `json:"type"`
	Gender   string      `json:"gender"`
	Origin   NamedRef    `json:"origin"`
	Location NamedRef    `json:"location"`
	Image    string      `json:"image"`
	Episode  []EpisodeID `json:"episode"`
	Created  string      `json:"created"`
}

// NamedRef references an origin or location by name.
type NamedRef struct {
	Name string `json:"name"`
}

// EpisodeID references an episode.
type EpisodeID struct {
	ID string `json:"id"`
}

// PageInfo holds the pagination metadata of a directory page.
type PageInfo struct {
	Count int  `json:"count"`
	Pages int  `json:"pages"`
	Next  *int `json:"next"`
	Prev  *int `json:"prev"`
}

// CharacterPage is one page of characters.
type CharacterPage struct {
	Info    PageInfo    `json:"info"`
	Results []Character `json:"results"`
}

// DirectoryPage is the upstream data object for a characters query.
type DirectoryPage struct {
	Characters *CharacterPage `json:"characters"`
}

// FilterCriteria is a sanitized directory filter. A nil *FilterCriteria means
// "no filter"; an empty struct is never sent upstream.
type FilterCriteria struct {
	Name    string `json:"name,omitempty"`
	Status  string `json:"status,omitempty"`
	Species string `json:"species,omitempty"`
	Gender  string `json:"gender,omitempty"`
	Type    string `json:"type,omitempty"`
}

// IsEmpty reports whether no field is set.
func (f FilterCriteria) IsEmpty() bool {
	return f == FilterCriteria{}
}

// FieldError describes a validation failure on a single request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}
