package converter

import (
	"errors"

	apierrors "github.com/al3xb0/mindpal-task/internal/errors"
	"github.com/al3xb0/mindpal-task/internal/favorites"
	"github.com/al3xb0/mindpal-task/internal/model"
)

// DomainToHTTP handles conversion of domain results to HTTP responses.
type DomainToHTTP struct{}

// NewDomainToHTTP creates a new DomainToHTTP converter.
func NewDomainToHTTP() *DomainToHTTP {
	return &DomainToHTTP{}
}

// FavoritesHTTPResponse represents the HTTP response for the favorites list.
type FavoritesHTTPResponse struct {
	Favorites []model.FavoriteEntry `json:"favorites"`
	Loading   bool                  `json:"loading"`
	Error     string                `json:"error,omitempty"`
}

// FavoriteStatusHTTPResponse represents the HTTP response for a membership check.
type FavoriteStatusHTTPResponse struct {
	CharacterID int  `json:"character_id"`
	Favorite    bool `json:"favorite"`
}

// FavoriteOpHTTPResponse represents the HTTP response for toggle and remove.
type FavoriteOpHTTPResponse struct {
	favorites.Result
	RequestID string `json:"request_id,omitempty"`
}

// FavoritesResponse snapshots an engine's collection.
func (c *DomainToHTTP) FavoritesResponse(e *favorites.Engine) *FavoritesHTTPResponse {
	resp := &FavoritesHTTPResponse{
		Favorites: e.Favorites(),
		Loading:   e.Loading(),
	}
	if err := e.Err(); err != nil {
		resp.Error = err.Error()
		var apiErr *apierrors.Error
		if errors.As(err, &apiErr) {
			resp.Error = apiErr.Message
		}
	}
	return resp
}

// FavoriteStatusResponse converts a membership check.
func (c *DomainToHTTP) FavoriteStatusResponse(characterID int, favorite bool) *FavoriteStatusHTTPResponse {
	return &FavoriteStatusHTTPResponse{
		CharacterID: characterID,
		Favorite:    favorite,
	}
}

// FavoriteOpResponse converts a toggle or remove result.
func (c *DomainToHTTP) FavoriteOpResponse(res favorites.Result, requestID string) *FavoriteOpHTTPResponse {
	return &FavoriteOpHTTPResponse{
		Result:    res,
		RequestID: requestID,
	}
}
