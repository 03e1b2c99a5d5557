// Package handler provides HTTP request handlers for the character hub.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/al3xb0/mindpal-task/internal/auth"
	"github.com/al3xb0/mindpal-task/internal/converter"
	apierrors "github.com/al3xb0/mindpal-task/internal/errors"
	"github.com/al3xb0/mindpal-task/internal/favorites"
	"github.com/al3xb0/mindpal-task/internal/gateway"
	"github.com/al3xb0/mindpal-task/internal/session"
	"go.uber.org/zap"
)

// Handlers contains all HTTP handlers and their dependencies. Request
// deadlines come from the middleware chain.
type Handlers struct {
	gateway      *gateway.Gateway
	registry     *session.Registry
	httpToDomain *converter.HTTPToDomain
	domainToHTTP *converter.DomainToHTTP
	errorHandler *apierrors.Handler
	logger       *zap.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(
	gw *gateway.Gateway,
	registry *session.Registry,
	errorHandler *apierrors.Handler,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		gateway:      gw,
		registry:     registry,
		httpToDomain: converter.NewHTTPToDomain(),
		domainToHTTP: converter.NewDomainToHTTP(),
		errorHandler: errorHandler,
		logger:       logger,
	}
}

// SearchCharacters handles POST /v1/characters requests.
func (h *Handlers) SearchCharacters(w http.ResponseWriter, r *http.Request) {
	req, err := h.httpToDomain.CharactersBody(r)
	if err != nil {
		h.errorHandler.WriteValidationError(w, err.Error(), r.Header.Get("X-Request-ID"))
		return
	}

	h.getCharacters(w, r, req)
}

// ListCharacters handles GET /v1/characters requests.
func (h *Handlers) ListCharacters(w http.ResponseWriter, r *http.Request) {
	req, err := h.httpToDomain.CharactersQuery(r)
	if err != nil {
		h.errorHandler.WriteValidationError(w, err.Error(), r.Header.Get("X-Request-ID"))
		return
	}

	h.getCharacters(w, r, req)
}

func (h *Handlers) getCharacters(w http.ResponseWriter, r *http.Request, req gateway.Request) {
	page, err := h.gateway.GetCharacters(r.Context(), req)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.writeJSONResponse(w, http.StatusOK, page)
}

// ListFavorites handles GET /v1/favorites requests.
func (h *Handlers) ListFavorites(w http.ResponseWriter, r *http.Request) {
	engine, ok := h.engine(w, r)
	if !ok {
		return
	}

	h.writeJSONResponse(w, http.StatusOK, h.domainToHTTP.FavoritesResponse(engine))
}

// RefetchFavorites handles POST /v1/favorites/refetch requests.
func (h *Handlers) RefetchFavorites(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	engine, ok := h.engine(w, r)
	if !ok {
		return
	}

	if _, ok := auth.UserFromContext(ctx); !ok {
		// The anonymous engine is shared and never loaded
		if _, err := (auth.ContextIdentity{}).CurrentUser(ctx); err != nil {
			h.errorHandler.HandleError(w, r, apierrors.AuthRequired("Failed to get user: "+err.Error()))
			return
		}
		h.writeJSONResponse(w, http.StatusOK, h.domainToHTTP.FavoritesResponse(engine))
		return
	}

	if err := engine.Refetch(ctx); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.writeJSONResponse(w, http.StatusOK, h.domainToHTTP.FavoritesResponse(engine))
}

// ToggleFavorite handles POST /v1/favorites/toggle requests.
func (h *Handlers) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	requestID := r.Header.Get("X-Request-ID")

	character, err := h.httpToDomain.CharacterBody(r)
	if err != nil {
		h.errorHandler.WriteValidationError(w, err.Error(), requestID)
		return
	}

	engine, ok := h.engine(w, r)
	if !ok {
		return
	}

	res := engine.ToggleFavorite(r.Context(), character)
	h.writeJSONResponse(w, OutcomeStatus(res.Outcome), h.domainToHTTP.FavoriteOpResponse(res, requestID))
}

// RemoveFavorite handles DELETE /v1/favorites/{character_id} requests.
func (h *Handlers) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	requestID := r.Header.Get("X-Request-ID")

	character, err := h.httpToDomain.CharacterFromPath(r)
	if err != nil {
		h.errorHandler.WriteValidationError(w, err.Error(), requestID)
		return
	}

	engine, ok := h.engine(w, r)
	if !ok {
		return
	}

	res := engine.RemoveFavorite(r.Context(), character)
	h.writeJSONResponse(w, OutcomeStatus(res.Outcome), h.domainToHTTP.FavoriteOpResponse(res, requestID))
}

// FavoriteStatus handles GET /v1/favorites/{character_id} requests.
func (h *Handlers) FavoriteStatus(w http.ResponseWriter, r *http.Request) {
	characterID, err := h.httpToDomain.CharacterID(r)
	if err != nil {
		h.errorHandler.WriteValidationError(w, err.Error(), r.Header.Get("X-Request-ID"))
		return
	}

	engine, ok := h.engine(w, r)
	if !ok {
		return
	}

	h.writeJSONResponse(w, http.StatusOK, h.domainToHTTP.FavoriteStatusResponse(characterID, engine.IsFavorite(characterID)))
}

// OutcomeStatus converts a favorites outcome to an HTTP status code. The
// response body always carries the outcome and its notification.
func OutcomeStatus(outcome favorites.Outcome) int {
	switch outcome {
	case favorites.OutcomeAdded, favorites.OutcomeRemoved, favorites.OutcomeNotFavorite:
		return http.StatusOK
	case favorites.OutcomeInvalidCharacter:
		return http.StatusBadRequest
	case favorites.OutcomeAuthRequired, favorites.OutcomeAuthError:
		return http.StatusUnauthorized
	case favorites.OutcomeInProgress:
		return http.StatusConflict
	case favorites.OutcomeRateLimited:
		return http.StatusTooManyRequests
	case favorites.OutcomeStoreError, favorites.OutcomeRetired:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// engine resolves the favorites engine of the request's user and writes the
// error response when it cannot. Anonymous and rejected-token requests share
// the registry's anonymous engine.
func (h *Handlers) engine(w http.ResponseWriter, r *http.Request) (*favorites.Engine, bool) {
	userID, _ := auth.UserFromContext(r.Context())

	engine, err := h.registry.Engine(r.Context(), userID)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.Store("Favorites are still loading, please retry", err))
		return nil, false
	}
	return engine, true
}

// writeJSONResponse writes a JSON response.
func (h *Handlers) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode JSON response", zap.Error(err))
	}
}
