// Package converter translates HTTP requests into domain calls and domain
// results into HTTP response bodies.
package converter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/al3xb0/mindpal-task/internal/gateway"
	"github.com/al3xb0/mindpal-task/internal/model"
	"github.com/gorilla/mux"
)

// MaxBodyBytes caps request bodies read by the converter.
const MaxBodyBytes = 1 << 20

// filterParams are the query parameters copied into a GET filter object.
var filterParams = []string{"name", "status", "species", "gender", "type"}

// HTTPToDomain handles conversion of HTTP requests to domain requests.
type HTTPToDomain struct{}

// NewHTTPToDomain creates a new HTTPToDomain converter.
func NewHTTPToDomain() *HTTPToDomain {
	return &HTTPToDomain{}
}

// CharactersBody converts a POST /v1/characters body. An empty body is a
// request for the first unfiltered page. Page and filter stay raw so the
// gateway can report their problems field by field.
func (c *HTTPToDomain) CharactersBody(r *http.Request) (gateway.Request, error) {
	body, err := readBody(r)
	if err != nil {
		return gateway.Request{}, err
	}

	var req gateway.Request
	if len(body) == 0 {
		return req, nil
	}
	if err := json.Unmarshal(body, &req); err != nil {
		return gateway.Request{}, fmt.Errorf("failed to parse request body: %w", err)
	}
	return req, nil
}

// CharactersQuery converts GET /v1/characters query parameters. Only the
// parameters present in the URL end up in the filter object.
func (c *HTTPToDomain) CharactersQuery(r *http.Request) (gateway.Request, error) {
	query := r.URL.Query()

	var req gateway.Request
	if query.Has("page") {
		page, err := json.Marshal(query.Get("page"))
		if err != nil {
			return gateway.Request{}, err
		}
		req.Page = page
	}

	filter := make(map[string]string)
	for _, key := range filterParams {
		if query.Has(key) {
			filter[key] = query.Get(key)
		}
	}
	if len(filter) > 0 {
		raw, err := json.Marshal(filter)
		if err != nil {
			return gateway.Request{}, err
		}
		req.Filter = raw
	}

	return req, nil
}

// CharacterBody converts a toggle body into the character being toggled.
func (c *HTTPToDomain) CharacterBody(r *http.Request) (model.Character, error) {
	body, err := readBody(r)
	if err != nil {
		return model.Character{}, err
	}
	if len(body) == 0 {
		return model.Character{}, fmt.Errorf("request body is required")
	}

	var character model.Character
	if err := json.Unmarshal(body, &character); err != nil {
		return model.Character{}, fmt.Errorf("failed to parse request body: %w", err)
	}
	if character.ID == "" {
		return model.Character{}, fmt.Errorf("id is required")
	}
	return character, nil
}

// CharacterFromPath reads {character_id} from the route and merges it with an
// optional character body. The path id wins; a body carrying a different id
// is rejected.
func (c *HTTPToDomain) CharacterFromPath(r *http.Request) (model.Character, error) {
	id, err := c.CharacterID(r)
	if err != nil {
		return model.Character{}, err
	}

	body, err := readBody(r)
	if err != nil {
		return model.Character{}, err
	}

	var character model.Character
	if len(body) > 0 {
		if err := json.Unmarshal(body, &character); err != nil {
			return model.Character{}, fmt.Errorf("failed to parse request body: %w", err)
		}
	}

	pathID := strconv.Itoa(id)
	if character.ID != "" && character.ID != pathID {
		return model.Character{}, fmt.Errorf("body id %q does not match path id %s", character.ID, pathID)
	}
	character.ID = pathID

	return character, nil
}

// CharacterID parses the {character_id} route variable.
func (c *HTTPToDomain) CharacterID(r *http.Request) (int, error) {
	raw := mux.Vars(r)["character_id"]
	if raw == "" {
		return 0, fmt.Errorf("character_id is required")
	}

	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid character_id: %s", raw)
	}
	return id, nil
}

func readBody(r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	defer r.Body.Close()

	body, err := io.ReadAll(io.LimitReader(r.Body, MaxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}
	if len(body) > MaxBodyBytes {
		return nil, fmt.Errorf("request body exceeds %d bytes", MaxBodyBytes)
	}
	return bytes.TrimSpace(body), nil
}
