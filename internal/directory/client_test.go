package directory

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/al3xb0/mindpal-task/internal/config"
	"github.com/al3xb0/mindpal-task/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const pageOne = `{
  "data": {
    "characters": {
      "info": {"count": 826, "pages": 42, "next": 2, "prev": null},
      "results": [{
        "id": "1",
        "name": "Rick Sanchez",
        "status": "Alive",
        "species": "Human",
        "type": "",
        "gender": "Male",
        "origin": {"name": "Earth (C-137)"},
        "location": {"name": "Citadel of Ricks"},
        "image": "https://rickandmortyapi.com/api/character/avatar/1.jpeg",
        "episode": [{"id": "1"}, {"id": "2"}],
        "created": "2017-11-04T18:48:46.250Z"
      }]
    }
  }
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(config.DirectoryConfig{
		Endpoint: srv.URL,
		Timeout:  2 * time.Second,
	}, zap.NewNop())
	require.NoError(t, err)
	return client
}

func TestCheckQuery(t *testing.T) {
	assert.NoError(t, checkQuery(CharactersQuery))
	assert.Error(t, checkQuery("query {"))
	assert.Error(t, checkQuery("mutation M($page: Int!, $filter: F) { x }"))
	assert.Error(t, checkQuery("query Q($page: Int!) { characters(page: $page) { info { count } } }"))
	assert.Error(t, checkQuery("query A($page: Int!, $filter: F) { a } query B { b }"))
}

func TestNewClient_RequiresEndpoint(t *testing.T) {
	_, err := NewClient(config.DirectoryConfig{}, zap.NewNop())
	assert.Error(t, err)
}

func TestCharacters_SendsVariables(t *testing.T) {
	var got request

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(pageOne))
	})

	resp, err := client.Characters(context.Background(), 3, &model.FilterCriteria{Name: "rick", Status: "Alive"})
	require.NoError(t, err)

	assert.Equal(t, CharactersQuery, got.Query)
	assert.Equal(t, 3, got.Variables.Page)
	require.NotNil(t, got.Variables.Filter)
	assert.Equal(t, "rick", got.Variables.Filter.Name)

	require.NotNil(t, resp.Data)
	require.NotNil(t, resp.Data.Characters)
	assert.Equal(t, 42, resp.Data.Characters.Info.Pages)
	require.NotNil(t, resp.Data.Characters.Info.Next)
	assert.Equal(t, 2, *resp.Data.Characters.Info.Next)
	assert.Nil(t, resp.Data.Characters.Info.Prev)
	require.Len(t, resp.Data.Characters.Results, 1)
	assert.Equal(t, "Citadel of Ricks", resp.Data.Characters.Results[0].Location.Name)
	assert.True(t, client.IsHealthy())
}

func TestCharacters_NilFilterIsNull(t *testing.T) {
	var raw map[string]json.RawMessage

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		w.Write([]byte(pageOne))
	})

	_, err := client.Characters(context.Background(), 1, nil)
	require.NoError(t, err)

	var vars map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw["variables"], &vars))
	assert.Equal(t, "null", string(vars["filter"]))
}

func TestCharacters_ApplicationError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"errors": [{"message": "Variable \"$page\" got invalid value"}, {"message": "second"}]}`))
	})

	resp, err := client.Characters(context.Background(), 1, nil)
	require.NoError(t, err)

	msg, ok := resp.FirstError()
	assert.True(t, ok)
	assert.Equal(t, `Variable "$page" got invalid value`, msg)
}

func TestCharacters_TransportErrors(t *testing.T) {
	t.Run("non-2xx status", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})

		_, err := client.Characters(context.Background(), 1, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "503")
		assert.False(t, client.IsHealthy())
	})

	t.Run("malformed body", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{not json`))
		})

		_, err := client.Characters(context.Background(), 1, nil)
		assert.Error(t, err)
	})

	t.Run("canceled context", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(pageOne))
		})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := client.Characters(ctx, 1, nil)
		assert.Error(t, err)
	})
}

func TestFirstError_NilResponse(t *testing.T) {
	var resp *Response
	_, ok := resp.FirstError()
	assert.False(t, ok)
}
