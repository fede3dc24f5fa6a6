package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/haojie06/visualgen-http/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticToken string

func (s staticToken) Token() (string, error) { return string(s), nil }

func TestClientInjectsBearerToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer abc", r.Header.Get("Authorization"))
		assert.Equal(t, "/brands", r.URL.Path)
		_ = json.NewEncoder(w).Encode([]model.Brand{{Id: "b1", Name: "Acme"}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, staticToken("abc"), time.Second, WithHTTPClient(srv.Client()))
	brands, err := c.ListBrands(context.Background())
	require.NoError(t, err)
	require.Len(t, brands, 1)
	assert.Equal(t, "Acme", brands[0].Name)
}

func TestClientUnauthorizedInvokesHook(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	cleared := false
	c := NewClient(srv.URL, staticToken("expired"), time.Second, WithUnauthorizedHook(func() { cleared = true }))
	_, err := c.GetProduct(context.Background(), "p1")
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.True(t, cleared)
}

func TestClientMapsErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/generations/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil, time.Second)
	_, err := c.GetGeneration(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = c.ExecuteGeneration(context.Background(), "g1", model.ExecuteGenerationRequest{})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, "upstream down", apiErr.Body)
}

func TestGenerationSequence(t *testing.T) {
	var calls []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		switch r.URL.Path {
		case "/generations":
			var req model.CreateGenerationRequest
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "P1", req.ProductId)
			_ = json.NewEncoder(w).Encode(model.Generation{Id: "g1", ProductId: req.ProductId, CollectionId: req.CollectionId, Status: model.GenerationStatusPending})
		case "/generations/g1/merge":
			var req model.MergePromptsRequest
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "edited", req.Overrides["duo"].Prompt)
			_ = json.NewEncoder(w).Encode(model.MergePromptsResponse{GenerationId: "g1", MergedPrompts: map[string]model.MergedPrompt{"duo": {Prompt: "edited"}}})
		case "/generations/g1/execute":
			_ = json.NewEncoder(w).Encode(model.ExecuteGenerationResponse{GenerationId: "g1", Status: model.GenerationStatusProcessing})
		case "/generations/g1/status":
			_ = json.NewEncoder(w).Encode(model.GenerationStatusResponse{GenerationId: "g1", Completed: true})
		}
	}))
	defer srv.Close()

	ctx := context.Background()
	c := NewClient(srv.URL, nil, time.Second)
	gen, err := c.CreateGeneration(ctx, model.CreateGenerationRequest{ProductId: "P1", CollectionId: "C1"})
	require.NoError(t, err)
	_, err = c.MergePrompts(ctx, gen.Id, model.MergePromptsRequest{Overrides: map[string]model.MergedPrompt{"duo": {Prompt: "edited"}}})
	require.NoError(t, err)
	exec, err := c.ExecuteGeneration(ctx, gen.Id, model.ExecuteGenerationRequest{})
	require.NoError(t, err)
	assert.Equal(t, model.GenerationStatusProcessing, exec.Status)
	status, err := c.GenerationStatus(ctx, gen.Id)
	require.NoError(t, err)
	assert.True(t, status.Completed)

	assert.Equal(t, []string{
		"POST /generations",
		"POST /generations/g1/merge",
		"POST /generations/g1/execute",
		"GET /generations/g1/status",
	}, calls)
}
