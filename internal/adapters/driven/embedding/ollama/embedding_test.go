package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/tread-cli/internal/adapters/driven/ratelimit"
	"github.com/custodia-labs/tread-cli/internal/core/domain"
)

func fastPolicy() ratelimit.Policy {
	return ratelimit.Policy{MaxAttempts: 3, InitialBackoff: time.Millisecond}
}

func newTestService(t *testing.T, handler http.HandlerFunc) *EmbeddingService {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewEmbeddingService(Config{
		BaseURL: srv.URL,
		Model:   "nomic-embed-text",
		Retry:   fastPolicy(),
	})
}

func TestEmbed_Success(t *testing.T) {
	service := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embeddings", r.URL.Path)
		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "nomic-embed-text", req.Model)
		assert.Equal(t, "pneu hiver", req.Prompt)

		json.NewEncoder(w).Encode(embedResponse{Embedding: []float64{0.25, 0.5}})
	})

	got, err := service.Embed(context.Background(), "pneu hiver")

	require.NoError(t, err)
	assert.Equal(t, []float32{0.25, 0.5}, got)
}

func TestEmbed_RetryExhaustionSurfacesServiceError(t *testing.T) {
	var requests int
	service := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		http.Error(w, "model overloaded", http.StatusInternalServerError)
	})

	got, err := service.Embed(context.Background(), "q")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmbeddingService)
	assert.Nil(t, got)
	assert.Equal(t, fastPolicy().MaxAttempts, requests)

	var serviceErr *domain.ServiceError
	require.ErrorAs(t, err, &serviceErr)
	assert.Equal(t, "embedding", serviceErr.Service)
}

func TestEmbed_ClientErrorNotRetried(t *testing.T) {
	var requests int
	service := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		http.Error(w, "model not found", http.StatusNotFound)
	})

	_, err := service.Embed(context.Background(), "q")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmbeddingService)
	assert.Equal(t, 1, requests)
}

func TestEmbedBatch_PreservesOrder(t *testing.T) {
	service := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		// Echo a vector derived from the prompt so order is observable.
		value := float64(len(req.Prompt))
		json.NewEncoder(w).Encode(embedResponse{Embedding: []float64{value}})
	})

	got, err := service.EmbedBatch(context.Background(), []string{"a", "bb", "ccc"})

	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []float32{1}, got[0])
	assert.Equal(t, []float32{2}, got[1])
	assert.Equal(t, []float32{3}, got[2])
}

func TestEmbedBatch_NoPartialResultOnFailure(t *testing.T) {
	var requests int
	service := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests == 1 {
			json.NewEncoder(w).Encode(embedResponse{Embedding: []float64{0.1}})
			return
		}
		http.Error(w, "bad request", http.StatusBadRequest)
	})

	got, err := service.EmbedBatch(context.Background(), []string{"a", "b"})

	require.Error(t, err)
	assert.Nil(t, got)
}

func TestPing(t *testing.T) {
	service := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	})

	assert.NoError(t, service.Ping(context.Background()))
}

func TestDefaults(t *testing.T) {
	service := NewEmbeddingService(Config{})

	assert.Equal(t, DefaultModel, service.ModelName())
	assert.Equal(t, DefaultDimensions, service.Dimensions())
}
