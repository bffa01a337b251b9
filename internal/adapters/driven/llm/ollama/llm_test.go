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
	"github.com/custodia-labs/tread-cli/internal/core/ports/driven"
)

func fastPolicy() ratelimit.Policy {
	return ratelimit.Policy{MaxAttempts: 3, InitialBackoff: time.Millisecond}
}

func newTestService(t *testing.T, handler http.HandlerFunc) *GenerationService {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewGenerationService(Config{
		BaseURL: srv.URL,
		Model:   "llama3.2",
		Retry:   fastPolicy(),
	})
}

func TestGenerate_Success(t *testing.T) {
	service := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama3.2", req.Model)
		assert.False(t, req.Stream)
		require.NotNil(t, req.Options)
		assert.Equal(t, 256, req.Options.NumPredict)

		json.NewEncoder(w).Encode(generateResponse{Response: "Un pneu toutes saisons.", Done: true})
	})

	answer, err := service.Generate(context.Background(), "Quel pneu ?", driven.GenerateOptions{MaxTokens: 256})

	require.NoError(t, err)
	assert.Equal(t, "Un pneu toutes saisons.", answer)
}

func TestGenerate_RetryExhaustionSurfacesServiceError(t *testing.T) {
	var requests int
	service := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		http.Error(w, "model overloaded", http.StatusInternalServerError)
	})

	answer, err := service.Generate(context.Background(), "q", driven.GenerateOptions{})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrGenerationService)
	assert.Empty(t, answer)
	assert.Equal(t, fastPolicy().MaxAttempts, requests)

	var serviceErr *domain.ServiceError
	require.ErrorAs(t, err, &serviceErr)
	assert.Equal(t, "generation", serviceErr.Service)
	assert.Equal(t, fastPolicy().MaxAttempts, serviceErr.Attempts)
}

func TestGenerate_ClientErrorNotRetried(t *testing.T) {
	var requests int
	service := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		http.Error(w, "model not found", http.StatusNotFound)
	})

	_, err := service.Generate(context.Background(), "q", driven.GenerateOptions{})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrGenerationService)
	assert.Equal(t, 1, requests)
}

func TestPing(t *testing.T) {
	service := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	})

	assert.NoError(t, service.Ping(context.Background()))
}

func TestDefaults(t *testing.T) {
	service := NewGenerationService(Config{})

	assert.Equal(t, DefaultModel, service.ModelName())
}
