package generation

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"genstudio/internal/domain"
)

func TestNewClientRequiresBaseURL(t *testing.T) {
	_, err := NewClient(Options{})
	assert.Error(t, err)
}

func TestGenerateSyntheticWithoutAPIKey(t *testing.T) {
	client, err := NewClient(Options{BaseURL: "https://unused.example", Model: "studio-default"})
	require.NoError(t, err)

	req := Request{JobID: "job-1", Prompt: "a cafe", Style: "vintage"}
	first, err := client.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.NotEmpty(t, first.Data)
	assert.Equal(t, "image/png", first.MIME)
	assert.Equal(t, "studio-default-synthetic", first.Model)

	// Synthetic output is deterministic for identical inputs.
	second, err := client.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, first.Data, second.Data)
}

func TestGenerateRemote(t *testing.T) {
	var gotAuth string
	var gotPayload generateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		_ = json.NewEncoder(w).Encode(generateResponse{
			Data:              base64.StdEncoding.EncodeToString([]byte("generated")),
			MIME:              "image/png",
			Model:             "studio-v2",
			ProcessingSeconds: 12.5,
		})
	}))
	defer server.Close()

	client, err := NewClient(Options{APIKey: "key-123", BaseURL: server.URL, Model: "studio-default"})
	require.NoError(t, err)

	result, err := client.Generate(context.Background(), Request{
		JobID:     "job-1",
		Prompt:    "a cafe",
		Style:     "vintage",
		Category:  "poster",
		Quality:   "fast",
		InputMIME: "image/png",
		InputData: []byte("input"),
	})
	require.NoError(t, err)
	assert.Equal(t, []byte("generated"), result.Data)
	assert.Equal(t, "studio-v2", result.Model)
	assert.Equal(t, 12.5, result.ProcessingSeconds)

	assert.Equal(t, "Bearer key-123", gotAuth)
	assert.Equal(t, "job-1", gotPayload.RequestID)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("input")), gotPayload.Input)
}

func TestGenerateRemoteErrorMapsToProviderFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]string{"message": "model overloaded"}})
	}))
	defer server.Close()

	client, err := NewClient(Options{APIKey: "key-123", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = client.Generate(context.Background(), Request{JobID: "job-1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrProviderFailure)
	assert.Contains(t, err.Error(), "model overloaded")
}

func TestGenerateRemoteEmptyAsset(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(generateResponse{Data: ""})
	}))
	defer server.Close()

	client, err := NewClient(Options{APIKey: "key-123", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = client.Generate(context.Background(), Request{JobID: "job-1"})
	assert.ErrorIs(t, err, domain.ErrProviderFailure)
}

func TestGenerateHonorsContext(t *testing.T) {
	client, err := NewClient(Options{BaseURL: "https://unused.example"})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = client.Generate(ctx, Request{JobID: "job-1"})
	assert.ErrorIs(t, err, context.Canceled)
}
