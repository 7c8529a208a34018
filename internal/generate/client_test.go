package generate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ApexAxiom/briefwire/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Generate(t *testing.T) {
	var gotAuth string
	var gotReq Request

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		_ = json.NewEncoder(w).Encode(Draft{
			BodyMarkdown: "Copper steadied overnight.",
			Summary:      "Quiet session.",
			Sources:      []string{"https://src1.example.com/story"},
		})
	}))
	defer ts.Close()

	client := NewClient(ClientConfig{Endpoint: ts.URL, APIKey: "secret"})

	draft, err := client.Generate(context.Background(), Request{
		Portfolio:  "base-metals",
		Region:     "au",
		DayKey:     "2026-08-30",
		Candidates: []domain.ArticleCandidate{{Title: "Copper", URL: "https://src1.example.com/story"}},
	})
	require.NoError(t, err)

	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, "base-metals", gotReq.Portfolio)
	assert.Equal(t, "2026-08-30", gotReq.DayKey)
	assert.Equal(t, "Copper steadied overnight.", draft.BodyMarkdown)
}

func TestClient_GenerateNonOKStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	client := NewClient(ClientConfig{Endpoint: ts.URL})
	_, err := client.Generate(context.Background(), Request{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
	assert.Contains(t, err.Error(), "model overloaded")
}

func TestClient_GenerateEmptyEndpoint(t *testing.T) {
	client := NewClient(ClientConfig{})
	_, err := client.Generate(context.Background(), Request{})
	assert.Error(t, err)
}
