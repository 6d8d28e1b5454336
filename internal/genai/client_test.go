package genai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient("test-key", srv.URL, "test-model", 2*time.Second)
}

func writeCandidate(w http.ResponseWriter, parts ...string) {
	resp := GenerateContentResponse{}
	if parts != nil {
		c := Candidate{Content: Content{Role: "model"}}
		for _, p := range parts {
			c.Content.Parts = append(c.Content.Parts, Part{Text: p})
		}
		resp.Candidates = []Candidate{c}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func TestGenerateTextSendsStructuredRequest(t *testing.T) {
	var got GenerateContentRequest
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/models/test-model:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeCandidate(w, `{"slogan":`, `"x"}`)
	})

	text, err := client.GenerateText(context.Background(), &Request{
		Prompt:           "hello",
		ResponseMimeType: "application/json",
		ResponseSchema: &Schema{
			Type:       TypeObject,
			Properties: map[string]*Schema{"slogan": {Type: TypeString}},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"slogan":"x"}`, text)

	require.Len(t, got.Contents, 1)
	assert.Equal(t, "hello", got.Contents[0].Parts[0].Text)
	require.NotNil(t, got.GenerationConfig)
	assert.Equal(t, "application/json", got.GenerationConfig.ResponseMimeType)
	assert.Equal(t, TypeObject, got.GenerationConfig.ResponseSchema.Type)
}

func TestGenerateTextErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		check   func(t *testing.T, err error)
	}{
		{
			name: "api error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"error":{"code":429,"message":"quota","status":"RESOURCE_EXHAUSTED"}}`))
			},
			check: func(t *testing.T, err error) {
				var apiErr *APIError
				require.True(t, errors.As(err, &apiErr))
				assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
				assert.Equal(t, "quota", apiErr.Message)
			},
		},
		{
			name: "no candidates",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeCandidate(w)
			},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrNoCandidates)
			},
		},
		{
			name: "empty text",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeCandidate(w, "  ")
			},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrEmptyText)
			},
		},
		{
			name: "garbage body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("<html>"))
			},
			check: func(t *testing.T, err error) {
				assert.Contains(t, err.Error(), "failed to parse response")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestServer(t, tt.handler)
			_, err := client.GenerateText(context.Background(), &Request{Prompt: "p"})
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestGenerateTextMissingKey(t *testing.T) {
	client := NewClient("", "http://127.0.0.1:1", "", time.Second)
	_, err := client.GenerateText(context.Background(), &Request{Prompt: "p"})
	assert.ErrorIs(t, err, ErrAPIKeyMissing)
	assert.Equal(t, DefaultModel, client.Model())
}

func TestGenerateTextTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := srv.URL
	srv.Close()

	client := NewClient("k", base, "m", time.Second)
	_, err := client.GenerateText(context.Background(), &Request{Prompt: "p"})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "failed to send request"))
}
