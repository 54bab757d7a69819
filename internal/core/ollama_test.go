package core

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaGenerator(t *testing.T) {
	var got generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"model":"m","response":"  Try our vitamin C serum.  ","done":true}`))
	}))
	defer srv.Close()

	gen := NewOllamaGenerator(srv.URL, "m", time.Second)
	text, err := gen.GenerateReply(context.Background(), "dull skin tips?", &UserProfile{SkinType: "dry"})
	require.NoError(t, err)
	assert.Equal(t, "Try our vitamin C serum.", text)

	assert.Equal(t, "m", got.Model)
	assert.False(t, got.Stream)
	assert.Equal(t, assistantSystemPrompt, got.System)
	assert.Contains(t, got.Prompt, "dull skin tips?")
	assert.Contains(t, got.Prompt, "skin type: dry")
}

func TestOllamaGeneratorErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, `{"error":"model not found"}`},
		{"empty reply", http.StatusOK, `{"response":""}`},
		{"garbage", http.StatusOK, `not json`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewOllamaGenerator(srv.URL, "", time.Second).GenerateReply(context.Background(), "hi", nil)
			assert.Error(t, err)
		})
	}
}

func TestDispatcherFallsBackWhenOllamaIsDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	srv.Close()

	d := newTestDispatcher(NewOllamaGenerator(srv.URL, "", 200*time.Millisecond))
	reply := d.Dispatch(context.Background(), Query{Message: "what is the meaning of life"})
	assert.Contains(t, CannedFallbacks(), reply.Text)
}
