package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruby4mag/alert-normalizer/internal/config"
	"github.com/ruby4mag/alert-normalizer/internal/models"
)

func newTestClient(url string) *Client {
	return New(config.AIConfig{OllamaURL: url + "/", Model: "llama3", Timeout: 5 * time.Second})
}

func TestJudgeWhitelist(t *testing.T) {
	var got generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(generateResponse{Response: `Sure: {"whitelisted": true, "reason": " backup agent "}`})
	}))
	defer srv.Close()

	j, err := newTestClient(srv.URL).JudgeWhitelist(context.Background(),
		AlertContext{AlertName: "Port Scan", HostName: "WS-01", AlertData: json.RawMessage(`{"srcip":"10.0.0.5"}`)},
		[]models.WhitelistRule{{RawText: "allow backup\nagent"}},
	)
	require.NoError(t, err)
	assert.True(t, j.Whitelisted)
	assert.Equal(t, "backup agent", j.Reason)

	assert.Equal(t, "llama3", got.Model)
	assert.Equal(t, "json", got.Format)
	assert.False(t, got.Stream)
	assert.Contains(t, got.Prompt, "Alert name: Port Scan")
	assert.Contains(t, got.Prompt, "1. allow backup agent")
	assert.Contains(t, got.Prompt, `Alert data: {"srcip":"10.0.0.5"}`)
}

func TestInvestigate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(generateResponse{Response: "  benign scan  "})
	}))
	defer srv.Close()

	out, err := newTestClient(srv.URL).Investigate(context.Background(), AlertContext{AlertName: "Port Scan"})
	require.NoError(t, err)
	assert.Equal(t, "benign scan", out)
}

func TestChat(t *testing.T) {
	var got generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(generateResponse{Response: "check the parent process"})
	}))
	defer srv.Close()

	out, err := newTestClient(srv.URL).Chat(context.Background(), AlertContext{AlertName: "Port Scan"}, []Message{
		{Role: "user", Content: "is this bad?"},
		{Role: "assistant", Content: "maybe"},
		{Role: "user", Content: "what next?"},
	})
	require.NoError(t, err)
	assert.Equal(t, "check the parent process", out)
	assert.Contains(t, got.Prompt, "user: is this bad?\nassistant: maybe\nuser: what next?\nassistant:")
	assert.Empty(t, got.Format)
}

func TestBreakerOpensAfterFailures(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	for i := 0; i < 3; i++ {
		_, err := c.Generate(context.Background(), "hi", false)
		require.Error(t, err)
		assert.True(t, strings.Contains(err.Error(), "ollama error 500"))
	}

	_, err := c.Generate(context.Background(), "hi", false)
	assert.True(t, errors.Is(err, ErrUnavailable))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestBreakerIgnoresCallerCancellation(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_ = json.NewEncoder(w).Encode(generateResponse{Response: "ok"})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	canceled, cancel := context.WithCancel(context.Background())
	cancel()
	for i := 0; i < 5; i++ {
		_, err := c.Generate(canceled, "hi", false)
		require.Error(t, err)
		assert.True(t, errors.Is(err, context.Canceled))
		assert.False(t, errors.Is(err, ErrUnavailable))
	}

	expired, cancelExpired := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancelExpired()
	_, err := c.Generate(expired, "hi", false)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))

	out, err := c.Generate(context.Background(), "hi", false)
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestParseJudgment(t *testing.T) {
	j, err := ParseJudgment(`{"whitelisted": false, "reason": "no note covers it"}`)
	require.NoError(t, err)
	assert.False(t, j.Whitelisted)
	assert.Equal(t, "no note covers it", j.Reason)

	_, err = ParseJudgment("I cannot tell")
	assert.Error(t, err)

	_, err = ParseJudgment("{not json}")
	assert.Error(t, err)
}
