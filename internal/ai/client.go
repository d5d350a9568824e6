// Package ai talks to an Ollama server for alert investigations and as a
// second opinion when no whitelist rule matches.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/sony/gobreaker"

	"github.com/ruby4mag/alert-normalizer/internal/config"
	"github.com/ruby4mag/alert-normalizer/internal/models"
)

// ErrUnavailable is returned while the circuit breaker is open.
var ErrUnavailable = errors.New("language model unavailable")

// errCallerGone marks failures caused by the caller's context ending. They
// say nothing about the model's health, so the breaker ignores them.
var errCallerGone = errors.New("caller context done")

type Client struct {
	url     string
	model   string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
}

func New(cfg config.AIConfig) *Client {
	return &Client{
		url:   strings.TrimRight(cfg.OllamaURL, "/"),
		model: cfg.Model,
		http:  &http.Client{Timeout: cfg.Timeout},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "ollama",
			MaxRequests: 1,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, errCallerGone)
			},
		}),
	}
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
	Format string `json:"format,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Generate sends one non-streaming prompt.
func (c *Client) Generate(ctx context.Context, prompt string, asJSON bool) (string, error) {
	req := generateRequest{Model: c.model, Prompt: prompt}
	if asJSON {
		req.Format = "json"
	}
	out, err := c.breaker.Execute(func() (interface{}, error) {
		text, err := c.generate(ctx, req)
		if err != nil && ctx.Err() != nil {
			err = errors.Mark(err, errCallerGone)
		}
		return text, err
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", errors.Mark(errors.Wrap(err, "ollama"), ErrUnavailable)
	}
	if err != nil {
		return "", err
	}
	return out.(string), nil
}

func (c *Client) generate(ctx context.Context, req generateRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", errors.Wrap(err, "encode ollama request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(err, "build ollama request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", errors.Wrap(err, "call ollama")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", errors.Newf("ollama error %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var result generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", errors.Wrap(err, "decode ollama response")
	}
	return strings.TrimSpace(result.Response), nil
}

// AlertContext is what the model is told about an alert.
type AlertContext struct {
	AlertName   string          `json:"alertName"`
	Description string          `json:"description"`
	HostName    string          `json:"hostName"`
	TenantName  string          `json:"tenantName"`
	AlertData   json.RawMessage `json:"alertData"`
}

// Investigate asks for a short triage of the alert.
func (c *Client) Investigate(ctx context.Context, a AlertContext) (string, error) {
	var b strings.Builder
	b.WriteString("You are a SOC analyst. Investigate the security alert below and answer with: ")
	b.WriteString("a one paragraph summary, the likely cause, whether it looks malicious, and next steps.\n\n")
	writeAlert(&b, a)
	return c.Generate(ctx, b.String(), false)
}

// Message is one turn of an analyst chat about an alert.
type Message struct {
	Role    string `json:"role" binding:"required,oneof=user assistant"`
	Content string `json:"content" binding:"required"`
}

// Chat continues a conversation about an alert and returns the next answer.
func (c *Client) Chat(ctx context.Context, a AlertContext, history []Message) (string, error) {
	var b strings.Builder
	b.WriteString("You are a SOC analyst helping a colleague with the security alert below.\n\n")
	writeAlert(&b, a)
	b.WriteString("\nConversation so far:\n")
	for _, m := range history {
		fmt.Fprintf(&b, "%s: %s\n", m.Role, strings.TrimSpace(m.Content))
	}
	b.WriteString("assistant:")
	return c.Generate(ctx, b.String(), false)
}

type Judgment struct {
	Whitelisted bool   `json:"whitelisted"`
	Reason      string `json:"reason"`
}

// JudgeWhitelist asks whether any of the analyst notes covers the alert.
func (c *Client) JudgeWhitelist(ctx context.Context, a AlertContext, rules []models.WhitelistRule) (Judgment, error) {
	var b strings.Builder
	b.WriteString("Decide whether the security alert below is covered by one of the analyst whitelist notes. ")
	b.WriteString(`Answer only with JSON {"whitelisted": true|false, "reason": "..."}.` + "\n\n")
	writeAlert(&b, a)
	b.WriteString("\nWhitelist notes:\n")
	for i, r := range rules {
		fmt.Fprintf(&b, "%d. %s\n", i+1, strings.ReplaceAll(r.RawText, "\n", " "))
	}

	out, err := c.Generate(ctx, b.String(), true)
	if err != nil {
		return Judgment{}, err
	}
	return ParseJudgment(out)
}

// ParseJudgment reads the first JSON object in a model answer.
func ParseJudgment(answer string) (Judgment, error) {
	start := strings.Index(answer, "{")
	end := strings.LastIndex(answer, "}")
	if start < 0 || end < start {
		return Judgment{}, errors.Newf("no JSON object in model answer %q", answer)
	}
	var j Judgment
	if err := json.Unmarshal([]byte(answer[start:end+1]), &j); err != nil {
		return Judgment{}, errors.Wrap(err, "decode model judgment")
	}
	j.Reason = strings.TrimSpace(j.Reason)
	return j, nil
}

func writeAlert(b *strings.Builder, a AlertContext) {
	fmt.Fprintf(b, "Alert name: %s\n", a.AlertName)
	fmt.Fprintf(b, "Description: %s\n", a.Description)
	fmt.Fprintf(b, "Host: %s\n", a.HostName)
	fmt.Fprintf(b, "Tenant: %s\n", a.TenantName)
	if len(a.AlertData) > 0 {
		fmt.Fprintf(b, "Alert data: %s\n", a.AlertData)
	}
}
