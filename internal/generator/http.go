package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// HTTPClient talks to the content generator service over JSON HTTP.
type HTTPClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewHTTPClient(baseURL, apiKey string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *HTTPClient) GeneratePrompts(ctx context.Context, req PromptsRequest) ([]Prompt, error) {
	var resp struct {
		Prompts []Prompt `json:"prompts"`
	}
	if err := c.post(ctx, "/v1/prompts", req, &resp); err != nil {
		return nil, err
	}
	if len(resp.Prompts) == 0 {
		return nil, fmt.Errorf("generator returned empty prompt set")
	}
	return resp.Prompts, nil
}

func (c *HTTPClient) GenerateBriefing(ctx context.Context, req BriefingRequest) (string, error) {
	var resp struct {
		Briefing string `json:"briefing"`
	}
	if err := c.post(ctx, "/v1/briefings", req, &resp); err != nil {
		return "", err
	}
	if resp.Briefing == "" {
		return "", fmt.Errorf("generator returned empty briefing")
	}
	return resp.Briefing, nil
}

func (c *HTTPClient) GenerateAgenda(ctx context.Context, req AgendaRequest) (string, error) {
	var resp struct {
		Agenda string `json:"agenda"`
	}
	if err := c.post(ctx, "/v1/agendas", req, &resp); err != nil {
		return "", err
	}
	if resp.Agenda == "" {
		return "", fmt.Errorf("generator returned empty agenda")
	}
	return resp.Agenda, nil
}

func (c *HTTPClient) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("generator request: %w", err)
	}
	defer resp.Body.Close()

	log.Debug().
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("generator call")

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("generator returned status %d: %s", resp.StatusCode, string(snippet))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode generator response: %w", err)
	}
	return nil
}
