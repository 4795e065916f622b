package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/studyhaven/studyhaven-backend/internal/logging"
	"github.com/studyhaven/studyhaven-backend/internal/upstream"
)

// ElevenLabsClient fetches signed conversation URLs for voice agents.
type ElevenLabsClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewElevenLabsClient(baseURL, apiKey string) *ElevenLabsClient {
	return &ElevenLabsClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *ElevenLabsClient) Configured() bool { return c.apiKey != "" && c.baseURL != "" }

func (c *ElevenLabsClient) SignedURL(ctx context.Context, agentID string) (string, error) {
	u := c.baseURL + "/v1/convai/conversation/get_signed_url?agent_id=" + url.QueryEscape(agentID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("xi-api-key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		logging.NewLogger(ctx).LogError("voice_signed_url", err)
		return "", &upstream.Error{Provider: "elevenlabs", Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		logging.NewLogger(ctx).LogWarnf("voice_signed_url", "upstream returned status %d", resp.StatusCode)
		return "", &upstream.Error{Provider: "elevenlabs", Status: resp.StatusCode, Message: upstream.Message(resp.Body)}
	}

	var out struct {
		SignedURL string `json:"signed_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil || out.SignedURL == "" {
		return "", &upstream.Error{Provider: "elevenlabs", Status: resp.StatusCode, Message: "response carried no signed_url"}
	}
	return out.SignedURL, nil
}
