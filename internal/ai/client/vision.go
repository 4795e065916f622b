package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/studyhaven/studyhaven-backend/internal/ai/domain"
	"github.com/studyhaven/studyhaven-backend/internal/logging"
	"github.com/studyhaven/studyhaven-backend/internal/upstream"
)

const visionTimeout = 60 * time.Second

// VisionClient calls an OpenAI-compatible chat completions endpoint.
type VisionClient struct {
	baseURL string
	apiKey  string
	model   string
	http    *http.Client
}

func NewVisionClient(baseURL, apiKey, model string) *VisionClient {
	return &VisionClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		http:    &http.Client{Timeout: visionTimeout},
	}
}

func (c *VisionClient) Configured() bool { return c.apiKey != "" && c.baseURL != "" }

func (c *VisionClient) Model() string { return c.model }

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Describe sends one chat completion with the image attached.
func (c *VisionClient) Describe(ctx context.Context, image []byte, mimeType, prompt string) (*domain.VisionResult, error) {
	logger := logging.NewLogger(ctx)
	start := time.Now()

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{{
			Role: "user",
			Content: []contentPart{
				{Type: "text", Text: prompt},
				{Type: "image_url", ImageURL: &imageURL{
					URL: "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(image),
				}},
			},
		}},
		MaxTokens: 1024,
	})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		logger.LogError("vision", err)
		return nil, &upstream.Error{Provider: "vision", Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		logger.LogWarnf("vision", "upstream returned status %d after %s", resp.StatusCode, time.Since(start))
		return nil, &upstream.Error{Provider: "vision", Status: resp.StatusCode, Message: upstream.Message(resp.Body)}
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &upstream.Error{Provider: "vision", Status: resp.StatusCode, Message: "invalid response body"}
	}
	if len(out.Choices) == 0 {
		return nil, &upstream.Error{Provider: "vision", Status: resp.StatusCode, Message: "no choices returned"}
	}

	model := out.Model
	if model == "" {
		model = c.model
	}
	return &domain.VisionResult{Result: out.Choices[0].Message.Content, Model: model}, nil
}

