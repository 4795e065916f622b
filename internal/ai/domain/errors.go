package domain

import "errors"

const (
	MaxImageBytes = 8 << 20
	MaxPromptLen  = 4000

	DefaultVisionPrompt = "Describe this image and explain anything a student should learn from it."
)

var (
	ErrNotConfigured = errors.New("AI provider is not configured")
	ErrInvalidImage  = errors.New("imageBase64 must be a base64 encoded image")
	ErrImageTooLarge = errors.New("image exceeds 8 MiB")
	ErrInvalidPrompt = errors.New("prompt is too long")
	ErrMissingAgent  = errors.New("agent_id is required")
	ErrRateLimited   = errors.New("too many AI requests, slow down")
)

type VisionResult struct {
	Result string `json:"result"`
	Model  string `json:"model"`
}
