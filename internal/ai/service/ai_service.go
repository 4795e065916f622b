package service

import (
	"context"
	"encoding/base64"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/studyhaven/studyhaven-backend/internal/ai/domain"
)

type VisionProvider interface {
	Configured() bool
	Describe(ctx context.Context, image []byte, mimeType, prompt string) (*domain.VisionResult, error)
}

type VoiceProvider interface {
	Configured() bool
	SignedURL(ctx context.Context, agentID string) (string, error)
}

// AIService forwards single requests to the AI providers. It never retries.
type AIService struct {
	vision       VisionProvider
	voice        VoiceProvider
	defaultAgent string
	limiter      *UserLimiter
}

func NewAIService(vision VisionProvider, voice VoiceProvider, defaultAgent string, limiter *UserLimiter) *AIService {
	return &AIService{vision: vision, voice: voice, defaultAgent: defaultAgent, limiter: limiter}
}

func (s *AIService) Vision(ctx context.Context, userID, imageBase64, prompt string) (*domain.VisionResult, error) {
	if s.vision == nil || !s.vision.Configured() {
		return nil, domain.ErrNotConfigured
	}
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		prompt = domain.DefaultVisionPrompt
	}
	if utf8.RuneCountInString(prompt) > domain.MaxPromptLen {
		return nil, domain.ErrInvalidPrompt
	}

	image, mimeType, err := DecodeImage(imageBase64)
	if err != nil {
		return nil, err
	}
	if !s.limiter.Allow(userID) {
		return nil, domain.ErrRateLimited
	}
	return s.vision.Describe(ctx, image, mimeType, prompt)
}

func (s *AIService) VoiceSignedURL(ctx context.Context, userID, agentID string) (string, error) {
	if s.voice == nil || !s.voice.Configured() {
		return "", domain.ErrNotConfigured
	}
	agentID = strings.TrimSpace(agentID)
	if agentID == "" {
		agentID = s.defaultAgent
	}
	if agentID == "" {
		return "", domain.ErrMissingAgent
	}
	if !s.limiter.Allow(userID) {
		return "", domain.ErrRateLimited
	}
	return s.voice.SignedURL(ctx, agentID)
}

// DecodeImage accepts raw base64 or a data URL and sniffs the image type.
func DecodeImage(in string) ([]byte, string, error) {
	in = strings.TrimSpace(in)
	if strings.HasPrefix(in, "data:") {
		i := strings.Index(in, ",")
		if i < 0 || !strings.HasSuffix(in[:i], ";base64") {
			return nil, "", domain.ErrInvalidImage
		}
		in = in[i+1:]
	}
	if in == "" {
		return nil, "", domain.ErrInvalidImage
	}
	if base64.StdEncoding.DecodedLen(len(in)) > domain.MaxImageBytes+3 {
		return nil, "", domain.ErrImageTooLarge
	}

	image, err := decodeBase64(in)
	if err != nil {
		return nil, "", domain.ErrInvalidImage
	}
	if len(image) > domain.MaxImageBytes {
		return nil, "", domain.ErrImageTooLarge
	}

	mimeType := http.DetectContentType(image)
	if !strings.HasPrefix(mimeType, "image/") {
		return nil, "", domain.ErrInvalidImage
	}
	return image, mimeType, nil
}

// Browsers often send unpadded or URL-safe base64.
var imageEncodings = []*base64.Encoding{
	base64.StdEncoding,
	base64.RawStdEncoding,
	base64.URLEncoding,
	base64.RawURLEncoding,
}

func decodeBase64(in string) ([]byte, error) {
	var err error
	for _, enc := range imageEncodings {
		var out []byte
		if out, err = enc.DecodeString(in); err == nil {
			return out, nil
		}
	}
	return nil, err
}
