package service

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyhaven/studyhaven-backend/internal/ai/domain"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type fakeVision struct {
	prompt string
	mime   string
}

func (f *fakeVision) Configured() bool { return true }

func (f *fakeVision) Describe(_ context.Context, _ []byte, mimeType, prompt string) (*domain.VisionResult, error) {
	f.prompt, f.mime = prompt, mimeType
	return &domain.VisionResult{Result: "ok", Model: "m"}, nil
}

type fakeVoice struct {
	agent string
}

func (f *fakeVoice) Configured() bool { return true }

func (f *fakeVoice) SignedURL(_ context.Context, agentID string) (string, error) {
	f.agent = agentID
	return "wss://signed", nil
}

func TestDecodeImage(t *testing.T) {
	raw := base64.StdEncoding.EncodeToString(pngHeader)

	img, mime, err := DecodeImage(raw)
	require.NoError(t, err)
	assert.Equal(t, "image/png", mime)
	assert.Equal(t, pngHeader, img)

	_, mime, err = DecodeImage("data:image/png;base64," + raw)
	require.NoError(t, err)
	assert.Equal(t, "image/png", mime)

	_, _, err = DecodeImage("data:image/png," + raw)
	assert.ErrorIs(t, err, domain.ErrInvalidImage)

	_, _, err = DecodeImage("!!not base64!!")
	assert.ErrorIs(t, err, domain.ErrInvalidImage)

	_, _, err = DecodeImage(base64.StdEncoding.EncodeToString([]byte("plain text")))
	assert.ErrorIs(t, err, domain.ErrInvalidImage)

	big := base64.StdEncoding.EncodeToString(make([]byte, domain.MaxImageBytes+10))
	_, _, err = DecodeImage(big)
	assert.ErrorIs(t, err, domain.ErrImageTooLarge)
}

func TestDecodeImage_UnpaddedAndURLSafe(t *testing.T) {
	// the trailing bytes force '_' in the URL alphabet and a padded last quantum
	payload := append(append([]byte{}, pngHeader...), 0xfb, 0xff, 0xfe)

	for name, enc := range map[string]*base64.Encoding{
		"raw std": base64.RawStdEncoding,
		"url":     base64.URLEncoding,
		"raw url": base64.RawURLEncoding,
	} {
		img, mime, err := DecodeImage(enc.EncodeToString(payload))
		require.NoError(t, err, name)
		assert.Equal(t, "image/png", mime, name)
		assert.Equal(t, payload, img, name)
	}
}

func TestVision_DefaultsPromptAndLimits(t *testing.T) {
	vision := &fakeVision{}
	limiter := NewUserLimiter(10)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }
	svc := NewAIService(vision, nil, "", limiter)
	img := base64.StdEncoding.EncodeToString(pngHeader)

	for i := 0; i < 3; i++ {
		_, err := svc.Vision(context.Background(), "uid-1", img, "")
		require.NoError(t, err)
	}
	assert.Equal(t, domain.DefaultVisionPrompt, vision.prompt)
	assert.Equal(t, "image/png", vision.mime)

	_, err := svc.Vision(context.Background(), "uid-1", img, "")
	assert.ErrorIs(t, err, domain.ErrRateLimited)

	// another user has their own bucket
	_, err = svc.Vision(context.Background(), "uid-2", img, "")
	assert.NoError(t, err)

	now = now.Add(6 * time.Second)
	_, err = svc.Vision(context.Background(), "uid-1", img, "what?")
	assert.NoError(t, err)
	assert.Equal(t, "what?", vision.prompt)

	_, err = svc.Vision(context.Background(), "uid-1", img, strings.Repeat("a", domain.MaxPromptLen+1))
	assert.ErrorIs(t, err, domain.ErrInvalidPrompt)
}

func TestVision_NotConfigured(t *testing.T) {
	svc := NewAIService(nil, nil, "", NewUserLimiter(0))
	_, err := svc.Vision(context.Background(), "uid-1", "x", "")
	assert.ErrorIs(t, err, domain.ErrNotConfigured)

	_, err = svc.VoiceSignedURL(context.Background(), "uid-1", "a")
	assert.ErrorIs(t, err, domain.ErrNotConfigured)
}

func TestVoiceSignedURL_DefaultAgent(t *testing.T) {
	voice := &fakeVoice{}
	svc := NewAIService(nil, voice, "agent-default", NewUserLimiter(0))

	u, err := svc.VoiceSignedURL(context.Background(), "uid-1", "")
	require.NoError(t, err)
	assert.Equal(t, "wss://signed", u)
	assert.Equal(t, "agent-default", voice.agent)

	_, err = NewAIService(nil, voice, "", nil).VoiceSignedURL(context.Background(), "uid-1", " ")
	assert.ErrorIs(t, err, domain.ErrMissingAgent)
}
