package logging

import (
	"bytes"
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestFromContext_CarriesRequestAndUser(t *testing.T) {
	ctx := WithUserID(WithRequestID(context.Background(), "rid-1"), "uid-1")

	entry := FromContext(ctx)
	assert.Equal(t, "rid-1", entry.Data["request_id"])
	assert.Equal(t, "uid-1", entry.Data["user_id"])
	assert.Equal(t, "rid-1", RequestID(ctx))
}

func TestFromContext_Empty(t *testing.T) {
	entry := FromContext(context.Background())
	assert.Empty(t, entry.Data)
	assert.Equal(t, "", RequestID(context.Background()))
}

func TestLogger_WritesOperation(t *testing.T) {
	var buf bytes.Buffer
	logrus.SetOutput(&buf)
	logrus.SetFormatter(&logrus.JSONFormatter{})
	t.Cleanup(func() { Setup("info", "development") })

	NewLogger(WithRequestID(context.Background(), "rid-2")).LogWarnf("vision", "upstream returned status %d", 429)

	out := buf.String()
	assert.Contains(t, out, `"operation":"vision"`)
	assert.Contains(t, out, `"request_id":"rid-2"`)
	assert.Contains(t, out, "upstream returned status 429")
}

func TestSetup_InvalidLevelFallsBackToInfo(t *testing.T) {
	Setup("loud", "development")
	assert.Equal(t, logrus.InfoLevel, logrus.GetLevel())

	Setup("debug", "production")
	assert.Equal(t, logrus.DebugLevel, logrus.GetLevel())
	Setup("info", "development")
}
