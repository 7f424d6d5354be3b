package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medpal/assist-api/internal/config"
	"github.com/medpal/assist-api/pkg/logger"
)

func TestDetectAvailability(t *testing.T) {
	log := logger.NewLogger(nil)

	d := Detect(config.PushoverConfig{Enabled: false}, log)
	assert.Equal(t, PermissionDenied, d.Availability())

	d = Detect(config.PushoverConfig{Enabled: true}, log)
	assert.Equal(t, Unavailable, d.Availability())

	d = Detect(config.PushoverConfig{Enabled: true, APIToken: "app-token"}, log)
	assert.Equal(t, Available, d.Availability())
}

func TestPushFallsBackToAlert(t *testing.T) {
	log := logger.NewLogger(nil)
	msg := Message{Title: "Medicine Reminder", Body: "Time to take your Aspirin"}

	// Denied and unavailable channels alert instead of failing.
	d := Detect(config.PushoverConfig{Enabled: false}, log)
	require.NoError(t, d.Push(context.Background(), "device-token", msg))

	d = Detect(config.PushoverConfig{Enabled: true}, log)
	require.NoError(t, d.Push(context.Background(), "device-token", msg))

	// Available but the recipient has no device token.
	d = Detect(config.PushoverConfig{Enabled: true, APIToken: "app-token"}, log)
	require.NoError(t, d.Push(context.Background(), "", msg))
}

func TestAvailabilityString(t *testing.T) {
	assert.Equal(t, "available", Available.String())
	assert.Equal(t, "unavailable", Unavailable.String())
	assert.Equal(t, "permission_denied", PermissionDenied.String())
}
