package services

import (
	"context"
	"testing"

	"gymdash/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTestEmailService_IsEnabled(t *testing.T) {
	service := NewTestEmailService(&config.Config{}, createTestLogger())

	// Test email service should always be enabled
	assert.True(t, service.IsEnabled())
}

func TestTestEmailService_SendEmail(t *testing.T) {
	service := NewTestEmailService(&config.Config{}, createTestLogger())

	err := service.SendEmail(context.Background(), "staff@gymdash.example", "New request", "request_created", map[string]interface{}{
		"Title": "Sauna booking",
	})
	require.NoError(t, err)

	sent := service.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "staff@gymdash.example", sent[0].To)
	assert.Equal(t, "request_created", sent[0].Template)
	assert.Contains(t, sent[0].Body, "Sauna booking")
}

func TestTestEmailService_UnknownTemplate(t *testing.T) {
	service := NewTestEmailService(&config.Config{}, createTestLogger())

	err := service.SendEmail(context.Background(), "a@b.example", "s", "nope", nil)
	assert.Error(t, err)
	assert.Empty(t, service.Sent())
}
