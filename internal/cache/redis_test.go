package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExplanationKey(t *testing.T) {
	assert.Equal(t, "explain:2024-03-09T08:30:00Z:50", ExplanationKey("2024-03-09T08:30:00Z", 50))
}

func TestNewRedisClientRejectsBadURL(t *testing.T) {
	_, err := NewRedisClient(context.Background(), "not-a-redis-url")
	assert.ErrorContains(t, err, "failed to parse Redis URL")
}
