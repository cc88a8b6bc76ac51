package rate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNoLimiter(t *testing.T) {
	l := &NoLimiter{}
	for i := 0; i < 10000; i++ {
		assert.True(t, l.Allow(""))
	}
}

func TestLocalRateLimiter(t *testing.T) {
	l := NewLocalRateLimiter(2)

	for i := 0; i < 2; i++ {
		assert.True(t, l.Allow("a"))
	}
	assert.False(t, l.Allow("a"))

	// Keys are limited independently
	for i := 0; i < 2; i++ {
		assert.True(t, l.Allow("b"))
	}
	assert.False(t, l.Allow("b"))
}

func TestLocalRateLimiter_Disabled(t *testing.T) {
	l := NewLocalRateLimiter(0)
	assert.IsType(t, &NoLimiter{}, l)
	for i := 0; i < 100; i++ {
		assert.True(t, l.Allow("a"))
	}
}
