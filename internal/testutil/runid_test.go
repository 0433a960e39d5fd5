package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFixedRunIDGenerator_ReturnsSameID(t *testing.T) {
	gen := NewFixedRunIDGenerator("test-run-123")

	assert.Equal(t, "test-run-123", gen.Generate())
	assert.Equal(t, "test-run-123", gen.Generate())
	assert.Equal(t, "test-run-123", gen.Generate())
}

func TestFixedRunIDGenerator_EmptyIDDefault(t *testing.T) {
	gen := NewFixedRunIDGenerator("")

	assert.Equal(t, "test-run-default", gen.Generate())
}

func TestFixedRunIDGenerator_ConcurrentAccess(t *testing.T) {
	gen := NewFixedRunIDGenerator("shared")

	done := make(chan string, 10)
	for i := 0; i < 10; i++ {
		go func() {
			done <- gen.Generate()
		}()
	}
	for i := 0; i < 10; i++ {
		assert.Equal(t, "shared", <-done)
	}
}
