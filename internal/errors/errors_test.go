package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorFormatting(t *testing.T) {
	err := NewRemoteAPIError("failed to list releases", errors.New("connection refused"))
	assert.Equal(t, "REMOTE_API: failed to list releases (connection refused)", err.Error())

	err = NewNotFoundError("report")
	assert.Equal(t, "NOT_FOUND: report not found", err.Error())
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := NewIOError("failed to write report", cause)
	assert.ErrorIs(t, err, cause)
}

func TestConfigErrorNamesField(t *testing.T) {
	err := NewConfigError("github_token", "is required")
	assert.Equal(t, ErrCodeConfig, err.Code)
	assert.Contains(t, err.Message, "github_token")
}

func TestCodePredicates(t *testing.T) {
	assert.True(t, IsRemoteAPI(NewRemoteAPIError("m", nil)))
	assert.False(t, IsRemoteAPI(NewGenerationError("m", nil)))

	assert.True(t, IsGeneration(NewGenerationError("m", nil)))
	assert.True(t, IsNotFound(NewNotFoundError("thing")))

	assert.False(t, IsNotFound(errors.New("plain")))
	assert.False(t, IsNotFound(fmt.Errorf("wrapped: %w", NewNotFoundError("thing"))),
		"predicates match the top-level error only")
}
