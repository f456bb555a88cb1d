package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := New(CodeValidation, "section is required")
	require.Error(t, err)
	assert.Equal(t, "validation_error: section is required", err.Error())
	assert.True(t, HasCode(err, CodeValidation))
	assert.False(t, HasCode(err, CodeInternal))
}

func TestWrap(t *testing.T) {
	t.Run("nil cause returns nil", func(t *testing.T) {
		assert.NoError(t, Wrap(nil, CodeInternal, "should vanish"))
	})

	t.Run("preserves cause for errors.Is", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := Wrap(cause, CodeApplyFailed, "authoritative write failed")
		require.Error(t, err)
		assert.True(t, errors.Is(err, cause))
		assert.True(t, HasCode(err, CodeApplyFailed))
		assert.Contains(t, err.Error(), "connection refused")
	})

	t.Run("inner codes remain visible", func(t *testing.T) {
		inner := New(CodeNotFound, "profile missing")
		outer := Wrap(inner, CodeInternal, "read failed")
		assert.True(t, HasCode(outer, CodeNotFound))
		assert.True(t, HasCode(outer, CodeInternal))
	})
}

func TestErrorIs_MatchesConstructedTarget(t *testing.T) {
	err := New(CodeUnauthorized, "token has expired")

	assert.True(t, errors.Is(err, New(CodeUnauthorized, "token has expired")))
	assert.False(t, errors.Is(err, New(CodeUnauthorized, "invalid token")))
	assert.False(t, errors.Is(err, New(CodeForbidden, "token has expired")))

	// Empty-message target matches on code alone.
	assert.True(t, errors.Is(err, New(CodeUnauthorized, "")))

	// Matching survives fmt wrapping.
	wrapped := fmt.Errorf("middleware: %w", err)
	assert.True(t, errors.Is(wrapped, New(CodeUnauthorized, "token has expired")))
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeRollbackFailed, CodeOf(New(CodeRollbackFailed, "restore failed")))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("plain")))
	// Outermost code wins when codes are stacked.
	stacked := Wrap(New(CodeNotFound, "inner"), CodeInternal, "outer")
	assert.Equal(t, CodeInternal, CodeOf(stacked))
}

func TestCodeOf_WrappedWithFmt(t *testing.T) {
	err := fmt.Errorf("enqueue: %w", New(CodeRetriesExhausted, "retry budget spent"))
	assert.Equal(t, CodeRetriesExhausted, CodeOf(err))
	assert.True(t, Is(err, CodeRetriesExhausted))
}

func TestToHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeBadRequest:        http.StatusBadRequest,
		CodeValidation:        http.StatusBadRequest,
		CodeInvalidInput:      http.StatusBadRequest,
		CodeUnauthorized:      http.StatusUnauthorized,
		CodeForbidden:         http.StatusForbidden,
		CodeNotFound:          http.StatusNotFound,
		CodeConflict:          http.StatusConflict,
		CodeRetriesExhausted:  http.StatusConflict,
		CodeTimeout:           http.StatusGatewayTimeout,
		CodePropagationFailed: http.StatusBadGateway,
		CodeApplyFailed:       http.StatusInternalServerError,
		CodeRollbackFailed:    http.StatusInternalServerError,
		CodeInternal:          http.StatusInternalServerError,
		Code("never-seen"):    http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, ToHTTPStatus(code), "code %s", code)
	}
}
