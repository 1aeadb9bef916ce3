package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppErrorMatchesSentinel(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		sentinel error
		typ      ErrorType
	}{
		{"transport", NewTransportError("request failed", nil), ErrTransport, ErrTypeTransport},
		{"http status", NewHTTPStatusError("http://x", 503, "503 Service Unavailable"), ErrTransport, ErrTypeTransport},
		{"parse", NewParseError("no filters", nil), ErrParse, ErrTypeParse},
		{"format", NewFormatError("not excel", nil), ErrFormat, ErrTypeFormat},
		{"alignment", NewAlignmentError("no common keys"), ErrAlignment, ErrTypeAlignment},
		{"storage", NewStorageError("insert", nil), ErrStorage, ErrTypeStorage},
		{"validation", NewAppValidationError("bad id"), ErrValidation, ErrTypeValidation},
		{"not found", NewNotFoundError("indicator"), ErrNotFound, ErrTypeNotFound},
		{"config", NewConfigError("bad", nil), ErrConfig, ErrTypeConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, errors.Is(tt.err, tt.sentinel))
			assert.Equal(t, tt.typ, tt.err.Type)

			wrapped := fmt.Errorf("loading indicator 31548: %w", tt.err)
			assert.True(t, errors.Is(wrapped, tt.sentinel))
			assert.Equal(t, tt.typ, TypeOf(wrapped))
		})
	}
}

func TestAppErrorDoesNotMatchOtherSentinels(t *testing.T) {
	err := NewParseError("broken", nil)
	assert.False(t, errors.Is(err, ErrTransport))
	assert.False(t, errors.Is(err, ErrFormat))
	assert.False(t, errors.Is(err, ErrAlignment))
}

func TestAppErrorUnwrapsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewTransportError("failed to fetch config", cause)

	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "[TRANSPORT] failed to fetch config: connection refused", err.Error())
	assert.Equal(t, "[ALIGNMENT] no keys", NewAlignmentError("no keys").Error())
}

func TestWithContext(t *testing.T) {
	err := NewHTTPStatusError("https://www.fedstat.ru/indicator/1", 404, "404 Not Found")
	require.NotNil(t, err.Context)

	assert.Equal(t, 404, err.Context["status_code"])
	assert.Equal(t, "https://www.fedstat.ru/indicator/1", err.Context["url"])

	bare := &AppError{Type: ErrTypeParse, Message: "x"}
	bare.WithContext("k", "v")
	assert.Equal(t, "v", bare.Context["k"])
}

func TestTypeOfPlainError(t *testing.T) {
	assert.Equal(t, ErrorType(""), TypeOf(errors.New("plain")))
	assert.Equal(t, ErrorType(""), TypeOf(nil))
}
