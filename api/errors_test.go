package api_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/momentics/hioload-exec/api"
)

func TestError_UnwrapAndCode(t *testing.T) {
	err := api.NewError(api.ErrCodeInvalidArgument, "bad input").WithContext("field", "n")
	assert.ErrorIs(t, err, api.ErrInvalidArgument)
	assert.Contains(t, err.Error(), "field")
	assert.Equal(t, api.ErrCodeInvalidArgument, api.CodeOf(err))

	cause := errors.New("disk full")
	wrapped := api.Wrap(api.ErrCodeResourceExhausted, "save", cause)
	assert.ErrorIs(t, wrapped, cause)
	assert.Equal(t, "save: disk full", wrapped.Error())

	assert.Equal(t, api.ErrCodeOK, api.CodeOf(nil))
	assert.Equal(t, api.ErrCodeInternal, api.CodeOf(cause))
	assert.Equal(t, "shutdown", api.ErrCodeShutdown.String())
}

func TestError_WrapKeepsSentinel(t *testing.T) {
	err := api.Wrap(api.ErrCodeShutdown, "submit", errors.New("closed"))
	assert.ErrorIs(t, err, api.ErrShutdown)
}
