package nexplock

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIOErrorMessageAndUnwrap(t *testing.T) {
	base := errors.New("permission denied")

	withPath := &IOError{Phase: "read", Path: "/tmp/file.bin", Err: base}
	require.Equal(t, "io error during read on /tmp/file.bin: permission denied", withPath.Error())
	require.Equal(t, base, withPath.Unwrap())

	noPath := &IOError{Phase: "header", Err: base}
	require.Equal(t, "io error during header: permission denied", noPath.Error())
}

func TestIoDurabilityErrorMessageAndUnwrap(t *testing.T) {
	base := errors.New("input/output error")
	err := NewIoDurabilityError("fsync", "/tmp/file.bin", base)

	require.Equal(t, "durable flush failed (fsync) on /tmp/file.bin: input/output error", err.Error())
	require.ErrorIs(t, err, base)
	require.True(t, IsIoDurabilityError(err))
}

func TestValidationErrorUnwrapsToSentinel(t *testing.T) {
	err := NewValidationError("sourcePath", "bad", "has no valid root")
	require.ErrorIs(t, err, ErrInvalidRequest)
	require.True(t, IsValidationError(err))
	require.Contains(t, err.Error(), "sourcePath")
}

func TestAuthenticationErrorMessageVariants(t *testing.T) {
	withChunk := NewAuthenticationError("/tmp/a.enc", 3)
	require.Equal(t, "authentication failed: /tmp/a.enc (chunk 3)", withChunk.Error())

	wck := NewAuthenticationError("wrapped-content-key", -1)
	require.Equal(t, "authentication failed: wrapped-content-key", wck.Error())
	require.ErrorIs(t, wck, ErrAuthFailed)
}

func TestErrorCheckers(t *testing.T) {
	generic := errors.New("generic")

	require.True(t, IsIOError(&IOError{Phase: "read", Err: generic}))
	require.False(t, IsIOError(generic))

	require.True(t, IsIoDurabilityError(NewIoDurabilityError("fsync", "/p", generic)))
	require.False(t, IsIoDurabilityError(generic))

	require.True(t, IsValidationError(NewValidationError("f", nil, "m")))
	require.False(t, IsValidationError(generic))

	require.True(t, IsAuthenticationError(NewAuthenticationError("/p", -1)))
	require.False(t, IsAuthenticationError(generic))
}
