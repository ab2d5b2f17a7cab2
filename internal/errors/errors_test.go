package errors

import (
	stderrs "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapKeepsInnermostCode(t *testing.T) {
	inner := New(CodeResourceNotFound, "pool /Common/p1 not found")
	outer := Wrap(fmt.Errorf("reading: %w", inner), CodeTransport, "read failed")

	require.NotNil(t, outer)
	assert.Equal(t, CodeResourceNotFound, outer.Code)
	assert.True(t, IsNotFound(outer))
	assert.False(t, IsTransport(outer))
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, CodeInternal, "nothing"))
	assert.Nil(t, WrapUserFacing(nil, CodeInternal, "nothing", ""))
}

func TestWrapPlainError(t *testing.T) {
	base := stderrs.New("connection refused")
	err := Wrap(base, CodeTransport, "appliance unreachable")

	assert.True(t, IsTransport(err))
	assert.ErrorIs(t, err, base)
	assert.Equal(t, "[TRANSPORT_ERROR] appliance unreachable: connection refused", err.Error())
}

func TestWrapUserFacingPreservesCode(t *testing.T) {
	inner := New(CodeValidation, "snat_pool is required")
	err := WrapUserFacing(inner, CodeInternal, "invalid parameters for ltm_virtual", "Set snat_pool.")

	assert.Equal(t, CodeValidation, err.Code)
	assert.True(t, err.IsUserFacing)
	assert.Contains(t, err.InternalDetails, "snat_pool is required")
}

func TestGetUserFacingMessage(t *testing.T) {
	t.Run("nested user facing", func(t *testing.T) {
		uf := NewUserFacing(CodeConfiguration, "nothing to remove", "Specify host.")
		err := Wrap(uf, CodeInternal, "ignored")

		msg, suggestion, ok := GetUserFacingMessage(err)
		assert.True(t, ok)
		assert.Equal(t, "nothing to remove", msg)
		assert.Equal(t, "Specify host.", suggestion)
	})

	t.Run("no user facing error", func(t *testing.T) {
		msg, _, ok := GetUserFacingMessage(New(CodeInternal, "boom"))
		assert.False(t, ok)
		assert.Equal(t, "An unexpected error occurred.", msg)
	})
}

func TestCodeHelpers(t *testing.T) {
	assert.True(t, IsTransport(New(CodeTransportAuth, "401")))
	assert.True(t, IsValidation(Newf(CodeValidation, "field %q", "x")))
	assert.Equal(t, CodeUnknown, GetCode(stderrs.New("plain")))
}
