package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWrapAndIsCode(t *testing.T) {
	base := errors.New("boom")
	err := fmt.Errorf("outer: %w", Wrap(CodeUpstreamError, "gbif request failed", base))

	require.True(t, IsCode(err, CodeUpstreamError))
	require.False(t, IsCode(err, CodeNotFound))
	require.ErrorIs(t, err, base)
	require.Equal(t, CodeUpstreamError, CodeOf(err))
	require.Equal(t, "outer: gbif request failed: boom", err.Error())
}

func TestWrapNil(t *testing.T) {
	err := Wrap(CodeNotFound, "usage key not found", nil)
	require.Equal(t, "usage key not found", err.Error())
	require.Equal(t, "", CodeOf(errors.New("plain")))
}
