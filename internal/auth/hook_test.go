package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMustSucceed(t *testing.T) {
	var nilHook MustSucceed[string]
	require.NoError(t, nilHook.Run(context.Background(), "x"))

	boom := errors.New("boom")
	hook := MustSucceed[string](func(context.Context, string) error { return boom })
	require.ErrorIs(t, hook.Run(context.Background(), "x"), boom)
}

func TestBestEffort(t *testing.T) {
	var nilHook BestEffort[int]
	assert.NotPanics(t, func() { nilHook.Fire(context.Background(), "nil", 1) })

	calls := 0
	failing := BestEffort[int](func(context.Context, int) error {
		calls++

		return errors.New("boom")
	})
	assert.NotPanics(t, func() { failing.Fire(context.Background(), "failing", 1) })
	assert.Equal(t, 1, calls)

	panicking := BestEffort[int](func(context.Context, int) error { panic("boom") })
	assert.NotPanics(t, func() { panicking.Fire(context.Background(), "panicking", 1) })
}
