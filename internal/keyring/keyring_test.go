package keyring

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew_RequiresKeys(t *testing.T) {
	t.Parallel()
	_, err := New(nil)
	require.Error(t, err)
}

func TestRing_RotateCircular(t *testing.T) {
	t.Parallel()
	ring, err := New([]string{"a", "b", "c"})
	require.NoError(t, err)

	require.Equal(t, "a", ring.Current())
	require.False(t, ring.Rotate())
	require.Equal(t, "b", ring.Current())
	require.False(t, ring.Rotate())
	require.Equal(t, "c", ring.Current())
	require.True(t, ring.Rotate())
	require.Equal(t, "a", ring.Current())
}

func TestRing_SingleKeyCyclesImmediately(t *testing.T) {
	t.Parallel()
	ring, err := New([]string{"only"})
	require.NoError(t, err)

	require.True(t, ring.Rotate())
	require.Equal(t, "only", ring.Current())
}

func TestRing_ResetClearsCycleTracking(t *testing.T) {
	t.Parallel()
	ring, err := New([]string{"a", "b"})
	require.NoError(t, err)

	require.False(t, ring.Rotate())
	ring.Reset()
	require.False(t, ring.Rotate())
	require.True(t, ring.Rotate())
}
