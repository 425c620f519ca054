package docker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureNetworkCreatesOnce(t *testing.T) {
	engine := newFakeEngine()
	m := NewNetworkManager(engine, testNetwork, "172.28.0.0/16")

	require.NoError(t, m.Ensure(context.Background()))
	assert.True(t, m.Exists(context.Background()))

	// Second call reuses the existing network.
	require.NoError(t, m.Ensure(context.Background()))
	assert.Len(t, engine.networks, 1)
}

func TestRemoveNetworkIsIdempotent(t *testing.T) {
	engine := newFakeEngine()
	m := NewNetworkManager(engine, testNetwork, "172.28.0.0/16")

	require.NoError(t, m.Ensure(context.Background()))
	require.NoError(t, m.Remove(context.Background()))
	assert.False(t, m.Exists(context.Background()))

	// Removing a missing network is not an error.
	require.NoError(t, m.Remove(context.Background()))
}
