package chat

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryPresenceTransitions(t *testing.T) {
	p := NewMemoryPresence()
	ctx := context.Background()

	first, err := p.Add(ctx, "u1", "conn-a")
	require.NoError(t, err)
	assert.True(t, first, "first connection must report the online transition")

	first, err = p.Add(ctx, "u1", "conn-b")
	require.NoError(t, err)
	assert.False(t, first, "second connection must not re-announce")

	online, err := p.Lookup(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, online)

	last, err := p.Remove(ctx, "u1", "conn-a")
	require.NoError(t, err)
	assert.False(t, last, "one connection still open")

	last, err = p.Remove(ctx, "u1", "conn-b")
	require.NoError(t, err)
	assert.True(t, last, "closing the final connection reports offline")

	online, err = p.Lookup(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, online)
}

func TestMemoryPresenceSnapshot(t *testing.T) {
	p := NewMemoryPresence()
	ctx := context.Background()

	_, err := p.Add(ctx, "u1", "c1")
	require.NoError(t, err)
	_, err = p.Add(ctx, "u2", "c2")
	require.NoError(t, err)

	users, err := p.Snapshot(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"u1", "u2"}, users)
}

func TestMemoryPresenceRemoveUnknownIsNoop(t *testing.T) {
	p := NewMemoryPresence()

	last, err := p.Remove(context.Background(), "ghost", "c1")
	require.NoError(t, err)
	assert.False(t, last)
}
