package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySessionStore(t *testing.T) {
	store := NewMemorySessionStore(time.Minute).(*memorySessionStore)
	now := time.Now()
	store.now = func() time.Time { return now }
	ctx := context.Background()

	session := newSession(line("Rice", "111", 50, 2, 100))
	session.MarkItemByScan("111")
	require.NoError(t, store.Save(ctx, session))

	loaded, err := store.Load(ctx, session.ID)
	require.NoError(t, err)
	assert.True(t, loaded.VerifiedItemKeys[session.Order.Items[0].Key()])
	assert.Equal(t, session.Order.ID, loaded.Order.ID)

	// Loaded copies are independent of the stored value.
	loaded.QuickVerifyAll()
	loaded.ExtraScans = append(loaded.ExtraScans, "x")
	again, err := store.Load(ctx, session.ID)
	require.NoError(t, err)
	assert.Empty(t, again.ExtraScans)

	now = now.Add(2 * time.Minute)
	_, err = store.Load(ctx, session.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestMemorySessionStoreDelete(t *testing.T) {
	store := NewMemorySessionStore(time.Minute)
	ctx := context.Background()
	session := newSession()
	require.NoError(t, store.Save(ctx, session))
	require.NoError(t, store.Delete(ctx, session.ID))

	_, err := store.Load(ctx, session.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
