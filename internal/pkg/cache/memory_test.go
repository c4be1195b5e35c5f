package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryGetSetDelete(t *testing.T) {
	ctx := context.Background()
	c := NewMemory("payment")

	key := c.GenerateKey("charge", "abc")
	assert.Equal(t, "payment:charge:abc", key)

	got, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, c.Set(ctx, key, []byte(`{"ok":true}`), 0))
	got, err = c.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, got)

	require.NoError(t, c.Delete(ctx, key))
	got, err = c.Get(ctx, key)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewMemory("storefront")
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "k", 42, time.Minute))
	got, _ := c.Get(ctx, "k")
	assert.Equal(t, "42", got)

	now = now.Add(time.Minute)
	got, _ = c.Get(ctx, "k")
	assert.Empty(t, got)
}
