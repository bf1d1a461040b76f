package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemory_GetDel(t *testing.T) {
	ctx := context.Background()
	c := NewMemory("t")

	require.NoError(t, c.Set(ctx, "k", "v", time.Minute))

	v, err := c.GetDel(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "v", v)

	// Consumido: una segunda lectura no lo encuentra.
	_, err = c.GetDel(ctx, "k")
	require.True(t, errors.Is(err, ErrNotFound))

	ok, err := c.Exists(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMemory_GetDel_SingleWinner(t *testing.T) {
	ctx := context.Background()
	c := NewMemory("t")

	require.NoError(t, c.Set(ctx, "k", "v", time.Minute))

	const readers = 32
	gate := make(chan struct{})
	results := make(chan error, readers)
	for i := 0; i < readers; i++ {
		go func() {
			<-gate
			_, err := c.GetDel(ctx, "k")
			results <- err
		}()
	}
	close(gate)

	wins := 0
	for i := 0; i < readers; i++ {
		err := <-results
		if err == nil {
			wins++
			continue
		}
		require.True(t, errors.Is(err, ErrNotFound))
	}
	require.Equal(t, 1, wins)
}
