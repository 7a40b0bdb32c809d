package payment

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransferAccumulates(t *testing.T) {
	g := NewMemoryGateway()
	ctx := context.Background()

	require.NoError(t, g.Transfer(ctx, "alice", 5))
	require.NoError(t, g.Transfer(ctx, "alice", 7))
	require.NoError(t, g.Transfer(ctx, "bob", 3))

	assert.Equal(t, int64(12), g.BalanceOf("alice"))
	assert.Equal(t, int64(3), g.BalanceOf("bob"))
	assert.Equal(t, int64(0), g.BalanceOf("nobody"))
}

func TestTransferConcurrent(t *testing.T) {
	g := NewMemoryGateway()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, g.Transfer(ctx, "alice", 1))
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(100), g.BalanceOf("alice"))
}
