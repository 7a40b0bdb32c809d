package payment

import (
	"context"
	"sync"
)

// MemoryGateway is an in-process payment channel keeping per-identity account
// balances. It stands in for the host's native transfer primitive in
// development and tests; production deployments plug a real settlement
// backend into the same port.
type MemoryGateway struct {
	mu       sync.Mutex
	accounts map[string]int64
}

func NewMemoryGateway() *MemoryGateway {
	return &MemoryGateway{accounts: make(map[string]int64)}
}

func (g *MemoryGateway) Transfer(ctx context.Context, to string, amount int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.accounts[to] += amount
	return nil
}

// BalanceOf reports the amount transferred to an identity so far.
func (g *MemoryGateway) BalanceOf(identity string) int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.accounts[identity]
}
