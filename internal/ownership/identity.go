package ownership

import (
	"context"
	"log/slog"
	"sync"

	"github.com/jrh3k5/tokenpage/internal/ens"
)

// Identity resolves a human-readable name for the effective owner in the background.
// Only the most recently requested address may update it.
type Identity struct {
	resolver ens.Resolver

	mu       sync.Mutex
	address  string
	resolved bool
	name     string
	settled  chan struct{}
}

func NewIdentity(resolver ens.Resolver) *Identity {
	settled := make(chan struct{})
	close(settled)

	return &Identity{resolver: resolver, settled: settled}
}

// Lookup starts resolving address if it differs from the current one. The returned
// channel is closed once the lookup for address has settled.
func (i *Identity) Lookup(ctx context.Context, address string) <-chan struct{} {
	i.mu.Lock()
	defer i.mu.Unlock()

	if address == i.address {
		return i.settled
	}

	i.address = address
	i.resolved = false
	i.name = ""
	settled := make(chan struct{})
	i.settled = settled

	if address == "" || i.resolver == nil {
		i.resolved = address != ""
		close(settled)

		return settled
	}

	go i.resolve(ctx, address, settled)

	return settled
}

func (i *Identity) resolve(ctx context.Context, address string, settled chan struct{}) {
	defer close(settled)

	var name string
	resolution, err := i.resolver.Resolve(ctx, address)
	switch {
	case err != nil:
		slog.DebugContext(ctx, "Owner name resolution failed; showing the address", "address", address, "error", err)
	case resolution != nil:
		name = resolution.Name
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	if i.address != address {
		// superseded by a newer lookup
		return
	}

	i.resolved = true
	i.name = name
}

// Display returns the owner label: blank before the view is mounted or while the name is
// unresolved, then the resolved name, else the shortened address.
func (i *Identity) Display(mounted bool) string {
	i.mu.Lock()
	defer i.mu.Unlock()

	if !mounted || i.address == "" || !i.resolved {
		return ""
	}

	if i.name != "" {
		return i.name
	}

	return ShortAddress(i.address)
}
