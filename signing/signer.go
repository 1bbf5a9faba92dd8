package signing

import (
	"context"

	"github.com/algorand/go-algorand-sdk/v2/types"
	"github.com/pkg/errors"
)

// ErrUnavailable means a backend is not configured or not reachable. It is a
// probing outcome, not a failure: callers decide the fallback policy.
var ErrUnavailable = errors.New("no signing backend available")

// ErrDeclined means a configured backend refused to sign. Unlike
// ErrUnavailable this is terminal and must be surfaced to the caller.
var ErrDeclined = errors.New("signing declined")

// Signer is the wallet signing capability implemented by interchangeable
// backends.
type Signer interface {
	Name() string
	Available() bool
	SignTransactions(ctx context.Context, txns []types.Transaction, indices []int) ([][]byte, error)
}

// Registry probes registered backends in priority order and hands out the
// first one that is available. It never retries on behalf of the caller.
type Registry struct {
	backends []Signer
}

func NewRegistry(backends ...Signer) *Registry {
	return &Registry{backends: backends}
}

// Probe returns the first available backend, or ErrUnavailable when none of
// the registered backends can sign right now.
func (r *Registry) Probe() (Signer, error) {
	if r == nil {
		return nil, ErrUnavailable
	}
	for _, backend := range r.backends {
		if backend.Available() {
			return backend, nil
		}
	}
	return nil, ErrUnavailable
}
