package domain

import "context"

// LeaderElectionManager elects one node to run singleton background work,
// such as the expiry sweep.
type LeaderElectionManager interface {
	// Campaign blocks until this node becomes the leader or ctx is
	// canceled. The returned channel is closed when leadership is lost.
	Campaign(ctx context.Context) (<-chan struct{}, error)
	Resign(ctx context.Context) error
	IsLeader() bool
}
