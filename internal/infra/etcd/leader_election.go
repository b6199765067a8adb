package etcd

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"gig-dispatch/internal/domain"

	clientv3 "go.etcd.io/etcd/client/v3"
	"go.etcd.io/etcd/client/v3/concurrency"
)

// leaderElectionKey is the election prefix for the expiry-sweep leader.
const leaderElectionKey = "/dispatch/leader"

type leaderElectionManager struct {
	client   *clientv3.Client
	session  *concurrency.Session
	election *concurrency.Election
	isLeader bool
	mu       sync.RWMutex
	nodeID   string
	ttl      time.Duration
	logger   *slog.Logger
}

// NewLeaderElectionManager creates a manager that elects one dispatcher
// node to run singleton background work.
func NewLeaderElectionManager(client *clientv3.Client, nodeID string, ttl time.Duration, logger *slog.Logger) domain.LeaderElectionManager {
	return &leaderElectionManager{
		client: client,
		nodeID: nodeID,
		ttl:    ttl,
		logger: logger.With("component", "leader-election"),
	}
}

// Campaign blocks until this node becomes the leader or ctx is canceled.
// The returned channel closes when the session expires and leadership is
// lost.
func (m *leaderElectionManager) Campaign(ctx context.Context) (<-chan struct{}, error) {
	var err error
	m.session, err = concurrency.NewSession(m.client, concurrency.WithTTL(int(m.ttl.Seconds())))
	if err != nil {
		return nil, err
	}

	m.election = concurrency.NewElection(m.session, leaderElectionKey)

	if err := m.election.Campaign(ctx, m.nodeID); err != nil {
		return nil, err
	}

	m.logger.Info("became the expiry-sweep leader", "node_id", m.nodeID)
	m.mu.Lock()
	m.isLeader = true
	m.mu.Unlock()

	return m.session.Done(), nil
}

func (m *leaderElectionManager) Resign(ctx context.Context) error {
	m.mu.Lock()
	m.isLeader = false
	m.mu.Unlock()

	if m.election != nil {
		m.logger.Info("resigning leadership", "node_id", m.nodeID)
		return m.election.Resign(ctx)
	}
	return nil
}

func (m *leaderElectionManager) IsLeader() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.isLeader
}
