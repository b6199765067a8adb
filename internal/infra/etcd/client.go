// Package etcd provides the coordination adapters used when the dispatcher
// runs as more than one node: per-job assignment locks and leader election
// for the expiry sweep. Job and bid state itself stays in the job store.
package etcd

import (
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
)

// NewClient connects to the etcd cluster at the given endpoints.
func NewClient(endpoints []string, timeout time.Duration) (*clientv3.Client, error) {
	cli, err := clientv3.New(clientv3.Config{
		Endpoints:   endpoints,
		DialTimeout: timeout,
	})
	if err != nil {
		return nil, err
	}
	return cli, nil
}
