package cluster

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff"
	log "github.com/sirupsen/logrus"

	"github.com/twitter/saturation/common/bytesize"
	"github.com/twitter/saturation/common/stats"
)

// Memory sums per-worker memory limits. It wraps a Fetcher so the same
// accessor can serve live and static clusters.
type Memory struct {
	f    Fetcher
	stat stats.StatsReceiver
}

func NewMemory(f Fetcher, stat stats.StatsReceiver) *Memory {
	if stat == nil {
		stat = stats.NilStatsReceiver()
	}
	return &Memory{f: f, stat: stat}
}

// TotalMemory is the cluster's total memory capacity: the sum of every
// worker's memory limit.
func TotalMemory(ctx context.Context, f Fetcher) (bytesize.ByteSize, error) {
	return NewMemory(f, nil).Total(ctx)
}

func (m *Memory) Total(ctx context.Context) (bytesize.ByteSize, error) {
	nodes, err := m.Nodes(ctx)
	if err != nil {
		return 0, err
	}
	total := Sum(nodes)
	m.stat.Gauge(stats.ClusterMemoryBytesGauge).Update(total.Int64())
	log.WithFields(log.Fields{
		"workers": len(nodes),
		"memory":  total.String(),
	}).Info("cluster memory")
	return total, nil
}

// Sum adds the memory limits of nodes.
func Sum(nodes []Node) bytesize.ByteSize {
	var total bytesize.ByteSize
	for _, n := range nodes {
		total += n.MemoryLimit
	}
	return total
}

// Nodes fetches the workers once, recording fetch latency and failures.
func (m *Memory) Nodes(ctx context.Context) ([]Node, error) {
	defer m.stat.Precision(time.Millisecond).Latency(stats.ClusterFetchLatency_ms).Time().Stop()
	nodes, err := m.f.Fetch(ctx)
	if err != nil {
		m.stat.Counter(stats.ClusterFetchErrCounter).Inc(1)
		return nil, err
	}
	m.stat.Gauge(stats.ClusterNumWorkersGauge).Update(int64(len(nodes)))
	return nodes, nil
}

// WaitForWorkers polls until the cluster reports at least n workers, backing
// off between attempts. It gives up when ctx is done or b stops.
func (m *Memory) WaitForWorkers(ctx context.Context, n int, b backoff.BackOff) ([]Node, error) {
	var nodes []Node
	try := 1
	err := backoff.Retry(func() error {
		log.Debugf("Waiting for %d workers, try #%d", n, try)
		try++
		var err error
		nodes, err = m.Nodes(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return err
		}
		if len(nodes) < n {
			return fmt.Errorf("cluster has %d of %d workers", len(nodes), n)
		}
		return nil
	}, backoff.WithContext(b, ctx))
	if err != nil {
		return nil, err
	}
	log.Infof("cluster has %d workers", len(nodes))
	return nodes, nil
}

// DefaultWaitBackOff retries with exponential backoff for up to maxElapsed.
func DefaultWaitBackOff(maxElapsed time.Duration) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 250 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = maxElapsed
	return b
}
