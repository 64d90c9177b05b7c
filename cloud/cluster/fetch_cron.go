package cluster

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/twitter/saturation/common/bytesize"
)

// Snapshot is one periodic observation of the cluster.
type Snapshot struct {
	Time   time.Time
	Nodes  []Node
	Memory bytesize.ByteSize
}

type fetchCron struct {
	tickCh <-chan time.Time
	f      Fetcher
	outCh  chan Snapshot
}

// Given a Fetcher and a ticker channel, returns a channel over which a
// Snapshot is sent after every successful fetch. The channel is closed when
// ctx is done or tickCh is closed.
func MakeFetchCron(ctx context.Context, f Fetcher, tickCh <-chan time.Time) <-chan Snapshot {
	outCh := make(chan Snapshot)
	c := &fetchCron{
		tickCh: tickCh,
		f:      f,
		outCh:  outCh,
	}
	go c.loop(ctx)
	return outCh
}

func (c *fetchCron) loop(ctx context.Context) {
	defer close(c.outCh)
	for {
		select {
		case <-ctx.Done():
			return
		case t, ok := <-c.tickCh:
			if !ok {
				return
			}
			nodes, err := c.f.Fetch(ctx)
			if err != nil {
				log.Warnf("cluster fetch failed: %v", err)
				continue
			}
			select {
			case c.outCh <- Snapshot{Time: t, Nodes: nodes, Memory: Sum(nodes)}:
			case <-ctx.Done():
				return
			}
		}
	}
}
