package cli

import (
	"context"
	"fmt"
	"sort"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/twitter/saturation/cloud/cluster"
	"github.com/twitter/saturation/common"
	"github.com/twitter/saturation/common/bytesize"
	saterrors "github.com/twitter/saturation/common/errors"
)

type clusterMemoryCmd struct {
	addr         string
	timeout      time.Duration
	workers      int
	workerMemory string
	threads      int
	wait         int
	waitTimeout  time.Duration
	watch        time.Duration
	watchCount   int
	verbose      bool
}

func (c *clusterMemoryCmd) RegisterFlags() *cobra.Command {
	r := &cobra.Command{
		Use:   "cluster_memory",
		Short: "Sum the memory limits of a cluster's workers",
		Args:  cobra.NoArgs,
	}
	r.Flags().StringVar(&c.addr, "addr", "", "Scheduler dashboard address, e.g. localhost:8787")
	r.Flags().DurationVar(&c.timeout, "timeout", common.DefaultClientTimeout, "Per request timeout")
	r.Flags().IntVar(&c.workers, "workers", 0, "Describe a static cluster of this many workers instead of querying --addr")
	r.Flags().StringVar(&c.workerMemory, "worker_memory", "", "Memory limit of each static worker, e.g. 4gb")
	r.Flags().IntVar(&c.threads, "threads", 1, "Threads of each static worker")
	r.Flags().IntVar(&c.wait, "wait", 0, "Wait until the cluster reports at least this many workers")
	r.Flags().DurationVar(&c.waitTimeout, "wait_timeout", common.DefaultWaitForWorkersTimeout, "How long --wait may take")
	r.Flags().DurationVar(&c.watch, "watch", 0, "Report cluster memory at this interval instead of once")
	r.Flags().IntVar(&c.watchCount, "watch_count", 0, "Stop watching after this many reports (0 = forever)")
	r.Flags().BoolVar(&c.verbose, "verbose", false, "List every worker")
	return r
}

func (c *clusterMemoryCmd) fetcher() (cluster.Fetcher, error) {
	switch {
	case c.addr != "" && c.workers > 0:
		return nil, fmt.Errorf("use either --addr or --workers")
	case c.addr != "":
		return cluster.MakeHTTPFetcher(c.addr, c.timeout), nil
	case c.workers > 0:
		mem, err := bytesize.Parse(c.workerMemory)
		if err != nil {
			return nil, fmt.Errorf("--worker_memory: %v", err)
		}
		return cluster.MakeStaticFetcher(cluster.NewIdNodes(c.workers, mem, c.threads)), nil
	}
	return nil, fmt.Errorf("one of --addr or --workers is required")
}

func (c *clusterMemoryCmd) Run(cl *SimpleClient, cmd *cobra.Command, args []string) error {
	f, err := c.fetcher()
	if err != nil {
		return err
	}
	ctx := context.Background()
	mem := cluster.NewMemory(f, cl.Stat)

	var nodes []cluster.Node
	if c.wait > 0 {
		nodes, err = mem.WaitForWorkers(ctx, c.wait, cluster.DefaultWaitBackOff(c.waitTimeout))
	} else {
		nodes, err = mem.Nodes(ctx)
	}
	if err != nil {
		return saterrors.NewError(err, saterrors.ClusterFetchFailureExitCode)
	}
	c.report(cmd, cluster.Snapshot{Time: time.Now(), Nodes: nodes, Memory: cluster.Sum(nodes)})

	if c.watch <= 0 || c.watchCount == 1 {
		return nil
	}
	ticker := time.NewTicker(c.watch)
	defer ticker.Stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	reported := 1
	for snapshot := range cluster.MakeFetchCron(ctx, f, ticker.C) {
		c.report(cmd, snapshot)
		reported++
		if c.watchCount > 0 && reported >= c.watchCount {
			break
		}
	}
	return nil
}

func (c *clusterMemoryCmd) report(cmd *cobra.Command, s cluster.Snapshot) {
	out := cmd.OutOrStdout()
	log.Debugf("cluster snapshot at %s: %d workers", s.Time.Format(time.RFC3339), len(s.Nodes))
	fmt.Fprintf(out, "%d workers, %s (%d bytes)\n", len(s.Nodes), s.Memory, s.Memory)
	if c.verbose {
		nodes := append([]cluster.Node(nil), s.Nodes...)
		sort.Sort(cluster.NodeSorter(nodes))
		for _, n := range nodes {
			fmt.Fprintf(out, "  %s\n", n)
		}
	}
}
