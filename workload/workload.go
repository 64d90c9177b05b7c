// Package workload sizes the configured datasets against a cluster's memory
// and pairs them with the scheduler settings being compared.
package workload

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/twitter/saturation/array/shape"
	"github.com/twitter/saturation/cloud/cluster"
	"github.com/twitter/saturation/common"
	"github.com/twitter/saturation/common/bytesize"
	saterrors "github.com/twitter/saturation/common/errors"
	"github.com/twitter/saturation/common/stats"
	"github.com/twitter/saturation/config"
	"github.com/twitter/saturation/dataset/timeseries"
)

// MakeFetcher returns the Fetcher described by c.
func MakeFetcher(c config.ClusterConfig) (cluster.Fetcher, error) {
	switch c.Type {
	case "static":
		mem, err := bytesize.Parse(c.MemoryPerWorker)
		if err != nil {
			return nil, err
		}
		return cluster.MakeStaticFetcher(cluster.NewIdNodes(c.Workers, mem, c.ThreadsPerWorker)), nil
	case "http":
		timeout := c.Timeout
		if timeout <= 0 {
			timeout = common.DefaultClientTimeout
		}
		return cluster.MakeHTTPFetcher(c.Addr, timeout), nil
	default:
		return nil, saterrors.NewError(fmt.Errorf("unknown cluster type %q", c.Type), saterrors.ConfigFailureExitCode)
	}
}

type Builder struct {
	stat stats.StatsReceiver
	ts   *timeseries.Generator
}

func NewBuilder(stat stats.StatsReceiver) *Builder {
	if stat == nil {
		stat = stats.NilStatsReceiver()
	}
	return &Builder{stat: stat, ts: timeseries.NewGenerator(stat)}
}

// Build sizes every workload of cfg against the memory reported by f.
func Build(ctx context.Context, cfg *config.ServiceConfig, f cluster.Fetcher) (*Plan, error) {
	return NewBuilder(nil).Build(ctx, cfg, f)
}

// Build resolves cluster memory once, waiting for workers first when the
// configuration asks for it, then sizes each workload in order. The first
// workload that cannot be sized fails the whole plan.
func (b *Builder) Build(ctx context.Context, cfg *config.ServiceConfig, f cluster.Fetcher) (*Plan, error) {
	defer b.stat.Latency(stats.PlanBuildLatency_ms).Time().Stop()

	arms, err := makeArms(cfg.Scheduler)
	if err != nil {
		return nil, saterrors.NewError(err, saterrors.ConfigFailureExitCode)
	}

	mem := cluster.NewMemory(f, b.stat)
	var nodes []cluster.Node
	if cfg.Cluster.WaitForWorkers > 0 {
		nodes, err = mem.WaitForWorkers(ctx, cfg.Cluster.WaitForWorkers,
			cluster.DefaultWaitBackOff(common.DefaultWaitForWorkersTimeout))
	} else {
		nodes, err = mem.Nodes(ctx)
	}
	if err != nil {
		return nil, saterrors.NewError(errors.Wrap(err, "fetching cluster workers"), saterrors.ClusterFetchFailureExitCode)
	}
	total := cluster.Sum(nodes)
	b.stat.Gauge(stats.ClusterMemoryBytesGauge).Update(total.Int64())
	if total <= 0 {
		return nil, saterrors.NewError(fmt.Errorf("cluster reports no memory across %d workers", len(nodes)), saterrors.ClusterFetchFailureExitCode)
	}

	plan := &Plan{
		Created: time.Now().UTC(),
		Memory:  total,
		Workers: len(nodes),
		Arms:    arms,
	}
	for _, w := range cfg.Workloads {
		r, err := b.size(w, total)
		if err != nil {
			return nil, errors.Wrapf(err, "workload %s", w.Name)
		}
		b.stat.Counter(stats.PlanWorkloadsCounter).Inc(1)
		plan.Results = append(plan.Results, r)
	}
	log.WithFields(log.Fields{
		"memory":    total.String(),
		"workers":   len(nodes),
		"workloads": len(plan.Results),
	}).Info("built plan")
	return plan, nil
}

// Target is the absolute size of w on a cluster with total memory.
func Target(w config.WorkloadConfig, total bytesize.ByteSize) (bytesize.ByteSize, error) {
	if w.Target != "" {
		return bytesize.Parse(w.Target)
	}
	if w.MemoryFraction <= 0 {
		return 0, fmt.Errorf("memory_fraction must be positive, got %v", w.MemoryFraction)
	}
	return bytesize.ByteSize(math.RoundToEven(w.MemoryFraction * total.Float64())), nil
}

func (b *Builder) size(w config.WorkloadConfig, total bytesize.ByteSize) (Result, error) {
	target, err := Target(w, total)
	if err != nil {
		return Result{}, err
	}
	r := Result{Name: w.Name, Kind: w.Kind, Target: target}

	switch w.Kind {
	case config.TimeseriesKind:
		p, err := w.Timeseries.Params()
		if err != nil {
			return r, err
		}
		d, err := b.ts.OfSize(target, p)
		if err != nil {
			return r, err
		}
		r.Timeseries = &TimeseriesResult{
			Start:          d.Start,
			End:            d.End,
			Freq:           d.Freq.String(),
			PartitionFreq:  d.PartitionFreq.String(),
			NPartitions:    d.NPartitions(),
			PartitionBytes: d.PartitionBytes,
			Seed:           d.Seed,
		}
		r.Bytes = bytesize.ByteSize(d.EstimatedBytes())
		r.descriptor = d
	case config.ArrayKind:
		template, dtype, err := w.Array.Template()
		if err != nil {
			return r, err
		}
		s, err := shape.NewSolver(w.Array.MaxError, b.stat).Solve(target, template, dtype)
		if err != nil {
			return r, err
		}
		nbytes := s.NBytes(dtype)
		r.Array = &ArrayResult{
			Template: template.String(),
			DType:    dtype.Name,
			Shape:    s,
			RelError: float64(nbytes-target.Int64()) / float64(nbytes),
		}
		r.Bytes = bytesize.ByteSize(nbytes)
	default:
		return r, fmt.Errorf("unknown kind %q", w.Kind)
	}
	return r, nil
}
