package workload

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twitter/saturation/cloud/cluster"
	"github.com/twitter/saturation/common/bytesize"
	saterrors "github.com/twitter/saturation/common/errors"
	"github.com/twitter/saturation/common/stats"
	"github.com/twitter/saturation/config"
	"github.com/twitter/saturation/dataset/timeseries"
)

type failingFetcher struct{}

func (failingFetcher) Fetch(ctx context.Context) ([]cluster.Node, error) {
	return nil, fmt.Errorf("connection refused")
}

func seed(s int64) *int64 { return &s }

func testConfig() *config.ServiceConfig {
	return &config.ServiceConfig{
		Cluster: config.ClusterConfig{
			Type:             "static",
			Workers:          2,
			MemoryPerWorker:  "64mb",
			ThreadsPerWorker: 1,
		},
		Scheduler: config.SchedulerConfig{WorkerSaturation: []string{"inf", "1.1"}},
		Workloads: []config.WorkloadConfig{
			{
				Name:   "frame",
				Kind:   config.TimeseriesKind,
				Target: "1mb",
				Timeseries: config.TimeseriesConfig{
					Freq:          "1min",
					PartitionFreq: "1h",
					Seed:          seed(42),
				},
			},
			{
				Name:           "square",
				Kind:           config.ArrayKind,
				MemoryFraction: 0.5,
				Array:          config.ArrayConfig{Shape: []string{"x", "x"}, DType: "float64"},
			},
		},
	}
}

func testFetcher(t *testing.T, cfg *config.ServiceConfig) cluster.Fetcher {
	f, err := MakeFetcher(cfg.Cluster)
	require.NoError(t, err)
	return f
}

func TestBuild(t *testing.T) {
	cfg := testConfig()
	stat := stats.DefaultStatsReceiver()
	plan, err := NewBuilder(stat).Build(context.Background(), cfg, testFetcher(t, cfg))
	require.NoError(t, err)

	assert.Equal(t, 128*bytesize.Megabyte, plan.Memory)
	assert.Equal(t, 2, plan.Workers)
	require.Len(t, plan.Results, 2)

	frame, ok := plan.Result("frame")
	require.True(t, ok)
	expected, err := timeseries.OfSize("1mb", timeseries.Params{Freq: "1min", PartitionFreq: "1h", Seed: seed(42)})
	require.NoError(t, err)
	assert.Equal(t, bytesize.Megabyte, frame.Target)
	assert.Equal(t, expected.NPartitions(), frame.Timeseries.NPartitions)
	assert.Equal(t, expected.End, frame.Timeseries.End)
	assert.Equal(t, expected.PartitionBytes, frame.Timeseries.PartitionBytes)
	assert.Equal(t, expected.NPartitions(), frame.Descriptor().NPartitions())
	assert.Nil(t, frame.Array)

	square, ok := plan.Result("square")
	require.True(t, ok)
	assert.Equal(t, 64*bytesize.Megabyte, square.Target)
	assert.Equal(t, "(2828, 2828)", square.Array.Shape.String())
	assert.Equal(t, bytesize.ByteSize(2828*2828*8), square.Bytes)
	assert.InDelta(t, -0.000302, square.Array.RelError, 1e-6)
	assert.Nil(t, square.Descriptor())

	assert.Equal(t, []string{
		"DASK_DISTRIBUTED__SCHEDULER__WORKER_SATURATION=inf",
		"DASK_DISTRIBUTED__SCHEDULER__WORKER_SATURATION=1.1",
	}, plan.SchedulerEnv())
	assert.Equal(t, "baseline", plan.Arms[0].Name)
	assert.Equal(t, "tuned", plan.Arms[1].Name)

	assert.Equal(t, int64(2), stat.Counter(stats.PlanWorkloadsCounter).Count())
}

func TestBuildJSON(t *testing.T) {
	cfg := testConfig()
	plan, err := Build(context.Background(), cfg, testFetcher(t, cfg))
	require.NoError(t, err)

	data, err := json.Marshal(plan)
	require.NoError(t, err)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, float64(128000000), decoded["memory"])
	arms := decoded["arms"].([]interface{})
	assert.Equal(t, "inf", arms[0].(map[string]interface{})["worker_saturation"])
	workloads := decoded["workloads"].([]interface{})
	assert.Contains(t, workloads[1].(map[string]interface{}), "array")
	assert.NotContains(t, workloads[1].(map[string]interface{}), "timeseries")
}

func TestBuildFetchFailure(t *testing.T) {
	_, err := Build(context.Background(), testConfig(), failingFetcher{})
	require.Error(t, err)
	assert.Equal(t, saterrors.ClusterFetchFailureExitCode, saterrors.GetExitCode(err))
}

func TestBuildInfeasibleWorkload(t *testing.T) {
	cfg := testConfig()
	cfg.Workloads[0].Target = "10b"
	_, err := Build(context.Background(), cfg, testFetcher(t, cfg))
	require.Error(t, err)
	assert.True(t, saterrors.IsInfeasibleSize(err))
	assert.Equal(t, saterrors.InfeasibleSizeExitCode, saterrors.GetExitCode(err))
	assert.Contains(t, err.Error(), "workload frame")
}

func TestBuildToleranceExceeded(t *testing.T) {
	cfg := testConfig()
	cfg.Workloads = []config.WorkloadConfig{{
		Name:   "wide",
		Kind:   config.ArrayKind,
		Target: "1500",
		Array:  config.ArrayConfig{Shape: []string{"1000", "x"}, DType: "int8"},
	}}
	_, err := Build(context.Background(), cfg, testFetcher(t, cfg))
	require.Error(t, err)
	assert.True(t, saterrors.IsToleranceExceeded(err))

	cfg.Workloads[0].Array.MaxError = 0.3
	plan, err := Build(context.Background(), cfg, testFetcher(t, cfg))
	require.NoError(t, err)
	assert.Equal(t, "(1000, 2)", plan.Results[0].Array.Shape.String())
}

func TestBuildBadSaturation(t *testing.T) {
	cfg := testConfig()
	cfg.Scheduler.WorkerSaturation = []string{"none"}
	_, err := Build(context.Background(), cfg, testFetcher(t, cfg))
	require.Error(t, err)
	assert.Equal(t, saterrors.ConfigFailureExitCode, saterrors.GetExitCode(err))
}

func TestBuildWaitsForWorkers(t *testing.T) {
	cfg := testConfig()
	cfg.Cluster.WaitForWorkers = 2
	plan, err := Build(context.Background(), cfg, testFetcher(t, cfg))
	require.NoError(t, err)
	assert.Equal(t, 2, plan.Workers)
}

func TestTarget(t *testing.T) {
	total := bytesize.Gigabyte
	b, err := Target(config.WorkloadConfig{Target: "10mb"}, total)
	require.NoError(t, err)
	assert.Equal(t, 10*bytesize.Megabyte, b)

	b, err = Target(config.WorkloadConfig{MemoryFraction: 0.25}, total)
	require.NoError(t, err)
	assert.Equal(t, 250*bytesize.Megabyte, b)

	_, err = Target(config.WorkloadConfig{}, total)
	assert.Error(t, err)
}

func TestMakeArms(t *testing.T) {
	arms, err := makeArms(config.SchedulerConfig{WorkerSaturation: []string{"inf", "1.0", "1.5"}})
	require.NoError(t, err)
	require.Len(t, arms, 3)
	assert.Equal(t, "baseline", arms[0].Name)
	assert.Equal(t, "tuned-1", arms[1].Name)
	assert.Equal(t, "tuned-2", arms[2].Name)
	assert.Equal(t, "DASK_DISTRIBUTED__SCHEDULER__WORKER_SATURATION=1", arms[1].Env())
}

func TestMakeFetcher(t *testing.T) {
	_, err := MakeFetcher(config.ClusterConfig{Type: "static", Workers: 1, MemoryPerWorker: "?"})
	assert.Error(t, err)
	_, err = MakeFetcher(config.ClusterConfig{Type: "yarn"})
	assert.Equal(t, saterrors.ConfigFailureExitCode, saterrors.GetExitCode(err))

	f, err := MakeFetcher(config.ClusterConfig{Type: "http", Addr: "localhost:8787"})
	require.NoError(t, err)
	assert.NotNil(t, f)
}
