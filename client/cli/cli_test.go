package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	saterrors "github.com/twitter/saturation/common/errors"
	"github.com/twitter/saturation/dataset/timeseries"
)

func run(args ...string) (string, error) {
	c := NewSimpleCLIClient()
	var out bytes.Buffer
	c.RootCmd.SetOutput(&out)
	c.RootCmd.SetArgs(args)
	err := c.Exec()
	return out.String(), err
}

func TestBytes(t *testing.T) {
	out, err := run("bytes", "10kb", "1 MiB")
	require.NoError(t, err)
	assert.Equal(t, "10kb\t10000\t10 kB\n1 MiB\t1048576\t1.0 MB\n", out)

	_, err = run("bytes", "1qb")
	assert.Error(t, err)
}

func TestShape(t *testing.T) {
	out, err := run("shape", "--target", "1mb", "10", "2x", "3", "x", "50")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "(10, 13, 3, 6, 50) float64"), out)

	out, err = run("shape", "--target", "1mb", "--json", "10", "2x", "3", "x", "50")
	require.NoError(t, err)
	var result struct {
		Shape  []int64 `json:"shape"`
		NBytes int64   `json:"nbytes"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, []int64{10, 13, 3, 6, 50}, result.Shape)
	assert.Equal(t, int64(10*13*3*6*50*8), result.NBytes)
}

func TestShapeErrors(t *testing.T) {
	_, err := run("shape", "--target", "10", "--dtype", "bool", "1000", "x")
	require.Error(t, err)
	assert.Equal(t, saterrors.InfeasibleSizeExitCode, saterrors.GetExitCode(err))

	_, err = run("shape", "--target", "1500", "--dtype", "bool", "1000", "x")
	require.Error(t, err)
	assert.Equal(t, saterrors.ToleranceExceededExitCode, saterrors.GetExitCode(err))

	_, err = run("shape", "--target", "1kb", "2", "512")
	require.Error(t, err)
	assert.Equal(t, saterrors.InvalidTemplateExitCode, saterrors.GetExitCode(err))

	_, err = run("shape", "x")
	assert.Error(t, err)
}

func TestTimeseries(t *testing.T) {
	out, err := run("timeseries", "--target", "1mb", "--freq", "1min", "--partition_freq", "1h", "--seed", "42", "--json")
	require.NoError(t, err)
	var result struct {
		NPartitions    int   `json:"npartitions"`
		PartitionBytes int64 `json:"partition_bytes"`
		Seed           int64 `json:"seed"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result))

	seed := int64(42)
	expected, err := timeseries.OfSize("1mb", timeseries.Params{Freq: "1min", PartitionFreq: "1h", Seed: &seed})
	require.NoError(t, err)
	assert.Equal(t, expected.NPartitions(), result.NPartitions)
	assert.Equal(t, expected.PartitionBytes, result.PartitionBytes)
	assert.Equal(t, int64(42), result.Seed)
}

func TestTimeseriesPreview(t *testing.T) {
	out, err := run("timeseries", "--target", "100kb", "--freq", "1min", "--partition_freq", "1h",
		"--dtypes", "x=float,id=int", "--param", "x_low=0", "--param", "x_high=1", "--seed", "1", "--preview", "3")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.True(t, len(lines) >= 4)
	rows := lines[len(lines)-4:]
	assert.Equal(t, "timestamp\tid\tx", rows[0])
	assert.True(t, strings.HasPrefix(rows[1], "2000-01-01T00:00:00Z\t"), rows[1])
	assert.True(t, strings.HasPrefix(rows[2], "2000-01-01T00:01:00Z\t"), rows[2])
}

func TestTimeseriesErrors(t *testing.T) {
	_, err := run("timeseries", "--freq", "1min")
	assert.Error(t, err)

	_, err = run("timeseries", "--target", "10b")
	require.Error(t, err)
	assert.Equal(t, saterrors.InfeasibleSizeExitCode, saterrors.GetExitCode(err))

	_, err = run("timeseries", "--target", "1mb", "--param", "x_low")
	assert.Error(t, err)
}

func TestClusterMemoryStatic(t *testing.T) {
	out, err := run("cluster_memory", "--workers", "3", "--worker_memory", "2gb", "--verbose")
	require.NoError(t, err)
	assert.Equal(t, "3 workers, 6.0 GB (6000000000 bytes)\n"+
		"  node1(memory_limit=2.0 GB, nthreads=1)\n"+
		"  node2(memory_limit=2.0 GB, nthreads=1)\n"+
		"  node3(memory_limit=2.0 GB, nthreads=1)\n", out)

	_, err = run("cluster_memory")
	assert.Error(t, err)
	_, err = run("cluster_memory", "--workers", "3", "--addr", "localhost:8787")
	assert.Error(t, err)
}

func TestClusterMemoryHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"workers": {"tcp://a:1": {"memory_limit": 1000000000, "nthreads": 2}}}`)
	}))
	defer srv.Close()

	out, err := run("cluster_memory", "--addr", srv.URL, "--wait", "1", "--watch", "5ms", "--watch_count", "3")
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("1 workers, 1.0 GB (1000000000 bytes)\n", 3), out)
}

func TestClusterMemoryWatchCountOne(t *testing.T) {
	out, err := run("cluster_memory", "--workers", "2", "--worker_memory", "1gb", "--watch", "5ms", "--watch_count", "1")
	require.NoError(t, err)
	assert.Equal(t, "2 workers, 2.0 GB (2000000000 bytes)\n", out)
}

func TestClusterMemoryUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := run("cluster_memory", "--addr", srv.URL, "--timeout", "100ms")
	require.Error(t, err)
	assert.Equal(t, saterrors.ClusterFetchFailureExitCode, saterrors.GetExitCode(err))
}

func TestPlan(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.yaml")
	require.NoError(t, ioutil.WriteFile(path, []byte(`
cluster:
  workers: 2
  memory_per_worker: 50mb
workloads:
  - name: square
    kind: array
    memory_fraction: 0.5
    array:
      shape: ["x", "x"]
      dtype: float64
`), 0644))

	out, err := run("plan", "--config_file", path)
	require.NoError(t, err)
	assert.Contains(t, out, "cluster: 2 workers, 100 MB")
	assert.Contains(t, out, "baseline: DASK_DISTRIBUTED__SCHEDULER__WORKER_SATURATION=inf")
	assert.Contains(t, out, "tuned: DASK_DISTRIBUTED__SCHEDULER__WORKER_SATURATION=1")
	assert.Contains(t, out, "square: array (2500, 2500) float64")

	out, err = run("plan", "--config_file", path, "--json")
	require.NoError(t, err)
	var plan struct {
		Workers   int `json:"workers"`
		Workloads []struct {
			Name  string `json:"name"`
			Array struct {
				Shape []int64 `json:"shape"`
			} `json:"array"`
		} `json:"workloads"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &plan))
	assert.Equal(t, 2, plan.Workers)
	require.Len(t, plan.Workloads, 1)
	assert.Equal(t, []int64{2500, 2500}, plan.Workloads[0].Array.Shape)
}

func TestPlanBadConfig(t *testing.T) {
	_, err := run("plan", "--config", "nope")
	require.Error(t, err)
	assert.Equal(t, saterrors.ConfigFailureExitCode, saterrors.GetExitCode(err))

	path := filepath.Join(t.TempDir(), "plan.yaml")
	require.NoError(t, ioutil.WriteFile(path, []byte("cluster:\n  type: yarn\n"), 0644))
	_, err = run("plan", "--config_file", path)
	require.Error(t, err)
	assert.Equal(t, saterrors.ConfigFailureExitCode, saterrors.GetExitCode(err))
}

func TestPrintStats(t *testing.T) {
	out, err := run("--stats", "shape", "--target", "1mb", "x")
	require.NoError(t, err)
	lines := strings.SplitN(out, "\n", 2)
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "(125000,) float64"), lines[0])

	var rendered map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &rendered))
	assert.Equal(t, float64(1), rendered["shapeSolvedCounter"])
	assert.Contains(t, rendered, "shapeRelErrorGaugeFloat")

	out, err = run("shape", "--target", "1mb", "x")
	require.NoError(t, err)
	assert.NotContains(t, out, "shapeSolvedCounter")
}

func TestBadLogLevel(t *testing.T) {
	_, err := run("--log_level", "loud", "bytes", "1kb")
	assert.Error(t, err)
}
