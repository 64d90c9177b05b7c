package config

import (
	"time"
)

// ServiceConfigs the map of available configurations
var ServiceConfigs = map[string]ServiceConfig{
	"default":     defaultConfig,
	"local.small": localSmall,
	"remote.http": remoteHTTP,
}

// defaultConfig the configuration values that are used for empty sections of a specific configuration
var defaultConfig = ServiceConfig{
	ClusterConfig{
		Type:             "static",
		Workers:          10,
		MemoryPerWorker:  "8gb",
		ThreadsPerWorker: 2,
	},
	SchedulerConfig{
		WorkerSaturation: []string{"inf", "1.0"},
	},
	defaultWorkloads,
}

var defaultWorkloads = []WorkloadConfig{
	{
		Name:           "dataframe-align",
		Kind:           TimeseriesKind,
		MemoryFraction: 0.5,
		Timeseries: TimeseriesConfig{
			Start:         "2000-01-01",
			Freq:          "1s",
			PartitionFreq: "1d",
			DTypes:        map[string]string{"name": "string", "id": "int", "x": "float", "y": "float"},
		},
	},
	{
		Name:           "anom-mean",
		Kind:           ArrayKind,
		MemoryFraction: 0.75,
		Array: ArrayConfig{
			Shape: []string{"x", "10mb"},
			DType: "float64",
		},
	},
	{
		Name:           "vorticity",
		Kind:           ArrayKind,
		MemoryFraction: 0.25,
		Array: ArrayConfig{
			Shape: []string{"4x", "x"},
			DType: "float64",
		},
	},
}

// localSmall sizes against a laptop sized cluster
var localSmall = ServiceConfig{
	Cluster: ClusterConfig{
		Type:             "static",
		Workers:          4,
		MemoryPerWorker:  "2gb",
		ThreadsPerWorker: 1,
	},
}

// remoteHTTP reads the workers from a running scheduler's dashboard
var remoteHTTP = ServiceConfig{
	Cluster: ClusterConfig{
		Type:           "http",
		Addr:           "http://localhost:8787",
		WaitForWorkers: 1,
		Timeout:        10 * time.Second,
	},
	Scheduler: SchedulerConfig{
		WorkerSaturation: []string{"inf", "1.1"},
	},
}
