package config

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/twitter/saturation/array/shape"
	"github.com/twitter/saturation/common"
	"github.com/twitter/saturation/common/bytesize"
	saterrors "github.com/twitter/saturation/common/errors"
	"github.com/twitter/saturation/dataset/timeseries"
)

// ServiceConfig describes the cluster to size against, the scheduler settings
// being compared and the workloads to size.
type ServiceConfig struct {
	Cluster   ClusterConfig    `mapstructure:"cluster" json:"cluster"`
	Scheduler SchedulerConfig  `mapstructure:"scheduler" json:"scheduler"`
	Workloads []WorkloadConfig `mapstructure:"workloads" json:"workloads"`
}

func (s ServiceConfig) String() string {
	names := make([]string, len(s.Workloads))
	for i, w := range s.Workloads {
		names[i] = w.Name
	}
	return fmt.Sprintf("\n%s\n%s\nWorkloads: %v", s.Cluster, s.Scheduler, names)
}

type ClusterConfig struct {
	Type             string        `mapstructure:"type" json:"type"`                             // static, http
	Addr             string        `mapstructure:"addr" json:"addr"`                             // http: scheduler dashboard address
	Workers          int           `mapstructure:"workers" json:"workers"`                       // static: number of workers
	MemoryPerWorker  string        `mapstructure:"memory_per_worker" json:"memory_per_worker"`   // static: e.g. "4gb"
	ThreadsPerWorker int           `mapstructure:"threads_per_worker" json:"threads_per_worker"` // static
	WaitForWorkers   int           `mapstructure:"wait_for_workers" json:"wait_for_workers"`     // http: block until this many workers; 0 = don't wait
	Timeout          time.Duration `mapstructure:"timeout" json:"timeout"`                       // http: per request timeout
}

func (c ClusterConfig) String() string {
	return fmt.Sprintf("ClusterConfig: Type: %s, Addr: %s, Workers: %d, MemoryPerWorker: %s, WaitForWorkers: %d, Timeout: %s",
		c.Type, c.Addr, c.Workers, c.MemoryPerWorker, c.WaitForWorkers, c.Timeout)
}

type SchedulerConfig struct {
	// Worker saturation values to compare, "inf" meaning no queuing.
	WorkerSaturation []string `mapstructure:"worker_saturation" json:"worker_saturation"`
}

func (s SchedulerConfig) String() string {
	return fmt.Sprintf("SchedulerConfig: WorkerSaturation: %v", s.WorkerSaturation)
}

const (
	TimeseriesKind = "timeseries"
	ArrayKind      = "array"
)

// WorkloadConfig sizes one dataset. Exactly one of Target (absolute) and
// MemoryFraction (of total cluster memory) is set.
type WorkloadConfig struct {
	Name           string           `mapstructure:"name" json:"name"`
	Kind           string           `mapstructure:"kind" json:"kind"`
	Target         string           `mapstructure:"target" json:"target,omitempty"`
	MemoryFraction float64          `mapstructure:"memory_fraction" json:"memory_fraction,omitempty"`
	Timeseries     TimeseriesConfig `mapstructure:"timeseries" json:"timeseries,omitempty"`
	Array          ArrayConfig      `mapstructure:"array" json:"array,omitempty"`
}

type TimeseriesConfig struct {
	Start         string             `mapstructure:"start" json:"start,omitempty"`
	Freq          string             `mapstructure:"freq" json:"freq,omitempty"`
	PartitionFreq string             `mapstructure:"partition_freq" json:"partition_freq,omitempty"`
	DTypes        map[string]string  `mapstructure:"dtypes" json:"dtypes,omitempty"`
	Seed          *int64             `mapstructure:"seed" json:"seed,omitempty"`
	Kwargs        map[string]float64 `mapstructure:"kwargs" json:"kwargs,omitempty"`
}

// Params converts the config into generator parameters.
func (t TimeseriesConfig) Params() (timeseries.Params, error) {
	p := timeseries.Params{
		Start:         t.Start,
		Freq:          t.Freq,
		PartitionFreq: t.PartitionFreq,
		Seed:          t.Seed,
		Kwargs:        t.Kwargs,
	}
	if len(t.DTypes) > 0 {
		dtypes, err := timeseries.ParseDTypes(t.DTypes)
		if err != nil {
			return p, err
		}
		p.DTypes = dtypes
	}
	return p, nil
}

type ArrayConfig struct {
	Shape    []string `mapstructure:"shape" json:"shape,omitempty"`
	DType    string   `mapstructure:"dtype" json:"dtype,omitempty"`
	MaxError float64  `mapstructure:"max_error" json:"max_error,omitempty"`
}

// Template parses Shape and DType.
func (a ArrayConfig) Template() (shape.Template, shape.DType, error) {
	template, err := shape.ParseTemplate(a.Shape)
	if err != nil {
		return nil, shape.DType{}, err
	}
	if template.NumScaled() == 0 {
		return nil, shape.DType{}, saterrors.NewInvalidTemplateError("%s has no scaled dimension", template)
	}
	dtype := shape.Float64
	if a.DType != "" {
		if dtype, err = shape.ParseDType(a.DType); err != nil {
			return nil, shape.DType{}, err
		}
	}
	return template, dtype, nil
}

// Saturation is the scheduler's worker-saturation setting: how many tasks per
// thread a worker may be assigned before the rest are queued. +Inf disables queuing.
type Saturation float64

func ParseSaturation(s string) (Saturation, error) {
	trimmed := strings.ToLower(strings.TrimSpace(s))
	if trimmed == "inf" || trimmed == "infinity" {
		return Saturation(math.Inf(1)), nil
	}
	f, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || math.IsNaN(f) || f <= 0 {
		return 0, fmt.Errorf("worker saturation %q must be a positive number or \"inf\"", s)
	}
	return Saturation(f), nil
}

func (s Saturation) IsQueuing() bool {
	return !math.IsInf(float64(s), 1)
}

func (s Saturation) String() string {
	if !s.IsQueuing() {
		return "inf"
	}
	return strconv.FormatFloat(float64(s), 'g', -1, 64)
}

func GetConfigText(configSelector string) (ServiceConfig, error) {
	config, ok := ServiceConfigs[configSelector]
	if !ok {
		keys := make([]string, 0, len(ServiceConfigs))
		for k := range ServiceConfigs {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return ServiceConfig{}, fmt.Errorf("invalid configuration %s, supported values are %v", configSelector, keys)
	}
	return config, nil
}

// GetConfig returns the named configuration, using the default sections for
// any section the named one leaves unset.
func GetConfig(configSelector string) (*ServiceConfig, error) {
	defaultConfig, _ := GetConfigText("default")
	named, err := GetConfigText(configSelector)
	if err != nil {
		return nil, err
	}

	config := named
	if config.Cluster.Type == "" {
		log.Infof("using default Cluster config")
		config.Cluster = defaultConfig.Cluster
	}
	if len(config.Scheduler.WorkerSaturation) == 0 {
		log.Infof("using default Scheduler config")
		config.Scheduler = defaultConfig.Scheduler
	}
	if len(config.Workloads) == 0 {
		log.Infof("using default Workloads config")
		config.Workloads = defaultConfig.Workloads
	}
	config.Workloads = append([]WorkloadConfig(nil), config.Workloads...)
	config.Scheduler.WorkerSaturation = append([]string(nil), config.Scheduler.WorkerSaturation...)
	return &config, nil
}

// Load starts from the named configuration and applies the file at path, if
// any, then SATDEMO_* environment variables (e.g. SATDEMO_CLUSTER_ADDR).
// The result is validated.
func Load(configSelector, path string) (*ServiceConfig, error) {
	config, err := GetConfig(configSelector)
	if err != nil {
		return nil, saterrors.NewError(err, saterrors.ConfigFailureExitCode)
	}

	v := viper.New()
	v.SetEnvPrefix(common.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, err
		}
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, saterrors.NewError(errors.Wrapf(err, "reading config file %s", path), saterrors.ConfigFailureExitCode)
		}
		log.Infof("applying config file %s", path)
	}
	if v.IsSet("workloads") {
		config.Workloads = nil
	}
	if v.IsSet("scheduler.worker_saturation") {
		config.Scheduler.WorkerSaturation = nil
	}
	if err := v.Unmarshal(config); err != nil {
		return nil, saterrors.NewError(errors.Wrap(err, "decoding config"), saterrors.ConfigFailureExitCode)
	}
	if err := config.Validate(); err != nil {
		return nil, saterrors.NewError(err, saterrors.ConfigFailureExitCode)
	}
	return config, nil
}

var envKeys = []string{
	"cluster.type",
	"cluster.addr",
	"cluster.workers",
	"cluster.memory_per_worker",
	"cluster.threads_per_worker",
	"cluster.wait_for_workers",
	"cluster.timeout",
}

// Validate reports every problem in the configuration at once.
func (s *ServiceConfig) Validate() error {
	var result *multierror.Error

	switch s.Cluster.Type {
	case "static":
		if s.Cluster.Workers <= 0 {
			result = multierror.Append(result, fmt.Errorf("cluster: static cluster needs workers > 0, got %d", s.Cluster.Workers))
		}
		if _, err := bytesize.Parse(s.Cluster.MemoryPerWorker); err != nil {
			result = multierror.Append(result, fmt.Errorf("cluster: memory_per_worker: %v", err))
		}
	case "http":
		if s.Cluster.Addr == "" {
			result = multierror.Append(result, fmt.Errorf("cluster: http cluster needs addr"))
		}
		if s.Cluster.WaitForWorkers < 0 {
			result = multierror.Append(result, fmt.Errorf("cluster: wait_for_workers must be >= 0"))
		}
	default:
		result = multierror.Append(result, fmt.Errorf("cluster: unknown type %q, expected static or http", s.Cluster.Type))
	}

	for _, sat := range s.Scheduler.WorkerSaturation {
		if _, err := ParseSaturation(sat); err != nil {
			result = multierror.Append(result, fmt.Errorf("scheduler: %v", err))
		}
	}

	seen := map[string]bool{}
	for i, w := range s.Workloads {
		if w.Name == "" {
			result = multierror.Append(result, fmt.Errorf("workload %d: missing name", i))
		} else if seen[w.Name] {
			result = multierror.Append(result, fmt.Errorf("workload %s: duplicate name", w.Name))
		}
		seen[w.Name] = true
		for _, err := range w.validate() {
			result = multierror.Append(result, fmt.Errorf("workload %s: %v", w.Name, err))
		}
	}
	return result.ErrorOrNil()
}

func (w WorkloadConfig) validate() []error {
	var errs []error
	switch {
	case w.Target != "" && w.MemoryFraction != 0:
		errs = append(errs, fmt.Errorf("set only one of target and memory_fraction"))
	case w.Target != "":
		if _, err := bytesize.Parse(w.Target); err != nil {
			errs = append(errs, err)
		}
	case w.MemoryFraction <= 0:
		errs = append(errs, fmt.Errorf("needs a target or a positive memory_fraction"))
	}

	switch w.Kind {
	case TimeseriesKind:
		if _, err := w.Timeseries.Params(); err != nil {
			errs = append(errs, err)
		}
		for _, f := range []string{w.Timeseries.Freq, w.Timeseries.PartitionFreq} {
			if f == "" {
				continue
			}
			if _, err := timeseries.ParseFreq(f); err != nil {
				errs = append(errs, err)
			}
		}
	case ArrayKind:
		if _, _, err := w.Array.Template(); err != nil {
			errs = append(errs, err)
		}
		if w.Array.MaxError < 0 {
			errs = append(errs, fmt.Errorf("max_error must be >= 0"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown kind %q, expected %s or %s", w.Kind, TimeseriesKind, ArrayKind))
	}
	return errs
}
