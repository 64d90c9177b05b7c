package workload

import (
	"fmt"
	"strings"
	"time"

	"github.com/twitter/saturation/array/shape"
	"github.com/twitter/saturation/common/bytesize"
	"github.com/twitter/saturation/config"
	"github.com/twitter/saturation/dataset/timeseries"
)

// Environment variable the scheduler reads its worker saturation from.
const WorkerSaturationEnv = "DASK_DISTRIBUTED__SCHEDULER__WORKER_SATURATION"

// Arm is one side of the comparison: the same workloads run under one
// worker saturation setting.
type Arm struct {
	Name       string            `json:"name"`
	Saturation config.Saturation `json:"-"`
	Setting    string            `json:"worker_saturation"`
}

func (a Arm) Env() string {
	return fmt.Sprintf("%s=%s", WorkerSaturationEnv, a.Saturation)
}

// The first setting is the baseline, the rest are tuned.
func makeArms(c config.SchedulerConfig) ([]Arm, error) {
	arms := make([]Arm, 0, len(c.WorkerSaturation))
	for i, s := range c.WorkerSaturation {
		sat, err := config.ParseSaturation(s)
		if err != nil {
			return nil, err
		}
		name := "baseline"
		if i > 0 {
			name = "tuned"
			if len(c.WorkerSaturation) > 2 {
				name = fmt.Sprintf("tuned-%d", i)
			}
		}
		arms = append(arms, Arm{Name: name, Saturation: sat, Setting: sat.String()})
	}
	return arms, nil
}

type TimeseriesResult struct {
	Start          time.Time `json:"start"`
	End            time.Time `json:"end"`
	Freq           string    `json:"freq"`
	PartitionFreq  string    `json:"partition_freq"`
	NPartitions    int       `json:"npartitions"`
	PartitionBytes int64     `json:"partition_bytes"`
	Seed           int64     `json:"seed"`
}

type ArrayResult struct {
	Template string      `json:"template"`
	DType    string      `json:"dtype"`
	Shape    shape.Shape `json:"shape"`
	RelError float64     `json:"rel_error"`
}

// Result is one sized workload. Exactly one of Timeseries and Array is set.
type Result struct {
	Name       string            `json:"name"`
	Kind       string            `json:"kind"`
	Target     bytesize.ByteSize `json:"target"`
	Bytes      bytesize.ByteSize `json:"bytes"`
	Timeseries *TimeseriesResult `json:"timeseries,omitempty"`
	Array      *ArrayResult      `json:"array,omitempty"`
	descriptor *timeseries.Descriptor
}

// Descriptor is the sized timeseries, nil for array workloads.
func (r Result) Descriptor() *timeseries.Descriptor {
	return r.descriptor
}

func (r Result) String() string {
	switch {
	case r.Timeseries != nil:
		return fmt.Sprintf("%s: timeseries %s to %s, %d partitions of %s (target %s)",
			r.Name, r.Timeseries.Start.Format(time.RFC3339), r.Timeseries.End.Format(time.RFC3339),
			r.Timeseries.NPartitions, bytesize.ByteSize(r.Timeseries.PartitionBytes), r.Target)
	case r.Array != nil:
		return fmt.Sprintf("%s: array %s %s from %s, %s (target %s, error %.4f)",
			r.Name, r.Array.Shape, r.Array.DType, r.Array.Template, r.Bytes, r.Target, r.Array.RelError)
	default:
		return r.Name
	}
}

type Plan struct {
	Created time.Time         `json:"created"`
	Memory  bytesize.ByteSize `json:"memory"`
	Workers int               `json:"workers"`
	Arms    []Arm             `json:"arms"`
	Results []Result          `json:"workloads"`
}

// SchedulerEnv renders the scheduler environment of each arm, in order.
func (p *Plan) SchedulerEnv() []string {
	env := make([]string, len(p.Arms))
	for i, a := range p.Arms {
		env[i] = a.Env()
	}
	return env
}

func (p *Plan) Result(name string) (Result, bool) {
	for _, r := range p.Results {
		if r.Name == name {
			return r, true
		}
	}
	return Result{}, false
}

func (p *Plan) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "cluster: %d workers, %s\n", p.Workers, p.Memory)
	for _, a := range p.Arms {
		fmt.Fprintf(&b, "%s: %s\n", a.Name, a.Env())
	}
	for _, r := range p.Results {
		fmt.Fprintf(&b, "%s\n", r)
	}
	return b.String()
}
