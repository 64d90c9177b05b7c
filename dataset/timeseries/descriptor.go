// Package timeseries describes synthetic, time-indexed tabular datasets split
// into fixed-span partitions, and sizes them to a target memory footprint.
package timeseries

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/twitter/saturation/common"
)

const (
	DefaultStart         = "2000-01-01"
	DefaultFreq          = "1s"
	DefaultPartitionFreq = "1d"
)

// Params are the user facing generation parameters. Empty fields take the
// defaults above; nil DTypes means DefaultDTypes().
type Params struct {
	Start         string
	Freq          string
	PartitionFreq string
	DTypes        map[string]ColumnType
	Seed          *int64
	// Forwarded to column generation, keyed "<column>_<param>":
	// int columns take "lam", float columns "low"/"high", string columns "nunique".
	Kwargs map[string]float64
}

// spec is Params parsed and validated.
type spec struct {
	start         time.Time
	freq          time.Duration
	partitionFreq time.Duration
	dtypes        map[string]ColumnType
	cols          []columnSpec
	seed          int64
	kwargs        map[string]float64
}

func (p Params) resolve() (*spec, error) {
	s := &spec{}
	var err error
	if s.start, err = ParseTimestamp(orDefault(p.Start, DefaultStart)); err != nil {
		return nil, err
	}
	if s.freq, err = ParseFreq(orDefault(p.Freq, DefaultFreq)); err != nil {
		return nil, err
	}
	if s.partitionFreq, err = ParseFreq(orDefault(p.PartitionFreq, DefaultPartitionFreq)); err != nil {
		return nil, err
	}
	s.dtypes = make(map[string]ColumnType)
	if p.DTypes == nil {
		s.dtypes = DefaultDTypes()
	} else {
		for name, typ := range p.DTypes {
			s.dtypes[name] = typ
		}
	}
	s.kwargs = make(map[string]float64, len(p.Kwargs))
	for k, v := range p.Kwargs {
		s.kwargs[k] = v
	}
	if s.cols, err = resolveColumns(s.dtypes, s.kwargs); err != nil {
		return nil, err
	}
	if p.Seed != nil {
		s.seed = *p.Seed
	} else {
		s.seed = time.Now().UnixNano()
	}
	return s, nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// Descriptor is a lazily generated timeseries. Partition i covers
// [Divisions[i], Divisions[i+1]). A Descriptor is not modified after New returns.
type Descriptor struct {
	Name          string
	Start         time.Time
	End           time.Time
	Freq          time.Duration
	PartitionFreq time.Duration
	DTypes        map[string]ColumnType
	Seed          int64
	Kwargs        map[string]float64
	Divisions     []time.Time

	// Measured size of one partition when built by OfSize, else 0.
	PartitionBytes int64

	cols  []columnSpec
	seeds []int64
}

// New describes the timeseries from p.Start up to end.
func New(p Params, end string) (*Descriptor, error) {
	s, err := p.resolve()
	if err != nil {
		return nil, err
	}
	e, err := ParseTimestamp(end)
	if err != nil {
		return nil, err
	}
	return newDescriptor(s, e)
}

func newDescriptor(s *spec, end time.Time) (*Descriptor, error) {
	if !end.After(s.start) {
		return nil, fmt.Errorf("end %s must be after start %s", end, s.start)
	}
	d := &Descriptor{
		Name:          common.NewToken("make-timeseries"),
		Start:         s.start,
		End:           end,
		Freq:          s.freq,
		PartitionFreq: s.partitionFreq,
		DTypes:        s.dtypes,
		Seed:          s.seed,
		Kwargs:        s.kwargs,
		cols:          s.cols,
	}
	for t := s.start; t.Before(end); t = t.Add(s.partitionFreq) {
		d.Divisions = append(d.Divisions, t)
	}
	d.Divisions = append(d.Divisions, end)

	master := rand.New(rand.NewSource(s.seed))
	d.seeds = make([]int64, d.NPartitions())
	for i := range d.seeds {
		d.seeds[i] = master.Int63()
	}
	return d, nil
}

func (d *Descriptor) NPartitions() int {
	return len(d.Divisions) - 1
}

// Partition materializes partition i. The same descriptor always produces
// the same data for a given i.
func (d *Descriptor) Partition(i int) (*Partition, error) {
	if i < 0 || i >= d.NPartitions() {
		return nil, fmt.Errorf("partition %d out of range [0, %d)", i, d.NPartitions())
	}
	return makePartition(d.Divisions[i], d.Divisions[i+1], d.Freq, d.cols, d.seeds[i]), nil
}

// RowsPerPartition is the row count of a full partition.
func (d *Descriptor) RowsPerPartition() int64 {
	return int64((d.PartitionFreq + d.Freq - 1) / d.Freq)
}

// EstimatedBytes extrapolates the measured partition size to the whole dataset.
func (d *Descriptor) EstimatedBytes() int64 {
	return d.PartitionBytes * int64(d.NPartitions())
}

func (d *Descriptor) String() string {
	return fmt.Sprintf("%s: %s to %s, freq=%s, partition_freq=%s, npartitions=%d",
		d.Name, d.Start.Format(time.RFC3339), d.End.Format(time.RFC3339), d.Freq, d.PartitionFreq, d.NPartitions())
}
