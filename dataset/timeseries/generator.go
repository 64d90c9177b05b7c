package timeseries

import (
	"fmt"
	"math"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/twitter/saturation/common/bytesize"
	saterrors "github.com/twitter/saturation/common/errors"
	"github.com/twitter/saturation/common/stats"
)

type Generator struct {
	stat stats.StatsReceiver
}

func NewGenerator(stat stats.StatsReceiver) *Generator {
	if stat == nil {
		stat = stats.NilStatsReceiver()
	}
	return &Generator{stat: stat}
}

// OfSize returns a timeseries whose in-memory size approximates target, which
// may be an integer byte count or a string like "1gb".
func OfSize(target interface{}, p Params) (*Descriptor, error) {
	return NewGenerator(nil).OfSize(target, p)
}

// OfSize materializes one example partition, measures it, and describes as
// many partitions as fit in target (rounded to the nearest count).
func (g *Generator) OfSize(target interface{}, p Params) (*Descriptor, error) {
	targetBytes, err := bytesize.Normalize(target)
	if err != nil {
		return nil, err
	}
	s, err := p.resolve()
	if err != nil {
		return nil, err
	}

	partitionBytes, err := g.measure(s)
	if err != nil {
		return nil, err
	}

	count := int64(math.RoundToEven(targetBytes.Float64() / float64(partitionBytes)))
	if count <= 0 {
		g.stat.Counter(stats.TimeseriesInfeasibleCounter).Inc(1)
		return nil, saterrors.NewInfeasibleSizeError(
			"target %d bytes is smaller than one %s partition of %d bytes (%d partitions)",
			targetBytes, s.partitionFreq, partitionBytes, count)
	}
	if count > math.MaxInt64/int64(s.partitionFreq) {
		return nil, fmt.Errorf("%d partitions of %s overflow the time range", count, s.partitionFreq)
	}

	d, err := newDescriptor(s, s.start.Add(time.Duration(count)*s.partitionFreq))
	if err != nil {
		return nil, err
	}
	if int64(d.NPartitions()) != count {
		return nil, fmt.Errorf("descriptor has %d partitions, expected %d", d.NPartitions(), count)
	}
	d.PartitionBytes = partitionBytes

	g.stat.Gauge(stats.TimeseriesPartitionsGauge).Update(count)
	log.WithFields(log.Fields{
		"name":           d.Name,
		"target":         targetBytes.String(),
		"partitionBytes": bytesize.ByteSize(partitionBytes).String(),
		"npartitions":    count,
		"end":            d.End.Format(time.RFC3339),
	}).Info("sized timeseries")
	return d, nil
}

func (g *Generator) measure(s *spec) (int64, error) {
	defer g.stat.Latency(stats.TimeseriesMeasureLatency_ms).Time().Stop()

	example, err := newDescriptor(s, s.start.Add(s.partitionFreq))
	if err != nil {
		return 0, err
	}
	part, err := example.Partition(0)
	if err != nil {
		return 0, err
	}
	size := Sizeof(part)
	g.stat.Gauge(stats.TimeseriesPartitionBytesGauge).Update(size)
	log.Debugf("example partition: %d rows, %d bytes", part.Len(), size)
	return size, nil
}
