package timeseries

import (
	"math"
	"math/rand"
	"time"
	"unsafe"
)

// Column holds one realized column; exactly one of the value slices is set,
// according to Type.
type Column struct {
	Name    string
	Type    ColumnType
	Strings []string
	Ints    []int64
	Floats  []float64
}

// Partition is one eagerly materialized block of rows. Index holds the row
// timestamps as unix nanoseconds.
type Partition struct {
	Index   []int64
	Columns []Column
}

func (p *Partition) Len() int {
	return len(p.Index)
}

// Column returns the named column, or nil.
func (p *Partition) Column(name string) *Column {
	for i := range p.Columns {
		if p.Columns[i].Name == name {
			return &p.Columns[i]
		}
	}
	return nil
}

func makePartition(start, end time.Time, freq time.Duration, cols []columnSpec, seed int64) *Partition {
	n := 0
	if span := end.Sub(start); span > 0 {
		n = int((span + freq - 1) / freq)
	}
	rng := rand.New(rand.NewSource(seed))

	p := &Partition{
		Index:   make([]int64, n),
		Columns: make([]Column, len(cols)),
	}
	t := start.UnixNano()
	for i := range p.Index {
		p.Index[i] = t + int64(i)*int64(freq)
	}
	for i, spec := range cols {
		col := Column{Name: spec.name, Type: spec.typ}
		switch spec.typ {
		case String:
			col.Strings = make([]string, n)
			for j := range col.Strings {
				col.Strings[j] = names[rng.Intn(spec.nunique)]
			}
		case Int:
			col.Ints = make([]int64, n)
			for j := range col.Ints {
				col.Ints[j] = poisson(rng, spec.lam)
			}
		case Float:
			col.Floats = make([]float64, n)
			width := spec.high - spec.low
			for j := range col.Floats {
				col.Floats[j] = spec.low + rng.Float64()*width
			}
		}
		p.Columns[i] = col
	}
	return p
}

// poisson draws from Poisson(lam): multiplication of uniforms for small lam,
// Hörmann's transformed rejection (PTRS) otherwise.
func poisson(rng *rand.Rand, lam float64) int64 {
	if lam <= 0 {
		return 0
	}
	if lam < 10 {
		limit := math.Exp(-lam)
		k := int64(0)
		p := rng.Float64()
		for p > limit {
			k++
			p *= rng.Float64()
		}
		return k
	}

	slam := math.Sqrt(lam)
	loglam := math.Log(lam)
	b := 0.931 + 2.53*slam
	a := -0.059 + 0.02483*b
	invalpha := 1.1239 + 1.1328/(b-3.4)
	vr := 0.9277 - 3.6224/(b-2)
	for {
		u := rng.Float64() - 0.5
		v := rng.Float64()
		us := 0.5 - math.Abs(u)
		k := math.Floor((2*a/us+b)*u + lam + 0.43)
		if us >= 0.07 && v <= vr {
			return int64(k)
		}
		if k < 0 || (us < 0.013 && v > us) {
			continue
		}
		lg, _ := math.Lgamma(k + 1)
		if math.Log(v)+math.Log(invalpha)-math.Log(a/(us*us)+b) <= -lam+k*loglam-lg {
			return int64(k)
		}
	}
}

// Sizeof estimates the in-memory footprint of a realized partition: struct
// and slice headers, backing arrays at capacity, and string payloads. String
// payloads shared by several rows are counted once, as they share storage.
func Sizeof(p *Partition) int64 {
	if p == nil {
		return 0
	}
	size := int64(unsafe.Sizeof(*p))
	size += int64(cap(p.Index)) * int64(unsafe.Sizeof(int64(0)))
	size += int64(cap(p.Columns)) * int64(unsafe.Sizeof(Column{}))
	for _, col := range p.Columns {
		size += int64(len(col.Name))
		size += int64(cap(col.Ints)) * int64(unsafe.Sizeof(int64(0)))
		size += int64(cap(col.Floats)) * int64(unsafe.Sizeof(float64(0)))
		size += int64(cap(col.Strings)) * int64(unsafe.Sizeof(""))
		seen := make(map[string]struct{})
		for _, s := range col.Strings {
			if _, ok := seen[s]; !ok {
				seen[s] = struct{}{}
				size += int64(len(s))
			}
		}
	}
	return size
}
