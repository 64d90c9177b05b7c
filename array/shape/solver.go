// Package shape solves for the free dimension of an array shape so that the
// array occupies a target number of bytes.
//
// Given a template like (10, "2x", 3, "x", 50) of float64 we solve
//
//	10 * 2x * 3 * x * 50 * 8 == target
//
// i.e. 24000 * x^2 == target, so x = (target / 24000)^(1/2). Each scaled
// position then becomes round(coefficient * x).
package shape

import (
	"fmt"
	"math"

	log "github.com/sirupsen/logrus"

	"github.com/twitter/saturation/common/bytesize"
	saterrors "github.com/twitter/saturation/common/errors"
	"github.com/twitter/saturation/common/stats"
)

const DefaultMaxError = 0.1

type Solver struct {
	// Maximum relative error (actual - target) / actual tolerated in the result.
	MaxError float64
	stat     stats.StatsReceiver
}

func NewSolver(maxError float64, stat stats.StatsReceiver) *Solver {
	if maxError <= 0 {
		maxError = DefaultMaxError
	}
	if stat == nil {
		stat = stats.NilStatsReceiver()
	}
	return &Solver{MaxError: maxError, stat: stat}
}

// ScaledArrayShape solves template for target bytes of dtype with the default
// max error. target may be an integer byte count or a string like "10kb".
func ScaledArrayShape(target interface{}, template Template, dtype DType) (Shape, error) {
	return NewSolver(DefaultMaxError, nil).Solve(target, template, dtype)
}

type pending struct {
	pos         int
	coefficient float64
}

func (s *Solver) Solve(target interface{}, template Template, dtype DType) (Shape, error) {
	targetBytes, err := bytesize.Normalize(target)
	if err != nil {
		return nil, err
	}
	if dtype.ItemSize <= 0 {
		return nil, saterrors.NewInvalidTemplateError("dtype %q has item size %d", dtype.Name, dtype.ItemSize)
	}

	prod := 1.0
	final := make(Shape, len(template))
	var scaled []pending
	for i, d := range template {
		switch d.Kind {
		case FixedDim:
			if d.Extent <= 0 {
				return nil, saterrors.NewInvalidTemplateError("dimension %d of %s is %d, must be positive", i, template, d.Extent)
			}
			final[i] = d.Extent
			prod *= float64(d.Extent)
		case BytesDim:
			n := d.Bytes.Int64() / dtype.ItemSize
			if n <= 0 {
				return nil, saterrors.NewInvalidTemplateError("dimension %d of %s holds %d %s elements, must be positive", i, template, n, dtype)
			}
			final[i] = n
			prod *= float64(n)
		case ScaledDim:
			if d.Coefficient <= 0 || math.IsInf(d.Coefficient, 0) || math.IsNaN(d.Coefficient) {
				return nil, saterrors.NewInvalidTemplateError("dimension %d of %s has coefficient %v, must be positive", i, template, d.Coefficient)
			}
			scaled = append(scaled, pending{i, d.Coefficient})
			prod *= d.Coefficient
		default:
			return nil, saterrors.NewInvalidTemplateError("dimension %d of %s has unknown kind %d", i, template, d.Kind)
		}
	}
	if len(scaled) == 0 {
		return nil, saterrors.NewInvalidTemplateError("no scaling dimension (\"x\") in %s", template)
	}
	prod *= float64(dtype.ItemSize)

	x := math.Pow(targetBytes.Float64()/prod, 1/float64(len(scaled)))
	for _, p := range scaled {
		extent := math.RoundToEven(p.coefficient * x)
		if extent >= math.MaxInt64 {
			return nil, fmt.Errorf("target %d bytes solves dimension %d of %s to %g, which overflows int64",
				targetBytes, p.pos, template, extent)
		}
		final[p.pos] = int64(extent)
	}

	actual, ok := final.CheckedNBytes(dtype)
	if !ok {
		return nil, fmt.Errorf("target %d bytes solves to shape %s of %s, whose size overflows int64",
			targetBytes, final, dtype)
	}
	if actual <= 0 {
		return nil, saterrors.NewInfeasibleSizeError("target %d bytes solves to x=%g, shape %s for template %s of %s",
			targetBytes, x, final, template, dtype)
	}
	relErr := float64(actual-targetBytes.Int64()) / float64(actual)
	s.stat.GaugeFloat(stats.ShapeRelErrorGaugeFloat).Update(relErr)
	if math.Abs(relErr) >= s.MaxError {
		s.stat.Counter(stats.ShapeToleranceExceededCounter).Inc(1)
		return nil, &saterrors.ToleranceExceededError{
			Target:   targetBytes.Int64(),
			Actual:   actual,
			RelError: relErr,
			MaxError: s.MaxError,
			Shape:    final.String(),
		}
	}
	s.stat.Counter(stats.ShapeSolvedCounter).Inc(1)
	log.WithFields(log.Fields{
		"template": template.String(),
		"dtype":    dtype.Name,
		"target":   targetBytes.String(),
		"shape":    final.String(),
		"relError": relErr,
	}).Debug("solved array shape")
	return final, nil
}
