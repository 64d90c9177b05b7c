package shape

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"

	saterrors "github.com/twitter/saturation/common/errors"
	"github.com/twitter/saturation/common/stats"
)

func TestScaledArrayShapeExamples(t *testing.T) {
	tests := []struct {
		target   interface{}
		template Template
		expected Shape
	}{
		{1024, Template{Fixed(2), X}, Shape{2, 512}},
		{2048, Template{Fixed(2), X}, Shape{2, 1024}},
		{16, Template{X, X}, Shape{4, 4}},
		{256, Template{Scaled(4), X}, Shape{32, 8}},
		{"10kb", Template{X, Bytes(1000)}, Shape{10, 1000}},
	}
	for _, test := range tests {
		actual, err := ScaledArrayShape(test.target, test.template, Bool)
		if assert.Nil(t, err, "%v %s", test.target, test.template) {
			assert.Equal(t, test.expected, actual, "%v %s", test.target, test.template)
		}
	}
}

func TestScaledArrayShapeFromStrings(t *testing.T) {
	template, err := ParseTemplate([]string{"x", "1kb"})
	assert.Nil(t, err)
	actual, err := ScaledArrayShape("10kb", template, Bool)
	assert.Nil(t, err)
	assert.Equal(t, Shape{10, 1000}, actual)
}

func TestBytesDimUsesItemSize(t *testing.T) {
	actual, err := ScaledArrayShape("80kb", Template{X, Bytes(8000)}, Float64)
	assert.Nil(t, err)
	assert.Equal(t, Shape{10, 1000}, actual)
}

func TestCoefficientsRoundPerPosition(t *testing.T) {
	// x = sqrt(1000 / 4) = 15.81..., so round(x) = 16 but round(4x) = 63, not 64.
	actual, err := ScaledArrayShape(1000, Template{X, Scaled(4)}, Bool)
	assert.Nil(t, err)
	assert.Equal(t, Shape{16, 63}, actual)

	x := math.Sqrt(1000.0 / 4)
	assert.Equal(t, int64(math.RoundToEven(4*x)), actual[1])
	assert.NotEqual(t, 4*actual[0], actual[1])
}

func TestMixedTemplate(t *testing.T) {
	template, err := ParseTemplate([]string{"10", "2x", "3", "x", "50"})
	assert.Nil(t, err)
	actual, err := ScaledArrayShape("1mb", template, Float64)
	assert.Nil(t, err)
	assert.Equal(t, Shape{10, 13, 3, 6, 50}, actual)
	assert.Equal(t, int64(936000), actual.NBytes(Float64))
}

func TestToleranceExceeded(t *testing.T) {
	// x = 1.5 rounds to 2: 2000 bytes against a 1500 byte target.
	_, err := ScaledArrayShape(1500, Template{Fixed(1000), X}, Bool)
	assert.True(t, saterrors.IsToleranceExceeded(err), "%v", err)
	te := err.(*saterrors.ToleranceExceededError)
	assert.Equal(t, int64(2000), te.Actual)
	assert.Equal(t, int64(1500), te.Target)
	assert.InDelta(t, 0.25, te.RelError, 1e-9)

	stat := stats.DefaultStatsReceiver()
	actual, err := NewSolver(0.3, stat).Solve(1500, Template{Fixed(1000), X}, Bool)
	assert.Nil(t, err)
	assert.Equal(t, Shape{1000, 2}, actual)
	assert.Equal(t, int64(1), stat.Counter(stats.ShapeSolvedCounter).Count())
}

func TestToleranceBoundary(t *testing.T) {
	// x = 0.9 rounds to 1: 1000 bytes against 900, an error of exactly 0.1.
	_, err := ScaledArrayShape(900, Template{Fixed(1000), X}, Bool)
	assert.True(t, saterrors.IsToleranceExceeded(err), "%v", err)
	te := err.(*saterrors.ToleranceExceededError)
	assert.Equal(t, DefaultMaxError, te.RelError)
	assert.Equal(t, DefaultMaxError, te.MaxError)

	actual, err := NewSolver(DefaultMaxError+1e-9, nil).Solve(900, Template{Fixed(1000), X}, Bool)
	assert.Nil(t, err)
	assert.Equal(t, Shape{1000, 1}, actual)
}

func TestOverflow(t *testing.T) {
	_, err := ScaledArrayShape(int64(math.MaxInt64), Template{X}, Bool)
	if assert.NotNil(t, err) {
		assert.Contains(t, err.Error(), "overflows int64")
		assert.False(t, saterrors.IsInfeasibleSize(err))
	}

	_, err = ScaledArrayShape(int64(math.MaxInt64), Template{Fixed(1 << 40), X}, Bool)
	if assert.NotNil(t, err) {
		assert.Contains(t, err.Error(), "overflows int64")
	}

	_, err = ScaledArrayShape(int64(math.MaxInt64), Template{X}, Int64)
	if assert.NotNil(t, err) {
		assert.Contains(t, err.Error(), "overflows int64")
	}

	_, ok := Shape{1 << 32, 1 << 32}.CheckedNBytes(Bool)
	assert.False(t, ok)
	n, ok := Shape{1 << 31, 1 << 31}.CheckedNBytes(Bool)
	assert.True(t, ok)
	assert.Equal(t, int64(1)<<62, n)
}

func TestInfeasible(t *testing.T) {
	_, err := ScaledArrayShape(10, Template{Fixed(1000), X}, Bool)
	assert.True(t, saterrors.IsInfeasibleSize(err), "%v", err)
	assert.Contains(t, err.Error(), "(1000, 0)")
}

func TestInvalidTemplates(t *testing.T) {
	_, err := ScaledArrayShape(1024, Template{Fixed(2), Fixed(512)}, Bool)
	assert.True(t, saterrors.IsInvalidTemplate(err))

	_, err = ScaledArrayShape(1024, Template{}, Bool)
	assert.True(t, saterrors.IsInvalidTemplate(err))

	_, err = ScaledArrayShape(1024, Template{Fixed(0), X}, Bool)
	assert.True(t, saterrors.IsInvalidTemplate(err))

	_, err = ScaledArrayShape(1024, Template{Bytes(4), X}, Float64)
	assert.True(t, saterrors.IsInvalidTemplate(err))

	_, err = ScaledArrayShape(1024, Template{Scaled(-2), X}, Bool)
	assert.True(t, saterrors.IsInvalidTemplate(err))

	_, err = ScaledArrayShape("lots", Template{X}, Bool)
	assert.NotNil(t, err)
}

func TestResolvedShapeHasNoFreeVariables(t *testing.T) {
	resolved, err := ScaledArrayShape(256, Template{Scaled(4), X}, Bool)
	assert.Nil(t, err)

	_, err = ScaledArrayShape(256, FixedTemplate(resolved), Bool)
	assert.True(t, saterrors.IsInvalidTemplate(err))
}

func TestParseDim(t *testing.T) {
	d, err := ParseDim("12")
	assert.Nil(t, err)
	assert.Equal(t, FixedDim, d.Kind)
	assert.Equal(t, int64(12), d.Extent)

	d, err = ParseDim("x")
	assert.Nil(t, err)
	assert.Equal(t, ScaledDim, d.Kind)
	assert.Equal(t, 1.0, d.Coefficient)

	d, err = ParseDim(" 0.5X ")
	assert.Nil(t, err)
	assert.Equal(t, ScaledDim, d.Kind)
	assert.Equal(t, 0.5, d.Coefficient)

	d, err = ParseDim("1kb")
	assert.Nil(t, err)
	assert.Equal(t, BytesDim, d.Kind)
	assert.Equal(t, int64(1000), d.Bytes.Int64())

	for _, bad := range []string{"", "abcx", "zz"} {
		_, err = ParseDim(bad)
		assert.True(t, saterrors.IsInvalidTemplate(err), bad)
	}
}

func TestStrings(t *testing.T) {
	template, err := ParseTemplate([]string{"2", "4x", "1kb"})
	assert.Nil(t, err)
	assert.Equal(t, `(2, "4x", "1kb")`, template.String())
	assert.Equal(t, `(2, "x", "2.5x")`, Template{Fixed(2), X, Scaled(2.5)}.String())
	assert.Equal(t, "(2, 512)", Shape{2, 512}.String())
	assert.Equal(t, "(7,)", Shape{7}.String())
}

func TestParseDType(t *testing.T) {
	for name, expected := range map[string]DType{"bool": Bool, "f8": Float64, "float": Float64, "Int32": Int32, "c16": Complex128} {
		dt, err := ParseDType(name)
		assert.Nil(t, err)
		assert.Equal(t, expected, dt)
	}
	_, err := ParseDType("decimal")
	assert.NotNil(t, err)
}

func TestSingleScaledDimWithinTolerance(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	itemSizes := []DType{Bool, Int16, Float32, Float64, Complex128}

	properties.Property("one x dim solves within max error", prop.ForAll(
		func(a, b int64, dtIdx int, scale int64, frac float64) bool {
			dtype := itemSizes[dtIdx]
			fixed := a * b * dtype.ItemSize
			// x >= 10 keeps the rounding error of a single dim under 5%.
			target := fixed*scale + int64(frac*float64(fixed))
			shape, err := ScaledArrayShape(target, Template{Fixed(a), X, Fixed(b)}, dtype)
			if err != nil {
				return false
			}
			actual := shape.NBytes(dtype)
			return math.Abs(float64(actual-target))/float64(actual) < DefaultMaxError
		},
		gen.Int64Range(1, 64),
		gen.Int64Range(1, 64),
		gen.IntRange(0, len(itemSizes)-1),
		gen.Int64Range(10, 100000),
		gen.Float64Range(0, 1),
	))

	properties.Property("result is either within tolerance or an error", prop.ForAll(
		func(fixed int64, target int64) bool {
			shape, err := ScaledArrayShape(target, Template{Fixed(fixed), X}, Bool)
			if err != nil {
				return saterrors.IsToleranceExceeded(err) || saterrors.IsInfeasibleSize(err)
			}
			actual := shape.NBytes(Bool)
			return math.Abs(float64(actual-target))/float64(actual) < DefaultMaxError
		},
		gen.Int64Range(1, 1000),
		gen.Int64Range(1, 1000000),
	))

	properties.TestingRun(t)
}
