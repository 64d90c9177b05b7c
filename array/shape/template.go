package shape

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/twitter/saturation/common/bytesize"
	saterrors "github.com/twitter/saturation/common/errors"
)

type DimKind int

const (
	FixedDim DimKind = iota
	BytesDim
	ScaledDim
)

// Dim is one entry of a Template: a fixed extent, a byte size to be converted
// to an element count, or a scaling token "{coefficient}x".
type Dim struct {
	Kind        DimKind
	Extent      int64
	Bytes       bytesize.ByteSize
	Coefficient float64

	raw string
}

func Fixed(extent int64) Dim {
	return Dim{Kind: FixedDim, Extent: extent}
}

func Bytes(size bytesize.ByteSize) Dim {
	return Dim{Kind: BytesDim, Bytes: size}
}

func Scaled(coefficient float64) Dim {
	return Dim{Kind: ScaledDim, Coefficient: coefficient}
}

// X is the scaling token with coefficient 1.
var X = Scaled(1)

// ParseDim accepts "12" (fixed), "x", "4x", "0.5x" (scaled) or a byte size
// string such as "1kb".
func ParseDim(s string) (Dim, error) {
	trimmed := strings.ToLower(strings.TrimSpace(s))
	if trimmed == "" {
		return Dim{}, saterrors.NewInvalidTemplateError("empty dimension")
	}
	if strings.HasSuffix(trimmed, "x") {
		coeff := 1.0
		if prefix := strings.TrimSpace(trimmed[:len(trimmed)-1]); prefix != "" {
			c, err := strconv.ParseFloat(prefix, 64)
			if err != nil {
				return Dim{}, saterrors.NewInvalidTemplateError("bad coefficient in %q", s)
			}
			coeff = c
		}
		d := Scaled(coeff)
		d.raw = s
		return d, nil
	}
	if n, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return Fixed(n), nil
	}
	b, err := bytesize.Parse(trimmed)
	if err != nil {
		return Dim{}, saterrors.NewInvalidTemplateError("cannot parse dimension %q: %v", s, err)
	}
	d := Bytes(b)
	d.raw = s
	return d, nil
}

func (d Dim) String() string {
	if d.raw != "" {
		return fmt.Sprintf("%q", d.raw)
	}
	switch d.Kind {
	case FixedDim:
		return strconv.FormatInt(d.Extent, 10)
	case BytesDim:
		return fmt.Sprintf("%q", d.Bytes.String())
	case ScaledDim:
		if d.Coefficient == 1 {
			return `"x"`
		}
		return fmt.Sprintf(`"%sx"`, strconv.FormatFloat(d.Coefficient, 'g', -1, 64))
	}
	return "?"
}

// Template is an ordered shape specification with one or more scaled dims.
type Template []Dim

// ParseTemplate parses each element with ParseDim.
func ParseTemplate(dims []string) (Template, error) {
	t := make(Template, 0, len(dims))
	for _, s := range dims {
		d, err := ParseDim(s)
		if err != nil {
			return nil, err
		}
		t = append(t, d)
	}
	return t, nil
}

// NumScaled counts the scaled dims. A solvable template has at least one.
func (t Template) NumScaled() int {
	n := 0
	for _, d := range t {
		if d.Kind == ScaledDim {
			n++
		}
	}
	return n
}

// FixedTemplate turns a resolved shape back into a template of fixed dims.
func FixedTemplate(s Shape) Template {
	t := make(Template, len(s))
	for i, extent := range s {
		t[i] = Fixed(extent)
	}
	return t
}

func (t Template) String() string {
	parts := make([]string, len(t))
	for i, d := range t {
		parts[i] = d.String()
	}
	return tuple(parts)
}

// Shape is a resolved, fully concrete list of extents.
type Shape []int64

// NumElements is the product of all extents.
func (s Shape) NumElements() int64 {
	n := int64(1)
	for _, extent := range s {
		n *= extent
	}
	return n
}

// NBytes is the array's size for the given element type.
func (s Shape) NBytes(dtype DType) int64 {
	return s.NumElements() * dtype.ItemSize
}

// CheckedNBytes is NBytes that reports false instead of wrapping when the
// size does not fit in an int64.
func (s Shape) CheckedNBytes(dtype DType) (int64, bool) {
	n := dtype.ItemSize
	for _, extent := range s {
		if extent < 0 {
			return 0, false
		}
		if extent != 0 && n > math.MaxInt64/extent {
			return 0, false
		}
		n *= extent
	}
	return n, true
}

func (s Shape) String() string {
	parts := make([]string, len(s))
	for i, extent := range s {
		parts[i] = strconv.FormatInt(extent, 10)
	}
	return tuple(parts)
}

func tuple(parts []string) string {
	if len(parts) == 1 {
		return "(" + parts[0] + ",)"
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
