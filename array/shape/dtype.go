package shape

import (
	"fmt"
	"strings"
)

// DType is an array element type. Names follow numpy.
type DType struct {
	Name     string
	ItemSize int64
}

var (
	Bool       = DType{"bool", 1}
	Int8       = DType{"int8", 1}
	Uint8      = DType{"uint8", 1}
	Int16      = DType{"int16", 2}
	Uint16     = DType{"uint16", 2}
	Float16    = DType{"float16", 2}
	Int32      = DType{"int32", 4}
	Uint32     = DType{"uint32", 4}
	Float32    = DType{"float32", 4}
	Int64      = DType{"int64", 8}
	Uint64     = DType{"uint64", 8}
	Float64    = DType{"float64", 8}
	Complex64  = DType{"complex64", 8}
	Complex128 = DType{"complex128", 16}
)

var dtypes = map[string]DType{
	"bool": Bool, "?": Bool, "b1": Bool,
	"int8": Int8, "i1": Int8,
	"uint8": Uint8, "u1": Uint8,
	"int16": Int16, "i2": Int16,
	"uint16": Uint16, "u2": Uint16,
	"float16": Float16, "f2": Float16,
	"int32": Int32, "i4": Int32,
	"uint32": Uint32, "u4": Uint32,
	"float32": Float32, "f4": Float32,
	"int64": Int64, "i8": Int64, "int": Int64,
	"uint64": Uint64, "u8": Uint64,
	"float64": Float64, "f8": Float64, "float": Float64,
	"complex64": Complex64, "c8": Complex64,
	"complex128": Complex128, "c16": Complex128, "complex": Complex128,
}

// ParseDType resolves a numpy style type name or short code.
func ParseDType(name string) (DType, error) {
	if dt, ok := dtypes[strings.ToLower(strings.TrimSpace(name))]; ok {
		return dt, nil
	}
	return DType{}, fmt.Errorf("unknown dtype %q", name)
}

func (d DType) String() string { return d.Name }
