package timeseries

import (
	"fmt"
	"sort"
	"strings"
)

type ColumnType int

const (
	String ColumnType = iota
	Int
	Float
)

func (c ColumnType) String() string {
	switch c {
	case String:
		return "string"
	case Int:
		return "int"
	case Float:
		return "float"
	}
	return fmt.Sprintf("ColumnType(%d)", int(c))
}

func ParseColumnType(s string) (ColumnType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "string", "str", "object":
		return String, nil
	case "int", "integer", "int64":
		return Int, nil
	case "float", "float64", "double":
		return Float, nil
	}
	return 0, fmt.Errorf("unknown column type %q, expected string, int or float", s)
}

// ParseDTypes converts {"name": "string", "x": "float"} into column types.
func ParseDTypes(m map[string]string) (map[string]ColumnType, error) {
	dtypes := make(map[string]ColumnType, len(m))
	for name, typ := range m {
		ct, err := ParseColumnType(typ)
		if err != nil {
			return nil, fmt.Errorf("column %q: %v", name, err)
		}
		dtypes[name] = ct
	}
	return dtypes, nil
}

// DefaultDTypes are used when no columns are given.
func DefaultDTypes() map[string]ColumnType {
	return map[string]ColumnType{"name": String, "id": Int, "x": Float, "y": Float}
}

var names = []string{
	"Alice", "Bob", "Charlie", "Dan", "Edith", "Frank", "George", "Hannah",
	"Ingrid", "Jerry", "Kevin", "Laura", "Michael", "Norbert", "Oliver",
	"Patricia", "Quinn", "Ray", "Sarah", "Tim", "Ursula", "Victor", "Wendy",
	"Xavier", "Yvonne", "Zelda",
}

// Generation parameters per column type, keyed "<column>_<param>".
const (
	defaultLam  = 1000.0
	defaultLow  = -1.0
	defaultHigh = 1.0
)

var columnParams = map[ColumnType][]string{
	String: {"nunique"},
	Int:    {"lam"},
	Float:  {"low", "high"},
}

type columnSpec struct {
	name string
	typ  ColumnType

	lam       float64
	low, high float64
	nunique   int
}

// resolveColumns orders columns by name and applies pass-through params.
func resolveColumns(dtypes map[string]ColumnType, kwargs map[string]float64) ([]columnSpec, error) {
	if len(dtypes) == 0 {
		return nil, fmt.Errorf("no columns")
	}
	specs := make([]columnSpec, 0, len(dtypes))
	byName := make(map[string]int, len(dtypes))
	for name, typ := range dtypes {
		if _, ok := columnParams[typ]; !ok {
			return nil, fmt.Errorf("column %q has unknown type %v", name, typ)
		}
		specs = append(specs, columnSpec{
			name: name, typ: typ,
			lam: defaultLam, low: defaultLow, high: defaultHigh, nunique: len(names),
		})
	}
	sort.Slice(specs, func(i, j int) bool { return specs[i].name < specs[j].name })
	for i, s := range specs {
		byName[s.name] = i
	}

	for key, value := range kwargs {
		sep := strings.LastIndex(key, "_")
		if sep <= 0 {
			return nil, fmt.Errorf("parameter %q is not of the form <column>_<param>", key)
		}
		col, param := key[:sep], key[sep+1:]
		idx, ok := byName[col]
		if !ok {
			return nil, fmt.Errorf("parameter %q refers to unknown column %q", key, col)
		}
		spec := &specs[idx]
		switch {
		case spec.typ == Int && param == "lam":
			if value < 0 {
				return nil, fmt.Errorf("parameter %q must be >= 0, got %v", key, value)
			}
			spec.lam = value
		case spec.typ == Float && param == "low":
			spec.low = value
		case spec.typ == Float && param == "high":
			spec.high = value
		case spec.typ == String && param == "nunique":
			if value < 1 || value > float64(len(names)) {
				return nil, fmt.Errorf("parameter %q must be in [1, %d], got %v", key, len(names), value)
			}
			spec.nunique = int(value)
		default:
			return nil, fmt.Errorf("parameter %q: %v column %q accepts %v", key, spec.typ, col, columnParams[spec.typ])
		}
	}
	for _, s := range specs {
		if s.typ == Float && s.low >= s.high {
			return nil, fmt.Errorf("column %q: low %v must be below high %v", s.name, s.low, s.high)
		}
	}
	return specs, nil
}
