// Package bytesize parses and renders human-readable byte counts such as
// "10kb" or "1.5 GiB". Decimal suffixes (kb, mb, gb, tb, pb) use powers of
// 1000; the binary forms (kib, mib, ...) use powers of 1024.
package bytesize

import (
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
)

// ByteSize is a non-negative count of bytes.
type ByteSize int64

const (
	Byte     ByteSize = 1
	Kilobyte          = 1000 * Byte
	Megabyte          = 1000 * Kilobyte
	Gigabyte          = 1000 * Megabyte
	Terabyte          = 1000 * Gigabyte
)

// Parse converts strings like "1mb", "10 KB", "2.5gib" or "512" to a ByteSize.
// A missing numeric prefix means one unit, so "mb" is 1,000,000 bytes.
func Parse(s string) (ByteSize, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return 0, fmt.Errorf("empty byte size")
	}
	if unicode.IsLetter(rune(trimmed[0])) {
		trimmed = "1" + trimmed
	}
	n, err := humanize.ParseBytes(trimmed)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid byte size %q", s)
	}
	if n > math.MaxInt64 {
		return 0, fmt.Errorf("byte size %q overflows int64", s)
	}
	return ByteSize(n), nil
}

// Normalize accepts either an integer byte count or a human-readable string.
func Normalize(v interface{}) (ByteSize, error) {
	var n int64
	switch t := v.(type) {
	case ByteSize:
		n = int64(t)
	case int:
		n = int64(t)
	case int32:
		n = int64(t)
	case int64:
		n = t
	case uint:
		if uint64(t) > math.MaxInt64 {
			return 0, fmt.Errorf("byte size %d overflows int64", t)
		}
		n = int64(t)
	case uint32:
		n = int64(t)
	case uint64:
		if t > math.MaxInt64 {
			return 0, fmt.Errorf("byte size %d overflows int64", t)
		}
		n = int64(t)
	case string:
		return Parse(t)
	default:
		return 0, fmt.Errorf("unsupported byte size type %T", v)
	}
	if n < 0 {
		return 0, fmt.Errorf("negative byte size %d", n)
	}
	return ByteSize(n), nil
}

func (b ByteSize) Int64() int64 { return int64(b) }

func (b ByteSize) Float64() float64 { return float64(b) }

// String renders the size with decimal units, e.g. "10 kB".
func (b ByteSize) String() string {
	if b < 0 {
		return fmt.Sprintf("%d B", int64(b))
	}
	return humanize.Bytes(uint64(b))
}
