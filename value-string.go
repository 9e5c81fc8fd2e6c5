package bert

import (
	"errors"
	"fmt"
	"iter"
	"strconv"
	"unsafe"

	"golang.org/x/exp/constraints"
)

// StringSource is a Source over a plain string. Numbers and booleans are
// parsed with strconv. Text that does not parse fails with ErrNotSupported,
// numbers that do not fit the requested width fail with strconv.ErrRange.
//
// Map keys are handed out as StringSource, so a Map with integer keys
// can be unmarshalled into a map[int]T.
type StringSource string

var _ IntSource = StringSource("")

func (s StringSource) Int8() (int8, error)   { return parseSigned[int8](s) }
func (s StringSource) Int16() (int16, error) { return parseSigned[int16](s) }
func (s StringSource) Int32() (int32, error) { return parseSigned[int32](s) }
func (s StringSource) Int64() (int64, error) { return parseSigned[int64](s) }
func (s StringSource) Int() (int64, error)   { return parseSigned[int64](s) }

func (s StringSource) Uint8() (uint8, error)   { return parseUnsigned[uint8](s) }
func (s StringSource) Uint16() (uint16, error) { return parseUnsigned[uint16](s) }
func (s StringSource) Uint32() (uint32, error) { return parseUnsigned[uint32](s) }
func (s StringSource) Uint64() (uint64, error) { return parseUnsigned[uint64](s) }
func (s StringSource) Uint() (uint64, error)   { return parseUnsigned[uint64](s) }

func (s StringSource) Bool() (bool, error) {
	value, err := strconv.ParseBool(string(s))
	return checkParsed(s, value, err)
}

func (s StringSource) Float() (float64, error) {
	value, err := strconv.ParseFloat(string(s), 64)
	return checkParsed(s, value, err)
}

func (s StringSource) String() (string, error) {
	return string(s), nil
}

func (StringSource) Get(string) (Source, error) {
	return nil, ErrNotSupported
}

func (StringSource) KeyValues() (iter.Seq2[Source, Source], error) {
	return nil, ErrNotSupported
}

func (StringSource) Iter() (iter.Seq[Source], error) {
	return nil, ErrNotSupported
}

func bitSize[T constraints.Integer]() int {
	return int(unsafe.Sizeof(T(0))) * 8
}

func parseSigned[T constraints.Signed](s StringSource) (T, error) {
	value, err := strconv.ParseInt(string(s), 10, bitSize[T]())
	return checkParsed(s, T(value), err)
}

func parseUnsigned[T constraints.Unsigned](s StringSource) (T, error) {
	value, err := strconv.ParseUint(string(s), 10, bitSize[T]())
	return checkParsed(s, T(value), err)
}

// checkParsed drops value if err is set. Malformed text is reported as
// ErrNotSupported, range errors are passed through.
func checkParsed[T any](s StringSource, value T, err error) (T, error) {
	switch {
	case err == nil:
		return value, nil

	case errors.Is(err, strconv.ErrSyntax):
		var zero T
		return zero, fmt.Errorf("%q is not a %T: %w: %w", string(s), zero, err, ErrNotSupported)

	default:
		var zero T
		return zero, err
	}
}
