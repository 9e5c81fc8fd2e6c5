package bert

import (
	"fmt"
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStringSource(t *testing.T) {
	parseTest(t, stringValueTestValues[int64]{
		MinIn:        "-9223372036854775808",
		MinOut:       math.MinInt64,
		MaxIn:        "9223372036854775807",
		MaxOut:       math.MaxInt64,
		OutOfRange:   []string{"-9223372036854775809", "9223372036854775808"},
		NotSupported: []string{"foobar", "", "1e4"},
	})

	parseTest(t, stringValueTestValues[int8]{
		MinIn:        "-128",
		MinOut:       -128,
		MaxIn:        "127",
		MaxOut:       127,
		OutOfRange:   []string{"-129", "128"},
		NotSupported: []string{"foobar", "", "1e4"},
	})

	parseTest(t, stringValueTestValues[int32]{
		MinIn:        "-2147483648",
		MinOut:       -2147483648,
		MaxIn:        "2147483647",
		MaxOut:       2147483647,
		OutOfRange:   []string{"-2147483649", "2147483648"},
		NotSupported: []string{"foobar", "", "1e4"},
	})

	parseTest(t, stringValueTestValues[uint16]{
		MinIn:        "0",
		MinOut:       0,
		MaxIn:        "65535",
		MaxOut:       65535,
		OutOfRange:   []string{"65536"},
		NotSupported: []string{"foobar", "", "1e4", "-1"},
	})

	parseTest(t, stringValueTestValues[uint64]{
		MinIn:        "0",
		MinOut:       0,
		MaxIn:        "18446744073709551615",
		MaxOut:       math.MaxUint64,
		OutOfRange:   []string{"18446744073709551616"},
		NotSupported: []string{"foobar", "", "1e4", "-1"},
	})

	parseTest(t, stringValueTestValues[bool]{
		MinIn:        "true",
		MinOut:       true,
		MaxIn:        "false",
		MaxOut:       false,
		NotSupported: []string{"foobar", "", "1e4", "-1"},
	})

	parseTest(t, stringValueTestValues[float64]{
		MinIn:        "-1234.5",
		MinOut:       -1234.5,
		MaxIn:        "1235.5",
		MaxOut:       1235.5,
		Valid:        []string{"1e4", "-1", "0.0024"},
		NotSupported: []string{"foobar", ""},
	})
}

type stringValueTestValues[T any] struct {
	MinIn  string
	MinOut T

	MaxIn  string
	MaxOut T

	OutOfRange   []string
	NotSupported []string
	Valid        []string
}

func parseTest[T any](t *testing.T, v stringValueTestValues[T]) {
	var tZero T

	t.Run(fmt.Sprintf("parse to %T", tZero), func(t *testing.T) {
		actual, err := unmarshalSource[T](StringSource(v.MinIn))
		require.NoError(t, err)
		require.Equal(t, v.MinOut, actual)

		actual, err = unmarshalSource[T](StringSource(v.MaxIn))
		require.NoError(t, err)
		require.Equal(t, v.MaxOut, actual)

		for _, value := range v.OutOfRange {
			actual, err = unmarshalSource[T](StringSource(value))
			require.ErrorIs(t, err, strconv.ErrRange)
			require.Equal(t, tZero, actual)
		}

		for _, value := range v.NotSupported {
			actual, err = unmarshalSource[T](StringSource(value))
			require.ErrorIs(t, err, ErrNotSupported)
			require.Equal(t, tZero, actual)
		}

		for _, value := range v.Valid {
			_, err = unmarshalSource[T](StringSource(value))
			require.NoError(t, err)
		}
	})
}

func unmarshalSource[T any](source Source) (T, error) {
	var target T
	err := dec.UnmarshalSource(source, &target)
	return target, err
}

func TestStringSourceMalformedKeepsSyntaxError(t *testing.T) {
	_, err := StringSource("12a").Int16()
	require.ErrorIs(t, err, ErrNotSupported)
	require.ErrorIs(t, err, strconv.ErrSyntax)

	_, err = StringSource("70000").Uint16()
	require.ErrorIs(t, err, strconv.ErrRange)
	require.NotErrorIs(t, err, ErrNotSupported)
}

// wideSource only implements the plain Source methods, integers must be
// range checked by the setter.
type wideSource struct {
	EmptySource
	value int64
}

func (s wideSource) Int() (int64, error)     { return s.value, nil }
func (s wideSource) Uint() (uint64, error)   { return uint64(s.value), nil }
func (s wideSource) Float() (float64, error) { return float64(s.value), nil }

func TestUnmarshalWideSource(t *testing.T) {
	value, err := unmarshalSource[int8](wideSource{value: -128})
	require.NoError(t, err)
	require.Equal(t, int8(-128), value)

	_, err = unmarshalSource[int8](wideSource{value: 128})
	require.ErrorIs(t, err, strconv.ErrRange)

	_, err = unmarshalSource[uint16](wideSource{value: 70000})
	require.ErrorIs(t, err, strconv.ErrRange)

	floatValue, err := unmarshalSource[float32](wideSource{value: 3})
	require.NoError(t, err)
	require.Equal(t, float32(3), floatValue)

	_, err = unmarshalSource[string](wideSource{value: 3})
	require.ErrorIs(t, err, ErrNotSupported)
}
