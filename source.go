package bert

import "iter"

// Source is the view of a decoded value that Unmarshal pulls data from.
// [TermSource] implements it for every [Term] variant.
//
// If converting the Source into a particular type isn't possible, the method must return
// [ErrNotSupported] as the error. Unmarshal then reports that the term does not fit
// the shape of the target type.
//
// Two ready-to-use building blocks are included for custom implementations:
//
//  1. [StringSource] parses strings into numbers and booleans using strconv. Map keys
//     are exposed as StringSource values.
//
//  2. [EmptySource] returns [ErrNotSupported] for all methods and can be embedded.
type Source interface {
	// Bool returns the current value as a bool.
	// Returns error ErrNotSupported if the value can not be represented as such.
	Bool() (bool, error)

	// Int returns the current value as an int64.
	// Returns error ErrNotSupported if the value can not be represented as such.
	Int() (int64, error)

	// Uint returns the current value as an uint64.
	// Returns error ErrNotSupported if the value can not be represented as such.
	Uint() (uint64, error)

	// Float returns the current value as a float64.
	// Returns error ErrNotSupported if the value can not be represented as such.
	Float() (float64, error)

	// String returns the current value as a string.
	// Returns error ErrNotSupported if the value can not be represented as such.
	String() (string, error)

	// Get returns a child value of this [Source] if it exists.
	// Returns error [ErrNotSupported] if the current [Source] does not have any
	// child values. If the [Source] does have children, but just not the
	// requested child, [ErrNoValue] must be returned.
	Get(key string) (Source, error)

	// KeyValues interprets the [Source] as a map and iterates over the
	// elements within. It yields a pair of key and value [Source] instances.
	// Returns [ErrNotSupported] if the [Source] is not iterable.
	KeyValues() (iter.Seq2[Source, Source], error)

	// Iter interprets the [Source] as a slice and iterates over the
	// elements within.
	// Returns [ErrNotSupported] if the [Source] is not iterable.
	Iter() (iter.Seq[Source], error)
}

// IntSource extends [Source] with range checked accessors for sized integers.
// Unmarshal prefers these over [Source.Int] and [Source.Uint].
// A value that does not fit the requested width fails with an error
// wrapping [strconv.ErrRange].
type IntSource interface {
	Source

	Int8() (int8, error)
	Int16() (int16, error)
	Int32() (int32, error)
	Int64() (int64, error)

	Uint8() (uint8, error)
	Uint16() (uint16, error)
	Uint32() (uint32, error)
	Uint64() (uint64, error)
}
