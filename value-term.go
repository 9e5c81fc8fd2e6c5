package bert

import (
	"fmt"
	"iter"
	"math/big"
	"strconv"

	"golang.org/x/exp/constraints"
)

// TermSource adapts a decoded Term to a Source.
//
// Integers (SmallInt, Int and SmallBig) convert to any integer width they fit into.
// Their String form is the decimal representation, which makes big.Int targets work.
// Atom, Binary and String convert to string, the atoms true and false also to bool.
// List, Tuple and Nil are iterable, so are Binary and String byte by byte.
// Map supports Get and KeyValues, as does a proplist: a list of
// two element tuples with an atom, binary or string as the first element.
func TermSource(term Term) Source {
	return termSource{term: term}
}

type termSource struct {
	term Term
}

var _ IntSource = termSource{}

// Term returns the underlying term. Unmarshal uses it to fill fields of type Term.
func (s termSource) Term() Term {
	return s.term
}

func (s termSource) Bool() (bool, error) {
	atom, _ := s.term.(Atom)

	switch atom {
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return false, ErrNotSupported
	}
}

func (s termSource) Int() (int64, error) {
	switch term := s.term.(type) {
	case SmallInt:
		return int64(term), nil

	case Int:
		return int64(term), nil

	case SmallBig:
		value, ok := term.Int64()
		if !ok {
			return 0, fmt.Errorf("value %s does not fit int64: %w", term, ErrBigIntegerOverflow)
		}

		return value, nil

	default:
		return 0, ErrNotSupported
	}
}

func (s termSource) Uint() (uint64, error) {
	switch term := s.term.(type) {
	case SmallInt:
		return uint64(term), nil

	case Int:
		return uint64(term), nil

	case SmallBig:
		if term.Negative && !isZero(term.Magnitude) {
			return 0, ErrNotSupported
		}

		value, ok := term.Uint64()
		if !ok {
			return 0, fmt.Errorf("value %s does not fit uint64: %w", term, ErrBigIntegerOverflow)
		}

		return value, nil

	default:
		return 0, ErrNotSupported
	}
}

func (s termSource) Float() (float64, error) {
	switch term := s.term.(type) {
	case SmallInt:
		return float64(term), nil

	case Int:
		return float64(term), nil

	case SmallBig:
		value, _ := new(big.Float).SetInt(term.BigInt()).Float64()
		return value, nil

	default:
		return 0, ErrNotSupported
	}
}

func (s termSource) String() (string, error) {
	switch term := s.term.(type) {
	case Atom:
		return string(term), nil

	case Binary:
		return string(term), nil

	case String:
		return string(term), nil

	case SmallInt, Int, SmallBig:
		return term.String(), nil

	default:
		return "", ErrNotSupported
	}
}

func (s termSource) Get(key string) (Source, error) {
	switch term := s.term.(type) {
	case Map:
		value, ok := term[key]
		if !ok {
			return nil, ErrNoValue
		}

		return TermSource(value), nil

	case List:
		for name, value := range proplist(term.Items) {
			if name == key {
				return TermSource(value), nil
			}
		}

		return nil, ErrNoValue

	case Nil:
		return nil, ErrNoValue

	default:
		return nil, ErrNotSupported
	}
}

func (s termSource) KeyValues() (iter.Seq2[Source, Source], error) {
	var pairs iter.Seq2[string, Term]

	switch term := s.term.(type) {
	case Map:
		pairs = func(yield func(string, Term) bool) {
			for key, value := range term {
				if !yield(key, value) {
					return
				}
			}
		}

	case List:
		pairs = proplist(term.Items)

	case Nil:
		pairs = proplist(nil)

	default:
		return nil, ErrNotSupported
	}

	it := func(yield func(Source, Source) bool) {
		for key, value := range pairs {
			if !yield(StringSource(key), TermSource(value)) {
				return
			}
		}
	}

	return it, nil
}

func (s termSource) Iter() (iter.Seq[Source], error) {
	var items []Term

	switch term := s.term.(type) {
	case List:
		items = term.Items

	case Tuple:
		items = term

	case Nil:
		// empty

	case Binary:
		return bytesIter(term), nil

	case String:
		return bytesIter(term), nil

	default:
		return nil, ErrNotSupported
	}

	it := func(yield func(Source) bool) {
		for _, item := range items {
			if !yield(TermSource(item)) {
				return
			}
		}
	}

	return it, nil
}

func (s termSource) Int8() (int8, error)   { return toSigned[int8](s) }
func (s termSource) Int16() (int16, error) { return toSigned[int16](s) }
func (s termSource) Int32() (int32, error) { return toSigned[int32](s) }
func (s termSource) Int64() (int64, error) { return s.Int() }

func (s termSource) Uint8() (uint8, error)   { return toUnsigned[uint8](s) }
func (s termSource) Uint16() (uint16, error) { return toUnsigned[uint16](s) }
func (s termSource) Uint32() (uint32, error) { return toUnsigned[uint32](s) }
func (s termSource) Uint64() (uint64, error) { return s.Uint() }

func toSigned[T constraints.Signed](s termSource) (T, error) {
	value, err := s.Int()
	if err != nil {
		return 0, err
	}

	if int64(T(value)) != value {
		return 0, fmt.Errorf("invalid %T value %d: %w", T(0), value, strconv.ErrRange)
	}

	return T(value), nil
}

func toUnsigned[T constraints.Unsigned](s termSource) (T, error) {
	value, err := s.Uint()
	if err != nil {
		return 0, err
	}

	if uint64(T(value)) != value {
		return 0, fmt.Errorf("invalid %T value %d: %w", T(0), value, strconv.ErrRange)
	}

	return T(value), nil
}

func bytesIter(buf []byte) iter.Seq[Source] {
	return func(yield func(Source) bool) {
		for _, b := range buf {
			if !yield(TermSource(SmallInt(b))) {
				return
			}
		}
	}
}

// proplist yields the key/value pairs of all two element tuples in items
// that have a textual key. Other items are skipped.
func proplist(items []Term) iter.Seq2[string, Term] {
	return func(yield func(string, Term) bool) {
		for _, item := range items {
			tuple, ok := item.(Tuple)
			if !ok || len(tuple) != 2 {
				continue
			}

			var key string
			switch name := tuple[0].(type) {
			case Atom:
				key = string(name)
			case Binary:
				key = string(name)
			case String:
				key = string(name)
			default:
				continue
			}

			if !yield(key, tuple[1]) {
				return
			}
		}
	}
}

func isZero(magnitude []byte) bool {
	for _, b := range magnitude {
		if b != 0 {
			return false
		}
	}

	return true
}
