package bert

import (
	"fmt"
	"math/big"
	"slices"
	"strconv"
	"strings"
)

const (
	VersionTag = 131

	NewFloatTag      = 70
	BitTag           = 77
	SmallIntTag      = 97
	IntTag           = 98
	FloatTag         = 99
	AtomTag          = 100
	ReferenceTag     = 101
	PortTag          = 102
	PidTag           = 103
	SmallTupleTag    = 104
	LargeTupleTag    = 105
	NilTag           = 106
	StringTag        = 107
	ListTag          = 108
	BinTag           = 109
	SmallBignumTag   = 110
	LargeBignumTag   = 111
	NewFunTag        = 112
	ExportTag        = 113
	NewReferenceTag  = 114
	SmallAtomTag     = 115
	MapTag           = 116
	FunTag           = 117
	AtomUtf8Tag      = 118
	SmallAtomUtf8Tag = 119
)

var tagNames = map[byte]string{
	VersionTag:       "version",
	NewFloatTag:      "new float",
	BitTag:           "bit binary",
	SmallIntTag:      "small integer",
	IntTag:           "integer",
	FloatTag:         "float",
	AtomTag:          "atom",
	ReferenceTag:     "reference",
	PortTag:          "port",
	PidTag:           "pid",
	SmallTupleTag:    "small tuple",
	LargeTupleTag:    "large tuple",
	NilTag:           "nil",
	StringTag:        "string",
	ListTag:          "list",
	BinTag:           "binary",
	SmallBignumTag:   "small big integer",
	LargeBignumTag:   "large big integer",
	NewFunTag:        "new fun",
	ExportTag:        "export",
	NewReferenceTag:  "new reference",
	SmallAtomTag:     "small atom",
	MapTag:           "map",
	FunTag:           "fun",
	AtomUtf8Tag:      "atom utf8",
	SmallAtomUtf8Tag: "small atom utf8",
}

// TagName returns a human readable name of the given tag byte.
func TagName(tag byte) string {
	if name, ok := tagNames[tag]; ok {
		return name
	}

	return "tag " + strconv.Itoa(int(tag))
}

// Term is one decoded value. It is always one of the types SmallInt, Int,
// SmallBig, Atom, Binary, String, Nil, List, Tuple or Map.
type Term interface {
	fmt.Stringer
}

// SmallInt is an unsigned 8 bit integer.
type SmallInt uint8

// Int is a 32 bit integer. It is kept unsigned as read from the wire,
// use Signed to get the two's complement interpretation.
type Int uint32

// Signed returns the value interpreted as a signed 32 bit integer.
func (i Int) Signed() int32 {
	return int32(i)
}

// SmallBig is an integer of arbitrary precision. The magnitude is stored in
// little-endian byte order, exactly as found on the wire.
type SmallBig struct {
	Negative  bool
	Magnitude []byte
}

// BigInt returns the value as a newly allocated big.Int.
func (b SmallBig) BigInt() *big.Int {
	// walk from the most significant byte down: value = value*256 + byte
	value := new(big.Int)
	for idx := len(b.Magnitude) - 1; idx >= 0; idx-- {
		value.Lsh(value, 8)
		value.Or(value, big.NewInt(int64(b.Magnitude[idx])))
	}

	if b.Negative {
		value.Neg(value)
	}

	return value
}

// Int64 returns the value as an int64. The second return value is false if
// the value does not fit.
func (b SmallBig) Int64() (int64, bool) {
	value := b.BigInt()
	if !value.IsInt64() {
		return 0, false
	}

	return value.Int64(), true
}

// Uint64 returns the value as an uint64. The second return value is false if
// the value is negative or does not fit.
func (b SmallBig) Uint64() (uint64, bool) {
	value := b.BigInt()
	if !value.IsUint64() {
		return 0, false
	}

	return value.Uint64(), true
}

// Atom is decoded from both the atom and the small utf8 atom tags.
type Atom string

// Binary is an opaque sequence of bytes.
type Binary []byte

// String is an erlang string, a list of small integers that was packed
// into a byte sequence by the encoder.
type String []byte

// Values returns the elements of the string as small integers.
func (s String) Values() []SmallInt {
	values := make([]SmallInt, len(s))
	for idx, ch := range s {
		values[idx] = SmallInt(ch)
	}

	return values
}

// Nil is the empty list.
type Nil struct{}

// List is a list of terms. For an improper list, Improper is set and the
// last item holds the tail.
type List struct {
	Items    []Term
	Improper bool
}

// Elements returns the items of the list without the tail of an improper list.
func (l List) Elements() []Term {
	if l.Improper && len(l.Items) > 0 {
		return l.Items[:len(l.Items)-1]
	}

	return l.Items
}

// Tail returns the tail of an improper list, or Nil for a proper list.
func (l List) Tail() Term {
	if l.Improper && len(l.Items) > 0 {
		return l.Items[len(l.Items)-1]
	}

	return Nil{}
}

// Tuple is decoded from both the small and the large tuple tags.
type Tuple []Term

// Map maps the string form of each key (see MapKey) to its value. Keys
// with the same string form collide, the one decoded last is kept.
type Map map[string]Term

// MapKey returns the string form under which a key is stored in a Map.
// Binary and String keys are their raw text, so #{<<"name">> => 1} and
// #{name => 1} are both found under "name". Other keys use Format.
func MapKey(key Term) string {
	switch key := key.(type) {
	case Binary:
		return string(key)
	case String:
		return string(key)
	default:
		return Format(key)
	}
}

// Format returns the display form of a term.
func Format(term Term) string {
	var sb strings.Builder
	writeTerm(&sb, term)
	return sb.String()
}

func (i SmallInt) String() string { return strconv.FormatUint(uint64(i), 10) }
func (i Int) String() string      { return strconv.FormatUint(uint64(i), 10) }
func (b SmallBig) String() string { return b.BigInt().String() }
func (a Atom) String() string     { return string(a) }
func (b Binary) String() string   { return Format(b) }
func (s String) String() string   { return strconv.Quote(string(s)) }
func (n Nil) String() string      { return "[]" }
func (l List) String() string     { return Format(l) }
func (t Tuple) String() string    { return Format(t) }
func (m Map) String() string      { return Format(m) }

func writeTerm(sb *strings.Builder, term Term) {
	switch term := term.(type) {
	case Binary:
		sb.WriteString("<<")
		for idx, b := range term {
			if idx > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(strconv.Itoa(int(b)))
		}
		sb.WriteString(">>")

	case List:
		sb.WriteByte('[')
		elements := term.Elements()
		for idx, item := range elements {
			if idx > 0 {
				sb.WriteByte(',')
			}
			writeTerm(sb, item)
		}

		if term.Improper {
			sb.WriteByte('|')
			writeTerm(sb, term.Tail())
		}
		sb.WriteByte(']')

	case Tuple:
		sb.WriteByte('{')
		for idx, item := range term {
			if idx > 0 {
				sb.WriteByte(',')
			}
			writeTerm(sb, item)
		}
		sb.WriteByte('}')

	case Map:
		// sort keys for a stable display form
		keys := make([]string, 0, len(term))
		for key := range term {
			keys = append(keys, key)
		}
		slices.Sort(keys)

		sb.WriteString("#{")
		for idx, key := range keys {
			if idx > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(key)
			sb.WriteString(" => ")
			writeTerm(sb, term[key])
		}
		sb.WriteByte('}')

	case nil:
		sb.WriteString("undefined")

	default:
		sb.WriteString(term.String())
	}
}
