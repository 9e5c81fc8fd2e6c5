package bert

import (
	"fmt"
	"slices"
	"sync"
	"unsafe"

	"golang.org/x/exp/constraints"
)

// DefaultMaxDepth is the nesting depth of tuples, lists and maps a decoder
// accepts unless configured otherwise.
const DefaultMaxDepth = 512

// The default Decoder instance.
var dec = NewDecoder()

// Decode decodes the single term in data using the default decoder.
// It returns the term and the number of bytes consumed, including the
// version marker. See Decoder.Decode.
func Decode(data []byte) (Term, int, error) {
	return dec.Decode(data)
}

// DecodeAll is like Decode, but fails with ErrTrailingData if data
// contains more than one term.
func DecodeAll(data []byte) (Term, error) {
	return dec.DecodeAll(data)
}

// Decoder can be used to customize decoding and unmarshalling.
// A Decoder is safe for concurrent use.
type Decoder struct {
	// maximum nesting of composite terms
	maxDepth int

	// the struct tag that is used
	structTag string

	// Require values for fields. Set to true to fail with ErrNoValue
	// if a value is missing in a term
	requireValues bool

	// Cache for setters, indexed by reflect.Type
	setterCache sync.Map
}

func NewDecoder() *Decoder {
	return &Decoder{
		maxDepth:  DefaultMaxDepth,
		structTag: "bert",
	}
}

// WithMaxDepth returns a decoder that fails with ErrMaxDepth once terms are
// nested deeper than maxDepth.
func (d *Decoder) WithMaxDepth(maxDepth int) *Decoder {
	if d.maxDepth == maxDepth {
		return d
	}

	return &Decoder{
		maxDepth:      maxDepth,
		structTag:     d.structTag,
		requireValues: d.requireValues,
	}
}

// WithTag returns a decoder that reads field names from the given struct tag.
func (d *Decoder) WithTag(structTag string) *Decoder {
	if d.structTag == structTag {
		return d
	}

	return &Decoder{
		maxDepth:      d.maxDepth,
		structTag:     structTag,
		requireValues: d.requireValues,
	}
}

// RequireValues returns a decoder that fails with ErrNoValue if a struct
// field has no matching value.
func (d *Decoder) RequireValues() *Decoder {
	if d.requireValues {
		return d
	}

	return &Decoder{
		maxDepth:      d.maxDepth,
		structTag:     d.structTag,
		requireValues: true,
	}
}

// Decode strips the version marker and decodes exactly one term from data.
// It returns the term and the number of bytes consumed. Bytes after the
// term are not looked at.
//
// On error, the term is nil and the returned count is the offset at
// which the problem was detected. The error is always a *SyntaxError.
func (d *Decoder) Decode(data []byte) (Term, int, error) {
	c := &cursor{data: data}

	version, err := c.readByte()
	if err != nil {
		return nil, c.offset, &SyntaxError{Offset: c.offset, Tag: VersionTag, Err: err}
	}

	if version != VersionTag {
		err := fmt.Errorf("got %d, expected %d: %w", version, VersionTag, ErrInvalidVersion)
		return nil, 0, &SyntaxError{Offset: 0, Tag: VersionTag, Err: err}
	}

	term, err := d.decodeTerm(c, 0)
	if err != nil {
		var offset int
		if syntaxErr, ok := err.(*SyntaxError); ok {
			offset = syntaxErr.Offset
		}

		return nil, offset, err
	}

	return term, c.offset, nil
}

// DecodeAll is like Decode, but requires data to hold exactly one term.
func (d *Decoder) DecodeAll(data []byte) (Term, error) {
	term, n, err := d.Decode(data)
	if err != nil {
		return nil, err
	}

	if n != len(data) {
		err := fmt.Errorf("%d bytes left: %w", len(data)-n, ErrTrailingData)
		return nil, &SyntaxError{Offset: n, Err: err}
	}

	return term, nil
}

// decodeTerm reads one tag and dispatches to the decodeFunc for that tag.
// depth is the number of composite terms enclosing this one.
func (d *Decoder) decodeTerm(c *cursor, depth int) (Term, error) {
	if depth > d.maxDepth {
		err := fmt.Errorf("depth %d: %w", depth, ErrMaxDepth)
		return nil, &SyntaxError{Offset: c.offset, Err: err}
	}

	tagOffset := c.offset

	tag, err := c.readByte()
	if err != nil {
		return nil, &SyntaxError{Offset: c.offset, Err: err}
	}

	decode := decoders[tag]
	if decode == nil {
		return nil, &SyntaxError{Offset: tagOffset, Tag: tag, Err: UnsupportedTagError{Tag: tag}}
	}

	term, err := decode(d, c, depth)
	if err != nil {
		if _, ok := err.(*SyntaxError); ok {
			return nil, err
		}

		return nil, &SyntaxError{Offset: c.offset, Tag: tag, Err: err}
	}

	return term, nil
}

// decodeFunc decodes the payload of a term. The cursor is positioned
// directly after the tag byte.
type decodeFunc func(d *Decoder, c *cursor, depth int) (Term, error)

// decoders maps a tag byte to its decodeFunc. Unsupported tags map to nil.
var decoders [256]decodeFunc

func init() {
	decoders[SmallIntTag] = decodeSmallInt
	decoders[IntTag] = decodeInt
	decoders[AtomTag] = decodeAtom
	decoders[SmallTupleTag] = decodeSmallTuple
	decoders[LargeTupleTag] = decodeLargeTuple
	decoders[NilTag] = decodeNil
	decoders[StringTag] = decodeString
	decoders[ListTag] = decodeList
	decoders[BinTag] = decodeBinary
	decoders[SmallBignumTag] = decodeSmallBig
	decoders[MapTag] = decodeMap
	decoders[SmallAtomUtf8Tag] = decodeSmallAtomUtf8
}

func decodeSmallInt(_ *Decoder, c *cursor, _ int) (Term, error) {
	value, err := c.readByte()
	if err != nil {
		return nil, err
	}

	return SmallInt(value), nil
}

func decodeInt(_ *Decoder, c *cursor, _ int) (Term, error) {
	value, err := readUint[uint32](c)
	if err != nil {
		return nil, err
	}

	return Int(value), nil
}

func decodeAtom(_ *Decoder, c *cursor, _ int) (Term, error) {
	length, err := readUint[uint16](c)
	if err != nil {
		return nil, err
	}

	buf, err := c.take(int(length))
	if err != nil {
		return nil, err
	}

	return Atom(buf), nil
}

func decodeSmallAtomUtf8(_ *Decoder, c *cursor, _ int) (Term, error) {
	length, err := c.readByte()
	if err != nil {
		return nil, err
	}

	buf, err := c.take(int(length))
	if err != nil {
		return nil, err
	}

	return Atom(buf), nil
}

func decodeSmallTuple(d *Decoder, c *cursor, depth int) (Term, error) {
	arity, err := c.readByte()
	if err != nil {
		return nil, err
	}

	return d.decodeTuple(c, depth, uint64(arity))
}

func decodeLargeTuple(d *Decoder, c *cursor, depth int) (Term, error) {
	arity, err := readUint[uint32](c)
	if err != nil {
		return nil, err
	}

	return d.decodeTuple(c, depth, uint64(arity))
}

func (d *Decoder) decodeTuple(c *cursor, depth int, arity uint64) (Term, error) {
	// every element takes at least its tag byte
	if err := c.require(arity); err != nil {
		return nil, err
	}

	tuple := make(Tuple, arity)
	for idx := range tuple {
		element, err := d.decodeTerm(c, depth+1)
		if err != nil {
			return nil, err
		}

		tuple[idx] = element
	}

	return tuple, nil
}

func decodeNil(_ *Decoder, _ *cursor, _ int) (Term, error) {
	return Nil{}, nil
}

func decodeString(_ *Decoder, c *cursor, _ int) (Term, error) {
	length, err := readUint[uint16](c)
	if err != nil {
		return nil, err
	}

	buf, err := c.take(int(length))
	if err != nil {
		return nil, err
	}

	return String(slices.Clone(buf)), nil
}

func decodeList(d *Decoder, c *cursor, depth int) (Term, error) {
	length, err := readUint[uint32](c)
	if err != nil {
		return nil, err
	}

	// the elements and the tail take at least one byte each
	if err := c.require(uint64(length) + 1); err != nil {
		return nil, err
	}

	items := make([]Term, 0, int(length)+1)
	for range length {
		item, err := d.decodeTerm(c, depth+1)
		if err != nil {
			return nil, err
		}

		items = append(items, item)
	}

	tail, err := d.decodeTerm(c, depth+1)
	if err != nil {
		return nil, err
	}

	if _, ok := tail.(Nil); ok {
		return List{Items: items}, nil
	}

	return List{Items: append(items, tail), Improper: true}, nil
}

func decodeBinary(_ *Decoder, c *cursor, _ int) (Term, error) {
	length, err := readUint[uint32](c)
	if err != nil {
		return nil, err
	}

	if err := c.require(uint64(length)); err != nil {
		return nil, err
	}

	buf, err := c.take(int(length))
	if err != nil {
		return nil, err
	}

	return Binary(slices.Clone(buf)), nil
}

func decodeSmallBig(_ *Decoder, c *cursor, _ int) (Term, error) {
	length, err := c.readByte()
	if err != nil {
		return nil, err
	}

	sign, err := c.readByte()
	if err != nil {
		return nil, err
	}

	magnitude, err := c.take(int(length))
	if err != nil {
		return nil, err
	}

	return SmallBig{Negative: sign != 0, Magnitude: slices.Clone(magnitude)}, nil
}

func decodeMap(d *Decoder, c *cursor, depth int) (Term, error) {
	arity, err := readUint[uint32](c)
	if err != nil {
		return nil, err
	}

	// each pair takes at least two bytes
	if err := c.require(2 * uint64(arity)); err != nil {
		return nil, err
	}

	m := make(Map, arity)
	for range arity {
		key, err := d.decodeTerm(c, depth+1)
		if err != nil {
			return nil, err
		}

		value, err := d.decodeTerm(c, depth+1)
		if err != nil {
			return nil, err
		}

		// a later key with the same string form replaces the earlier one
		m[MapKey(key)] = value
	}

	return m, nil
}

// cursor reads from an immutable buffer. It only moves its offset forward.
type cursor struct {
	data   []byte
	offset int
}

func (c *cursor) remaining() int {
	return len(c.data) - c.offset
}

// require checks that at least n more bytes are available.
func (c *cursor) require(n uint64) error {
	if n > uint64(c.remaining()) {
		return fmt.Errorf("need %d bytes, have %d: %w", n, c.remaining(), ErrTruncated)
	}

	return nil
}

func (c *cursor) readByte() (byte, error) {
	if err := c.require(1); err != nil {
		return 0, err
	}

	b := c.data[c.offset]
	c.offset++
	return b, nil
}

// take returns the next n bytes without copying them. The returned slice
// aliases the input and must be copied before handing it out.
func (c *cursor) take(n int) ([]byte, error) {
	if err := c.require(uint64(n)); err != nil {
		return nil, err
	}

	buf := c.data[c.offset : c.offset+n : c.offset+n]
	c.offset += n
	return buf, nil
}

// readUint reads a big-endian unsigned integer of the width of T.
func readUint[T constraints.Unsigned](c *cursor) (T, error) {
	width := int(unsafe.Sizeof(T(0)))

	buf, err := c.take(width)
	if err != nil {
		return 0, err
	}

	var value T
	for _, b := range buf {
		value = value<<8 | T(b)
	}

	return value, nil
}
