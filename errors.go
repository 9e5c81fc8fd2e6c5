package bert

import (
	"errors"
	"fmt"
	"reflect"
)

var ErrTruncated = errors.New("truncated input")
var ErrUnsupportedTag = errors.New("unsupported tag")
var ErrInvalidVersion = errors.New("invalid version marker")
var ErrMaxDepth = errors.New("maximum nesting depth exceeded")
var ErrTrailingData = errors.New("trailing data after term")
var ErrBigIntegerOverflow = errors.New("big integer overflow")

var ErrNoValue = errors.New("no value")
var ErrNotSupported = errors.New("not supported")

// SyntaxError describes where in the input decoding failed.
type SyntaxError struct {
	// Offset of the byte at which the problem was detected.
	Offset int

	// Tag of the term that was being decoded, zero if not known.
	Tag byte

	Err error
}

func (e *SyntaxError) Error() string {
	if e.Tag == 0 {
		return fmt.Sprintf("decode term at offset %d: %s", e.Offset, e.Err)
	}

	return fmt.Sprintf("decode %s at offset %d: %s", TagName(e.Tag), e.Offset, e.Err)
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}

// UnsupportedTagError is returned for a tag this package does not decode.
type UnsupportedTagError struct {
	Tag byte
}

func (u UnsupportedTagError) Error() string {
	return fmt.Sprintf("tag %d (%s) is not supported", u.Tag, TagName(u.Tag))
}

func (u UnsupportedTagError) Is(target error) bool {
	return target == ErrUnsupportedTag
}

// NotSupportedError is returned by Unmarshal if the target contains
// a type that can not be unmarshalled into.
type NotSupportedError struct {
	Type reflect.Type
}

func (n NotSupportedError) Error() string {
	return fmt.Sprintf("type %q is not supported", n.Type)
}
