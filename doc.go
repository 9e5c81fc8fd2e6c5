// Package bert decodes values encoded in the Erlang external term format
// (as produced by term_to_binary) into Go values.
//
// [Decode] turns a byte slice into a [Term] tree. Decoding walks the input
// with a single cursor and never copies the buffer except to produce owned
// output such as the bytes of an [Atom] or a [Binary]. Tags that are not
// supported (floats, pids, ports, references, funs, bit binaries and large
// bignums) fail with [ErrUnsupportedTag] instead of producing an empty value.
//
// [Unmarshal] goes one step further and maps the decoded term onto go types
// (structs, slices, maps, integers, strings) similar to [encoding/json.Unmarshal].
// The mapping pulls data out of a [Source], which is what [TermSource]
// provides for every decoded [Term].
package bert
