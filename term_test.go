package bert

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	cases := []struct {
		Term     Term
		Expected string
	}{
		{SmallInt(42), "42"},
		{Int(5000), "5000"},
		{SmallBig{Negative: true, Magnitude: []byte{0, 1}}, "-256"},
		{Atom("foo"), "foo"},
		{Binary{1, 2, 3}, "<<1,2,3>>"},
		{Binary{}, "<<>>"},
		{String("ab"), `"ab"`},
		{Nil{}, "[]"},
		{List{}, "[]"},
		{List{Items: []Term{SmallInt(1), SmallInt(2)}}, "[1,2]"},
		{List{Items: []Term{SmallInt(1), SmallInt(2), SmallInt(3)}, Improper: true}, "[1,2|3]"},
		{Tuple{}, "{}"},
		{Tuple{Atom("ok"), Binary("x")}, "{ok,<<120>>}"},
		{Map{}, "#{}"},
		{Map{"b": SmallInt(2), "a": SmallInt(1)}, "#{a => 1,b => 2}"},
	}

	for _, c := range cases {
		require.Equal(t, c.Expected, Format(c.Term))
		require.Equal(t, c.Expected, c.Term.String())
	}
}

func TestListTailOfEmptyImproperList(t *testing.T) {
	list := List{Improper: true}
	require.Equal(t, Nil{}, list.Tail())
	require.Empty(t, list.Elements())
}

func TestSmallBigInt64(t *testing.T) {
	value, ok := SmallBig{Negative: true, Magnitude: []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x7f}}.Int64()
	require.True(t, ok)
	require.Equal(t, int64(-0x7fffffffffffffff), value)

	unsigned, ok := SmallBig{Magnitude: []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}}.Uint64()
	require.True(t, ok)
	require.Equal(t, uint64(0xffffffffffffffff), unsigned)

	_, ok = SmallBig{Negative: true, Magnitude: []byte{1}}.Uint64()
	require.False(t, ok)
}

func TestTagName(t *testing.T) {
	require.Equal(t, "small tuple", TagName(SmallTupleTag))
	require.Equal(t, "new float", TagName(NewFloatTag))
	require.Equal(t, "tag 1", TagName(1))
}

func TestMapKey(t *testing.T) {
	require.Equal(t, "name", MapKey(Atom("name")))
	require.Equal(t, "name", MapKey(Binary("name")))
	require.Equal(t, "name", MapKey(String("name")))
	require.Equal(t, "42", MapKey(SmallInt(42)))
	require.Equal(t, "{a,[1]}", MapKey(Tuple{Atom("a"), List{Items: []Term{SmallInt(1)}}}))
}
