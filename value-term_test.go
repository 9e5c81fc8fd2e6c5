package bert

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTermSourceKeyValues(t *testing.T) {
	source := TermSource(Map{"a": SmallInt(1), "b": Binary("x")})

	keyValues, err := source.KeyValues()
	require.NoError(t, err)

	collected := map[string]Term{}
	for key, value := range keyValues {
		name, err := key.String()
		require.NoError(t, err)

		collected[name] = value.(termSource).Term()
	}

	require.Equal(t, map[string]Term{"a": SmallInt(1), "b": Binary("x")}, collected)

	_, err = TermSource(Tuple{}).KeyValues()
	require.ErrorIs(t, err, ErrNotSupported)
}

func TestTermSourceGet(t *testing.T) {
	value, err := TermSource(Map{"a": SmallInt(1)}).Get("a")
	require.NoError(t, err)
	require.Equal(t, TermSource(SmallInt(1)), value)

	_, err = TermSource(Map{"a": SmallInt(1)}).Get("b")
	require.ErrorIs(t, err, ErrNoValue)

	_, err = TermSource(List{Items: []Term{Tuple{String("a"), Nil{}}}}).Get("b")
	require.ErrorIs(t, err, ErrNoValue)

	_, err = TermSource(Atom("a")).Get("a")
	require.ErrorIs(t, err, ErrNotSupported)
}

func TestTermSourceIter(t *testing.T) {
	collect := func(term Term) []Term {
		it, err := TermSource(term).Iter()
		require.NoError(t, err)

		var items []Term
		for item := range it {
			items = append(items, item.(termSource).Term())
		}

		return items
	}

	require.Equal(t, []Term{SmallInt(1), SmallInt(2)}, collect(Binary{1, 2}))
	require.Equal(t, []Term{SmallInt('a')}, collect(String("a")))
	require.Equal(t, []Term{Atom("a"), Int(2)}, collect(Tuple{Atom("a"), Int(2)}))
	require.Empty(t, collect(Nil{}))

	// the tail of an improper list is the last item
	improper := List{Items: []Term{SmallInt(1), Atom("tail")}, Improper: true}
	require.Equal(t, []Term{SmallInt(1), Atom("tail")}, collect(improper))

	_, err := TermSource(Map{}).Iter()
	require.ErrorIs(t, err, ErrNotSupported)
}

func TestTermSourceScalars(t *testing.T) {
	value, err := TermSource(SmallBig{Magnitude: []byte{0, 1}}).Uint()
	require.NoError(t, err)
	require.Equal(t, uint64(256), value)

	text, err := TermSource(SmallBig{Negative: true, Magnitude: []byte{0, 1}}).String()
	require.NoError(t, err)
	require.Equal(t, "-256", text)

	floatValue, err := TermSource(SmallBig{Magnitude: []byte{0, 1}}).Float()
	require.NoError(t, err)
	require.Equal(t, 256.0, floatValue)

	_, err = TermSource(Nil{}).String()
	require.ErrorIs(t, err, ErrNotSupported)

	_, err = TermSource(Atom("x")).Int()
	require.ErrorIs(t, err, ErrNotSupported)

	flag, err := TermSource(Atom("true")).Bool()
	require.NoError(t, err)
	require.True(t, flag)

	_, err = TermSource(Binary("true")).Bool()
	require.ErrorIs(t, err, ErrNotSupported)
}
