package bert

import (
	"encoding"
	"errors"
	"fmt"
	"iter"
	"math"
	"reflect"
	"strconv"
	"unsafe"

	"golang.org/x/exp/constraints"
)

// Unmarshal decodes data and stores the resulting term in the value pointed to by target.
// Struct fields are matched against map keys or proplist keys using the `bert` struct tag.
func Unmarshal(data []byte, target any) error {
	return dec.Unmarshal(data, target)
}

func UnmarshalNew[T any](data []byte) (T, error) {
	return UnmarshalNewWith[T](dec, data)
}

func UnmarshalNewWith[T any](dec *Decoder, data []byte) (T, error) {
	var target T
	err := dec.Unmarshal(data, &target)
	return target, err
}

// UnmarshalTerm stores an already decoded term in the value pointed to by target.
func UnmarshalTerm(term Term, target any) error {
	return dec.UnmarshalSource(TermSource(term), target)
}

// A setter sets the reflect.Value to a value extracted from the given Source
type setter func(Source, reflect.Value) error

// A set of types that are currently in construction
type typeSet map[reflect.Type]struct{}

var tyTextUnmarshaler = reflect.TypeFor[encoding.TextUnmarshaler]()
var tyTerm = reflect.TypeFor[Term]()

// Unmarshal decodes exactly one term from data and stores it in the value
// pointed to by target.
func (d *Decoder) Unmarshal(data []byte, target any) error {
	term, err := d.DecodeAll(data)
	if err != nil {
		return err
	}

	return d.UnmarshalSource(TermSource(term), target)
}

// UnmarshalSource stores the value of source in the value pointed to by target.
func (d *Decoder) UnmarshalSource(source Source, target any) error {
	ptr := reflect.ValueOf(target)
	if ptr.Kind() != reflect.Pointer || ptr.IsNil() {
		return fmt.Errorf("target must be a non-nil pointer, got %T", target)
	}

	targetValue := ptr.Elem()

	// build the setter for the targets type
	setter, err := d.setterOf(typeSet{}, targetValue.Type())
	if err != nil {
		return err
	}

	return setter(source, targetValue)
}

func (d *Decoder) setterOf(inConstruction typeSet, ty reflect.Type) (setter, error) {
	if cached, ok := d.setterCache.Load(ty); ok {
		return cached.(setter), nil
	}

	if _, ok := inConstruction[ty]; ok {
		// detected a cycle. return a setter that does a cache lookup when executed.
		// we assume that the actual setter will be in the cache once this setter is executed.
		lazySetter := func(source Source, target reflect.Value) error {
			cached, _ := d.setterCache.Load(ty)
			return cached.(setter)(source, target)
		}

		return lazySetter, nil
	}

	inConstruction[ty] = struct{}{}

	setter, err := d.makeSetterOf(inConstruction, ty)
	if err != nil {
		return nil, err
	}

	d.setterCache.Store(ty, setter)

	return setter, nil
}

func (d *Decoder) makeSetterOf(inConstruction typeSet, ty reflect.Type) (setter, error) {
	if ty == tyTerm {
		return setTerm, nil
	}

	if reflect.PointerTo(ty).Implements(tyTextUnmarshaler) {
		return setTextUnmarshaler, nil
	}

	switch ty.Kind() {
	case reflect.Bool:
		return setBool, nil

	case reflect.Int:
		switch unsafe.Sizeof(int(0)) {
		case 4:
			return makeSetInt(IntSource.Int32, reflect.Value.SetInt, math.MinInt, math.MaxInt, false), nil
		case 8:
			return makeSetInt(IntSource.Int64, reflect.Value.SetInt, math.MinInt, math.MaxInt, false), nil
		default:
			panic("int must be 4 or 8 byte")
		}

	case reflect.Int8:
		return makeSetInt(IntSource.Int8, reflect.Value.SetInt, math.MinInt8, math.MaxInt8, false), nil

	case reflect.Int16:
		return makeSetInt(IntSource.Int16, reflect.Value.SetInt, math.MinInt16, math.MaxInt16, false), nil

	case reflect.Int32:
		return makeSetInt(IntSource.Int32, reflect.Value.SetInt, math.MinInt32, math.MaxInt32, false), nil

	case reflect.Int64:
		return makeSetInt(IntSource.Int64, reflect.Value.SetInt, math.MinInt64, math.MaxInt64, false), nil

	case reflect.Uint:
		switch unsafe.Sizeof(uint(0)) {
		case 4:
			return makeSetInt(IntSource.Uint32, reflect.Value.SetUint, 0, math.MaxUint, true), nil
		case 8:
			return makeSetInt(IntSource.Uint64, reflect.Value.SetUint, 0, math.MaxUint, true), nil
		default:
			panic("uint must be 4 or 8 byte")
		}

	case reflect.Uint8:
		return makeSetInt(IntSource.Uint8, reflect.Value.SetUint, 0, math.MaxUint8, true), nil

	case reflect.Uint16:
		return makeSetInt(IntSource.Uint16, reflect.Value.SetUint, 0, math.MaxUint16, true), nil

	case reflect.Uint32:
		return makeSetInt(IntSource.Uint32, reflect.Value.SetUint, 0, math.MaxUint32, true), nil

	case reflect.Uint64:
		return makeSetInt(IntSource.Uint64, reflect.Value.SetUint, 0, math.MaxUint64, true), nil

	case reflect.Float32, reflect.Float64:
		return setFloat, nil

	case reflect.String:
		return setString, nil

	case reflect.Pointer:
		return d.makeSetPointer(inConstruction, ty)

	case reflect.Struct:
		return d.makeSetStruct(inConstruction, ty)

	case reflect.Slice:
		return d.makeSetSlice(inConstruction, ty)

	case reflect.Array:
		return d.makeSetArray(inConstruction, ty)

	case reflect.Map:
		return d.makeSetMap(inConstruction, ty)

	default:
		return nil, NotSupportedError{Type: ty}
	}
}

func (d *Decoder) makeSetStruct(inConstruction typeSet, ty reflect.Type) (setter, error) {
	var setters []setter

	fields := fieldsToSerialize(ty, d.structTag)

	for _, field := range fields {
		de, err := d.setterOf(inConstruction, field.Type)
		if err != nil {
			return nil, fmt.Errorf("setter for field %q: %w", field.Name, err)
		}

		setters = append(setters, de)
	}

	setter := func(source Source, target reflect.Value) error {
		for idx, field := range fields {
			fieldSource, err := source.Get(field.Name)
			switch {
			case errors.Is(err, ErrNoValue):
				if d.requireValues {
					return fmt.Errorf("field %q: %w", field.Name, err)
				}
				// It is okay to not get a value at all,
				// in that case we just skip the field
				continue
			case err != nil:
				return fmt.Errorf("lookup child %q: %w", field.Name, err)
			}

			fieldValue := target.FieldByIndex(field.Index)
			if err := setters[idx](fieldSource, fieldValue); err != nil {
				return fmt.Errorf("set field %q on %q: %w", field.Name, target.Type(), err)
			}
		}

		return nil
	}

	return setter, nil
}

func (d *Decoder) makeSetMap(inConstruction typeSet, ty reflect.Type) (setter, error) {
	keySetter, err := d.setterOf(inConstruction, ty.Key())
	if err != nil {
		return nil, fmt.Errorf("setter for key type %q: %w", ty, err)
	}

	valueSetter, err := d.setterOf(inConstruction, ty.Elem())
	if err != nil {
		return nil, fmt.Errorf("setter for value type %q: %w", ty, err)
	}

	keyType := ty.Key()
	valueType := ty.Elem()

	setter := func(source Source, target reflect.Value) error {
		keyValues, err := source.KeyValues()
		if err != nil {
			return fmt.Errorf("iterate key/value pairs: %w", err)
		}

		mapTarget := reflect.MakeMap(ty)

		for keySource, valueSource := range keyValues {
			keyTarget := reflect.New(keyType).Elem()
			if err := keySetter(keySource, keyTarget); err != nil {
				return fmt.Errorf("set key: %w", err)
			}

			valueTarget := reflect.New(valueType).Elem()
			if err := valueSetter(valueSource, valueTarget); err != nil {
				return fmt.Errorf("set value of key %v: %w", keyTarget, err)
			}

			mapTarget.SetMapIndex(keyTarget, valueTarget)
		}

		target.Set(mapTarget)

		return nil
	}

	return setter, nil
}

func (d *Decoder) makeSetSlice(inConstruction typeSet, ty reflect.Type) (setter, error) {
	elementSetter, err := d.setterOf(inConstruction, ty.Elem())
	if err != nil {
		return nil, fmt.Errorf("setter for element type %q: %w", ty, err)
	}

	// a empty element
	placeholderValue := reflect.New(ty.Elem()).Elem()

	setter := func(source Source, target reflect.Value) error {
		sourceIter, err := source.Iter()
		if err != nil {
			return fmt.Errorf("as iter: %w", err)
		}

		// an empty list is an empty slice, not a nil one
		target.Set(reflect.MakeSlice(ty, 0, 0))

		for elementSource := range sourceIter {
			// add an empty element to grow the list
			target.Set(reflect.Append(target, placeholderValue))

			idx := target.Len() - 1
			elementValue := target.Index(idx)
			if err := elementSetter(elementSource, elementValue); err != nil {
				return fmt.Errorf("set element idx=%d: %w", idx, err)
			}
		}

		return nil
	}

	return setter, nil
}

func (d *Decoder) makeSetArray(inConstruction typeSet, ty reflect.Type) (setter, error) {
	elementSetter, err := d.setterOf(inConstruction, ty.Elem())
	if err != nil {
		return nil, fmt.Errorf("setter for element type %q: %w", ty, err)
	}

	// number of elements in the array
	elementCount := ty.Len()

	setter := func(source Source, target reflect.Value) error {
		sourceIter, err := source.Iter()
		if err != nil {
			return fmt.Errorf("as iter: %w", err)
		}

		next, stop := iter.Pull(sourceIter)
		defer stop()

		for idx := 0; idx < elementCount; idx++ {
			elementSource, ok := next()
			if !ok {
				break
			}

			elementValue := target.Index(idx)
			if err := elementSetter(elementSource, elementValue); err != nil {
				return fmt.Errorf("set element idx=%d: %w", idx, err)
			}
		}

		return nil
	}

	return setter, nil
}

func (d *Decoder) makeSetPointer(inConstruction typeSet, ty reflect.Type) (setter, error) {
	pointeeType := ty.Elem()

	pointeeSetter, err := d.setterOf(inConstruction, pointeeType)
	if err != nil {
		return nil, err
	}

	setter := func(source Source, target reflect.Value) error {
		// the atom undefined keeps the pointer nil
		if isUndefined(source) {
			target.SetZero()
			return nil
		}

		// newValue is now a pointer to an instance of the pointeeType
		newValue := reflect.New(pointeeType)
		if err := pointeeSetter(source, newValue.Elem()); err != nil {
			return err
		}

		// set pointer to the new value
		target.Set(newValue)

		return nil
	}

	return setter, err
}

func isUndefined(source Source) bool {
	termSource, ok := source.(interface{ Term() Term })
	if !ok {
		return false
	}

	atom, ok := termSource.Term().(Atom)
	return ok && atom == "undefined"
}

func setTerm(source Source, target reflect.Value) error {
	termSource, ok := source.(interface{ Term() Term })
	if !ok {
		return ErrNotSupported
	}

	term := termSource.Term()
	if term == nil {
		return ErrNoValue
	}

	target.Set(reflect.ValueOf(term))
	return nil
}

var (
	setBool   = makeSetScalar(Source.Bool, reflect.Value.SetBool)
	setFloat  = makeSetScalar(Source.Float, reflect.Value.SetFloat)
	setString = makeSetScalar(Source.String, reflect.Value.SetString)
)

// makeSetScalar returns a setter that reads one value of type T from
// the source and stores it using store.
func makeSetScalar[T any](read func(Source) (T, error), store func(reflect.Value, T)) setter {
	return func(source Source, target reflect.Value) error {
		value, err := read(source)
		if err != nil {
			return fmt.Errorf("read %T: %w", value, err)
		}

		store(target, value)
		return nil
	}
}

// makeSetInt returns a setter for one integer kind. An IntSource is asked
// for exactly T. Any other source is read through Source.Int or Source.Uint
// and must fall within minValue and maxValue.
func makeSetInt[T constraints.Integer, V uint64 | int64](
	exact func(IntSource) (T, error),
	store func(reflect.Value, V),
	minValue, maxValue V,
	isUnsigned bool,
) setter {
	wide := func(source Source) (V, error) {
		if isUnsigned {
			value, err := source.Uint()
			return V(value), err
		}

		value, err := source.Int()
		return V(value), err
	}

	return func(source Source, target reflect.Value) error {
		if intSource, ok := source.(IntSource); ok {
			value, err := exact(intSource)
			if err != nil {
				return fmt.Errorf("read %T: %w", value, err)
			}

			store(target, V(value))
			return nil
		}

		value, err := wide(source)
		if err != nil {
			return fmt.Errorf("read %T: %w", value, err)
		}

		if value < minValue || value > maxValue {
			return fmt.Errorf("%d overflows %T: %w", value, T(0), strconv.ErrRange)
		}

		store(target, value)
		return nil
	}
}

func setTextUnmarshaler(source Source, target reflect.Value) error {
	text, err := source.String()
	if err != nil {
		return fmt.Errorf("read text: %w", err)
	}

	unmarshaler := target.Addr().Interface().(encoding.TextUnmarshaler)
	if err := unmarshaler.UnmarshalText([]byte(text)); err != nil {
		return fmt.Errorf("unmarshal %q into %s: %w", text, target.Type(), err)
	}

	return nil
}
