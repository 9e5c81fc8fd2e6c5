package bert

import (
	"reflect"
	"strings"
)

type field struct {
	Name  string
	Type  reflect.Type
	Index []int
}

// candidate is a field that competes for a name. depth is the number of
// embedded structs it was promoted through.
type candidate struct {
	field    field
	depth    int
	explicit bool
}

// fieldsToSerialize resolves the fields of a struct that receive values, following
// the visibility rules of embedded fields in go: the shallowest field wins, on equal
// depth a single explicitly tagged field wins, otherwise the name is dropped.
func fieldsToSerialize(ty reflect.Type, structTag string) []field {
	if ty.Kind() != reflect.Struct {
		panic("not a struct")
	}

	var order []string
	byName := map[string][]candidate{}

	collectFields(ty, structTag, nil, func(c candidate) {
		if _, seen := byName[c.field.Name]; !seen {
			order = append(order, c.field.Name)
		}

		byName[c.field.Name] = append(byName[c.field.Name], c)
	})

	var fields []field

	for _, name := range order {
		if winner, ok := dominantField(byName[name]); ok {
			fields = append(fields, winner)
		}
	}

	return fields
}

// collectFields walks ty breadth first and reports every named field.
func collectFields(ty reflect.Type, structTag string, index []int, report func(candidate)) {
	type queued struct {
		Type  reflect.Type
		Index []int
	}

	queue := []queued{{Type: ty, Index: index}}

	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]

		for idx := range item.Type.NumField() {
			fi := item.Type.Field(idx)
			if !fi.IsExported() {
				continue
			}

			name, explicit := nameOf(fi, structTag)
			if name == "" {
				continue
			}

			// full index of the field. cap the parents index to force a copy on append
			fieldIndex := append(item.Index[:len(item.Index):len(item.Index)], fi.Index...)

			if fi.Anonymous && !explicit {
				// embedded pointers are not followed
				if fi.Type.Kind() == reflect.Struct {
					queue = append(queue, queued{Type: fi.Type, Index: fieldIndex})
				}

				continue
			}

			report(candidate{
				field:    field{Name: name, Type: fi.Type, Index: fieldIndex},
				depth:    len(fieldIndex),
				explicit: explicit,
			})
		}
	}
}

// dominantField picks the field that owns a name. Candidates arrive sorted
// by depth because collectFields walks breadth first.
func dominantField(candidates []candidate) (field, bool) {
	if len(candidates) == 0 {
		return field{}, false
	}

	shallowest := candidates[0].depth

	var visible []candidate
	for _, c := range candidates {
		if c.depth != shallowest {
			break
		}

		visible = append(visible, c)
	}

	if len(visible) == 1 {
		return visible[0].field, true
	}

	var explicit []candidate
	for _, c := range visible {
		if c.explicit {
			explicit = append(explicit, c)
		}
	}

	if len(explicit) == 1 {
		return explicit[0].field, true
	}

	// ambiguous, nothing is filled
	return field{}, false
}

// nameOf returns the name under which a field is looked up. An empty name
// means the field is skipped.
func nameOf(fi reflect.StructField, structTag string) (name string, explicit bool) {
	tag := fi.Tag.Get(structTag)

	switch {
	case tag == "":
		return fi.Name, false

	case tag == "-":
		return "", true
	}

	alias, _, _ := strings.Cut(tag, ",")
	if alias == "" {
		// options only, keep field name
		return fi.Name, false
	}

	return alias, true
}
