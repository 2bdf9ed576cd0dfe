package core

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strconv"
)

// ErrLayoutMismatch is returned when two views of the particle record disagree.
var ErrLayoutMismatch = errors.New("attribute layout mismatch")

type ScalarType string

const ScalarFloat32 ScalarType = "float32"

// Attribute is one named slot of the interleaved particle record.
type Attribute struct {
	Name       string
	Location   uint32
	Offset     uint64 // bytes from the start of the record
	Components int
	Type       ScalarType
}

// FloatOffset is the attribute offset counted in 4-byte words.
func (a Attribute) FloatOffset() uint64 { return a.Offset / 4 }

// Layout describes how raw record bytes map to named simulation fields.
type Layout struct {
	Stride     uint64
	Attributes []Attribute
}

// LayoutOf builds a Layout from the `swarm:"layout"` tags of a record struct.
// Offsets come from the Go struct layout, which is tightly packed for float32 fields.
func LayoutOf(record any) (Layout, error) {
	t := reflect.TypeOf(record)
	if t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return Layout{}, fmt.Errorf("layout: record must be a struct, got %v", t)
	}

	var attributes []Attribute
	seenNames := make(map[string]bool)
	seenLocations := make(map[uint32]bool)

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if "layout" != field.Tag.Get("swarm") {
			continue
		}

		components, scalar, err := fieldShape(field.Type)
		if err != nil {
			return Layout{}, fmt.Errorf("layout: field %s: %w", field.Name, err)
		}
		location, err := strconv.Atoi(field.Tag.Get("location"))
		if err != nil || location < 0 {
			return Layout{}, fmt.Errorf("layout: field %s: bad location %q", field.Name, field.Tag.Get("location"))
		}
		name := field.Tag.Get("name")
		if name == "" {
			name = field.Name
		}
		if seenNames[name] || seenLocations[uint32(location)] {
			return Layout{}, fmt.Errorf("layout: field %s: duplicate name or location", field.Name)
		}
		seenNames[name] = true
		seenLocations[uint32(location)] = true

		attributes = append(attributes, Attribute{
			Name:       name,
			Location:   uint32(location),
			Offset:     uint64(field.Offset),
			Components: components,
			Type:       scalar,
		})
	}
	if len(attributes) == 0 {
		return Layout{}, fmt.Errorf("layout: %v has no tagged fields", t)
	}

	return Layout{
		Stride:     uint64(t.Size()),
		Attributes: attributes,
	}, nil
}

func fieldShape(t reflect.Type) (int, ScalarType, error) {
	switch t.Kind() {
	case reflect.Float32:
		return 1, ScalarFloat32, nil
	case reflect.Array:
		if t.Elem().Kind() != reflect.Float32 || t.Len() < 1 || t.Len() > 4 {
			return 0, "", fmt.Errorf("unsupported array %v", t)
		}
		return t.Len(), ScalarFloat32, nil
	default:
		return 0, "", fmt.Errorf("unsupported type %v", t)
	}
}

// Lookup returns the attribute with the given name.
func (l Layout) Lookup(name string) (Attribute, bool) {
	for _, a := range l.Attributes {
		if a.Name == name {
			return a, true
		}
	}
	return Attribute{}, false
}

// Subset keeps only the named attributes, preserving stride and offsets.
// Render programs consume fewer fields than the simulation writes.
func (l Layout) Subset(names ...string) (Layout, error) {
	out := Layout{Stride: l.Stride}
	for _, name := range names {
		a, ok := l.Lookup(name)
		if !ok {
			return Layout{}, fmt.Errorf("%w: no field %q", ErrLayoutMismatch, name)
		}
		out.Attributes = append(out.Attributes, a)
	}
	return out, nil
}

// FloatStride is the record size counted in 4-byte words.
func (l Layout) FloatStride() uint64 { return l.Stride / 4 }

func (l Layout) Equal(other Layout) bool {
	return l.Stride == other.Stride && slices.Equal(l.Attributes, other.Attributes)
}

// CheckShared verifies that every field present in both layouts sits at the same
// offset with the same shape. Locations are allowed to differ.
func CheckShared(a, b Layout) error {
	if a.Stride != b.Stride {
		return fmt.Errorf("%w: stride %d != %d", ErrLayoutMismatch, a.Stride, b.Stride)
	}
	for _, attr := range a.Attributes {
		other, ok := b.Lookup(attr.Name)
		if !ok {
			continue
		}
		if attr.Offset != other.Offset || attr.Components != other.Components || attr.Type != other.Type {
			return fmt.Errorf("%w: field %q at %d/%d vs %d/%d", ErrLayoutMismatch,
				attr.Name, attr.Offset, attr.Components, other.Offset, other.Components)
		}
	}
	return nil
}

// Binding associates one of the two particle buffers with its record layout.
type Binding struct {
	Buffer int
	Layout Layout
}

// BindingTable holds the per-buffer bindings, built once at setup.
type BindingTable [2]Binding

func NewBindingTable(layout Layout) BindingTable {
	return BindingTable{
		{Buffer: 0, Layout: layout},
		{Buffer: 1, Layout: layout},
	}
}

// Verify checks that both buffers share an identical layout, since records
// round-trip between them every tick.
func (t BindingTable) Verify() error {
	if t[0].Buffer == t[1].Buffer {
		return fmt.Errorf("%w: both bindings reference buffer %d", ErrLayoutMismatch, t[0].Buffer)
	}
	if !t[0].Layout.Equal(t[1].Layout) {
		return fmt.Errorf("%w: buffer %d and %d layouts differ", ErrLayoutMismatch, t[0].Buffer, t[1].Buffer)
	}
	return nil
}
