package structtree

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Kind discriminates the variants of a decoded document value.
type Kind uint8

const (
	KindNull Kind = iota
	KindScalar
	KindSequence
	KindMapping
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindScalar:
		return "scalar"
	case KindSequence:
		return "sequence"
	case KindMapping:
		return "mapping"
	}
	return "unknown"
}

// Value is the generic decoded shape of a raw document: scalar, sequence,
// mapping or null. It replaces duck-typed map/slice inspection with a tagged
// variant.
type Value struct {
	kind   Kind
	scalar any
	seq    []Value
	obj    map[string]Value
	keys   []string
}

// Null returns the null value.
func Null() Value {
	return Value{kind: KindNull}
}

// Scalar wraps a scalar (string, bool, numeric or json.Number).
func Scalar(v any) Value {
	return Value{kind: KindScalar, scalar: v}
}

// Sequence wraps a list of values.
func Sequence(items ...Value) Value {
	return Value{kind: KindSequence, seq: items}
}

// NewMapping builds an empty mapping value; populate with Set.
func NewMapping() Value {
	return Value{kind: KindMapping, obj: make(map[string]Value)}
}

// Set adds or replaces a key in a mapping value, preserving insertion order.
func (v *Value) Set(key string, val Value) {
	if v.kind != KindMapping {
		panic("structtree: Set on non-mapping value")
	}
	if _, ok := v.obj[key]; !ok {
		v.keys = append(v.keys, key)
	}
	v.obj[key] = val
}

// FromAny converts a generically decoded document (the shapes produced by
// encoding/json and mxj: map[string]any, []any, scalars, nil) into a Value.
// Map keys are visited in sorted order since Go maps carry no order.
func FromAny(raw any) (Value, error) {
	switch rv := raw.(type) {
	case nil:
		return Null(), nil
	case map[string]any:
		v := NewMapping()
		keys := make([]string, 0, len(rv))
		for k := range rv {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			child, err := FromAny(rv[k])
			if err != nil {
				return Value{}, fmt.Errorf("field %s: %w", k, err)
			}
			v.Set(k, child)
		}
		return v, nil
	case []any:
		items := make([]Value, 0, len(rv))
		for i, item := range rv {
			child, err := FromAny(item)
			if err != nil {
				return Value{}, fmt.Errorf("index %d: %w", i, err)
			}
			items = append(items, child)
		}
		return Sequence(items...), nil
	case bool, string, int, int32, int64, uint, uint32, uint64, float32, float64, json.Number:
		return Scalar(rv), nil
	default:
		return Value{}, fmt.Errorf("cannot represent %T as a document value", raw)
	}
}

// Kind returns the variant tag.
func (v Value) Kind() Kind {
	return v.kind
}

// IsNull reports whether the value is null.
func (v Value) IsNull() bool {
	return v.kind == KindNull
}

// ScalarValue returns the wrapped scalar; nil unless KindScalar.
func (v Value) ScalarValue() any {
	return v.scalar
}

// Items returns sequence elements; nil unless KindSequence.
func (v Value) Items() []Value {
	return v.seq
}

// Keys returns mapping keys in insertion order.
func (v Value) Keys() []string {
	return v.keys
}

// Field looks up a mapping key. Missing keys and non-mapping receivers yield
// the null value.
func (v Value) Field(key string) (Value, bool) {
	if v.kind != KindMapping {
		return Null(), false
	}
	c, ok := v.obj[key]
	if !ok {
		return Null(), false
	}
	return c, true
}

// Interface converts the value back to plain decoded form: nil, scalar,
// []any or map[string]any.
func (v Value) Interface() any {
	switch v.kind {
	case KindScalar:
		if n, ok := v.scalar.(json.Number); ok {
			if i, err := n.Int64(); err == nil {
				return i
			}
			if f, err := n.Float64(); err == nil {
				return f
			}
			return n.String()
		}
		return v.scalar
	case KindSequence:
		out := make([]any, 0, len(v.seq))
		for _, item := range v.seq {
			out = append(out, item.Interface())
		}
		return out
	case KindMapping:
		out := make(map[string]any, len(v.obj))
		for k, item := range v.obj {
			out[k] = item.Interface()
		}
		return out
	}
	return nil
}

// NativeTypeName reports the source-native type name of a scalar, used as the
// key into a type-mapping table.
func (v Value) NativeTypeName() string {
	switch sv := v.scalar.(type) {
	case bool:
		return "bool"
	case string:
		return "string"
	case int, int32, int64, uint, uint32, uint64:
		return "int64"
	case float32, float64:
		return "float64"
	case json.Number:
		if strings.ContainsAny(sv.String(), ".eE") {
			return "float64"
		}
		return "int64"
	}
	return "string"
}
