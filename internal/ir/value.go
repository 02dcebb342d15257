package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"unicode/utf16"
)

// IRValue is a sealed interface representing constrained value types.
// Only IRNull, IRString, IRInt, IRBool, IRArray, and IRObject implement this.
type IRValue interface {
	irValue()
}

// IRNull is the absent value. Missing properties read as IRNull.
type IRNull struct{}

func (IRNull) irValue() {}

// IRString represents a string value.
type IRString string

func (IRString) irValue() {}

// IRInt represents an integer value. Always int64.
type IRInt int64

func (IRInt) irValue() {}

// IRBool represents a boolean value.
type IRBool bool

func (IRBool) irValue() {}

// IRArray represents an array of IRValue elements.
type IRArray []IRValue

func (IRArray) irValue() {}

// IRObject represents a map of string keys to IRValue elements.
// Use SortedKeys() for deterministic iteration.
type IRObject map[string]IRValue

func (IRObject) irValue() {}

// Kind names the concrete type of a value. Two identifiers are of the same
// concrete type exactly when their kinds are equal.
type Kind string

const (
	KindNull   Kind = "null"
	KindString Kind = "string"
	KindInt    Kind = "int"
	KindBool   Kind = "bool"
	KindArray  Kind = "array"
	KindObject Kind = "object"
)

// KindOf returns the concrete kind of v. A nil interface reports KindNull.
func KindOf(v IRValue) Kind {
	switch v.(type) {
	case nil, IRNull:
		return KindNull
	case IRString:
		return KindString
	case IRInt:
		return KindInt
	case IRBool:
		return KindBool
	case IRArray:
		return KindArray
	case IRObject:
		return KindObject
	default:
		panic(fmt.Sprintf("ir: unknown IRValue type %T", v))
	}
}

// kindRank orders kinds for cross-kind comparison: null sorts first.
func kindRank(k Kind) int {
	switch k {
	case KindNull:
		return 0
	case KindBool:
		return 1
	case KindInt:
		return 2
	case KindString:
		return 3
	case KindArray:
		return 4
	default:
		return 5
	}
}

// Compare imposes a total order over IRValues: values of different kinds
// order by kind (null < bool < int < string < array < object), values of
// the same kind by their natural order. Objects compare key by key in
// canonical key order, so null members order like any other value.
func Compare(a, b IRValue) int {
	ka, kb := KindOf(a), KindOf(b)
	if ka != kb {
		return kindRank(ka) - kindRank(kb)
	}

	switch av := a.(type) {
	case nil, IRNull:
		return 0
	case IRBool:
		bv := b.(IRBool)
		switch {
		case av == bv:
			return 0
		case !bool(av):
			return -1
		default:
			return 1
		}
	case IRInt:
		bv := b.(IRInt)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		default:
			return 0
		}
	case IRString:
		return strings.Compare(string(av), string(b.(IRString)))
	case IRArray:
		bv := b.(IRArray)
		for i := 0; i < len(av) && i < len(bv); i++ {
			if c := Compare(av[i], bv[i]); c != 0 {
				return c
			}
		}
		return len(av) - len(bv)
	case IRObject:
		return compareObjects(av, b.(IRObject))
	default:
		panic(fmt.Sprintf("ir: unknown IRValue type %T", a))
	}
}

func compareObjects(a, b IRObject) int {
	ak, bk := a.SortedKeys(), b.SortedKeys()
	for i := 0; i < len(ak) && i < len(bk); i++ {
		if c := compareUTF16(ak[i], bk[i]); c != 0 {
			return c
		}
		if c := Compare(a[ak[i]], b[bk[i]]); c != 0 {
			return c
		}
	}
	return len(ak) - len(bk)
}

// Equal reports whether two values are of the same kind and compare equal.
func Equal(a, b IRValue) bool {
	return KindOf(a) == KindOf(b) && Compare(a, b) == 0
}

// FromAny converts a decoded Go value (YAML, JSON, database/sql scan) to an
// IRValue. []byte is read as a string. Floats are rejected unless integral.
func FromAny(v any) (IRValue, error) {
	switch val := v.(type) {
	case nil:
		return IRNull{}, nil
	case IRValue:
		return val, nil
	case string:
		return IRString(val), nil
	case []byte:
		return IRString(string(val)), nil
	case bool:
		return IRBool(val), nil
	case int:
		return IRInt(val), nil
	case int32:
		return IRInt(val), nil
	case int64:
		return IRInt(val), nil
	case uint64:
		return IRInt(int64(val)), nil
	case float64:
		if val != float64(int64(val)) {
			return nil, fmt.Errorf("non-integral number %v is not representable", val)
		}
		return IRInt(int64(val)), nil
	case json.Number:
		n, err := val.Int64()
		if err != nil {
			return nil, fmt.Errorf("number %s is not an int64", val)
		}
		return IRInt(n), nil
	case []any:
		arr := make(IRArray, len(val))
		for i, elem := range val {
			irElem, err := FromAny(elem)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			arr[i] = irElem
		}
		return arr, nil
	case map[string]any:
		obj := make(IRObject, len(val))
		for k, elem := range val {
			irElem, err := FromAny(elem)
			if err != nil {
				return nil, fmt.Errorf("object[%q]: %w", k, err)
			}
			obj[k] = irElem
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("unsupported type: %T", v)
	}
}

// ToParam converts a scalar IRValue to a database/sql parameter.
func ToParam(v IRValue) (any, error) {
	switch val := v.(type) {
	case nil, IRNull:
		return nil, nil
	case IRString:
		return string(val), nil
	case IRInt:
		return int64(val), nil
	case IRBool:
		return bool(val), nil
	case IRArray:
		return nil, fmt.Errorf("IRArray cannot be used as SQL parameter directly")
	case IRObject:
		return nil, fmt.Errorf("IRObject cannot be used as SQL parameter directly")
	default:
		return nil, fmt.Errorf("unsupported IRValue type for SQL parameter: %T", v)
	}
}

// String renders a value for diagnostics and tables.
func String(v IRValue) string {
	switch val := v.(type) {
	case nil, IRNull:
		return "null"
	case IRString:
		return string(val)
	case IRInt:
		return fmt.Sprintf("%d", int64(val))
	case IRBool:
		return fmt.Sprintf("%t", bool(val))
	default:
		b, err := MarshalCanonical(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(b)
	}
}

// SortedKeys returns keys in RFC 8785 canonical order (UTF-16 code units).
func (obj IRObject) SortedKeys() []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareUTF16)
	return keys
}

// compareUTF16 compares strings by UTF-16 code units as RFC 8785 requires.
// Go's native string comparison is by UTF-8 bytes and differs above U+FFFF.
func compareUTF16(a, b string) int {
	return slices.Compare(utf16.Encode([]rune(a)), utf16.Encode([]rune(b)))
}

// MarshalJSON implements json.Marshaler with sorted keys.
func (obj IRObject) MarshalJSON() ([]byte, error) {
	return marshalJSON(obj)
}

// MarshalJSON implements json.Marshaler.
func (arr IRArray) MarshalJSON() ([]byte, error) {
	return marshalJSON(arr)
}

// MarshalJSON implements json.Marshaler for IRNull.
func (IRNull) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

// marshalJSON is the non-canonical encoder used for CLI output: nulls are
// allowed and strings are not normalized.
func marshalJSON(v IRValue) ([]byte, error) {
	switch val := v.(type) {
	case nil, IRNull:
		return []byte("null"), nil
	case IRString:
		return json.Marshal(string(val))
	case IRInt:
		return json.Marshal(int64(val))
	case IRBool:
		return json.Marshal(bool(val))
	case IRArray:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			b, err := marshalJSON(elem)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			buf.Write(b)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	case IRObject:
		var buf bytes.Buffer
		buf.WriteByte('{')
		for i, k := range val.SortedKeys() {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return nil, err
			}
			buf.Write(kb)
			buf.WriteByte(':')
			b, err := marshalJSON(val[k])
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", k, err)
			}
			buf.Write(b)
		}
		buf.WriteByte('}')
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unknown IRValue type: %T", v)
	}
}
