package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIRValueSealed(t *testing.T) {
	var _ IRValue = IRNull{}
	var _ IRValue = IRString("test")
	var _ IRValue = IRInt(42)
	var _ IRValue = IRBool(true)
	var _ IRValue = IRArray{IRString("a"), IRInt(1)}
	var _ IRValue = IRObject{"key": IRString("value")}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		value IRValue
		want  Kind
	}{
		{nil, KindNull},
		{IRNull{}, KindNull},
		{IRString("x"), KindString},
		{IRInt(1), KindInt},
		{IRBool(false), KindBool},
		{IRArray{}, KindArray},
		{IRObject{}, KindObject},
	}
	for _, tt := range tests {
		t.Run(string(tt.want), func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.value))
		})
	}
}

func TestCompare_SameKind(t *testing.T) {
	assert.Negative(t, Compare(IRInt(1), IRInt(2)))
	assert.Positive(t, Compare(IRInt(3), IRInt(2)))
	assert.Zero(t, Compare(IRInt(2), IRInt(2)))

	assert.Negative(t, Compare(IRString("alice"), IRString("bob")))
	assert.Zero(t, Compare(IRString("bob"), IRString("bob")))

	assert.Negative(t, Compare(IRBool(false), IRBool(true)))
	assert.Negative(t, Compare(IRArray{IRInt(1)}, IRArray{IRInt(1), IRInt(0)}))
	assert.Zero(t, Compare(IRNull{}, nil))
}

func TestCompare_CrossKindOrder(t *testing.T) {
	ordered := []IRValue{IRNull{}, IRBool(true), IRInt(-5), IRString(""), IRArray{}, IRObject{}}
	for i := 0; i+1 < len(ordered); i++ {
		assert.Negative(t, Compare(ordered[i], ordered[i+1]),
			"%T should sort before %T", ordered[i], ordered[i+1])
	}
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(IRInt(1), IRInt(1)))
	assert.False(t, Equal(IRInt(1), IRString("1")))
	assert.True(t, Equal(IRObject{"a": IRInt(1)}, IRObject{"a": IRInt(1)}))
}

func TestFromAny(t *testing.T) {
	v, err := FromAny(map[string]any{
		"name": "alice",
		"age":  30,
		"tags": []any{"a", true},
		"blob": []byte("raw"),
		"none": nil,
	})
	require.NoError(t, err)

	obj := v.(IRObject)
	assert.Equal(t, IRString("alice"), obj["name"])
	assert.Equal(t, IRInt(30), obj["age"])
	assert.Equal(t, IRArray{IRString("a"), IRBool(true)}, obj["tags"])
	assert.Equal(t, IRString("raw"), obj["blob"])
	assert.Equal(t, IRNull{}, obj["none"])
}

func TestFromAny_RejectsFractionalFloat(t *testing.T) {
	_, err := FromAny(1.5)
	require.Error(t, err)

	v, err := FromAny(float64(4))
	require.NoError(t, err)
	assert.Equal(t, IRInt(4), v)
}

func TestToParam(t *testing.T) {
	p, err := ToParam(IRString("x"))
	require.NoError(t, err)
	assert.Equal(t, "x", p)

	p, err = ToParam(IRInt(7))
	require.NoError(t, err)
	assert.Equal(t, int64(7), p)

	p, err = ToParam(IRNull{})
	require.NoError(t, err)
	assert.Nil(t, p)

	_, err = ToParam(IRArray{})
	assert.Error(t, err)
}

func TestIRObjectSortedKeys(t *testing.T) {
	obj := IRObject{
		"zebra":  IRString("z"),
		"apple":  IRString("a"),
		"banana": IRString("b"),
	}
	assert.Equal(t, []string{"apple", "banana", "zebra"}, obj.SortedKeys())
}

func TestIRObjectSortedKeys_UTF16Order(t *testing.T) {
	// U+FF61 is a single UTF-16 unit, U+1F600 a surrogate pair starting 0xD83D.
	obj := IRObject{"｡": IRInt(1), "\U0001F600": IRInt(2)}
	assert.Equal(t, []string{"\U0001F600", "｡"}, obj.SortedKeys())
}

func TestMarshalJSON_AllowsNull(t *testing.T) {
	b, err := json.Marshal(IRObject{"b": IRNull{}, "a": IRArray{IRInt(1)}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":[1],"b":null}`, string(b))
}

func TestString(t *testing.T) {
	assert.Equal(t, "null", String(nil))
	assert.Equal(t, "42", String(IRInt(42)))
	assert.Equal(t, "bob", String(IRString("bob")))
	assert.Equal(t, `[1,"x"]`, String(IRArray{IRInt(1), IRString("x")}))
}

func TestCompare_Objects(t *testing.T) {
	a := IRObject{"name": IRString("ann"), "nick": IRNull{}}
	b := IRObject{"name": IRString("ann"), "nick": IRString("a")}

	assert.Negative(t, Compare(a, b), "null member sorts before a string")
	assert.Positive(t, Compare(b, a))
	assert.Zero(t, Compare(a, IRObject{"nick": nil, "name": IRString("ann")}))
	assert.False(t, Equal(a, b))

	assert.Negative(t, Compare(IRObject{"a": IRInt(1)}, IRObject{"a": IRInt(1), "b": IRInt(0)}))
	assert.Negative(t, Compare(IRObject{"a": IRInt(9)}, IRObject{"b": IRInt(0)}))
}
