package configdiff_test

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/shapeblock/shapeblock-api/internal/configdiff"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshot() map[string]any {
	return map[string]any{
		"env_vars":   map[string]any{"ENV": "x", "DEBUG": "false"},
		"secrets":    map[string]any{},
		"build_vars": map[string]any{"NODE_VERSION": "20"},
		"volumes": []any{
			map[string]any{"name": "data", "mount_path": "/data", "size": 2},
		},
	}
}

func Test_Equal(t *testing.T) {
	scenarios := []struct {
		name     string
		a, b     any
		expected bool
	}{
		{name: "nil and nil", a: nil, b: nil, expected: true},
		{name: "nil and empty map", a: nil, b: map[string]any{}, expected: false},
		{name: "same scalars", a: "abc", b: "abc", expected: true},
		{name: "different scalars", a: "abc", b: "abd", expected: false},
		{name: "int and float of same value", a: 2, b: 2.0, expected: true},
		{name: "int and float of different value", a: 2, b: 2.5, expected: false},
		{name: "number and string", a: 2, b: "2", expected: false},
		{name: "bool and string", a: true, b: "true", expected: false},
		{name: "key order", a: map[string]any{"a": 1, "b": 2}, b: map[string]any{"b": 2, "a": 1}, expected: true},
		{name: "missing key", a: map[string]any{"a": 1}, b: map[string]any{"a": 1, "b": 2}, expected: false},
		{name: "absent key and nil value", a: map[string]any{"a": 1, "b": nil}, b: map[string]any{"a": 1, "c": nil}, expected: false},
		{name: "present nil values", a: map[string]any{"a": nil}, b: map[string]any{"a": nil}, expected: true},
		{name: "sequence order", a: []any{1, 2}, b: []any{2, 1}, expected: false},
		{name: "sequence length", a: []any{1, 2}, b: []any{1, 2, 3}, expected: false},
		{name: "mapping and sequence", a: map[string]any{}, b: []any{}, expected: false},
		{name: "sequence and scalar", a: []any{"a"}, b: "a", expected: false},
		{name: "typed and generic mappings", a: map[string]string{"ENV": "x"}, b: map[string]any{"ENV": "x"}, expected: true},
		{name: "typed and generic sequences", a: []string{"a", "b"}, b: []any{"a", "b"}, expected: true},
		{name: "nested change", a: snapshot(), b: func() map[string]any {
			s := snapshot()
			s["env_vars"].(map[string]any)["ENV"] = "y"
			return s
		}(), expected: false},
		{name: "nested volume size change", a: snapshot(), b: func() map[string]any {
			s := snapshot()
			s["volumes"] = []any{map[string]any{"name": "data", "mount_path": "/data", "size": 3}}
			return s
		}(), expected: false},
		{name: "bytes", a: []byte("abc"), b: []byte("abc"), expected: true},
		{name: "large integers", a: int64(1<<53 + 1), b: int64(1 << 53), expected: false},
		{name: "large integer and float", a: int64(1<<53 + 1), b: float64(1 << 53), expected: false},
		{name: "signed and unsigned", a: int64(7), b: uint8(7), expected: true},
		{name: "negative and unsigned", a: int64(-1), b: uint64(math.MaxUint64), expected: false},
		{name: "max unsigned", a: uint64(math.MaxUint64), b: uint64(math.MaxUint64 - 1), expected: false},
		{name: "json number", a: json.Number("12"), b: 12, expected: true},
		{name: "json float number", a: json.Number("1.5"), b: 1.5, expected: true},
		{name: "infinity and integer", a: math.Inf(1), b: math.MaxInt64, expected: false},
		{name: "typed mapping with nested numbers", a: map[string]int{"replicas": 2}, b: map[string]any{"replicas": 2.0}, expected: true},
	}

	for _, ts := range scenarios {
		t.Run(ts.name, func(t *testing.T) {
			assert.Equal(t, ts.expected, configdiff.Equal(ts.a, ts.b))
			assert.Equal(t, ts.expected, configdiff.Equal(ts.b, ts.a), "symmetry")
		})
	}
}

func Test_Equal_Reflexive(t *testing.T) {
	for _, v := range []any{nil, "x", 1, 1.5, math.NaN(), int64(math.MaxInt64), uint64(math.MaxUint64), true, []any{}, map[string]any{}, []any{math.NaN()}, snapshot()} {
		assert.True(t, configdiff.Equal(v, v))
	}
}

func Test_Equal_SurvivesJSONRoundTrip(t *testing.T) {
	original := snapshot()

	payload, err := json.Marshal(original)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(payload, &decoded))

	assert.True(t, configdiff.Equal(original, decoded))
}
