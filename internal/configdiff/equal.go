// Package configdiff compares configuration snapshots structurally.
package configdiff

import (
	"encoding/json"
	"math"
	"reflect"

	"github.com/google/go-cmp/cmp"
)

// Equal reports whether a and b hold the same configuration.
//
// Mappings must have string keys and are equal when they have the same key
// set and equal values; key order is irrelevant. Sequences are compared
// element-wise. Numbers compare by value whatever their Go kind, so a
// snapshot decoded from JSON equals the one it was encoded from. Values of
// different shapes are never equal, and a missing key differs from a key
// holding nil.
func Equal(a, b any) bool {
	return cmp.Equal(a, b, options...)
}

var options = []cmp.Option{
	cmp.FilterValues(bothNumbers, cmp.Comparer(equalNumbers)),
	cmp.FilterValues(bothMappings, cmp.Transformer("mapping", toMapping)),
	cmp.FilterValues(bothSequences, cmp.Transformer("sequence", toSequence)),
}

func bothNumbers(x, y any) bool {
	_, okX := toNumber(x)
	_, okY := toNumber(y)
	return okX && okY
}

func bothMappings(x, y any) bool {
	return isMapping(reflect.ValueOf(x)) && isMapping(reflect.ValueOf(y))
}

func bothSequences(x, y any) bool {
	return isSequence(reflect.ValueOf(x)) && isSequence(reflect.ValueOf(y))
}

// toMapping turns any mapping with string keys into a generic one so that
// typed and decoded snapshots compare.
func toMapping(v any) map[string]any {
	rv := reflect.ValueOf(v)
	result := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		result[iter.Key().String()] = iter.Value().Interface()
	}
	return result
}

func toSequence(v any) []any {
	rv := reflect.ValueOf(v)
	result := make([]any, rv.Len())
	for i := range result {
		result[i] = rv.Index(i).Interface()
	}
	return result
}

func isMapping(v reflect.Value) bool {
	return v.Kind() == reflect.Map && v.Type().Key().Kind() == reflect.String
}

func isSequence(v reflect.Value) bool {
	if v.Kind() == reflect.Array {
		return true
	}
	// []byte is a scalar in a configuration snapshot.
	return v.Kind() == reflect.Slice && v.Type().Elem().Kind() != reflect.Uint8
}

type numberKind int

const (
	signed numberKind = iota
	unsigned
	float
)

type number struct {
	kind numberKind
	i    int64
	u    uint64
	f    float64
}

func toNumber(v any) (number, bool) {
	if n, ok := v.(json.Number); ok {
		if i, err := n.Int64(); err == nil {
			return number{kind: signed, i: i}, true
		}
		f, err := n.Float64()
		return number{kind: float, f: f}, err == nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return number{kind: signed, i: rv.Int()}, true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return number{kind: unsigned, u: rv.Uint()}, true
	case reflect.Float32, reflect.Float64:
		return number{kind: float, f: rv.Float()}, true
	}
	return number{}, false
}

// equalNumbers compares integers exactly. A float equals an integer only
// when it holds that integer, and NaN equals NaN.
func equalNumbers(x, y any) bool {
	a, _ := toNumber(x)
	b, _ := toNumber(y)
	if a.kind > b.kind {
		a, b = b, a
	}
	switch {
	case a.kind == signed && b.kind == signed:
		return a.i == b.i
	case a.kind == unsigned && b.kind == unsigned:
		return a.u == b.u
	case a.kind == signed && b.kind == unsigned:
		return a.i >= 0 && uint64(a.i) == b.u
	case a.kind == float:
		return a.f == b.f || (math.IsNaN(a.f) && math.IsNaN(b.f))
	}

	f := b.f
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return false
	}
	if a.kind == signed {
		return f >= -(1<<63) && f < 1<<63 && int64(f) == a.i
	}
	return f >= 0 && f < 1<<64 && uint64(f) == a.u
}
