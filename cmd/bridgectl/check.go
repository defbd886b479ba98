package main

import (
	"fmt"
	"math"
	"sort"

	"github.com/goccy/go-yaml"

	"github.com/wippyai/marshal-bridge/value"
)

// decodeValue reads a YAML document as a boundary value. Mappings keep
// their document order.
func decodeValue(data []byte) (value.Value, error) {
	var doc any
	if err := yaml.UnmarshalWithOptions(data, &doc, yaml.UseOrderedMap()); err != nil {
		return value.Value{}, fmt.Errorf("decode: %w", err)
	}
	return toValue(doc)
}

func toValue(x any) (value.Value, error) {
	switch t := x.(type) {
	case nil:
		return value.Null(), nil
	case bool:
		return value.Bool(t), nil
	case string:
		return value.String(t), nil
	case int:
		return fromInt(int64(t)), nil
	case int64:
		return fromInt(t), nil
	case uint64:
		if t > math.MaxInt64 {
			return value.Value{}, fmt.Errorf("integer %d out of range", t)
		}
		return fromInt(int64(t)), nil
	case float64:
		return value.Double(t), nil
	case []any:
		arr := value.NewArray(len(t))
		for i, e := range t {
			v, err := toValue(e)
			if err != nil {
				return value.Value{}, fmt.Errorf("[%d]: %w", i, err)
			}
			arr.Set(i, v)
		}
		return value.FromArray(arr), nil
	case yaml.MapSlice:
		m := value.NewMap()
		for _, item := range t {
			key := fmt.Sprint(item.Key)
			v, err := toValue(item.Value)
			if err != nil {
				return value.Value{}, fmt.Errorf("%s: %w", key, err)
			}
			m.Set(key, v)
		}
		return value.FromMap(m), nil
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		m := value.NewMap()
		for _, k := range keys {
			v, err := toValue(t[k])
			if err != nil {
				return value.Value{}, fmt.Errorf("%s: %w", k, err)
			}
			m.Set(k, v)
		}
		return value.FromMap(m), nil
	default:
		return value.Value{}, fmt.Errorf("unsupported YAML value %T", x)
	}
}

func fromInt(i int64) value.Value {
	if i >= math.MinInt32 && i <= math.MaxInt32 {
		return value.Int(int32(i))
	}
	return value.Long(i)
}
