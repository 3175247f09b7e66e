package shpwrite

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
)

// columnKind is the attribute type inferred from property values.
type columnKind int

const (
	kindNone columnKind = iota // only nil values seen
	kindBool
	kindInt
	kindFloat
	kindString
)

// column is one inferred attribute column.
type column struct {
	key  string // property name
	kind columnKind
}

// inferColumns analyzes the rows of a layer and infers the column schema.
// Columns follow first occurrence; keys within a row are visited in sorted
// order so the schema does not depend on map iteration.
func inferColumns(rows []map[string]interface{}) []*column {
	var columns []*column
	index := make(map[string]*column)

	for _, props := range rows {
		for _, name := range sortedKeys(props) {
			kind := inferKind(props[name])
			col, ok := index[name]
			if !ok {
				col = &column{key: name, kind: kind}
				index[name] = col
				columns = append(columns, col)
				continue
			}
			col.kind = promoteKind(col.kind, kind)
		}
	}

	return columns
}

func sortedKeys(props map[string]interface{}) []string {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// inferKind determines the column kind for a Go value. Integral floats count
// as integers because decoded JSON numbers are always float64.
func inferKind(value interface{}) columnKind {
	switch v := value.(type) {
	case nil:
		return kindNone
	case bool:
		return kindBool
	case int, int8, int16, int32, int64, uint8, uint16, uint32:
		return kindInt
	case uint:
		return unsignedKind(uint64(v))
	case uint64:
		return unsignedKind(v)
	case float32:
		return floatKind(float64(v))
	case float64:
		return floatKind(v)
	case json.Number:
		if _, err := v.Int64(); err == nil {
			return kindInt
		}
		if f, err := v.Float64(); err == nil {
			return floatKind(f)
		}
		return kindString
	default:
		return kindString
	}
}

// unsignedKind stores values past the int64 range as floats.
func unsignedKind(u uint64) columnKind {
	if u > math.MaxInt64 {
		return kindFloat
	}
	return kindInt
}

func floatKind(f float64) columnKind {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return kindInt
	}
	return kindFloat
}

// promoteKind returns the more general kind when rows disagree.
func promoteKind(a, b columnKind) columnKind {
	switch {
	case a == b:
		return a
	case a == kindNone:
		return b
	case b == kindNone:
		return a
	case (a == kindInt && b == kindFloat) || (a == kindFloat && b == kindInt):
		return kindFloat
	default:
		return kindString
	}
}

// Type conversion helpers

func toInt64(v interface{}) (int64, bool) {
	switch val := v.(type) {
	case int:
		return int64(val), true
	case int8:
		return int64(val), true
	case int16:
		return int64(val), true
	case int32:
		return int64(val), true
	case int64:
		return val, true
	case uint:
		if uint64(val) > math.MaxInt64 {
			return 0, false
		}
		return int64(val), true
	case uint8:
		return int64(val), true
	case uint16:
		return int64(val), true
	case uint32:
		return int64(val), true
	case uint64:
		if val > math.MaxInt64 {
			return 0, false
		}
		return int64(val), true
	case float32:
		return int64(val), true
	case float64:
		return int64(val), true
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i, true
		}
		if f, err := val.Float64(); err == nil {
			return int64(f), true
		}
	}
	return 0, false
}

func toFloat64(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case float32:
		return float64(val), true
	case float64:
		return val, true
	case uint:
		return float64(val), true
	case uint64:
		return float64(val), true
	case json.Number:
		if f, err := val.Float64(); err == nil {
			return f, true
		}
	}
	if i, ok := toInt64(v); ok {
		return float64(i), true
	}
	return 0, false
}

func toString(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []byte:
		return string(val)
	case bool:
		return strconv.FormatBool(val)
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		// For other types, use JSON encoding
		b, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
