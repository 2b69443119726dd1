package hal

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/mitchellh/copystructure"
	"github.com/spf13/cast"
)

// toInt casts a loosely typed element to an int. Numeric strings are parsed
// in base 10, fractions truncate and anything unrecognized yields zero.
func toInt(value any) int {
	switch v := value.(type) {
	case json.Number:
		return parseIntString(v.String())
	case string:
		return parseIntString(v)
	}

	n, err := cast.ToIntE(value)
	if err != nil {
		return 0
	}

	return n
}

// parseIntString goes through float parsing so "12.5" reads as 12 and a
// leading zero is not taken as an octal prefix.
func parseIntString(s string) int {
	f, err := cast.ToFloat64E(strings.TrimSpace(s))
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}

	return int(f)
}

// truthy follows loose boolean casting: zero values, "" and "0" are false.
func truthy(value any) bool {
	switch v := value.(type) {
	case string:
		return v != "" && v != "0"
	case []string:
		return len(v) > 0
	case json.Number:
		f, err := cast.ToFloat64E(v.String())

		return err == nil && f != 0
	}

	b, err := cast.ToBoolE(value)
	if err != nil {
		return true
	}

	return b
}

// deepCopy copies nested maps and slices so callers never share them with
// a resource.
func deepCopy(value any) any {
	switch value.(type) {
	case map[string]any, []any:
	default:
		return value
	}

	copied, err := copystructure.Copy(value)
	if err != nil {
		return value
	}

	return copied
}

func deepCopyData(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for name, value := range data {
		out[name] = deepCopy(value)
	}

	return out
}
