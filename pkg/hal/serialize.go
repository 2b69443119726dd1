package hal

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/mitchellh/mapstructure"
)

// ToMap renders the resource in its HAL form. _links and _embedded are
// omitted when empty.
func (r *Resource) ToMap() map[string]any {
	out := deepCopyData(r.data)

	if links := r.LinkSet.serialize(); len(links) > 0 {
		out[LinksKey] = links
	}

	if len(r.embedded) > 0 {
		embedded := make(map[string]any, len(r.embedded))
		for name, value := range r.embedded {
			embedded[name] = value.serialize()
		}

		out[EmbeddedKey] = embedded
	}

	return out
}

// MarshalJSON implements json.Marshaler.
func (r *Resource) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.ToMap())
}

// Decode copies the data elements into out, which must be a pointer to a
// struct or map. Fields are matched on their json tags and loosely typed
// values are converted.
func (r *Resource) Decode(out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           out,
		DecodeHook:       jsonNumberHook,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}

	if err := decoder.Decode(deepCopyData(r.data)); err != nil {
		return fmt.Errorf("failed to decode resource: %w", err)
	}

	return nil
}

// jsonNumberHook converts json.Number values produced by the body decoder
// into the numeric kind of the target field.
func jsonNumberHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	number, ok := data.(json.Number)
	if !ok {
		return data, nil
	}

	switch to.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if n, err := number.Int64(); err == nil {
			return n, nil
		}

		f, err := number.Float64()
		if err != nil {
			return nil, err
		}

		return int64(f), nil
	case reflect.Float32, reflect.Float64:
		return number.Float64()
	case reflect.String:
		return number.String(), nil
	default:
		return data, nil
	}
}
