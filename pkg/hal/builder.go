package hal

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"
)

// MaxDepth is the deepest container nesting accepted in a response body.
const MaxDepth = 512

// JSON diagnostics reported in parse errors.
const (
	jsonErrorDepth         = "Maximum stack depth exceeded"
	jsonErrorStateMismatch = "State mismatch (invalid or malformed JSON)"
	jsonErrorCtrlChar      = "Unexpected control character found"
	jsonErrorSyntax        = "Syntax error, malformed JSON"
	jsonErrorUTF8          = "Malformed UTF-8 characters, possibly incorrectly encoded"
)

// FromResponse builds a resource from an HTTP response body.
//
// The body is read fully and put back on resp as an in-memory reader. An
// empty body yields an empty resource. _links members become links. For
// _embedded only the last element of the last relation (in document order)
// is kept, stored as a one-element collection under that relation name.
// Read and decode failures are returned as *BadResponse.
func FromResponse(resp *http.Response) (*Resource, error) {
	if resp == nil {
		return nil, invalidArgument("response cannot be nil")
	}

	body, err := readBody(resp)
	if err != nil {
		return nil, newParseError(resp, fmt.Sprintf("Error getting response body: %s.", err), err)
	}

	if len(body) == 0 {
		return FromData(nil, nil, nil, resp)
	}

	decoded, err := decodeBody(body)
	if err != nil {
		return nil, newParseError(resp, fmt.Sprintf("JSON parse error: %s.", err), err)
	}

	var data map[string]any

	switch v := decoded.(type) {
	case nil:
		return FromData(nil, nil, nil, resp)
	case map[string]any:
		data = v
	case []any:
		data = listToMap(v)
	default:
		return nil, newParseError(resp, fmt.Sprintf("JSON parse error: %s.", jsonErrorStateMismatch), nil)
	}

	links, err := parseLinks(data[LinksKey])
	if err != nil {
		return nil, invalidDocument(resp, err)
	}

	rawEmbedded, hasEmbedded := data[EmbeddedKey]
	delete(data, LinksKey)
	delete(data, EmbeddedKey)

	var embedded map[string]Embedded

	if hasEmbedded {
		order, err := embeddedKeyOrder(body)
		if err != nil {
			return nil, newParseError(resp, fmt.Sprintf("JSON parse error: %s.", jsonErrorSyntax), err)
		}

		embedded, err = parseEmbedded(rawEmbedded, order)
		if err != nil {
			return nil, invalidDocument(resp, err)
		}
	}

	resource, err := FromData(data, links, embedded, resp)
	if err != nil {
		return nil, invalidDocument(resp, err)
	}

	return resource, nil
}

func readBody(resp *http.Response) ([]byte, error) {
	if resp.Body == nil {
		return nil, nil
	}

	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()

	if err != nil {
		return nil, err
	}

	resp.Body = io.NopCloser(bytes.NewReader(body))

	return body, nil
}

// jsonError is a decode failure carrying a human readable diagnostic.
type jsonError struct {
	diagnostic string
	err        error
}

func (e *jsonError) Error() string {
	return e.diagnostic
}

func (e *jsonError) Unwrap() error {
	return e.err
}

func decodeBody(body []byte) (any, error) {
	if !utf8.Valid(body) {
		return nil, &jsonError{diagnostic: jsonErrorUTF8}
	}

	if nestingDepth(body) > MaxDepth {
		return nil, &jsonError{diagnostic: jsonErrorDepth}
	}

	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()

	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, classifyDecodeError(err)
	}

	if _, err := decoder.Token(); !errors.Is(err, io.EOF) {
		return nil, &jsonError{diagnostic: jsonErrorSyntax, err: err}
	}

	return value, nil
}

func classifyDecodeError(err error) error {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) && strings.Contains(syntaxErr.Error(), "in string literal") {
		return &jsonError{diagnostic: jsonErrorCtrlChar, err: err}
	}

	if strings.Contains(err.Error(), "exceeded max depth") {
		return &jsonError{diagnostic: jsonErrorDepth, err: err}
	}

	return &jsonError{diagnostic: jsonErrorSyntax, err: err}
}

// nestingDepth returns the deepest object/array nesting in a JSON text,
// ignoring brackets inside string literals.
func nestingDepth(body []byte) int {
	depth, deepest := 0, 0
	inString, escaped := false, false

	for _, c := range body {
		switch {
		case escaped:
			escaped = false
		case inString && c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{' || c == '[':
			depth++
			deepest = max(deepest, depth)
		case c == '}' || c == ']':
			depth--
		}
	}

	return deepest
}

func listToMap(list []any) map[string]any {
	data := make(map[string]any, len(list))
	for i, value := range list {
		data[strconv.Itoa(i)] = value
	}

	return data
}

func invalidDocument(resp *http.Response, err error) error {
	return newParseError(resp, fmt.Sprintf("Invalid HAL document: %s.", err), err)
}

// parseLinks turns a _links member into links, relations in name order. A
// relation holding an array yields one link per element.
func parseLinks(raw any) ([]Link, error) {
	members, err := asMembers(raw, LinksKey)
	if err != nil || len(members) == 0 {
		return nil, err
	}

	var links []Link

	for _, rel := range sortedKeys(members) {
		switch v := members[rel].(type) {
		case map[string]any:
			link, err := linkFromObject(rel, v)
			if err != nil {
				return nil, err
			}

			links = append(links, link)
		case []any:
			for _, item := range v {
				object, ok := item.(map[string]any)
				if !ok {
					return nil, fmt.Errorf("%w: link %q must be an object", ErrInvalidArgument, rel)
				}

				link, err := linkFromObject(rel, object)
				if err != nil {
					return nil, err
				}

				links = append(links, link)
			}
		default:
			return nil, fmt.Errorf("%w: link %q must be an object or an array of objects", ErrInvalidArgument, rel)
		}
	}

	return links, nil
}

// linkFromObject keeps href, templated and every valid attribute. Attributes
// whose values are not scalars or string arrays are dropped.
func linkFromObject(rel string, object map[string]any) (Link, error) {
	href := ""

	if raw, ok := object["href"]; ok && raw != nil {
		s, ok := raw.(string)
		if !ok {
			return Link{}, fmt.Errorf("%w: link %q href must be a string", ErrInvalidArgument, rel)
		}

		href = s
	}

	templated, _ := object["templated"].(bool)

	attrs := make(map[string]any)

	for name, value := range object {
		if name == "href" || name == "templated" {
			continue
		}

		if _, err := validateAttribute(name, value); err != nil {
			continue
		}

		attrs[name] = value
	}

	return NewLink([]string{rel}, href, templated, attrs)
}

// parseEmbedded reproduces the single-survivor rule for _embedded: every
// relation is walked in document order and each element overwrites the
// previous candidate, so only the last element seen remains. It is stored
// under the last relation name. When no element was seen at all the
// relation maps to an empty collection.
func parseEmbedded(raw any, order []string) (map[string]Embedded, error) {
	members, err := asMembers(raw, EmbeddedKey)
	if err != nil || len(members) == 0 {
		return nil, err
	}

	var (
		last     *Resource
		lastName string
	)

	for _, name := range order {
		lastName = name

		for _, item := range embeddedItems(members[name]) {
			object, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("%w: embedded %q must contain objects", ErrInvalidArgument, name)
			}

			child, err := childResource(object)
			if err != nil {
				return nil, err
			}

			last = child
		}
	}

	if lastName == "" {
		return nil, nil
	}

	if last == nil {
		return map[string]Embedded{lastName: Collection()}, nil
	}

	return map[string]Embedded{lastName: Collection(last)}, nil
}

func embeddedItems(raw any) []any {
	switch v := raw.(type) {
	case []any:
		return v
	case map[string]any:
		return []any{v}
	case nil:
		return nil
	default:
		return []any{v}
	}
}

// childResource builds an embedded resource from its raw object. Nested
// _embedded members are discarded.
func childResource(object map[string]any) (*Resource, error) {
	links, err := parseLinks(object[LinksKey])
	if err != nil {
		return nil, err
	}

	data := make(map[string]any, len(object))
	for name, value := range object {
		if name == LinksKey || name == EmbeddedKey {
			continue
		}

		data[name] = value
	}

	return New(data, links, nil)
}

// asMembers accepts an object, null or an empty array (the usual encoding
// of an empty map by some servers) for a reserved member.
func asMembers(raw any, member string) (map[string]any, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		return v, nil
	case []any:
		if len(v) == 0 {
			return nil, nil
		}
	}

	return nil, fmt.Errorf("%w: %s must be an object", ErrInvalidArgument, member)
}

// embeddedKeyOrder returns the member names of the top-level _embedded
// object in document order. Duplicate names keep their first position.
func embeddedKeyOrder(body []byte) ([]string, error) {
	decoder := json.NewDecoder(bytes.NewReader(body))

	tok, err := decoder.Token()
	if err != nil {
		return nil, err
	}

	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, nil
	}

	var order []string

	for decoder.More() {
		keyTok, err := decoder.Token()
		if err != nil {
			return nil, err
		}

		key, _ := keyTok.(string)
		if key != EmbeddedKey {
			if err := skipValue(decoder); err != nil {
				return nil, err
			}

			continue
		}

		order, err = objectKeys(decoder)
		if err != nil {
			return nil, err
		}
	}

	return order, nil
}

func objectKeys(decoder *json.Decoder) ([]string, error) {
	tok, err := decoder.Token()
	if err != nil {
		return nil, err
	}

	delim, ok := tok.(json.Delim)
	if !ok {
		return nil, nil
	}

	if delim != '{' {
		return nil, skipRest(decoder)
	}

	var keys []string

	seen := make(map[string]bool)

	for decoder.More() {
		keyTok, err := decoder.Token()
		if err != nil {
			return nil, err
		}

		key, _ := keyTok.(string)
		if !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}

		if err := skipValue(decoder); err != nil {
			return nil, err
		}
	}

	// closing brace
	if _, err := decoder.Token(); err != nil {
		return nil, err
	}

	return keys, nil
}

func skipValue(decoder *json.Decoder) error {
	tok, err := decoder.Token()
	if err != nil {
		return err
	}

	if _, ok := tok.(json.Delim); ok {
		return skipRest(decoder)
	}

	return nil
}

// skipRest consumes tokens until the container just opened is closed.
func skipRest(decoder *json.Decoder) error {
	for depth := 1; depth > 0; {
		tok, err := decoder.Token()
		if err != nil {
			return err
		}

		if delim, ok := tok.(json.Delim); ok {
			switch delim {
			case '{', '[':
				depth++
			case '}', ']':
				depth--
			}
		}
	}

	return nil
}
