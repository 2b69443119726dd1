package hal

import (
	"encoding/json"
	"maps"
	"slices"
)

// AsCollection is the link attribute that forces a relation to serialize as
// an array even when it holds a single link.
const AsCollection = "__FORCE_COLLECTION__"

// Link is an immutable hypermedia link. Every With/Without method returns a
// new Link and leaves the receiver untouched.
type Link struct {
	rels       []string
	href       string
	templated  bool
	attributes map[string]any
}

// NewLink creates a link for one or more relations.
func NewLink(rels []string, href string, templated bool, attributes map[string]any) (Link, error) {
	if len(rels) == 0 {
		return Link{}, invalidArgument("link requires at least one relation")
	}

	for _, rel := range rels {
		if rel == "" {
			return Link{}, invalidArgument("link relations must be non-empty strings")
		}
	}

	attrs := make(map[string]any, len(attributes))
	for name, value := range attributes {
		normalized, err := validateAttribute(name, value)
		if err != nil {
			return Link{}, err
		}

		attrs[name] = normalized
	}

	return Link{
		rels:       slices.Clone(rels),
		href:       href,
		templated:  templated,
		attributes: attrs,
	}, nil
}

// MustLink is like NewLink but panics on invalid arguments. Intended for
// literals in tests and static tables.
func MustLink(rel, href string) Link {
	link, err := NewLink([]string{rel}, href, false, nil)
	if err != nil {
		panic(err)
	}

	return link
}

// Href returns the link target.
func (l Link) Href() string {
	return l.href
}

// Rels returns a copy of the link relations.
func (l Link) Rels() []string {
	return slices.Clone(l.rels)
}

// HasRel reports whether the link carries the relation.
func (l Link) HasRel(rel string) bool {
	return slices.Contains(l.rels, rel)
}

// IsTemplated reports whether the href is a URI template.
func (l Link) IsTemplated() bool {
	return l.templated
}

// Attributes returns a copy of the attribute bag.
func (l Link) Attributes() map[string]any {
	attrs := make(map[string]any, len(l.attributes))
	for name, value := range l.attributes {
		attrs[name] = cloneAttribute(value)
	}

	return attrs
}

// Attribute returns a single attribute value.
func (l Link) Attribute(name string) (any, bool) {
	value, ok := l.attributes[name]
	if !ok {
		return nil, false
	}

	return cloneAttribute(value), true
}

// WithHref returns a copy targeting href.
func (l Link) WithHref(href string) Link {
	next := l.clone()
	next.href = href

	return next
}

// WithTemplated returns a copy with the templated flag set.
func (l Link) WithTemplated(templated bool) Link {
	next := l.clone()
	next.templated = templated

	return next
}

// WithRel returns a copy that also carries rel. Adding a present relation
// returns an equal link.
func (l Link) WithRel(rel string) (Link, error) {
	if rel == "" {
		return Link{}, invalidArgument("relation must be a non-empty string")
	}

	next := l.clone()
	if !next.HasRel(rel) {
		next.rels = append(next.rels, rel)
	}

	return next, nil
}

// WithoutRel returns a copy without rel. Removing the last relation is
// rejected.
func (l Link) WithoutRel(rel string) (Link, error) {
	next := l.clone()
	if rel == "" || !l.HasRel(rel) {
		return next, nil
	}

	if len(l.rels) == 1 {
		return Link{}, invalidArgument("cannot remove the only relation %q", rel)
	}

	next.rels = slices.DeleteFunc(next.rels, func(r string) bool { return r == rel })

	return next, nil
}

// WithAttribute returns a copy with the attribute set.
func (l Link) WithAttribute(name string, value any) (Link, error) {
	normalized, err := validateAttribute(name, value)
	if err != nil {
		return Link{}, err
	}

	next := l.clone()
	next.attributes[name] = normalized

	return next, nil
}

// WithoutAttribute returns a copy without the attribute.
func (l Link) WithoutAttribute(name string) Link {
	next := l.clone()
	delete(next.attributes, name)

	return next
}

// Equal reports whether both links share href, templated flag, relations and
// attributes.
func (l Link) Equal(other Link) bool {
	if l.href != other.href || l.templated != other.templated {
		return false
	}

	if !slices.Equal(l.rels, other.rels) {
		return false
	}

	return maps.EqualFunc(l.attributes, other.attributes, attributeEqual)
}

// forcesCollection reports whether the link asks for array serialization.
func (l Link) forcesCollection() bool {
	value, ok := l.attributes[AsCollection]
	if !ok {
		return false
	}

	return truthy(value)
}

// toMap renders the link object: attributes, then href and templated.
func (l Link) toMap() map[string]any {
	out := make(map[string]any, len(l.attributes)+2)
	for name, value := range l.attributes {
		if name == AsCollection {
			continue
		}

		out[name] = cloneAttribute(value)
	}

	out["href"] = l.href
	if l.templated {
		out["templated"] = true
	}

	return out
}

func (l Link) clone() Link {
	attrs := make(map[string]any, len(l.attributes))
	for name, value := range l.attributes {
		attrs[name] = cloneAttribute(value)
	}

	return Link{
		rels:       slices.Clone(l.rels),
		href:       l.href,
		templated:  l.templated,
		attributes: attrs,
	}
}

// validateAttribute checks the attribute name and value and returns the
// value in its stored form. []any holding only strings becomes []string.
func validateAttribute(name string, value any) (any, error) {
	if name == "" {
		return nil, invalidArgument("link attribute name must be a non-empty string")
	}

	switch v := value.(type) {
	case string, bool, json.Number,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return v, nil
	case []string:
		return slices.Clone(v), nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, invalidArgument("link attribute %q must contain only strings", name)
			}

			out = append(out, s)
		}

		return out, nil
	default:
		return nil, invalidArgument("link attribute %q must be a scalar or an array of strings; received %T", name, value)
	}
}

func cloneAttribute(value any) any {
	if list, ok := value.([]string); ok {
		return slices.Clone(list)
	}

	return value
}

func attributeEqual(a, b any) bool {
	listA, okA := a.([]string)
	listB, okB := b.([]string)

	if okA || okB {
		return okA && okB && slices.Equal(listA, listB)
	}

	return a == b
}
