package hal

import (
	"fmt"
	"maps"
	"net/http"
	"slices"
)

// Reserved HAL member names.
const (
	LinksKey    = "_links"
	EmbeddedKey = "_embedded"
)

// Status range outside of which a resource is flagged as an error resource.
const (
	statusSuccessMin = 200
	statusSuccessMax = 400
)

// Resource is an immutable HAL resource. Every mutator returns a new
// Resource and leaves the receiver unchanged.
type Resource struct {
	LinkSet

	data          map[string]any
	embedded      map[string]Embedded
	embeddedOrder []string
	isError       bool
	response      *http.Response
}

// New builds a resource from data, links and embedded relations. Names are
// validated and a name used in both data and embedded is rejected.
func New(data map[string]any, links []Link, embedded map[string]Embedded) (*Resource, error) {
	resource := &Resource{
		LinkSet:  NewLinkSet(links...),
		data:     make(map[string]any, len(data)),
		embedded: make(map[string]Embedded, len(embedded)),
	}

	for name, value := range data {
		if err := validateElementName(name); err != nil {
			return nil, err
		}

		resource.data[name] = deepCopy(value)
	}

	for _, name := range sortedKeys(embedded) {
		if err := validateElementName(name); err != nil {
			return nil, err
		}

		if _, ok := resource.data[name]; ok {
			return nil, fmt.Errorf("%w: attempt to embed resource matching element name %q", ErrCollision, name)
		}

		value := embedded[name]
		if err := value.valid(); err != nil {
			return nil, err
		}

		resource.embedded[name] = value
		resource.embeddedOrder = append(resource.embeddedOrder, name)
	}

	return resource, nil
}

// FromData is New plus the error flag derived from resp. A nil response
// never marks an error resource.
func FromData(data map[string]any, links []Link, embedded map[string]Embedded, resp *http.Response) (*Resource, error) {
	status := 0
	if resp != nil {
		status = resp.StatusCode
	}

	resource, err := FromDataStatus(data, links, embedded, status)
	if err != nil {
		return nil, err
	}

	resource.response = resp

	return resource, nil
}

// FromDataStatus is New plus the error flag derived from a status code.
// Status 0 means no status is known.
func FromDataStatus(data map[string]any, links []Link, embedded map[string]Embedded, status int) (*Resource, error) {
	resource, err := New(data, links, embedded)
	if err != nil {
		return nil, err
	}

	resource.isError = status != 0 && (status < statusSuccessMin || status >= statusSuccessMax)

	return resource, nil
}

// Empty returns a resource with no data, links or embedded relations.
func Empty() *Resource {
	return &Resource{data: map[string]any{}, embedded: map[string]Embedded{}}
}

// IsErrorResource reports whether the source status was outside [200,400).
func (r *Resource) IsErrorResource() bool {
	return r.isError
}

// Response returns the response the resource was built from, if any.
func (r *Resource) Response() *http.Response {
	return r.response
}

// IsEmpty reports whether the resource has no data, links or embedded
// relations.
func (r *Resource) IsEmpty() bool {
	return len(r.data) == 0 && len(r.embedded) == 0 && r.LinkSet.Len() == 0
}

// Element returns the embedded value under name if present, else the data
// value, else nil.
func (r *Resource) Element(name string) (any, error) {
	if err := validateElementName(name); err != nil {
		return nil, err
	}

	if value, ok := r.embedded[name]; ok {
		return value, nil
	}

	return deepCopy(r.data[name]), nil
}

// Elements returns data and embedded relations merged under their names.
func (r *Resource) Elements() map[string]any {
	out := deepCopyData(r.data)

	for name, value := range r.embedded {
		out[name] = value
	}

	return out
}

// Data returns a deep copy of the data elements.
func (r *Resource) Data() map[string]any {
	return deepCopyData(r.data)
}

// Embedded returns a copy of the embedded relations.
func (r *Resource) Embedded() map[string]Embedded {
	return maps.Clone(r.embedded)
}

// EmbeddedNames returns embedded relation names in insertion order.
func (r *Resource) EmbeddedNames() []string {
	return slices.Clone(r.embeddedOrder)
}

// EmbeddedResource returns the embedded value under name.
func (r *Resource) EmbeddedResource(name string) (Embedded, bool) {
	value, ok := r.embedded[name]

	return value, ok
}

// WithElement returns a copy with the named element set. Resources, non-empty
// resource slices and Embedded values are routed to Embed.
func (r *Resource) WithElement(name string, value any) (*Resource, error) {
	if err := validateElementName(name); err != nil {
		return nil, err
	}

	switch v := value.(type) {
	case *Resource:
		if v != nil {
			return r.Embed(name, Single(v), false)
		}
	case []*Resource:
		if len(v) > 0 {
			return r.Embed(name, Collection(v...), false)
		}
	case Embedded:
		return r.Embed(name, v, false)
	}

	if _, ok := r.embedded[name]; ok {
		return nil, fmt.Errorf("%w: attempt to add element matching resource name %q", ErrCollision, name)
	}

	next := r.clone()
	next.data[name] = deepCopy(value)

	return next, nil
}

// WithoutElement returns a copy without the named data element or embedded
// relation.
func (r *Resource) WithoutElement(name string) (*Resource, error) {
	if err := validateElementName(name); err != nil {
		return nil, err
	}

	next := r.clone()
	delete(next.data, name)

	if _, ok := next.embedded[name]; ok {
		delete(next.embedded, name)
		next.embeddedOrder = slices.DeleteFunc(next.embeddedOrder, func(n string) bool { return n == name })
	}

	return next, nil
}

// WithElements applies WithElement for every entry, in name order.
func (r *Resource) WithElements(elements map[string]any) (*Resource, error) {
	resource := r

	for _, name := range sortedKeys(elements) {
		next, err := resource.WithElement(name, elements[name])
		if err != nil {
			return nil, err
		}

		resource = next
	}

	return resource, nil
}

// Embed returns a copy with value aggregated under name. A new relation is
// stored as given, or as a one-element collection when forceCollection is
// set. An existing relation is aggregated: single+single and single+list
// become a list with the old resource first; list+anything appends.
func (r *Resource) Embed(name string, value Embedded, forceCollection bool) (*Resource, error) {
	if err := validateElementName(name); err != nil {
		return nil, err
	}

	if _, ok := r.data[name]; ok {
		return nil, fmt.Errorf("%w: attempt to embed resource matching element name %q", ErrCollision, name)
	}

	if err := value.valid(); err != nil {
		return nil, err
	}

	next := r.clone()

	existing, ok := next.embedded[name]
	switch {
	case !ok && forceCollection && !value.collection:
		next.embedded[name] = Collection(value.single)
	case !ok:
		next.embedded[name] = value
	default:
		next.embedded[name] = existing.aggregate(value)
	}

	if !ok {
		next.embeddedOrder = append(next.embeddedOrder, name)
	}

	return next, nil
}

// EmbedResource embeds a single resource under name.
func (r *Resource) EmbedResource(name string, resource *Resource) (*Resource, error) {
	return r.Embed(name, Single(resource), false)
}

// EmbedCollection embeds a list of resources under name.
func (r *Resource) EmbedCollection(name string, resources []*Resource) (*Resource, error) {
	return r.Embed(name, Collection(resources...), false)
}

// WithLink returns a copy that includes link.
func (r *Resource) WithLink(link Link) *Resource {
	next := r.clone()
	next.LinkSet = r.LinkSet.WithLink(link)

	return next
}

// WithoutLink returns a copy without link.
func (r *Resource) WithoutLink(link Link) *Resource {
	next := r.clone()
	next.LinkSet = r.LinkSet.WithoutLink(link)

	return next
}

// IsCollection reports whether a page element is present.
func (r *Resource) IsCollection() bool {
	return r.lookup("_page", "page") != nil
}

// CountCollection returns the count element if present, else the size of the
// first embedded relation, else zero.
func (r *Resource) CountCollection() int {
	if count := r.lookup("_count", "count"); count != nil {
		return toInt(count)
	}

	if len(r.embeddedOrder) == 0 {
		return 0
	}

	return r.embedded[r.embeddedOrder[0]].Len()
}

// HasMorePages compares the page element with the page count element.
func (r *Resource) HasMorePages() bool {
	page := r.lookup("_page", "page")
	if page == nil {
		return false
	}

	pageCount := r.lookup("_page_count", "page_count")
	if pageCount == nil {
		return false
	}

	return toInt(page) < toInt(pageCount)
}

// TotalItems reads the total items element.
func (r *Resource) TotalItems() (int, error) {
	count := r.lookup("_total_items", "total_items")
	if count == nil {
		return 0, fmt.Errorf("%w: total items element not found in response", ErrMissingElement)
	}

	return toInt(count), nil
}

// FirstResource returns the first item of a list element, or the element
// itself when it is not a list.
func (r *Resource) FirstResource(name string) (any, error) {
	element, err := r.Element(name)
	if err != nil {
		return nil, err
	}

	switch v := element.(type) {
	case nil:
		return nil, fmt.Errorf("%w: element with name %q not found in response", ErrMissingElement, name)
	case Embedded:
		if v.Len() == 0 {
			return v, nil
		}

		return v.First(), nil
	case []any:
		if len(v) == 0 {
			return v, nil
		}

		return v[0], nil
	default:
		return element, nil
	}
}

// ResourceAt returns the resource at index in the first embedded collection.
func (r *Resource) ResourceAt(index int) (*Resource, error) {
	if index < 0 || index >= r.CountCollection() {
		return nil, invalidArgument("the collection has fewer elements than requested")
	}

	if len(r.embeddedOrder) == 0 {
		return nil, invalidArgument("the collection has fewer elements than requested")
	}

	first := r.embedded[r.embeddedOrder[0]]
	if !first.collection || index >= len(first.items) {
		return nil, invalidArgument("the collection has fewer elements than requested")
	}

	return first.items[index], nil
}

func (r *Resource) lookup(names ...string) any {
	for _, name := range names {
		if value, ok := r.embedded[name]; ok {
			return value
		}

		if value := r.data[name]; value != nil {
			return value
		}
	}

	return nil
}

// clone copies the top-level maps. Nested values are shared because they
// are copied on the way in and on the way out.
func (r *Resource) clone() *Resource {
	next := &Resource{
		LinkSet:       r.LinkSet,
		data:          maps.Clone(r.data),
		embedded:      maps.Clone(r.embedded),
		embeddedOrder: slices.Clone(r.embeddedOrder),
		isError:       r.isError,
		response:      r.response,
	}

	if next.data == nil {
		next.data = map[string]any{}
	}

	if next.embedded == nil {
		next.embedded = map[string]Embedded{}
	}

	return next
}

func validateElementName(name string) error {
	if name == "" {
		return invalidArgument("element name cannot be empty")
	}

	if name == LinksKey || name == EmbeddedKey {
		return invalidArgument("%s is a reserved element name", name)
	}

	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
