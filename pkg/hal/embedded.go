package hal

import "slices"

// Embedded holds the value of one embedded relation: either a single
// resource or an ordered collection of resources.
type Embedded struct {
	single     *Resource
	items      []*Resource
	collection bool
}

// Single wraps one resource.
func Single(resource *Resource) Embedded {
	return Embedded{single: resource}
}

// Collection wraps an ordered list of resources. An empty collection is valid.
func Collection(resources ...*Resource) Embedded {
	return Embedded{items: slices.Clone(resources), collection: true}
}

// IsCollection reports whether the relation holds a list.
func (e Embedded) IsCollection() bool {
	return e.collection
}

// Resource returns the single resource, or nil for collections.
func (e Embedded) Resource() *Resource {
	return e.single
}

// Items returns the resources of the relation. A single resource is
// returned as a one-element slice.
func (e Embedded) Items() []*Resource {
	if e.collection {
		return slices.Clone(e.items)
	}

	if e.single == nil {
		return nil
	}

	return []*Resource{e.single}
}

// Len returns the number of resources held.
func (e Embedded) Len() int {
	if e.collection {
		return len(e.items)
	}

	if e.single == nil {
		return 0
	}

	return 1
}

// First returns the first resource held, or nil.
func (e Embedded) First() *Resource {
	if !e.collection {
		return e.single
	}

	if len(e.items) == 0 {
		return nil
	}

	return e.items[0]
}

func (e Embedded) valid() error {
	if e.collection {
		for _, item := range e.items {
			if item == nil {
				return invalidArgument("embedded collection contains a nil resource")
			}
		}

		return nil
	}

	if e.single == nil {
		return invalidArgument("embedded value must be a resource or a collection of resources")
	}

	return nil
}

// aggregate merges next into the existing relation value.
func (e Embedded) aggregate(next Embedded) Embedded {
	if !e.collection {
		if next.collection {
			return Collection(append([]*Resource{e.single}, next.items...)...)
		}

		return Collection(e.single, next.single)
	}

	items := slices.Clone(e.items)
	if next.collection {
		items = append(items, next.items...)
	} else {
		items = append(items, next.single)
	}

	return Embedded{items: items, collection: true}
}

func (e Embedded) serialize() any {
	if !e.collection {
		return e.single.ToMap()
	}

	out := make([]any, len(e.items))
	for i, item := range e.items {
		out[i] = item.ToMap()
	}

	return out
}
