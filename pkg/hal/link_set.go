package hal

import "slices"

// LinkSet is an ordered, immutable set of links.
type LinkSet struct {
	links []Link
}

// NewLinkSet builds a set from links, dropping duplicates.
func NewLinkSet(links ...Link) LinkSet {
	var set LinkSet
	for _, link := range links {
		set = set.WithLink(link)
	}

	return set
}

// Links returns every link in insertion order.
func (s LinkSet) Links() []Link {
	return slices.Clone(s.links)
}

// LinksByRel returns the links carrying rel.
func (s LinkSet) LinksByRel(rel string) []Link {
	var out []Link

	for _, link := range s.links {
		if link.HasRel(rel) {
			out = append(out, link)
		}
	}

	return out
}

// Len returns the number of links.
func (s LinkSet) Len() int {
	return len(s.links)
}

// WithLink returns a set that includes link. Adding an equal link is a no-op.
func (s LinkSet) WithLink(link Link) LinkSet {
	if s.contains(link) {
		return LinkSet{links: slices.Clone(s.links)}
	}

	links := make([]Link, 0, len(s.links)+1)
	links = append(links, s.links...)
	links = append(links, link)

	return LinkSet{links: links}
}

// WithoutLink returns a set without any link equal to link.
func (s LinkSet) WithoutLink(link Link) LinkSet {
	links := slices.DeleteFunc(slices.Clone(s.links), link.Equal)

	return LinkSet{links: links}
}

func (s LinkSet) contains(link Link) bool {
	return slices.ContainsFunc(s.links, link.Equal)
}

// serialize groups links per relation. A relation with one link renders as
// an object unless one of its links forces collection semantics.
func (s LinkSet) serialize() map[string]any {
	if len(s.links) == 0 {
		return nil
	}

	grouped := make(map[string][]map[string]any)
	forced := make(map[string]bool)

	for _, link := range s.links {
		for _, rel := range link.rels {
			grouped[rel] = append(grouped[rel], link.toMap())
			if link.forcesCollection() {
				forced[rel] = true
			}
		}
	}

	out := make(map[string]any, len(grouped))
	for rel, items := range grouped {
		if len(items) == 1 && !forced[rel] {
			out[rel] = items[0]

			continue
		}

		list := make([]any, len(items))
		for i, item := range items {
			list[i] = item
		}

		out[rel] = list
	}

	return out
}
