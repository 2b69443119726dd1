// Package hal implements the resource model of HAL (Hypertext Application
// Language) JSON documents.
//
// # Resources
//
// A Resource holds plain data elements, a set of links and embedded
// resources. Resources are immutable: every mutator returns a new value.
//
//	user, err := hal.New(map[string]any{"name": "ada"}, []hal.Link{hal.MustLink("self", "/users/1")}, nil)
//	if err != nil {
//		return err
//	}
//
//	user, err = user.WithElement("role", "admin")
//
// A name is either a data element or an embedded relation, never both. The
// names _links and _embedded are reserved.
//
// # Embedding
//
// Embedding under an existing relation aggregates instead of replacing:
//
//	single + single      -> [old, new]
//	single + collection  -> [old, new...]
//	collection + any     -> [old..., new...]
//
// # Parsing
//
// FromResponse reads a response body into a Resource. Decode failures are
// returned as *BadResponse with a message of the form
// "JSON parse error: <diagnostic>.". Only the last element of the last
// _embedded relation survives parsing; callers needing every embedded item
// should decode the body themselves.
//
// # Serialization
//
// ToMap and MarshalJSON render the HAL form. Links are grouped per relation
// and a relation with one link renders as an object unless one of its links
// carries the AsCollection attribute.
package hal
