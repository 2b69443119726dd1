package halclient

import (
	"context"
	"net/url"
	"strconv"

	"github.com/fivetwenty-io/hal-client/pkg/hal"
)

// Page query parameter names.
const (
	PageParam    = "page"
	PerPageParam = "per_page"
)

// Paginator reads a paged HAL collection. The first call to any accessor
// fetches the page; later calls reuse it.
type Paginator struct {
	client     *Client
	url        string
	collection string
	query      url.Values

	resource *hal.Resource
}

// NewPaginator creates a paginator for the collection embedded under
// collection at url.
func NewPaginator(client *Client, url, collection string, query url.Values) *Paginator {
	return &Paginator{
		client:     client,
		url:        url,
		collection: collection,
		query:      cloneValues(query),
	}
}

// Items returns the resources of the page at offset with perPage items per
// page. A perPage of zero or less leaves paging to the server. offset and
// perPage only shape the request when the page was not fetched yet. The
// result is nil when the page has no such collection.
func (p *Paginator) Items(ctx context.Context, offset, perPage int) ([]*hal.Resource, error) {
	if perPage > 0 {
		if p.query == nil {
			p.query = make(url.Values)
		}

		p.query.Set(PageParam, strconv.Itoa(offset/perPage+1))
		p.query.Set(PerPageParam, strconv.Itoa(perPage))
	}

	resource, err := p.Resource(ctx)
	if err != nil {
		return nil, err
	}

	embedded, ok := resource.EmbeddedResource(p.collection)
	if !ok {
		return nil, nil
	}

	return embedded.Items(), nil
}

// Count returns the total number of items reported by the page.
func (p *Paginator) Count(ctx context.Context) (int, error) {
	resource, err := p.Resource(ctx)
	if err != nil {
		return 0, err
	}

	return resource.TotalItems()
}

// HasMorePages reports whether pages follow the fetched one.
func (p *Paginator) HasMorePages(ctx context.Context) (bool, error) {
	resource, err := p.Resource(ctx)
	if err != nil {
		return false, err
	}

	return resource.HasMorePages(), nil
}

// Resource returns the fetched page.
func (p *Paginator) Resource(ctx context.Context) (*hal.Resource, error) {
	if p.resource != nil {
		return p.resource, nil
	}

	resource, err := p.client.Get(ctx, p.url, &Options{Query: p.query})
	if err != nil {
		return nil, err
	}

	p.resource = resource

	return resource, nil
}
