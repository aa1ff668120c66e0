package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// PageRequest is the body of a paginated query. Page is 1-based.
type PageRequest struct {
	Page int `json:"page"`
	Size int `json:"size"`
}

// Page is the canonical paginated envelope returned by every list endpoint.
type Page[T any] struct {
	Items      []T `json:"items"`
	TotalItems int `json:"total_items"`
	TotalPages int `json:"total_pages"`
	PageSize   int `json:"page_size"`
}

// EmptyPage is the result of a paginated call that returned no body.
func EmptyPage[T any]() Page[T] {
	return Page[T]{Items: []T{}, TotalPages: 1}
}

// pageWire accepts every field naming the services have used.
type pageWire[T any] struct {
	Items []T `json:"items"`

	TotalPagesCamel *int `json:"totalPages"`
	TotalPagesSnake *int `json:"total_pages"`

	TotalItemsCamel *int `json:"totalItems"`
	TotalItemsSnake *int `json:"total_items"`
	Total           *int `json:"total"`

	Size     *int `json:"size"`
	PageSize *int `json:"page_size"`
}

// UnmarshalJSON normalizes the response naming into Page. Item totals are read
// from totalItems, total_items then total; page counts from totalPages then
// total_pages; page size from size then page_size. A missing page count is
// derived from the totals.
func (p *Page[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}

	var wire pageWire[T]
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	p.Items = wire.Items
	if p.Items == nil {
		p.Items = []T{}
	}
	p.TotalItems = firstInt(wire.TotalItemsCamel, wire.TotalItemsSnake, wire.Total)
	p.PageSize = firstInt(wire.Size, wire.PageSize)

	switch {
	case wire.TotalPagesCamel != nil || wire.TotalPagesSnake != nil:
		p.TotalPages = firstInt(wire.TotalPagesCamel, wire.TotalPagesSnake)
	case p.PageSize > 0:
		p.TotalPages = max(1, (p.TotalItems+p.PageSize-1)/p.PageSize)
	default:
		p.TotalPages = 1
	}

	return nil
}

func firstInt(values ...*int) int {
	for _, v := range values {
		if v != nil {
			return *v
		}
	}
	return 0
}

// PaginatedGet fetches one page of path. Pagination is sent as a POST body
// with page and size, not as query parameters.
func PaginatedGet[T any](ctx context.Context, c *Client, path string, page, size int, opts ...RequestOption) (Page[T], error) {
	return paginated[T](ctx, c, NewRequest(http.MethodPost, path, PageRequest{Page: page, Size: size}, opts...))
}

// PaginatedRequest fetches one page of path, merging the JSON fields of filter
// with page and size into the POST body. filter must encode to a JSON object.
func PaginatedRequest[T any](ctx context.Context, c *Client, path string, page, size int, filter any, opts ...RequestOption) (Page[T], error) {
	body, err := mergePageBody(filter, page, size)
	if err != nil {
		return Page[T]{}, err
	}
	return paginated[T](ctx, c, NewRequest(http.MethodPost, path, body, opts...))
}

func paginated[T any](ctx context.Context, c *Client, req Request) (Page[T], error) {
	data, err := c.Do(ctx, req)
	if err != nil {
		return Page[T]{}, err
	}

	if isEmptyBody(data) || bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return EmptyPage[T](), nil
	}

	page, err := decode[Page[T]](data)
	if err != nil {
		return Page[T]{}, err
	}

	return page, nil
}

var errFilterNotObject = errors.New("filter must encode to a JSON object")

// mergePageBody flattens filter into a single object next to page and size.
// page and size win over filter fields of the same name.
func mergePageBody(filter any, page, size int) (map[string]json.RawMessage, error) {
	fields := make(map[string]json.RawMessage)

	if filter != nil {
		data, err := json.Marshal(filter)
		if err != nil {
			return nil, fmt.Errorf("failed to encode filter: %w", err)
		}
		if !bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
			if err := json.Unmarshal(data, &fields); err != nil {
				return nil, fmt.Errorf("%w: %v", errFilterNotObject, err)
			}
			if fields == nil {
				fields = make(map[string]json.RawMessage)
			}
		}
	}

	fields["page"] = json.RawMessage(fmt.Sprintf("%d", page))
	fields["size"] = json.RawMessage(fmt.Sprintf("%d", size))

	return fields, nil
}
