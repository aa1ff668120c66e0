package client

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
)

// Get issues a GET and decodes the response into T.
func Get[T any](ctx context.Context, c *Client, path string, opts ...RequestOption) (T, error) {
	return call[T](ctx, c, NewRequest(http.MethodGet, path, nil, opts...))
}

// Post issues a POST with body and decodes the response into T.
func Post[T any](ctx context.Context, c *Client, path string, body any, opts ...RequestOption) (T, error) {
	return call[T](ctx, c, NewRequest(http.MethodPost, path, body, opts...))
}

// Put issues a PUT with body and decodes the response into T.
func Put[T any](ctx context.Context, c *Client, path string, body any, opts ...RequestOption) (T, error) {
	return call[T](ctx, c, NewRequest(http.MethodPut, path, body, opts...))
}

// Delete issues a DELETE and discards the response body.
func Delete(ctx context.Context, c *Client, path string, opts ...RequestOption) error {
	_, err := c.Do(ctx, NewRequest(http.MethodDelete, path, nil, opts...))
	return err
}

func call[T any](ctx context.Context, c *Client, req Request) (T, error) {
	data, err := c.Do(ctx, req)
	if err != nil {
		var zero T
		return zero, err
	}
	return decode[T](data)
}

// decode unmarshals data into T. An empty body yields the zero value.
func decode[T any](data []byte) (T, error) {
	var out T
	if isEmptyBody(data) {
		return out, nil
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, &DecodeError{Body: data, Err: err}
	}
	return out, nil
}

func isEmptyBody(data []byte) bool {
	return len(bytes.TrimSpace(data)) == 0
}
