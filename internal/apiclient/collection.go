package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"revostream/internal/api"
)

// Collection formats accepted by ExportCollection.
const (
	FormatOwn    = "own"
	FormatNative = "native"
)

// ExportCollection returns the scene collection document in format.
func (c *Client) ExportCollection(ctx context.Context, format string) ([]byte, error) {
	query := url.Values{}
	if format != "" {
		query.Set("format", format)
	}
	return c.send(ctx, http.MethodGet, "/api/collection", query, nil)
}

// ImportCollection replaces the daemon's scenes with doc. strict validates
// doc against the collection schema first.
func (c *Client) ImportCollection(ctx context.Context, doc []byte, strict bool) (api.ImportResponse, error) {
	var query url.Values
	if strict {
		query = url.Values{"strict": {"1"}}
	}
	raw, err := c.send(ctx, http.MethodPost, "/api/collection/import", query, bytes.NewReader(doc))
	if err != nil {
		return api.ImportResponse{}, err
	}
	var resp api.ImportResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return api.ImportResponse{}, fmt.Errorf("decode import response: %w", err)
	}
	return resp, nil
}

// ExportCollectionFile has the daemon write the collection to path.
func (c *Client) ExportCollectionFile(ctx context.Context, req api.ExportRequest) (string, error) {
	return c.message(ctx, http.MethodPost, "/api/collection/export", req)
}

// ValidateCollection checks doc against the collection schema.
func (c *Client) ValidateCollection(ctx context.Context, doc []byte) (api.ValidateResponse, error) {
	raw, err := c.send(ctx, http.MethodPost, "/api/collection/validate", nil, bytes.NewReader(doc))
	if err != nil {
		return api.ValidateResponse{}, err
	}
	var resp api.ValidateResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return api.ValidateResponse{}, fmt.Errorf("decode validation response: %w", err)
	}
	return resp, nil
}

// CollectionSchema returns the JSON Schema of the own collection format.
func (c *Client) CollectionSchema(ctx context.Context) ([]byte, error) {
	return c.send(ctx, http.MethodGet, "/api/collection/schema", nil, nil)
}
