// Package docstore is the thin client for the store that keeps inferred
// structures and extracted records. The core never decides storage layout;
// it only ships trees and records over this boundary.
package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/exstruct-io/exstruct/internal/extract"
	"github.com/exstruct-io/exstruct/internal/structtree"
)

// Client communicates with the docstore HTTP API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// RetryableError marks transient store failures worth retrying.
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string {
	return e.Err.Error()
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// PutStructure stores or replaces a named structure tree.
func (c *Client) PutStructure(ctx context.Context, name string, tree *structtree.Tree) error {
	body, err := json.Marshal(tree)
	if err != nil {
		return fmt.Errorf("marshal structure: %w", err)
	}
	return c.do(ctx, http.MethodPut, "/structures/"+name, body, nil)
}

// GetStructure retrieves a structure by name; (nil, nil) when absent.
func (c *Client) GetStructure(ctx context.Context, name string) (*structtree.Tree, error) {
	tree := structtree.New()
	found, err := c.get(ctx, "/structures/"+name, tree)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return tree, nil
}

// InsertRecords bulk-inserts extracted records into a collection.
func (c *Client) InsertRecords(ctx context.Context, collection string, records []extract.Record) error {
	body, err := json.Marshal(map[string]any{"records": records})
	if err != nil {
		return fmt.Errorf("marshal records: %w", err)
	}
	return c.do(ctx, http.MethodPost, "/collections/"+collection+"/records", body, nil)
}

// Close releases client resources.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &RetryableError{Err: fmt.Errorf("%s %s: %w", method, path, err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		err := fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, string(respBody))
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return &RetryableError{Err: err}
		}
		return err
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, out any) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, &RetryableError{Err: fmt.Errorf("GET %s: %w", path, err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return false, fmt.Errorf("GET %s: status %d: %s", path, resp.StatusCode, string(respBody))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, fmt.Errorf("decode response: %w", err)
	}
	return true, nil
}
