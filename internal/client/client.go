// Package client provides an HTTP client for the HavenRise API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/evcraddock/havenrise/internal/property"
	"github.com/evcraddock/havenrise/internal/search"
	"github.com/evcraddock/havenrise/internal/transfer"
)

// Client is an HTTP client for the HavenRise API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new API client.
func New(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// SearchResponse is the response from GET /api/properties.
type SearchResponse struct {
	Count        int                 `json:"count"`
	Properties   []property.Property `json:"properties"`
	FavouriteIDs []string            `json:"favourite_ids"`
}

// ShowResponse is the response from GET /api/properties/{id}.
type ShowResponse struct {
	Property  property.Property `json:"property"`
	Gallery   []string          `json:"gallery"`
	MapURL    string            `json:"map_url"`
	AddedOn   string            `json:"added_on,omitempty"`
	Favourite bool              `json:"favourite"`
}

// FavouritesResponse is returned by every favourites endpoint and by drops.
type FavouritesResponse struct {
	Count      int                 `json:"count"`
	Favourites []property.Property `json:"favourites"`
	Added      bool                `json:"added,omitempty"`
	Removed    bool                `json:"removed,omitempty"`
	Cleared    bool                `json:"cleared,omitempty"`
	Persisted  *bool               `json:"persisted,omitempty"`
	Accepted   bool                `json:"accepted,omitempty"`
	Applied    bool                `json:"applied,omitempty"`
	Result     string              `json:"result,omitempty"`
}

// Health returns nil if the server answers its health check.
func (c *Client) Health(ctx context.Context) error {
	var resp struct {
		Status string `json:"status"`
	}
	if err := c.get(ctx, "/health", &resp); err != nil {
		return err
	}
	if resp.Status != "ok" {
		return fmt.Errorf("server status %q", resp.Status)
	}
	return nil
}

// Search returns the catalog properties matching f.
func (c *Client) Search(ctx context.Context, f search.Form) (*SearchResponse, error) {
	params := url.Values{}
	set := func(key, value string) {
		if value != "" && value != search.Any {
			params.Set(key, value)
		}
	}
	set("type", f.Type)
	set("min_price", f.MinPrice)
	set("max_price", f.MaxPrice)
	set("min_bedrooms", f.MinBedrooms)
	set("max_bedrooms", f.MaxBedrooms)
	set("added_after", f.DateFrom)
	set("added_before", f.DateTo)
	set("postcode", f.Postcode)
	set("q", f.SearchTerm)

	path := "/api/properties"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var resp SearchResponse
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetProperty returns a property with its display details.
func (c *Client) GetProperty(ctx context.Context, id string) (*ShowResponse, error) {
	var resp ShowResponse
	if err := c.get(ctx, "/api/properties/"+url.PathEscape(id), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListFavourites returns the favourites in the order they were added.
func (c *Client) ListFavourites(ctx context.Context) (*FavouritesResponse, error) {
	var resp FavouritesResponse
	if err := c.get(ctx, "/api/favourites", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AddFavourite adds a catalog property to the favourites.
func (c *Client) AddFavourite(ctx context.Context, id string) (*FavouritesResponse, error) {
	var resp FavouritesResponse
	if err := c.post(ctx, "/api/favourites", map[string]string{"id": id}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RemoveFavourite removes a property from the favourites.
func (c *Client) RemoveFavourite(ctx context.Context, id string) (*FavouritesResponse, error) {
	var resp FavouritesResponse
	if err := c.doDelete(ctx, "/api/favourites/"+url.PathEscape(id), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ClearFavourites empties the favourites.
func (c *Client) ClearFavourites(ctx context.Context) (*FavouritesResponse, error) {
	var resp FavouritesResponse
	if err := c.doDelete(ctx, "/api/favourites", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// StartTransfer asks the server for the drag payload of an add or remove.
func (c *Client) StartTransfer(ctx context.Context, kind transfer.Kind, id string) (transfer.Payload, error) {
	body := map[string]string{"intent": kind.String(), "id": id}
	var resp struct {
		Data transfer.Payload `json:"data"`
	}
	if err := c.post(ctx, "/api/transfer/start", body, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// Drop delivers a drag payload to target, "favourites" or "listing".
func (c *Client) Drop(ctx context.Context, target string, data transfer.Payload) (*FavouritesResponse, error) {
	body := map[string]transfer.Payload{"data": data}
	var resp FavouritesResponse
	if err := c.post(ctx, "/api/transfer/drop/"+url.PathEscape(target), body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// get performs a GET request and decodes the response.
func (c *Client) get(ctx context.Context, path string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	return c.do(req, result)
}

// post performs a POST request with a JSON body and decodes the response.
func (c *Client) post(ctx context.Context, path string, body interface{}, result interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, result)
}

// doDelete performs a DELETE request.
func (c *Client) doDelete(ctx context.Context, path string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "DELETE", c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	return c.do(req, result)
}

// do executes an HTTP request and handles errors.
func (c *Client) do(req *http.Request, result interface{}) error {
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			fmt.Printf("warning: closing response body: %v\n", cerr)
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			return fmt.Errorf("%s", errResp.Error)
		}
		return fmt.Errorf("server error: %s", http.StatusText(resp.StatusCode))
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}
