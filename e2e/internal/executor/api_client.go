package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// APIClient drives the match server's HTTP API
type APIClient struct {
	baseURL string
	http    *http.Client
}

// NewAPIClient creates a client for the API at baseURL
func NewAPIClient(baseURL string) *APIClient {
	return &APIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// StartSession creates a session and returns its id
func (c *APIClient) StartSession(ctx context.Context) (string, error) {
	var body struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/sessions", nil, http.StatusCreated, &body); err != nil {
		return "", err
	}
	if body.ID == "" {
		return "", fmt.Errorf("server returned a session without id")
	}
	return body.ID, nil
}

// Answer sets one answer
func (c *APIClient) Answer(ctx context.Context, sessionID string, index, value int) error {
	path := fmt.Sprintf("/api/sessions/%s/answers/%d", sessionID, index)
	return c.do(ctx, http.MethodPut, path, map[string]int{"value": value}, http.StatusOK, nil)
}

// Document fetches a session sub-resource ("" for the session itself) as generic JSON
func (c *APIClient) Document(ctx context.Context, sessionID, resource string) (interface{}, error) {
	path := "/api/sessions/" + sessionID
	if resource != "" {
		path += "/" + resource
	}
	var doc interface{}
	if err := c.do(ctx, http.MethodGet, path, nil, http.StatusOK, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (c *APIClient) do(ctx context.Context, method, path string, in interface{}, wantStatus int, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s %s: failed to read response: %w", method, path, err)
	}
	if resp.StatusCode != wantStatus {
		return fmt.Errorf("%s %s: expected status %d, got %d: %s", method, path, wantStatus, resp.StatusCode, strings.TrimSpace(string(data)))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s %s: failed to decode response: %w", method, path, err)
	}
	return nil
}
