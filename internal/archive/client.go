package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"clearcart/internal/catalog"
	"clearcart/internal/config"
)

// API defines the archive-service operations the fulfiller depends on.
type API interface {
	Create(ctx context.Context, selections []catalog.RenditionSelection) (string, error)
	Status(ctx context.Context, jobID string) (Job, error)
}

// Client provides access to the archive-packaging service.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

var _ API = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// New creates an archive service client.
func New(baseURL, token string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("archive base url required")
	}
	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      strings.TrimSpace(token),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// NewFromConfig creates a client from application configuration.
func NewFromConfig(cfg *config.Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("archive config required")
	}
	return New(cfg.Archive.BaseURL, cfg.Archive.Token, opts...)
}

type createRequest struct {
	Items []createItem `json:"items"`
}

type createItem struct {
	AssetID           string   `json:"assetId"`
	IncludeRenditions []string `json:"includeRenditions"`
}

type createResponse struct {
	ID string `json:"id"`
}

type statusEnvelope struct {
	Operation   string `json:"operation"`
	Status      string `json:"status"`
	Description string `json:"description"`
	Data        struct {
		ID     string   `json:"id"`
		Format string   `json:"format"`
		Status string   `json:"status"`
		Files  []string `json:"files"`
	} `json:"data"`
}

// Create submits a packaging request and returns the job identifier. A
// response without an id means the service refused the job; that is an
// immediate failure, not something to poll for.
func (c *Client) Create(ctx context.Context, selections []catalog.RenditionSelection) (string, error) {
	if len(selections) == 0 {
		return "", errors.New("selections must not be empty")
	}

	items := make([]createItem, 0, len(selections))
	for _, sel := range selections {
		items = append(items, createItem{
			AssetID:           sel.AssetID,
			IncludeRenditions: append([]string(nil), sel.Renditions...),
		})
	}
	body, err := json.Marshal(createRequest{Items: items})
	if err != nil {
		return "", fmt.Errorf("encode create request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/archives", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return "", fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("archive create returned %d (latency=%v)", resp.StatusCode, latency)
	}

	var decoded createResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode create response: %w", err)
	}
	if strings.TrimSpace(decoded.ID) == "" {
		return "", errors.New("archive create returned no job id")
	}
	return decoded.ID, nil
}

// Status fetches the current state of a packaging job.
func (c *Client) Status(ctx context.Context, jobID string) (Job, error) {
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return Job{}, errors.New("job id must not be empty")
	}

	endpoint := c.baseURL + "/archives/" + url.PathEscape(jobID) + "/status"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Job{}, fmt.Errorf("build request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return Job{}, fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Job{}, fmt.Errorf("archive status returned %d (latency=%v)", resp.StatusCode, latency)
	}

	var decoded statusEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return Job{}, fmt.Errorf("decode status response: %w", err)
	}
	return Job{
		ID:     decoded.Data.ID,
		Status: ParseJobStatus(decoded.Data.Status),
		Files:  append([]string(nil), decoded.Data.Files...),
	}, nil
}
