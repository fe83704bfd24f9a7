package rights

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"clearcart/internal/config"
)

// Right-category buckets the authority expects in clearance requests.
const (
	rightCategoryMediaChannels = "20"
	rightCategoryMarkets       = "30"
)

// ClearanceVerdict is the authority's ruling for a single asset. Exactly one
// of the three flags applies; AssetID is in cart (URN) form.
type ClearanceVerdict struct {
	AssetID         string
	Available       bool
	NotAvailable    bool
	AvailableExcept bool
}

// API defines the clearance operation the checker depends on.
type API interface {
	CheckRights(ctx context.Context, use IntendedUse, assetIDs []string) ([]ClearanceVerdict, error)
}

// Client provides access to the rights-clearance authority.
type Client struct {
	baseURL    string
	token      string
	urnPrefix  string
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

// New creates a rights authority client.
func New(baseURL, token, urnPrefix string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("rights base url required")
	}
	client := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		token:     strings.TrimSpace(token),
		urnPrefix: strings.TrimSpace(urnPrefix),
		// Clearance checks carry no client-enforced deadline; the authority
		// signals failure through the transport.
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// NewFromConfig creates a client from application configuration.
func NewFromConfig(cfg *config.Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("rights config required")
	}
	return New(cfg.Rights.BaseURL, cfg.Rights.Token, cfg.Rights.URNPrefix, opts...)
}

type clearanceRequest struct {
	InDate                 int64               `json:"inDate"`
	OutDate                int64               `json:"outDate"`
	SelectedExternalAssets []string            `json:"selectedExternalAssets"`
	SelectedRights         map[string][]string `json:"selectedRights"`
}

type clearanceResponse struct {
	Status       string                `json:"status"`
	RestOfAssets []assetVerdictPayload `json:"restOfAssets"`
	TotalRecords int                   `json:"totalRecords"`
}

type assetVerdictPayload struct {
	Asset struct {
		AssetExtID string `json:"assetExtId"`
	} `json:"asset"`
	Available       bool `json:"available"`
	NotAvailable    bool `json:"notAvailable"`
	AvailableExcept bool `json:"availableExcept"`
}

// CheckRights submits the asset set for clearance against the intended use.
//
// A 204 response is the authority's shorthand for "everything you asked about
// is cleared" and is expanded into an available verdict per submitted asset.
// Assets missing from a 200 response carry no verdict at all; classification
// of those is the partitioner's job. Transport errors and non-2xx statuses
// propagate unretried.
func (c *Client) CheckRights(ctx context.Context, use IntendedUse, assetIDs []string) ([]ClearanceVerdict, error) {
	if len(assetIDs) == 0 {
		return nil, errors.New("asset ids must not be empty")
	}

	external := make([]string, 0, len(assetIDs))
	byExternal := make(map[string]string, len(assetIDs))
	for _, id := range assetIDs {
		ext := strings.TrimPrefix(id, c.urnPrefix)
		external = append(external, ext)
		byExternal[ext] = id
	}

	payload := clearanceRequest{
		InDate:                 use.AirDate.UnixMilli(),
		OutDate:                use.PullDate.UnixMilli(),
		SelectedExternalAssets: external,
		SelectedRights: map[string][]string{
			rightCategoryMediaChannels: append([]string(nil), use.MediaChannels...),
			rightCategoryMarkets:       append([]string(nil), use.Markets...),
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode clearance request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/clearance/check", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return nil, fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNoContent:
		// All submitted assets cleared.
		verdicts := make([]ClearanceVerdict, 0, len(assetIDs))
		for _, id := range assetIDs {
			verdicts = append(verdicts, ClearanceVerdict{AssetID: id, Available: true})
		}
		return verdicts, nil
	case http.StatusOK:
	default:
		return nil, fmt.Errorf("clearance check returned %d (latency=%v)", resp.StatusCode, latency)
	}

	var decoded clearanceResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode clearance response: %w", err)
	}

	verdicts := make([]ClearanceVerdict, 0, len(decoded.RestOfAssets))
	for _, entry := range decoded.RestOfAssets {
		id, ok := byExternal[entry.Asset.AssetExtID]
		if !ok {
			// The authority answered about an asset we did not ask about;
			// keep its external id so callers can at least log it.
			id = entry.Asset.AssetExtID
		}
		verdicts = append(verdicts, ClearanceVerdict{
			AssetID:         id,
			Available:       entry.Available,
			NotAvailable:    entry.NotAvailable,
			AvailableExcept: entry.AvailableExcept,
		})
	}
	return verdicts, nil
}
