package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"edinetfetch/internal/config"
	"edinetfetch/internal/domain"
	"edinetfetch/internal/metrics"
)

const (
	listingTypeMetadata = "2"
	documentTypeArchive = "5"
	maxErrorBodyBytes   = 4 * 1024
)

// EdinetClient talks to the EDINET v2 document API.
type EdinetClient struct {
	baseURL         string
	subscriptionKey string
	httpClient      *http.Client
	metrics         *metrics.Metrics
}

func NewEdinetClient(cfg config.Config, m *metrics.Metrics) *EdinetClient {
	return &EdinetClient{
		baseURL:         cfg.EdinetBaseURL,
		subscriptionKey: cfg.EdinetKey,
		httpClient: &http.Client{
			Timeout: cfg.HTTPTimeout,
		},
		metrics: m,
	}
}

// ListDocuments returns the metadata listing for date in upstream order.
func (c *EdinetClient) ListDocuments(ctx context.Context, date string) ([]domain.DocumentMetadata, error) {
	query := url.Values{}
	query.Set("date", date)
	query.Set("type", listingTypeMetadata)

	resp, err := c.get(ctx, "list", "/documents.json", query)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read listing: %v", ErrUpstreamTransport, err)
	}

	envelope, err := decodeListingEnvelope(raw)
	if err != nil {
		return nil, err
	}
	return envelope.documents()
}

// FetchArchive opens the ZIP archive of docID. The caller closes the body.
func (c *EdinetClient) FetchArchive(ctx context.Context, docID string) (io.ReadCloser, error) {
	query := url.Values{}
	query.Set("type", documentTypeArchive)

	resp, err := c.get(ctx, "download", "/documents/"+url.PathEscape(docID), query)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func (c *EdinetClient) get(ctx context.Context, operation, path string, query url.Values) (*http.Response, error) {
	redacted := c.baseURL + path + "?" + query.Encode()
	query.Set("Subscription-Key", c.subscriptionKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", operation, err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.ObserveUpstream(operation, time.Since(start))
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return nil, fmt.Errorf("%w: GET %s: %v", ErrUpstreamTransport, redacted, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, decodeAPIError(resp)
	}
	return resp, nil
}

func decodeAPIError(resp *http.Response) error {
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))

	var apiErr struct {
		Metadata struct {
			Message string `json:"message"`
		} `json:"metadata"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &apiErr); err == nil {
		if msg := firstNonEmpty(apiErr.Metadata.Message, apiErr.Message); msg != "" {
			return fmt.Errorf("%w: status %d message %s", ErrUpstreamStatus, resp.StatusCode, msg)
		}
	}

	return fmt.Errorf("%w: status %d body %s", ErrUpstreamStatus, resp.StatusCode, strings.TrimSpace(string(body)))
}

type envelopeKind int

const (
	envelopeNestedBody envelopeKind = iota + 1
	envelopeResults
)

// listingEnvelope is the listing response resolved to the one shape it
// carries: a JSON string holding the document array, or the array itself.
type listingEnvelope struct {
	kind envelopeKind
	list []byte
}

func decodeListingEnvelope(raw []byte) (listingEnvelope, error) {
	var fields struct {
		Body    json.RawMessage `json:"body"`
		Results json.RawMessage `json:"results"`
	}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return listingEnvelope{}, fmt.Errorf("%w: %v", ErrUpstreamParse, err)
	}

	if hasContent(fields.Body) {
		var body string
		if err := json.Unmarshal(fields.Body, &body); err != nil {
			return listingEnvelope{}, fmt.Errorf("%w: body is not a string: %v", ErrNestedBodyParse, err)
		}
		return listingEnvelope{kind: envelopeNestedBody, list: []byte(body)}, nil
	}

	if trimmed := bytes.TrimSpace(fields.Results); len(trimmed) > 0 && trimmed[0] == '[' {
		return listingEnvelope{kind: envelopeResults, list: trimmed}, nil
	}

	return listingEnvelope{}, ErrMalformedEnvelope
}

func (e listingEnvelope) documents() ([]domain.DocumentMetadata, error) {
	var docs []domain.DocumentMetadata
	if err := json.Unmarshal(e.list, &docs); err != nil {
		if e.kind == envelopeNestedBody {
			return nil, fmt.Errorf("%w: %v", ErrNestedBodyParse, err)
		}
		return nil, fmt.Errorf("%w: results: %v", ErrUpstreamParse, err)
	}
	return docs, nil
}

// hasContent reports whether raw is present and non-empty. Absent, null,
// false, 0, "", [] and {} all count as empty, so the listing falls back to
// results for any of them.
func hasContent(raw json.RawMessage) bool {
	if len(bytes.TrimSpace(raw)) == 0 {
		return false
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return true
	}
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	}
	return true
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
