package services

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edinetfetch/internal/config"
	"edinetfetch/internal/domain"
	"edinetfetch/internal/metrics"
)

var sampleDocs = []domain.DocumentMetadata{
	{DocID: "S1001AAA", OrdinanceCode: "010", FormCode: "030000", FilerName: "テスト株式会社", DocDescription: "有価証券報告書"},
	{DocID: "S1001BBB", OrdinanceCode: "010", FormCode: "040000", FilerName: "Other Co"},
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *EdinetClient {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.Config{
		EdinetBaseURL: srv.URL + "/api/v2",
		EdinetKey:     "sub-key",
		HTTPTimeout:   5 * time.Second,
	}
	return NewEdinetClient(cfg, metrics.New(prometheus.NewRegistry()))
}

func TestListDocumentsRequestParameters(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v2/documents.json", r.URL.Path)
		assert.Equal(t, "2024-11-28", r.URL.Query().Get("date"))
		assert.Equal(t, "2", r.URL.Query().Get("type"))
		assert.Equal(t, "sub-key", r.URL.Query().Get("Subscription-Key"))
		_ = json.NewEncoder(w).Encode(map[string]any{"results": sampleDocs})
	})

	docs, err := client.ListDocuments(context.Background(), "2024-11-28")
	require.NoError(t, err)
	assert.Equal(t, sampleDocs, docs)
}

func TestListDocumentsEnvelopeShapes(t *testing.T) {
	list, err := json.Marshal(sampleDocs)
	require.NoError(t, err)

	shapes := map[string]any{
		"results array":       map[string]any{"metadata": map[string]any{"status": "200"}, "results": sampleDocs},
		"nested body string":  map[string]any{"body": string(list)},
		"body wins":           map[string]any{"body": string(list), "results": []any{}},
		"empty body fallback": map[string]any{"body": "", "results": sampleDocs},
		"null body fallback":  map[string]any{"body": nil, "results": sampleDocs},
		"empty array body":    map[string]any{"body": []any{}, "results": sampleDocs},
		"false body":          map[string]any{"body": false, "results": sampleDocs},
		"empty object body":   map[string]any{"body": map[string]any{}, "results": sampleDocs},
	}

	for name, payload := range shapes {
		t.Run(name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(payload)
			})

			docs, err := client.ListDocuments(context.Background(), "2024-11-28")
			require.NoError(t, err)
			assert.Equal(t, sampleDocs, docs)
		})
	}
}

func TestListDocumentsFailures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{name: "non-2xx status", status: http.StatusBadGateway, body: `{"message":"upstream down"}`, wantErr: ErrUpstreamStatus},
		{name: "unauthorized upstream", status: http.StatusUnauthorized, body: `{"metadata":{"message":"Access denied"}}`, wantErr: ErrUpstreamStatus},
		{name: "invalid json", status: http.StatusOK, body: `not json`, wantErr: ErrUpstreamParse},
		{name: "invalid nested body", status: http.StatusOK, body: `{"body":"[{broken"}`, wantErr: ErrNestedBodyParse},
		{name: "non-empty body not a string", status: http.StatusOK, body: `{"body":[{"docID":"S1"}],"results":[]}`, wantErr: ErrNestedBodyParse},
		{name: "nested body not a list", status: http.StatusOK, body: `{"body":"{\"a\":1}"}`, wantErr: ErrNestedBodyParse},
		{name: "no document fields", status: http.StatusOK, body: `{"metadata":{"status":"200"}}`, wantErr: ErrMalformedEnvelope},
		{name: "results not a list", status: http.StatusOK, body: `{"results":"oops"}`, wantErr: ErrMalformedEnvelope},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			_, err := client.ListDocuments(context.Background(), "2024-11-28")
			assert.ErrorIs(t, err, tt.wantErr)
			assert.NotContains(t, err.Error(), "sub-key")
		})
	}
}

func TestListDocumentsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	baseURL := srv.URL
	srv.Close()

	client := NewEdinetClient(config.Config{
		EdinetBaseURL: baseURL,
		EdinetKey:     "sub-key",
		HTTPTimeout:   time.Second,
	}, metrics.New(prometheus.NewRegistry()))

	_, err := client.ListDocuments(context.Background(), "2024-11-28")
	assert.ErrorIs(t, err, ErrUpstreamTransport)
	assert.NotContains(t, err.Error(), "sub-key")
}

func TestFetchArchive(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v2/documents/S1001AAA", r.URL.Path)
		assert.Equal(t, "5", r.URL.Query().Get("type"))
		assert.Equal(t, "sub-key", r.URL.Query().Get("Subscription-Key"))
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write([]byte("PK\x03\x04zip"))
	})

	body, err := client.FetchArchive(context.Background(), "S1001AAA")
	require.NoError(t, err)
	defer body.Close()

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "PK\x03\x04zip", string(data))
}

func TestFetchArchiveStatusError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	})

	_, err := client.FetchArchive(context.Background(), "S1001AAA")
	assert.ErrorIs(t, err, ErrUpstreamStatus)
	assert.Contains(t, err.Error(), "404")
}
