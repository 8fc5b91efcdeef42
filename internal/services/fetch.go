package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"edinetfetch/internal/domain"
	"edinetfetch/internal/metrics"
	"edinetfetch/internal/storage"
)

// Registry is the part of the EDINET API the fetch pipeline uses.
type Registry interface {
	ListDocuments(ctx context.Context, date string) ([]domain.DocumentMetadata, error)
	FetchArchive(ctx context.Context, docID string) (io.ReadCloser, error)
}

// FetchService runs the list, filter, download and report pipeline for one
// request.
type FetchService struct {
	auth     *Authorizer
	registry Registry
	files    *storage.FileManager
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

func NewFetchService(auth *Authorizer, registry Registry, files *storage.FileManager, m *metrics.Metrics, logger *slog.Logger) *FetchService {
	return &FetchService{
		auth:     auth,
		registry: registry,
		files:    files,
		metrics:  m,
		logger:   logger,
	}
}

// CheckConfig reports a missing secret without looking at any request.
func (s *FetchService) CheckConfig() error {
	return s.auth.CheckConfig()
}

// Authorize checks token on its own, for callers that must answer 401 before
// validating the rest of a request. Fetch repeats the check, so it is never
// reachable with a wrong token.
func (s *FetchService) Authorize(token string) error {
	return s.auth.Authorize(token)
}

// Fetch downloads every listed document of req.Date matching both codes.
// Download failures are reported in the result; only authorization, listing
// and empty matches fail the whole call. Once authorized, the pipeline
// ignores cancellation of ctx and runs to completion; each outbound call is
// still bounded by the client timeout.
func (s *FetchService) Fetch(ctx context.Context, req domain.FetchRequest) (domain.FetchResult, error) {
	if err := s.auth.Authorize(req.AccessToken); err != nil {
		return domain.FetchResult{}, err
	}
	ctx = context.WithoutCancel(ctx)

	docs, err := s.registry.ListDocuments(ctx, req.Date)
	if err != nil {
		return domain.FetchResult{}, fmt.Errorf("list documents for %s: %w", req.Date, err)
	}

	matched := FilterDocuments(docs, req.OrdinanceCode, req.FormCode)
	s.logger.Info("documents listed",
		"date", req.Date,
		"listed", len(docs),
		"matched", len(matched),
		"ordinanceCode", req.OrdinanceCode,
		"formCode", req.FormCode)

	if len(matched) == 0 {
		return domain.FetchResult{}, fmt.Errorf("%w: date = %s, ordinanceCode = %s, formCode = %s",
			ErrNoDocuments, req.Date, req.OrdinanceCode, req.FormCode)
	}

	outcomes := s.download(ctx, matched, s.files.ResolveDir(req.SaveDir))
	return Aggregate(req, len(matched), outcomes), nil
}

// FilterDocuments keeps, in order, the documents whose codes equal both
// requested codes exactly.
func FilterDocuments(docs []domain.DocumentMetadata, ordinanceCode, formCode string) []domain.DocumentMetadata {
	var matched []domain.DocumentMetadata
	for _, doc := range docs {
		if doc.OrdinanceCode == ordinanceCode && doc.FormCode == formCode {
			matched = append(matched, doc)
		}
	}
	return matched
}

func (s *FetchService) download(ctx context.Context, docs []domain.DocumentMetadata, saveDir string) []domain.DownloadOutcome {
	outcomes := make([]domain.DownloadOutcome, 0, len(docs))

	for _, doc := range docs {
		if doc.DocID == "" {
			s.logger.Warn("skipping document without docID", "filerName", doc.FilerName)
			s.metrics.ObserveDocument("skipped")
			continue
		}

		outcome := domain.DownloadOutcome{
			DocID:          doc.DocID,
			FilerName:      doc.FilerNameOrDefault(),
			DocDescription: doc.DocDescription,
		}

		path, err := s.downloadOne(ctx, doc.DocID, outcome.FilerName, saveDir)
		if err != nil {
			s.logger.Error("document download failed", "docID", doc.DocID, "error", err)
			outcome.Status = domain.DownloadStatusFailure
			outcome.Error = err.Error()
		} else {
			s.logger.Debug("document saved", "docID", doc.DocID, "path", path)
			outcome.Status = domain.DownloadStatusSuccess
			outcome.FilePath = path
		}

		s.metrics.ObserveDocument(outcome.Status)
		outcomes = append(outcomes, outcome)
	}

	return outcomes
}

func (s *FetchService) downloadOne(ctx context.Context, docID, filerName, saveDir string) (string, error) {
	body, err := s.registry.FetchArchive(ctx, docID)
	if err != nil {
		return "", fmt.Errorf("download failed: %w", err)
	}
	defer body.Close()

	src := &trackedReader{r: body}
	path, written, err := s.files.SaveArchive(saveDir, filerName, docID, src)
	if src.err != nil {
		return "", fmt.Errorf("download failed: %w: read archive: %v", ErrUpstreamTransport, src.err)
	}
	if err != nil {
		return "", fmt.Errorf("save failed: %w: %w", ErrFilesystem, err)
	}
	s.metrics.ObserveArchiveSize(written)

	return path, nil
}

// trackedReader remembers a read failure so a broken archive stream is not
// mistaken for a filesystem error.
type trackedReader struct {
	r   io.Reader
	err error
}

func (t *trackedReader) Read(p []byte) (int, error) {
	n, err := t.r.Read(p)
	if err != nil && err != io.EOF {
		t.err = err
	}
	return n, err
}

// Aggregate builds the response of a fetch. total is the number of matched
// documents and may exceed len(outcomes) when entries were skipped.
func Aggregate(req domain.FetchRequest, total int, outcomes []domain.DownloadOutcome) domain.FetchResult {
	result := domain.FetchResult{
		Date:           req.Date,
		OrdinanceCode:  req.OrdinanceCode,
		FormCode:       req.FormCode,
		TotalDocuments: total,
		Results:        outcomes,
	}
	if result.Results == nil {
		result.Results = []domain.DownloadOutcome{}
	}

	for _, outcome := range outcomes {
		switch outcome.Status {
		case domain.DownloadStatusSuccess:
			result.DownloadedDocuments++
		case domain.DownloadStatusFailure:
			result.FailedDocuments++
		}
	}

	return result
}
