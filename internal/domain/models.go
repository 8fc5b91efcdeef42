package domain

// FetchRequest is the inbound payload of the fetch endpoint.
type FetchRequest struct {
	AccessToken   string `json:"accessToken" binding:"required"`
	Date          string `json:"date" binding:"required,datetime=2006-01-02"`
	OrdinanceCode string `json:"ordinanceCode" binding:"required"`
	FormCode      string `json:"formCode" binding:"required"`
	SaveDir       string `json:"saveDir"`
}

// DocumentMetadata is one entry of the registry's document listing. Only the
// fields the pipeline reads are decoded.
type DocumentMetadata struct {
	DocID          string `json:"docID"`
	OrdinanceCode  string `json:"ordinanceCode"`
	FormCode       string `json:"formCode"`
	FilerName      string `json:"filerName"`
	DocDescription string `json:"docDescription"`
}

const UnknownFilerName = "unknown"

func (d DocumentMetadata) FilerNameOrDefault() string {
	if d.FilerName == "" {
		return UnknownFilerName
	}
	return d.FilerName
}

type DownloadOutcome struct {
	DocID          string `json:"docID"`
	FilerName      string `json:"filerName"`
	DocDescription string `json:"docDescription"`
	FilePath       string `json:"filePath,omitempty"`
	Error          string `json:"error,omitempty"`
	Status         string `json:"status"`
}

type FetchResult struct {
	Date                string            `json:"date"`
	OrdinanceCode       string            `json:"ordinanceCode"`
	FormCode            string            `json:"formCode"`
	TotalDocuments      int               `json:"totalDocuments"`
	DownloadedDocuments int               `json:"downloadedDocuments"`
	FailedDocuments     int               `json:"failedDocuments"`
	Results             []DownloadOutcome `json:"results"`
}

const (
	DownloadStatusSuccess = "success"
	DownloadStatusFailure = "failure"
)
