package domain

// Summary status values used by the backend's system of record. The worker
// only ever moves a document forward; DONE is terminal for the summary field.
const (
	SummaryStatusPending    = "PENDING"
	SummaryStatusInProgress = "IN_PROGRESS"
	SummaryStatusDone       = "DONE"
	SummaryStatusFailed     = "FAILED"
)

// Extraction sources
const (
	SourceEmbedded = "EMBEDDED"
	SourceOcr      = "OCR"
)

// DocumentUploadedEvent is published by the backend after a successful upload.
// Field names match the producer's wire format.
type DocumentUploadedEvent struct {
	ID            int    `json:"id"`
	Title         string `json:"title"`
	FileName      string `json:"fileName"`
	MimeType      string `json:"mimeType"`
	Size          int64  `json:"size"`
	UploadDate    string `json:"uploadDate"`
	StorageBucket string `json:"storageBucket"`
	StorageKey    string `json:"storageKey"`
}

// DocumentOcrCompletedEvent is published once per successful extraction. It
// carries the full extracted text so the summarizer never touches storage.
type DocumentOcrCompletedEvent struct {
	ID            int    `json:"id"`
	StorageBucket string `json:"storageBucket"`
	StorageKey    string `json:"storageKey"`
	ExtractedText string `json:"extractedText"`
}

// Document is the backend's view of a document. The worker reads it to refresh
// the search index and patches content/summary through dedicated endpoints.
type Document struct {
	ID            int    `json:"id"`
	Title         string `json:"title"`
	Content       string `json:"content"`
	Summary       string `json:"summary"`
	SummaryStatus string `json:"summaryStatus"`
	OcrJobStatus  string `json:"ocrJobStatus"`
	UploadDate    string `json:"uploadDate"`
	FileName      string `json:"fileName"`
	MimeType      string `json:"mimeType"`
	Size          int64  `json:"size"`
	StorageBucket string `json:"storageBucket"`
	StorageKey    string `json:"storageKey"`
}

// ExtractionResult holds the text produced by one extraction pass. It lives
// only within a single pipeline invocation and is never persisted.
type ExtractionResult struct {
	Text   string
	Source string
}
