package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/opensearch-project/opensearch-go/v2"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"

	"ocr-worker/domain"
)

type OpenSearchRepository struct {
	client *opensearch.Client
}

func NewOpenSearchRepository(client *opensearch.Client) *OpenSearchRepository {
	return &OpenSearchRepository{client: client}
}

// IndexDocument refreshes the search index with the full backend view of a
// document. The document id doubles as the index id so re-indexing after a
// redelivered message overwrites instead of duplicating.
func (r *OpenSearchRepository) IndexDocument(ctx context.Context, doc domain.Document) error {
	body := map[string]interface{}{
		"title":          doc.Title,
		"content":        doc.Content,
		"summary":        doc.Summary,
		"summary_status": doc.SummaryStatus,
		"file_name":      doc.FileName,
		"mime_type":      doc.MimeType,
		"upload_date":    doc.UploadDate,
		"ocr_job_status": doc.OcrJobStatus,
		"indexed_at":     time.Now().Format(time.RFC3339),
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	req := opensearchapi.IndexRequest{
		Index:      "documents",
		DocumentID: strconv.Itoa(doc.ID),
		Body:       strings.NewReader(string(jsonBody)),
		Refresh:    "true",
	}

	res, err := req.Do(ctx, r.client)
	if err != nil {
		return fmt.Errorf("failed to execute index request: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("error indexing document: %s", res.String())
	}
	return nil
}
