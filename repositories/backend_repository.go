package repositories

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"ocr-worker/domain"
)

// BackendRepository talks to the document backend, the system of record for
// document metadata. Content and summary are patched through dedicated
// endpoints; everything else is left untouched.
type BackendRepository struct {
	client  *http.Client
	baseURL string
}

func NewBackendRepository(baseURL string) *BackendRepository {
	return &BackendRepository{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: baseURL,
	}
}

func (r *BackendRepository) GetDocument(ctx context.Context, id int) (domain.Document, error) {
	var doc domain.Document

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/documents/%d", r.baseURL, id), nil)
	if err != nil {
		return doc, err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return doc, fmt.Errorf("failed to get document %d: %w", id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return doc, fmt.Errorf("failed to get document %d: status %d", id, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return doc, fmt.Errorf("failed to decode document %d: %w", id, err)
	}
	return doc, nil
}

// PatchContent updates only the content field. Re-patching identical content
// is a value no-op, which keeps redelivered messages harmless.
func (r *BackendRepository) PatchContent(ctx context.Context, id int, content string) error {
	url := fmt.Sprintf("%s/documents/%d", r.baseURL, id)
	resp, err := r.do(ctx, http.MethodPatch, url, map[string]string{"content": content})
	if err != nil {
		return fmt.Errorf("failed to patch content for document %d: %w", id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("failed to patch content for document %d: status %d", id, resp.StatusCode)
	}
	return nil
}

// PatchSummary stores the generated summary. The backend rejects the write
// with 409 once the summary status is DONE.
func (r *BackendRepository) PatchSummary(ctx context.Context, id int, summary string) error {
	url := fmt.Sprintf("%s/documents/%d/summary", r.baseURL, id)
	resp, err := r.do(ctx, http.MethodPut, url, map[string]string{"summary": summary})
	if err != nil {
		return fmt.Errorf("failed to store summary for document %d: %w", id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusConflict {
		return fmt.Errorf("document %d: %w", id, domain.ErrSummaryFinalized)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("failed to store summary for document %d: status %d", id, resp.StatusCode)
	}
	return nil
}

func (r *BackendRepository) do(ctx context.Context, method, url string, body interface{}) (*http.Response, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	return r.client.Do(req)
}
