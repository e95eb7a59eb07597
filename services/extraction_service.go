package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"ocr-worker/domain"
)

const processedUploadsKey = "documents:processed:uploaded"

// Consumer-side interfaces
type QueueRepository interface {
	SendMessage(ctx context.Context, queueURL string, body interface{}) error
}

type StorageRepository interface {
	GetBytes(ctx context.Context, bucket, key string) ([]byte, error)
}

type BackendRepository interface {
	GetDocument(ctx context.Context, id int) (domain.Document, error)
	PatchContent(ctx context.Context, id int, content string) error
}

type SearchIndexRepository interface {
	IndexDocument(ctx context.Context, doc domain.Document) error
}

type Extractor interface {
	Extract(pdfBytes []byte) (domain.ExtractionResult, error)
}

type ProcessedSet interface {
	SAdd(ctx context.Context, key string, members ...interface{}) (int64, error)
	SIsMember(ctx context.Context, key string, member interface{}) (bool, error)
}

// ExtractionService consumes uploaded-document events: fetch the object, run
// extraction, patch the backend, refresh the search index and publish the
// OCR-completed event. The inbound message is acked only after all of that
// succeeded.
type ExtractionService struct {
	queueRepo         QueueRepository
	storageRepo       StorageRepository
	backendRepo       BackendRepository
	searchRepo        SearchIndexRepository
	extractor         Extractor
	processed         ProcessedSet
	completedQueueURL string
}

// Functional Options Pattern
type ExtractionOption func(*ExtractionService)

func WithQueueRepository(r QueueRepository) ExtractionOption {
	return func(s *ExtractionService) { s.queueRepo = r }
}

func WithStorageRepository(r StorageRepository) ExtractionOption {
	return func(s *ExtractionService) { s.storageRepo = r }
}

func WithBackendRepository(r BackendRepository) ExtractionOption {
	return func(s *ExtractionService) { s.backendRepo = r }
}

func WithSearchIndexRepository(r SearchIndexRepository) ExtractionOption {
	return func(s *ExtractionService) { s.searchRepo = r }
}

func WithExtractor(e Extractor) ExtractionOption {
	return func(s *ExtractionService) { s.extractor = e }
}

func WithProcessedSet(p ProcessedSet) ExtractionOption {
	return func(s *ExtractionService) { s.processed = p }
}

func WithCompletedQueue(queueURL string) ExtractionOption {
	return func(s *ExtractionService) { s.completedQueueURL = queueURL }
}

func NewExtractionService(opts ...ExtractionOption) *ExtractionService {
	s := &ExtractionService{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// HandleMessage adapts a raw queue body to ProcessMessage. A body that cannot
// be unmarshaled is a poison message and goes straight to the dead-letter
// queue.
func (s *ExtractionService) HandleMessage(ctx context.Context, body []byte) error {
	var evt domain.DocumentUploadedEvent
	if err := json.Unmarshal(body, &evt); err != nil {
		return domain.FatalError("failed to unmarshal uploaded event", err)
	}
	return s.ProcessMessage(ctx, evt)
}

func (s *ExtractionService) ProcessMessage(ctx context.Context, evt domain.DocumentUploadedEvent) error {
	if !strings.EqualFold(evt.MimeType, "application/pdf") {
		log.Printf("Skip non-PDF id=%d mime=%s", evt.ID, evt.MimeType)
		return nil
	}

	member := fmt.Sprintf("%d:%s/%s", evt.ID, evt.StorageBucket, evt.StorageKey)
	if s.processed != nil {
		seen, err := s.processed.SIsMember(ctx, processedUploadsKey, member)
		if err != nil {
			// Reprocessing is idempotent, so a broken guard degrades to extra work.
			log.Printf("Idempotency check failed for id=%d: %v", evt.ID, err)
		} else if seen {
			log.Printf("Already processed id=%d, ack and skip", evt.ID)
			return nil
		}
	}

	log.Printf("OCR pipeline start id=%d bucket=%s key=%s", evt.ID, evt.StorageBucket, evt.StorageKey)

	fileBytes, err := s.storageRepo.GetBytes(ctx, evt.StorageBucket, evt.StorageKey)
	if err != nil {
		return domain.RetryableError(fmt.Sprintf("failed to fetch object for id=%d", evt.ID), err)
	}

	result, err := s.extractor.Extract(fileBytes)
	if err != nil {
		return err
	}
	log.Printf("OCR pipeline extracted %d chars (source=%s) for id=%d", len(result.Text), result.Source, evt.ID)

	if err := s.backendRepo.PatchContent(ctx, evt.ID, result.Text); err != nil {
		return domain.RetryableError(fmt.Sprintf("failed to patch content for id=%d", evt.ID), err)
	}

	// Search index refresh is best effort: the index trails the system of
	// record and the next write catches it up.
	if s.searchRepo != nil {
		if doc, err := s.backendRepo.GetDocument(ctx, evt.ID); err != nil {
			log.Printf("Failed to fetch document %d for indexing: %v", evt.ID, err)
		} else if err := s.searchRepo.IndexDocument(ctx, doc); err != nil {
			log.Printf("Failed to index document %d: %v", evt.ID, err)
		}
	}

	completed := domain.DocumentOcrCompletedEvent{
		ID:            evt.ID,
		StorageBucket: evt.StorageBucket,
		StorageKey:    evt.StorageKey,
		ExtractedText: result.Text,
	}
	if err := s.queueRepo.SendMessage(ctx, s.completedQueueURL, completed); err != nil {
		return domain.RetryableError(fmt.Sprintf("failed to publish OCR completed event for id=%d", evt.ID), err)
	}

	if s.processed != nil {
		if _, err := s.processed.SAdd(ctx, processedUploadsKey, member); err != nil {
			log.Printf("Failed to mark id=%d processed: %v", evt.ID, err)
		}
	}

	log.Printf("Content updated in backend for id=%d", evt.ID)
	return nil
}
