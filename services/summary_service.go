package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"ocr-worker/domain"
)

// Consumer-side interfaces
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

type SummaryBackend interface {
	PatchSummary(ctx context.Context, id int, summary string) error
}

// SummaryService consumes OCR-completed events and stores the generated
// summary on the backend.
type SummaryService struct {
	summarizer  Summarizer
	backendRepo SummaryBackend
}

func NewSummaryService(summarizer Summarizer, backendRepo SummaryBackend) *SummaryService {
	return &SummaryService{
		summarizer:  summarizer,
		backendRepo: backendRepo,
	}
}

func (s *SummaryService) HandleMessage(ctx context.Context, body []byte) error {
	var evt domain.DocumentOcrCompletedEvent
	if err := json.Unmarshal(body, &evt); err != nil {
		return domain.FatalError("failed to unmarshal OCR completed event", err)
	}
	return s.ProcessMessage(ctx, evt)
}

func (s *SummaryService) ProcessMessage(ctx context.Context, evt domain.DocumentOcrCompletedEvent) error {
	if strings.TrimSpace(evt.ExtractedText) == "" {
		log.Printf("No extracted text for doc=%d, skip", evt.ID)
		return nil
	}

	log.Printf("GenAI start doc=%d", evt.ID)
	summary, err := s.summarizer.Summarize(ctx, evt.ExtractedText)
	if err != nil {
		return fmt.Errorf("summarization failed for doc=%d: %w", evt.ID, err)
	}
	if strings.HasPrefix(strings.TrimSpace(summary), "{") {
		log.Printf("Summary for doc=%d looks like a raw API body, storing verbatim", evt.ID)
	}

	if err := s.backendRepo.PatchSummary(ctx, evt.ID, summary); err != nil {
		if errors.Is(err, domain.ErrSummaryFinalized) {
			// Retrying reproduces the same conflict; report and dead-letter.
			log.Printf("Summary conflict for doc=%d: %v", evt.ID, err)
			return err
		}
		return domain.RetryableError(fmt.Sprintf("failed to store summary for doc=%d", evt.ID), err)
	}

	log.Printf("GenAI stored summary (%d chars) for doc=%d", len(summary), evt.ID)
	return nil
}
