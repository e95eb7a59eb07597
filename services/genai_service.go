package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"ocr-worker/domain"
)

const summaryPrompt = "Erstelle eine prägnante Zusammenfassung des folgenden Dokuments in deutscher Sprache. " +
	"Maximal 5 Sätze, keine Einleitung, keine Wiederholung:\n\n"

// GenAIClient calls the Gemini generateContent endpoint with bounded retries.
// Rate limits and server errors are retried with attempt-scaled backoff; any
// other client error is fatal since a malformed request will not self-heal.
type GenAIClient struct {
	httpClient *http.Client
	apiKey     string
	endpoint   string
	model      string
	maxRetries int
	sleep      func(time.Duration)
}

func NewGenAIClient(apiKey, endpoint, model string, maxRetries int, timeout time.Duration) *GenAIClient {
	return &GenAIClient{
		httpClient: &http.Client{Timeout: timeout},
		apiKey:     apiKey,
		endpoint:   strings.TrimSuffix(endpoint, "/"),
		model:      model,
		maxRetries: maxRetries,
		sleep:      time.Sleep,
	}
}

type generatePart struct {
	Text string `json:"text"`
}

type generateContent struct {
	Role  string         `json:"role,omitempty"`
	Parts []generatePart `json:"parts"`
}

type generateRequest struct {
	Contents []generateContent `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content generateContent `json:"content"`
	} `json:"candidates"`
}

func (c *GenAIClient) Summarize(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(c.apiKey) == "" {
		return "", domain.FatalError("missing GOOGLE_API_KEY", nil)
	}

	body, err := json.Marshal(generateRequest{
		Contents: []generateContent{{
			Role:  "user",
			Parts: []generatePart{{Text: summaryPrompt + text}},
		}},
	})
	if err != nil {
		return "", domain.FatalError("failed to marshal GenAI request", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.endpoint, c.model, c.apiKey)

	for attempt := 1; ; attempt++ {
		respBody, status, err := c.post(ctx, url, body)
		if err != nil {
			if attempt >= c.maxRetries {
				return "", domain.RetryableError("summarization retries exhausted", err)
			}
			c.sleep(time.Duration(attempt) * 300 * time.Millisecond)
			continue
		}

		switch {
		case status >= 200 && status < 300:
			return extractSummary(respBody), nil
		case status == http.StatusTooManyRequests && attempt < c.maxRetries:
			wait := time.Duration(attempt) * 500 * time.Millisecond
			log.Printf("GenAI 429, retrying in %v (attempt %d/%d)", wait, attempt, c.maxRetries)
			c.sleep(wait)
		case status >= 500 && attempt < c.maxRetries:
			wait := time.Duration(attempt) * 400 * time.Millisecond
			log.Printf("GenAI %d, retrying in %v (attempt %d/%d)", status, wait, attempt, c.maxRetries)
			c.sleep(wait)
		case status == http.StatusTooManyRequests || status >= 500:
			return "", domain.RetryableError(fmt.Sprintf("summarization retries exhausted (last status %d)", status), nil)
		default:
			return "", domain.FatalError(fmt.Sprintf("GenAI API error %d: %s", status, respBody), nil)
		}
	}
}

func (c *GenAIClient) post(ctx context.Context, url string, body []byte) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, err
	}
	return respBody, resp.StatusCode, nil
}

// extractSummary concatenates the text parts of the first candidate. When the
// response does not carry the expected structure the raw body is returned
// verbatim; callers should log an unexpectedly JSON-shaped summary rather
// than fail on it.
func extractSummary(body []byte) string {
	var resp generateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return string(body)
	}
	if len(resp.Candidates) == 0 {
		return string(body)
	}

	var out strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if strings.TrimSpace(part.Text) != "" {
			out.WriteString(part.Text)
		}
	}
	if out.Len() == 0 {
		return string(body)
	}
	return strings.TrimSpace(out.String())
}
