package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	AWSEndpointURL     string
	AWSRegion          string
	AWSAccessKeyID     string
	AWSSecretAccessKey string

	UploadedQueueURL           string
	UploadedFailedQueueURL     string
	OcrCompletedQueueURL       string
	OcrCompletedFailedQueueURL string

	BackendBaseURL string

	TessdataDir  string
	OcrLanguages string
	OcrDPI       int

	GenAIEnabled    bool
	GenAIAPIKey     string
	GenAIEndpoint   string
	GenAIModel      string
	GenAIMaxRetries int
	GenAITimeout    time.Duration

	OpenSearchURL string
	RedisHost     string
	RedisPort     string
}

func Load() (*Config, error) {
	cfg := &Config{
		AWSEndpointURL:     getEnv("AWS_ENDPOINT_URL", ""),
		AWSRegion:          getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),

		UploadedQueueURL:           getEnv("UPLOADED_QUEUE_URL", ""),
		UploadedFailedQueueURL:     getEnv("UPLOADED_FAILED_QUEUE_URL", ""),
		OcrCompletedQueueURL:       getEnv("OCR_COMPLETED_QUEUE_URL", ""),
		OcrCompletedFailedQueueURL: getEnv("OCR_COMPLETED_FAILED_QUEUE_URL", ""),

		BackendBaseURL: getEnv("BACKEND_BASE_URL", "http://backend:8080/api"),

		TessdataDir:  getEnv("TESSDATA_PREFIX", "/usr/share/tesseract-ocr/5/tessdata"),
		OcrLanguages: getEnv("OCR_LANG", "deu+eng"),
		OcrDPI:       getEnvInt("OCR_DPI", 300),

		GenAIEnabled:    getEnv("GENAI_ENABLED", "false") == "true",
		GenAIAPIKey:     getEnv("GOOGLE_API_KEY", ""),
		GenAIEndpoint:   getEnv("GENAI_ENDPOINT", "https://generativelanguage.googleapis.com"),
		GenAIModel:      getEnv("GENAI_MODEL", "gemini-2.0-flash"),
		GenAIMaxRetries: getEnvInt("GENAI_MAX_RETRIES", 3),
		GenAITimeout:    time.Duration(getEnvInt("GENAI_TIMEOUT_MS", 15000)) * time.Millisecond,

		OpenSearchURL: getEnv("OPENSEARCH_URL", ""),
		RedisHost:     getEnv("REDIS_HOST", ""),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
	}

	if cfg.UploadedQueueURL == "" {
		return nil, fmt.Errorf("UPLOADED_QUEUE_URL is required")
	}
	if cfg.OcrCompletedQueueURL == "" {
		return nil, fmt.Errorf("OCR_COMPLETED_QUEUE_URL is required")
	}

	// Dead-letter queues default to the source queue name suffixed ".failed".
	if cfg.UploadedFailedQueueURL == "" {
		cfg.UploadedFailedQueueURL = cfg.UploadedQueueURL + ".failed"
	}
	if cfg.OcrCompletedFailedQueueURL == "" {
		cfg.OcrCompletedFailedQueueURL = cfg.OcrCompletedQueueURL + ".failed"
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}
