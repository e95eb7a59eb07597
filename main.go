package main

import (
	"context"
	"crypto/tls"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/joho/godotenv"
	"github.com/opensearch-project/opensearch-go/v2"

	"ocr-worker/config"
	"ocr-worker/repositories"
	"ocr-worker/services"
)

func main() {
	_ = godotenv.Load()

	log.Println("OCR worker starting...")
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	awsOpts := []func(*awsConfig.LoadOptions) error{
		awsConfig.WithRegion(cfg.AWSRegion),
	}
	if cfg.AWSEndpointURL != "" {
		customResolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
			return aws.Endpoint{
				URL:           cfg.AWSEndpointURL,
				SigningRegion: cfg.AWSRegion,
			}, nil
		})
		awsOpts = append(awsOpts,
			awsConfig.WithEndpointResolverWithOptions(customResolver),
			awsConfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AWSAccessKeyID, cfg.AWSSecretAccessKey, "")),
		)
	}
	awsCfg, err := awsConfig.LoadDefaultConfig(ctx, awsOpts...)
	if err != nil {
		log.Fatalf("unable to load SDK config, %v", err)
	}

	// Repositories
	sqsRepo := repositories.NewSQSRepository(awsCfg)
	s3Repo := repositories.NewS3Repository(awsCfg)
	backendRepo := repositories.NewBackendRepository(cfg.BackendBaseURL)

	var searchRepo services.SearchIndexRepository
	if cfg.OpenSearchURL != "" {
		osClient, err := opensearch.NewClient(opensearch.Config{
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			},
			Addresses: []string{cfg.OpenSearchURL},
		})
		if err != nil {
			log.Fatalf("error creating OpenSearch client: %s", err)
		}
		searchRepo = repositories.NewOpenSearchRepository(osClient)
	}

	var processed services.ProcessedSet
	if cfg.RedisHost != "" {
		processed = repositories.NewRedisClient(cfg.RedisHost, cfg.RedisPort)
	}

	// Services
	ocrService, err := services.NewOcrService(cfg.TessdataDir, cfg.OcrLanguages, cfg.OcrDPI)
	if err != nil {
		log.Fatalf("failed to init OCR engine: %v", err)
	}

	extractionService := services.NewExtractionService(
		services.WithQueueRepository(sqsRepo),
		services.WithStorageRepository(s3Repo),
		services.WithBackendRepository(backendRepo),
		services.WithSearchIndexRepository(searchRepo),
		services.WithExtractor(ocrService),
		services.WithProcessedSet(processed),
		services.WithCompletedQueue(cfg.OcrCompletedQueueURL),
	)

	// Graceful shutdown handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Printf("Received signal %v, initiating shutdown...", sig)
		cancel()
	}()

	var wg sync.WaitGroup

	uploadedConsumer := services.NewConsumer("uploaded", sqsRepo,
		cfg.UploadedQueueURL, cfg.UploadedFailedQueueURL, extractionService.HandleMessage)
	wg.Add(1)
	go func() {
		defer wg.Done()
		uploadedConsumer.Start(ctx)
	}()

	if cfg.GenAIEnabled {
		genAiClient := services.NewGenAIClient(cfg.GenAIAPIKey, cfg.GenAIEndpoint,
			cfg.GenAIModel, cfg.GenAIMaxRetries, cfg.GenAITimeout)
		summaryService := services.NewSummaryService(genAiClient, backendRepo)
		summaryConsumer := services.NewConsumer("summary", sqsRepo,
			cfg.OcrCompletedQueueURL, cfg.OcrCompletedFailedQueueURL, summaryService.HandleMessage)
		wg.Add(1)
		go func() {
			defer wg.Done()
			summaryConsumer.Start(ctx)
		}()
	} else {
		log.Println("GenAI summarization disabled (GENAI_ENABLED != true)")
	}

	wg.Wait()
	log.Println("Shutdown complete.")
}
