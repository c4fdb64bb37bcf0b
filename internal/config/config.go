package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"receipts/internal/logger"
	"receipts/internal/ocr"
)

type Config struct {
	// Document analysis backend: "documentai" or "vision"
	OCRProvider string

	// Google Cloud Configuration
	GoogleCloudProject         string
	GoogleCloudLocation        string
	DocumentAIProcessorID      string
	DocumentAIProcessorVersion string
	GoogleCredentialsFile      string
	GoogleCredentialsJSON      string

	OCRTimeout   time.Duration
	OCRCachePath string
	ImageEnhance bool

	// Image fetching
	FetchConcurrency int
	FetchTimeout     time.Duration

	// Logging Configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

func Load() (*Config, error) {
	config := &Config{
		OCRProvider:                strings.ToLower(getEnv("OCR_PROVIDER", ocr.ProviderDocumentAI)),
		GoogleCloudProject:         getEnv("GOOGLE_CLOUD_PROJECT", ""),
		GoogleCloudLocation:        getEnv("GOOGLE_CLOUD_LOCATION", "us"),
		DocumentAIProcessorID:      getEnv("DOCUMENT_AI_PROCESSOR_ID", ""),
		DocumentAIProcessorVersion: getEnv("DOCUMENT_AI_PROCESSOR_VERSION", ""),
		GoogleCredentialsFile:      getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),
		GoogleCredentialsJSON:      getEnv("GOOGLE_CREDENTIALS", ""),
		OCRCachePath:               getEnv("OCR_CACHE_PATH", ""),
		LogLevel:                   getEnv("LOG_LEVEL", "info"),
		LogFormat:                  getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:              getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:                  getEnv("LOG_OUTPUT", "stderr"),
	}

	var err error
	if config.OCRTimeout, err = getSeconds("OCR_TIMEOUT", 60); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	if config.FetchTimeout, err = getSeconds("FETCH_TIMEOUT", 30); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	if config.FetchConcurrency, err = getInt("FETCH_CONCURRENCY", 4); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	if config.ImageEnhance, err = getBool("IMAGE_ENHANCE", false); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) validate() error {
	switch c.OCRProvider {
	case ocr.ProviderDocumentAI:
		if c.GoogleCloudProject == "" {
			return fmt.Errorf("GOOGLE_CLOUD_PROJECT is required")
		}
		if c.DocumentAIProcessorID == "" {
			return fmt.Errorf("DOCUMENT_AI_PROCESSOR_ID is required")
		}
	case ocr.ProviderVision:
	default:
		return fmt.Errorf("OCR_PROVIDER must be %q or %q, got %q", ocr.ProviderDocumentAI, ocr.ProviderVision, c.OCRProvider)
	}
	if c.FetchConcurrency < 1 {
		return fmt.Errorf("FETCH_CONCURRENCY must be at least 1")
	}
	return nil
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

// Credentials returns the Google credentials to hand to the analyzers.
func (c *Config) Credentials() ocr.Credentials {
	return ocr.Credentials{JSON: c.GoogleCredentialsJSON, File: c.GoogleCredentialsFile}
}

// DocumentAI returns the Document AI analyzer configuration.
func (c *Config) DocumentAI() ocr.DocumentAIConfig {
	return ocr.DocumentAIConfig{
		ProjectID:        c.GoogleCloudProject,
		Location:         c.GoogleCloudLocation,
		ProcessorID:      c.DocumentAIProcessorID,
		ProcessorVersion: c.DocumentAIProcessorVersion,
		Timeout:          c.OCRTimeout,
		Credentials:      c.Credentials(),
	}
}

// AnalyzerScope identifies the analysis backend for cache entries. For
// Document AI it includes the processor and version, since switching
// either changes the blocks returned for the same image.
func (c *Config) AnalyzerScope() string {
	if c.OCRProvider == ocr.ProviderDocumentAI {
		return c.OCRProvider + ":" + c.DocumentAI().ProcessorName()
	}
	return c.OCRProvider
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) (int, error) {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func getSeconds(key string, defaultValue int) (time.Duration, error) {
	n, err := getInt(key, defaultValue)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("%s must be positive", key)
	}
	return time.Duration(n) * time.Second, nil
}

func getBool(key string, defaultValue bool) (bool, error) {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean: %w", key, err)
	}
	return b, nil
}
