package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	// STT backend: "vosk", "whisper", "openai" or "deepgram"
	STTBackend string

	// Vosk settings
	VoskModelPath string

	// whisper.cpp settings
	WhisperModelPath string
	WhisperLanguage  string

	// OpenAI settings, shared by the openai STT and summary backends
	OpenAIAPIKey       string
	OpenAIBaseURL      string
	OpenAISTTModel     string
	OpenAISummaryModel string

	// Deepgram settings
	DeepgramAPIKey string
	DeepgramTier   string

	// Summary backend: "gemini" or "openai"
	SummaryBackend string

	// Gemini settings
	GenAIAPIKey string
	GenAIModel  string

	// Chunking settings
	ChunkLength      time.Duration
	SkipFailedChunks bool

	// Batch settings
	MaxParallelFiles int
	FFmpegPath       string
	WorkDir          string
	OutputDir        string

	// Telemetry
	MetricsAddr string
	// Trace exporter: "none", "stdout" or "file"
	TracesExporter string
	TracesFile     string

	// Logging
	LogLevel string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("No .env file found, using environment variables only")
	}

	cfg := &Config{
		STTBackend: getEnvOrDefault("STT_BACKEND", "whisper"),

		VoskModelPath: getEnvOrDefault("VOSK_MODEL_PATH", "./models/vosk/en"),

		WhisperModelPath: getEnvOrDefault("WHISPER_MODEL_PATH", "./models/whisper/ggml-base.en.bin"),
		WhisperLanguage:  getEnvOrDefault("WHISPER_LANGUAGE", "en"),

		OpenAIAPIKey:       os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:      os.Getenv("OPENAI_BASE_URL"),
		OpenAISTTModel:     getEnvOrDefault("OPENAI_STT_MODEL", "whisper-1"),
		OpenAISummaryModel: getEnvOrDefault("OPENAI_SUMMARY_MODEL", "gpt-4o-mini"),

		DeepgramAPIKey: os.Getenv("DEEPGRAM_API_KEY"),
		DeepgramTier:   getEnvOrDefault("DEEPGRAM_TIER", "nova-2"),

		SummaryBackend: getEnvOrDefault("SUMMARY_BACKEND", "gemini"),

		GenAIAPIKey: os.Getenv("GENAI_API_KEY"),
		GenAIModel:  getEnvOrDefault("GENAI_MODEL", "gemini-2.0-flash"),

		ChunkLength:      time.Duration(getIntEnvOrDefault("CHUNK_SECONDS", 30)) * time.Second,
		SkipFailedChunks: getBoolEnvOrDefault("SKIP_FAILED_CHUNKS", false),

		MaxParallelFiles: getIntEnvOrDefault("MAX_PARALLEL_FILES", 1),
		FFmpegPath:       getEnvOrDefault("FFMPEG_PATH", "ffmpeg"),
		WorkDir:          os.Getenv("WORK_DIR"),
		OutputDir:        getEnvOrDefault("OUTPUT_DIR", "./data"),

		MetricsAddr:    os.Getenv("METRICS_ADDR"),
		TracesExporter: getEnvOrDefault("TRACES_EXPORTER", "none"),
		TracesFile:     getEnvOrDefault("TRACES_FILE", "./data/traces.jsonl"),

		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
	}

	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	switch c.STTBackend {
	case "vosk", "whisper", "openai", "deepgram":
	default:
		return fmt.Errorf("STT_BACKEND must be 'vosk', 'whisper', 'openai' or 'deepgram'")
	}

	if c.STTBackend == "deepgram" && c.DeepgramAPIKey == "" {
		return fmt.Errorf("DEEPGRAM_API_KEY is required when using deepgram backend")
	}

	switch c.SummaryBackend {
	case "gemini":
		if c.GenAIAPIKey == "" {
			return fmt.Errorf("GENAI_API_KEY is required when using gemini summaries")
		}
	case "openai":
	default:
		return fmt.Errorf("SUMMARY_BACKEND must be 'gemini' or 'openai'")
	}

	if (c.STTBackend == "openai" || c.SummaryBackend == "openai") && c.OpenAIAPIKey == "" && c.OpenAIBaseURL == "" {
		return fmt.Errorf("OPENAI_API_KEY is required when using openai backends")
	}

	if c.ChunkLength <= 0 {
		return fmt.Errorf("CHUNK_SECONDS must be positive")
	}

	if c.MaxParallelFiles < 1 {
		return fmt.Errorf("MAX_PARALLEL_FILES must be at least 1")
	}

	switch c.TracesExporter {
	case "none", "stdout":
	case "file":
		if c.TracesFile == "" {
			return fmt.Errorf("TRACES_FILE is required when TRACES_EXPORTER is 'file'")
		}
	default:
		return fmt.Errorf("TRACES_EXPORTER must be 'none', 'stdout' or 'file'")
	}

	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnvOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getBoolEnvOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
