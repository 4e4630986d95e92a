package main

import (
	"context"
	"fmt"

	"github.com/user/podcast-insight/internal/config"
	"github.com/user/podcast-insight/internal/models"
	"github.com/user/podcast-insight/internal/stt"
	"github.com/user/podcast-insight/internal/stt/deepgram"
	sttopenai "github.com/user/podcast-insight/internal/stt/openai"
	"github.com/user/podcast-insight/internal/stt/vosk"
	"github.com/user/podcast-insight/internal/stt/whisper"
	"github.com/user/podcast-insight/internal/summariser"
	"github.com/user/podcast-insight/internal/summariser/gemini"
	sumopenai "github.com/user/podcast-insight/internal/summariser/openai"
)

// speechHandle returns an unloaded handle for the configured STT backend.
func speechHandle(cfg *config.Config) (*models.Handle[stt.Recognizer], error) {
	var load models.LoadFunc[stt.Recognizer]
	switch cfg.STTBackend {
	case "vosk":
		load = func(context.Context) (stt.Recognizer, error) {
			return vosk.New(cfg.VoskModelPath)
		}
	case "whisper":
		load = func(context.Context) (stt.Recognizer, error) {
			return whisper.New(cfg.WhisperModelPath, cfg.WhisperLanguage)
		}
	case "openai":
		load = func(context.Context) (stt.Recognizer, error) {
			return sttopenai.New(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAISTTModel, ""), nil
		}
	case "deepgram":
		load = func(context.Context) (stt.Recognizer, error) {
			return deepgram.New(cfg.DeepgramAPIKey, cfg.DeepgramTier, ""), nil
		}
	default:
		return nil, fmt.Errorf("unsupported STT backend: %s", cfg.STTBackend)
	}
	return models.NewHandle("speech-"+cfg.STTBackend, load), nil
}

// summaryHandle returns an unloaded handle for the configured summary backend.
func summaryHandle(cfg *config.Config) (*models.Handle[summariser.Model], error) {
	var load models.LoadFunc[summariser.Model]
	switch cfg.SummaryBackend {
	case "gemini":
		load = func(ctx context.Context) (summariser.Model, error) {
			return gemini.NewGeminiSummariser(ctx, cfg.GenAIAPIKey, cfg.GenAIModel)
		}
	case "openai":
		load = func(context.Context) (summariser.Model, error) {
			return sumopenai.New(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAISummaryModel), nil
		}
	default:
		return nil, fmt.Errorf("unsupported summary backend: %s", cfg.SummaryBackend)
	}
	return models.NewHandle("summary-"+cfg.SummaryBackend, load), nil
}
