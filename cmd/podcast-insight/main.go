package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/user/podcast-insight/internal/audio"
	"github.com/user/podcast-insight/internal/config"
	"github.com/user/podcast-insight/internal/observe"
	"github.com/user/podcast-insight/internal/pipeline"
	"github.com/user/podcast-insight/internal/store"
	"github.com/user/podcast-insight/internal/stt"
	"github.com/user/podcast-insight/internal/summariser"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return 2
	}

	// Setup logging
	setupLogging(cfg.LogLevel)

	paths := os.Args[1:]
	if len(paths) == 0 {
		log.Error().Msg("Usage: podcast-insight <audio file>...")
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceVersion: version,
		TraceExporter:  cfg.TracesExporter,
		TraceFile:      cfg.TracesFile,
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to initialise telemetry")
		return 1
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(sctx); err != nil {
			log.Warn().Err(err).Msg("Failed to flush telemetry")
		}
	}()
	metrics, err := observe.DefaultMetrics()
	if err != nil {
		log.Error().Err(err).Msg("Failed to create metrics")
		return 1
	}
	// /metrics is only useful for batches long enough to be scraped; every
	// run logs the final counters on exit.
	defer observe.LogSnapshot(prometheus.DefaultGatherer)
	if cfg.MetricsAddr != "" {
		go serveMetrics(cfg.MetricsAddr)
	}

	fileStore, err := store.NewFileStore(cfg.OutputDir)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create store")
		return 1
	}

	speech, err := speechHandle(cfg)
	if err != nil {
		log.Error().Err(err).Msg("Failed to configure transcriber")
		return 1
	}
	defer speech.Close()

	summary, err := summaryHandle(cfg)
	if err != nil {
		log.Error().Err(err).Msg("Failed to configure summariser")
		return 1
	}
	defer summary.Close()

	// Both models are loaded once up front and shared by every run.
	var g errgroup.Group
	g.Go(func() error { return speech.Load(ctx) })
	g.Go(func() error { return summary.Load(ctx) })
	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Failed to load models")
		return 1
	}

	transcriber := stt.NewTranscriber(speech)
	transcriber.ChunkLength = cfg.ChunkLength
	transcriber.SkipFailedChunks = cfg.SkipFailedChunks
	transcriber.Metrics = metrics

	sum := summariser.New(summary)
	sum.Metrics = metrics

	orchestrator := pipeline.New(normalizer(cfg.FFmpegPath), transcriber, sum)
	orchestrator.WorkDir = cfg.WorkDir
	orchestrator.Metrics = metrics

	log.Info().
		Int("files", len(paths)).
		Str("stt_backend", cfg.STTBackend).
		Str("summary_backend", cfg.SummaryBackend).
		Msg("Starting podcast analysis")

	outcomes := pipeline.RunBatch(ctx, orchestrator, paths, cfg.MaxParallelFiles)

	exitCode := 0
	for _, out := range outcomes {
		if out.Err != nil {
			log.Error().Err(out.Err).Str("file", out.Path).Msg("Failed to process file")
			exitCode = 1
			continue
		}
		resultPath, notesPath, err := fileStore.Save(out.Result)
		if err != nil {
			log.Error().Err(err).Str("file", out.Path).Msg("Failed to save result")
			exitCode = 1
			continue
		}
		log.Info().
			Str("file", out.Path).
			Str("emotion", string(out.Result.Emotion.Primary)).
			Str("result", resultPath).
			Str("notes", notesPath).
			Msg("Saved analysis")
	}
	return exitCode
}

// normalizer prefers ffmpeg and falls back to direct WAV/MP3 decoding when it
// is not installed.
func normalizer(ffmpegPath string) audio.Normalizer {
	if _, err := exec.LookPath(ffmpegPath); err != nil {
		log.Warn().Str("ffmpeg", ffmpegPath).Msg("ffmpeg not found, only WAV and MP3 input is supported")
		return audio.PassthroughNormalizer{}
	}
	return audio.FFmpegNormalizer{Binary: ffmpegPath}
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	log.Info().Str("addr", addr).Msg("Serving metrics")
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error().Err(err).Msg("Metrics server stopped")
	}
}

func setupLogging(level string) {
	// Setup zerolog
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})

	// Set log level
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	log.Debug().Str("level", level).Msg("Logging configured")
}
