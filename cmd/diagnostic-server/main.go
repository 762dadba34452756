package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/mdrashedmamun/smb-coaching-ai/internal/auditstore"
	"github.com/mdrashedmamun/smb-coaching-ai/internal/config"
	"github.com/mdrashedmamun/smb-coaching-ai/internal/httpapi"
	"github.com/mdrashedmamun/smb-coaching-ai/internal/kafka"
	"github.com/mdrashedmamun/smb-coaching-ai/internal/metrics"
	"github.com/mdrashedmamun/smb-coaching-ai/internal/narrative"
	"github.com/mdrashedmamun/smb-coaching-ai/internal/report"
	"github.com/mdrashedmamun/smb-coaching-ai/internal/session"
	"github.com/mdrashedmamun/smb-coaching-ai/internal/syncer"
	"github.com/mdrashedmamun/smb-coaching-ai/internal/telemetry"
)

var version = "dev"

func main() {
	configFlag := flag.String("config", "", "path to YAML config file (overrides CONFIG_FILE env var)")
	addrFlag := flag.String("addr", "", "listen address (overrides HTTP_ADDR/PORT)")
	flag.Parse()

	_ = godotenv.Load()

	configPath := *configFlag
	if configPath == "" {
		configPath = os.Getenv("CONFIG_FILE")
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if *addrFlag != "" {
		cfg.HTTPAddr = *addrFlag
	}
	if err := config.ConfigureLogging(cfg.LogLevel, cfg.LogFormat, os.Stderr); err != nil {
		log.Fatal().Err(err).Msg("configure logging")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	shutdownTracing, err := telemetry.InitTracing(ctx, telemetry.TracingConfig{
		ServiceName:    "diagnostic-server",
		ServiceVersion: version,
		Endpoint:       cfg.OTLPEndpoint,
		Insecure:       cfg.OTLPInsecure,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("init tracing")
	}

	sessions, closeSessions, err := openSessions(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.SessionBackend).Msg("open session store")
	}

	if dir := filepath.Dir(cfg.AuditDBPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatal().Err(err).Msg("create audit db directory")
		}
	}
	audits, err := auditstore.Open(cfg.AuditDBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.AuditDBPath).Msg("open audit store")
	}
	log.Info().Str("path", cfg.AuditDBPath).Msg("using sqlite audit store")

	sinks := []syncer.Sink{audits}
	var producer kafka.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer, err = kafka.NewProducer(kafka.Config{Brokers: cfg.KafkaBrokers, Topic: cfg.KafkaTopic})
		if err != nil {
			log.Fatal().Err(err).Msg("create kafka producer")
		}
		sinks = append(sinks, kafka.NewVerdictSink(producer))
		log.Info().Strs("brokers", cfg.KafkaBrokers).Str("topic", cfg.KafkaTopic).Msg("publishing audit events")
	}

	m := metrics.New()
	dispatcher := syncer.NewDispatcher(syncer.Options{
		Timeout: cfg.SyncTimeout,
		OnComplete: func(rec syncer.Record, err error, elapsed time.Duration) {
			m.ObserveSync(string(rec.Kind), err, elapsed)
		},
	}, sinks...)

	var pdf report.PDFRenderer
	if chromium := report.NewChromiumPDFRenderer(cfg.ChromePath); chromium.Available() {
		layout, err := report.LayoutByName(cfg.PDFPaper)
		if err != nil {
			log.Fatal().Err(err).Msg("pdf layout")
		}
		layout.Footer = "Bottleneck Audit"
		pdf = chromium.WithLayout(layout)
	} else {
		log.Warn().Msg("no chromium found, pdf reports disabled")
	}

	handler := httpapi.NewServer(httpapi.Deps{
		Sessions:   sessions,
		Audits:     audits,
		Sync:       dispatcher,
		Narrator:   newNarrator(cfg),
		PDF:        pdf,
		Metrics:    m,
		Thresholds: cfg.Thresholds,
	})

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, done := context.WithTimeout(context.Background(), 15*time.Second)
		defer done()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", cfg.HTTPAddr).Str("sessions", cfg.SessionBackend).Msg("diagnostic-server listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error().Err(err).Msg("http server stopped")
	}

	drainCtx, drainCancel := context.WithTimeout(context.Background(), cfg.SyncTimeout+5*time.Second)
	defer drainCancel()
	if err := dispatcher.Close(drainCtx); err != nil {
		log.Warn().Err(err).Msg("sync tasks still running at shutdown")
	}
	if producer != nil {
		_ = producer.Close()
	}
	_ = audits.Close()
	closeSessions()
	_ = shutdownTracing(drainCtx)
}

func openSessions(ctx context.Context, cfg config.Config) (session.Store, func(), error) {
	switch cfg.SessionBackend {
	case config.SessionBackendRedis:
		client, err := session.ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return session.NewRedisStore(client, cfg.SessionTTL), func() { _ = client.Close() }, nil
	case config.SessionBackendFile:
		fs, err := session.OpenFileStore(cfg.SessionFile)
		if err != nil {
			return nil, nil, err
		}
		log.Info().Str("path", cfg.SessionFile).Msg("using file session store")
		return fs, func() {}, nil
	default:
		return session.NewMemoryStore(), func() {}, nil
	}
}

func newNarrator(cfg config.Config) narrative.Narrator {
	if !cfg.NarratorEnabled {
		return narrative.TemplateNarrator{}
	}
	n, err := narrative.NewAnthropicNarratorFromEnv(cfg.NarratorModel)
	if err != nil {
		log.Warn().Err(err).Msg("narrator disabled")
		return narrative.TemplateNarrator{}
	}
	return narrative.NewFallback(n)
}
