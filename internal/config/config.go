package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/mdrashedmamun/smb-coaching-ai/internal/economics"
)

const (
	SessionBackendMemory = "memory"
	SessionBackendFile   = "file"
	SessionBackendRedis  = "redis"
)

type Config struct {
	HTTPAddr    string
	AuditDBPath string

	SessionBackend string
	SessionFile    string
	RedisURL       string
	SessionTTL     time.Duration

	KafkaBrokers []string
	KafkaTopic   string
	SyncTimeout  time.Duration

	OTLPEndpoint string
	OTLPInsecure bool

	LogLevel  string
	LogFormat string

	NarratorEnabled bool
	NarratorModel   string
	ChromePath      string
	PDFPaper        string

	Thresholds economics.Thresholds
}

type configFile struct {
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Storage struct {
		AuditDB        string `yaml:"audit_db"`
		SessionBackend string `yaml:"session_backend"`
		SessionFile    string `yaml:"session_file"`
		RedisURL       string `yaml:"redis_url"`
		SessionTTL     string `yaml:"session_ttl"`
	} `yaml:"storage"`
	Sync struct {
		KafkaBrokers []string `yaml:"kafka_brokers"`
		KafkaTopic   string   `yaml:"kafka_topic"`
		Timeout      string   `yaml:"timeout"`
	} `yaml:"sync"`
	Telemetry struct {
		OTLPEndpoint string `yaml:"otlp_endpoint"`
		OTLPInsecure bool   `yaml:"otlp_insecure"`
		LogLevel     string `yaml:"log_level"`
		LogFormat    string `yaml:"log_format"`
	} `yaml:"telemetry"`
	Narrator struct {
		Enabled bool   `yaml:"enabled"`
		Model   string `yaml:"model"`
	} `yaml:"narrator"`
	Report struct {
		ChromePath string `yaml:"chrome_path"`
		Paper      string `yaml:"paper"`
	} `yaml:"report"`
	Economics economics.Thresholds `yaml:"economics"`
}

func Default() Config {
	return Config{
		HTTPAddr:       ":8080",
		AuditDBPath:    "./data/audits.db",
		SessionBackend: SessionBackendMemory,
		SessionFile:    "./data/sessions.json",
		SessionTTL:     30 * 24 * time.Hour,
		KafkaTopic:     "audit-events",
		SyncTimeout:    10 * time.Second,
		LogLevel:       "info",
		LogFormat:      "json",
		PDFPaper:       "a4",
		Thresholds:     economics.DefaultThresholds(),
	}
}

// Load applies defaults, then the YAML file at path (if any), then env vars.
// A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := applyFile(&cfg, raw); err != nil {
				return Config{}, err
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg.HTTPAddr = envOrDefault("HTTP_ADDR", cfg.HTTPAddr)
	if port := os.Getenv("PORT"); port != "" {
		cfg.HTTPAddr = ":" + port
	}
	cfg.AuditDBPath = envOrDefault("AUDIT_DB_PATH", cfg.AuditDBPath)
	cfg.SessionBackend = envOrDefault("SESSION_BACKEND", cfg.SessionBackend)
	cfg.SessionFile = envOrDefault("SESSION_FILE", cfg.SessionFile)
	cfg.RedisURL = envOrDefault("REDIS_URL", cfg.RedisURL)
	cfg.SessionTTL = envDuration("SESSION_TTL_HOURS", time.Hour, cfg.SessionTTL)
	cfg.KafkaBrokers = envCSV("KAFKA_BROKERS", cfg.KafkaBrokers)
	cfg.KafkaTopic = envOrDefault("KAFKA_TOPIC", cfg.KafkaTopic)
	cfg.SyncTimeout = envDuration("SYNC_TIMEOUT_SECONDS", time.Second, cfg.SyncTimeout)
	cfg.OTLPEndpoint = envOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.OTLPEndpoint)
	cfg.OTLPInsecure = envBool("OTEL_EXPORTER_OTLP_INSECURE", cfg.OTLPInsecure)
	cfg.LogLevel = envOrDefault("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = envOrDefault("LOG_FORMAT", cfg.LogFormat)
	cfg.NarratorEnabled = envBool("NARRATOR_ENABLED", cfg.NarratorEnabled)
	cfg.NarratorModel = envOrDefault("NARRATOR_MODEL", cfg.NarratorModel)
	cfg.ChromePath = envOrDefault("CHROME_PATH", cfg.ChromePath)
	cfg.PDFPaper = strings.ToLower(envOrDefault("PDF_PAPER", cfg.PDFPaper))
	cfg.Thresholds.MaxPaybackMonths = envFloat("MAX_PAYBACK_MONTHS", cfg.Thresholds.MaxPaybackMonths)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyFile(cfg *Config, raw []byte) error {
	f := configFile{Economics: cfg.Thresholds}
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	if f.Server.Addr != "" {
		cfg.HTTPAddr = f.Server.Addr
	}
	if f.Storage.AuditDB != "" {
		cfg.AuditDBPath = f.Storage.AuditDB
	}
	if f.Storage.SessionBackend != "" {
		cfg.SessionBackend = f.Storage.SessionBackend
	}
	if f.Storage.SessionFile != "" {
		cfg.SessionFile = f.Storage.SessionFile
	}
	if f.Storage.RedisURL != "" {
		cfg.RedisURL = f.Storage.RedisURL
	}
	if f.Storage.SessionTTL != "" {
		d, err := time.ParseDuration(f.Storage.SessionTTL)
		if err != nil {
			return fmt.Errorf("parse storage.session_ttl: %w", err)
		}
		cfg.SessionTTL = d
	}
	if len(f.Sync.KafkaBrokers) > 0 {
		cfg.KafkaBrokers = trimNonEmpty(f.Sync.KafkaBrokers)
	}
	if f.Sync.KafkaTopic != "" {
		cfg.KafkaTopic = f.Sync.KafkaTopic
	}
	if f.Sync.Timeout != "" {
		d, err := time.ParseDuration(f.Sync.Timeout)
		if err != nil {
			return fmt.Errorf("parse sync.timeout: %w", err)
		}
		cfg.SyncTimeout = d
	}
	if f.Telemetry.OTLPEndpoint != "" {
		cfg.OTLPEndpoint = f.Telemetry.OTLPEndpoint
	}
	cfg.OTLPInsecure = cfg.OTLPInsecure || f.Telemetry.OTLPInsecure
	if f.Telemetry.LogLevel != "" {
		cfg.LogLevel = f.Telemetry.LogLevel
	}
	if f.Telemetry.LogFormat != "" {
		cfg.LogFormat = f.Telemetry.LogFormat
	}
	cfg.NarratorEnabled = cfg.NarratorEnabled || f.Narrator.Enabled
	if f.Narrator.Model != "" {
		cfg.NarratorModel = f.Narrator.Model
	}
	if f.Report.ChromePath != "" {
		cfg.ChromePath = f.Report.ChromePath
	}
	if f.Report.Paper != "" {
		cfg.PDFPaper = strings.ToLower(f.Report.Paper)
	}
	cfg.Thresholds = f.Economics
	return nil
}

func (c Config) Validate() error {
	switch c.SessionBackend {
	case SessionBackendMemory, SessionBackendFile:
	case SessionBackendRedis:
		if c.RedisURL == "" {
			return errors.New("session backend redis requires REDIS_URL")
		}
	default:
		return fmt.Errorf("unknown session backend %q", c.SessionBackend)
	}
	switch c.PDFPaper {
	case "a4", "letter":
	default:
		return fmt.Errorf("unknown pdf paper %q", c.PDFPaper)
	}
	if c.SyncTimeout <= 0 {
		return errors.New("sync timeout must be > 0")
	}
	if err := c.Thresholds.Validate(); err != nil {
		return fmt.Errorf("economics: %w", err)
	}
	return nil
}

// ConfigureLogging sets the global zerolog level and writer. "console"
// format writes human-readable lines to w; anything else writes JSON.
func ConfigureLogging(level, format string, w io.Writer) error {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return fmt.Errorf("parse log level: %w", err)
	}
	if lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimeFieldFormat = time.RFC3339
	if format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	log.Logger = zerolog.New(w).With().Timestamp().Logger()
	return nil
}

func envOrDefault(name, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(name)); value != "" {
		return value
	}
	return fallback
}

// envDuration reads a whole number of units, or a Go duration string such as
// "1500ms". Unset or unparsable values keep fallback untouched.
func envDuration(name string, unit, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return time.Duration(n) * unit
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

func envFloat(name string, fallback float64) float64 {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return v
}

func envBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	switch strings.ToLower(raw) {
	case "1", "true", "yes":
		return true
	case "0", "false", "no":
		return false
	default:
		return fallback
	}
}

func envCSV(name string, fallback []string) []string {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	return trimNonEmpty(strings.Split(raw, ","))
}

func trimNonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
