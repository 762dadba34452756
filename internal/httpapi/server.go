package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/mdrashedmamun/smb-coaching-ai/internal/auditstore"
	"github.com/mdrashedmamun/smb-coaching-ai/internal/diagnostic"
	"github.com/mdrashedmamun/smb-coaching-ai/internal/economics"
	"github.com/mdrashedmamun/smb-coaching-ai/internal/metrics"
	"github.com/mdrashedmamun/smb-coaching-ai/internal/narrative"
	"github.com/mdrashedmamun/smb-coaching-ai/internal/report"
	"github.com/mdrashedmamun/smb-coaching-ai/internal/session"
	"github.com/mdrashedmamun/smb-coaching-ai/internal/syncer"
)

const maxBodyBytes = 1 << 20

// Dispatcher schedules a record for background sync and reports on records
// it still tracks.
type Dispatcher interface {
	Dispatch(rec syncer.Record) *syncer.Task
	Lookup(key string) (*syncer.Task, bool)
}

type AuditReader interface {
	Get(ctx context.Context, verdictID string) (auditstore.Audit, error)
	ListBySession(ctx context.Context, sessionID string, limit int) ([]auditstore.Audit, error)
	CountByBottleneck(ctx context.Context) (map[diagnostic.BottleneckType]int, error)
}

// Deps wires the server. Only Sessions is required; Audits, Sync and PDF
// may be nil and the endpoints that need them report unavailable.
type Deps struct {
	Sessions   session.Store
	Audits     AuditReader
	Sync       Dispatcher
	Narrator   narrative.Narrator
	PDF        report.PDFRenderer
	Metrics    *metrics.Metrics
	Thresholds economics.Thresholds
	Clock      func() time.Time
	NewID      func() string
}

type Server struct {
	sessions   session.Store
	audits     AuditReader
	sync       Dispatcher
	narrator   narrative.Narrator
	pdf        report.PDFRenderer
	metrics    *metrics.Metrics
	thresholds economics.Thresholds
	now        func() time.Time
	newID      func() string
	validate   *validator.Validate
}

func NewServer(d Deps) http.Handler {
	s := &Server{
		sessions:   d.Sessions,
		audits:     d.Audits,
		sync:       d.Sync,
		narrator:   d.Narrator,
		pdf:        d.PDF,
		metrics:    d.Metrics,
		thresholds: d.Thresholds,
		now:        d.Clock,
		newID:      d.NewID,
		validate:   validator.New(),
	}
	if s.sessions == nil {
		s.sessions = session.NewMemoryStore()
	}
	if s.narrator == nil {
		s.narrator = narrative.TemplateNarrator{}
	}
	if s.thresholds == (economics.Thresholds{}) {
		s.thresholds = economics.DefaultThresholds()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	return s.routes()
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(recoverMiddleware)
	r.Use(s.loggingMiddleware)

	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}
	r.Route("/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Post("/audit", s.handleAudit)
		r.Post("/model", s.handleModel)
		r.Post("/prescriptions/escalate", s.handleEscalate)
		r.Post("/plan", s.handlePlan)

		r.Post("/cac", s.handleCAC)
		r.Post("/unit-economics", s.handleUnitEconomics)
		r.Post("/offers/score", s.handleScoreOffers)
		r.Post("/offers/constraint", s.handleInferConstraint)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", s.handleCreateSession)
			r.Get("/{id}", s.handleGetSession)
			r.Get("/{id}/audits", s.handleListSessionAudits)
			r.Post("/{id}/commands", s.handleSessionCommand)
		})

		r.Get("/audits/stats", s.handleAuditStats)

		r.Route("/audits/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetAudit)
			r.Get("/report", s.handleAuditReport)
		})
	})
	return r
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// decode reads a JSON body into dst and runs struct validation. An empty
// body decodes as {}.
func (s *Server) decode(r *http.Request, dst any) error {
	blob, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return jsonError(err)
	}
	if len(blob) == 0 {
		blob = []byte("{}")
	}
	if err := json.Unmarshal(blob, dst); err != nil {
		return jsonError(err)
	}
	if err := s.validate.Struct(dst); err != nil {
		return fromValidator(err)
	}
	return nil
}

func (s *Server) dispatch(rec syncer.Record) {
	if s.sync == nil {
		return
	}
	s.sync.Dispatch(rec)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{"ok": true, "time": s.now().UTC()}
	if p, ok := s.audits.(interface{ Ping(context.Context) error }); ok {
		if err := p.Ping(r.Context()); err != nil {
			status["ok"] = false
			status["audit_store"] = err.Error()
			writeJSON(w, http.StatusServiceUnavailable, status)
			return
		}
	}
	writeJSON(w, http.StatusOK, status)
}
