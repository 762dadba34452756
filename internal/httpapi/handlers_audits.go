package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/mdrashedmamun/smb-coaching-ai/internal/auditstore"
	"github.com/mdrashedmamun/smb-coaching-ai/internal/narrative"
	"github.com/mdrashedmamun/smb-coaching-ai/internal/report"
)

const defaultAuditListLimit = 20

func (s *Server) handleListSessionAudits(w http.ResponseWriter, r *http.Request) {
	if s.audits == nil {
		writeError(w, newError(CodeUnavailable, "audit store is not configured"))
		return
	}
	limit := defaultAuditListLimit
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 100 {
			writeError(w, validationError("limit must be between 1 and 100"))
			return
		}
		limit = n
	}
	list, err := s.audits.ListBySession(r.Context(), chi.URLParam(r, "id"), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "audits": list})
}

// handleAuditStats tallies stored verdicts per bottleneck.
func (s *Server) handleAuditStats(w http.ResponseWriter, r *http.Request) {
	if s.audits == nil {
		writeError(w, newError(CodeUnavailable, "audit store is not configured"))
		return
	}
	counts, err := s.audits.CountByBottleneck(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	total := 0
	for _, n := range counts {
		total += n
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "total": total, "by_bottleneck": counts})
}

func (s *Server) loadAudit(r *http.Request) (auditstore.Audit, error) {
	if s.audits == nil {
		return auditstore.Audit{}, newError(CodeUnavailable, "audit store is not configured")
	}
	return s.audits.Get(r.Context(), chi.URLParam(r, "id"))
}

func (s *Server) handleGetAudit(w http.ResponseWriter, r *http.Request) {
	a, err := s.loadAudit(r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "audit": a})
}

func (s *Server) handleAuditReport(w http.ResponseWriter, r *http.Request) {
	format, err := report.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, validationError(err.Error()))
		return
	}
	a, err := s.loadAudit(r)
	if err != nil {
		writeError(w, err)
		return
	}
	doc := report.Document{
		AuditID:     a.VerdictID,
		CompletedAt: a.CompletedAt,
		Verdict:     a.Verdict,
		Plan:        a.Plan,
	}
	if a.Plan != nil {
		note, err := s.narrator.Narrate(r.Context(), narrative.Input{Verdict: a.Verdict, Plan: a.Plan})
		if err != nil {
			log.Warn().Err(err).Str("verdict_id", a.VerdictID).Msg("report narration failed")
		} else {
			doc.Narrative = note
		}
	}
	out, err := report.Render(r.Context(), doc, format, s.pdf)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Length", strconv.Itoa(len(out)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}
