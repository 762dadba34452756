package httpapi

import (
	"fmt"
	"net/http"

	"github.com/mdrashedmamun/smb-coaching-ai/internal/diagnostic"
	"github.com/mdrashedmamun/smb-coaching-ai/internal/narrative"
	"github.com/mdrashedmamun/smb-coaching-ai/internal/syncer"
)

type auditRequest struct {
	Metrics   diagnostic.AuditMetrics `json:"metrics"`
	Goals     diagnostic.GoalData     `json:"goals"`
	SessionID string                  `json:"session_id,omitempty"`
}

func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	var req auditRequest
	if err := s.decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	v := diagnostic.BuildVerdict(req.Metrics, req.Goals)
	id := s.newID()
	now := s.now().UTC()
	if s.metrics != nil {
		s.metrics.ObserveAudit(string(v.Bottleneck))
	}
	s.dispatch(syncer.Record{Kind: syncer.KindVerdict, VerdictID: id, SessionID: req.SessionID, Verdict: v, At: now})
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "verdict_id": id, "verdict": v})
}

func (s *Server) handleModel(w http.ResponseWriter, r *http.Request) {
	var goals diagnostic.GoalData
	if err := s.decode(r, &goals); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "model": diagnostic.CalculateModel(goals)})
}

type escalateRequest struct {
	Bottleneck diagnostic.BottleneckType `json:"bottleneck" validate:"required"`
	SkipCount  int                       `json:"skip_count" validate:"gte=0"`
}

func (s *Server) handleEscalate(w http.ResponseWriter, r *http.Request) {
	var req escalateRequest
	if err := s.decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if !req.Bottleneck.Valid() {
		writeError(w, validationError(fmt.Sprintf("unknown bottleneck %q", req.Bottleneck)))
		return
	}
	rx := diagnostic.GetEscalatedPrescription(diagnostic.GetPrescription(req.Bottleneck), req.SkipCount)
	if s.metrics != nil && req.SkipCount > 0 {
		s.metrics.ObserveSkip()
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "prescription": rx})
}

type planRequest struct {
	Bottleneck     diagnostic.BottleneckType `json:"bottleneck" validate:"required"`
	SoftBottleneck diagnostic.SoftBottleneck `json:"soft_bottleneck" validate:"required"`
	Metrics        diagnostic.PlanMetrics    `json:"metrics"`
	Narrate        bool                      `json:"narrate,omitempty"`
}

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	var req planRequest
	if err := s.decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if !req.Bottleneck.Valid() {
		writeError(w, validationError(fmt.Sprintf("unknown bottleneck %q", req.Bottleneck)))
		return
	}
	plan, err := diagnostic.GeneratePlan(req.Bottleneck, req.SoftBottleneck, req.Metrics)
	if err != nil {
		writeError(w, err)
		return
	}
	if s.metrics != nil {
		s.metrics.ObservePlan(string(req.Bottleneck), string(req.SoftBottleneck))
	}
	resp := map[string]any{"ok": true, "plan": plan}
	if req.Narrate {
		soft := req.SoftBottleneck
		v := diagnostic.Verdict{
			Bottleneck:     req.Bottleneck,
			SoftBottleneck: &soft,
			Prescription:   diagnostic.GetPrescription(req.Bottleneck),
			Metrics: diagnostic.AuditMetrics{
				TotalResponses: req.Metrics.Leads,
				SalesCalls:     req.Metrics.SalesCalls,
				ClientsClosed:  req.Metrics.ClientsClosed,
			},
			Goals: diagnostic.GoalData{PricePerClient: req.Metrics.PricePerClient, CloseRate: req.Metrics.CloseRate},
		}
		note, err := s.narrator.Narrate(r.Context(), narrative.Input{Verdict: v, Plan: &plan})
		if err != nil {
			writeError(w, err)
			return
		}
		resp["narrative"] = note
	}
	writeJSON(w, http.StatusOK, resp)
}
