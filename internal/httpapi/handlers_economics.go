package httpapi

import (
	"fmt"
	"net/http"

	"github.com/mdrashedmamun/smb-coaching-ai/internal/economics"
	"github.com/mdrashedmamun/smb-coaching-ai/internal/offers"
)

type cacRequest struct {
	Inputs       economics.CACInputs        `json:"inputs"`
	Price        float64                    `json:"price" validate:"gte=0"`
	MarginPct    float64                    `json:"margin_pct" validate:"gte=0,lte=100"`
	MarginSource economics.AssumptionSource `json:"margin_source,omitempty"`
}

func (req cacRequest) check() error {
	switch req.Inputs.Mode {
	case economics.ModePerCustomer, economics.ModeMonthlySpend:
	case "":
		return validationError("inputs.mode is required")
	default:
		return validationError(fmt.Sprintf("unknown cac mode %q", req.Inputs.Mode))
	}
	if req.MarginSource != "" && !req.MarginSource.Valid() {
		return validationError(fmt.Sprintf("unknown margin source %q", req.MarginSource))
	}
	return nil
}

func (req cacRequest) pricing() economics.Pricing {
	return economics.Pricing{Price: req.Price, MarginPct: req.MarginPct, MarginSource: req.MarginSource}
}

func (s *Server) handleCAC(w http.ResponseWriter, r *http.Request) {
	var req cacRequest
	if err := s.decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := req.check(); err != nil {
		writeError(w, err)
		return
	}
	res := economics.CalculateCACPayback(req.Inputs, req.pricing(), s.thresholds)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "cac": res})
}

type unitEconomicsRequest struct {
	cacRequest
	RetentionMonths       float64                    `json:"retention_months" validate:"gte=0"`
	RetentionSource       economics.AssumptionSource `json:"retention_source,omitempty"`
	ContributionMarginPct *float64                   `json:"contribution_margin_pct,omitempty" validate:"omitempty,gte=0,lte=100"`
}

func (s *Server) handleUnitEconomics(w http.ResponseWriter, r *http.Request) {
	var req unitEconomicsRequest
	if err := s.decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := req.check(); err != nil {
		writeError(w, err)
		return
	}
	if req.RetentionSource != "" && !req.RetentionSource.Valid() {
		writeError(w, validationError(fmt.Sprintf("unknown retention source %q", req.RetentionSource)))
		return
	}
	cac := economics.CalculateCACPayback(req.Inputs, req.pricing(), s.thresholds)
	in := economics.UnitEconomicsInputFromCAC(cac, req.RetentionMonths, req.RetentionSource, req.ContributionMarginPct)
	ue := economics.CalculateUnitEconomics(in, s.thresholds)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "cac": cac, "unit_economics": ue})
}

type scoreOffersRequest struct {
	Offers  []offers.Offer        `json:"offers" validate:"required,min=1,dive"`
	Context offers.ScoringContext `json:"context"`
}

func (s *Server) handleScoreOffers(w http.ResponseWriter, r *http.Request) {
	var req scoreOffersRequest
	if err := s.decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Context.Constraint != "" && !req.Context.Constraint.Valid() {
		writeError(w, validationError(fmt.Sprintf("unknown constraint %q", req.Context.Constraint)))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "offers": offers.ScoreOffers(req.Offers, req.Context)})
}

type constraintRequest struct {
	Survey offers.Survey `json:"survey"`
}

func (s *Server) handleInferConstraint(w http.ResponseWriter, r *http.Request) {
	var req constraintRequest
	if err := s.decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "constraint": offers.InferConstraint(req.Survey)})
}
