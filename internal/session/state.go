package session

import (
	"time"

	"github.com/mdrashedmamun/smb-coaching-ai/internal/diagnostic"
	"github.com/mdrashedmamun/smb-coaching-ai/internal/economics"
	"github.com/mdrashedmamun/smb-coaching-ai/internal/offers"
)

// SchemaVersion is bumped whenever the persisted State layout changes.
const SchemaVersion = 1

// FlowState is the wizard screen a session is on.
type FlowState string

const (
	ScreenWelcome       FlowState = "welcome"
	ScreenBusiness      FlowState = "business"
	ScreenGoals         FlowState = "goals"
	ScreenMetrics       FlowState = "metrics"
	ScreenVerdict       FlowState = "verdict"
	ScreenSoftProbe     FlowState = "soft_probe"
	ScreenPlan          FlowState = "plan"
	ScreenCAC           FlowState = "cac"
	ScreenUnitEconomics FlowState = "unit_economics"
	ScreenOffers        FlowState = "offers"
	ScreenComplete      FlowState = "complete"
)

func (f FlowState) Valid() bool {
	switch f {
	case ScreenWelcome, ScreenBusiness, ScreenGoals, ScreenMetrics, ScreenVerdict, ScreenSoftProbe,
		ScreenPlan, ScreenCAC, ScreenUnitEconomics, ScreenOffers, ScreenComplete:
		return true
	}
	return false
}

// Business is everything the founder has told us.
type Business struct {
	Name            string                     `json:"name,omitempty"`
	Goals           diagnostic.GoalData        `json:"goals"`
	Metrics         diagnostic.AuditMetrics    `json:"metrics"`
	CAC             economics.CACInputs        `json:"cac"`
	Pricing         economics.Pricing          `json:"pricing"`
	RetentionMonths float64                    `json:"retention_months"`
	RetentionSource economics.AssumptionSource `json:"retention_source,omitempty"`
	Offers          []offers.Offer             `json:"offers,omitempty"`
	Survey          offers.Survey              `json:"survey"`
}

// State is the persisted wizard session. Schema tracks the layout; Version
// increases on every applied command.
type State struct {
	Schema       int                       `json:"schema"`
	Version      int64                     `json:"version"`
	ID           string                    `json:"id"`
	Screen       FlowState                 `json:"screen"`
	Business     Business                  `json:"business"`
	VerdictID    string                    `json:"verdict_id,omitempty"`
	Verdict      *diagnostic.Verdict       `json:"verdict,omitempty"`
	Prescription *diagnostic.Prescription  `json:"prescription,omitempty"`
	SkipCount    int                       `json:"skip_count"`
	Plan         *diagnostic.GeneratedPlan `json:"plan,omitempty"`
	CreatedAt    time.Time                 `json:"created_at"`
	UpdatedAt    time.Time                 `json:"updated_at"`
}

func New(id string, now time.Time) State {
	return State{
		Schema:    SchemaVersion,
		ID:        id,
		Screen:    ScreenWelcome,
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}
}
