package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/mdrashedmamun/smb-coaching-ai/internal/diagnostic"
	"github.com/mdrashedmamun/smb-coaching-ai/internal/economics"
	"github.com/mdrashedmamun/smb-coaching-ai/internal/offers"
)

var (
	ErrUnknownCommand  = errors.New("unknown command")
	ErrMissingPayload  = errors.New("command payload missing")
	ErrNoVerdict       = errors.New("no verdict yet; submit the audit first")
	ErrInvalidScreen   = errors.New("invalid screen")
	ErrVersionConflict = errors.New("session version conflict")
	ErrUnknownOffer    = errors.New("unknown offer")
	ErrSchemaMismatch  = errors.New("unsupported session schema")
)

type CommandType string

const (
	CmdSetScreen          CommandType = "set_screen"
	CmdUpdateGoals        CommandType = "update_goals"
	CmdUpdateMetrics      CommandType = "update_metrics"
	CmdUpdateCAC          CommandType = "update_cac"
	CmdUpdatePricing      CommandType = "update_pricing"
	CmdSubmitAudit        CommandType = "submit_audit"
	CmdAttachSoft         CommandType = "attach_soft_bottleneck"
	CmdSkipPrescription   CommandType = "skip_prescription"
	CmdSetOffers          CommandType = "set_offers"
	CmdSelectPrimaryOffer CommandType = "select_primary_offer"
	CmdSetSurvey          CommandType = "set_survey"
	CmdReset              CommandType = "reset"
)

// Command is a tagged union: Type selects which payload field is read.
type Command struct {
	Type CommandType `json:"type" validate:"required"`

	// ExpectedVersion, when set, must equal the state's current version.
	ExpectedVersion *int64 `json:"expected_version,omitempty"`

	Screen         FlowState                 `json:"screen,omitempty"`
	Name           string                    `json:"name,omitempty"`
	Goals          *GoalsPatch               `json:"goals,omitempty"`
	Metrics        *MetricsPatch             `json:"metrics,omitempty"`
	CAC            *CACPatch                 `json:"cac,omitempty"`
	Pricing        *PricingPatch             `json:"pricing,omitempty"`
	SoftBottleneck diagnostic.SoftBottleneck `json:"soft_bottleneck,omitempty"`
	Offers         []offers.Offer            `json:"offers,omitempty"`
	OfferID        string                    `json:"offer_id,omitempty"`
	Survey         *offers.Survey            `json:"survey,omitempty"`

	// VerdictID and At are filled by the caller so Apply stays pure.
	VerdictID string    `json:"-"`
	At        time.Time `json:"-"`
}

// Apply returns the state after cmd. The input state is not modified.
func Apply(s State, cmd Command) (State, error) {
	if s.Schema != SchemaVersion {
		return s, fmt.Errorf("%w: %d", ErrSchemaMismatch, s.Schema)
	}
	if cmd.ExpectedVersion != nil && *cmd.ExpectedVersion != s.Version {
		return s, fmt.Errorf("%w: expected %d, have %d", ErrVersionConflict, *cmd.ExpectedVersion, s.Version)
	}
	next := s
	switch cmd.Type {
	case CmdSetScreen:
		if !cmd.Screen.Valid() {
			return s, fmt.Errorf("%w: %q", ErrInvalidScreen, cmd.Screen)
		}
		next.Screen = cmd.Screen
	case CmdUpdateGoals:
		if cmd.Goals == nil {
			return s, fmt.Errorf("%w: goals", ErrMissingPayload)
		}
		if cmd.Name != "" {
			next.Business.Name = cmd.Name
		}
		next.Business.Goals = MergeGoals(s.Business.Goals, *cmd.Goals)
	case CmdUpdateMetrics:
		if cmd.Metrics == nil {
			return s, fmt.Errorf("%w: metrics", ErrMissingPayload)
		}
		next.Business.Metrics = MergeMetrics(s.Business.Metrics, *cmd.Metrics)
	case CmdUpdateCAC:
		if cmd.CAC == nil {
			return s, fmt.Errorf("%w: cac", ErrMissingPayload)
		}
		next.Business.CAC = MergeCACInputs(s.Business.CAC, *cmd.CAC)
	case CmdUpdatePricing:
		if cmd.Pricing == nil {
			return s, fmt.Errorf("%w: pricing", ErrMissingPayload)
		}
		next.Business = MergePricing(s.Business, *cmd.Pricing)
	case CmdSubmitAudit:
		v := diagnostic.BuildVerdict(s.Business.Metrics, s.Business.Goals)
		rx := v.Prescription
		next.Verdict = &v
		next.VerdictID = cmd.VerdictID
		next.Prescription = &rx
		next.SkipCount = 0
		next.Plan = nil
		next.Screen = ScreenVerdict
	case CmdAttachSoft:
		if s.Verdict == nil {
			return s, ErrNoVerdict
		}
		v, err := diagnostic.AttachSoftBottleneck(*s.Verdict, cmd.SoftBottleneck)
		if err != nil {
			return s, err
		}
		plan, err := diagnostic.GeneratePlan(v.Bottleneck, cmd.SoftBottleneck, diagnostic.PlanMetricsFromVerdict(v))
		if err != nil {
			return s, err
		}
		next.Verdict = &v
		next.Plan = &plan
		next.Screen = ScreenPlan
	case CmdSkipPrescription:
		if s.Verdict == nil {
			return s, ErrNoVerdict
		}
		next.SkipCount = s.SkipCount + 1
		rx := diagnostic.GetEscalatedPrescription(s.Verdict.Prescription, next.SkipCount)
		next.Prescription = &rx
	case CmdSetOffers:
		list := make([]offers.Offer, len(cmd.Offers))
		for i, o := range cmd.Offers {
			list[i] = o.Normalize()
		}
		next.Business.Offers = list
		if s.Business.Pricing.Price == 0 {
			next.Business.Pricing = pricingFromPrimary(s.Business.Pricing, list)
		}
	case CmdSelectPrimaryOffer:
		list, ok := offers.SelectPrimary(s.Business.Offers, cmd.OfferID)
		if !ok {
			return s, fmt.Errorf("%w: %q", ErrUnknownOffer, cmd.OfferID)
		}
		next.Business.Offers = list
		next.Business.Pricing = pricingFromPrimary(s.Business.Pricing, list)
	case CmdSetSurvey:
		if cmd.Survey == nil {
			return s, fmt.Errorf("%w: survey", ErrMissingPayload)
		}
		next.Business.Survey = *cmd.Survey
	case CmdReset:
		next = New(s.ID, s.CreatedAt)
	default:
		return s, fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Type)
	}
	next.Version = s.Version + 1
	if !cmd.At.IsZero() {
		next.UpdatedAt = cmd.At.UTC()
	}
	return next, nil
}

// pricingFromPrimary takes price, and margin when delivery cost is known, from
// the portfolio's primary offer.
func pricingFromPrimary(base economics.Pricing, portfolio []offers.Offer) economics.Pricing {
	p, ok := offers.PrimaryOffer(portfolio)
	if !ok || p.Price <= 0 {
		return base
	}
	base.Price = p.Price
	if p.MarginPct != nil {
		base.MarginPct = *p.MarginPct
		base.MarginSource = economics.SourceUserProvided
	}
	return base
}
