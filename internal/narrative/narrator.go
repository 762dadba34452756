package narrative

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/mdrashedmamun/smb-coaching-ai/internal/diagnostic"
)

// Input is what a narrator sees: the verdict and, once the founder named a
// blocker, the generated plan.
type Input struct {
	Verdict diagnostic.Verdict
	Plan    *diagnostic.GeneratedPlan
}

// Narrator writes the short coach's note shown under a plan.
type Narrator interface {
	Narrate(ctx context.Context, in Input) (string, error)
}

// TemplateNarrator builds the note from fixed text. It never fails.
type TemplateNarrator struct{}

func (TemplateNarrator) Narrate(_ context.Context, in Input) (string, error) {
	v := in.Verdict
	var b strings.Builder
	fmt.Fprintf(&b, "Your bottleneck this week is %s. ", strings.ToLower(diagnostic.BottleneckLabel(v.Bottleneck)))
	fmt.Fprintf(&b, "The one thing to do: %s (%d).", strings.TrimRight(v.Prescription.Action, "."), v.Prescription.Quantity)
	if in.Plan != nil {
		fmt.Fprintf(&b, " %s", in.Plan.Headline)
		if in.Plan.MissingCalls > 0 {
			fmt.Fprintf(&b, " Closing the gap of %d calls is worth about $%.0f.", in.Plan.MissingCalls, in.Plan.LostRevenue)
		}
	}
	if v.Model.Gap > 0 && !v.Model.IsSustainable {
		fmt.Fprintf(&b, " At your current price the goal needs %d clients, more than the %d you can serve.", v.Model.ClientsNeededAtCurrentPrice, v.Goals.MaxClients)
	}
	return b.String(), nil
}

// Fallback uses Primary and falls back to a template note when it fails.
type Fallback struct {
	Primary  Narrator
	Fallback Narrator
}

func NewFallback(primary Narrator) *Fallback {
	return &Fallback{Primary: primary, Fallback: TemplateNarrator{}}
}

func (f *Fallback) Narrate(ctx context.Context, in Input) (string, error) {
	if f.Primary != nil {
		text, err := f.Primary.Narrate(ctx, in)
		if err == nil && strings.TrimSpace(text) != "" {
			return strings.TrimSpace(text), nil
		}
		if err != nil {
			log.Warn().Err(err).Str("bottleneck", string(in.Verdict.Bottleneck)).Msg("narrator failed, using template")
		}
	}
	return f.Fallback.Narrate(ctx, in)
}
