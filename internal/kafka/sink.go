package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/mdrashedmamun/smb-coaching-ai/internal/diagnostic"
	"github.com/mdrashedmamun/smb-coaching-ai/internal/syncer"
)

const (
	EventVerdictRecorded = "audit.verdict.recorded"
	EventPlanGenerated   = "audit.plan.generated"
)

// Event is the message body published for each synced audit record.
type Event struct {
	EventID        string                     `json:"event_id"`
	Type           string                     `json:"type"`
	VerdictID      string                     `json:"verdict_id"`
	SessionID      string                     `json:"session_id,omitempty"`
	Bottleneck     diagnostic.BottleneckType  `json:"bottleneck"`
	SoftBottleneck *diagnostic.SoftBottleneck `json:"soft_bottleneck,omitempty"`
	Verdict        diagnostic.Verdict         `json:"verdict"`
	Plan           *diagnostic.GeneratedPlan  `json:"plan,omitempty"`
	OccurredAt     time.Time                  `json:"occurred_at"`
}

// VerdictSink publishes audit records keyed by verdict id, so every event for
// one audit lands on the same partition.
type VerdictSink struct {
	producer Producer
	newID    func() string
}

func NewVerdictSink(p Producer) *VerdictSink {
	return &VerdictSink{producer: p, newID: func() string { return uuid.NewString() }}
}

func (s *VerdictSink) Name() string { return "kafka" }

func (s *VerdictSink) Write(ctx context.Context, rec syncer.Record) error {
	ev := Event{
		EventID:        s.newID(),
		Type:           EventVerdictRecorded,
		VerdictID:      rec.VerdictID,
		SessionID:      rec.SessionID,
		Bottleneck:     rec.Verdict.Bottleneck,
		SoftBottleneck: rec.Verdict.SoftBottleneck,
		Verdict:        rec.Verdict,
		Plan:           rec.Plan,
		OccurredAt:     rec.At.UTC(),
	}
	if rec.Kind == syncer.KindPlan {
		ev.Type = EventPlanGenerated
	}
	blob, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return s.producer.Send(ctx, []byte(rec.VerdictID), blob)
}
