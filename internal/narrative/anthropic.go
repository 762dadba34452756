package narrative

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/mdrashedmamun/smb-coaching-ai/internal/diagnostic"
)

const systemPrompt = "You are a blunt, encouraging business coach for solo founders. " +
	"Write a coach's note of at most 120 words in plain prose, no headings or lists. " +
	"Use only the numbers you are given. Do not change the diagnosis or the prescribed quantity."

const maxAttempts = 2

type failureClass int

const (
	failureTimeout failureClass = iota + 1
	failureRateLimit
	failureServer
	failureClient
)

type AnthropicMessager interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

type AnthropicClientCreator func(apiKey string) AnthropicMessager

func defaultAnthropicCreator(apiKey string) AnthropicMessager {
	c := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &c.Messages
}

var newAnthropicClient AnthropicClientCreator = defaultAnthropicCreator

// AnthropicNarrator asks Claude for the coach's note.
type AnthropicNarrator struct {
	messages  AnthropicMessager
	model     anthropic.Model
	maxTokens int64
	sleep     func(time.Duration)
}

func NewAnthropicNarrator(apiKey, model string) (*AnthropicNarrator, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("ANTHROPIC_API_KEY not configured")
	}
	m := anthropic.Model(model)
	if model == "" {
		m = anthropic.ModelClaudeSonnet4_20250514
	}
	return &AnthropicNarrator{
		messages:  newAnthropicClient(apiKey),
		model:     m,
		maxTokens: 400,
		sleep:     time.Sleep,
	}, nil
}

func NewAnthropicNarratorFromEnv(model string) (*AnthropicNarrator, error) {
	return NewAnthropicNarrator(os.Getenv("ANTHROPIC_API_KEY"), model)
}

func (a *AnthropicNarrator) Narrate(ctx context.Context, in Input) (string, error) {
	prompt := buildPrompt(in)
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		resp, err := a.messages.New(ctx, anthropic.MessageNewParams{
			Model:       a.model,
			MaxTokens:   a.maxTokens,
			System:      []anthropic.TextBlockParam{{Text: systemPrompt}},
			Messages:    []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(prompt))},
			Temperature: anthropic.Float(0.3),
		})
		if err != nil {
			lastErr = err
			class := classifyTransportError(err)
			if attempt < maxAttempts && (class == failureTimeout || class == failureRateLimit || class == failureServer) {
				a.sleep(backoffDelay(attempt))
				continue
			}
			return "", fmt.Errorf("narrate: %w", err)
		}
		var sb strings.Builder
		for _, b := range resp.Content {
			if b.Type == "text" {
				sb.WriteString(b.Text)
			}
		}
		text := strings.TrimSpace(sb.String())
		if text == "" {
			return "", errors.New("narrate: empty response")
		}
		return text, nil
	}
	return "", fmt.Errorf("narrate: %w", lastErr)
}

func buildPrompt(in Input) string {
	v := in.Verdict
	var b strings.Builder
	fmt.Fprintf(&b, "Bottleneck: %s\n", diagnostic.BottleneckLabel(v.Bottleneck))
	fmt.Fprintf(&b, "Last %d days: %d outreach, %d responses, %d sales calls, %d clients closed\n",
		windowDays(v.Metrics), v.Metrics.TotalOutreach, v.Metrics.TotalResponses, v.Metrics.SalesCalls, v.Metrics.ClientsClosed)
	fmt.Fprintf(&b, "Revenue: $%.0f now, goal $%.0f, price $%.0f per client, capacity %d clients\n",
		v.Goals.CurrentRevenue, v.Goals.RevenueGoal, v.Goals.PricePerClient, v.Goals.MaxClients)
	fmt.Fprintf(&b, "Prescription: %s, quantity %d\n", v.Prescription.Action, v.Prescription.Quantity)
	if v.SoftBottleneck != nil {
		fmt.Fprintf(&b, "Self-reported blocker: %s\n", *v.SoftBottleneck)
	}
	if in.Plan != nil {
		fmt.Fprintf(&b, "Plan headline: %s\n", in.Plan.Headline)
		for _, d := range in.Plan.Days {
			fmt.Fprintf(&b, "Day %d: %s\n", d.Day, d.Title)
		}
	}
	b.WriteString("\nWrite the coach's note.")
	return b.String()
}

func windowDays(m diagnostic.AuditMetrics) int {
	if m.WindowDays > 0 {
		return m.WindowDays
	}
	return diagnostic.DefaultWindowDays
}

func classifyTransportError(err error) failureClass {
	msg := strings.ToLower(err.Error())
	if errors.Is(err, context.DeadlineExceeded) {
		return failureTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return failureTimeout
	}
	switch {
	case strings.Contains(msg, "429"):
		return failureRateLimit
	case strings.Contains(msg, "status code: 5") || strings.Contains(msg, "status=5") || strings.Contains(msg, "server error"):
		return failureServer
	case strings.Contains(msg, "status code: 4") || strings.Contains(msg, "status=4"):
		return failureClient
	default:
		return failureServer
	}
}

func backoffDelay(attempt int) time.Duration {
	if attempt <= 1 {
		return 1 * time.Second
	}
	return 2 * time.Second
}
