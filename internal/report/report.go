package report

import (
	"context"
	"errors"
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/mdrashedmamun/smb-coaching-ai/internal/diagnostic"
	"github.com/mdrashedmamun/smb-coaching-ai/internal/economics"
)

var ErrPDFUnavailable = errors.New("pdf rendering is not configured")

type Format string

const (
	FormatMarkdown Format = "md"
	FormatHTML     Format = "html"
	FormatPDF      Format = "pdf"
)

func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "md", "markdown":
		return FormatMarkdown, nil
	case "html":
		return FormatHTML, nil
	case "pdf":
		return FormatPDF, nil
	}
	return "", fmt.Errorf("unknown report format %q", s)
}

func (f Format) ContentType() string {
	switch f {
	case FormatHTML:
		return "text/html; charset=utf-8"
	case FormatPDF:
		return "application/pdf"
	default:
		return "text/markdown; charset=utf-8"
	}
}

// Document is everything a rendered audit report can show. Economics and
// UnitEconomics are optional.
type Document struct {
	AuditID     string
	CompletedAt time.Time
	Verdict     diagnostic.Verdict
	Plan        *diagnostic.GeneratedPlan
	Narrative   string

	Economics     *economics.CACPaybackResult
	UnitEconomics *economics.UnitEconomicsResult
}

func Markdown(doc Document) string {
	out := diagnostic.BuildMarkdown(diagnostic.ReportInput{
		AuditID:     doc.AuditID,
		CompletedAt: doc.CompletedAt,
		Verdict:     doc.Verdict,
		Plan:        doc.Plan,
		Narrative:   doc.Narrative,
	})
	if doc.Economics != nil {
		out = strings.TrimRight(out, "\n") + "\n\n" + economics.BuildMarkdown(*doc.Economics, doc.UnitEconomics)
	}
	return out
}

// HTML renders the report as a standalone page.
func HTML(doc Document) (string, error) {
	var content strings.Builder
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	if err := md.Convert([]byte(Markdown(doc)), &content); err != nil {
		return "", fmt.Errorf("markdown convert: %w", err)
	}
	contentHTML := applyPrintLayoutHooks(content.String())

	return "<!doctype html><html><head><meta charset='utf-8'><title>Bottleneck Audit</title>" +
		"<style>" + reportCSS + "</style></head><body>" +
		"<div class='report-wrap'><div class='report-header'>" + buildBadgeHTML(doc) + "</div>" +
		"<div class='report-html'>" + contentHTML + "</div></div>" +
		"</body></html>", nil
}

// Render produces the report bytes in the requested format. pdf may be nil
// unless format is FormatPDF.
func Render(ctx context.Context, doc Document, format Format, pdf PDFRenderer) ([]byte, error) {
	switch format {
	case FormatMarkdown:
		return []byte(Markdown(doc)), nil
	case FormatHTML:
		h, err := HTML(doc)
		if err != nil {
			return nil, err
		}
		return []byte(h), nil
	case FormatPDF:
		if pdf == nil {
			return nil, ErrPDFUnavailable
		}
		h, err := HTML(doc)
		if err != nil {
			return nil, err
		}
		out, err := pdf.Render(ctx, h)
		if err != nil {
			return nil, fmt.Errorf("render pdf: %w", err)
		}
		return out, nil
	}
	return nil, fmt.Errorf("unknown report format %q", format)
}

var (
	reHowItWorks = regexp.MustCompile(`(?i)<h2([^>]*)>\s*How This Audit Works\s*</h2>`)
	reDayHeading = regexp.MustCompile(`(?i)<h3([^>]*)>\s*(Day\s+[0-9]+:[^<]*)\s*</h3>`)
)

func applyPrintLayoutHooks(contentHTML string) string {
	out := reHowItWorks.ReplaceAllString(contentHTML, `<h2$1 data-page-break-before="true">How This Audit Works</h2>`)
	out = reDayHeading.ReplaceAllString(out, `<h3$1 data-day-heading="true">$2</h3>`)
	return out
}

func buildBadgeHTML(doc Document) string {
	var out strings.Builder
	out.WriteString("<span class='report-badge'>" + html.EscapeString(diagnostic.BottleneckLabel(doc.Verdict.Bottleneck)) + "</span>")
	if doc.UnitEconomics != nil {
		label := "Not fundable"
		if doc.UnitEconomics.Fundability.IsFundable {
			label = "Fundable"
		}
		if doc.UnitEconomics.Fundability.IsScenario {
			label += " (scenario)"
		}
		out.WriteString("<span class='report-badge'>" + html.EscapeString(label) + "</span>")
	}
	return out.String()
}

const reportCSS = "html,body,*{-webkit-print-color-adjust:exact !important;print-color-adjust:exact !important;} " +
	"body{font-family:Georgia,serif;color:#1c1917;background:#fff;padding:0.6rem;} " +
	".report-wrap{max-width:900px;margin:0 auto;} " +
	".report-badge{display:inline-block;margin-right:0.4rem;padding:0.1rem 0.5rem;background:#fef3c7;color:#78350f;border:1px solid #fcd34d;border-radius:4px;font-size:0.8rem;} " +
	".report-html table{width:100%;border-collapse:collapse;border:1px solid #a8a29e;font-size:0.85rem;} " +
	".report-html th,.report-html td{border:1px solid #a8a29e;padding:0.35rem 0.45rem;text-align:left;vertical-align:top;} " +
	".report-html thead th{background:#f1f5f9;font-weight:700;} " +
	".report-html h3[data-day-heading='true']{border-bottom:1px solid #d6d3d1;padding-bottom:0.2rem;} " +
	`h2[data-page-break-before="true"]{break-before:page;page-break-before:always;} ` +
	"@media print{ @page{size:auto;margin:12mm;} body{padding:0;} .report-wrap{max-width:none;} }"
