package report

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// PDFRenderer turns a rendered HTML report into PDF bytes.
type PDFRenderer interface {
	Render(ctx context.Context, htmlDoc string) ([]byte, error)
}

// PageLayout is the printed page geometry in inches.
type PageLayout struct {
	Width, Height            float64
	Top, Bottom, Left, Right float64
	// Footer is printed on every page; empty prints page numbers only.
	Footer string
}

var (
	A4Layout     = PageLayout{Width: 8.27, Height: 11.69, Top: 0.5, Bottom: 0.75, Left: 0.45, Right: 0.45}
	LetterLayout = PageLayout{Width: 8.5, Height: 11, Top: 0.5, Bottom: 0.75, Left: 0.5, Right: 0.5}
)

// LayoutByName maps a paper name ("a4" or "letter") to its layout.
func LayoutByName(name string) (PageLayout, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "a4":
		return A4Layout, nil
	case "letter":
		return LetterLayout, nil
	default:
		return PageLayout{}, fmt.Errorf("unknown paper size %q", name)
	}
}

func (l PageLayout) footerTemplate() string {
	label := ""
	if l.Footer != "" {
		label = l.Footer + " &middot; "
	}
	return `<div style="width:100%;text-align:center;font-size:9px;color:#666;">` + label +
		`Page <span class="pageNumber"></span> of <span class="totalPages"></span></div>`
}

func (l PageLayout) printParams() *page.PrintToPDFParams {
	return page.PrintToPDF().
		WithPrintBackground(true).
		WithDisplayHeaderFooter(true).
		WithHeaderTemplate(`<div></div>`).
		WithFooterTemplate(l.footerTemplate()).
		WithPaperWidth(l.Width).
		WithPaperHeight(l.Height).
		WithMarginTop(l.Top).
		WithMarginBottom(l.Bottom).
		WithMarginLeft(l.Left).
		WithMarginRight(l.Right)
}

type ChromiumPDFRenderer struct {
	chromePath string
	timeout    time.Duration
	layout     PageLayout
}

// NewChromiumPDFRenderer uses chromePath when set, otherwise the first
// Chromium found in the usual locations. Pages are A4 until WithLayout.
func NewChromiumPDFRenderer(chromePath string) *ChromiumPDFRenderer {
	if chromePath == "" {
		chromePath = detectChromePath()
	}
	return &ChromiumPDFRenderer{chromePath: chromePath, timeout: 30 * time.Second, layout: A4Layout}
}

func (r *ChromiumPDFRenderer) WithLayout(l PageLayout) *ChromiumPDFRenderer {
	cp := *r
	cp.layout = l
	return &cp
}

// Available reports whether a Chromium binary was found.
func (r *ChromiumPDFRenderer) Available() bool {
	return r.chromePath != ""
}

func (r *ChromiumPDFRenderer) Render(ctx context.Context, htmlDoc string) ([]byte, error) {
	if !r.Available() {
		return nil, ErrPDFUnavailable
	}
	timeoutCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	browserCtx, closeBrowser := r.newBrowser(timeoutCtx)
	defer closeBrowser()

	var pdf []byte
	dataURL := "data:text/html;base64," + base64.StdEncoding.EncodeToString([]byte(htmlDoc))
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(dataURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) (err error) {
			pdf, _, err = r.layout.printParams().Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("print pdf: %w", err)
	}
	return pdf, nil
}

// newBrowser starts a headless Chromium tab bound to ctx. The returned func
// closes the tab and then the browser process.
func (r *ChromiumPDFRenderer) newBrowser(ctx context.Context) (context.Context, func()) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.ExecPath(r.chromePath),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)
	return tabCtx, func() {
		tabCancel()
		allocCancel()
	}
}

func detectChromePath() string {
	for _, p := range []string{"/usr/bin/chromium-browser", "/usr/bin/chromium", "/usr/bin/google-chrome"} {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
