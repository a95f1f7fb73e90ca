package render

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/astralhq/astral/internal/interfaces"
)

// Config controls the Chrome-backed PDF renderer.
type Config struct {
	// Timeout for a single print job; zero means 30s.
	Timeout time.Duration `json:"timeout,omitempty"`
}

// ChromePDF implements interfaces.PDFRenderer by printing the document in a
// headless Chrome tab. Rendering is slow and fallible; callers degrade to
// HTML-only output on error.
type ChromePDF struct {
	cfg Config
}

// NewChromePDF creates a ChromePDF renderer.
func NewChromePDF(cfg Config) *ChromePDF {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &ChromePDF{cfg: cfg}
}

// Render prints html to PDF bytes.
func (c *ChromePDF) Render(ctx context.Context, html string, opts interfaces.PDFOptions) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	ctx, cancelTab := chromedp.NewContext(ctx)
	defer cancelTab()

	dataURL := "data:text/html;base64," + base64.StdEncoding.EncodeToString([]byte(html))

	var pdf []byte
	err := chromedp.Run(ctx,
		chromedp.Navigate(dataURL),
		chromedp.ActionFunc(func(ctx context.Context) error {
			params := page.PrintToPDF().
				WithPrintBackground(true).
				WithLandscape(opts.Landscape)
			if opts.PaperWidth > 0 {
				params = params.WithPaperWidth(opts.PaperWidth)
			}
			if opts.PaperHeight > 0 {
				params = params.WithPaperHeight(opts.PaperHeight)
			}
			buf, _, err := params.Do(ctx)
			if err != nil {
				return err
			}
			pdf = buf
			return nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("printing PDF: %w", err)
	}
	return pdf, nil
}

// Close implements interfaces.PDFRenderer. Tabs are per-render, so there is
// nothing held open between calls.
func (c *ChromePDF) Close() error { return nil }
