package interfaces

import "context"

// PDFOptions control page geometry for PDF materialization.
type PDFOptions struct {
	Landscape bool
	// PaperWidth/PaperHeight are in inches; zero means the backend default.
	PaperWidth  float64
	PaperHeight float64
}

// PDFRenderer rasterizes a rendered HTML document into a PDF artifact.
// Renderers are fallible and potentially slow; callers must treat failure as
// a degraded (HTML-only) result, never a fatal one.
type PDFRenderer interface {
	Render(ctx context.Context, html string, opts PDFOptions) ([]byte, error)

	Close() error
}
