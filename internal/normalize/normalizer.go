// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package normalize turns heterogeneous inputs into an ordered sequence of
// page images. PDFs are rasterized page by page, flat documents go through
// an external renderer to PDF first, and images pass through unchanged.
package normalize

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"iter"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/pdiddy/photoscan/internal/render"
	"github.com/pdiddy/photoscan/pkg/types"
)

// DefaultDPI is the rasterization resolution when none is configured.
const DefaultDPI = 150

var pdfMagic = []byte("%PDF-")

// Source is one input to normalize.
type Source struct {
	Name string
	Data []byte

	// Kind overrides detection when set.
	Kind types.InputKind
}

// Page is one element of a normalized sequence. Exactly one of Image and
// Err is set; a page with Err failed on its own and the rest of the
// sequence is still valid.
type Page struct {
	Index int
	Image image.Image
	Err   error
}

// Rasterizer opens PDF bytes for page rendering.
type Rasterizer interface {
	Open(data []byte) (PagedDocument, error)
}

// PagedDocument is an open PDF.
type PagedDocument interface {
	NumPage() int
	Page(index int, dpi float64) (image.Image, error)
	Close() error
}

// Normalizer dispatches on input kind. It holds no per-job state and one
// value can serve concurrent jobs.
type Normalizer struct {
	Rasterizer Rasterizer
	Renderer   render.Renderer
	PageSize   types.PageSize
	DPI        float64
	Logger     zerolog.Logger
}

// New returns a Normalizer with A4 rendering at DefaultDPI. renderer may be
// nil, in which case flat documents fail with ErrRenderFailure.
func New(r Rasterizer, renderer render.Renderer, log zerolog.Logger) *Normalizer {
	return &Normalizer{
		Rasterizer: r,
		Renderer:   renderer,
		PageSize:   types.A4,
		DPI:        DefaultDPI,
		Logger:     log.With().Str("component", "normalize").Logger(),
	}
}

// Normalize returns the pages of src in source order. Job-level failures
// (unsupported input, a PDF that will not open, a renderer error,
// cancellation while rendering) come back as the error with no sequence.
//
// For PDFs the returned sequence owns an open document that is released
// when iteration finishes, so callers must range over it exactly once.
// Iteration stops with a final Page carrying ctx.Err() if ctx is cancelled
// between pages.
func (n *Normalizer) Normalize(ctx context.Context, src Source) (iter.Seq[Page], error) {
	kind := src.Kind
	if kind == "" {
		kind = Detect(src.Name, src.Data)
	}

	n.Logger.Debug().Str("source", src.Name).Str("kind", string(kind)).Msg("normalizing")

	switch kind {
	case types.KindPDF:
		return n.pdfPages(ctx, src.Name, src.Data)
	case types.KindRasterizable:
		pdf, err := n.render(ctx, src)
		if err != nil {
			return nil, err
		}
		return n.pdfPages(ctx, src.Name, pdf)
	case types.KindImage:
		img, _, err := image.Decode(bytes.NewReader(src.Data))
		if err != nil {
			return nil, fmt.Errorf("%w: decoding image %s: %v", types.ErrCodec, src.Name, err)
		}
		return func(yield func(Page) bool) {
			yield(Page{Index: 0, Image: img})
		}, nil
	default:
		return nil, fmt.Errorf("%w: %s", types.ErrUnsupportedFormat, src.Name)
	}
}

func (n *Normalizer) dpi() float64 {
	if n.DPI <= 0 {
		return DefaultDPI
	}
	return n.DPI
}

func (n *Normalizer) pdfPages(ctx context.Context, name string, data []byte) (iter.Seq[Page], error) {
	if n.Rasterizer == nil {
		return nil, fmt.Errorf("%w: no PDF rasterizer configured", types.ErrRenderFailure)
	}
	doc, err := n.Rasterizer.Open(data)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", types.ErrRenderFailure, name, err)
	}

	dpi := n.dpi()
	return func(yield func(Page) bool) {
		defer doc.Close()

		for i := range doc.NumPage() {
			if err := ctx.Err(); err != nil {
				yield(Page{Index: i, Err: err})
				return
			}

			img, err := doc.Page(i, dpi)
			if err == nil && (img == nil || img.Bounds().Empty()) {
				err = errors.New("empty raster")
			}
			if err != nil {
				n.Logger.Warn().Err(err).Str("source", name).Int("page", i).Msg("page failed to render")
				if !yield(Page{Index: i, Err: fmt.Errorf("%w: page %d of %s: %v", types.ErrRenderFailure, i, name, err)}) {
					return
				}
				continue
			}
			if !yield(Page{Index: i, Image: img}) {
				return
			}
		}
	}, nil
}

type renderResult struct {
	pdf []byte
	err error
}

// render calls the external renderer once. The call runs in its own
// goroutine so a cancelled ctx returns immediately even if the backend
// ignores it.
func (n *Normalizer) render(ctx context.Context, src Source) ([]byte, error) {
	if n.Renderer == nil {
		return nil, fmt.Errorf("%w: no document renderer configured for %s", types.ErrRenderFailure, src.Name)
	}

	rs := render.Source{Name: src.Name, Data: src.Data}
	switch {
	case isMarkdown(src.Name):
		html, err := markdownToHTML(src.Data)
		if err != nil {
			return nil, fmt.Errorf("%w: converting markdown %s: %v", types.ErrRenderFailure, src.Name, err)
		}
		rs.Name = strings.TrimSuffix(src.Name, filepath.Ext(src.Name)) + ".html"
		rs.Data = html
		rs.ContentType = htmlContentType
	case isHTMLName(src.Name):
		rs.ContentType = htmlContentType
	case !rasterizableExts[strings.ToLower(filepath.Ext(src.Name))] && looksHTML(src.Data):
		// Sniffed HTML without a usable extension, e.g. a downloaded page.
		rs.Name = src.Name + ".html"
		rs.ContentType = htmlContentType
	}

	size := n.PageSize
	if size.Width <= 0 || size.Height <= 0 {
		size = types.A4
	}

	ch := make(chan renderResult, 1)
	go func() {
		pdf, err := n.Renderer.Render(ctx, rs, size)
		ch <- renderResult{pdf: pdf, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("%w: %v", types.ErrRenderFailure, res.err)
		}
		pdf, err := fitPageSize(res.pdf, size)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", types.ErrRenderFailure, src.Name, err)
		}
		return pdf, nil
	}
}

const htmlContentType = "text/html; charset=utf-8"

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

func markdownToHTML(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\"></head><body>\n")
	if err := markdown.Convert(src, &buf); err != nil {
		return nil, err
	}
	buf.WriteString("</body></html>\n")
	return buf.Bytes(), nil
}
