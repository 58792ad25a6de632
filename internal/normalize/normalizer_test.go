// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/photoscan/internal/render"
	"github.com/pdiddy/photoscan/pkg/types"
)

// fakeRasterizer serves a PDF whose pages are scripted. failPages lists
// page indexes that fail to render.
type fakeRasterizer struct {
	pages     int
	failPages map[int]bool
	openErr   error
	opened    []byte
	closed    bool
}

func (f *fakeRasterizer) Open(data []byte) (PagedDocument, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	f.opened = data
	return f, nil
}

func (f *fakeRasterizer) NumPage() int { return f.pages }

func (f *fakeRasterizer) Page(i int, _ float64) (image.Image, error) {
	if f.failPages[i] {
		return nil, errors.New("cannot render")
	}
	// Width encodes the page index so tests can check order.
	return image.NewRGBA(image.Rect(0, 0, 10+i, 20)), nil
}

func (f *fakeRasterizer) Close() error {
	f.closed = true
	return nil
}

type fakeRenderer struct {
	got   render.Source
	size  types.PageSize
	out   []byte
	err   error
	block chan struct{}
	calls int
}

func (f *fakeRenderer) Render(ctx context.Context, src render.Source, size types.PageSize) ([]byte, error) {
	f.calls++
	f.got = src
	f.size = size
	if f.block != nil {
		<-f.block
	}
	return f.out, f.err
}

func collect(t *testing.T, seq func(func(Page) bool)) []Page {
	t.Helper()
	var pages []Page
	for p := range seq {
		pages = append(pages, p)
	}
	return pages
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.White)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// textPDF builds a PDF with one page of text per entry at the given page
// size in points.
func textPDF(t *testing.T, w, h float64, lines ...string) []byte {
	t.Helper()
	pdf := fpdf.NewCustom(&fpdf.InitType{UnitStr: "pt", Size: fpdf.SizeType{Wd: w, Ht: h}})
	pdf.SetFont("Helvetica", "", 12)
	for _, line := range lines {
		pdf.AddPage()
		pdf.Text(72, 72, line)
	}
	var buf bytes.Buffer
	require.NoError(t, pdf.Output(&buf))
	return buf.Bytes()
}

func pageDims(t *testing.T, pdf []byte) [][2]float64 {
	t.Helper()
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	dims, err := api.PageDims(bytes.NewReader(pdf), conf)
	require.NoError(t, err)
	out := make([][2]float64, len(dims))
	for i, d := range dims {
		out[i] = [2]float64{d.Width, d.Height}
	}
	return out
}

func TestDetect(t *testing.T) {
	pngData := pngBytes(t, 2, 2)

	tests := []struct {
		name string
		file string
		data []byte
		want types.InputKind
	}{
		{"pdf magic", "scan.bin", []byte("%PDF-1.7\n..."), types.KindPDF},
		{"pdf magic after junk", "x", append([]byte("\xef\xbb\xbf\n"), []byte("%PDF-1.4")...), types.KindPDF},
		{"pdf after whitespace", "notes.txt", []byte(" \r\n%PDF-1.7\n"), types.KindPDF},
		{"pdf magic quoted in text", "notes.txt", []byte("Every file starts with a header like %PDF-1.7 followed by objects."), types.KindRasterizable},
		{"pdf magic quoted in html", "page.html", []byte("<p>%PDF-1.4</p>"), types.KindRasterizable},
		{"pdf magic after junk unknown name", "blob.bin", []byte("garbage\n%PDF-1.4"), types.KindPDF},
		{"pdf extension", "Report.PDF", nil, types.KindPDF},
		{"png content wrong name", "photo.txt", pngData, types.KindImage},
		{"image extension", "photo.heic.jpg", []byte{0x00}, types.KindImage},
		{"docx", "memo.docx", []byte("PK\x03\x04"), types.KindRasterizable},
		{"markdown", "notes.md", []byte("# hi"), types.KindRasterizable},
		{"html by content", "page", []byte("<!DOCTYPE html><html><body>x</body></html>"), types.KindRasterizable},
		{"unknown", "archive.zip", []byte("PK\x03\x04"), types.KindUnsupported},
		{"empty", "", nil, types.KindUnsupported},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Detect(tt.file, tt.data))
		})
	}
}

func TestNormalizePDFSkipsFailedPage(t *testing.T) {
	r := &fakeRasterizer{pages: 3, failPages: map[int]bool{1: true}}
	n := New(r, nil, zerolog.Nop())

	seq, err := n.Normalize(context.Background(), Source{Name: "three.pdf", Data: []byte("%PDF-1.4")})
	require.NoError(t, err)

	pages := collect(t, seq)
	require.Len(t, pages, 3)

	assert.Equal(t, 10, pages[0].Image.Bounds().Dx())
	assert.Nil(t, pages[1].Image)
	assert.ErrorIs(t, pages[1].Err, types.ErrRenderFailure)
	assert.Equal(t, 12, pages[2].Image.Bounds().Dx())
	assert.True(t, r.closed, "document should be closed after iteration")
}

func TestNormalizePDFOpenFailure(t *testing.T) {
	n := New(&fakeRasterizer{openErr: errors.New("broken xref")}, nil, zerolog.Nop())

	seq, err := n.Normalize(context.Background(), Source{Name: "bad.pdf", Data: []byte("%PDF-")})
	assert.Nil(t, seq)
	assert.ErrorIs(t, err, types.ErrRenderFailure)
}

func TestNormalizeEarlyBreakClosesDocument(t *testing.T) {
	r := &fakeRasterizer{pages: 5}
	n := New(r, nil, zerolog.Nop())

	seq, err := n.Normalize(context.Background(), Source{Name: "five.pdf", Data: []byte("%PDF-")})
	require.NoError(t, err)
	for range seq {
		break
	}
	assert.True(t, r.closed)
}

func TestNormalizePDFCancelledBetweenPages(t *testing.T) {
	r := &fakeRasterizer{pages: 3}
	n := New(r, nil, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	seq, err := n.Normalize(ctx, Source{Name: "three.pdf", Data: []byte("%PDF-")})
	require.NoError(t, err)

	var pages []Page
	for p := range seq {
		pages = append(pages, p)
		cancel()
	}
	require.Len(t, pages, 2)
	assert.NotNil(t, pages[0].Image)
	assert.ErrorIs(t, pages[1].Err, context.Canceled)
}

func TestNormalizeImagePassthrough(t *testing.T) {
	n := New(nil, nil, zerolog.Nop())

	seq, err := n.Normalize(context.Background(), Source{Name: "photo.png", Data: pngBytes(t, 7, 9)})
	require.NoError(t, err)

	pages := collect(t, seq)
	require.Len(t, pages, 1)
	assert.Equal(t, image.Rect(0, 0, 7, 9), pages[0].Image.Bounds())
}

func TestNormalizeCorruptImage(t *testing.T) {
	n := New(nil, nil, zerolog.Nop())

	_, err := n.Normalize(context.Background(), Source{Name: "photo.jpg", Data: []byte("garbage")})
	assert.ErrorIs(t, err, types.ErrCodec)
}

func TestNormalizeUnsupported(t *testing.T) {
	renderer := &fakeRenderer{}
	n := New(&fakeRasterizer{}, renderer, zerolog.Nop())

	_, err := n.Normalize(context.Background(), Source{Name: "archive.zip", Data: []byte("PK")})
	assert.ErrorIs(t, err, types.ErrUnsupportedFormat)
	assert.Zero(t, renderer.calls)
}

func TestNormalizeRasterizableRendersThenRasterizes(t *testing.T) {
	r := &fakeRasterizer{pages: 2}
	renderer := &fakeRenderer{out: textPDF(t, 595.28, 841.89, "one", "two")}
	n := New(r, renderer, zerolog.Nop())

	seq, err := n.Normalize(context.Background(), Source{Name: "memo.docx", Data: []byte("PK")})
	require.NoError(t, err)

	assert.Len(t, collect(t, seq), 2)
	assert.Equal(t, 1, renderer.calls)
	assert.Equal(t, types.A4, renderer.size)
	assert.Equal(t, "memo.docx", renderer.got.Name)
	assert.Empty(t, renderer.got.ContentType)
	assert.Len(t, pageDims(t, r.opened), 2)
}

func TestNormalizeRenderedPagesForcedToA4(t *testing.T) {
	r := &fakeRasterizer{pages: 2}
	// The renderer ignores the requested size and lays out on US Letter.
	renderer := &fakeRenderer{out: textPDF(t, 612, 792, "page one", "page two")}
	n := New(r, renderer, zerolog.Nop())

	_, err := n.Normalize(context.Background(), Source{Name: "memo.docx", Data: []byte("PK")})
	require.NoError(t, err)

	dims := pageDims(t, r.opened)
	require.Len(t, dims, 2)
	for _, d := range dims {
		assert.InDelta(t, types.A4.Width, d[0], 1)
		assert.InDelta(t, types.A4.Height, d[1], 1)
	}
}

func TestNormalizeRenderedPDFUnreadable(t *testing.T) {
	renderer := &fakeRenderer{out: []byte("%PDF-not really")}
	n := New(&fakeRasterizer{pages: 1}, renderer, zerolog.Nop())

	seq, err := n.Normalize(context.Background(), Source{Name: "memo.docx", Data: []byte("PK")})
	assert.Nil(t, seq)
	assert.ErrorIs(t, err, types.ErrRenderFailure)
}

func TestNormalizeMarkdownBecomesHTML(t *testing.T) {
	renderer := &fakeRenderer{out: textPDF(t, 595.28, 841.89, "notes")}
	n := New(&fakeRasterizer{pages: 1}, renderer, zerolog.Nop())

	_, err := n.Normalize(context.Background(), Source{Name: "notes.md", Data: []byte("# Title\n\n| a | b |\n|---|---|\n| 1 | 2 |\n")})
	require.NoError(t, err)

	assert.Equal(t, "notes.html", renderer.got.Name)
	assert.Contains(t, renderer.got.ContentType, "text/html")
	assert.Contains(t, string(renderer.got.Data), "<h1>Title</h1>")
	assert.Contains(t, string(renderer.got.Data), "<table>")
}

func TestNormalizeHTMLIsLabelled(t *testing.T) {
	page := []byte("<!DOCTYPE html><html><body><h1>Home</h1></body></html>")

	tests := []struct {
		name     string
		file     string
		wantName string
	}{
		{"sniffed without extension", "example.com", "example.com.html"},
		{"sniffed with no dot", "index", "index.html"},
		{"html extension", "Page.HTM", "Page.HTM"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			renderer := &fakeRenderer{out: textPDF(t, 595.28, 841.89, "home")}
			n := New(&fakeRasterizer{pages: 1}, renderer, zerolog.Nop())

			_, err := n.Normalize(context.Background(), Source{Name: tt.file, Data: page})
			require.NoError(t, err)

			assert.Equal(t, tt.wantName, renderer.got.Name)
			assert.Equal(t, "text/html; charset=utf-8", renderer.got.ContentType)
		})
	}
}

func TestKnownExtension(t *testing.T) {
	assert.True(t, KnownExtension("a.PDF"))
	assert.True(t, KnownExtension("memo.docx"))
	assert.True(t, KnownExtension("photo.jpeg"))
	assert.False(t, KnownExtension("example.com"))
	assert.False(t, KnownExtension("127.0.0.1:8080"))
	assert.False(t, KnownExtension("README"))
}

func TestNormalizeRendererFailure(t *testing.T) {
	n := New(&fakeRasterizer{pages: 1}, &fakeRenderer{err: errors.New("load error")}, zerolog.Nop())

	seq, err := n.Normalize(context.Background(), Source{Name: "memo.odt", Data: []byte("x")})
	assert.Nil(t, seq)
	assert.ErrorIs(t, err, types.ErrRenderFailure)

	n.Renderer = nil
	_, err = n.Normalize(context.Background(), Source{Name: "memo.odt", Data: []byte("x")})
	assert.ErrorIs(t, err, types.ErrRenderFailure)
}

func TestNormalizeCancelledWhileRendering(t *testing.T) {
	renderer := &fakeRenderer{out: []byte("%PDF-"), block: make(chan struct{})}
	defer close(renderer.block)
	n := New(&fakeRasterizer{pages: 1}, renderer, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := n.Normalize(ctx, Source{Name: "slow.docx", Data: []byte("x")})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
