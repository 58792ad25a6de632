// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package assemble lays page images out on fixed-size pages and writes a
// single PDF, one image per page, in input order.
package assemble

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/pdiddy/photoscan/pkg/types"
)

const (
	defaultProducer = "PhotoScan Pro"
	defaultAuthor   = "User"
	defaultQuality  = 80
)

// Assembler builds PDFs. The zero value uses A4 pages, the default
// metadata strings and the wall clock.
type Assembler struct {
	PageSize types.PageSize
	Producer string
	Author   string
	Title    string

	// Quality is the JPEG quality used to embed each page, 1-100.
	Quality int

	// Clock supplies the creation date; fix it for reproducible output.
	Clock func() time.Time
}

// New returns an Assembler configured from cfg.
func New(cfg types.ExportConfig, quality int) *Assembler {
	return &Assembler{
		PageSize: types.A4,
		Producer: cfg.Producer,
		Author:   cfg.Author,
		Quality:  quality,
	}
}

func (a *Assembler) settings() (types.PageSize, string, string, int, time.Time) {
	size := a.PageSize
	if size.Width <= 0 || size.Height <= 0 {
		size = types.A4
	}
	producer := a.Producer
	if producer == "" {
		producer = defaultProducer
	}
	author := a.Author
	if author == "" {
		author = defaultAuthor
	}
	quality := a.Quality
	if quality < 1 || quality > 100 {
		quality = defaultQuality
	}
	now := time.Now
	if a.Clock != nil {
		now = a.Clock
	}
	return size, producer, author, quality, now()
}

// Assemble returns a PDF with one page per image. An empty list, an image
// without pixels, or output that fails validation returns ErrAssembly.
func (a *Assembler) Assemble(images []image.Image) ([]byte, error) {
	if len(images) == 0 {
		return nil, fmt.Errorf("%w: no pages to assemble", types.ErrAssembly)
	}

	size, producer, author, quality, created := a.settings()

	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: size.Width, Ht: size.Height},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCompression(true)
	pdf.SetProducer(producer, false)
	pdf.SetCreator(producer, false)
	pdf.SetAuthor(author, true)
	if a.Title != "" {
		pdf.SetTitle(a.Title, true)
	}
	pdf.SetCreationDate(created)
	pdf.SetCatalogSort(true)

	opts := fpdf.ImageOptions{ImageType: "JPG"}
	for i, img := range images {
		if img == nil || img.Bounds().Empty() {
			return nil, fmt.Errorf("%w: page %d has no pixels", types.ErrAssembly, i)
		}

		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, fmt.Errorf("%w: encoding page %d: %v", types.ErrAssembly, i, err)
		}

		name := fmt.Sprintf("page-%d", i)
		pdf.RegisterImageOptionsReader(name, opts, &buf)

		b := img.Bounds()
		r := Layout(float64(b.Dx()), float64(b.Dy()), size.Width, size.Height)

		pdf.AddPage()
		pdf.ImageOptions(name, r.X, r.Y, r.W, r.H, false, opts, 0, "")

		if err := pdf.Error(); err != nil {
			return nil, fmt.Errorf("%w: page %d: %v", types.ErrAssembly, i, err)
		}
	}

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, fmt.Errorf("%w: writing pdf: %v", types.ErrAssembly, err)
	}

	if err := verify(out.Bytes(), len(images)); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// verify parses the output back and checks the page count.
func verify(data []byte, want int) error {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	if err := api.Validate(bytes.NewReader(data), conf); err != nil {
		return fmt.Errorf("%w: validating output: %v", types.ErrAssembly, err)
	}
	got, err := api.PageCount(bytes.NewReader(data), conf)
	if err != nil {
		return fmt.Errorf("%w: counting pages: %v", types.ErrAssembly, err)
	}
	if got != want {
		return fmt.Errorf("%w: wrote %d pages, expected %d", types.ErrAssembly, got, want)
	}
	return nil
}
