// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package assemble

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/photoscan/pkg/types"
)

// PageLoader loads stored page images.
type PageLoader interface {
	Load(ref types.PageRef) (image.Image, error)
}

// maxNameAttempts bounds the suffixes tried when Doc_<epoch>.pdf is taken.
const maxNameAttempts = 1000

// ExportName returns the file name for a PDF exported at t.
func ExportName(t time.Time) string {
	return fmt.Sprintf("Doc_%d.pdf", t.Unix())
}

// exportNameN returns the n-th alternative name for an export at t. The
// zeroth is ExportName itself.
func exportNameN(t time.Time, n int) string {
	if n == 0 {
		return ExportName(t)
	}
	return fmt.Sprintf("Doc_%d-%d.pdf", t.Unix(), n)
}

// ExportResult describes a written PDF.
type ExportResult struct {
	Path    string
	Pages   int
	Dropped int
}

// ExportDocument loads doc's pages in order, assembles them, and writes
// Doc_<epoch>.pdf into dir, or Doc_<epoch>-<n>.pdf when an export from
// the same second already exists. Existing files are never replaced. Pages that cannot be loaded are skipped and
// counted in Dropped; when none load nothing is written.
func (a *Assembler) ExportDocument(ctx context.Context, doc *types.Document, pages PageLoader, dir string, log zerolog.Logger) (ExportResult, error) {
	var res ExportResult
	if doc == nil || !doc.IsDisplayable() {
		return res, fmt.Errorf("%w: document has no pages", types.ErrAssembly)
	}

	images := make([]image.Image, 0, doc.PageCount())
	for _, ref := range doc.Pages {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		img, err := pages.Load(ref)
		if err != nil {
			log.Warn().Err(err).Str("document", doc.ID).Str("ref", string(ref)).Msg("skipping page that failed to load")
			res.Dropped++
			continue
		}
		images = append(images, img)
	}
	if len(images) == 0 {
		return res, fmt.Errorf("%w: none of %d pages could be loaded", types.ErrAssembly, doc.PageCount())
	}

	now := time.Now
	if a.Clock != nil {
		now = a.Clock
	}
	at := now()

	asm := *a
	asm.Clock = func() time.Time { return at }
	if asm.Title == "" {
		asm.Title = doc.Title
	}

	data, err := asm.Assemble(images)
	if err != nil {
		return res, err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return res, fmt.Errorf("creating output directory %s: %w", dir, err)
	}
	path, err := writeFileExclusive(dir, data, func(n int) string { return exportNameN(at, n) })
	if err != nil {
		return res, fmt.Errorf("writing export to %s: %w", dir, err)
	}

	res.Path = path
	res.Pages = len(images)
	log.Info().Str("document", doc.ID).Str("path", path).Int("pages", res.Pages).Int("dropped", res.Dropped).Msg("exported")
	return res, nil
}

// writeFileExclusive writes data to a temporary file in dir, then links it
// under the first name(n) that does not exist yet. Readers never see a
// partial file and an existing file is never overwritten.
func writeFileExclusive(dir string, data []byte, name func(n int) string) (string, error) {
	tmp, err := os.CreateTemp(dir, ".export-*")
	if err != nil {
		return "", err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return "", err
	}

	for n := 0; n < maxNameAttempts; n++ {
		path := filepath.Join(dir, name(n))
		err := os.Link(tmpName, path)
		if err == nil {
			return path, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", err
		}
	}
	return "", fmt.Errorf("no free file name after %d attempts", maxNameAttempts)
}
