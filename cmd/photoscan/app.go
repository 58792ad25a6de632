// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"path/filepath"

	"github.com/pdiddy/photoscan/internal/assemble"
	"github.com/pdiddy/photoscan/internal/codec"
	"github.com/pdiddy/photoscan/internal/container"
	"github.com/pdiddy/photoscan/internal/convert"
	"github.com/pdiddy/photoscan/internal/library"
	"github.com/pdiddy/photoscan/internal/normalize"
	"github.com/pdiddy/photoscan/internal/ocr"
	"github.com/pdiddy/photoscan/internal/render"
	"github.com/pdiddy/photoscan/internal/secrets"
	"github.com/pdiddy/photoscan/pkg/types"
)

// app bundles the page store and document library every command works on.
type app struct {
	pages   *codec.Store
	library *library.Store
}

// pagesDir resolves the page image directory against the data directory.
func pagesDir(c types.StorageConfig) string {
	if filepath.IsAbs(c.PagesDir) {
		return c.PagesDir
	}
	return filepath.Join(c.DataDir, c.PagesDir)
}

func openApp() (*app, error) {
	pages, err := codec.NewStore(pagesDir(cfg.Storage), cfg.Conversion.JPEGQuality, log)
	if err != nil {
		return nil, err
	}
	lib, err := library.NewStore(cfg.Storage, pages, log)
	if err != nil {
		return nil, err
	}
	return &app{pages: pages, library: lib}, nil
}

func (a *app) Close() error {
	return a.library.Close()
}

// orchestrator wires the normalizer and page store for import jobs.
func (a *app) orchestrator() *convert.Orchestrator {
	n := normalize.New(normalize.FitzRasterizer{}, newRenderer(), log)
	n.DPI = cfg.Conversion.RenderDPI
	return convert.New(n, a.pages, log)
}

// newRenderer builds the configured document renderer. When it is not
// usable, flat documents fail per job and PDFs and images still import.
func newRenderer() render.Renderer {
	switch cfg.Conversion.Renderer {
	case types.RendererGotenberg:
		var opts []render.GotenbergOption
		if tok := loadedSecrets.Get(secrets.GotenbergToken); tok != "" {
			opts = append(opts, render.WithBearerToken(tok))
		}
		if up := loadedSecrets.Get(secrets.GotenbergBasicAuth); up != "" {
			opts = append(opts, render.WithBasicAuth(up))
		}
		return render.NewGotenbergRenderer(cfg.Conversion.GotenbergURL, cfg.Conversion.RenderTimeout, log, opts...)

	case types.RendererContainer:
		rt, err := container.DetectRuntime()
		if err != nil {
			log.Warn().Err(err).Msg("document renderer unavailable")
			return nil
		}
		r, err := render.NewContainerRenderer(rt, cfg.Conversion.RendererImage, log)
		if err != nil {
			log.Warn().Err(err).Msg("document renderer unavailable")
			return nil
		}
		return r

	default:
		log.Warn().Str("renderer", string(cfg.Conversion.Renderer)).Msg("unknown renderer backend")
		return nil
	}
}

func newAssembler() *assemble.Assembler {
	return assemble.New(cfg.Export, cfg.Conversion.JPEGQuality)
}

func newExtractor() *ocr.Extractor {
	return ocr.NewExtractor(ocr.NewTesseractRecognizer(cfg.OCR), log)
}

// pageAt returns the ref at 1-based position n.
func pageAt(doc *types.Document, n int) (types.PageRef, error) {
	if n < 1 || n > doc.PageCount() {
		return "", fmt.Errorf("page %d out of range: document has %d page(s)", n, doc.PageCount())
	}
	return doc.Pages[n-1], nil
}
