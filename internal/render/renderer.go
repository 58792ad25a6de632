// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package render converts flat documents (office files, HTML, text) into a
// single intermediate PDF. Backends run outside the
// process: a headless office container or a Gotenberg service.
package render

import (
	"bytes"
	"context"
	"fmt"

	"github.com/pdiddy/photoscan/pkg/types"
)

// Source is one document handed to a renderer.
type Source struct {
	// Name is the original file name. Backends use its extension to pick a
	// loader.
	Name string

	// Data holds the whole document.
	Data []byte

	// ContentType is optional; "text/html" selects an HTML engine where the
	// backend has one.
	ContentType string
}

// Renderer turns a document into PDF bytes. Render is called at most once
// per conversion job and may take a long time; implementations must return
// promptly once ctx is done. size is a layout hint; backends that cannot
// honor it return the document's own page setup.
type Renderer interface {
	Render(ctx context.Context, src Source, size types.PageSize) ([]byte, error)
}

var pdfMagic = []byte("%PDF-")

// checkPDF rejects empty or non-PDF renderer output.
func checkPDF(name string, out []byte) error {
	if len(out) == 0 {
		return fmt.Errorf("renderer produced empty output for %s", name)
	}
	if !bytes.HasPrefix(out, pdfMagic) {
		return fmt.Errorf("renderer output for %s is not a PDF", name)
	}
	return nil
}
