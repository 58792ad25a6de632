// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "errors"

// Conversion and export errors. Callers classify failures with errors.Is;
// the packages wrap these with context.
var (
	// ErrUnsupportedFormat is returned for inputs of an unknown kind.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrResourceAccessDenied means the input resource could not be acquired.
	ErrResourceAccessDenied = errors.New("resource access denied")

	// ErrRenderFailure covers renderer and PDF rasterizer errors. For a
	// single page inside a multi-page job it is absorbed and counted.
	ErrRenderFailure = errors.New("render failure")

	// ErrNoPagesProduced is the terminal error of a job that stored nothing.
	ErrNoPagesProduced = errors.New("no pages produced")

	// ErrCodec covers JPEG encode or decode failures for one page.
	ErrCodec = errors.New("page codec error")

	// ErrAssembly means PDF serialization failed.
	ErrAssembly = errors.New("pdf assembly failed")

	// ErrRecognition means OCR failed or the image had no pixel buffer.
	ErrRecognition = errors.New("text recognition failed")

	// ErrNoTextFound means recognition ran but found no text regions.
	ErrNoTextFound = errors.New("no text found")

	// ErrPageNotFound is returned when loading an unknown or deleted page.
	ErrPageNotFound = errors.New("page not found")

	// ErrDocumentNotFound is returned for an unknown document ID.
	ErrDocumentNotFound = errors.New("document not found")

	// ErrEmptyDocument rejects creating a document with no pages.
	ErrEmptyDocument = errors.New("document has no pages")
)
