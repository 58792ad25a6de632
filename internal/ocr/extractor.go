// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ocr extracts text from a single page image through a recognition
// engine.
package ocr

import (
	"context"
	"fmt"
	"image"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pdiddy/photoscan/pkg/types"
)

// Level selects the recognizer's speed/accuracy trade-off.
type Level int

const (
	LevelAccurate Level = iota
	LevelFast
)

func (l Level) String() string {
	if l == LevelFast {
		return "fast"
	}
	return "accurate"
}

// Region is one recognized text region with its best candidate string.
type Region struct {
	Text       string
	Confidence float64
	Bounds     image.Rectangle
}

// Recognizer is a text recognition engine. Regions come back in reading
// order as the engine reports it.
type Recognizer interface {
	Recognize(ctx context.Context, img image.Image, level Level) ([]Region, error)
}

// Extractor wraps a Recognizer with a single-image contract.
type Extractor struct {
	rec Recognizer
	log zerolog.Logger
}

// NewExtractor returns an Extractor backed by rec.
func NewExtractor(rec Recognizer, log zerolog.Logger) *Extractor {
	return &Extractor{rec: rec, log: log.With().Str("component", "ocr").Logger()}
}

// Extract returns the text of img, one line per region. A missing image or
// an engine error returns ErrRecognition. Finding no regions returns
// ErrNoTextFound so callers can tell an empty page from a failure. Regions
// whose text is empty still contribute a line.
func (e *Extractor) Extract(ctx context.Context, img image.Image) (string, error) {
	if img == nil || img.Bounds().Empty() {
		return "", fmt.Errorf("%w: image has no pixel buffer", types.ErrRecognition)
	}

	regions, err := e.rec.Recognize(ctx, img, LevelAccurate)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("%w: %v", types.ErrRecognition, err)
	}
	if len(regions) == 0 {
		return "", types.ErrNoTextFound
	}

	lines := make([]string, len(regions))
	for i, r := range regions {
		lines[i] = r.Text
	}

	e.log.Debug().Int("regions", len(regions)).Msg("recognized text")
	return strings.Join(lines, "\n"), nil
}
