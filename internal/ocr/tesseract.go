// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/pdiddy/photoscan/pkg/types"
)

// TesseractRecognizer recognizes text lines with tesseract through
// gosseract. A new client is created per call, so one value can be shared.
type TesseractRecognizer struct {
	languages   []string
	tessdataDir string
	newClient   func() *gosseract.Client
}

// NewTesseractRecognizer configures languages and, optionally, the
// directory holding the accurate (tessdata_best) models.
func NewTesseractRecognizer(cfg types.OCRConfig) *TesseractRecognizer {
	return &TesseractRecognizer{
		languages:   cfg.Languages,
		tessdataDir: cfg.TessdataDir,
		newClient:   gosseract.NewClient,
	}
}

// Recognize implements Recognizer. Each text line is one region; its
// confidence is scaled to 0..1.
func (t *TesseractRecognizer) Recognize(ctx context.Context, img image.Image, level Level) ([]Region, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding image: %w", err)
	}

	c := t.newClient()
	defer c.Close()

	if level == LevelAccurate && t.tessdataDir != "" {
		if err := c.SetTessdataPrefix(t.tessdataDir); err != nil {
			return nil, fmt.Errorf("set tessdata: %w", err)
		}
	}
	if len(t.languages) > 0 {
		if err := c.SetLanguage(t.languages...); err != nil {
			return nil, fmt.Errorf("set languages: %w", err)
		}
	}
	psm := gosseract.PSM_AUTO
	if level == LevelFast {
		psm = gosseract.PSM_SINGLE_BLOCK
	}
	if err := c.SetPageSegMode(psm); err != nil {
		return nil, fmt.Errorf("set page segmentation: %w", err)
	}
	if err := c.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("set image: %w", err)
	}

	boxes, err := c.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, fmt.Errorf("recognize text: %w", err)
	}

	regions := make([]Region, 0, len(boxes))
	for _, b := range boxes {
		text := strings.TrimSpace(b.Word)
		if text == "" {
			continue
		}
		regions = append(regions, Region{
			Text:       text,
			Confidence: b.Confidence / 100.0,
			Bounds:     b.Box,
		})
	}
	return regions, nil
}
