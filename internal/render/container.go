// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"bytes"
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/pdiddy/photoscan/internal/container"
	"github.com/pdiddy/photoscan/pkg/types"
)

// ContainerRenderer renders documents by piping them through a headless
// office image. The image reads the document on stdin and writes a PDF on
// stdout; the source name arrives as an environment variable. The office
// suite keeps the document's own page setup, so callers fit the result to
// the page size afterwards.
type ContainerRenderer struct {
	runtime container.Runtime
	image   string
	log     zerolog.Logger
}

// NewContainerRenderer creates a renderer that runs image with rt. It
// verifies that the image exists locally before returning.
func NewContainerRenderer(rt container.Runtime, image string, log zerolog.Logger) (*ContainerRenderer, error) {
	if err := rt.ImageExists(image); err != nil {
		return nil, fmt.Errorf("renderer image not available in %s: %w", rt.Name(), err)
	}
	return &ContainerRenderer{
		runtime: rt,
		image:   image,
		log:     log.With().Str("component", "render").Str("backend", rt.Name()).Logger(),
	}, nil
}

// Render implements Renderer.
func (c *ContainerRenderer) Render(ctx context.Context, src Source, _ types.PageSize) ([]byte, error) {
	env := map[string]string{"SOURCE_NAME": src.Name}

	c.log.Debug().Str("source", src.Name).Int("bytes", len(src.Data)).Msg("rendering document")

	var out bytes.Buffer
	if err := c.runtime.Run(ctx, c.image, env, bytes.NewReader(src.Data), &out); err != nil {
		return nil, fmt.Errorf("rendering %s: %w", src.Name, err)
	}
	if err := checkPDF(src.Name, out.Bytes()); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
