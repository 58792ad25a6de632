// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"bytes"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	pdftypes "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/pdiddy/photoscan/pkg/types"
)

// fitPageSize rewrites every page of a rendered PDF to size, scaling the
// content to fit and centering it. Renderer backends keep the document's
// own page setup, so this is where the fixed page size is enforced.
// Landscape pages become landscape pages of the same size.
func fitPageSize(pdf []byte, size types.PageSize) ([]byte, error) {
	res := &model.Resize{
		Unit:          pdftypes.POINTS,
		PageDim:       &pdftypes.Dim{Width: size.Width, Height: size.Height},
		UserDim:       true,
		EnforceOrient: true,
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	var out bytes.Buffer
	if err := api.Resize(bytes.NewReader(pdf), &out, nil, res, conf); err != nil {
		return nil, fmt.Errorf("resizing pages: %w", err)
	}
	return out.Bytes(), nil
}
