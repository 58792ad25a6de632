// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package assemble

// Rect is a placement on a page in points, origin at the top-left corner.
type Rect struct {
	X, Y, W, H float64
}

// Layout aspect-fits an image of imgW x imgH into a pageW x pageH page and
// centers it. The image is never cropped and never exceeds the page; the
// leftover space is split evenly on both sides of the shorter axis.
func Layout(imgW, imgH, pageW, pageH float64) Rect {
	if imgW <= 0 || imgH <= 0 || pageW <= 0 || pageH <= 0 {
		return Rect{}
	}

	scale := min(pageW/imgW, pageH/imgH)
	w := min(imgW*scale, pageW)
	h := min(imgH*scale, pageH)

	return Rect{
		X: (pageW - w) / 2,
		Y: (pageH - h) / 2,
		W: w,
		H: h,
	}
}
