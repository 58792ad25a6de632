// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"bytes"
	"image"
	"net/http"
	"path/filepath"
	"strings"

	// Decoders registered for image.DecodeConfig and image.Decode.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/pdiddy/photoscan/pkg/types"
)

// sniffLen is how much of the input Detect looks at.
const sniffLen = 1024

var rasterizableExts = map[string]bool{
	".doc": true, ".docx": true, ".odt": true, ".rtf": true,
	".txt": true, ".html": true, ".htm": true,
	".md": true, ".markdown": true,
	".xls": true, ".xlsx": true, ".ods": true,
	".ppt": true, ".pptx": true, ".odp": true,
}

var imageExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".bmp": true, ".tif": true, ".tiff": true, ".webp": true,
}

// Detect classifies an input from its name and content. Content wins over
// the extension: a PDF or a decodable image is recognized whatever it is
// called. data may be the whole input or a prefix of it.
func Detect(name string, data []byte) types.InputKind {
	head := data
	if len(head) > sniffLen {
		head = head[:sniffLen]
	}

	ext := strings.ToLower(filepath.Ext(name))

	// A text document may quote the PDF header, so for known text formats
	// only a header at the very start counts.
	if hasPDFHeader(head) || (!rasterizableExts[ext] && bytes.Contains(head, pdfMagic)) {
		return types.KindPDF
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		return types.KindImage
	}

	switch {
	case ext == ".pdf":
		return types.KindPDF
	case rasterizableExts[ext]:
		return types.KindRasterizable
	case imageExts[ext]:
		return types.KindImage
	}

	if looksHTML(head) {
		return types.KindRasterizable
	}
	return types.KindUnsupported
}

// hasPDFHeader reports whether data starts with the PDF header, allowing a
// leading byte order mark and whitespace.
func hasPDFHeader(data []byte) bool {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	return bytes.HasPrefix(bytes.TrimLeft(data, " \t\r\n\f\x00"), pdfMagic)
}

// looksHTML reports whether content sniffing identifies data as HTML.
func looksHTML(data []byte) bool {
	if len(data) > sniffLen {
		data = data[:sniffLen]
	}
	return len(data) > 0 && strings.HasPrefix(http.DetectContentType(data), "text/html")
}

// KnownExtension reports whether name ends in an extension Detect maps to
// a supported kind.
func KnownExtension(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".pdf" || rasterizableExts[ext] || imageExts[ext]
}

func isHTMLName(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".html", ".htm":
		return true
	}
	return false
}

// isMarkdown reports whether name carries a markdown extension.
func isMarkdown(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".md", ".markdown":
		return true
	}
	return false
}
