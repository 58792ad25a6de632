// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/photoscan/internal/httputil"
	"github.com/pdiddy/photoscan/pkg/types"
)

const (
	routeOffice = "/forms/libreoffice/convert"
	routeHTML   = "/forms/chromium/convert/html"

	// maxPDFBytes bounds the response we are willing to buffer.
	maxPDFBytes = 256 << 20
)

// GotenbergRenderer renders documents with a Gotenberg service. HTML is
// sent to the Chromium route with an explicit paper size; everything else
// goes to the LibreOffice route, which keeps the document's page setup.
type GotenbergRenderer struct {
	baseURL   string
	client    *http.Client
	token     string
	basicAuth string
	log       zerolog.Logger
}

// GotenbergOption configures a GotenbergRenderer.
type GotenbergOption func(*GotenbergRenderer)

// WithBearerToken sends Authorization: Bearer <token>, for services behind
// an authenticating proxy.
func WithBearerToken(token string) GotenbergOption {
	return func(g *GotenbergRenderer) { g.token = token }
}

// WithBasicAuth sends basic credentials given as "user:pass".
func WithBasicAuth(userPass string) GotenbergOption {
	return func(g *GotenbergRenderer) { g.basicAuth = userPass }
}

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) GotenbergOption {
	return func(g *GotenbergRenderer) { g.client = c }
}

// NewGotenbergRenderer creates a renderer for the service at baseURL.
func NewGotenbergRenderer(baseURL string, timeout time.Duration, log zerolog.Logger, opts ...GotenbergOption) *GotenbergRenderer {
	g := &GotenbergRenderer{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		log:     log.With().Str("component", "render").Str("backend", "gotenberg").Logger(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Render implements Renderer.
func (g *GotenbergRenderer) Render(ctx context.Context, src Source, size types.PageSize) ([]byte, error) {
	route, body, contentType, err := g.form(src, size)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", src.Name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+route, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	if g.token != "" {
		req.Header.Set("Authorization", "Bearer "+g.token)
	} else if user, pass, ok := strings.Cut(g.basicAuth, ":"); ok {
		req.SetBasicAuth(user, pass)
	}

	g.log.Debug().Str("source", src.Name).Str("route", route).Msg("rendering document")

	resp, err := httputil.DoWithRetry(ctx, g.client, req, 0, g.log)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("rendering %s: %w", src.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("rendering %s: gotenberg returned %d: %s",
			src.Name, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	out, err := io.ReadAll(io.LimitReader(resp.Body, maxPDFBytes))
	if err != nil {
		return nil, fmt.Errorf("reading rendered PDF for %s: %w", src.Name, err)
	}
	if err := checkPDF(src.Name, out); err != nil {
		return nil, err
	}
	return out, nil
}

// form builds the multipart body. The Chromium route requires the file to
// be named index.html.
func (g *GotenbergRenderer) form(src Source, size types.PageSize) (route string, body []byte, contentType string, err error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	route = routeOffice
	filename := filepath.Base(src.Name)
	if isHTML(src) {
		route = routeHTML
		filename = "index.html"

		w, h := size.Inches()
		fields := map[string]string{
			"paperWidth":   strconv.FormatFloat(w, 'f', 4, 64),
			"paperHeight":  strconv.FormatFloat(h, 'f', 4, 64),
			"marginTop":    "0.4",
			"marginBottom": "0.4",
			"marginLeft":   "0.4",
			"marginRight":  "0.4",
		}
		for _, k := range []string{"paperWidth", "paperHeight", "marginTop", "marginBottom", "marginLeft", "marginRight"} {
			if err := mw.WriteField(k, fields[k]); err != nil {
				return "", nil, "", err
			}
		}
	}

	part, err := mw.CreateFormFile("files", filename)
	if err != nil {
		return "", nil, "", err
	}
	if _, err := part.Write(src.Data); err != nil {
		return "", nil, "", err
	}
	if err := mw.Close(); err != nil {
		return "", nil, "", err
	}
	return route, buf.Bytes(), mw.FormDataContentType(), nil
}

func isHTML(src Source) bool {
	if strings.HasPrefix(src.ContentType, "text/html") {
		return true
	}
	switch strings.ToLower(filepath.Ext(src.Name)) {
	case ".html", ".htm":
		return true
	}
	return false
}
