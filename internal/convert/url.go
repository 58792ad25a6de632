// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pdiddy/photoscan/internal/httputil"
	"github.com/pdiddy/photoscan/internal/normalize"
	"github.com/pdiddy/photoscan/pkg/types"
)

const (
	// DefaultUserAgent identifies photoscan to remote servers.
	DefaultUserAgent = "photoscan/0.1"

	// maxDownload bounds one fetched input.
	maxDownload = 256 << 20
)

// URLResource is a remote input, such as a shared web page or a linked
// PDF. BeginAccess downloads it; EndAccess drops the downloaded bytes.
type URLResource struct {
	rawURL    string
	client    *http.Client
	userAgent string
	log       zerolog.Logger

	name string
	data []byte
}

// NewURLResource returns a resource for rawURL fetched with client.
func NewURLResource(rawURL string, client *http.Client, log zerolog.Logger) *URLResource {
	if client == nil {
		client = http.DefaultClient
	}
	return &URLResource{
		rawURL:    rawURL,
		client:    client,
		userAgent: DefaultUserAgent,
		log:       log,
		name:      nameFromURL(rawURL),
	}
}

// IsURL reports whether s looks like an http or https URL.
func IsURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Name returns a file name for the input. After BeginAccess it reflects
// the server's Content-Disposition or Content-Type when the URL path has
// no usable extension.
func (r *URLResource) Name() string { return r.name }

// BeginAccess downloads the resource. Busy responses are retried.
func (r *URLResource) BeginAccess(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.rawURL, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", types.ErrResourceAccessDenied, err)
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := httputil.DoWithRetry(ctx, r.client, req, 0, r.log)
	if err != nil {
		return fmt.Errorf("%w: fetching %s: %v", types.ErrResourceAccessDenied, r.rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: HTTP %d from %s", types.ErrResourceAccessDenied, resp.StatusCode, r.rawURL)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownload+1))
	if err != nil {
		return fmt.Errorf("%w: reading %s: %v", types.ErrResourceAccessDenied, r.rawURL, err)
	}
	if len(data) > maxDownload {
		return fmt.Errorf("%w: %s exceeds %d bytes", types.ErrResourceAccessDenied, r.rawURL, maxDownload)
	}

	r.data = data
	r.name = responseName(r.name, resp.Header)
	r.log.Debug().Str("url", r.rawURL).Str("name", r.name).Int("bytes", len(data)).Msg("downloaded input")
	return nil
}

// Open returns the downloaded bytes.
func (r *URLResource) Open() (io.ReadCloser, error) {
	if r.data == nil {
		return nil, fmt.Errorf("%w: %s not downloaded", types.ErrResourceAccessDenied, r.rawURL)
	}
	return io.NopCloser(bytes.NewReader(r.data)), nil
}

// EndAccess drops the downloaded bytes.
func (r *URLResource) EndAccess() {
	r.data = nil
}

func nameFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "download"
	}
	base := path.Base(u.Path)
	if base == "/" || base == "." || base == "" {
		return u.Host
	}
	return base
}

// responseName prefers the server's file name, then an extension derived
// from the content type.
func responseName(name string, h http.Header) string {
	if _, params, err := mime.ParseMediaType(h.Get("Content-Disposition")); err == nil {
		if fn := path.Base(params["filename"]); fn != "" && fn != "." && fn != "/" {
			return fn
		}
	}
	// Host names and IDs carry dots too; only trust extensions Detect knows.
	if normalize.KnownExtension(name) {
		return name
	}

	ct, _, _ := mime.ParseMediaType(h.Get("Content-Type"))
	switch {
	case ct == "text/html":
		return name + ".html"
	case ct == "application/pdf":
		return name + ".pdf"
	case ct == "text/markdown":
		return name + ".md"
	case strings.HasPrefix(ct, "image/"):
		return name + "." + strings.TrimPrefix(ct, "image/")
	}
	return name
}
