// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/photoscan/pkg/types"
)

func TestLoadConfigFromYAML(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	path := filepath.Join(t.TempDir(), "photoscan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
storage:
  data_dir: /tmp/scans
conversion:
  renderer: gotenberg
  access_timeout: 2s
  jpeg_quality: 65
export:
  author: Ana
ocr:
  languages: [eng, deu]
`), 0o644))

	setDefaults(types.DefaultConfig())
	viper.SetConfigFile(path)
	require.NoError(t, viper.ReadInConfig())

	c, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/scans", c.Storage.DataDir)
	assert.Equal(t, "pages", c.Storage.PagesDir)
	assert.Equal(t, types.RendererGotenberg, c.Conversion.Renderer)
	assert.Equal(t, 2*time.Second, c.Conversion.AccessTimeout)
	assert.Equal(t, 65, c.Conversion.JPEGQuality)
	assert.Equal(t, "Ana", c.Export.Author)
	assert.Equal(t, "PhotoScan Pro", c.Export.Producer)
	assert.Equal(t, []string{"eng", "deu"}, c.OCR.Languages)
}

func TestPagesDir(t *testing.T) {
	assert.Equal(t, filepath.Join("data", "pages"), pagesDir(types.StorageConfig{DataDir: "data", PagesDir: "pages"}))
	assert.Equal(t, "/srv/pages", pagesDir(types.StorageConfig{DataDir: "data", PagesDir: "/srv/pages"}))
}

func TestPageAt(t *testing.T) {
	doc := &types.Document{Pages: []types.PageRef{"a", "b"}}

	ref, err := pageAt(doc, 2)
	require.NoError(t, err)
	assert.Equal(t, types.PageRef("b"), ref)

	_, err = pageAt(doc, 0)
	assert.Error(t, err)
	_, err = pageAt(doc, 3)
	assert.Error(t, err)
}

func TestRunScanWritesToCommandOutput(t *testing.T) {
	saved := cfg
	t.Cleanup(func() { cfg = saved })
	cfg = types.DefaultConfig()
	cfg.Storage.DataDir = t.TempDir()
	cfg.Conversion.Renderer = types.RendererGotenberg

	dir := t.TempDir()
	var paths []string
	for _, name := range []string{"p1.png", "p2.png"} {
		var buf bytes.Buffer
		require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 8, 8))))
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
		paths = append(paths, path)
	}
	bad := filepath.Join(dir, "blurred.png")
	require.NoError(t, os.WriteFile(bad, []byte("not an image"), 0o644))
	paths = append(paths, bad)

	a, err := openApp()
	require.NoError(t, err)
	defer a.Close()

	var out bytes.Buffer
	require.NoError(t, runScan(context.Background(), &out, a, paths, ""))
	assert.Contains(t, out.String(), ": 2 page(s), 1 dropped")

	docs, err := a.library.List(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Contains(t, out.String(), docs[0].ID)
}
