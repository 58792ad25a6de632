// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package codec stores page images as JPEG files under an app-private
// directory. Each stored image gets a fresh random key; keys are never
// reused and never derived from content, so identical images stored twice
// produce two distinct PageRefs.
package codec

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pdiddy/photoscan/pkg/types"
)

const (
	// DefaultQuality is the JPEG quality used when none is configured (≈0.8).
	DefaultQuality = 80

	pageExt = ".jpg"
)

// Store is a directory of JPEG page images. It holds no per-job state and
// is safe for concurrent use by independent jobs.
type Store struct {
	dir     string
	quality int
	log     zerolog.Logger
}

// NewStore opens or creates the page directory. A quality outside 1..100
// falls back to DefaultQuality.
func NewStore(dir string, quality int, log zerolog.Logger) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("page directory cannot be empty")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating page directory %s: %w", dir, err)
	}
	if quality < 1 || quality > 100 {
		quality = DefaultQuality
	}
	return &Store{
		dir:     dir,
		quality: quality,
		log:     log.With().Str("component", "codec").Logger(),
	}, nil
}

// Dir returns the page directory.
func (s *Store) Dir() string { return s.dir }

// Put encodes img as JPEG and writes it under a new key. The file appears
// under its final name only after a complete write.
func (s *Store) Put(img image.Image) (types.PageRef, error) {
	if img == nil || img.Bounds().Empty() {
		return "", fmt.Errorf("%w: image has no pixels", types.ErrCodec)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: s.quality}); err != nil {
		return "", fmt.Errorf("%w: encoding jpeg: %v", types.ErrCodec, err)
	}

	ref := types.PageRef(uuid.NewString() + pageExt)
	if err := s.writeAtomic(string(ref), buf.Bytes()); err != nil {
		return "", fmt.Errorf("%w: writing %s: %v", types.ErrCodec, ref, err)
	}

	s.log.Debug().Str("ref", string(ref)).Int("bytes", buf.Len()).Msg("stored page")
	return ref, nil
}

func (s *Store) writeAtomic(name string, data []byte) error {
	tmp, err := os.CreateTemp(s.dir, ".page-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, filepath.Join(s.dir, name)); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// Load decodes the page stored under ref. Unknown or deleted keys return
// ErrPageNotFound; undecodable data returns ErrCodec.
func (s *Store) Load(ref types.PageRef) (image.Image, error) {
	path, ok := s.resolve(ref)
	if !ok {
		return nil, fmt.Errorf("%w: %q", types.ErrPageNotFound, ref)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", types.ErrPageNotFound, ref)
		}
		return nil, fmt.Errorf("reading page %s: %w", ref, err)
	}

	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %v", types.ErrCodec, ref, err)
	}
	return img, nil
}

// Delete releases the image stored under ref. Deleting a missing key is
// not an error.
func (s *Store) Delete(ref types.PageRef) error {
	path, ok := s.resolve(ref)
	if !ok {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("deleting page %s: %w", ref, err)
	}
	s.log.Debug().Str("ref", string(ref)).Msg("released page")
	return nil
}

// Exists reports whether ref names a stored page.
func (s *Store) Exists(ref types.PageRef) bool {
	path, ok := s.resolve(ref)
	if !ok {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// Path returns the on-disk path for ref, or "" for a malformed ref.
func (s *Store) Path(ref types.PageRef) string {
	path, _ := s.resolve(ref)
	return path
}

// resolve maps ref to a file inside the page directory. Refs that could
// escape the directory or lack the page extension are rejected.
func (s *Store) resolve(ref types.PageRef) (string, bool) {
	name := string(ref)
	if name == "" || !strings.HasSuffix(name, pageExt) || strings.HasPrefix(name, ".") {
		return "", false
	}
	if strings.ContainsAny(name, `/\`) || name != filepath.Base(name) {
		return "", false
	}
	return filepath.Join(s.dir, name), true
}
