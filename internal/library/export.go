// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package library

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/photoscan/pkg/types"
)

// CatalogEntry is one document in a catalog export.
type CatalogEntry struct {
	ID        string          `json:"id" yaml:"id"`
	Title     string          `json:"title" yaml:"title"`
	CreatedAt time.Time       `json:"created_at" yaml:"created_at"`
	PageCount int             `json:"page_count" yaml:"page_count"`
	Pages     []types.PageRef `json:"pages" yaml:"pages"`
}

// ExportYAML writes the catalog of all documents to w as YAML.
func (s *Store) ExportYAML(ctx context.Context, w io.Writer) error {
	entries, err := s.catalog(ctx)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// ExportJSON writes the catalog of all documents to w as indented JSON.
func (s *Store) ExportJSON(ctx context.Context, w io.Writer) error {
	entries, err := s.catalog(ctx)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

func (s *Store) catalog(ctx context.Context) ([]CatalogEntry, error) {
	docs, err := s.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("querying for export: %w", err)
	}

	entries := make([]CatalogEntry, len(docs))
	for i, d := range docs {
		entries[i] = CatalogEntry{
			ID:        d.ID,
			Title:     d.Title,
			CreatedAt: d.CreatedAt,
			PageCount: d.PageCount(),
			Pages:     d.Pages,
		}
		if entries[i].Pages == nil {
			entries[i].Pages = []types.PageRef{}
		}
	}
	return entries, nil
}
