// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pdiddy/photoscan/pkg/types"
)

// SetPageText records the recognized text of a stored page, replacing any
// earlier result.
func (s *Store) SetPageText(ctx context.Context, ref types.PageRef, text string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO page_text (ref, content, recognized_at) VALUES (?, ?, ?)
		ON CONFLICT(ref) DO UPDATE SET content = excluded.content, recognized_at = excluded.recognized_at`,
		string(ref), text, s.now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("storing text for page %s: %w", ref, err)
	}
	return nil
}

// PageText returns the recorded text of ref. ok is false when the page has
// not been recognized yet.
func (s *Store) PageText(ctx context.Context, ref types.PageRef) (text string, ok bool, err error) {
	err = s.db.QueryRowContext(ctx,
		`SELECT content FROM page_text WHERE ref = ?`, string(ref),
	).Scan(&text)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("querying text for page %s: %w", ref, err)
	}
	return text, true, nil
}

// SearchHit is one page whose recognized text matched a query.
type SearchHit struct {
	DocumentID string        `json:"document_id" yaml:"document_id"`
	Title      string        `json:"title" yaml:"title"`
	Ref        types.PageRef `json:"ref" yaml:"ref"`
	Page       int           `json:"page" yaml:"page"`
	Snippet    string        `json:"snippet" yaml:"snippet"`
}

// Search runs a full-text query over recognized page text, best matches
// first. Each query word must appear on the page.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]SearchHit, error) {
	match := ftsQuery(query)
	if match == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}
	if !s.fts {
		return s.searchSubstring(ctx, strings.Fields(query), limit)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT d.id, d.title, p.ref, p.position,
			snippet(page_text_fts, 0, '[', ']', '…', 12)
		FROM page_text_fts
		JOIN page_text t ON t.rowid = page_text_fts.rowid
		JOIN pages p ON p.ref = t.ref
		JOIN documents d ON d.id = p.document_id
		WHERE page_text_fts MATCH ?
		ORDER BY bm25(page_text_fts)
		LIMIT ?`,
		match, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("searching page text: %w", err)
	}
	return scanHits(rows)
}

// searchSubstring matches every word case-insensitively with LIKE. The
// snippet is the start of the page text.
func (s *Store) searchSubstring(ctx context.Context, words []string, limit int) ([]SearchHit, error) {
	q := `SELECT d.id, d.title, p.ref, p.position, substr(t.content, 1, 80)
		FROM page_text t
		JOIN pages p ON p.ref = t.ref
		JOIN documents d ON d.id = p.document_id
		WHERE 1=1`
	args := make([]any, 0, len(words)+1)
	for _, w := range words {
		q += ` AND t.content LIKE ? ESCAPE '\'`
		args = append(args, "%"+likeEscaper.Replace(w)+"%")
	}
	q += ` ORDER BY d.created_at DESC, p.position LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("searching page text: %w", err)
	}
	return scanHits(rows)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func scanHits(rows *sql.Rows) ([]SearchHit, error) {
	defer rows.Close()

	var hits []SearchHit
	for rows.Next() {
		var (
			h   SearchHit
			ref string
		)
		if err := rows.Scan(&h.DocumentID, &h.Title, &ref, &h.Page, &h.Snippet); err != nil {
			return nil, fmt.Errorf("scanning search row: %w", err)
		}
		h.Ref = types.PageRef(ref)
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

// ftsQuery quotes each word so user input cannot use FTS5 operators.
func ftsQuery(query string) string {
	words := strings.Fields(query)
	quoted := make([]string, 0, len(words))
	for _, w := range words {
		quoted = append(quoted, `"`+strings.ReplaceAll(w, `"`, `""`)+`"`)
	}
	return strings.Join(quoted, " ")
}
