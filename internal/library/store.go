// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package library persists Documents in SQLite. A document row holds the
// metadata; each page reference is its own row so a reference can belong to
// only one document. Deleting a document or removing a page releases the
// stored image through a PageReleaser.
package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"github.com/pdiddy/photoscan/pkg/types"
)

// PageReleaser frees a stored page image.
type PageReleaser interface {
	Delete(ref types.PageRef) error
}

// Store manages the document database.
type Store struct {
	db    *sql.DB
	pages PageReleaser
	log   zerolog.Logger
	now   func() time.Time

	// fts is false when the sqlite build lacks FTS5; Search then falls
	// back to substring matching.
	fts bool
}

// dsn builds the connection string. Transactions take the write lock at
// BEGIN so concurrent read-modify-write edits wait on the busy timeout
// instead of failing when a reader upgrades.
func dsn(path string) string {
	return path + "?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000&_txlock=immediate"
}

// NewStore opens or creates the database at DataDir/DBFile and creates the
// schema if it does not exist.
func NewStore(cfg types.StorageConfig, pages PageReleaser, log zerolog.Logger) (*Store, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := cfg.DBFile
	if !filepath.IsAbs(dbPath) {
		dbPath = filepath.Join(cfg.DataDir, dbPath)
	}
	db, err := sql.Open("sqlite3", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:    db,
		pages: pages,
		log:   log.With().Str("component", "library").Logger(),
		now:   time.Now,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			created_at TEXT NOT NULL,
			title TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS pages (
			ref TEXT PRIMARY KEY,
			document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
			position INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_pages_document ON pages(document_id, position)`,
		`CREATE TABLE IF NOT EXISTS page_text (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			ref TEXT NOT NULL UNIQUE REFERENCES pages(ref) ON DELETE CASCADE,
			content TEXT NOT NULL,
			recognized_at TEXT NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 index over recognized page text, kept in sync by triggers.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='page_text_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists > 0 {
		s.fts = true
		return nil
	}

	ftsStatements := []string{
		`CREATE VIRTUAL TABLE page_text_fts USING fts5(content, content=page_text, content_rowid=rowid)`,
		`CREATE TRIGGER page_text_ai AFTER INSERT ON page_text BEGIN
			INSERT INTO page_text_fts(rowid, content) VALUES (new.rowid, new.content);
		END`,
		`CREATE TRIGGER page_text_ad AFTER DELETE ON page_text BEGIN
			INSERT INTO page_text_fts(page_text_fts, rowid, content) VALUES('delete', old.rowid, old.content);
		END`,
		`CREATE TRIGGER page_text_au AFTER UPDATE ON page_text BEGIN
			INSERT INTO page_text_fts(page_text_fts, rowid, content) VALUES('delete', old.rowid, old.content);
			INSERT INTO page_text_fts(rowid, content) VALUES (new.rowid, new.content);
		END`,
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning FTS setup: %w", err)
	}
	for _, stmt := range ftsStatements {
		if _, err := tx.Exec(stmt); err != nil {
			tx.Rollback()
			if strings.Contains(err.Error(), "no such module") {
				s.log.Warn().Msg("sqlite built without fts5; text search uses substring matching")
				return nil
			}
			return fmt.Errorf("creating FTS infrastructure: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing FTS setup: %w", err)
	}
	s.fts = true
	return nil
}

// Create stores a new document holding refs in order. A document is only
// created from at least one page.
func (s *Store) Create(ctx context.Context, title string, refs []types.PageRef) (*types.Document, error) {
	if len(refs) == 0 {
		return nil, types.ErrEmptyDocument
	}

	doc := &types.Document{
		ID:        uuid.NewString(),
		CreatedAt: s.now().UTC().Truncate(time.Second),
		Title:     title,
	}
	doc.Append(refs...)

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO documents (id, created_at, title) VALUES (?, ?, ?)`,
			doc.ID, doc.CreatedAt.Format(time.RFC3339), doc.Title,
		); err != nil {
			return fmt.Errorf("inserting document: %w", err)
		}
		return writePages(ctx, tx, doc)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("document", doc.ID).Int("pages", doc.PageCount()).Msg("created document")
	return doc, nil
}

// DefaultTitle returns "<source> yyyy-mm-dd hh:mm" for a document created
// at t, e.g. "Scan 2026-03-14 15:09".
func DefaultTitle(source string, t time.Time) string {
	return fmt.Sprintf("%s %s", source, t.Format("2006-01-02 15:04"))
}

// CreateFromJob creates a document from a succeeded job. A failed job never
// produces a document.
func (s *Store) CreateFromJob(ctx context.Context, job *types.ConversionJob, source string) (*types.Document, error) {
	if job == nil || !job.Succeeded() || len(job.Pages) == 0 {
		return nil, types.ErrNoPagesProduced
	}
	return s.Create(ctx, DefaultTitle(source, s.now()), job.Pages)
}

// Get loads a document by ID.
func (s *Store) Get(ctx context.Context, id string) (*types.Document, error) {
	doc, err := getDocument(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func getDocument(ctx context.Context, q queryer, id string) (*types.Document, error) {
	var (
		doc     types.Document
		created string
	)
	err := q.QueryRowContext(ctx,
		`SELECT id, created_at, title FROM documents WHERE id = ?`, id,
	).Scan(&doc.ID, &created, &doc.Title)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", types.ErrDocumentNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying document %s: %w", id, err)
	}
	doc.CreatedAt, _ = time.Parse(time.RFC3339, created)

	refs, err := pageRefs(ctx, q, id)
	if err != nil {
		return nil, err
	}
	doc.Pages = refs
	return &doc, nil
}

func pageRefs(ctx context.Context, q queryer, id string) ([]types.PageRef, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT ref FROM pages WHERE document_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("querying pages of %s: %w", id, err)
	}
	defer rows.Close()

	var refs []types.PageRef
	for rows.Next() {
		var ref string
		if err := rows.Scan(&ref); err != nil {
			return nil, fmt.Errorf("scanning page row: %w", err)
		}
		refs = append(refs, types.PageRef(ref))
	}
	return refs, rows.Err()
}

// List returns every document, newest first.
func (s *Store) List(ctx context.Context) ([]types.Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM documents ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning document row: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	docs := make([]types.Document, 0, len(ids))
	for _, id := range ids {
		doc, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	return docs, nil
}

// Save writes doc's title and page order. Pages dropped from doc lose their
// rows but their images are not released; use RemovePage or Delete for
// that. A reference owned by another document is rejected.
func (s *Store) Save(ctx context.Context, doc *types.Document) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE documents SET title = ? WHERE id = ?`, doc.Title, doc.ID)
		if err != nil {
			return fmt.Errorf("updating document %s: %w", doc.ID, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("%w: %s", types.ErrDocumentNotFound, doc.ID)
		}
		return writePages(ctx, tx, doc)
	})
}

// writePages makes the pages rows of doc match doc.Pages.
func writePages(ctx context.Context, tx *sql.Tx, doc *types.Document) error {
	want := make(map[types.PageRef]bool, len(doc.Pages))
	for _, ref := range doc.Pages {
		if want[ref] {
			return fmt.Errorf("page %s appears twice in document %s", ref, doc.ID)
		}
		want[ref] = true
	}

	existing, err := pageRefs(ctx, tx, doc.ID)
	if err != nil {
		return err
	}
	for _, ref := range existing {
		if want[ref] {
			continue
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM pages WHERE ref = ?`, string(ref)); err != nil {
			return fmt.Errorf("removing page %s: %w", ref, err)
		}
	}

	for i, ref := range doc.Pages {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO pages (ref, document_id, position) VALUES (?, ?, ?)
			ON CONFLICT(ref) DO UPDATE SET position = excluded.position
			WHERE pages.document_id = excluded.document_id`,
			string(ref), doc.ID, i,
		)
		if err != nil {
			return fmt.Errorf("writing page %s: %w", ref, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("page %s belongs to another document", ref)
		}
	}
	return nil
}

// Update loads a document, applies fn, and saves the result in one
// transaction. fn reports whether anything changed; when it returns false
// nothing is written.
func (s *Store) Update(ctx context.Context, id string, fn func(doc *types.Document) bool) (*types.Document, error) {
	var doc *types.Document
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var err error
		doc, err = getDocument(ctx, tx, id)
		if err != nil {
			return err
		}
		if !fn(doc) {
			return nil
		}
		if _, err := tx.ExecContext(ctx, `UPDATE documents SET title = ? WHERE id = ?`, doc.Title, doc.ID); err != nil {
			return fmt.Errorf("updating document %s: %w", doc.ID, err)
		}
		return writePages(ctx, tx, doc)
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// AppendPages adds refs to the end of an existing document.
func (s *Store) AppendPages(ctx context.Context, id string, refs []types.PageRef) (*types.Document, error) {
	return s.Update(ctx, id, func(doc *types.Document) bool {
		doc.Append(refs...)
		return len(refs) > 0
	})
}

// MovePage reorders one page of a document.
func (s *Store) MovePage(ctx context.Context, id string, ref types.PageRef, to int) (*types.Document, error) {
	return s.Update(ctx, id, func(doc *types.Document) bool {
		return doc.Move(ref, to)
	})
}

// Rename changes a document's title.
func (s *Store) Rename(ctx context.Context, id, title string) (*types.Document, error) {
	return s.Update(ctx, id, func(doc *types.Document) bool {
		if doc.Title == title {
			return false
		}
		doc.Rename(title)
		return true
	})
}

// RemovePage removes ref from the document and releases its image once the
// change is committed. Removing an absent page is a no-op.
func (s *Store) RemovePage(ctx context.Context, id string, ref types.PageRef) (*types.Document, bool, error) {
	var removed bool
	doc, err := s.Update(ctx, id, func(doc *types.Document) bool {
		removed = doc.Remove(ref)
		return removed
	})
	if err != nil {
		return nil, false, err
	}
	if removed {
		s.release(ref)
	}
	return doc, removed, nil
}

// Delete removes a document and releases every page image it owned.
func (s *Store) Delete(ctx context.Context, id string) error {
	var refs []types.PageRef
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var err error
		refs, err = pageRefs(ctx, tx, id)
		if err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("deleting document %s: %w", id, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("%w: %s", types.ErrDocumentNotFound, id)
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, ref := range refs {
		s.release(ref)
	}
	s.log.Info().Str("document", id).Int("pages", len(refs)).Msg("deleted document")
	return nil
}

// release frees a page image. The record is already gone, so a failure
// only leaks a file and is logged.
func (s *Store) release(ref types.PageRef) {
	if s.pages == nil {
		return
	}
	if err := s.pages.Delete(ref); err != nil {
		s.log.Warn().Err(err).Str("ref", string(ref)).Msg("could not release page image")
	}
}

func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}
