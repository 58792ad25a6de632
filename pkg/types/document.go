// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// PageRef is an opaque handle to one stored page image. On disk it is the
// image filename inside the pages directory. A PageRef belongs to exactly
// one Document.
type PageRef string

// Document is an ordered collection of page images plus metadata. The order
// of Pages is the display and export order.
//
// A Document is not safe for concurrent mutation. Import and interactive
// editing must not write to the same Document at the same time.
type Document struct {
	// ID is an opaque unique identifier (a UUID string).
	ID string `json:"id" yaml:"id"`

	// CreatedAt is when the document was first created.
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`

	// Title is the user-visible, mutable name.
	Title string `json:"title" yaml:"title"`

	// Pages lists page references in display order.
	Pages []PageRef `json:"pages" yaml:"pages"`
}

// PageCount returns the number of pages in the document.
func (d *Document) PageCount() int {
	return len(d.Pages)
}

// IsDisplayable reports whether the document has at least one page.
func (d *Document) IsDisplayable() bool {
	return len(d.Pages) > 0
}

// IndexOf returns the position of ref, or -1 when it is not present.
func (d *Document) IndexOf(ref PageRef) int {
	for i, p := range d.Pages {
		if p == ref {
			return i
		}
	}
	return -1
}

// Append adds refs to the end of the document in the order given.
func (d *Document) Append(refs ...PageRef) {
	d.Pages = append(d.Pages, refs...)
}

// Remove deletes the first occurrence of ref. It reports whether anything
// was removed; removing an absent ref is a no-op.
func (d *Document) Remove(ref PageRef) bool {
	i := d.IndexOf(ref)
	if i < 0 {
		return false
	}
	d.Pages = append(d.Pages[:i], d.Pages[i+1:]...)
	return true
}

// Move takes ref out of its current slot and reinserts it at index to,
// where to is interpreted against the sequence after removal. Indexes
// outside [0, len] are clamped. Dropping ref onto the slot it already
// occupies leaves the sequence unchanged, so repeated identical moves are
// idempotent. Move reports whether the order changed.
func (d *Document) Move(ref PageRef, to int) bool {
	from := d.IndexOf(ref)
	if from < 0 {
		return false
	}

	rest := make([]PageRef, 0, len(d.Pages)-1)
	rest = append(rest, d.Pages[:from]...)
	rest = append(rest, d.Pages[from+1:]...)

	if to < 0 {
		to = 0
	}
	if to > len(rest) {
		to = len(rest)
	}
	if to == from {
		return false
	}

	out := make([]PageRef, 0, len(d.Pages))
	out = append(out, rest[:to]...)
	out = append(out, ref)
	out = append(out, rest[to:]...)
	d.Pages = out
	return true
}

// Rename sets the document title. Page order is unaffected.
func (d *Document) Rename(title string) {
	d.Title = title
}
