// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func doc(refs ...PageRef) *Document {
	return &Document{ID: "d1", Title: "t", Pages: refs}
}

func TestDocumentEditScenario(t *testing.T) {
	d := doc("A", "B", "C")

	assert.True(t, d.Move("C", 0))
	assert.Equal(t, []PageRef{"C", "A", "B"}, d.Pages)

	assert.True(t, d.Remove("A"))
	assert.Equal(t, []PageRef{"C", "B"}, d.Pages)

	d.Rename("Receipts")
	assert.Equal(t, "Receipts", d.Title)
	assert.Equal(t, []PageRef{"C", "B"}, d.Pages)
	assert.Equal(t, 2, d.PageCount())
}

func TestDocumentMove(t *testing.T) {
	tests := []struct {
		name    string
		ref     PageRef
		to      int
		want    []PageRef
		changed bool
	}{
		{name: "to front", ref: "C", to: 0, want: []PageRef{"C", "A", "B"}, changed: true},
		{name: "to end", ref: "A", to: 2, want: []PageRef{"B", "C", "A"}, changed: true},
		{name: "past end clamps", ref: "A", to: 99, want: []PageRef{"B", "C", "A"}, changed: true},
		{name: "negative clamps", ref: "B", to: -3, want: []PageRef{"B", "A", "C"}, changed: true},
		{name: "same slot", ref: "B", to: 1, want: []PageRef{"A", "B", "C"}},
		{name: "absent ref", ref: "Z", to: 0, want: []PageRef{"A", "B", "C"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := doc("A", "B", "C")
			assert.Equal(t, tt.changed, d.Move(tt.ref, tt.to))
			assert.Equal(t, tt.want, d.Pages)
		})
	}
}

func TestDocumentMoveIdempotent(t *testing.T) {
	d := doc("A", "B", "C", "D")
	d.Move("D", 1)
	once := append([]PageRef(nil), d.Pages...)

	assert.False(t, d.Move("D", 1))
	assert.Equal(t, once, d.Pages)
}

func TestDocumentMovePreservesMultiset(t *testing.T) {
	d := doc("A", "B", "C", "D", "E")
	for _, step := range []struct {
		ref PageRef
		to  int
	}{{"A", 4}, {"E", 0}, {"C", 2}, {"B", 1}} {
		d.Move(step.ref, step.to)
		assert.ElementsMatch(t, []PageRef{"A", "B", "C", "D", "E"}, d.Pages)
	}
}

func TestDocumentRemove(t *testing.T) {
	d := doc("A", "B")
	assert.True(t, d.Remove("A"))
	assert.False(t, d.Remove("A"), "second remove is a no-op")
	assert.Equal(t, []PageRef{"B"}, d.Pages)

	assert.True(t, d.Remove("B"))
	assert.False(t, d.IsDisplayable())
	assert.Equal(t, -1, d.IndexOf("B"))
}

func TestDocumentAppend(t *testing.T) {
	d := doc("A")
	d.Append("B", "C")
	assert.Equal(t, []PageRef{"A", "B", "C"}, d.Pages)
	assert.Equal(t, 2, d.IndexOf("C"))
}
