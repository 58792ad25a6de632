// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ocr

import (
	"context"
	"errors"
	"image"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/photoscan/pkg/types"
)

type fakeRecognizer struct {
	regions []Region
	err     error
	level   Level
	calls   int
}

func (f *fakeRecognizer) Recognize(_ context.Context, _ image.Image, level Level) ([]Region, error) {
	f.calls++
	f.level = level
	return f.regions, f.err
}

func page() image.Image { return image.NewGray(image.Rect(0, 0, 20, 20)) }

func TestExtractJoinsRegionsInOrder(t *testing.T) {
	rec := &fakeRecognizer{regions: []Region{
		{Text: "INVOICE #42", Confidence: 0.98},
		{Text: "Total: 12.50", Confidence: 0.91},
		{Text: "Thank you", Confidence: 0.77},
	}}
	e := NewExtractor(rec, zerolog.Nop())

	text, err := e.Extract(context.Background(), page())
	require.NoError(t, err)
	assert.Equal(t, "INVOICE #42\nTotal: 12.50\nThank you", text)
	assert.Equal(t, LevelAccurate, rec.level)
}

func TestExtractErrors(t *testing.T) {
	tests := []struct {
		name      string
		img       image.Image
		rec       *fakeRecognizer
		want      error
		wantCalls int
	}{
		{name: "nil image", img: nil, rec: &fakeRecognizer{}, want: types.ErrRecognition},
		{name: "empty bounds", img: image.NewRGBA(image.Rectangle{}), rec: &fakeRecognizer{}, want: types.ErrRecognition},
		{name: "engine error", img: page(), rec: &fakeRecognizer{err: errors.New("tesseract crashed")}, want: types.ErrRecognition, wantCalls: 1},
		{name: "no regions", img: page(), rec: &fakeRecognizer{}, want: types.ErrNoTextFound, wantCalls: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, err := NewExtractor(tt.rec, zerolog.Nop()).Extract(context.Background(), tt.img)
			assert.Empty(t, text)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, tt.wantCalls, tt.rec.calls)
		})
	}
}

func TestNoTextFoundIsDistinctFromFailure(t *testing.T) {
	_, err := NewExtractor(&fakeRecognizer{}, zerolog.Nop()).Extract(context.Background(), page())
	assert.ErrorIs(t, err, types.ErrNoTextFound)
	assert.NotErrorIs(t, err, types.ErrRecognition)
}

func TestExtractSingleEmptyRegion(t *testing.T) {
	text, err := NewExtractor(&fakeRecognizer{regions: []Region{{Text: ""}}}, zerolog.Nop()).
		Extract(context.Background(), page())
	require.NoError(t, err)
	assert.Equal(t, "", text)
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "accurate", LevelAccurate.String())
	assert.Equal(t, "fast", LevelFast.String())
}
