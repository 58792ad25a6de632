// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert drives conversion jobs: acquire the input, normalize it
// into page images, and store each page. Per-page failures are counted and
// skipped; a job succeeds when at least one page was stored.
package convert

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"iter"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pdiddy/photoscan/internal/normalize"
	"github.com/pdiddy/photoscan/pkg/types"
)

// Normalizer produces the pages of one input.
type Normalizer interface {
	Normalize(ctx context.Context, src normalize.Source) (iter.Seq[normalize.Page], error)
}

// PageWriter stores page images. Delete releases pages of a job that was
// cancelled after some pages were stored.
type PageWriter interface {
	Put(img image.Image) (types.PageRef, error)
	Delete(ref types.PageRef) error
}

// Orchestrator runs conversion jobs. It holds no per-job state, so one
// value can run many jobs concurrently.
type Orchestrator struct {
	normalizer Normalizer
	pages      PageWriter
	log        zerolog.Logger
	now        func() time.Time
}

// New returns an Orchestrator.
func New(n Normalizer, pages PageWriter, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		normalizer: n,
		pages:      pages,
		log:        log.With().Str("component", "convert").Logger(),
		now:        time.Now,
	}
}

func (o *Orchestrator) newJob(source string) *types.ConversionJob {
	return &types.ConversionJob{
		ID:     uuid.NewString(),
		Source: source,
		State:  types.JobIdle,
	}
}

func (o *Orchestrator) start(job *types.ConversionJob) {
	job.State = types.JobConverting
	job.StartedAt = o.now()
}

// fail moves job to failed unless it already reached a terminal state.
func (o *Orchestrator) fail(job *types.ConversionJob, err error) *types.ConversionJob {
	if job.State.Terminal() {
		return job
	}
	job.State = types.JobFailed
	job.Err = err
	job.FinishedAt = o.now()
	o.log.Warn().Err(err).Str("job", job.ID).Str("source", job.Source).Int("dropped", job.Dropped).Msg("job failed")
	return job
}

// finish settles a job from its collected pages.
func (o *Orchestrator) finish(job *types.ConversionJob, lastErr error) *types.ConversionJob {
	if job.State.Terminal() {
		return job
	}
	if len(job.Pages) == 0 {
		err := fmt.Errorf("%w: %s", types.ErrNoPagesProduced, job.Source)
		if lastErr != nil {
			err = fmt.Errorf("%w: %s: %w", types.ErrNoPagesProduced, job.Source, lastErr)
		}
		return o.fail(job, err)
	}
	job.State = types.JobSucceeded
	job.FinishedAt = o.now()
	o.log.Info().
		Str("job", job.ID).
		Str("source", job.Source).
		Str("kind", string(job.Kind)).
		Int("pages", len(job.Pages)).
		Int("dropped", job.Dropped).
		Dur("elapsed", job.FinishedAt.Sub(job.StartedAt)).
		Msg("job succeeded")
	return job
}

// Run converts one resource. The returned job is always terminal. The
// resource is released exactly once on every path, including a failed
// acquisition.
func (o *Orchestrator) Run(ctx context.Context, res Resource) *types.ConversionJob {
	job := o.newJob(res.Name())
	o.start(job)

	defer res.EndAccess()

	if err := res.BeginAccess(ctx); err != nil {
		if !errors.Is(err, types.ErrResourceAccessDenied) {
			err = fmt.Errorf("%w: %v", types.ErrResourceAccessDenied, err)
		}
		return o.fail(job, err)
	}

	data, err := readAll(res)
	if err != nil {
		return o.fail(job, fmt.Errorf("reading %s: %w", res.Name(), err))
	}

	job.Kind = normalize.Detect(res.Name(), data)
	pages, err := o.normalizer.Normalize(ctx, normalize.Source{Name: res.Name(), Data: data, Kind: job.Kind})
	if err != nil {
		return o.fail(job, err)
	}

	return o.collect(ctx, job, pages)
}

func readAll(res Resource) ([]byte, error) {
	rc, err := res.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// collect stores every page best-effort, in source order.
func (o *Orchestrator) collect(ctx context.Context, job *types.ConversionJob, pages iter.Seq[normalize.Page]) *types.ConversionJob {
	var lastErr error
	for p := range pages {
		if p.Err != nil {
			if ctx.Err() != nil {
				break
			}
			lastErr = p.Err
			job.Dropped++
			o.log.Warn().Err(p.Err).Str("job", job.ID).Int("page", p.Index).Msg("dropped page")
			continue
		}
		ref, err := o.pages.Put(p.Image)
		if err != nil {
			lastErr = err
			job.Dropped++
			o.log.Warn().Err(err).Str("job", job.ID).Int("page", p.Index).Msg("dropped page")
			continue
		}
		job.Pages = append(job.Pages, ref)
	}

	if err := ctx.Err(); err != nil {
		o.discard(job)
		return o.fail(job, err)
	}
	return o.finish(job, lastErr)
}

// discard releases pages stored by a job that will not succeed.
func (o *Orchestrator) discard(job *types.ConversionJob) {
	for _, ref := range job.Pages {
		if err := o.pages.Delete(ref); err != nil {
			o.log.Warn().Err(err).Str("job", job.ID).Str("ref", string(ref)).Msg("could not release page")
		}
	}
	job.Pages = nil
}

// Capture stores camera-captured page images as one job. There is no input
// resource to acquire.
func (o *Orchestrator) Capture(ctx context.Context, images []image.Image) *types.ConversionJob {
	job := o.newJob("capture")
	job.Kind = types.KindImage
	o.start(job)

	return o.collect(ctx, job, func(yield func(normalize.Page) bool) {
		for i, img := range images {
			p := normalize.Page{Index: i, Image: img}
			if img == nil || img.Bounds().Empty() {
				p = normalize.Page{Index: i, Err: fmt.Errorf("%w: captured page %d is empty", types.ErrCodec, i)}
			}
			if !yield(p) {
				return
			}
		}
	})
}
