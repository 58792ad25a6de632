// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/photoscan/pkg/types"
)

// BatchResult holds the outcome of a batch run.
type BatchResult struct {
	Succeeded int
	Partial   int
	Failed    int
	Pages     int
	Dropped   int
}

// Total returns the number of jobs.
func (r BatchResult) Total() int {
	return r.Succeeded + r.Partial + r.Failed
}

// HasFailures reports whether any job failed.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// Summarize counts job outcomes.
func Summarize(jobs []*types.ConversionJob) BatchResult {
	var r BatchResult
	for _, j := range jobs {
		switch j.Status() {
		case types.StatusSucceeded:
			r.Succeeded++
		case types.StatusPartial:
			r.Partial++
		default:
			r.Failed++
		}
		r.Pages += len(j.Pages)
		r.Dropped += j.Dropped
	}
	return r
}

// Print writes the one-line batch summary.
func (r BatchResult) Print(w io.Writer) {
	fmt.Fprintf(w, "\nBatch summary: %d succeeded, %d partial, %d failed (total: %d, pages: %d, dropped: %d)\n",
		r.Succeeded, r.Partial, r.Failed, r.Total(), r.Pages, r.Dropped)
}

// RunBatch runs one job per resource with at most limit in flight. Jobs
// share nothing, and a failed job does not stop the others. Results are in
// input order. done, if set, is called as each job finishes and may be
// called from several goroutines at once.
func (o *Orchestrator) RunBatch(ctx context.Context, resources []Resource, limit int, done func(*types.ConversionJob)) []*types.ConversionJob {
	jobs := make([]*types.ConversionJob, len(resources))

	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, res := range resources {
		g.Go(func() error {
			job := o.Run(ctx, res)
			jobs[i] = job
			if done != nil {
				done(job)
			}
			return nil
		})
	}
	g.Wait()

	return jobs
}
