// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// InputKind classifies a conversion input. The normalizer dispatches on it.
type InputKind string

const (
	KindPDF          InputKind = "pdf"
	KindRasterizable InputKind = "rasterizable_document"
	KindImage        InputKind = "image"
	KindUnsupported  InputKind = "unsupported"
)

// JobState is the position of a ConversionJob in its state machine:
// idle -> converting -> {succeeded, failed}. Terminal states are absorbing.
type JobState string

const (
	JobIdle       JobState = "idle"
	JobConverting JobState = "converting"
	JobSucceeded  JobState = "succeeded"
	JobFailed     JobState = "failed"
)

// Terminal reports whether s is succeeded or failed.
func (s JobState) Terminal() bool {
	return s == JobSucceeded || s == JobFailed
}

// JobStatus is the reported outcome of a finished job.
type JobStatus string

const (
	StatusSucceeded JobStatus = "succeeded"
	StatusPartial   JobStatus = "partial_failure"
	StatusFailed    JobStatus = "failed"
	StatusPending   JobStatus = "pending"
)

// ConversionJob is one normalize-and-import request and its outcome. It is
// not persisted.
type ConversionJob struct {
	ID     string    `json:"id" yaml:"id"`
	Source string    `json:"source" yaml:"source"`
	Kind   InputKind `json:"kind" yaml:"kind"`
	State  JobState  `json:"state" yaml:"state"`

	// Pages holds the stored page references in source order.
	Pages []PageRef `json:"pages" yaml:"pages"`

	// Dropped counts pages lost to per-page render or codec errors.
	Dropped int `json:"dropped" yaml:"dropped"`

	// Err is the terminal error of a failed job.
	Err error `json:"-" yaml:"-"`

	StartedAt  time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time `json:"finished_at" yaml:"finished_at"`
}

// Status maps the job state to its reported outcome. A succeeded job that
// dropped pages is a partial failure, which still counts as success.
func (j *ConversionJob) Status() JobStatus {
	switch j.State {
	case JobSucceeded:
		if j.Dropped > 0 {
			return StatusPartial
		}
		return StatusSucceeded
	case JobFailed:
		return StatusFailed
	default:
		return StatusPending
	}
}

// Succeeded reports whether the job finished with at least one page.
func (j *ConversionJob) Succeeded() bool {
	return j.State == JobSucceeded
}
