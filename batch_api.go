package o4e

import (
	"sync"
	"time"

	"github.com/glyphkit/o4e/batch"
)

// BatchJob is one unit of render_batch/render_streaming work: an
// identifier plus the same arguments Render takes. A zero Deadline means
// the job has no per-job timeout; a non-zero one reports Failed(Timeout)
// (errs.Timeout) if rendering hasn't finished by then.
type BatchJob struct {
	ID       string
	Text     string
	Font     Font
	Options  RenderOptions
	Deadline time.Time
}

// BatchReport is the render_batch summary: one RenderOutput or error per
// job, in input order, plus latency percentiles.
type BatchReport = batch.Report[RenderOutput]

// BatchStreamResult is one job's outcome from RenderStream, tagged with its
// job ID so a caller can reassemble or correlate out-of-order completions.
type BatchStreamResult = batch.Result[RenderOutput]

func (e *Engine) ensurePool() {
	e.poolOnce.Do(func() { e.pool = batch.NewPool(0) })
}

func toBatchJob(j BatchJob, render func() (RenderOutput, error)) batch.Job[RenderOutput] {
	return batch.Job[RenderOutput]{ID: j.ID, Deadline: j.Deadline, Do: render}
}

// RenderBatch dispatches jobs across the Engine's worker pool, created
// lazily on first use with GOMAXPROCS workers, and blocks until every job
// has completed. Results preserve input order regardless of completion
// order. This is the C10 barrier variant: render_batch.
func (e *Engine) RenderBatch(jobs []BatchJob) BatchReport {
	e.ensurePool()

	batchJobs := make([]batch.Job[RenderOutput], len(jobs))
	for i, j := range jobs {
		j := j
		batchJobs[i] = toBatchJob(j, func() (RenderOutput, error) {
			return e.backend.Render(j.Text, j.Font, j.Options)
		})
	}
	return batch.Run(e.pool, batchJobs)
}

// RenderStream dispatches jobs across the Engine's worker pool and returns
// a channel delivering each BatchStreamResult as soon as its job finishes,
// rather than waiting for the whole batch. This is the C10 streaming
// variant: render_streaming. The channel closes once every job has
// reported.
func (e *Engine) RenderStream(jobs []BatchJob) <-chan BatchStreamResult {
	e.ensurePool()

	batchJobs := make([]batch.Job[RenderOutput], len(jobs))
	for i, j := range jobs {
		j := j
		batchJobs[i] = toBatchJob(j, func() (RenderOutput, error) {
			return e.backend.Render(j.Text, j.Font, j.Options)
		})
	}
	return batch.RunStreaming(e.pool, batchJobs)
}

// Close releases the Engine's batch worker pool, if one was created. Safe
// to call even if RenderBatch/RenderStream was never used.
func (e *Engine) Close() {
	if e.pool != nil {
		e.pool.Close()
	}
}
