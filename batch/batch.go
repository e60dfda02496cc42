package batch

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/glyphkit/o4e/errs"
)

// Job is one unit of rendering work submitted to a Run or RunStreaming. A
// zero Deadline means the job runs to completion unbounded; a non-zero one
// is enforced via context.WithDeadline — if Do has not returned by then,
// its eventual result is discarded and the job is reported Failed(Timeout).
type Job[T any] struct {
	ID       string
	Deadline time.Time
	Do       func() (T, error)
}

// Result is one Job's outcome plus the wall-clock time it took to run.
type Result[T any] struct {
	ID       string
	Value    T
	Err      error
	Duration time.Duration
}

// Report summarizes a completed Run: every job's Result plus latency
// percentiles over successful jobs, grounded on the sort-then-index
// percentile computation used to validate rasterizer timing
// (github.com/seehuhn-de/go-render's raster_test.go).
type Report[T any] struct {
	Results []Result[T]
	Failed  int
	P50     time.Duration
	P90     time.Duration
	P99     time.Duration
	Total   time.Duration
}

// Run executes jobs across pool's workers, returning one Result per job in
// the same order as jobs regardless of completion order, plus latency
// percentiles. The wall-clock Total reflects the whole batch, not the sum
// of individual durations. This is the C10 barrier variant: render_batch.
func Run[T any](pool *Pool, jobs []Job[T]) Report[T] {
	if len(jobs) == 0 {
		return Report[T]{}
	}

	results := make([]Result[T], len(jobs))
	start := time.Now()
	work := make([]func(), len(jobs))
	for i, j := range jobs {
		i, j := i, j
		work[i] = func() { results[i] = runJob(j) }
	}
	pool.ExecuteAll(work)

	return buildReport(results, time.Since(start))
}

// RunStreaming executes jobs across pool's workers via Submit rather than
// ExecuteAll's fixed round-robin slicing, and returns a channel that
// receives each Result as soon as its job completes — the C10 streaming
// variant: render_streaming. Results arrive in completion order, not input
// order; each carries its job's ID so a caller can reassemble or correlate
// them. The channel is closed once every job has reported.
func RunStreaming[T any](pool *Pool, jobs []Job[T]) <-chan Result[T] {
	out := make(chan Result[T], len(jobs))
	if len(jobs) == 0 {
		close(out)
		return out
	}

	var wg sync.WaitGroup
	wg.Add(len(jobs))
	for _, j := range jobs {
		j := j
		pool.Submit(func() {
			defer wg.Done()
			out <- runJob(j)
		})
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

// runJob executes j.Do, enforcing j.Deadline when set. A job with no
// deadline runs inline. A job with one races its own completion against
// context.WithDeadline: if the deadline wins, the (possibly still running)
// Do's eventual value is discarded and the job is reported Failed(Timeout)
// instead.
func runJob[T any](j Job[T]) Result[T] {
	start := time.Now()
	if j.Deadline.IsZero() {
		v, err := j.Do()
		return Result[T]{ID: j.ID, Value: v, Err: err, Duration: time.Since(start)}
	}

	ctx, cancel := context.WithDeadline(context.Background(), j.Deadline)
	defer cancel()

	done := make(chan Result[T], 1)
	go func() {
		v, err := j.Do()
		done <- Result[T]{ID: j.ID, Value: v, Err: err}
	}()

	select {
	case r := <-done:
		r.Duration = time.Since(start)
		return r
	case <-ctx.Done():
		return Result[T]{ID: j.ID, Err: errs.New(errs.Timeout, "batch.Run", ctx.Err()), Duration: time.Since(start)}
	}
}

func buildReport[T any](results []Result[T], total time.Duration) Report[T] {
	failed := 0
	durations := make([]int, 0, len(results))
	for _, r := range results {
		if r.Err != nil {
			failed++
			continue
		}
		durations = append(durations, int(r.Duration))
	}
	sort.Ints(durations)

	return Report[T]{
		Results: results,
		Failed:  failed,
		P50:     percentile(durations, 0.50),
		P90:     percentile(durations, 0.90),
		P99:     percentile(durations, 0.99),
		Total:   total,
	}
}

func percentile(sorted []int, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Round(p * float64(len(sorted)-1)))
	return time.Duration(sorted[idx])
}
