package batch

import (
	"errors"
	"testing"
	"time"

	"github.com/glyphkit/o4e/errs"
)

func TestRunAllSucceed(t *testing.T) {
	pool := NewPool(4)
	defer pool.Close()

	jobs := make([]Job[int], 20)
	for i := range jobs {
		i := i
		jobs[i] = Job[int]{ID: "job", Do: func() (int, error) { return i * i, nil }}
	}

	report := Run(pool, jobs)
	if report.Failed != 0 {
		t.Fatalf("Failed = %d, want 0", report.Failed)
	}
	for i, r := range report.Results {
		if r.Err != nil {
			t.Fatalf("job %d: %v", i, r.Err)
		}
		if r.Value != i*i {
			t.Errorf("job %d: value = %d, want %d", i, r.Value, i*i)
		}
	}
}

func TestRunPreservesOrder(t *testing.T) {
	pool := NewPool(8)
	defer pool.Close()

	jobs := make([]Job[int], 50)
	for i := range jobs {
		i := i
		jobs[i] = Job[int]{Do: func() (int, error) {
			time.Sleep(time.Duration(50-i) * time.Microsecond)
			return i, nil
		}}
	}

	report := Run(pool, jobs)
	for i, r := range report.Results {
		if r.Value != i {
			t.Fatalf("result[%d].Value = %d, want %d (order not preserved)", i, r.Value, i)
		}
	}
}

func TestRunCountsFailures(t *testing.T) {
	pool := NewPool(2)
	defer pool.Close()

	jobs := []Job[int]{
		{Do: func() (int, error) { return 1, nil }},
		{Do: func() (int, error) { return 0, errors.New("boom") }},
		{Do: func() (int, error) { return 2, nil }},
	}

	report := Run(pool, jobs)
	if report.Failed != 1 {
		t.Fatalf("Failed = %d, want 1", report.Failed)
	}
}

func TestRunEmptyJobs(t *testing.T) {
	pool := NewPool(2)
	defer pool.Close()

	report := Run[int](pool, nil)
	if len(report.Results) != 0 {
		t.Fatalf("expected no results, got %d", len(report.Results))
	}
}

func TestPercentilesMonotonic(t *testing.T) {
	pool := NewPool(4)
	defer pool.Close()

	jobs := make([]Job[int], 100)
	for i := range jobs {
		i := i
		jobs[i] = Job[int]{Do: func() (int, error) {
			time.Sleep(time.Duration(i%5) * time.Microsecond)
			return i, nil
		}}
	}

	report := Run(pool, jobs)
	if report.P50 > report.P90 || report.P90 > report.P99 {
		t.Errorf("percentiles not monotonic: p50=%v p90=%v p99=%v", report.P50, report.P90, report.P99)
	}
}

func TestRunJobPastDeadlineReportsTimeout(t *testing.T) {
	pool := NewPool(2)
	defer pool.Close()

	jobs := []Job[int]{
		{
			ID:       "slow",
			Deadline: time.Now().Add(10 * time.Millisecond),
			Do: func() (int, error) {
				time.Sleep(50 * time.Millisecond)
				return 1, nil
			},
		},
	}
	report := Run(pool, jobs)
	if report.Failed != 1 {
		t.Fatalf("Failed = %d, want 1", report.Failed)
	}
	if !errors.Is(report.Results[0].Err, errs.ErrTimeout) {
		t.Fatalf("Err = %v, want errs.ErrTimeout", report.Results[0].Err)
	}
}

func TestRunJobBeforeDeadlineSucceeds(t *testing.T) {
	pool := NewPool(2)
	defer pool.Close()

	jobs := []Job[int]{
		{ID: "fast", Deadline: time.Now().Add(time.Second), Do: func() (int, error) { return 7, nil }},
	}
	report := Run(pool, jobs)
	if report.Failed != 0 {
		t.Fatalf("Failed = %d, want 0", report.Failed)
	}
	if report.Results[0].Value != 7 {
		t.Errorf("Value = %d, want 7", report.Results[0].Value)
	}
}

func TestRunStreamingDeliversAllResults(t *testing.T) {
	pool := NewPool(4)
	defer pool.Close()

	jobs := make([]Job[int], 20)
	for i := range jobs {
		i := i
		jobs[i] = Job[int]{ID: "job", Do: func() (int, error) {
			time.Sleep(time.Duration(20-i) * time.Microsecond)
			return i, nil
		}}
	}

	seen := make(map[int]bool)
	for r := range RunStreaming(pool, jobs) {
		if r.Err != nil {
			t.Fatalf("unexpected error: %v", r.Err)
		}
		seen[r.Value] = true
	}
	if len(seen) != len(jobs) {
		t.Fatalf("got %d distinct results, want %d", len(seen), len(jobs))
	}
}

func TestRunStreamingEmptyClosesImmediately(t *testing.T) {
	pool := NewPool(2)
	defer pool.Close()

	ch := RunStreaming[int](pool, nil)
	if _, ok := <-ch; ok {
		t.Fatal("expected channel to be closed with no results")
	}
}

func TestRunStreamingReportsTimeout(t *testing.T) {
	pool := NewPool(2)
	defer pool.Close()

	jobs := []Job[int]{
		{
			ID:       "slow",
			Deadline: time.Now().Add(10 * time.Millisecond),
			Do: func() (int, error) {
				time.Sleep(50 * time.Millisecond)
				return 1, nil
			},
		},
	}
	r := <-RunStreaming(pool, jobs)
	if !errors.Is(r.Err, errs.ErrTimeout) {
		t.Fatalf("Err = %v, want errs.ErrTimeout", r.Err)
	}
}

func TestPoolSubmitRunsWork(t *testing.T) {
	pool := NewPool(4)
	defer pool.Close()

	done := make(chan struct{})
	pool.Submit(func() { close(done) })
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Submit did not run the work item")
	}
}

func TestPoolSubmitNoopAfterClose(t *testing.T) {
	pool := NewPool(2)
	pool.Close()

	ran := false
	pool.Submit(func() { ran = true })
	if ran {
		t.Fatal("Submit ran work after Close")
	}
}

func TestPoolWorkStealing(t *testing.T) {
	pool := NewPool(4)
	defer pool.Close()

	var n int
	jobs := make([]Job[int], 40)
	for i := range jobs {
		jobs[i] = Job[int]{Do: func() (int, error) { return 1, nil }}
	}
	report := Run(pool, jobs)
	for _, r := range report.Results {
		n += r.Value
	}
	if n != 40 {
		t.Errorf("sum = %d, want 40", n)
	}
}
