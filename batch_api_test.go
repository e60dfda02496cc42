package o4e_test

import (
	"strconv"
	"testing"
	"time"

	"golang.org/x/image/font/gofont/goregular"

	"github.com/glyphkit/o4e"
	"github.com/glyphkit/o4e/portable"
)

func testFont() o4e.Font { return o4e.Font{Bytes: goregular.TTF, SizePx: 16} }

func TestRenderBatchPreservesOrder(t *testing.T) {
	engine := o4e.NewWithBackend(portable.New())
	defer engine.Close()

	jobs := make([]o4e.BatchJob, 5)
	for i := range jobs {
		jobs[i] = o4e.BatchJob{ID: strconv.Itoa(i), Text: "x", Font: testFont(), Options: o4e.RenderOptions{Width: 20, Height: 20}}
	}
	report := engine.RenderBatch(jobs)
	if report.Failed != 0 {
		t.Fatalf("Failed = %d, want 0", report.Failed)
	}
	if len(report.Results) != len(jobs) {
		t.Fatalf("got %d results, want %d", len(report.Results), len(jobs))
	}
	for i, r := range report.Results {
		if r.ID != strconv.Itoa(i) {
			t.Errorf("Results[%d].ID = %q, want %q", i, r.ID, strconv.Itoa(i))
		}
	}
}

func TestRenderBatchReportsTimeout(t *testing.T) {
	engine := o4e.NewWithBackend(portable.New())
	defer engine.Close()

	// A generous render size keeps Do() running past a tight deadline
	// reliably, rather than racing an already-expired one.
	jobs := []o4e.BatchJob{
		{ID: "late", Text: "slow", Font: testFont(), Options: o4e.RenderOptions{Width: 2000, Height: 2000}, Deadline: time.Now().Add(time.Nanosecond)},
	}
	report := engine.RenderBatch(jobs)
	if report.Failed != 1 {
		t.Fatalf("Failed = %d, want 1", report.Failed)
	}
}

func TestRenderStreamDeliversEveryJob(t *testing.T) {
	engine := o4e.NewWithBackend(portable.New())
	defer engine.Close()

	jobs := make([]o4e.BatchJob, 6)
	for i := range jobs {
		jobs[i] = o4e.BatchJob{ID: "job", Text: "y", Font: testFont(), Options: o4e.RenderOptions{Width: 20, Height: 20}}
	}

	count := 0
	for r := range engine.RenderStream(jobs) {
		if r.Err != nil {
			t.Errorf("unexpected error: %v", r.Err)
		}
		count++
	}
	if count != len(jobs) {
		t.Fatalf("got %d streamed results, want %d", count, len(jobs))
	}
}
