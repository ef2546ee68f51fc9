package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/carepulse/carepulse/pkg/types"
)

func run(hospital string) *types.Run {
	return &types.Run{
		Source:   "test",
		Analysis: types.Analysis{Hospital: types.HospitalStress{HospitalID: hospital}},
	}
}

// fixedClock returns a func() time.Time that always returns t.
func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

func TestPutAndGet(t *testing.T) {
	st := New(5*time.Minute, 10)
	r := st.Put(run("H1"))

	if r.ID == "" {
		t.Fatal("Put: expected an id to be assigned")
	}
	if r.ReceivedAt.IsZero() {
		t.Fatal("Put: expected ReceivedAt to be set")
	}
	got, ok := st.Get(r.ID)
	if !ok {
		t.Fatal("Get: expected run, got none")
	}
	if got.Analysis.Hospital.HospitalID != "H1" {
		t.Errorf("HospitalID: got %q, want H1", got.Analysis.Hospital.HospitalID)
	}
}

func TestPut_AssignsDistinctIDs(t *testing.T) {
	st := New(5*time.Minute, 10)
	a := st.Put(run("H1"))
	b := st.Put(run("H1"))
	if a.ID == b.ID {
		t.Fatalf("ids collide: %q", a.ID)
	}
	if st.Count() != 2 {
		t.Errorf("Count: got %d, want 2", st.Count())
	}
}

func TestGet_Missing(t *testing.T) {
	st := New(5*time.Minute, 10)
	if _, ok := st.Get("unknown"); ok {
		t.Fatal("Get on empty store: expected false, got true")
	}
}

func TestLatest(t *testing.T) {
	st := New(5*time.Minute, 10)
	if _, ok := st.Latest(); ok {
		t.Fatal("Latest on empty store: expected false")
	}
	st.Put(run("H1"))
	second := st.Put(run("H2"))

	got, ok := st.Latest()
	if !ok || got.ID != second.ID {
		t.Fatalf("Latest: got %v, want %s", got, second.ID)
	}
}

func TestList_NewestFirstExcludesStale(t *testing.T) {
	base := time.Now()
	st := New(5*time.Minute, 10)

	st.now = fixedClock(base.Add(-10 * time.Minute)) // stale
	st.Put(run("old"))

	st.now = fixedClock(base.Add(-time.Minute))
	st.Put(run("a"))
	st.now = fixedClock(base)
	st.Put(run("b"))

	runs := st.List()
	if len(runs) != 2 {
		t.Fatalf("List: got %d runs, want 2", len(runs))
	}
	if runs[0].Analysis.Hospital.HospitalID != "b" || runs[1].Analysis.Hospital.HospitalID != "a" {
		t.Errorf("List order: got %s, %s", runs[0].Analysis.Hospital.HospitalID, runs[1].Analysis.Hospital.HospitalID)
	}
}

func TestGet_HidesStale(t *testing.T) {
	base := time.Now()
	st := New(5*time.Minute, 10)

	st.now = fixedClock(base.Add(-10 * time.Minute))
	r := st.Put(run("old"))

	st.now = fixedClock(base)
	if _, ok := st.Get(r.ID); ok {
		t.Fatal("Get: expected stale run to be hidden")
	}
	if _, ok := st.Latest(); ok {
		t.Fatal("Latest: expected stale run to be hidden")
	}
	// Count includes it until eviction.
	if n := st.Count(); n != 1 {
		t.Errorf("Count: got %d, want 1", n)
	}
}

func TestPut_DropsOldestBeyondMax(t *testing.T) {
	st := New(5*time.Minute, 2)
	first := st.Put(run("1"))
	st.Put(run("2"))
	st.Put(run("3"))

	if st.Count() != 2 {
		t.Fatalf("Count: got %d, want 2", st.Count())
	}
	if _, ok := st.Get(first.ID); ok {
		t.Error("oldest run should have been dropped")
	}
}

func TestEvict_RemovesStale(t *testing.T) {
	base := time.Now()
	st := New(5*time.Minute, 10)

	st.now = fixedClock(base.Add(-10 * time.Minute))
	st.Put(run("old1"))
	st.Put(run("old2"))

	st.now = fixedClock(base)
	live := st.Put(run("live"))

	if removed := st.Evict(base); removed != 2 {
		t.Errorf("Evict: removed %d, want 2", removed)
	}
	if st.Count() != 1 {
		t.Errorf("Count after evict: got %d, want 1", st.Count())
	}
	if got, ok := st.Latest(); !ok || got.ID != live.ID {
		t.Error("Latest after evict: expected the live run")
	}
}

func TestEvict_NoOp_AllLive(t *testing.T) {
	base := time.Now()
	st := New(5*time.Minute, 10)
	st.now = fixedClock(base)
	st.Put(run("H1"))

	if removed := st.Evict(base); removed != 0 {
		t.Errorf("Evict on live run: removed %d, want 0", removed)
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	st := New(time.Minute, 10)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		st.Run(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestConcurrentMixedOps(t *testing.T) {
	st := New(5*time.Minute, 20)
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(3)
		go func() {
			defer wg.Done()
			st.Put(run("H"))
		}()
		go func() {
			defer wg.Done()
			st.List()
		}()
		go func() {
			defer wg.Done()
			st.Latest()
		}()
	}
	wg.Wait()

	if st.Count() != 20 {
		t.Errorf("Count: got %d, want 20", st.Count())
	}
}
