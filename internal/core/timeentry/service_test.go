package timeentry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/ogurasousui/codex-timeclock/internal/core/fault"
)

type stubClock struct {
	mu  sync.Mutex
	now time.Time
}

func (s *stubClock) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

func (s *stubClock) set(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = t
}

type fakeEntryRepo struct {
	mu        sync.Mutex
	entries   []Entry
	seq       int
	listErr   error
	appendErr error
}

func (r *fakeEntryRepo) Append(_ context.Context, e *Entry) (*Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.appendErr != nil {
		return nil, r.appendErr
	}
	r.seq++
	clone := *e
	clone.ID = fmt.Sprintf("entry-%d", r.seq)
	r.entries = append(r.entries, clone)
	out := clone
	return &out, nil
}

func (r *fakeEntryRepo) ListBetween(_ context.Context, employeeID string, from, to time.Time) ([]Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []Entry
	for _, e := range r.entries {
		if e.EmployeeID == employeeID && !e.Timestamp.Before(from) && e.Timestamp.Before(to) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

func (r *fakeEntryRepo) count(kind Kind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.entries {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

func TestService_StartEndShift_ScenarioA(t *testing.T) {
	t.Parallel()

	repo := &fakeEntryRepo{}
	clk := &stubClock{now: at(9, 0)}
	svc := NewService(repo, clk, nil, nil)

	started, err := svc.StartShift(context.Background(), "emp-1")
	if err != nil {
		t.Fatalf("StartShift returned error: %v", err)
	}
	if started.Kind != KindEntrance || !started.Timestamp.Equal(at(9, 0)) || started.ID == "" {
		t.Fatalf("unexpected entrance: %+v", started)
	}

	clk.set(at(17, 30))
	ended, err := svc.EndShift(context.Background(), "emp-1")
	if err != nil {
		t.Fatalf("EndShift returned error: %v", err)
	}
	if ended.Entry.Kind != KindExit || !ended.Entry.Timestamp.Equal(at(17, 30)) {
		t.Fatalf("unexpected exit: %+v", ended.Entry)
	}
	if ended.Entrance.ID != started.ID {
		t.Fatalf("expected exit to match entrance %s, got %s", started.ID, ended.Entrance.ID)
	}
	if ended.Hours.String() != "8.5" {
		t.Fatalf("expected 8.5 hours, got %s", ended.Hours)
	}
}

func TestService_StartShift_TwiceConflicts_ScenarioC(t *testing.T) {
	t.Parallel()

	repo := &fakeEntryRepo{}
	clk := &stubClock{now: at(9, 0)}
	svc := NewService(repo, clk, nil, nil)

	if _, err := svc.StartShift(context.Background(), "emp-1"); err != nil {
		t.Fatalf("first StartShift returned error: %v", err)
	}

	clk.set(at(9, 5))
	_, err := svc.StartShift(context.Background(), "emp-1")
	if !errors.Is(err, ErrShiftAlreadyOpen) || !errors.Is(err, fault.ErrConflict) {
		t.Fatalf("expected ErrShiftAlreadyOpen, got %v", err)
	}
	if n := repo.count(KindEntrance); n != 1 {
		t.Fatalf("expected exactly one entrance, got %d", n)
	}
}

func TestService_StartShift_AfterClosedShift(t *testing.T) {
	t.Parallel()

	repo := &fakeEntryRepo{}
	clk := &stubClock{now: at(9, 0)}
	svc := NewService(repo, clk, nil, nil)

	if _, err := svc.StartShift(context.Background(), "emp-1"); err != nil {
		t.Fatalf("StartShift returned error: %v", err)
	}
	clk.set(at(12, 0))
	if _, err := svc.EndShift(context.Background(), "emp-1"); err != nil {
		t.Fatalf("EndShift returned error: %v", err)
	}
	clk.set(at(13, 0))
	if _, err := svc.StartShift(context.Background(), "emp-1"); err != nil {
		t.Fatalf("expected a new shift after closing, got %v", err)
	}
}

func TestService_StartShift_YesterdayOpenDoesNotBlock(t *testing.T) {
	t.Parallel()

	repo := &fakeEntryRepo{}
	clk := &stubClock{now: at(9, 0).AddDate(0, 0, -1)}
	svc := NewService(repo, clk, nil, nil)

	if _, err := svc.StartShift(context.Background(), "emp-1"); err != nil {
		t.Fatalf("StartShift returned error: %v", err)
	}

	clk.set(at(9, 0))
	if _, err := svc.StartShift(context.Background(), "emp-1"); err != nil {
		t.Fatalf("expected yesterday's open entrance to be ignored, got %v", err)
	}
	if _, err := svc.EndShift(context.Background(), "emp-2"); !errors.Is(err, ErrNoOpenShift) {
		t.Fatalf("expected ErrNoOpenShift for other employee, got %v", err)
	}
}

func TestService_EndShift_NoOpenShift(t *testing.T) {
	t.Parallel()

	repo := &fakeEntryRepo{}
	svc := NewService(repo, &stubClock{now: at(17, 0)}, nil, nil)

	_, err := svc.EndShift(context.Background(), "emp-1")
	if !errors.Is(err, ErrNoOpenShift) {
		t.Fatalf("expected ErrNoOpenShift, got %v", err)
	}
	if n := repo.count(KindExit); n != 0 {
		t.Fatalf("expected no exit to be written, got %d", n)
	}
}

func TestService_ConcurrentStartShift(t *testing.T) {
	t.Parallel()

	repo := &fakeEntryRepo{}
	svc := NewService(repo, &stubClock{now: at(9, 0)}, nil, nil)

	const callers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.StartShift(context.Background(), "emp-1")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, ErrShiftAlreadyOpen):
				conflicts++
			}
		}()
	}
	wg.Wait()

	if successes != 1 || conflicts != callers-1 {
		t.Fatalf("expected 1 success and %d conflicts, got %d and %d", callers-1, successes, conflicts)
	}
	if n := repo.count(KindEntrance); n != 1 {
		t.Fatalf("expected exactly one entrance, got %d", n)
	}
}

func TestService_StoreErrorsPropagate(t *testing.T) {
	t.Parallel()

	storeErr := errors.New("connection refused")
	repo := &fakeEntryRepo{listErr: storeErr}
	svc := NewService(repo, &stubClock{now: at(9, 0)}, nil, nil)

	if _, err := svc.StartShift(context.Background(), "emp-1"); !errors.Is(err, storeErr) {
		t.Fatalf("expected store error, got %v", err)
	}

	repo = &fakeEntryRepo{appendErr: storeErr}
	svc = NewService(repo, &stubClock{now: at(9, 0)}, nil, nil)
	if _, err := svc.StartShift(context.Background(), "emp-1"); !errors.Is(err, storeErr) {
		t.Fatalf("expected append error, got %v", err)
	}
}

func TestService_InvalidEmployeeID(t *testing.T) {
	t.Parallel()

	svc := NewService(&fakeEntryRepo{}, &stubClock{now: at(9, 0)}, nil, nil)

	if _, err := svc.StartShift(context.Background(), "  "); !errors.Is(err, ErrInvalidEmployeeID) {
		t.Fatalf("expected ErrInvalidEmployeeID, got %v", err)
	}
	if _, err := svc.DailyEntries(context.Background(), "", at(9, 0)); !errors.Is(err, ErrInvalidEmployeeID) {
		t.Fatalf("expected ErrInvalidEmployeeID, got %v", err)
	}
}

func TestService_DailyEntries(t *testing.T) {
	t.Parallel()

	repo := &fakeEntryRepo{}
	clk := &stubClock{now: at(9, 0)}
	svc := NewService(repo, clk, nil, nil)

	for _, step := range []struct {
		when  time.Time
		start bool
	}{
		{when: at(9, 0), start: true},
		{when: at(12, 0)},
		{when: at(13, 0), start: true},
	} {
		clk.set(step.when)
		var err error
		if step.start {
			_, err = svc.StartShift(context.Background(), "emp-1")
		} else {
			_, err = svc.EndShift(context.Background(), "emp-1")
		}
		if err != nil {
			t.Fatalf("seed step at %v failed: %v", step.when, err)
		}
	}

	clk.set(at(9, 0).AddDate(0, 0, 1))
	if _, err := svc.StartShift(context.Background(), "emp-1"); err != nil {
		t.Fatalf("next day StartShift failed: %v", err)
	}

	entries, err := svc.DailyEntries(context.Background(), "emp-1", at(15, 0))
	if err != nil {
		t.Fatalf("DailyEntries returned error: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries for the day, got %d", len(entries))
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].Timestamp.Before(entries[i-1].Timestamp) {
			t.Fatalf("entries not ascending: %+v", entries)
		}
	}
	if entries[0].Kind != KindEntrance || entries[1].Kind != KindExit || entries[2].Kind != KindEntrance {
		t.Fatalf("unexpected kinds: %+v", entries)
	}
}
