package visit

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/xecut-space/xecut-bot/internal/db"
)

func testSetup(t *testing.T) *Store {
	t.Helper()
	d, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if err := d.Close(); err != nil {
			t.Errorf("close db: %v", err)
		}
	})
	return NewStore(d)
}

func mustDay(t *testing.T, s string) Day {
	t.Helper()
	d, err := ParseDay(s)
	if err != nil {
		t.Fatalf("parse day %s: %v", s, err)
	}
	return d
}

func ptr(s string) *string { return &s }

func TestUpsertAndGet(t *testing.T) {
	store := testSetup(t)
	ctx := context.Background()
	day := mustDay(t, "2025-08-08")

	changed, err := store.UpsertVisit(ctx, Update{Person: 1, Day: day, Purpose: ptr("work"), Status: Planned})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if !changed {
		t.Error("insert should report a change")
	}

	visits, err := store.GetVisits(ctx, day, day)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(visits) != 1 {
		t.Fatalf("got %d visits, want 1", len(visits))
	}
	want := Visit{Person: 1, Day: day, Purpose: "work", Status: Planned}
	if visits[0] != want {
		t.Errorf("visit = %+v, want %+v", visits[0], want)
	}
}

func TestUpsertChangeDetection(t *testing.T) {
	store := testSetup(t)
	ctx := context.Background()
	day := mustDay(t, "2025-08-08")

	changed, err := store.UpsertVisit(ctx, Update{Person: 2, Day: day, Purpose: ptr("work"), Status: Planned})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if !changed {
		t.Error("insert should report a change")
	}

	// Status change reports true.
	changed, err = store.UpsertVisit(ctx, Update{Person: 2, Day: day, Purpose: ptr("meeting"), Status: CheckedIn})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if !changed {
		t.Error("status change should report a change")
	}

	// Identical update reports false.
	changed, err = store.UpsertVisit(ctx, Update{Person: 2, Day: day, Purpose: ptr("meeting"), Status: CheckedIn})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if changed {
		t.Error("no-op update should not report a change")
	}

	// Purpose-only edit persists but is not change-worthy.
	changed, err = store.UpsertVisit(ctx, Update{Person: 2, Day: day, Purpose: ptr("soldering"), Status: CheckedIn})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if changed {
		t.Error("purpose-only edit should not report a change")
	}

	visits, err := store.GetVisits(ctx, day, day)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(visits) != 1 {
		t.Fatalf("got %d visits, want 1", len(visits))
	}
	if visits[0].Purpose != "soldering" {
		t.Errorf("purpose = %q, want %q (purpose-only edits still persist)", visits[0].Purpose, "soldering")
	}
}

func TestUpsertNilPurposePreserved(t *testing.T) {
	store := testSetup(t)
	ctx := context.Background()
	day := mustDay(t, "2025-08-08")

	if _, err := store.UpsertVisit(ctx, Update{Person: 3, Day: day, Purpose: ptr("robotics"), Status: Planned}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	changed, err := store.UpsertVisit(ctx, Update{Person: 3, Day: day, Purpose: nil, Status: CheckedIn})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if !changed {
		t.Error("check-in should report a change")
	}

	visits, err := store.GetVisits(ctx, day, day)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	want := Visit{Person: 3, Day: day, Purpose: "robotics", Status: CheckedIn}
	if len(visits) != 1 || visits[0] != want {
		t.Errorf("visits = %+v, want [%+v]", visits, want)
	}
}

func TestUpsertNilPurposeDefaultsEmpty(t *testing.T) {
	store := testSetup(t)
	ctx := context.Background()
	day := mustDay(t, "2025-08-08")

	if _, err := store.UpsertVisit(ctx, Update{Person: 4, Day: day, Status: CheckedIn}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	visits, err := store.GetVisits(ctx, day, day)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(visits) != 1 || visits[0].Purpose != "" {
		t.Errorf("visits = %+v, want one with empty purpose", visits)
	}
}

func TestGetVisitsRange(t *testing.T) {
	store := testSetup(t)
	ctx := context.Background()
	day1 := mustDay(t, "2025-08-07")
	day2 := mustDay(t, "2025-08-08")
	day3 := mustDay(t, "2025-08-09")

	if _, err := store.UpsertVisit(ctx, Update{Person: 10, Day: day1, Purpose: ptr("foo"), Status: Planned}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if _, err := store.UpsertVisit(ctx, Update{Person: 11, Day: day2, Purpose: ptr("bar"), Status: CheckedIn}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	both, err := store.GetVisits(ctx, day1, day2)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(both) != 2 {
		t.Errorf("range [day1,day2]: got %d visits, want 2", len(both))
	}

	single, err := store.GetVisits(ctx, day1, day1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(single) != 1 || single[0].Person != 10 {
		t.Errorf("range [day1,day1] = %+v, want only person 10", single)
	}

	empty, err := store.GetVisits(ctx, day3, day3)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("empty range returned %d visits", len(empty))
	}
}

func TestDeleteVisit(t *testing.T) {
	store := testSetup(t)
	ctx := context.Background()
	day := mustDay(t, "2025-08-08")

	if _, err := store.UpsertVisit(ctx, Update{Person: 5, Day: day, Purpose: ptr("delete"), Status: Planned}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	deleted, err := store.DeleteVisit(ctx, 5, day)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !deleted {
		t.Error("delete of existing visit should report true")
	}

	visits, err := store.GetVisits(ctx, day, day)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(visits) != 0 {
		t.Errorf("got %d visits after delete, want 0", len(visits))
	}

	// Second delete is a no-op, not an error.
	deleted, err = store.DeleteVisit(ctx, 5, day)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if deleted {
		t.Error("delete of missing visit should report false")
	}
}

func TestCheckOutEverybody(t *testing.T) {
	store := testSetup(t)
	ctx := context.Background()
	day := mustDay(t, "2025-08-08")
	other := mustDay(t, "2025-08-09")

	if _, err := store.UpsertVisit(ctx, Update{Person: 1, Day: day, Purpose: ptr("laser"), Status: Planned}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if _, err := store.UpsertVisit(ctx, Update{Person: 2, Day: day, Purpose: ptr("cnc"), Status: CheckedIn}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if _, err := store.UpsertVisit(ctx, Update{Person: 3, Day: other, Status: Planned}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	if err := store.CheckOutEverybody(ctx, day); err != nil {
		t.Fatalf("check out everybody: %v", err)
	}

	visits, err := store.GetVisits(ctx, day, day)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(visits) != 2 {
		t.Fatalf("got %d visits, want 2", len(visits))
	}
	for _, v := range visits {
		if v.Status != CheckedOut {
			t.Errorf("person %d status = %v, want CheckedOut", v.Person, v.Status)
		}
		if v.Purpose == "" {
			t.Errorf("person %d purpose was wiped", v.Person)
		}
	}

	// Other days are untouched.
	visits, err = store.GetVisits(ctx, other, other)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(visits) != 1 || visits[0].Status != Planned {
		t.Errorf("other day = %+v, want one Planned visit", visits)
	}
}

func TestCleanupBoundary(t *testing.T) {
	store := testSetup(t)
	ctx := context.Background()
	now := mustDay(t, "2025-08-08")

	cases := []struct {
		person Uid
		day    Day
		kept   bool
	}{
		{1, now - RetentionDays + 1, true},
		{2, now - RetentionDays, true}, // exactly at the horizon: kept
		{3, now - RetentionDays - 1, false},
		{4, now, true},
	}
	for _, c := range cases {
		if _, err := store.UpsertVisit(ctx, Update{Person: c.person, Day: c.day, Status: Planned}); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}

	if err := store.Cleanup(ctx, now); err != nil {
		t.Fatalf("cleanup: %v", err)
	}

	visits, err := store.GetVisits(ctx, now-RetentionDays-10, now)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	remaining := make(map[Uid]bool)
	for _, v := range visits {
		remaining[v.Person] = true
	}
	for _, c := range cases {
		if remaining[c.person] != c.kept {
			t.Errorf("person %d (day %s): kept = %v, want %v", c.person, c.day, remaining[c.person], c.kept)
		}
	}
}

func TestPlanThenCheckInScenario(t *testing.T) {
	store := testSetup(t)
	ctx := context.Background()
	day := mustDay(t, "2025-08-08")

	changed, err := store.UpsertVisit(ctx, Update{Person: 1, Day: day, Purpose: ptr("robotics"), Status: Planned})
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if !changed {
		t.Error("plan should report a change")
	}

	visits, err := store.GetVisits(ctx, day, day)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	want := Visit{Person: 1, Day: day, Purpose: "robotics", Status: Planned}
	if len(visits) != 1 || visits[0] != want {
		t.Fatalf("after plan: %+v, want [%+v]", visits, want)
	}

	changed, err = store.UpsertVisit(ctx, Update{Person: 1, Day: day, Status: CheckedIn})
	if err != nil {
		t.Fatalf("check in: %v", err)
	}
	if !changed {
		t.Error("check-in should report a change")
	}

	visits, err = store.GetVisits(ctx, day, day)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	want.Status = CheckedIn
	if len(visits) != 1 || visits[0] != want {
		t.Errorf("after check-in: %+v, want [%+v] (purpose preserved)", visits, want)
	}
}

func TestRunSweeperCancellation(t *testing.T) {
	store := testSetup(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		store.RunSweeper(ctx)
		close(done)
	}()

	<-done
}
