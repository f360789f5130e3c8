package domain

import (
	"testing"
	"time"
)

func testQueue(capacity int) *Queue {
	return &Queue{
		ID:                 "q-1",
		MerchantID:         "m-1",
		Name:               "Main Dining",
		MaxCapacity:        capacity,
		AverageServiceTime: 10,
		AcceptingCustomers: true,
	}
}

func TestAddCustomerAssignsPositionAndWait(t *testing.T) {
	q := testQueue(2)
	now := time.Now()

	a := &Entry{ID: "e-a", CustomerID: "c-a", PartySize: 2}
	b := &Entry{ID: "e-b", CustomerID: "c-b", PartySize: 4}

	if err := q.AddCustomer(a, now); err != nil {
		t.Fatalf("add a: %v", err)
	}
	if err := q.AddCustomer(b, now.Add(time.Minute)); err != nil {
		t.Fatalf("add b: %v", err)
	}

	if a.Position != 1 || b.Position != 2 {
		t.Fatalf("positions = %d, %d, want 1, 2", a.Position, b.Position)
	}
	if a.EstimatedWait != 0 || b.EstimatedWait != 10 {
		t.Fatalf("estimated waits = %d, %d, want 0, 10", a.EstimatedWait, b.EstimatedWait)
	}
	if a.Status != EntryStatusWaiting || b.Status != EntryStatusWaiting {
		t.Fatalf("statuses = %s, %s, want waiting", a.Status, b.Status)
	}

	c := &Entry{ID: "e-c", CustomerID: "c-c"}
	if err := q.AddCustomer(c, now.Add(2*time.Minute)); err != ErrCapacityExceeded {
		t.Fatalf("add c over capacity = %v, want ErrCapacityExceeded", err)
	}
}

func TestAddCustomerClosedQueue(t *testing.T) {
	q := testQueue(5)
	q.StopAccepting()

	if err := q.AddCustomer(&Entry{ID: "e-1", CustomerID: "c-1"}, time.Now()); err != ErrQueueClosed {
		t.Fatalf("add to closed queue = %v, want ErrQueueClosed", err)
	}
}

func TestNextWaitingFIFO(t *testing.T) {
	q := testQueue(5)
	now := time.Now()
	for i, id := range []string{"e-1", "e-2", "e-3"} {
		entry := &Entry{ID: id, CustomerID: "c" + id}
		if err := q.AddCustomer(entry, now.Add(time.Duration(i)*time.Minute)); err != nil {
			t.Fatalf("add %s: %v", id, err)
		}
	}

	first := q.NextWaiting()
	if first == nil || first.ID != "e-1" {
		t.Fatalf("NextWaiting = %v, want e-1", first)
	}
	if err := q.Call(first, "K7M3", now); err != nil {
		t.Fatalf("call: %v", err)
	}
	if first.Status != EntryStatusCalled || first.CalledAt == nil {
		t.Fatalf("called entry not transitioned: %+v", first)
	}

	second := q.NextWaiting()
	if second == nil || second.ID != "e-2" {
		t.Fatalf("NextWaiting after call = %v, want e-2", second)
	}
}

func TestCallRequiresWaiting(t *testing.T) {
	q := testQueue(5)
	entry := &Entry{ID: "e-1", CustomerID: "c-1"}
	if err := q.AddCustomer(entry, time.Now()); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := q.Call(entry, "AAAA", time.Now()); err != nil {
		t.Fatalf("first call: %v", err)
	}
	if err := q.Call(entry, "BBBB", time.Now()); err != ErrEntryNotFound {
		t.Fatalf("second call = %v, want ErrEntryNotFound", err)
	}
	if err := q.Call(nil, "CCCC", time.Now()); err != ErrEntryNotFound {
		t.Fatalf("call nil = %v, want ErrEntryNotFound", err)
	}
}

func TestRecomputePositionsContiguous(t *testing.T) {
	q := testQueue(10)
	now := time.Now()
	entries := make([]*Entry, 0, 5)
	for i := 0; i < 5; i++ {
		entry := &Entry{ID: string(rune('a' + i)), CustomerID: "c"}
		if err := q.AddCustomer(entry, now.Add(time.Duration(i)*time.Second)); err != nil {
			t.Fatalf("add: %v", err)
		}
		entries = append(entries, entry)
	}

	// Remove the middle of the line, leaving a gap.
	if err := q.Call(entries[2], "QQQQ", now); err != nil {
		t.Fatalf("call: %v", err)
	}
	if err := q.Complete(entries[2], EntryStatusCancelled, now); err != nil {
		t.Fatalf("complete: %v", err)
	}

	q.RecomputePositions()
	q.RecomputePositions() // idempotent

	want := 1
	for _, entry := range entries {
		if entry.Status != EntryStatusWaiting {
			continue
		}
		if entry.Position != want {
			t.Fatalf("entry %s position = %d, want %d", entry.ID, entry.Position, want)
		}
		want++
	}
	if want-1 != q.WaitingCount() {
		t.Fatalf("waiting count = %d, want %d", q.WaitingCount(), want-1)
	}
}

func TestRequeueRoundTrip(t *testing.T) {
	q := testQueue(5)
	now := time.Now()
	entry := &Entry{ID: "e-1", CustomerID: "c-1"}
	if err := q.AddCustomer(entry, now); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := q.Call(entry, "K7M3", now); err != nil {
		t.Fatalf("call: %v", err)
	}
	if err := q.Complete(entry, EntryStatusCompleted, now); err != nil {
		t.Fatalf("complete: %v", err)
	}

	if err := q.Requeue(entry, now.Add(time.Minute)); err != nil {
		t.Fatalf("requeue: %v", err)
	}
	q.RecomputePositions()

	if entry.Status != EntryStatusWaiting {
		t.Fatalf("status = %s, want waiting", entry.Status)
	}
	if entry.Position != 1 {
		t.Fatalf("position = %d, want 1", entry.Position)
	}
	if entry.CalledAt != nil || entry.CompletedAt != nil {
		t.Fatalf("calledAt/completedAt not cleared: %+v", entry)
	}
	if entry.VerificationCode != "" {
		t.Fatalf("verification code not cleared: %q", entry.VerificationCode)
	}
	if entry.RequeuedAt == nil {
		t.Fatal("requeuedAt not stamped")
	}
}

func TestRequeueOnlyFromCompleted(t *testing.T) {
	q := testQueue(5)
	entry := &Entry{ID: "e-1", CustomerID: "c-1"}
	if err := q.AddCustomer(entry, time.Now()); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := q.Requeue(entry, time.Now()); err != ErrEntryNotFound {
		t.Fatalf("requeue waiting entry = %v, want ErrEntryNotFound", err)
	}
}

func TestRequeueRespectsCapacity(t *testing.T) {
	q := testQueue(2)
	now := time.Now()
	done := &Entry{ID: "e-0", CustomerID: "c-0"}
	if err := q.AddCustomer(done, now); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := q.Call(done, "AAAA", now); err != nil {
		t.Fatalf("call: %v", err)
	}
	if err := q.Complete(done, EntryStatusCompleted, now); err != nil {
		t.Fatalf("complete: %v", err)
	}

	for _, id := range []string{"e-1", "e-2"} {
		if err := q.AddCustomer(&Entry{ID: id, CustomerID: "c" + id}, now); err != nil {
			t.Fatalf("add %s: %v", id, err)
		}
	}

	if err := q.Requeue(done, now); err != ErrCapacityExceeded {
		t.Fatalf("requeue into full queue = %v, want ErrCapacityExceeded", err)
	}
}

func TestVerifyCodeCaseInsensitive(t *testing.T) {
	q := testQueue(5)
	now := time.Now()
	entry := &Entry{ID: "e-1", CustomerID: "c-1"}
	if err := q.AddCustomer(entry, now); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := q.Call(entry, "K7M3", now); err != nil {
		t.Fatalf("call: %v", err)
	}

	if !q.VerifyCode(entry, "k7m3") {
		t.Fatal("lowercase code should verify")
	}
	if q.VerifyCode(entry, "K7M4") {
		t.Fatal("wrong code should not verify")
	}
	if err := q.Complete(entry, EntryStatusCompleted, now); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if q.VerifyCode(entry, "K7M3") {
		t.Fatal("completed entry should not verify")
	}
}

func TestCodeInUseScopedToCalendarDay(t *testing.T) {
	q := testQueue(5)
	today := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	yesterday := today.Add(-24 * time.Hour)

	old := yesterday
	q.Entries = append(q.Entries, &Entry{
		ID: "e-old", Status: EntryStatusCompleted, VerificationCode: "K7M3", CalledAt: &old,
	})

	if q.CodeInUse("K7M3", today) {
		t.Fatal("yesterday's code should not block today")
	}

	recent := today
	q.Entries = append(q.Entries, &Entry{
		ID: "e-new", Status: EntryStatusCalled, VerificationCode: "K7M3", CalledAt: &recent,
	})
	if !q.CodeInUse("k7m3", today) {
		t.Fatal("same-day code should be reported in use, case-insensitively")
	}
}

func TestCancelOnlyActiveEntries(t *testing.T) {
	q := testQueue(5)
	now := time.Now()

	a := &Entry{ID: "e-a", CustomerID: "c-a"}
	if err := q.AddCustomer(a, now); err != nil {
		t.Fatalf("add: %v", err)
	}

	if err := q.Cancel(a, now.Add(time.Minute)); err != nil {
		t.Fatalf("cancel waiting entry: %v", err)
	}
	if a.Status != EntryStatusCancelled || a.CompletedAt == nil {
		t.Fatalf("cancelled entry = %+v", a)
	}

	if err := q.Cancel(a, now.Add(2*time.Minute)); err != ErrEntryNotFound {
		t.Fatalf("double cancel = %v, want ErrEntryNotFound", err)
	}
	if err := q.Cancel(nil, now); err != ErrEntryNotFound {
		t.Fatalf("nil entry = %v, want ErrEntryNotFound", err)
	}
}

func TestToggleAccepting(t *testing.T) {
	q := testQueue(5)
	if got := q.ToggleAccepting(); got {
		t.Fatal("toggle from open should close")
	}
	if got := q.ToggleAccepting(); !got {
		t.Fatal("toggle from closed should open")
	}
}
