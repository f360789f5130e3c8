package domain

import (
	"sort"
	"strings"
	"time"
)

// EntryStatus enumerates lifecycle states for queue entries.
type EntryStatus string

const (
	EntryStatusWaiting   EntryStatus = "waiting"
	EntryStatusCalled    EntryStatus = "called"
	EntryStatusServing   EntryStatus = "serving"
	EntryStatusCompleted EntryStatus = "completed"
	EntryStatusCancelled EntryStatus = "cancelled"
	EntryStatusNoShow    EntryStatus = "no-show"
)

// Active reports whether the status still occupies a capacity slot.
func (s EntryStatus) Active() bool {
	return s == EntryStatusWaiting || s == EntryStatusCalled || s == EntryStatusServing
}

// Entry is one customer's record within a queue.
type Entry struct {
	ID                string
	CustomerID        string
	CustomerName      string
	CustomerPhone     string
	PartySize         int
	Notes             string
	Position          int
	Status            EntryStatus
	EstimatedWait     int // minutes, fixed at join time
	VerificationCode  string
	JoinedAt          time.Time
	CalledAt          *time.Time
	ServedAt          *time.Time
	CompletedAt       *time.Time
	RequeuedAt        *time.Time
	LastNotified      *time.Time
	NotificationCount int
}

// Queue is the aggregate owning the ordered entry collection for one service line.
type Queue struct {
	ID                 string
	MerchantID         string
	Name               string
	MaxCapacity        int
	AverageServiceTime int // minutes per party
	AcceptingCustomers bool
	Entries            []*Entry
	NoShowCount        int
	ServedCount        int
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// ActiveCount counts entries currently holding a capacity slot.
func (q *Queue) ActiveCount() int {
	count := 0
	for _, e := range q.Entries {
		if e.Status.Active() {
			count++
		}
	}
	return count
}

// WaitingCount counts entries still waiting to be called.
func (q *Queue) WaitingCount() int {
	count := 0
	for _, e := range q.Entries {
		if e.Status == EntryStatusWaiting {
			count++
		}
	}
	return count
}

// NextPosition returns max(existing positions)+1. The waiting line is not
// necessarily contiguous until RecomputePositions runs.
func (q *Queue) NextPosition() int {
	highest := 0
	for _, e := range q.Entries {
		if e.Status == EntryStatusWaiting && e.Position > highest {
			highest = e.Position
		}
	}
	return highest + 1
}

// AddCustomer validates capacity and accepting state, then appends the entry
// with its position, estimated wait and join timestamp assigned.
func (q *Queue) AddCustomer(entry *Entry, now time.Time) error {
	if !q.AcceptingCustomers {
		return ErrQueueClosed
	}
	if q.ActiveCount() >= q.MaxCapacity {
		return ErrCapacityExceeded
	}
	if entry.PartySize < 1 {
		entry.PartySize = 1
	}
	entry.Position = q.NextPosition()
	entry.Status = EntryStatusWaiting
	entry.EstimatedWait = (entry.Position - 1) * q.AverageServiceTime
	entry.JoinedAt = now
	q.Entries = append(q.Entries, entry)
	return nil
}

// NextWaiting returns the waiting entry with the earliest join time, or nil
// when nothing is waiting. Entries are kept in insertion order, which matches
// joinedAt order.
func (q *Queue) NextWaiting() *Entry {
	for _, e := range q.Entries {
		if e.Status == EntryStatusWaiting {
			return e
		}
	}
	return nil
}

// FindEntry looks an entry up by id.
func (q *Queue) FindEntry(entryID string) *Entry {
	for _, e := range q.Entries {
		if e.ID == entryID {
			return e
		}
	}
	return nil
}

// FindByCustomer returns the most recent entry for a customer.
func (q *Queue) FindByCustomer(customerID string) *Entry {
	for i := len(q.Entries) - 1; i >= 0; i-- {
		if q.Entries[i].CustomerID == customerID {
			return q.Entries[i]
		}
	}
	return nil
}

// Call transitions a waiting entry to called and attaches its verification code.
func (q *Queue) Call(entry *Entry, code string, now time.Time) error {
	if entry == nil || entry.Status != EntryStatusWaiting {
		return ErrEntryNotFound
	}
	called := now
	entry.Status = EntryStatusCalled
	entry.CalledAt = &called
	entry.VerificationCode = code
	return nil
}

// Complete transitions a called or serving entry to the given terminal status.
func (q *Queue) Complete(entry *Entry, status EntryStatus, now time.Time) error {
	if entry == nil {
		return ErrEntryNotFound
	}
	if entry.Status != EntryStatusCalled && entry.Status != EntryStatusServing {
		return ErrEntryNotFound
	}
	switch status {
	case EntryStatusCompleted, EntryStatusCancelled, EntryStatusNoShow:
	default:
		status = EntryStatusCompleted
	}
	done := now
	entry.Status = status
	entry.CompletedAt = &done
	if status == EntryStatusCompleted {
		q.ServedCount++
	}
	if status == EntryStatusNoShow {
		q.NoShowCount++
	}
	return nil
}

// Cancel withdraws an active entry from the line ("we changed our minds").
func (q *Queue) Cancel(entry *Entry, now time.Time) error {
	if entry == nil || !entry.Status.Active() {
		return ErrEntryNotFound
	}
	done := now
	entry.Status = EntryStatusCancelled
	entry.CompletedAt = &done
	return nil
}

// StartServing moves a called entry to serving once its code is verified.
func (q *Queue) StartServing(entry *Entry, now time.Time) error {
	if entry == nil || entry.Status != EntryStatusCalled {
		return ErrEntryNotFound
	}
	served := now
	entry.Status = EntryStatusServing
	entry.ServedAt = &served
	return nil
}

// Requeue puts a completed entry back at the end of the waiting line. The
// caller must run RecomputePositions afterwards to keep the line contiguous.
func (q *Queue) Requeue(entry *Entry, now time.Time) error {
	if entry == nil || entry.Status != EntryStatusCompleted {
		return ErrEntryNotFound
	}
	if q.ActiveCount() >= q.MaxCapacity {
		return ErrCapacityExceeded
	}
	requeued := now
	entry.Status = EntryStatusWaiting
	entry.Position = q.NextPosition()
	entry.RequeuedAt = &requeued
	entry.CalledAt = nil
	entry.ServedAt = nil
	entry.CompletedAt = nil
	entry.VerificationCode = ""
	return nil
}

// RecomputePositions reassigns contiguous positions 1..N to waiting entries,
// ordered by join time. The sort is stable so repeated recomputes without
// intervening mutations are idempotent.
func (q *Queue) RecomputePositions() {
	waiting := make([]*Entry, 0, len(q.Entries))
	for _, e := range q.Entries {
		if e.Status == EntryStatusWaiting {
			waiting = append(waiting, e)
		}
	}
	sort.SliceStable(waiting, func(i, j int) bool {
		return waiting[i].JoinedAt.Before(waiting[j].JoinedAt)
	})
	for i, e := range waiting {
		e.Position = i + 1
	}
}

// ToggleAccepting flips the accepting flag and returns the new value. Entries
// already waiting are unaffected.
func (q *Queue) ToggleAccepting() bool {
	q.AcceptingCustomers = !q.AcceptingCustomers
	return q.AcceptingCustomers
}

// StopAccepting closes the queue to new customers.
func (q *Queue) StopAccepting() {
	q.AcceptingCustomers = false
}

// VerifyCode matches a presented pickup code against a called entry,
// case-insensitively.
func (q *Queue) VerifyCode(entry *Entry, code string) bool {
	if entry == nil || entry.Status != EntryStatusCalled {
		return false
	}
	return strings.EqualFold(entry.VerificationCode, code)
}

// CodeInUse reports whether the code was already assigned to an entry called
// on the same calendar day.
func (q *Queue) CodeInUse(code string, day time.Time) bool {
	for _, e := range q.Entries {
		if e.VerificationCode == "" || e.CalledAt == nil {
			continue
		}
		if sameDay(*e.CalledAt, day) && strings.EqualFold(e.VerificationCode, code) {
			return true
		}
	}
	return false
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}
