package point

import (
	"time"
)

type EntryKind string

const (
	KindClockIn  EntryKind = "clock_in"
	KindLunchOut EntryKind = "lunch_out"
	KindLunchIn  EntryKind = "lunch_in"
	KindClockOut EntryKind = "clock_out"
)

// Cycle is the only accepted order of entries within a day.
var Cycle = [...]EntryKind{KindClockIn, KindLunchOut, KindLunchIn, KindClockOut}

func (k EntryKind) Valid() bool {
	for _, c := range Cycle {
		if k == c {
			return true
		}
	}
	return false
}

// OpensSession reports whether the entry starts a worked interval.
func (k EntryKind) OpensSession() bool {
	return k == KindClockIn || k == KindLunchIn
}

type Status string

const (
	StatusIncomplete Status = "incomplete"
	StatusComplete   Status = "complete"
)

// Entry is immutable once appended to a Record.
type Entry struct {
	Kind      EntryKind `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
	Location  string    `json:"location"`
	SourceIP  string    `json:"source_ip"`
}

// Record holds one employee's entries for one calendar day.
type Record struct {
	ID          string
	EmployeeID  string
	Date        time.Time
	Entries     []Entry
	TotalWorked time.Duration
	Expected    time.Duration
	Overtime    time.Duration
	Status      Status
	Version     int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ExpectedKind returns the kind the next entry must carry. ok is false once
// the day is closed and re-entry is not allowed.
func (r Record) ExpectedKind(allowReentry bool) (kind EntryKind, ok bool) {
	n := len(r.Entries)
	if n >= len(Cycle) && !allowReentry {
		return "", false
	}
	return Cycle[n%len(Cycle)], true
}

// Append validates kind against the cycle and appends the entry, recomputing
// derived fields. The record is untouched on error.
func (r *Record) Append(entry Entry, allowReentry bool) error {
	expected, ok := r.ExpectedKind(allowReentry)
	if !ok {
		return &SequenceError{Got: entry.Kind}
	}
	if entry.Kind != expected {
		return &SequenceError{Expected: expected, Got: entry.Kind}
	}

	entries := make([]Entry, len(r.Entries), len(r.Entries)+1)
	copy(entries, r.Entries)
	r.Entries = append(entries, entry)
	r.Recompute()
	return nil
}

// Recompute refreshes TotalWorked, Status and Overtime from Entries.
func (r *Record) Recompute() {
	r.TotalWorked = WorkedDuration(r.Entries)

	n := len(r.Entries)
	if n > 0 && n%len(Cycle) == 0 {
		r.Status = StatusComplete
	} else {
		r.Status = StatusIncomplete
	}

	r.Overtime = 0
	if r.Status == StatusComplete && r.Expected > 0 && r.TotalWorked > r.Expected {
		r.Overtime = r.TotalWorked - r.Expected
	}
}

// OpenSession returns the elapsed time of the session opened by the last
// entry, if the last entry opened one.
func (r Record) OpenSession(now time.Time) (Entry, time.Duration, bool) {
	if len(r.Entries) == 0 {
		return Entry{}, 0, false
	}
	last := r.Entries[len(r.Entries)-1]
	if !last.Kind.OpensSession() {
		return Entry{}, 0, false
	}
	elapsed := now.Sub(last.Timestamp)
	if elapsed < 0 {
		elapsed = 0
	}
	return last, elapsed, true
}

// WorkedDuration pairs every clock-in/lunch-in with the following
// lunch-out/clock-out and sums the intervals. Negative intervals count as zero.
func WorkedDuration(entries []Entry) time.Duration {
	var total time.Duration
	for i := 0; i+1 < len(entries); i++ {
		start, end := entries[i], entries[i+1]
		if !start.Kind.OpensSession() || end.Kind.OpensSession() {
			continue
		}
		if d := end.Timestamp.Sub(start.Timestamp); d > 0 {
			total += d
		}
		i++
	}
	return total
}

// DayOf truncates t to midnight in loc.
func DayOf(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}
