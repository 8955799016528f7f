package attendance

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrPersistence reports a failed attendance store operation. The recorder
// never retries; whether to re-attempt the whole check-in is the caller's
// call.
var ErrPersistence = errors.New("attendance: store operation failed")

// Source identifies which path produced a check-in.
type Source string

const (
	SourceManual     Source = "manual"
	SourceFace       Source = "face"
	SourcePreCheckin Source = "pre_checkin"
)

// Record is one row of the attendance ledger. Create-only: the recorder
// never mutates an existing record.
type Record struct {
	StudentId   string
	ClassId     string
	Status      Status
	CheckInTime time.Time
	LateMinutes int
	Confidence  *float64
	Notes       string
}

// Store is the external attendance ledger. Day is the calendar day of the
// check-in; the store should additionally enforce uniqueness of
// (student, class, day) as a backstop.
type Store interface {
	HasRecord(studentId, classId string, day time.Time) (bool, error)
	Insert(rec Record) error
}

// OutcomeKind classifies what a CheckIn call did.
type OutcomeKind int

const (
	// Recorded means a new ledger record was written.
	Recorded OutcomeKind = iota
	// AlreadyCheckedIn means a record for this student/class/day already
	// existed. Normal and expected, not an error.
	AlreadyCheckedIn
	// WindowUnavailable means no window could be built (no schedule for
	// the day and no ad-hoc session), so no status can be determined.
	WindowUnavailable
)

// Outcome is the result of a CheckIn call. Record is set only for
// Recorded outcomes.
type Outcome struct {
	Kind   OutcomeKind
	Record *Record
}

// Recorder is the sole writer of attendance records. It owns the
// at-most-one-record-per-(student, class, day) invariant: the existence
// check and the insert run as one unit under its lock, so the manual and
// face check-in paths cannot race each other into a duplicate.
type Recorder struct {
	mu    sync.Mutex
	store Store
}

func NewRecorder(store Store) *Recorder {
	return &Recorder{store: store}
}

// CheckIn records attendance for a student in a class, once per calendar
// day. A nil window means status cannot be determined (class has no
// schedule today and no session is active); callers get WindowUnavailable
// rather than a silently guessed status. Confidence is only meaningful
// for face-sourced check-ins and may be nil.
func (r *Recorder) CheckIn(studentId, classId string, checkIn time.Time, w *Window, confidence *float64, source Source) (Outcome, error) {
	if w == nil {
		return Outcome{Kind: WindowUnavailable}, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	exists, err := r.store.HasRecord(studentId, classId, checkIn)
	if err != nil {
		return Outcome{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if exists {
		return Outcome{Kind: AlreadyCheckedIn}, nil
	}

	status, lateMin := Resolve(checkIn, *w)

	rec := Record{
		StudentId:   studentId,
		ClassId:     classId,
		Status:      status,
		CheckInTime: checkIn,
		LateMinutes: lateMin,
		Confidence:  confidence,
		Notes:       buildNotes(source, status, lateMin, confidence),
	}

	if err := r.store.Insert(rec); err != nil {
		return Outcome{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return Outcome{Kind: Recorded, Record: &rec}, nil
}

func buildNotes(source Source, status Status, lateMin int, confidence *float64) string {
	notes := "Checked in via " + string(source)
	if status == StatusLate {
		notes += fmt.Sprintf(", %d minutes late", lateMin)
	}
	if source == SourceFace && confidence != nil {
		notes += fmt.Sprintf(", face recognition confidence: %.2f%%", *confidence*100)
	}
	return notes
}
