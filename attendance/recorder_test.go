package attendance

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"
)

// memStore is an in-memory attendance store keyed the same way the real
// one is: (student, class, calendar day).
type memStore struct {
	mu        sync.Mutex
	records   map[string]Record
	insertErr error
	hasErr    error
}

func newMemStore() *memStore {
	return &memStore{records: make(map[string]Record)}
}

func storeKey(studentId, classId string, day time.Time) string {
	return studentId + "|" + classId + "|" + day.Format("2006-01-02")
}

func (s *memStore) HasRecord(studentId, classId string, day time.Time) (bool, error) {
	if s.hasErr != nil {
		return false, s.hasErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.records[storeKey(studentId, classId, day)]
	return ok, nil
}

func (s *memStore) Insert(rec Record) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[storeKey(rec.StudentId, rec.ClassId, rec.CheckInTime)] = rec
	return nil
}

func (s *memStore) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

func testWindow() Window {
	classStart := time.Date(2026, 3, 2, 8, 0, 0, 0, time.Local)
	return NewSessionWindow("MATH-1", classStart, 5, 5)
}

func TestCheckInIdempotence(t *testing.T) {
	store := newMemStore()
	rec := NewRecorder(store)
	w := testWindow()
	checkIn := time.Date(2026, 3, 2, 7, 58, 0, 0, time.Local)

	out, err := rec.CheckIn("S-1", "MATH-1", checkIn, &w, nil, SourceManual)
	if err != nil {
		t.Fatalf("first CheckIn() error = %v", err)
	}
	if out.Kind != Recorded {
		t.Fatalf("first CheckIn() kind = %v, want Recorded", out.Kind)
	}
	if out.Record.Status != StatusPresent {
		t.Errorf("first CheckIn() status = %v, want Present", out.Record.Status)
	}

	out, err = rec.CheckIn("S-1", "MATH-1", checkIn.Add(2*time.Minute), &w, nil, SourceManual)
	if err != nil {
		t.Fatalf("second CheckIn() error = %v", err)
	}
	if out.Kind != AlreadyCheckedIn {
		t.Errorf("second CheckIn() kind = %v, want AlreadyCheckedIn", out.Kind)
	}
	if got := store.size(); got != 1 {
		t.Errorf("store holds %d records, want exactly 1", got)
	}
}

func TestCheckInLateNotes(t *testing.T) {
	store := newMemStore()
	rec := NewRecorder(store)
	w := testWindow()
	conf := 0.82
	checkIn := time.Date(2026, 3, 2, 8, 12, 0, 0, time.Local)

	out, err := rec.CheckIn("S-2", "MATH-1", checkIn, &w, &conf, SourceFace)
	if err != nil {
		t.Fatalf("CheckIn() error = %v", err)
	}
	if out.Record.Status != StatusLate || out.Record.LateMinutes != 7 {
		t.Fatalf("CheckIn() = (%v, %d), want (Late, 7)", out.Record.Status, out.Record.LateMinutes)
	}
	notes := out.Record.Notes
	if !strings.Contains(notes, "face") {
		t.Errorf("notes %q missing the source", notes)
	}
	if !strings.Contains(notes, "7 minutes late") {
		t.Errorf("notes %q missing the lateness", notes)
	}
	if !strings.Contains(notes, "82.00%") {
		t.Errorf("notes %q missing the confidence", notes)
	}
}

func TestCheckInWindowUnavailable(t *testing.T) {
	rec := NewRecorder(newMemStore())

	out, err := rec.CheckIn("S-1", "MATH-1", time.Now(), nil, nil, SourceManual)
	if err != nil {
		t.Fatalf("CheckIn() error = %v", err)
	}
	if out.Kind != WindowUnavailable {
		t.Errorf("CheckIn() kind = %v, want WindowUnavailable", out.Kind)
	}
}

func TestCheckInPersistenceErrors(t *testing.T) {
	w := testWindow()
	checkIn := time.Date(2026, 3, 2, 7, 58, 0, 0, time.Local)

	t.Run("insert failure", func(t *testing.T) {
		store := newMemStore()
		store.insertErr = fmt.Errorf("disk full")
		rec := NewRecorder(store)
		_, err := rec.CheckIn("S-1", "MATH-1", checkIn, &w, nil, SourceManual)
		if !errors.Is(err, ErrPersistence) {
			t.Errorf("CheckIn() error = %v, want ErrPersistence", err)
		}
	})

	t.Run("lookup failure", func(t *testing.T) {
		store := newMemStore()
		store.hasErr = fmt.Errorf("connection reset")
		rec := NewRecorder(store)
		_, err := rec.CheckIn("S-1", "MATH-1", checkIn, &w, nil, SourceManual)
		if !errors.Is(err, ErrPersistence) {
			t.Errorf("CheckIn() error = %v, want ErrPersistence", err)
		}
	})
}

func TestCheckInConcurrentSameKey(t *testing.T) {
	store := newMemStore()
	rec := NewRecorder(store)
	w := testWindow()
	checkIn := time.Date(2026, 3, 2, 7, 58, 0, 0, time.Local)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = rec.CheckIn("S-1", "MATH-1", checkIn, &w, nil, SourceManual)
		}()
	}
	wg.Wait()

	if got := store.size(); got != 1 {
		t.Errorf("store holds %d records after concurrent check-ins, want 1", got)
	}
}
