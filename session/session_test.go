package session

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"edisonvision/attendance"
	"edisonvision/facerec"
)

type fakeFrames struct {
	reads  int
	closed bool
	err    error
}

func (f *fakeFrames) ReadFrame() ([]byte, error) {
	f.reads++
	if f.err != nil {
		return nil, f.err
	}
	return []byte("frame"), nil
}

func (f *fakeFrames) Close() error {
	f.closed = true
	return nil
}

type fakeExtractor struct {
	probes []Probe
	err    error
}

func (e *fakeExtractor) Extract(frame []byte) ([]Probe, error) {
	return e.probes, e.err
}

type fakeRepo struct {
	students []facerec.EnrolledStudent
}

func (r *fakeRepo) ListEnrolled() ([]facerec.EnrolledStudent, error) {
	return r.students, nil
}

type memStore struct {
	mu      sync.Mutex
	records []attendance.Record
}

func (s *memStore) HasRecord(studentId, classId string, day time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.records {
		if r.StudentId == studentId && r.ClassId == classId &&
			r.CheckInTime.Format("2006-01-02") == day.Format("2006-01-02") {
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) Insert(rec attendance.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return nil
}

func embAt(d float64) facerec.Embedding {
	emb := make(facerec.Embedding, facerec.EmbeddingSize)
	emb[0] = d
	return emb
}

func newTestSession(t *testing.T, cfg Config, frames FrameSource, ex Extractor, store attendance.Store) *Session {
	t.Helper()
	gallery := facerec.NewGallery()
	repo := &fakeRepo{students: []facerec.EnrolledStudent{
		{StudentId: "S-1", RawEncoding: facerec.EncodeEmbedding(embAt(0.2))},
		{StudentId: "S-2", RawEncoding: facerec.EncodeEmbedding(embAt(0.9))},
	}}
	if err := gallery.Refresh(repo); err != nil {
		t.Fatalf("gallery refresh: %v", err)
	}
	return New(cfg, frames, ex, gallery, attendance.NewRecorder(store))
}

func sessionConfig() Config {
	classStart := time.Now().Add(3 * time.Minute)
	return Config{
		ClassId:       "MATH-1",
		Window:        attendance.NewSessionWindow("MATH-1", classStart, 5, 5),
		Tolerance:     0.6,
		MinConfidence: 0.5,
		DetectEvery:   1,
	}
}

func TestProcessFrameRecordsMatch(t *testing.T) {
	store := &memStore{}
	ex := &fakeExtractor{probes: []Probe{{Embedding: embAt(0.0)}}}
	s := newTestSession(t, sessionConfig(), &fakeFrames{}, ex, store)

	s.processFrame([]byte("frame"))

	if len(store.records) != 1 {
		t.Fatalf("recorded %d check-ins, want 1", len(store.records))
	}
	rec := store.records[0]
	if rec.StudentId != "S-1" {
		t.Errorf("recorded student %s, want S-1 (closest match)", rec.StudentId)
	}
	if rec.Status != attendance.StatusPresent {
		t.Errorf("status = %v, want Present (inside pre-check-in window)", rec.Status)
	}
	if rec.Confidence == nil {
		t.Error("face-sourced record is missing its confidence")
	}
}

func TestProcessFrameHonorsMinConfidence(t *testing.T) {
	cfg := sessionConfig()
	cfg.MinConfidence = 0.9 // best match has confidence 0.8
	store := &memStore{}
	ex := &fakeExtractor{probes: []Probe{{Embedding: embAt(0.0)}}}
	s := newTestSession(t, cfg, &fakeFrames{}, ex, store)

	s.processFrame([]byte("frame"))

	if len(store.records) != 0 {
		t.Errorf("recorded %d check-ins, want 0 below min confidence", len(store.records))
	}
}

func TestProcessFrameSameStudentTwice(t *testing.T) {
	store := &memStore{}
	ex := &fakeExtractor{probes: []Probe{{Embedding: embAt(0.0)}}}
	s := newTestSession(t, sessionConfig(), &fakeFrames{}, ex, store)

	s.processFrame([]byte("frame"))
	s.processFrame([]byte("frame"))

	if len(store.records) != 1 {
		t.Errorf("recorded %d check-ins across two frames, want 1 (idempotent)", len(store.records))
	}
}

func TestTickSampling(t *testing.T) {
	cfg := sessionConfig()
	cfg.DetectEvery = 3
	frames := &fakeFrames{}
	s := newTestSession(t, cfg, frames, &fakeExtractor{}, &memStore{})

	for i := 0; i < 9; i++ {
		s.tick()
	}
	if frames.reads != 3 {
		t.Errorf("read %d frames over 9 ticks with DetectEvery=3, want 3", frames.reads)
	}
}

func TestTickSkipsFailedFrameRead(t *testing.T) {
	frames := &fakeFrames{err: fmt.Errorf("device busy")}
	store := &memStore{}
	s := newTestSession(t, sessionConfig(), frames, &fakeExtractor{}, store)

	s.tick()
	s.tick()

	if frames.closed {
		t.Error("transient read failure must not release the camera")
	}
	if len(store.records) != 0 {
		t.Errorf("recorded %d check-ins from failed reads, want 0", len(store.records))
	}
}

func TestStopReleasesFrameSource(t *testing.T) {
	cfg := sessionConfig()
	cfg.TickInterval = time.Hour // never actually ticks during the test
	frames := &fakeFrames{}
	s := newTestSession(t, cfg, frames, &fakeExtractor{}, &memStore{})

	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := s.Start(); err == nil {
		t.Error("second Start() succeeded, want error")
	}

	s.Stop()
	if !frames.closed {
		t.Error("Stop() did not release the frame source")
	}
	s.Stop() // second stop is a no-op
}
