package session

import (
	"errors"
	"io"
	"log"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"edisonvision/attendance"
	"edisonvision/facerec"
)

// FrameSource produces raw camera frames on demand. It is exclusively
// owned by the active session: acquired on Start, released on Stop or on
// an unrecoverable read failure.
type FrameSource interface {
	ReadFrame() ([]byte, error)
	Close() error
}

// Box is a detected face location within a frame.
type Box struct {
	Top, Right, Bottom, Left int
}

// Probe is one face found in a frame: its embedding plus where it sat.
type Probe struct {
	Embedding facerec.Embedding
	Location  Box
}

// Extractor turns a raw frame into zero or more probes. Implemented by
// the external embedding provider; zero probes is a normal "no face
// detected" result.
type Extractor interface {
	Extract(frame []byte) ([]Probe, error)
}

// Config tunes one live check-in session.
type Config struct {
	ClassId string
	Window  attendance.Window
	Source  attendance.Source

	// Tolerance is the matcher distance cutoff; MinConfidence is the
	// session's acceptance policy on top of it.
	Tolerance     float64
	MinConfidence float64

	// TickInterval is the frame poll period; detection only runs every
	// DetectEvery-th tick to bound CPU cost.
	TickInterval time.Duration
	DetectEvery  int
}

// Session drives the tick loop for a live pre-check-in window: poll a
// frame, extract probes, match each against the gallery, and hand
// accepted matches to the recorder. Ticks never overlap; the next tick is
// only scheduled once the previous one finished.
type Session struct {
	cfg      Config
	frames   FrameSource
	extract  Extractor
	gallery  *facerec.Gallery
	recorder *attendance.Recorder

	sched   *gocron.Scheduler
	mu      sync.Mutex
	started bool
	ticks   int
}

func New(cfg Config, frames FrameSource, extract Extractor, gallery *facerec.Gallery, recorder *attendance.Recorder) *Session {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = 500 * time.Millisecond
	}
	if cfg.DetectEvery <= 0 {
		cfg.DetectEvery = 1
	}
	if cfg.Tolerance <= 0 {
		cfg.Tolerance = facerec.DefaultTolerance
	}
	if cfg.Source == "" {
		cfg.Source = attendance.SourcePreCheckin
	}
	return &Session{
		cfg:      cfg,
		frames:   frames,
		extract:  extract,
		gallery:  gallery,
		recorder: recorder,
	}
}

// Start begins ticking. SingletonMode keeps ticks strictly sequential
// even if one runs longer than the tick interval.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return errors.New("session: already started")
	}

	s.sched = gocron.NewScheduler(time.Local)
	if _, err := s.sched.Every(s.cfg.TickInterval).SingletonMode().Do(s.tick); err != nil {
		return err
	}
	s.sched.StartAsync()
	s.started = true
	log.Printf("session: started for class %s (tick %v, detect every %d)", s.cfg.ClassId, s.cfg.TickInterval, s.cfg.DetectEvery)
	return nil
}

// Stop halts the tick timer and releases the camera before returning. No
// in-flight tick is awaited; ticks are short enough that cancellation
// latency is at most one tick period.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}
	s.sched.Stop()
	s.started = false
	if err := s.frames.Close(); err != nil {
		log.Printf("session: closing frame source: %v", err)
	}
	log.Printf("session: stopped for class %s", s.cfg.ClassId)
}

func (s *Session) tick() {
	s.ticks++
	if s.ticks%s.cfg.DetectEvery != 0 {
		return
	}

	frame, err := s.frames.ReadFrame()
	if err != nil {
		if errors.Is(err, io.EOF) {
			log.Printf("session: frame source gone, stopping: %v", err)
			go s.Stop()
			return
		}
		// transient read failure: skip to the next tick, no retry
		log.Printf("session: frame read failed: %v", err)
		return
	}

	s.processFrame(frame)
}

// processFrame matches every probe in the frame independently and records
// the accepted ones.
func (s *Session) processFrame(frame []byte) {
	probes, err := s.extract.Extract(frame)
	if err != nil {
		log.Printf("session: embedding extraction failed: %v", err)
		return
	}

	now := time.Now()
	for _, p := range probes {
		res, ok := facerec.Match(p.Embedding, s.gallery.Entries(), s.cfg.Tolerance)
		if !ok {
			continue
		}
		if res.Confidence < s.cfg.MinConfidence {
			continue
		}
		s.record(res, now)
	}
}

func (s *Session) record(res facerec.MatchResult, now time.Time) {
	w := s.cfg.Window
	out, err := s.recorder.CheckIn(res.StudentId, s.cfg.ClassId, now, &w, &res.Confidence, s.cfg.Source)
	if err != nil {
		log.Printf("session: check-in for %s failed: %v", res.StudentId, err)
		return
	}
	if out.Kind == attendance.Recorded {
		log.Printf("session: %s checked in as %s (confidence %.2f)", res.StudentId, out.Record.Status, res.Confidence)
	}
}
