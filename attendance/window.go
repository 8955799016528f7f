package attendance

import (
	"errors"
	"fmt"
	"time"
)

// Defaults applied when a schedule-derived window does not override them.
const (
	DefaultPreWindowMinutes     = 5
	DefaultLateThresholdMinutes = 5
)

// ErrNoScheduleForDay reports that a class has no schedule slot on the
// requested weekday. Callers must treat this as "lateness cannot be
// determined", never as Present-by-default.
var ErrNoScheduleForDay = errors.New("attendance: no schedule for that day")

// ScheduleSlot is one weekly timetable entry for a class, as supplied by
// the schedule repository. Times are wall-clock strings in "15:04" form.
type ScheduleSlot struct {
	ClassId   string
	Weekday   time.Weekday
	StartTime string
	EndTime   string
}

// ScheduleRepository looks up the timetable slot for a class on a given
// weekday. A nil slot with a nil error means the class simply has no slot
// that day.
type ScheduleRepository interface {
	GetSlot(classId string, day time.Weekday) (*ScheduleSlot, error)
}

// Window is the three-point check-in timeline for one class session:
//
//	PreCheckinStart ... ClassStart ... LateTime
//
// Immutable once built; all timeline state is derived from the clock.
type Window struct {
	ClassId              string
	ClassStart           time.Time
	PreCheckinStart      time.Time
	LateTime             time.Time
	PreWindowMinutes     int
	LateThresholdMinutes int
}

// Phase is where the wall clock currently sits on a window's timeline.
type Phase int

const (
	BeforeWindow Phase = iota
	ActiveWindow
	GracePeriod
	LateState
)

func (p Phase) String() string {
	switch p {
	case BeforeWindow:
		return "before_window"
	case ActiveWindow:
		return "active_window"
	case GracePeriod:
		return "grace_period"
	case LateState:
		return "late"
	}
	return "unknown"
}

// NewSessionWindow builds an ad-hoc window for a live pre-check-in session
// from an explicit class start and the operator's window settings.
func NewSessionWindow(classId string, classStart time.Time, preWindowMin, lateThresholdMin int) Window {
	return Window{
		ClassId:              classId,
		ClassStart:           classStart,
		PreCheckinStart:      classStart.Add(-time.Duration(preWindowMin) * time.Minute),
		LateTime:             classStart.Add(time.Duration(lateThresholdMin) * time.Minute),
		PreWindowMinutes:     preWindowMin,
		LateThresholdMinutes: lateThresholdMin,
	}
}

// WindowFromSchedule builds the window for a class on the given day from
// its weekly schedule. The slot's start time is combined with day's date
// in day's location; pre-window and late-threshold minutes fall back to
// the 5-minute defaults when zero.
func WindowFromSchedule(repo ScheduleRepository, classId string, day time.Time, preWindowMin, lateThresholdMin int) (Window, error) {
	slot, err := repo.GetSlot(classId, day.Weekday())
	if err != nil {
		return Window{}, fmt.Errorf("attendance: schedule lookup for class %s: %w", classId, err)
	}
	if slot == nil {
		return Window{}, fmt.Errorf("%w: class %s on %s", ErrNoScheduleForDay, classId, day.Weekday())
	}

	start, err := combineDayAndTime(day, slot.StartTime)
	if err != nil {
		return Window{}, fmt.Errorf("attendance: slot start time for class %s: %w", classId, err)
	}

	if preWindowMin <= 0 {
		preWindowMin = DefaultPreWindowMinutes
	}
	if lateThresholdMin <= 0 {
		lateThresholdMin = DefaultLateThresholdMinutes
	}
	return NewSessionWindow(classId, start, preWindowMin, lateThresholdMin), nil
}

// Phase reports the timeline state at the given instant. Pure function of
// the clock against the window; nothing is stored.
func (w Window) Phase(now time.Time) Phase {
	switch {
	case now.Before(w.PreCheckinStart):
		return BeforeWindow
	case now.Before(w.ClassStart):
		return ActiveWindow
	case now.Before(w.LateTime):
		return GracePeriod
	default:
		return LateState
	}
}

func combineDayAndTime(day time.Time, clock string) (time.Time, error) {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		// some rows carry seconds
		t, err = time.Parse("15:04:05", clock)
		if err != nil {
			return time.Time{}, err
		}
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), t.Second(), 0, day.Location()), nil
}
