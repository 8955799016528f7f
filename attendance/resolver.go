package attendance

import "time"

// Status is the outcome of resolving a check-in against a window.
// Absent and Excused exist in the ledger but are assigned by batch jobs,
// never by live check-in.
type Status string

const (
	StatusPresent Status = "Present"
	StatusLate    Status = "Late"
)

// Resolve maps a check-in instant to a status and lateness magnitude.
//
// A check-in at or before the window's late threshold is Present with zero
// late minutes; after it, Late with whole minutes counted from LateTime.
// Lateness is always measured from LateTime, not ClassStart -- the grace
// period between the two counts as on time.
func Resolve(checkIn time.Time, w Window) (Status, int) {
	if !checkIn.After(w.LateTime) {
		return StatusPresent, 0
	}
	return StatusLate, int(checkIn.Sub(w.LateTime) / time.Minute)
}
