package compliance

import (
	"time"

	"isp-order-bot/internal/pkg/model"
)

// Window is the TTI comply allowance measured from the start marker.
const Window = 72 * time.Hour

// ReminderOffsets are the remaining-time points at which HD users are
// reminded, the last one being the deadline itself.
var ReminderOffsets = []time.Duration{48 * time.Hour, 24 * time.Hour, 6 * time.Hour, 0}

type StartSource string

const (
	SourceSOD        StartSource = "sod"
	SourceLMEPT2End  StartSource = "lme_pt2_end"
	SourceAssignment StartSource = "assignment"
)

type Result struct {
	Duration time.Duration
	Status   model.TTIStatus
}

// StartMarker picks the compliance start: SOD, then LME-PT2 end, then the
// technician assignment time.
func StartMarker(o model.Order, assignedAt *time.Time) (time.Time, StartSource, bool) {
	switch {
	case o.SODAt != nil:
		return *o.SODAt, SourceSOD, true
	case o.LMEPT2EndAt != nil:
		return *o.LMEPT2EndAt, SourceLMEPT2End, true
	case assignedAt != nil:
		return *assignedAt, SourceAssignment, true
	default:
		return time.Time{}, "", false
	}
}

// EndMarker picks the compliance end: E2E, else the close time.
func EndMarker(o model.Order, closedAt *time.Time) (time.Time, bool) {
	switch {
	case o.E2EAt != nil:
		return *o.E2EAt, true
	case closedAt != nil:
		return *closedAt, true
	case o.ClosedAt != nil:
		return *o.ClosedAt, true
	default:
		return time.Time{}, false
	}
}

func Evaluate(start, end time.Time) Result {
	elapsed := end.Sub(start)
	if elapsed < 0 {
		elapsed = 0
	}
	status := model.TTIComply
	if elapsed > Window {
		status = model.TTINotComply
	}
	return Result{Duration: elapsed, Status: status}
}

func Deadline(start time.Time) time.Time {
	return start.Add(Window)
}
