package attendance

import (
	"fmt"
	"time"
)

// Reason explains why an attendance event produced no ledger change.
type Reason string

const (
	ReasonUnrecognized      Reason = "UNRECOGNIZED"
	ReasonCooldownActive    Reason = "COOLDOWN_ACTIVE"
	ReasonPersistenceError  Reason = "PERSISTENCE_ERROR"
	ReasonCameraReadFailure Reason = "CAMERA_READ_FAILURE"
)

// Kind tags a Transition.
type Kind int

const (
	KindRejected Kind = iota
	KindCheckIn
	KindCheckOut
)

func (k Kind) String() string {
	switch k {
	case KindCheckIn:
		return "check_in"
	case KindCheckOut:
		return "check_out"
	default:
		return "rejected"
	}
}

// Transition is the outcome of processing one stabilized detection.
// Exactly one of the variants is meaningful, selected by Kind:
// CheckIn uses At, CheckOut uses At and WorkingHours, Rejected uses Reason
// (plus Remaining for COOLDOWN_ACTIVE and Err for PERSISTENCE_ERROR).
type Transition struct {
	Kind         Kind
	EmployeeID   string
	EmployeeName string
	At           time.Time
	WorkingHours float64
	Reason       Reason
	Remaining    time.Duration
	Err          error
}

// CheckIn builds a check-in transition.
func CheckIn(id, name string, at time.Time) Transition {
	return Transition{Kind: KindCheckIn, EmployeeID: id, EmployeeName: name, At: at}
}

// CheckOut builds a check-out transition.
func CheckOut(id, name string, at time.Time, hours float64) Transition {
	return Transition{Kind: KindCheckOut, EmployeeID: id, EmployeeName: name, At: at, WorkingHours: hours}
}

// Rejected builds a rejected transition.
func Rejected(id string, reason Reason, err error) Transition {
	return Transition{Kind: KindRejected, EmployeeID: id, Reason: reason, Err: err}
}

// IsRejected reports whether the transition changed nothing.
func (t Transition) IsRejected() bool {
	return t.Kind == KindRejected
}

// RemainingMinutes rounds the remaining cooldown up to whole minutes.
func (t Transition) RemainingMinutes() int {
	if t.Remaining <= 0 {
		return 0
	}
	return int((t.Remaining + time.Minute - 1) / time.Minute)
}

// String renders the status line shown to the operator.
func (t Transition) String() string {
	switch t.Kind {
	case KindCheckIn:
		return fmt.Sprintf("%s (%s) checked in at %s", t.EmployeeName, t.EmployeeID, t.At.Format(time.TimeOnly))
	case KindCheckOut:
		return fmt.Sprintf("%s (%s) checked out at %s, %.2f h", t.EmployeeName, t.EmployeeID, t.At.Format(time.TimeOnly), t.WorkingHours)
	}
	switch t.Reason {
	case ReasonCooldownActive:
		return fmt.Sprintf("%s: cooldown active, %d min remaining", t.EmployeeID, t.RemainingMinutes())
	case ReasonPersistenceError:
		return fmt.Sprintf("%s: could not save attendance: %v", t.EmployeeID, t.Err)
	case ReasonUnrecognized:
		if t.EmployeeID == "" {
			return "unrecognized face"
		}
		return fmt.Sprintf("%s: not an enrolled employee", t.EmployeeID)
	}
	return fmt.Sprintf("%s: %s", t.EmployeeID, t.Reason)
}
