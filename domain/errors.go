package domain

import "fmt"

// UnknownTargetError is returned when an id does not resolve to a client in
// the supplied set. The request validator normally catches this first; the
// reconciler still checks so a missing lookup can never corrupt a lane.
type UnknownTargetError struct {
	ID int
}

func (e UnknownTargetError) Error() string {
	return fmt.Sprintf("client %d not found", e.ID)
}

// InvalidStatusError is returned when a requested status is outside the
// fixed lane set.
type InvalidStatusError struct {
	Status Status
}

func (e InvalidStatusError) Error() string {
	return fmt.Sprintf("invalid status %q", string(e.Status))
}
