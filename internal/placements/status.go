package placements

// Status is the lifecycle state of a placement.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusActive    Status = "active"
	StatusExpired   Status = "expired"
	StatusCancelled Status = "cancelled"
)

var statusTransitions = map[Status][]Status{
	StatusQueued: {StatusActive, StatusCancelled},
	StatusActive: {StatusExpired},
}

// IsValid checks if the placement status is valid
func (s Status) IsValid() bool {
	switch s {
	case StatusQueued, StatusActive, StatusExpired, StatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// CanTransitionTo checks the placement state machine.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}
