package models

// ServerStatus is the lifecycle state of a server.
type ServerStatus string

const (
	StatusProvisioning ServerStatus = "provisioning"
	StatusRunning      ServerStatus = "running"
	StatusStopped      ServerStatus = "stopped"
	StatusTerminated   ServerStatus = "terminated"
)

// transitions lists the statuses reachable from each state. Terminated is
// absorbing.
var transitions = map[ServerStatus][]ServerStatus{
	StatusProvisioning: {StatusRunning, StatusTerminated},
	StatusRunning:      {StatusStopped, StatusTerminated},
	StatusStopped:      {StatusRunning, StatusTerminated},
	StatusTerminated:   {},
}

// Valid reports whether s is a known status value.
func (s ServerStatus) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// IsTerminal reports whether no further mutation is permitted.
func (s ServerStatus) IsTerminal() bool {
	return s == StatusTerminated
}

// CanTransition reports whether the state machine allows moving to next.
func (s ServerStatus) CanTransition(next ServerStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}
