// Package fault defines the error kinds the application service returns to
// its callers. Inbound adapters classify them with errors.As and choose
// their own wire representation; none of the kinds carries transport or
// storage detail in its message.
package fault

// ValidationError reports malformed input, e.g. an empty server name or a
// non-positive disk size.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid input: " + e.Reason
}

// NotFoundError reports that a referenced entity does not exist.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return e.Resource + " " + e.ID + " not found"
}

// ConflictError reports an operation not permitted in the entity's current
// state, e.g. attaching a disk to a terminated server.
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string {
	return "conflict: " + e.Reason
}

// PersistenceError reports a failed store operation. The message names only
// the operation; the cause (which may mention file paths) stays behind
// Unwrap for logging.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return "storage: " + e.Op + " failed"
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
