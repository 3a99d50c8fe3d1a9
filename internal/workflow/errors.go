package workflow

import "errors"

// Typed errors returned by the engine and directory. Handlers map these to
// HTTP status codes; everything else propagates as a 500.
var (
	// ErrNotFound: the application (or a referenced user) does not exist.
	ErrNotFound = errors.New("application not found")
	// ErrInvalidState: a decision was attempted on a non-PENDING application.
	ErrInvalidState = errors.New("application is not pending")
	// ErrAlreadyDecided: the current level already carries a record, or a
	// concurrent decision won the version race.
	ErrAlreadyDecided = errors.New("current level has already been decided")
	// ErrForbidden: the caller is neither configured nor role-eligible at the
	// application's current level, or is not the submitter on cancel.
	ErrForbidden = errors.New("not allowed to act on this application")
	// ErrConfigurationMissing: no approver pool and no role fallback could
	// produce an approver for the required level.
	ErrConfigurationMissing = errors.New("no eligible approver configured for level")
	// ErrUnknownKind: the application kind has no registered strategy.
	ErrUnknownKind = errors.New("unknown application kind")
)
