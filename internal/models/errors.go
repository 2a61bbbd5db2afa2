package models

import "errors"

var (
	// ErrNotAuthenticated means no user identity was supplied for a write.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrNotHost means the caller is not the session host and the action is
	// host-only.
	ErrNotHost = errors.New("not the session host")
	// ErrNotFound means the referenced session, candidate or vote does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidTarget means the referenced candidate does not belong to the
	// session being voted in.
	ErrInvalidTarget = errors.New("invalid vote target")
	// ErrDuplicateCandidate means the movie is already nominated in the session.
	ErrDuplicateCandidate = errors.New("movie already nominated in session")
	// ErrNoCandidates means a draw was attempted over an empty candidate set.
	ErrNoCandidates = errors.New("no candidates to draw from")
	// ErrInvalidTransition means an illegal session status change was attempted.
	ErrInvalidTransition = errors.New("invalid session transition")
	// ErrInvariantViolation means an aggregate tally would have gone negative.
	// The tally is clamped at zero; the error marks a logic fault to investigate.
	ErrInvariantViolation = errors.New("vote tally invariant violated")
	// ErrImport means an imported movie list was empty or malformed.
	ErrImport = errors.New("invalid movie list import")
	// ErrSuggestionsClosed means the session does not accept viewer nominations.
	ErrSuggestionsClosed = errors.New("viewer suggestions are disabled")
)
