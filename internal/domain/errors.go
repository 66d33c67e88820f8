package domain

import "errors"

// Zone errors. ErrZoneNotFound and ErrZoneMalformed are fatal at startup.
var (
	ErrZoneNotFound     = errors.New("mutable zone not found")
	ErrZoneMalformed    = errors.New("mutable zone malformed")
	ErrVariableNotFound = errors.New("variable not found in zone")
	ErrParseFailure     = errors.New("literal parse failure")
)

// Pipeline rejections are recoverable; ErrCommitIO is not.
var (
	ErrSyntaxRejected = errors.New("candidate rejected by syntax check")
	ErrPolicyRejected = errors.New("candidate rejected by import policy")
	ErrLoadRejected   = errors.New("candidate rejected by load check")
	ErrCommitIO       = errors.New("commit io failure")
)

var (
	ErrJournalCorruption    = errors.New("state journal corrupted")
	ErrCognitionUnavailable = errors.New("cognition unavailable")
	ErrRestartRequired      = errors.New("restart required")
	ErrGoalRegression       = errors.New("goal progress cannot decrease")
	ErrMutationFinalized    = errors.New("mutation already finalized")
)

// Recoverable reports whether err belongs to the local, skip-the-candidate
// part of the taxonomy.
func Recoverable(err error) bool {
	switch {
	case errors.Is(err, ErrVariableNotFound),
		errors.Is(err, ErrParseFailure),
		errors.Is(err, ErrSyntaxRejected),
		errors.Is(err, ErrPolicyRejected),
		errors.Is(err, ErrLoadRejected),
		errors.Is(err, ErrCognitionUnavailable):
		return true
	}
	return false
}
