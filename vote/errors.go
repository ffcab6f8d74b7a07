// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package vote

import "errors"

var (
	ErrRejectedConcurrent = errors.New("vote rejected: another vote for this item is pending")
	ErrVoteFailed         = errors.New("vote failed")
	ErrInvalidDirection   = errors.New("invalid vote direction")
)

// FailedError is returned once a dispatched vote did not succeed and the
// item's state has been rolled back.
type FailedError struct {
	Item      string
	Requested Direction
	Reason    string
	Err       error
}

func (e *FailedError) Error() string {
	if e.Item == "" {
		return "vote failed: " + e.Reason
	}
	return "vote on " + e.Item + " failed: " + e.Reason
}

func (e *FailedError) Unwrap() []error {
	return []error{ErrVoteFailed, e.Err}
}
