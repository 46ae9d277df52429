package models

import (
	dErrors "gavel/pkg/domain-errors"
)

// Status is the moderation state of an account. Values form a closed set so
// illegal states are unrepresentable; compare with the constants, never with
// raw strings.
type Status string

const (
	StatusActive     Status = "ACTIVE"
	StatusSuspended  Status = "SUSPENDED"
	StatusTerminated Status = "TERMINATED"
)

var statuses = map[Status]struct{}{
	StatusActive:     {},
	StatusSuspended:  {},
	StatusTerminated: {},
}

// ParseStatus validates and returns a Status.
func ParseStatus(s string) (Status, error) {
	status := Status(s)
	if _, ok := statuses[status]; !ok {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown account status: %s", s)
	}
	return status, nil
}

func (s Status) String() string {
	return string(s)
}
