package swap

import (
	"fmt"

	"github.com/pkg/errors"
)

// Reason explains why a participant was left out of matching.
type Reason string

const (
	ReasonNoLevel    Reason = "no_level"
	ReasonNoLocation Reason = "no_current_location"
	ReasonNoSubjects Reason = "no_subjects"
	ReasonInactive   Reason = "inactive_account"
)

var (
	// errors
	ErrParticipantNotFound = errors.New("participant not found")
	ErrInvalidKind         = errors.New("invalid participant kind")
	ErrAnchorIneligible    = errors.New("anchor is not eligible for matching")
)

// IneligibleError is returned by the Detector when the anchor itself cannot be matched.
type IneligibleError struct {
	Ref    Ref
	Reason Reason
}

func (err *IneligibleError) Error() string {
	return fmt.Sprintf("%s: %s (%s)", ErrAnchorIneligible, err.Ref, err.Reason)
}

func (err *IneligibleError) Cause() error { return ErrAnchorIneligible }
