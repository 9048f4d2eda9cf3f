package domain

import (
	"context"
	"errors"
	"fmt"
)

// Selection is one checked option of a checkbox question.
type Selection struct {
	Option string `json:"option"`
	Value  string `json:"value"`
}

// Answer is a submitted answer to a custom question. Text carries the
// response for text questions; Selections for checkbox questions.
type Answer struct {
	QuestionID string      `json:"question_id"`
	Text       string      `json:"text"`
	Selections []Selection `json:"selections"`
}

type RegisterRequest struct {
	EventID        string
	UserID         string
	InvitationCode string
	InstitutionID  string
	Answers        []Answer
}

type CancelRequest struct {
	EventID string
	UserID  string
}

type Registration struct {
	Attendee Attendee       `json:"attendee"`
	Answers  []CustomAnswer `json:"answers"`
}

type Service interface {
	// Register runs the ordered admission guard inside one transaction and
	// enqueues a confirmation email after commit.
	Register(context.Context, RegisterRequest) (Registration, error)
	// Cancel removes the attendee and answers. Refused while a completed
	// payment exists.
	Cancel(context.Context, CancelRequest) error
	MyRegistrations(ctx context.Context, userID string) ([]Registration, error)
	Roster(ctx context.Context, eventID string) ([]Registration, error)
	GetAttendee(ctx context.Context, attendeeID string) (Attendee, error)
	FindAttendee(ctx context.Context, eventID, userID string) (Attendee, error)
}

var (
	ErrNotFound              = errors.New("not_found")
	ErrInvalidID             = errors.New("invalid_id")
	ErrDeadlinePassed        = errors.New("deadline_passed")
	ErrInvalidInvitationCode = errors.New("invalid_invitation_code")
	ErrEventFull             = errors.New("event_full")
	ErrAlreadyRegistered     = errors.New("already_registered")
	ErrMissingInstitute      = errors.New("missing_institute")
	ErrInvalidInstitution    = errors.New("invalid_institution")
	// ErrPaymentRequired blocks cancellation while a completed payment exists.
	ErrPaymentRequired = errors.New("payment_required_cancellation")
)

// MissingAnswerError reports an unanswered required question by text so the
// user can see which one.
type MissingAnswerError struct {
	Question string
}

func (e *MissingAnswerError) Error() string {
	return fmt.Sprintf("missing answer: %s", e.Question)
}
