package domain

import (
	"context"
	"errors"
)

type SubmitRequest struct {
	EventID string
	UserID  string
	Title   string
	Body    string
}

type DecideRequest struct {
	AbstractID string
	Status     string
}

type VoteRequest struct {
	AbstractID string
	ReviewerID string
}

type Service interface {
	Submit(context.Context, SubmitRequest) (Abstract, error)
	Withdraw(ctx context.Context, abstractID, userID string) error
	Decide(context.Context, DecideRequest) (Abstract, error)
	Vote(context.Context, VoteRequest) error
	Unvote(context.Context, VoteRequest) error
	Tally(ctx context.Context, eventID string) ([]TallyItem, error)
	MyAbstract(ctx context.Context, eventID, userID string) (Abstract, error)
}

var (
	ErrNotFound         = errors.New("not_found")
	ErrInvalidID        = errors.New("invalid_id")
	ErrInvalidTitle     = errors.New("invalid_title")
	ErrInvalidStatus    = errors.New("invalid_status")
	ErrDeadlinePassed   = errors.New("deadline_passed")
	ErrAlreadySubmitted = errors.New("already_submitted")
	ErrVoteBudgetSpent  = errors.New("vote_budget_spent")
)
