package domain

import (
	"context"
	"errors"
)

type CreateInstitutionRequest struct {
	NameKO string
	NameEN string
}

type UpdateInstitutionRequest struct {
	ID     string
	NameKO string
	NameEN string
}

type SearchInstitutionRequest struct {
	Prefix string
	Limit  int
}

type Service interface {
	Create(context.Context, CreateInstitutionRequest) (Institution, error)
	Update(context.Context, UpdateInstitutionRequest) (Institution, error)
	GetByID(context.Context, string) (Institution, error)
	Search(context.Context, SearchInstitutionRequest) ([]Institution, error)
}

var (
	ErrInvalidName = errors.New("invalid_name")
	ErrInvalidID   = errors.New("invalid_id")
	ErrNotFound    = errors.New("not_found")
)
