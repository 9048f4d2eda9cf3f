package domain

import (
	"context"
	"errors"
)

type CreateUserRequest struct {
	Email         string
	Name          string
	Locale        string
	InstitutionID string
}

type UpdateProfileRequest struct {
	UserID        string
	Name          string
	Locale        string
	InstitutionID string
}

type Service interface {
	Create(context.Context, CreateUserRequest) (User, error)
	GetByID(context.Context, string) (User, error)
	GetByEmail(context.Context, string) (User, error)
	UpdateProfile(context.Context, UpdateProfileRequest) (User, error)
	// TouchLogin marks the user active. A warned account that comes back is
	// no longer a deletion candidate. Skips the write unless the warning flag
	// is set or the last recorded login is older than an hour.
	TouchLogin(context.Context, string) error
}

var (
	ErrInvalidEmail  = errors.New("invalid_email")
	ErrInvalidID     = errors.New("invalid_id")
	ErrInvalidLocale = errors.New("invalid_locale")
	ErrNotFound      = errors.New("not_found")
)
