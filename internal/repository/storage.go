package repository

import (
	"PIVOT-Backend/internal/domain"
	"context"
	"errors"
)

var (
	ErrCodeNotFound = errors.New("code not found")
	ErrCodeExists   = errors.New("code already exists")
)

// Storage is the persistence boundary shared by the allocator and the
// resolver. Implementations must enforce code uniqueness on SaveLink and
// make FindLinkAndCountClick a single indivisible operation.
type Storage interface {
	// SaveLink persists a new link. Returns ErrCodeExists when the code is
	// already taken, either on the pre-check or on the unique constraint.
	SaveLink(ctx context.Context, link *domain.Link) error

	// GetLink returns the link by code without touching its click counter.
	GetLink(ctx context.Context, code string) (*domain.Link, error)

	// CodeExists reports whether a link with the code exists.
	CodeExists(ctx context.Context, code string) (bool, error)

	// FindLinkAndCountClick finds the link by code and increments its
	// click counter in the same operation, returning the post-increment
	// row. The increment happens exactly once per call that finds a row,
	// even when the link turns out to be inactive, expired or exhausted.
	FindLinkAndCountClick(ctx context.Context, code string) (*domain.Link, error)

	// DeactivateLink sets is_active to false for the code.
	DeactivateLink(ctx context.Context, code string) error
}
