// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/dkorzhov/tasksync/internal/model"
)

// UserRepository provides access to user accounts.
type UserRepository interface {
	// Create inserts a new user and fills in the generated id.
	// Fails with errs.ErrAlreadyExists when the email is taken.
	Create(ctx context.Context, u *model.User) error
	// GetByID loads a user by id.
	GetByID(ctx context.Context, id int64) (*model.User, error)
	// GetByEmail loads a user by its lowercased email.
	GetByEmail(ctx context.Context, email string) (*model.User, error)
}
