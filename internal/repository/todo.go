package repository

import (
	"context"

	"todo-backend/internal/domain"
)

// TodoRepository exposes persistence operations for Todo records.
// The *ForOwner methods only ever match rows whose owner_id equals ownerID.
type TodoRepository interface {
	Create(ctx context.Context, todo *domain.Todo) (int64, error)
	GetForOwner(ctx context.Context, id, ownerID int64) (*domain.Todo, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]domain.Todo, error)
	UpdateForOwner(ctx context.Context, todo *domain.Todo) error
	DeleteForOwner(ctx context.Context, id, ownerID int64) error

	List(ctx context.Context) ([]domain.Todo, error)
	Delete(ctx context.Context, id int64) error
}
