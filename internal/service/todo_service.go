package service

import (
	"context"
	"unicode/utf8"

	"todo-backend/internal/auth"
	"todo-backend/internal/domain"
	"todo-backend/internal/repository"
)

// TodoInput carries the writable fields of a Todo.
type TodoInput struct {
	Title       string
	Description string
	Priority    int
	Completed   bool
}

func (in TodoInput) Validate() error {
	if utf8.RuneCountInString(in.Title) < 3 {
		return domain.NewValidationError("title", "must be at least 3 characters")
	}
	n := utf8.RuneCountInString(in.Description)
	if n < 3 || n > 100 {
		return domain.NewValidationError("description", "must be between 3 and 100 characters")
	}
	if in.Priority < domain.MinTodoPriority || in.Priority > domain.MaxTodoPriority {
		return domain.NewValidationError("priority", "must be between %d and %d", domain.MinTodoPriority, domain.MaxTodoPriority)
	}
	return nil
}

// TodoService coordinates owner-scoped and admin todo operations.
type TodoService interface {
	List(ctx context.Context, identity *domain.Identity) ([]domain.Todo, error)
	Get(ctx context.Context, identity *domain.Identity, id int64) (*domain.Todo, error)
	Create(ctx context.Context, identity *domain.Identity, in TodoInput) (*domain.Todo, error)
	Update(ctx context.Context, identity *domain.Identity, id int64, in TodoInput) (*domain.Todo, error)
	Delete(ctx context.Context, identity *domain.Identity, id int64) error

	ListAll(ctx context.Context, identity *domain.Identity) ([]domain.Todo, error)
	AdminDelete(ctx context.Context, identity *domain.Identity, id int64) error
}

type todoService struct {
	store repository.Manager
}

func NewTodoService(store repository.Manager) TodoService {
	return &todoService{store: store}
}

func (s *todoService) todos() repository.TodoRepository {
	return s.store.Todos(s.store.Conn())
}

func (s *todoService) List(ctx context.Context, identity *domain.Identity) ([]domain.Todo, error) {
	ownerID, err := auth.OwnerScope(identity)
	if err != nil {
		return nil, err
	}
	return s.todos().ListByOwner(ctx, ownerID)
}

func (s *todoService) Get(ctx context.Context, identity *domain.Identity, id int64) (*domain.Todo, error) {
	ownerID, err := auth.OwnerScope(identity)
	if err != nil {
		return nil, err
	}
	return s.todos().GetForOwner(ctx, id, ownerID)
}

func (s *todoService) Create(ctx context.Context, identity *domain.Identity, in TodoInput) (*domain.Todo, error) {
	ownerID, err := auth.OwnerScope(identity)
	if err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	todo := &domain.Todo{
		Title:       in.Title,
		Description: in.Description,
		Priority:    in.Priority,
		Completed:   in.Completed,
		OwnerID:     ownerID,
	}
	if _, err := s.todos().Create(ctx, todo); err != nil {
		return nil, err
	}
	return todo, nil
}

func (s *todoService) Update(ctx context.Context, identity *domain.Identity, id int64, in TodoInput) (*domain.Todo, error) {
	ownerID, err := auth.OwnerScope(identity)
	if err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	todo := &domain.Todo{
		ID:          id,
		Title:       in.Title,
		Description: in.Description,
		Priority:    in.Priority,
		Completed:   in.Completed,
		OwnerID:     ownerID,
	}
	if err := s.todos().UpdateForOwner(ctx, todo); err != nil {
		return nil, err
	}
	return todo, nil
}

func (s *todoService) Delete(ctx context.Context, identity *domain.Identity, id int64) error {
	ownerID, err := auth.OwnerScope(identity)
	if err != nil {
		return err
	}
	return s.todos().DeleteForOwner(ctx, id, ownerID)
}

func (s *todoService) ListAll(ctx context.Context, identity *domain.Identity) ([]domain.Todo, error) {
	if err := auth.RequireAdmin(identity); err != nil {
		return nil, err
	}
	return s.todos().List(ctx)
}

func (s *todoService) AdminDelete(ctx context.Context, identity *domain.Identity, id int64) error {
	if err := auth.RequireAdmin(identity); err != nil {
		return err
	}
	return s.todos().Delete(ctx, id)
}
