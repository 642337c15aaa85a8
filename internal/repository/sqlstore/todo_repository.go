package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"todo-backend/internal/domain"
	"todo-backend/internal/repository"
)

const todoColumns = `id, title, description, priority, completed, owner_id`

type TodoRepository struct {
	db      repository.DBTX
	dialect Dialect
}

func NewTodoRepository(db repository.DBTX, dialect Dialect) repository.TodoRepository {
	return &TodoRepository{db: db, dialect: dialect}
}

func (r *TodoRepository) Create(ctx context.Context, todo *domain.Todo) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, r.dialect.rebind(`
INSERT INTO todos (title, description, priority, completed, owner_id)
VALUES (?, ?, ?, ?, ?)
RETURNING id`),
		todo.Title,
		todo.Description,
		todo.Priority,
		todo.Completed,
		todo.OwnerID,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert todo: %w", err)
	}

	todo.ID = id
	return id, nil
}

func (r *TodoRepository) GetForOwner(ctx context.Context, id, ownerID int64) (*domain.Todo, error) {
	row := r.db.QueryRowContext(ctx, r.dialect.rebind(`
SELECT `+todoColumns+`
FROM todos
WHERE id=? AND owner_id=?`),
		id,
		ownerID,
	)
	return scanTodo(row)
}

func (r *TodoRepository) ListByOwner(ctx context.Context, ownerID int64) ([]domain.Todo, error) {
	rows, err := r.db.QueryContext(ctx, r.dialect.rebind(`
SELECT `+todoColumns+`
FROM todos
WHERE owner_id=?
ORDER BY id ASC`),
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("query todos by owner: %w", err)
	}
	return collectTodos(rows)
}

func (r *TodoRepository) UpdateForOwner(ctx context.Context, todo *domain.Todo) error {
	res, err := r.db.ExecContext(ctx, r.dialect.rebind(`
UPDATE todos
SET title=?, description=?, priority=?, completed=?
WHERE id=? AND owner_id=?`),
		todo.Title,
		todo.Description,
		todo.Priority,
		todo.Completed,
		todo.ID,
		todo.OwnerID,
	)
	if err != nil {
		return fmt.Errorf("update todo: %w", err)
	}
	return expectOneRow(res, "update todo")
}

func (r *TodoRepository) DeleteForOwner(ctx context.Context, id, ownerID int64) error {
	res, err := r.db.ExecContext(ctx, r.dialect.rebind(`DELETE FROM todos WHERE id=? AND owner_id=?`), id, ownerID)
	if err != nil {
		return fmt.Errorf("delete todo: %w", err)
	}
	return expectOneRow(res, "delete todo")
}

func (r *TodoRepository) List(ctx context.Context) ([]domain.Todo, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT `+todoColumns+`
FROM todos
ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query todos: %w", err)
	}
	return collectTodos(rows)
}

func (r *TodoRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, r.dialect.rebind(`DELETE FROM todos WHERE id=?`), id)
	if err != nil {
		return fmt.Errorf("delete todo: %w", err)
	}
	return expectOneRow(res, "delete todo")
}

func expectOneRow(res sql.Result, op string) error {
	aff, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if aff == 0 {
		return domain.ErrTodoNotFound
	}
	return nil
}

func collectTodos(rows *sql.Rows) ([]domain.Todo, error) {
	defer rows.Close()

	todos := []domain.Todo{}
	for rows.Next() {
		todo, err := scanTodo(rows)
		if err != nil {
			return nil, err
		}
		todos = append(todos, *todo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate todos: %w", err)
	}
	return todos, nil
}

func scanTodo(scanner interface {
	Scan(dest ...any) error
}) (*domain.Todo, error) {
	var todo domain.Todo
	if err := scanner.Scan(
		&todo.ID,
		&todo.Title,
		&todo.Description,
		&todo.Priority,
		&todo.Completed,
		&todo.OwnerID,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrTodoNotFound
		}
		return nil, fmt.Errorf("scan todo: %w", err)
	}
	return &todo, nil
}
