package sqlstore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo-backend/internal/domain"
	"todo-backend/internal/repository"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(DialectSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Migrate(context.Background(), nil))
	return store
}

func createUser(t *testing.T, store *Store, username string) *domain.User {
	t.Helper()
	user := &domain.User{
		Username:     username,
		Email:        username + "@example.com",
		FirstName:    "First",
		LastName:     "Last",
		PasswordHash: "hash-" + username,
		IsActive:     true,
		Role:         domain.RoleUser,
	}
	_, err := store.Users(store.Conn()).Create(context.Background(), user)
	require.NoError(t, err)
	return user
}

func TestParseDialect(t *testing.T) {
	tests := []struct {
		in      string
		want    Dialect
		wantErr bool
	}{
		{in: "sqlite", want: DialectSQLite},
		{in: " SQLite ", want: DialectSQLite},
		{in: "postgres", want: DialectPostgres},
		{in: "pgx", want: DialectPostgres},
		{in: "mysql", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDialect(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSQLiteDSN(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{":memory:", ":memory:?_pragma=foreign_keys(1)"},
		{"data/todos.db", "data/todos.db?_pragma=foreign_keys(1)"},
		{"data/todos.db?_pragma=busy_timeout(5000)", "data/todos.db?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"},
		{"todos.db?_pragma=foreign_keys(1)", "todos.db?_pragma=foreign_keys(1)"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sqliteDSN(tt.in), tt.in)
	}
}

func TestOpen_ForeignKeysOnFreshConnections(t *testing.T) {
	store, err := Open(DialectSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	// every query now runs on a newly opened connection
	store.DB().SetMaxIdleConns(0)
	for i := 0; i < 3; i++ {
		var enabled int
		require.NoError(t, store.DB().QueryRow(`PRAGMA foreign_keys`).Scan(&enabled))
		assert.Equal(t, 1, enabled)
	}
}

func TestRebind(t *testing.T) {
	q := `UPDATE todos SET title=? WHERE id=? AND owner_id=?`
	assert.Equal(t, q, DialectSQLite.rebind(q))
	assert.Equal(t, `UPDATE todos SET title=$1 WHERE id=$2 AND owner_id=$3`, DialectPostgres.rebind(q))
}

func TestMigrate_Idempotent(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Migrate(context.Background(), nil))
}

func TestUserRepository_CreateAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	users := store.Users(store.Conn())

	alice := createUser(t, store, "alice")
	require.NotZero(t, alice.ID)

	byName, err := users.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, byName.ID)
	assert.Equal(t, "alice@example.com", byName.Email)
	assert.Equal(t, "hash-alice", byName.PasswordHash)
	assert.True(t, byName.IsActive)
	assert.Equal(t, domain.RoleUser, byName.Role)
	assert.False(t, byName.CreatedAt.IsZero())

	byID, err := users.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Username)
}

func TestUserRepository_NotFound(t *testing.T) {
	store := newTestStore(t)
	users := store.Users(store.Conn())

	_, err := users.GetByUsername(context.Background(), "ghost")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	_, err = users.GetByID(context.Background(), 999)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestUserRepository_DuplicateIsConflict(t *testing.T) {
	store := newTestStore(t)
	createUser(t, store, "alice")

	dupName := &domain.User{Username: "alice", Email: "other@example.com", PasswordHash: "h", IsActive: true}
	_, err := store.Users(store.Conn()).Create(context.Background(), dupName)
	assert.ErrorIs(t, err, domain.ErrConflict)

	dupEmail := &domain.User{Username: "alice2", Email: "alice@example.com", PasswordHash: "h", IsActive: true}
	_, err = store.Users(store.Conn()).Create(context.Background(), dupEmail)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestUserRepository_Update(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	users := store.Users(store.Conn())
	alice := createUser(t, store, "alice")

	alice.PasswordHash = "new-hash"
	require.NoError(t, users.Update(ctx, alice))

	got, err := users.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", got.PasswordHash)

	missing := &domain.User{ID: 12345, Email: "x@example.com"}
	assert.ErrorIs(t, users.Update(ctx, missing), domain.ErrUserNotFound)
}

func TestTodoRepository_OwnerScoping(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	todos := store.Todos(store.Conn())
	alice := createUser(t, store, "alice")
	bob := createUser(t, store, "bob")

	milk := &domain.Todo{Title: "Buy milk", Description: "two litres", Priority: 3, OwnerID: alice.ID}
	_, err := todos.Create(ctx, milk)
	require.NoError(t, err)
	require.NotZero(t, milk.ID)

	got, err := todos.GetForOwner(ctx, milk.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, *milk, *got)

	_, err = todos.GetForOwner(ctx, milk.ID, bob.ID)
	assert.ErrorIs(t, err, domain.ErrTodoNotFound)

	bobList, err := todos.ListByOwner(ctx, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, bobList)

	hijack := *milk
	hijack.OwnerID = bob.ID
	hijack.Title = "stolen"
	assert.ErrorIs(t, todos.UpdateForOwner(ctx, &hijack), domain.ErrTodoNotFound)
	assert.ErrorIs(t, todos.DeleteForOwner(ctx, milk.ID, bob.ID), domain.ErrTodoNotFound)

	unchanged, err := todos.GetForOwner(ctx, milk.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "Buy milk", unchanged.Title)

	milk.Completed = true
	milk.Priority = 5
	require.NoError(t, todos.UpdateForOwner(ctx, milk))
	aliceList, err := todos.ListByOwner(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, aliceList, 1)
	assert.True(t, aliceList[0].Completed)
	assert.Equal(t, 5, aliceList[0].Priority)

	require.NoError(t, todos.DeleteForOwner(ctx, milk.ID, alice.ID))
	assert.ErrorIs(t, todos.DeleteForOwner(ctx, milk.ID, alice.ID), domain.ErrTodoNotFound)
}

func TestTodoRepository_AdminListAndDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	todos := store.Todos(store.Conn())
	alice := createUser(t, store, "alice")
	bob := createUser(t, store, "bob")

	a := &domain.Todo{Title: "alice todo", Description: "desc", Priority: 1, OwnerID: alice.ID}
	b := &domain.Todo{Title: "bob todo", Description: "desc", Priority: 2, OwnerID: bob.ID}
	_, err := todos.Create(ctx, a)
	require.NoError(t, err)
	_, err = todos.Create(ctx, b)
	require.NoError(t, err)

	all, err := todos.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, a.ID, all[0].ID)
	assert.Equal(t, b.ID, all[1].ID)

	require.NoError(t, todos.Delete(ctx, b.ID))
	assert.ErrorIs(t, todos.Delete(ctx, b.ID), domain.ErrTodoNotFound)

	all, err = todos.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestTodoRepository_RejectsUnknownOwner(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Todos(store.Conn()).Create(context.Background(), &domain.Todo{Title: "orphan", Priority: 1, OwnerID: 42})
	require.Error(t, err)
}

func TestWithTx_CommitsOnSuccess(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.WithTx(ctx, func(ctx context.Context, tx repository.DBTX) error {
		_, err := store.Users(tx).Create(ctx, &domain.User{Username: "carol", Email: "carol@example.com", PasswordHash: "h", IsActive: true})
		return err
	})
	require.NoError(t, err)

	_, err = store.Users(store.Conn()).GetByUsername(ctx, "carol")
	require.NoError(t, err)
}

func TestWithTx_RollbackOnError(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.WithTx(ctx, func(ctx context.Context, tx repository.DBTX) error {
		_, err := store.Users(tx).Create(ctx, &domain.User{Username: "dave", Email: "dave@example.com", PasswordHash: "h", IsActive: true})
		require.NoError(t, err)
		return errors.New("boom")
	})
	require.EqualError(t, err, "boom")

	_, err = store.Users(store.Conn()).GetByUsername(ctx, "dave")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestWithTx_RollbackOnPanic(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	defer func() {
		require.NotNil(t, recover(), "expected panic to propagate")
		_, err := store.Users(store.Conn()).GetByUsername(ctx, "erin")
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
	}()

	_ = store.WithTx(ctx, func(ctx context.Context, tx repository.DBTX) error {
		_, err := store.Users(tx).Create(ctx, &domain.User{Username: "erin", Email: "erin@example.com", PasswordHash: "h", IsActive: true})
		require.NoError(t, err)
		panic("kaput")
	})
}
