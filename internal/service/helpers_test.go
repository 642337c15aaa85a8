package service

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"todo-backend/internal/auth"
	"todo-backend/internal/domain"
	"todo-backend/internal/repository/sqlstore"
	"todo-backend/internal/storage"
)

type testEnv struct {
	store  *sqlstore.Store
	tokens *auth.TokenService
	users  UserService
	todos  TodoService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store, err := sqlstore.Open(sqlstore.DialectSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Migrate(context.Background(), nil))

	tokens, err := auth.NewTokenService(auth.TokenConfig{Secret: []byte("test-secret"), TTL: time.Minute})
	require.NoError(t, err)

	return &testEnv{
		store:  store,
		tokens: tokens,
		users:  NewUserService(store, auth.NewPasswordHasher(bcrypt.MinCost), tokens),
		todos:  NewTodoService(store),
	}
}

func (e *testEnv) register(t *testing.T, username, role string) (*domain.User, *domain.Identity) {
	t.Helper()
	user, err := e.users.Register(context.Background(), CreateUserInput{
		Username: username,
		Email:    username + "@example.com",
		Password: username + "-password",
		Role:     role,
	})
	require.NoError(t, err)
	return user, &domain.Identity{Username: user.Username, UserID: user.ID, Role: user.Role}
}

type putCall struct {
	opts storage.PutOptions
	body []byte
}

type fakeObjects struct {
	mu      sync.Mutex
	puts    []putCall
	objects []storage.ObjectInfo
	err     error
	prefix  string
}

func (f *fakeObjects) Put(_ context.Context, body io.Reader, opts storage.PutOptions) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, body); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts = append(f.puts, putCall{opts: opts, body: buf.Bytes()})
	return "s3://" + opts.Bucket + "/" + opts.Key, nil
}

func (f *fakeObjects) ListObjects(_ context.Context, _ string, prefix string) ([]storage.ObjectInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prefix = prefix
	return f.objects, nil
}
