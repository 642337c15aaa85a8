package service

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo-backend/internal/domain"
	"todo-backend/internal/storage"
)

func TestExportWritesSnapshot(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, alice := env.register(t, "alice", domain.RoleUser)
	_, root := env.register(t, "root", domain.RoleAdmin)

	_, err := env.todos.Create(ctx, alice, TodoInput{Title: "Buy milk", Description: "Buy milk", Priority: 3})
	require.NoError(t, err)

	objects := &fakeObjects{}
	fixed := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	svc := NewExportService(env.store, objects, ExportConfig{
		Bucket:    "exports",
		KeyPrefix: "/todo-exports/",
		Now:       func() time.Time { return fixed },
	})

	location, err := svc.Export(ctx, root)
	require.NoError(t, err)
	require.Len(t, objects.puts, 1)

	put := objects.puts[0]
	assert.Equal(t, "exports", put.opts.Bucket)
	assert.Equal(t, "application/json", put.opts.ContentType)
	assert.Regexp(t, regexp.MustCompile(`^todo-exports/todos-20240506T070809Z-[0-9a-f-]{36}\.json$`), put.opts.Key)
	assert.Equal(t, "s3://exports/"+put.opts.Key, location)

	var snapshot struct {
		ExportedBy string `json:"exported_by"`
		Todos      []struct {
			Title   string `json:"title"`
			OwnerID int64  `json:"owner_id"`
		} `json:"todos"`
	}
	require.NoError(t, json.Unmarshal(put.body, &snapshot))
	assert.Equal(t, "root", snapshot.ExportedBy)
	require.Len(t, snapshot.Todos, 1)
	assert.Equal(t, "Buy milk", snapshot.Todos[0].Title)
	assert.Equal(t, alice.UserID, snapshot.Todos[0].OwnerID)
}

func TestExportRequiresAdmin(t *testing.T) {
	env := newTestEnv(t)
	_, alice := env.register(t, "alice", domain.RoleUser)
	objects := &fakeObjects{}
	svc := NewExportService(env.store, objects, ExportConfig{Bucket: "exports"})

	_, err := svc.Export(context.Background(), alice)
	require.ErrorIs(t, err, domain.ErrForbidden)
	_, err = svc.ListExports(context.Background(), alice)
	require.ErrorIs(t, err, domain.ErrForbidden)
	assert.Empty(t, objects.puts)
}

func TestExportWithoutStorage(t *testing.T) {
	env := newTestEnv(t)
	_, root := env.register(t, "root", domain.RoleAdmin)

	for name, svc := range map[string]ExportService{
		"nil service":  NewExportService(env.store, nil, ExportConfig{Bucket: "exports"}),
		"empty bucket": NewExportService(env.store, &fakeObjects{}, ExportConfig{}),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Export(context.Background(), root)
			require.ErrorIs(t, err, domain.ErrStorageUnavailable)
			_, err = svc.ListExports(context.Background(), root)
			require.ErrorIs(t, err, domain.ErrStorageUnavailable)
		})
	}
}

func TestListExports(t *testing.T) {
	env := newTestEnv(t)
	_, root := env.register(t, "root", domain.RoleAdmin)
	objects := &fakeObjects{objects: []storage.ObjectInfo{{Key: "todo-exports/a.json", Size: 12}}}
	svc := NewExportService(env.store, objects, ExportConfig{Bucket: "exports", KeyPrefix: "todo-exports"})

	list, err := svc.ListExports(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, "todo-exports/", objects.prefix)
	require.Len(t, list, 1)
	assert.Equal(t, "todo-exports/a.json", list[0].Key)
}

func TestExportPropagatesStorageError(t *testing.T) {
	env := newTestEnv(t)
	_, root := env.register(t, "root", domain.RoleAdmin)
	boom := errors.New("bucket on fire")
	svc := NewExportService(env.store, &fakeObjects{err: boom}, ExportConfig{Bucket: "exports"})

	_, err := svc.Export(context.Background(), root)
	require.ErrorIs(t, err, boom)
}
