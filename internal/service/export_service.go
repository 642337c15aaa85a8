package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"todo-backend/internal/auth"
	"todo-backend/internal/domain"
	"todo-backend/internal/repository"
	"todo-backend/internal/storage"
)

// ExportConfig points exports at a bucket. An empty Bucket disables exports.
type ExportConfig struct {
	Bucket    string
	KeyPrefix string
	Now       func() time.Time
}

// ExportService writes admin snapshots of every todo to object storage.
type ExportService interface {
	Export(ctx context.Context, identity *domain.Identity) (string, error)
	ListExports(ctx context.Context, identity *domain.Identity) ([]storage.ObjectInfo, error)
}

type exportService struct {
	store   repository.Manager
	objects storage.Service
	cfg     ExportConfig
}

func NewExportService(store repository.Manager, objects storage.Service, cfg ExportConfig) ExportService {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	cfg.KeyPrefix = strings.Trim(cfg.KeyPrefix, "/")
	return &exportService{store: store, objects: objects, cfg: cfg}
}

type exportSnapshot struct {
	ExportedAt time.Time      `json:"exported_at"`
	ExportedBy string         `json:"exported_by"`
	Todos      []exportedTodo `json:"todos"`
}

type exportedTodo struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    int    `json:"priority"`
	Completed   bool   `json:"completed"`
	OwnerID     int64  `json:"owner_id"`
}

func (s *exportService) enabled() bool {
	return s.objects != nil && s.cfg.Bucket != ""
}

func (s *exportService) Export(ctx context.Context, identity *domain.Identity) (string, error) {
	if err := auth.RequireAdmin(identity); err != nil {
		return "", err
	}
	if !s.enabled() {
		return "", domain.ErrStorageUnavailable
	}

	todos, err := s.store.Todos(s.store.Conn()).List(ctx)
	if err != nil {
		return "", err
	}

	now := s.cfg.Now().UTC()
	snapshot := exportSnapshot{
		ExportedAt: now,
		ExportedBy: identity.Username,
		Todos:      make([]exportedTodo, len(todos)),
	}
	for i, t := range todos {
		snapshot.Todos[i] = exportedTodo{
			ID:          t.ID,
			Title:       t.Title,
			Description: t.Description,
			Priority:    t.Priority,
			Completed:   t.Completed,
			OwnerID:     t.OwnerID,
		}
	}

	body, err := json.Marshal(snapshot)
	if err != nil {
		return "", fmt.Errorf("encode export: %w", err)
	}

	key := path.Join(s.cfg.KeyPrefix, fmt.Sprintf("todos-%s-%s.json", now.Format("20060102T150405Z"), uuid.NewString()))
	return s.objects.Put(ctx, bytes.NewReader(body), storage.PutOptions{
		Bucket:      s.cfg.Bucket,
		Key:         key,
		ContentType: "application/json",
	})
}

func (s *exportService) ListExports(ctx context.Context, identity *domain.Identity) ([]storage.ObjectInfo, error) {
	if err := auth.RequireAdmin(identity); err != nil {
		return nil, err
	}
	if !s.enabled() {
		return nil, domain.ErrStorageUnavailable
	}

	prefix := s.cfg.KeyPrefix
	if prefix != "" {
		prefix += "/"
	}
	return s.objects.ListObjects(ctx, s.cfg.Bucket, prefix)
}
