// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 FluxStudio Contributors

// Package store persists serialized world objects grouped into scenes.
package store

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// Sentinel errors.
var (
	ErrSceneNotFound  = errors.New("scene not found")
	ErrObjectNotFound = errors.New("scene object not found")
)

// SceneStore saves and loads serialized object documents.
type SceneStore interface {
	SaveObject(ctx context.Context, sceneID, id, typeKey string, doc []byte) error
	LoadScene(ctx context.Context, sceneID string) ([][]byte, error)
	DeleteObject(ctx context.Context, id string) error
}

// Scene is a named group of persisted objects.
type Scene struct {
	ID        string
	Name      string
	Objects   int
	UpdatedAt time.Time
}

// poolIface is satisfied by *pgxpool.Pool and pgxmock.PgxPoolIface.
type poolIface interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresSceneStore implements SceneStore on PostgreSQL.
type PostgresSceneStore struct {
	pool   poolIface
	logger *slog.Logger
}

var _ SceneStore = (*PostgresSceneStore)(nil)

// Option configures a PostgresSceneStore.
type Option func(*PostgresSceneStore)

// WithLogger sets the store logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *PostgresSceneStore) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewPostgresSceneStore wraps an open pool.
func NewPostgresSceneStore(pool poolIface, opts ...Option) *PostgresSceneStore {
	s := &PostgresSceneStore{pool: pool, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ConnectConfig controls connection retries.
type ConnectConfig struct {
	MaxRetries uint64
	BaseDelay  time.Duration
}

// DefaultConnectConfig retries five times starting at 200ms.
func DefaultConnectConfig() ConnectConfig {
	return ConnectConfig{MaxRetries: 5, BaseDelay: 200 * time.Millisecond}
}

// Connect opens a pool to dsn and pings it, retrying with exponential
// backoff while the database is unreachable.
func Connect(ctx context.Context, dsn string, cfg ConnectConfig, opts ...Option) (*PostgresSceneStore, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, oops.Code("INVALID_DSN").With("operation", "parse dsn").Wrap(err)
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = DefaultConnectConfig().BaseDelay
	}

	s := NewPostgresSceneStore(nil, opts...)
	backoff := retry.WithMaxRetries(cfg.MaxRetries, retry.NewExponential(cfg.BaseDelay))
	var pool *pgxpool.Pool
	attempt := 0
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		p, err := pgxpool.NewWithConfig(ctx, poolCfg)
		if err != nil {
			return retry.RetryableError(err)
		}
		if err := p.Ping(ctx); err != nil {
			p.Close()
			s.logger.Warn("database not ready", "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
		pool = p
		return nil
	})
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").With("attempts", attempt).Wrap(err)
	}
	s.pool = pool
	return s, nil
}

// Close releases the pool.
func (s *PostgresSceneStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// CreateScene inserts a scene or renames an existing one.
func (s *PostgresSceneStore) CreateScene(ctx context.Context, id, name string) error {
	if id == "" {
		return oops.Code("INVALID_SCENE").Errorf("scene id is required")
	}
	if name == "" {
		name = id
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO scenes (id, name) VALUES ($1, $2)
		 ON CONFLICT (id) DO UPDATE SET name = $2, updated_at = now()`,
		id, name)
	if err != nil {
		return oops.With("operation", "create scene").With("scene_id", id).Wrap(err)
	}
	return nil
}

// DeleteScene removes a scene and, by cascade, its objects.
func (s *PostgresSceneStore) DeleteScene(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM scenes WHERE id = $1`, id)
	if err != nil {
		return oops.With("operation", "delete scene").With("scene_id", id).Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return oops.Code("SCENE_NOT_FOUND").With("scene_id", id).Wrap(ErrSceneNotFound)
	}
	return nil
}

// ListScenes returns every scene with its object count, ordered by id.
func (s *PostgresSceneStore) ListScenes(ctx context.Context) ([]Scene, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT s.id, s.name, count(o.id), s.updated_at
		 FROM scenes s LEFT JOIN scene_objects o ON o.scene_id = s.id
		 GROUP BY s.id, s.name, s.updated_at
		 ORDER BY s.id`)
	if err != nil {
		return nil, oops.With("operation", "list scenes").Wrap(err)
	}
	defer rows.Close()

	var scenes []Scene
	for rows.Next() {
		var sc Scene
		if err := rows.Scan(&sc.ID, &sc.Name, &sc.Objects, &sc.UpdatedAt); err != nil {
			return nil, oops.With("operation", "scan scene row").Wrap(err)
		}
		scenes = append(scenes, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.With("operation", "iterate scenes").Wrap(err)
	}
	return scenes, nil
}

// SaveObject upserts one object document. The scene must exist.
func (s *PostgresSceneStore) SaveObject(ctx context.Context, sceneID, id, typeKey string, doc []byte) error {
	if id == "" || typeKey == "" {
		return oops.Code("INVALID_OBJECT").With("id", id).With("type", typeKey).Errorf("object id and type are required")
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO scene_objects (id, scene_id, type_key, document)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE
		 SET scene_id = $2, type_key = $3, document = $4, updated_at = now()`,
		id, sceneID, typeKey, doc)
	if err != nil {
		if isForeignKeyViolation(err) {
			return oops.Code("SCENE_NOT_FOUND").With("scene_id", sceneID).With("id", id).Wrap(ErrSceneNotFound)
		}
		return oops.With("operation", "save object").With("scene_id", sceneID).With("id", id).Wrap(err)
	}
	return nil
}

// LoadScene returns the object documents of a scene ordered by id. A
// missing scene is ErrSceneNotFound; an empty scene is an empty slice.
func (s *PostgresSceneStore) LoadScene(ctx context.Context, sceneID string) ([][]byte, error) {
	var exists bool
	if err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM scenes WHERE id = $1)`, sceneID).Scan(&exists); err != nil {
		return nil, oops.With("operation", "check scene").With("scene_id", sceneID).Wrap(err)
	}
	if !exists {
		return nil, oops.Code("SCENE_NOT_FOUND").With("scene_id", sceneID).Wrap(ErrSceneNotFound)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT document FROM scene_objects WHERE scene_id = $1 ORDER BY id`, sceneID)
	if err != nil {
		return nil, oops.With("operation", "load scene").With("scene_id", sceneID).Wrap(err)
	}
	defer rows.Close()

	docs := [][]byte{}
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, oops.With("operation", "scan scene object").With("scene_id", sceneID).Wrap(err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.With("operation", "iterate scene objects").With("scene_id", sceneID).Wrap(err)
	}
	s.logger.Debug("scene loaded", "scene_id", sceneID, "objects", len(docs))
	return docs, nil
}

// DeleteObject removes one object document.
func (s *PostgresSceneStore) DeleteObject(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM scene_objects WHERE id = $1`, id)
	if err != nil {
		return oops.With("operation", "delete object").With("id", id).Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return oops.Code("OBJECT_NOT_FOUND").With("id", id).Wrap(ErrObjectNotFound)
	}
	return nil
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation
}
