// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 FluxStudio Contributors

package world

import (
	"context"

	"github.com/samber/oops"

	"github.com/fluxstudio/fluxstudio/internal/object"
)

// SceneWriter receives serialized instances. store.SceneStore satisfies it.
type SceneWriter interface {
	SaveObject(ctx context.Context, sceneID, id, typeKey string, doc []byte) error
}

// SceneReader returns the serialized instances of a scene.
type SceneReader interface {
	LoadScene(ctx context.Context, sceneID string) ([][]byte, error)
}

// Save writes every instance to sceneID and returns how many were written.
// It stops at the first failure.
func (w *World) Save(ctx context.Context, dst SceneWriter, sceneID string) (int, error) {
	n := 0
	for _, id := range w.order {
		obj := w.objects[id]
		data, err := w.factory.Serialize(obj)
		if err != nil {
			return n, oops.In("world").With("id", id).Wrap(err)
		}
		if err := dst.SaveObject(ctx, sceneID, obj.ID, obj.Metadata.Type, data); err != nil {
			return n, oops.In("world").With("scene_id", sceneID).With("id", id).Wrap(err)
		}
		n++
	}
	w.logger.Info("scene saved", "scene_id", sceneID, "objects", n)
	return n, nil
}

// Load reads sceneID and restores its instances into the world.
func (w *World) Load(ctx context.Context, src SceneReader, sceneID string) ([]*object.WorldObject, error) {
	docs, err := src.LoadScene(ctx, sceneID)
	if err != nil {
		return nil, oops.In("world").With("scene_id", sceneID).Wrap(err)
	}
	restored := w.Restore(docs)
	w.logger.Info("scene loaded", "scene_id", sceneID, "objects", len(restored), "skipped", len(docs)-len(restored))
	return restored, nil
}
