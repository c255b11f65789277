// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 FluxStudio Contributors

package world_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluxstudio/fluxstudio/internal/store"
)

type memScene struct {
	docs    map[string][][]byte
	types   []string
	failAt  int
	saveErr error
}

func (m *memScene) SaveObject(_ context.Context, sceneID, _, typeKey string, doc []byte) error {
	if m.saveErr != nil && len(m.types) == m.failAt {
		return m.saveErr
	}
	if m.docs == nil {
		m.docs = map[string][][]byte{}
	}
	m.docs[sceneID] = append(m.docs[sceneID], doc)
	m.types = append(m.types, typeKey)
	return nil
}

func (m *memScene) LoadScene(_ context.Context, sceneID string) ([][]byte, error) {
	docs, ok := m.docs[sceneID]
	if !ok {
		return nil, store.ErrSceneNotFound
	}
	return docs, nil
}

func TestWorld_SaveLoad(t *testing.T) {
	w := newWorld(t)
	a, err := w.Spawn("furniture.crate", nil, nil)
	require.NoError(t, err)
	_, err = w.Spawn("ui.label", nil, nil)
	require.NoError(t, err)

	scene := &memScene{}
	n, err := w.Save(context.Background(), scene, "lobby")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"furniture.crate", "ui.label"}, scene.types)

	other := newWorld(t)
	restored, err := other.Load(context.Background(), scene, "lobby")
	require.NoError(t, err)
	assert.Len(t, restored, 2)
	_, ok := other.Object(a.ID)
	assert.True(t, ok)
}

func TestWorld_SaveStopsAtFirstFailure(t *testing.T) {
	w := newWorld(t)
	for range 3 {
		_, err := w.Spawn("ui.label", nil, nil)
		require.NoError(t, err)
	}

	boom := errors.New("disk full")
	n, err := w.Save(context.Background(), &memScene{failAt: 1, saveErr: boom}, "lobby")
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, n)
}

func TestWorld_LoadMissingScene(t *testing.T) {
	w := newWorld(t)
	_, err := w.Load(context.Background(), &memScene{}, "nowhere")
	require.ErrorIs(t, err, store.ErrSceneNotFound)
	assert.Zero(t, w.Len())
}
