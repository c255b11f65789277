// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 FluxStudio Contributors

//go:build integration

package world_test

import (
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/fluxstudio/fluxstudio/internal/store"
)

var _ = Describe("Scene persistence", func() {
	It("restores a stepped world into a fresh world", func() {
		w := newLoadedWorld()
		_, err := w.Spawn("basic.ground", nil, nil)
		Expect(err).NotTo(HaveOccurred())
		cube, err := w.Spawn("basic.cube", map[string]any{"position": []any{0.0, 3.0, 0.0}}, nil)
		Expect(err).NotTo(HaveOccurred())
		for range 60 {
			w.Tick(0)
		}
		fallen := cube.Properties.Position
		Expect(fallen.Y).To(BeNumerically("<", 3.0))

		Expect(env.scenes.CreateScene(env.ctx, "stepped", "Stepped")).To(Succeed())
		n, err := w.Save(env.ctx, env.scenes, "stepped")
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(2))

		fresh := newLoadedWorld()
		restored, err := fresh.Load(env.ctx, env.scenes, "stepped")
		Expect(err).NotTo(HaveOccurred())
		Expect(restored).To(HaveLen(2))

		back, ok := fresh.Object(cube.ID)
		Expect(ok).To(BeTrue())
		Expect(back.Type()).To(Equal("basic.cube"))
		Expect(back.Properties.Position.X).To(BeNumerically("~", fallen.X, 1e-9))
		Expect(back.Properties.Position.Y).To(BeNumerically("~", fallen.Y, 1e-9))
		Expect(back.Properties.Position.Z).To(BeNumerically("~", fallen.Z, 1e-9))
		Expect(back.Body).NotTo(BeNil())
	})

	It("saves again over the same ids", func() {
		w := newLoadedWorld()
		lamp, err := w.Spawn("furniture.lamp", map[string]any{"position": []any{1.0, 2.0, 3.0}}, nil)
		Expect(err).NotTo(HaveOccurred())

		Expect(env.scenes.CreateScene(env.ctx, "resave", "")).To(Succeed())
		_, err = w.Save(env.ctx, env.scenes, "resave")
		Expect(err).NotTo(HaveOccurred())
		_, err = w.Save(env.ctx, env.scenes, "resave")
		Expect(err).NotTo(HaveOccurred())

		docs, err := env.scenes.LoadScene(env.ctx, "resave")
		Expect(err).NotTo(HaveOccurred())
		Expect(docs).To(HaveLen(1))

		fresh := newLoadedWorld()
		_, err = fresh.Load(env.ctx, env.scenes, "resave")
		Expect(err).NotTo(HaveOccurred())
		back, ok := fresh.Object(lamp.ID)
		Expect(ok).To(BeTrue())
		Expect(back.Properties.Position.X).To(Equal(1.0))
		Expect(back.Properties.Position.Z).To(Equal(3.0))
	})

	It("reports a scene that was never created", func() {
		w := newLoadedWorld()
		_, err := w.Load(env.ctx, env.scenes, "never-created")
		Expect(err).To(MatchError(store.ErrSceneNotFound))
		Expect(w.Len()).To(Equal(0))
	})

	It("refuses to save into a missing scene", func() {
		w := newLoadedWorld()
		_, err := w.Spawn("basic.sphere", nil, nil)
		Expect(err).NotTo(HaveOccurred())

		n, err := w.Save(env.ctx, env.scenes, "missing")
		Expect(err).To(MatchError(store.ErrSceneNotFound))
		Expect(n).To(Equal(0))
	})
})
