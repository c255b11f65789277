// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 FluxStudio Contributors

//go:build integration

package store_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/fluxstudio/fluxstudio/internal/store"
)

var _ = Describe("PostgresSceneStore", Ordered, func() {
	var (
		ctx       context.Context
		container *postgres.PostgresContainer
		dsn       string
		s         *store.PostgresSceneStore
	)

	BeforeAll(func() {
		ctx = context.Background()
		var err error
		container, err = postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("fluxstudio"),
			postgres.WithUsername("flux"),
			postgres.WithPassword("flux"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(60*time.Second)),
		)
		Expect(err).NotTo(HaveOccurred())

		dsn, err = container.ConnectionString(ctx, "sslmode=disable")
		Expect(err).NotTo(HaveOccurred())

		m, err := store.NewMigrator(dsn)
		Expect(err).NotTo(HaveOccurred())
		Expect(m.Up()).To(Succeed())
		Expect(m.Close()).To(Succeed())

		s, err = store.Connect(ctx, dsn, store.DefaultConnectConfig())
		Expect(err).NotTo(HaveOccurred())
	})

	AfterAll(func() {
		if s != nil {
			s.Close()
		}
		if container != nil {
			Expect(container.Terminate(ctx)).To(Succeed())
		}
	})

	It("saves and loads objects in id order", func() {
		Expect(s.CreateScene(ctx, "lobby", "Lobby")).To(Succeed())
		Expect(s.SaveObject(ctx, "lobby", "b", "basic.cube", []byte(`{"id":"b","type":"basic.cube"}`))).To(Succeed())
		Expect(s.SaveObject(ctx, "lobby", "a", "basic.sphere", []byte(`{"id":"a","type":"basic.sphere"}`))).To(Succeed())

		docs, err := s.LoadScene(ctx, "lobby")
		Expect(err).NotTo(HaveOccurred())
		Expect(docs).To(HaveLen(2))
		Expect(string(docs[0])).To(MatchJSON(`{"id":"a","type":"basic.sphere"}`))
		Expect(string(docs[1])).To(MatchJSON(`{"id":"b","type":"basic.cube"}`))
	})

	It("upserts an existing object", func() {
		Expect(s.SaveObject(ctx, "lobby", "a", "basic.sphere", []byte(`{"id":"a","type":"basic.sphere","state":{"n":2}}`))).To(Succeed())

		docs, err := s.LoadScene(ctx, "lobby")
		Expect(err).NotTo(HaveOccurred())
		Expect(docs).To(HaveLen(2))
		Expect(string(docs[0])).To(MatchJSON(`{"id":"a","type":"basic.sphere","state":{"n":2}}`))
	})

	It("rejects objects for unknown scenes", func() {
		err := s.SaveObject(ctx, "attic", "c", "basic.cube", []byte(`{}`))
		Expect(err).To(MatchError(store.ErrSceneNotFound))

		_, err = s.LoadScene(ctx, "attic")
		Expect(err).To(MatchError(store.ErrSceneNotFound))
	})

	It("lists scenes with counts", func() {
		scenes, err := s.ListScenes(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(scenes).To(HaveLen(1))
		Expect(scenes[0].Name).To(Equal("Lobby"))
		Expect(scenes[0].Objects).To(Equal(2))
	})

	It("deletes objects and cascades scene deletion", func() {
		Expect(s.DeleteObject(ctx, "b")).To(Succeed())
		Expect(s.DeleteObject(ctx, "b")).To(MatchError(store.ErrObjectNotFound))

		Expect(s.DeleteScene(ctx, "lobby")).To(Succeed())
		Expect(s.DeleteObject(ctx, "a")).To(MatchError(store.ErrObjectNotFound))
	})
})

var _ = Describe("Migrator", func() {
	It("walks the full migration cycle", func(ctx SpecContext) {
		container, err := postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("migrate"),
			postgres.WithUsername("flux"),
			postgres.WithPassword("flux"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2)),
		)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func(ctx SpecContext) { _ = container.Terminate(ctx) })

		dsn, err := container.ConnectionString(ctx, "sslmode=disable")
		Expect(err).NotTo(HaveOccurred())

		m, err := store.NewMigrator(dsn)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(m.Close)

		v, dirty, err := m.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(BeZero())
		Expect(dirty).To(BeFalse())

		Expect(m.Up()).To(Succeed())
		latest, _, err := m.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(latest).To(BeNumerically(">", 0))

		pending, err := m.Pending()
		Expect(err).NotTo(HaveOccurred())
		Expect(pending).To(BeEmpty())

		Expect(m.Steps(-1)).To(Succeed())
		v, _, err = m.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal(latest - 1))

		Expect(m.Up()).To(Succeed())
		Expect(m.Down()).To(Succeed())
		v, _, err = m.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(BeZero())
	}, NodeTimeout(3*time.Minute))
})
