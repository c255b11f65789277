// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 FluxStudio Contributors

//go:build integration

package plugin_test

import (
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/fluxstudio/fluxstudio/internal/plugin"
	pluginlua "github.com/fluxstudio/fluxstudio/internal/plugin/lua"
	"github.com/fluxstudio/fluxstudio/internal/property"
	"github.com/fluxstudio/fluxstudio/internal/registry"
	"github.com/fluxstudio/fluxstudio/pkg/geom"
)

var _ = Describe("Bundled plugins", func() {
	var (
		ctx     context.Context
		reg     *registry.Registry
		schemas *registry.SchemaTable
		manager *plugin.Manager
		host    *pluginlua.Host
	)

	BeforeEach(func() {
		ctx = context.Background()
		reg = registry.New()
		schemas = registry.NewSchemaTable(property.DefaultLibrary())
		host = pluginlua.NewHost()
		manager = plugin.NewManager(reg,
			plugin.WithSchemas(schemas),
			plugin.WithLuaHost(host),
			plugin.WithPluginsDir(filepath.Join("..", "..", "plugins")))
	})

	AfterEach(func() {
		Expect(manager.Close(ctx)).To(Succeed())
	})

	It("loads the primitives and furniture plugins", func() {
		Expect(manager.LoadAll(ctx)).To(Succeed())
		Expect(manager.LoadedPlugins()).To(HaveLen(2))

		for _, key := range []string{"basic.cube", "basic.sphere", "basic.cylinder", "basic.ground", "furniture.crate", "furniture.lamp"} {
			Expect(reg.Has(key)).To(BeTrue(), key)
		}

		ground, ok := reg.Get("basic.ground")
		Expect(ok).To(BeTrue())
		Expect(ground.Physics().Kind).To(Equal(registry.BodyStatic))
		Expect(ground.Physics().Shape.HalfExtents).To(Equal(geom.Vector3{X: 50, Y: 0.05, Z: 50}))

		cube, _ := reg.Get("basic.cube")
		Expect(cube.Physics().Shape.HalfExtents).To(Equal(geom.Vector3{X: 0.5, Y: 0.5, Z: 0.5}))

		lamp, ok := schemas.Get("furniture.lamp")
		Expect(ok).To(BeTrue())
		Expect(lamp.Defaults()).To(HaveKeyWithValue("mode", "warm"))

		Expect(host.Plugins()).To(ConsistOf("primitives"))
	})

	It("unloads a Lua plugin and its types", func() {
		Expect(manager.LoadAll(ctx)).To(Succeed())
		Expect(manager.UnloadPlugin("primitives")).To(BeTrue())

		Expect(reg.Has("basic.cube")).To(BeFalse())
		Expect(reg.Has("furniture.crate")).To(BeTrue())
		Expect(host.Plugins()).To(BeEmpty())
	})

	It("reloads an edited plugin directory", func() {
		root := GinkgoT().TempDir()
		dir := filepath.Join(root, "extras")
		Expect(os.Mkdir(dir, 0o755)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(dir, plugin.ManifestFile), []byte(
			"name: extras\nversion: 1.0.0\ntype: lua\ncapabilities: [register.object]\nlua-plugin: {entry: main.lua}\n"), 0o600)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(dir, "main.lua"), []byte(
			`fluxstudio.register_object{ type = "extras.one" }`), 0o600)).To(Succeed())

		Expect(manager.LoadDir(ctx, dir)).To(Succeed())
		Expect(reg.Has("extras.one")).To(BeTrue())

		Expect(os.WriteFile(filepath.Join(dir, "main.lua"), []byte(
			`fluxstudio.register_object{ type = "extras.two" }`), 0o600)).To(Succeed())
		Expect(manager.ReloadDir(ctx, dir)).To(Succeed())

		Expect(reg.Has("extras.one")).To(BeFalse())
		Expect(reg.Has("extras.two")).To(BeTrue())
	})
})
