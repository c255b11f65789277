// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 FluxStudio Contributors

package physics_test

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluxstudio/fluxstudio/internal/physics"
	"github.com/fluxstudio/fluxstudio/pkg/geom"
)

type node struct {
	tf geom.Transform
}

func newNode(x, y, z float64) *node {
	tf := geom.IdentityTransform()
	tf.Position = geom.Vec3(x, y, z)
	return &node{tf: tf}
}

func (n *node) Transform() geom.Transform     { return n.tf }
func (n *node) SetTransform(tf geom.Transform) { n.tf = tf }

func newEngine(t *testing.T) *physics.Engine {
	t.Helper()
	e := physics.NewEngine(physics.DefaultConfig())
	require.NoError(t, e.Initialize())
	t.Cleanup(e.Dispose)
	return e
}

func TestEngine_NotInitialized(t *testing.T) {
	e := physics.NewEngine(physics.DefaultConfig())

	_, err := e.CreateRigidBody("a", newNode(0, 0, 0), geom.Sphere(1), physics.KindDynamic)
	require.Error(t, err)
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok)
	assert.Equal(t, "PHYSICS_NOT_INITIALIZED", oopsErr.Code())

	assert.False(t, e.ApplyForce("a", geom.Vec3(1, 0, 0)))
	assert.False(t, e.Raycast(geom.Zero(), geom.Vec3(0, -1, 0), 10, true).Hit)
	e.Step(0)
	assert.False(t, e.DebugInfo().Initialized)
}

func TestEngine_InitializeIsIdempotent(t *testing.T) {
	e := newEngine(t)
	_, err := e.CreateRigidBody("a", newNode(0, 0, 0), geom.Sphere(1), physics.KindFixed)
	require.NoError(t, err)

	require.NoError(t, e.Initialize())
	_, ok := e.Body("a")
	assert.True(t, ok)
}

func TestEngine_InvalidConfig(t *testing.T) {
	cfg := physics.DefaultConfig()
	cfg.Timestep = 0
	err := physics.NewEngine(cfg).Initialize()
	require.Error(t, err)
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok)
	assert.Equal(t, "INVALID_PHYSICS_CONFIG", oopsErr.Code())
}

func TestEngine_DynamicBodyFalls(t *testing.T) {
	e := newEngine(t)
	n := newNode(0, 10, 0)
	n.tf.Scale = geom.Vec3(2, 2, 2)
	_, err := e.CreateRigidBody("ball", n, geom.Sphere(0.5), physics.KindDynamic)
	require.NoError(t, err)

	prev := n.tf.Position.Y
	for range 30 {
		e.Step(1.0 / 60.0)
		require.Less(t, n.tf.Position.Y, prev)
		prev = n.tf.Position.Y
	}
	assert.Equal(t, geom.Vec3(2, 2, 2), n.tf.Scale, "scale is owned by the target")
	assert.Equal(t, uint64(30), e.DebugInfo().Steps)
}

func TestEngine_StaticBodyUnchanged(t *testing.T) {
	e := newEngine(t)
	ground := newNode(0, 0, 0)
	_, err := e.CreateRigidBody("ground", ground, geom.Box(geom.Vec3(5, 0.5, 5)), physics.KindFixed)
	require.NoError(t, err)
	_, err = e.CreateRigidBody("crate", newNode(0, 3, 0), geom.Box(geom.Vec3(0.5, 0.5, 0.5)), physics.KindDynamic)
	require.NoError(t, err)

	for range 120 {
		e.Step(0)
	}
	assert.Equal(t, geom.Zero(), ground.tf.Position)
	tf, ok := e.BodyTransform("ground")
	require.True(t, ok)
	assert.Equal(t, geom.Zero(), tf.Position)

	crate, ok := e.BodyTransform("crate")
	require.True(t, ok)
	assert.InDelta(t, 1.0, crate.Position.Y, 0.05)
}

func TestEngine_RaycastHitsSphereTop(t *testing.T) {
	e := newEngine(t)
	_, err := e.CreateRigidBody("s", newNode(0, 0, 0), geom.Sphere(1), physics.KindFixed)
	require.NoError(t, err)

	hit := e.Raycast(geom.Vec3(0, 10, 0), geom.Vec3(0, -1, 0), 100, true)
	require.True(t, hit.Hit)
	assert.Equal(t, "s", hit.Body)
	assert.InDelta(t, 9.0, hit.Distance, 1e-6)
	assert.InDelta(t, 1.0, hit.Point.Y, 1e-6)
	assert.InDelta(t, 1.0, hit.Normal.Y, 1e-6)

	miss := e.Raycast(geom.Vec3(5, 10, 0), geom.Vec3(0, -1, 0), 100, true)
	assert.False(t, miss.Hit)
	assert.Empty(t, miss.Body)

	short := e.Raycast(geom.Vec3(0, 10, 0), geom.Vec3(0, -1, 0), 5, true)
	assert.False(t, short.Hit)

	inside := e.Raycast(geom.Zero(), geom.Vec3(0, -1, 0), 100, true)
	require.True(t, inside.Hit)
	assert.InDelta(t, 0.0, inside.Distance, 1e-9)

	exit := e.Raycast(geom.Zero(), geom.Vec3(0, -1, 0), 100, false)
	require.True(t, exit.Hit)
	assert.InDelta(t, 1.0, exit.Distance, 1e-6)
}

func TestEngine_DuplicateIDReturnsExisting(t *testing.T) {
	e := newEngine(t)
	first, err := e.CreateRigidBody("a", newNode(0, 0, 0), geom.Sphere(1), physics.KindDynamic)
	require.NoError(t, err)
	second, err := e.CreateRigidBody("a", newNode(5, 5, 5), geom.Box(geom.One()), physics.KindFixed)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Len(t, e.Bodies(), 1)
	assert.Equal(t, 1, e.DebugInfo().Colliders)
}

func TestEngine_InvalidShapeRegistersNothing(t *testing.T) {
	e := newEngine(t)
	_, err := e.CreateRigidBody("bad", newNode(0, 0, 0), geom.Sphere(-1), physics.KindDynamic)
	require.Error(t, err)
	assert.ErrorIs(t, err, geom.ErrInvalidShape)
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok)
	assert.Equal(t, "INVALID_SHAPE", oopsErr.Code())
	assert.Equal(t, "bad", oopsErr.Context()["id"])

	_, ok = e.Body("bad")
	assert.False(t, ok)
	info := e.DebugInfo()
	assert.Zero(t, info.Bodies)
	assert.Zero(t, info.Colliders)
}

func TestEngine_UnknownAndStaticIDs(t *testing.T) {
	e := newEngine(t)
	_, err := e.CreateRigidBody("wall", newNode(0, 0, 0), geom.Box(geom.One()), physics.KindFixed)
	require.NoError(t, err)

	for _, id := range []string{"missing", "wall"} {
		assert.False(t, e.ApplyForce(id, geom.Vec3(1, 0, 0)), id)
		assert.False(t, e.ApplyImpulse(id, geom.Vec3(1, 0, 0)), id)
		assert.False(t, e.SetVelocity(id, geom.Vec3(1, 0, 0)), id)
		assert.False(t, e.SetAngularVelocity(id, geom.Vec3(1, 0, 0)), id)
	}
	assert.False(t, e.RemoveRigidBody("missing"))
	_, ok := e.BodyTransform("missing")
	assert.False(t, ok)
}

func TestEngine_ImpulseAndVelocity(t *testing.T) {
	cfg := physics.DefaultConfig()
	cfg.Gravity = geom.Zero()
	e := physics.NewEngine(cfg)
	require.NoError(t, e.Initialize())
	defer e.Dispose()

	n := newNode(0, 0, 0)
	_, err := e.CreateRigidBody("puck", n, geom.Sphere(0.5), physics.KindDynamic, physics.WithMass(2))
	require.NoError(t, err)

	require.True(t, e.ApplyImpulse("puck", geom.Vec3(4, 0, 0)))
	v, ok := e.Velocity("puck")
	require.True(t, ok)
	assert.InDelta(t, 2.0, v.X, 1e-9)

	e.Step(0.5)
	assert.InDelta(t, 1.0, n.tf.Position.X, 1e-6)

	require.True(t, e.SetVelocity("puck", geom.Vec3(0, 0, -1)))
	e.Step(1)
	assert.InDelta(t, -1.0, n.tf.Position.Z, 1e-6)
}

func TestEngine_KinematicFollowsTarget(t *testing.T) {
	e := newEngine(t)
	n := newNode(0, 0, 0)
	_, err := e.CreateRigidBody("platform", n, geom.Box(geom.One()), physics.KindKinematic)
	require.NoError(t, err)

	tf := n.Transform()
	tf.Position = geom.Vec3(3, 0, 0)
	tf.Rotation = mgl64.QuatRotate(0.5, mgl64.Vec3{0, 1, 0})
	require.True(t, e.SetBodyTransform("platform", tf))

	e.Step(0)
	assert.InDelta(t, 3.0, n.tf.Position.X, 1e-9)
	assert.InDelta(t, 0.0, n.tf.Position.Y, 1e-9, "kinematic bodies ignore gravity")
	assert.True(t, n.tf.Rotation.ApproxEqualThreshold(tf.Rotation, 1e-9))
}

func TestEngine_CollisionEvents(t *testing.T) {
	e := newEngine(t)
	_, err := e.CreateRigidBody("ground", newNode(0, 0, 0), geom.Box(geom.Vec3(5, 0.5, 5)), physics.KindFixed)
	require.NoError(t, err)
	_, err = e.CreateRigidBody("ball", newNode(0, 2, 0), geom.Sphere(0.5), physics.KindDynamic)
	require.NoError(t, err)

	var started []physics.Event
	var contacts int
	e.AddListener(func(ev physics.Event) {
		switch {
		case ev.Kind == physics.EventCollision && ev.Started:
			started = append(started, ev)
		case ev.Kind == physics.EventContact:
			contacts++
		}
	})

	for range 120 {
		e.Step(0)
	}
	require.Len(t, started, 1)
	ids := []string{started[0].BodyA, started[0].BodyB}
	assert.ElementsMatch(t, []string{"ground", "ball"}, ids)
	assert.Positive(t, contacts)
}

func TestEngine_TriggerEvents(t *testing.T) {
	e := newEngine(t)
	_, err := e.CreateRigidBody("zone", newNode(0, 0, 0), geom.Box(geom.Vec3(2, 2, 2)), physics.KindFixed, physics.WithSensor(true))
	require.NoError(t, err)
	_, err = e.CreateRigidBody("ball", newNode(0, 3, 0), geom.Sphere(0.5), physics.KindDynamic)
	require.NoError(t, err)

	var kinds []physics.EventKind
	var enter, exit int
	e.AddListener(func(ev physics.Event) {
		kinds = append(kinds, ev.Kind)
		if ev.Kind != physics.EventTrigger {
			return
		}
		if ev.Started {
			enter++
		} else {
			exit++
		}
	})

	for range 180 {
		e.Step(0)
	}
	assert.Equal(t, 1, enter)
	assert.Equal(t, 1, exit)
	assert.NotContains(t, kinds, physics.EventContact)
}

func TestEngine_RemoveAndDispose(t *testing.T) {
	e := physics.NewEngine(physics.DefaultConfig())
	require.NoError(t, e.Initialize())
	_, err := e.CreateRigidBody("a", newNode(0, 0, 0), geom.Sphere(1), physics.KindDynamic)
	require.NoError(t, err)
	_, err = e.CreateRigidBody("b", newNode(3, 0, 0), geom.Sphere(1), physics.KindDynamic)
	require.NoError(t, err)

	assert.True(t, e.RemoveRigidBody("a"))
	assert.False(t, e.RemoveRigidBody("a"))
	bodies := e.Bodies()
	require.Len(t, bodies, 1)
	assert.Equal(t, "b", bodies[0].ID)

	e.Dispose()
	assert.False(t, e.Initialized())
	_, ok := e.Body("b")
	assert.False(t, ok)

	require.NoError(t, e.Initialize())
	assert.Empty(t, e.Bodies())
	e.Dispose()
}

func TestEngine_Gravity(t *testing.T) {
	e := newEngine(t)
	e.SetGravity(geom.Zero())
	n := newNode(0, 5, 0)
	_, err := e.CreateRigidBody("floating", n, geom.Sphere(0.5), physics.KindDynamic)
	require.NoError(t, err)

	for range 10 {
		e.Step(0)
	}
	assert.Equal(t, geom.Zero(), e.Gravity())
	assert.InDelta(t, 5.0, n.tf.Position.Y, 1e-9)
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in   string
		want physics.Kind
	}{
		{"static", physics.KindFixed},
		{"fixed", physics.KindFixed},
		{"dynamic", physics.KindDynamic},
		{"kinematic", physics.KindKinematic},
		{"kinematic_position_based", physics.KindKinematic},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := physics.ParseKind(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := physics.ParseKind("floaty")
	assert.Error(t, err)
}
