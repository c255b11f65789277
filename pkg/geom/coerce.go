// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 FluxStudio Contributors

package geom

import (
	"encoding/json"

	"github.com/go-gl/mathgl/mgl64"
)

// CoerceVector3 converts a vector-like value into a Vector3.
//
// Accepted inputs are Vector3, *Vector3, Euler, mgl64.Vec3, [3]float64,
// numeric slices of length 3, and records keyed by "x", "y", "z". Components
// missing from a record keep the fallback's value. The boolean is false when
// v has no recognizable vector shape, in which case fallback is returned.
func CoerceVector3(v any, fallback Vector3) (Vector3, bool) {
	x, y, z, ok := coerceTriple(v, fallback.X, fallback.Y, fallback.Z)
	if !ok {
		return fallback, false
	}
	return Vector3{X: x, Y: y, Z: z}, true
}

// CoerceEuler converts an angle-set-like value into an Euler, with the same
// accepted shapes as CoerceVector3.
func CoerceEuler(v any, fallback Euler) (Euler, bool) {
	x, y, z, ok := coerceTriple(v, fallback.X, fallback.Y, fallback.Z)
	if !ok {
		return fallback, false
	}
	return Euler{X: x, Y: y, Z: z}, true
}

func coerceTriple(v any, fx, fy, fz float64) (x, y, z float64, ok bool) {
	switch val := v.(type) {
	case Vector3:
		return val.X, val.Y, val.Z, true
	case *Vector3:
		if val == nil {
			return fx, fy, fz, false
		}
		return val.X, val.Y, val.Z, true
	case Euler:
		return val.X, val.Y, val.Z, true
	case *Euler:
		if val == nil {
			return fx, fy, fz, false
		}
		return val.X, val.Y, val.Z, true
	case mgl64.Vec3:
		return val[0], val[1], val[2], true
	case [3]float64:
		return val[0], val[1], val[2], true
	case []float64:
		if len(val) != 3 {
			return fx, fy, fz, false
		}
		return val[0], val[1], val[2], true
	case []any:
		if len(val) != 3 {
			return fx, fy, fz, false
		}
		var comps [3]float64
		for i, c := range val {
			n, isNum := ToFloat(c)
			if !isNum {
				return fx, fy, fz, false
			}
			comps[i] = n
		}
		return comps[0], comps[1], comps[2], true
	case map[string]float64:
		x, y, z = fx, fy, fz
		if n, has := val["x"]; has {
			x = n
		}
		if n, has := val["y"]; has {
			y = n
		}
		if n, has := val["z"]; has {
			z = n
		}
		return x, y, z, true
	case map[string]any:
		x, y, z = fx, fy, fz
		found := false
		for key, dst := range map[string]*float64{"x": &x, "y": &y, "z": &z} {
			raw, has := val[key]
			if !has {
				continue
			}
			n, isNum := ToFloat(raw)
			if !isNum {
				return fx, fy, fz, false
			}
			*dst = n
			found = true
		}
		return x, y, z, found
	default:
		return fx, fy, fz, false
	}
}

// ToFloat converts any Go numeric value (including json.Number) to float64.
func ToFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
