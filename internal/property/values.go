// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 FluxStudio Contributors

package property

import "github.com/jinzhu/copier"

// CloneValues deep-copies a value map so nested maps and slices are not
// shared with m. A value the copier cannot handle (a func or channel) is
// kept as is.
func CloneValues(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = CloneValue(v)
	}
	return out
}

// CloneValue deep-copies a single property value.
func CloneValue(v any) any {
	if v == nil {
		return nil
	}
	src := struct{ V any }{v}
	var dst struct{ V any }
	if err := copier.CopyWithOption(&dst, &src, copier.Option{DeepCopy: true}); err != nil || dst.V == nil {
		return v
	}
	return dst.V
}
