// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 FluxStudio Contributors

package registry

import (
	"sort"
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
	"github.com/gobwas/glob"
	"github.com/samber/oops"
)

// fuzzyThreshold is the minimum Levenshtein similarity for a ranked match.
const fuzzyThreshold = 0.5

// Search returns the types whose name, description, or any tag contains query,
// ignoring case. Results are sorted by key. An empty query matches everything.
func (r *Registry) Search(query string) []*TypeDefinition {
	q := strings.ToLower(strings.TrimSpace(query))
	var out []*TypeDefinition
	for _, def := range r.types {
		if matchesText(def, q) {
			out = append(out, def)
		}
	}
	sortByKey(out)
	return out
}

func matchesText(def *TypeDefinition, q string) bool {
	if strings.Contains(strings.ToLower(def.Metadata.Name), q) ||
		strings.Contains(strings.ToLower(def.Metadata.Description), q) {
		return true
	}
	for _, tag := range def.Metadata.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}

// SearchGlob returns the types whose key matches pattern, sorted by key.
// Dots separate key segments, so "furniture.*" matches "furniture.chair"
// but not "furniture.office.chair"; use "furniture.**" for any depth.
func (r *Registry) SearchGlob(pattern string) ([]*TypeDefinition, error) {
	g, err := glob.Compile(pattern, '.')
	if err != nil {
		return nil, oops.Code("INVALID_PATTERN").With("pattern", pattern).Wrapf(err, "compile glob")
	}
	var out []*TypeDefinition
	for key, def := range r.types {
		if g.Match(key) {
			out = append(out, def)
		}
	}
	sortByKey(out)
	return out, nil
}

// SearchRanked returns substring matches first, then types whose name or key
// is similar to query, most similar first. A limit of zero or less returns
// every match.
func (r *Registry) SearchRanked(query string, limit int) []*TypeDefinition {
	out := r.Search(query)
	seen := make(map[string]bool, len(out))
	for _, def := range out {
		seen[def.Metadata.Type] = true
	}

	type scored struct {
		def   *TypeDefinition
		score float64
	}
	q := strings.ToLower(strings.TrimSpace(query))
	lev := metrics.NewLevenshtein()
	var fuzzy []scored
	for key, def := range r.types {
		if seen[key] || q == "" {
			continue
		}
		score := max(
			strutil.Similarity(q, strings.ToLower(def.Metadata.Name), lev),
			strutil.Similarity(q, strings.ToLower(key), lev),
		)
		if score >= fuzzyThreshold {
			fuzzy = append(fuzzy, scored{def: def, score: score})
		}
	}
	sort.Slice(fuzzy, func(i, j int) bool {
		if fuzzy[i].score != fuzzy[j].score {
			return fuzzy[i].score > fuzzy[j].score
		}
		return fuzzy[i].def.Metadata.Type < fuzzy[j].def.Metadata.Type
	})
	for _, s := range fuzzy {
		out = append(out, s.def)
	}

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
