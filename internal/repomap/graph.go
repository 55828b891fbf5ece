// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package repomap

import (
	"math"
	"strings"

	"github.com/repomapper-dev/repomapper/pkg/types"
)

const (
	mentionedIdentifierFactor = 10.0
	underscorePenaltyFactor   = 0.1
	commonDefThreshold        = 5
	commonDefFactor           = 0.1
)

// edge is a directed, weighted connection between two file nodes,
// attributed to the identifier that produced it.
type edge struct {
	from, to string
	name     string
	weight   float64
}

// graph is the directed weighted multigraph over file nodes built in
// §4.4. It also retains the indices needed by the Ranker to distribute a
// file's rank onto (file, identifier) pairs.
type graph struct {
	nodes []string
	edges []edge

	// definitions[(path,name)] -> defining tags, ordered as extracted.
	definitions map[pathName][]types.Tag
	// defines[name] -> abs paths (graph node ids) defining name.
	defines map[string][]string
}

type pathName struct {
	path string
	name string
}

// buildGraph implements §4.4 steps 1-4: index tags, apply the reference
// fallback, construct weighted edges, and is followed by personalization
// vector construction in buildPersonalization.
func buildGraph(tags []types.Tag, mentionedIdentifiers map[string]struct{}) *graph {
	g := &graph{
		definitions: make(map[pathName][]types.Tag),
		defines:     make(map[string][]string),
	}

	nodeSet := make(map[string]struct{})
	// references[name] -> abs path -> reference count.
	references := make(map[string]map[string]int)

	for _, t := range tags {
		nodeSet[t.AbsPath] = struct{}{}
		if t.Kind == types.Definition {
			key := pathName{path: t.AbsPath, name: t.Name}
			g.definitions[key] = append(g.definitions[key], t)
			if !containsStr(g.defines[t.Name], t.AbsPath) {
				g.defines[t.Name] = append(g.defines[t.Name], t.AbsPath)
			}
		}
	}
	for _, t := range tags {
		if t.Kind != types.Reference {
			continue
		}
		if references[t.Name] == nil {
			references[t.Name] = make(map[string]int)
		}
		references[t.Name][t.AbsPath]++
	}

	// Step 2: reference fallback — identifiers with no referencing file at
	// all still get self-references from their own defining files so they
	// can be ranked.
	for name, definers := range g.defines {
		if len(references[name]) > 0 {
			continue
		}
		references[name] = make(map[string]int)
		for _, d := range definers {
			references[name][d] = 1
		}
	}

	// Step 3: edge construction.
	for name, definers := range g.defines {
		mul := identifierMul(name, mentionedIdentifiers)
		mul *= commonDefPenalty(len(definers))

		for referrer, count := range references[name] {
			weight := mul * math.Sqrt(float64(count))
			for _, definer := range definers {
				if referrer == definer {
					continue // self-edges suppressed
				}
				g.edges = append(g.edges, edge{from: referrer, to: definer, name: name, weight: weight})
			}
		}
	}

	for n := range nodeSet {
		g.nodes = append(g.nodes, n)
	}

	return g
}

// identifierMul composes the mentioned-identifier boost and the
// underscore penalty multiplicatively. spec.md leaves composition of the
// two as an open question when both apply (DESIGN.md records the
// resolution: multiplicative, since it keeps P6 — mentioned boost — true
// regardless of naming).
func identifierMul(name string, mentioned map[string]struct{}) float64 {
	mul := 1.0
	if _, ok := mentioned[name]; ok {
		mul *= mentionedIdentifierFactor
	}
	if strings.HasPrefix(name, "_") {
		mul *= underscorePenaltyFactor
	}
	return mul
}

// commonDefPenalty dampens identifiers defined in many files — they carry
// little signal about any one file's relevance.
func commonDefPenalty(numDefiners int) float64 {
	if numDefiners >= commonDefThreshold {
		return commonDefFactor
	}
	return 1.0
}

func containsStr(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}

// personalization builds the PageRank teleport distribution (§4.4 step 4):
// every node in chatFiles ∪ mentionedFnames ∪ scannedFiles receives a base
// weight (100/10/1 respectively, first match wins), then the vector is
// L1-normalized to sum to 1.
func buildPersonalization(g *graph, chatFiles, mentionedFnames, scannedFiles []string) map[string]float64 {
	chatSet := toSet(chatFiles)
	mentionedSet := toSet(mentionedFnames)

	weights := make(map[string]float64)
	add := func(path string) {
		if _, ok := weights[path]; ok {
			return
		}
		switch {
		case chatSet[path]:
			weights[path] = 100.0
		case mentionedSet[path]:
			weights[path] = 10.0
		default:
			weights[path] = 1.0
		}
	}
	for _, p := range chatFiles {
		add(p)
	}
	for _, p := range mentionedFnames {
		add(p)
	}
	for _, p := range scannedFiles {
		add(p)
	}
	// Graph nodes discovered only via cross-file tags (e.g. a defining file
	// never passed explicitly) still need a weight to remain a valid
	// teleport target.
	for _, n := range g.nodes {
		add(n)
	}

	total := 0.0
	for _, w := range weights {
		total += w
	}
	if total == 0 {
		return weights
	}
	for k := range weights {
		weights[k] /= total
	}
	return weights
}

func toSet(ss []string) map[string]bool {
	m := make(map[string]bool, len(ss))
	for _, s := range ss {
		m[s] = true
	}
	return m
}
