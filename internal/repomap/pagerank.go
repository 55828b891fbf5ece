// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package repomap

import (
	"math"
	"sort"

	"github.com/repomapper-dev/repomapper/pkg/types"
)

const (
	damping   = 0.85
	tolerance = 1e-6
	maxIter   = 100
)

// rankFiles runs personalized PageRank over g with teleport distribution
// personalization (§4.5). The transition probability u→v is proportional
// to the sum of edge weights between them; dangling nodes redistribute
// their mass according to personalization too, so orphans still receive
// rank.
func rankFiles(g *graph, personalization map[string]float64) map[string]float64 {
	n := len(g.nodes)
	if n == 0 {
		return nil
	}

	idx := make(map[string]int, n)
	for i, node := range g.nodes {
		idx[node] = i
	}

	teleport := make([]float64, n)
	for i, node := range g.nodes {
		teleport[i] = personalization[node]
	}

	type outEdge struct {
		to     int
		weight float64
	}
	outEdges := make([][]outEdge, n)
	outWeight := make([]float64, n)
	for _, e := range g.edges {
		from, okF := idx[e.from]
		to, okT := idx[e.to]
		if !okF || !okT {
			continue
		}
		outEdges[from] = append(outEdges[from], outEdge{to: to, weight: e.weight})
		outWeight[from] += e.weight
	}

	rank := make([]float64, n)
	for i := range rank {
		rank[i] = teleport[i]
	}

	next := make([]float64, n)
	for iter := 0; iter < maxIter; iter++ {
		for i := range next {
			next[i] = (1.0 - damping) * teleport[i]
		}

		for i := 0; i < n; i++ {
			if outWeight[i] == 0 {
				for j := range next {
					next[j] += damping * rank[i] * teleport[j]
				}
				continue
			}
			for _, oe := range outEdges[i] {
				next[oe.to] += damping * rank[i] * (oe.weight / outWeight[i])
			}
		}

		diff := 0.0
		for i := range rank {
			diff += math.Abs(next[i] - rank[i])
		}
		copy(rank, next)
		if diff < tolerance {
			break
		}
	}

	out := make(map[string]float64, n)
	for i, node := range g.nodes {
		out[node] = rank[i]
	}
	return out
}

// rankTags distributes each file's rank across its outgoing edges and then
// onto (definer, name) pairs (§4.5): the rank of a (file, identifier) is
// the sum of contributions through every edge naming it. Identifiers
// defined but never the target of a contribution still receive a
// baseline score of r(definer)/(|definitions in file|+1) so well-connected
// files surface even their unreferenced symbols. Tags whose file is in
// chatFiles are excluded (§4.5, property P5); only definitions enter the
// output.
func rankTags(g *graph, fileRank map[string]float64, chatFiles []string) []types.RankedTag {
	chatSet := toSet(chatFiles)

	outWeight := make(map[string]float64)
	for _, e := range g.edges {
		outWeight[e.from] += e.weight
	}

	contrib := make(map[pathName]float64)
	for _, e := range g.edges {
		total := outWeight[e.from]
		if total == 0 {
			continue
		}
		share := fileRank[e.from] * (e.weight / total)
		contrib[pathName{path: e.to, name: e.name}] += share
	}

	var ranked []types.RankedTag
	for path, defsByName := range definitionsByFile(g) {
		if chatSet[path] {
			continue
		}
		numDefs := len(defsByName)
		r := fileRank[path]
		for name, defTags := range defsByName {
			score, hasContrib := contrib[pathName{path: path, name: name}]
			if !hasContrib {
				score = r / float64(numDefs+1)
			}
			best := defTags[0]
			for _, d := range defTags {
				if d.Line < best.Line {
					best = d
				}
			}
			ranked = append(ranked, types.RankedTag{Tag: best, Score: score})
		}
	}

	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.RelPath != b.RelPath {
			return a.RelPath < b.RelPath
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Name < b.Name
	})

	return ranked
}


// definitionsByFile regroups g.definitions (keyed by (path,name)) into
// path -> name -> tags, for per-file baseline-score distribution.
func definitionsByFile(g *graph) map[string]map[string][]types.Tag {
	out := make(map[string]map[string][]types.Tag)
	for key, tags := range g.definitions {
		if out[key.path] == nil {
			out[key.path] = make(map[string][]types.Tag)
		}
		out[key.path][key.name] = tags
	}
	return out
}
