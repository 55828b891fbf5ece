// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package repomap builds a ranked, token-budget-constrained map of a
// repository's definitions and references for seeding an LLM session.
package repomap

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/repomapper-dev/repomapper/pkg/types"
)

// captureKind classifies a query capture name ("definition.function",
// "reference.call", ...) into a Tag.Kind. The registry doesn't interpret
// capture names beyond this prefix test (§4.1).
func captureKind(name string) (types.RefKind, bool) {
	switch {
	case strings.HasPrefix(name, "definition."):
		return types.Definition, true
	case strings.HasPrefix(name, "reference."):
		return types.Reference, true
	default:
		return 0, false
	}
}

// extractFile extracts tags from one file's content. Neither an unrecognized
// extension nor a query or parse failure is fatal. The file does not end up
// with zero tags in either case: an unrecognized extension goes straight to
// the lexer fallback, and a query or parse failure yields no grammar tags,
// so the lexer retry supplies reference tags for the file.
func extractFile(absPath, relPath string, source []byte) []types.Tag {
	lang := resolveLanguage(absPath)
	var tags []types.Tag
	if lang == nil {
		tags = lexFallbackTags(relPath, source)
	} else {
		var sawRef bool
		tags, sawRef = parseWithGrammar(lang, relPath, source)
		if !sawRef {
			// Retry with the lexer to recover reference edges; grammar-derived
			// definitions are kept (§4.2 step 4).
			tags = append(tags, lexFallbackRefs(relPath, source, tags)...)
		}
	}
	for i := range tags {
		tags[i].AbsPath = absPath
	}
	return tags
}

// parseWithGrammar runs the language's tag query against source, returning
// the resulting tags and whether at least one reference tag was produced.
func parseWithGrammar(lang *language, relPath string, source []byte) ([]types.Tag, bool) {
	query, err := lang.tagQuery()
	if err != nil {
		return nil, false
	}

	parser := sitter.NewParser()
	parser.SetLanguage(lang.lang)
	tree, err := parser.ParseCtx(context.Background(), nil, source)
	if err != nil || tree == nil {
		return nil, false
	}
	defer tree.Close()

	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(query, tree.RootNode())

	var tags []types.Tag
	sawRef := false
	type dedupKey struct {
		name string
		line int
		kind types.RefKind
	}
	seen := make(map[dedupKey]struct{})

	for {
		m, ok := qc.NextMatch()
		if !ok {
			break
		}
		m = qc.FilterPredicates(m, source)

		var nameNode *sitter.Node
		var kind types.RefKind
		var matched bool
		for _, cap := range m.Captures {
			capName := query.CaptureNameForId(cap.Index)
			if capName == "name" {
				nameNode = cap.Node
				continue
			}
			if k, ok := captureKind(capName); ok {
				kind = k
				matched = true
			}
		}
		if nameNode == nil || !matched {
			continue
		}

		name := nameNode.Content(source)
		if name == "" {
			continue
		}
		line := int(nameNode.StartPoint().Row)
		key := dedupKey{name: name, line: line, kind: kind}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		tags = append(tags, types.Tag{RelPath: relPath, Name: name, Line: line, Kind: kind})
		if kind == types.Reference {
			sawRef = true
		}
	}

	return tags, sawRef
}

// lexFallbackTags produces reference-only tags for a file whose extension
// has no registered grammar (§4.2 step 1).
func lexFallbackTags(relPath string, source []byte) []types.Tag {
	toks := lexTokens(source)
	tags := make([]types.Tag, 0, len(toks))
	for _, t := range toks {
		tags = append(tags, types.Tag{RelPath: relPath, Name: t.text, Line: t.line, Kind: types.Reference})
	}
	return tags
}

// lexFallbackRefs re-tokenizes source for reference tags only, excluding
// any name already present as a definition so the retry never duplicates
// grammar-derived defs.
func lexFallbackRefs(relPath string, source []byte, existing []types.Tag) []types.Tag {
	defNames := make(map[string]struct{})
	for _, t := range existing {
		if t.Kind == types.Definition {
			defNames[t.Name] = struct{}{}
		}
	}
	toks := lexTokens(source)
	var out []types.Tag
	for _, t := range toks {
		if _, isDef := defNames[t.text]; isDef {
			continue
		}
		out = append(out, types.Tag{RelPath: relPath, Name: t.text, Line: t.line, Kind: types.Reference})
	}
	return out
}

// ExtractStats tracks extraction-phase counters for diagnostics.
type ExtractStats struct {
	FilesProcessed int
	FilesSkipped   int
	CacheHits      int
}

type extractResult struct {
	tags []types.Tag
	skip bool
	hit  bool
}

// ExtractAll runs the Extractor ∘ Cache stage over files (absolute paths).
// root is the repository root used to compute rel paths and the cache
// location. Extraction is parallelized across a bounded worker pool (pure
// per-file work; order is not observable downstream — §5). Context
// cancellation stops scheduling new files but still returns tags computed
// so far, and the cache is always committed so the next run benefits.
func ExtractAll(ctx context.Context, root string, files []string, refresh types.RefreshMode, reporter types.Reporter) ([]types.Tag, ExtractStats, error) {
	warn := newOnceWarner(reporter)
	cache := openCache(root, warn.warn)
	defer func() {
		if err := cache.commit(); err != nil {
			warn.warn("tag cache: commit failed: " + err.Error())
		}
	}()

	// always drops the whole store before re-extracting (§4.3).
	if refresh == types.RefreshAlways && !cache.degraded {
		if _, err := cache.db.Exec(`DELETE FROM tag_cache`); err != nil {
			warn.warn("tag cache: clearing store: " + err.Error())
		}
	}

	workers := runtime.NumCPU()
	if workers < 1 {
		workers = 1
	}
	if workers > len(files) {
		workers = len(files)
		if workers < 1 {
			workers = 1
		}
	}

	jobs := make(chan int)
	results := make([]extractResult, len(files))

	var wg sync.WaitGroup
	var cacheMu sync.Mutex

	worker := func() {
		defer wg.Done()
		for i := range jobs {
			if ctx.Err() != nil {
				return
			}
			results[i] = extractOne(files[i], root, refresh, cache, &cacheMu, warn)
		}
	}

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go worker()
	}

dispatch:
	for i := range files {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()

	var stats ExtractStats
	var allTags []types.Tag
	for _, r := range results {
		switch {
		case r.skip:
			stats.FilesSkipped++
		default:
			stats.FilesProcessed++
			if r.hit {
				stats.CacheHits++
			}
			allTags = append(allTags, r.tags...)
		}
	}

	return allTags, stats, ctx.Err()
}

func extractOne(absPath, root string, refresh types.RefreshMode, cache *tagCache, cacheMu *sync.Mutex, warn *onceWarner) extractResult {
	info, err := os.Stat(absPath)
	if err != nil {
		warn.warnOnce("stat "+absPath, err)
		return extractResult{skip: true}
	}
	relPath, err := filepath.Rel(root, absPath)
	if err != nil {
		relPath = absPath
	}
	relPath = filepath.ToSlash(relPath)

	modTimeNS := info.ModTime().UnixNano()
	size := info.Size()

	switch refresh {
	case types.RefreshAuto, types.RefreshManual:
		// Exact (mtime, size) match only — a file is never treated as fresh
		// just because it is newer (§4.3).
		cacheMu.Lock()
		entry, ok := cache.get(absPath)
		cacheMu.Unlock()
		if ok && entry.Matches(modTimeNS, size) {
			return extractResult{tags: entry.Tags, hit: true}
		}
		if refresh == types.RefreshManual {
			// manual never re-extracts on its own; a stale or missing entry
			// stays stale until force_refresh drives a RefreshAlways run.
			return extractResult{tags: entry.Tags, hit: ok}
		}
	case types.RefreshFiles:
		// files always re-extracts every scanned file, same as always,
		// still writing the result back (§4.3); it differs from always only
		// in that always also drops the whole on-disk store first, which is
		// unobservable within a single scanned-file run.
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		warn.warnOnce("read "+absPath, err)
		return extractResult{skip: true}
	}

	tags := extractFile(absPath, relPath, content)

	if refresh != types.RefreshManual {
		cacheMu.Lock()
		cache.put(absPath, types.CacheEntry{ModTimeNanos: modTimeNS, Size: size, Tags: tags})
		cacheMu.Unlock()
	}

	return extractResult{tags: tags}
}

// onceWarner collapses repeated diagnostics for the same condition within
// a single run (§7 class 1/2 "warn once"). A fresh instance is created per
// GenerateMap call so dedup never leaks across unrelated runs.
type onceWarner struct {
	mu       sync.Mutex
	seen     map[string]bool
	reporter types.Reporter
}

func newOnceWarner(r types.Reporter) *onceWarner {
	return &onceWarner{seen: make(map[string]bool), reporter: r}
}

func (w *onceWarner) warn(msg string) {
	if w.reporter != nil {
		w.reporter.Warn(msg)
	}
}

func (w *onceWarner) warnOnce(key string, err error) {
	w.mu.Lock()
	already := w.seen[key]
	w.seen[key] = true
	w.mu.Unlock()
	if !already {
		w.warn(key + ": " + err.Error())
	}
}
