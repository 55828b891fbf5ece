// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package repomap

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repomapper-dev/repomapper/pkg/types"
)

type testReporter struct {
	warnings []string
}

func (r *testReporter) Warn(msg string)  { r.warnings = append(r.warnings, msg) }
func (r *testReporter) Error(msg string) { r.warnings = append(r.warnings, msg) }

func TestExtractAll_GoDefinitions(t *testing.T) {
	dir := setupTestRepo(t, map[string]string{
		"pkg/math/math.go": `package math

type Calculator struct{}

func (c *Calculator) Add(a, b int) int { return a + b }

func Multiply(a, b int) int { return a * b }
`,
		"pkg/util/format.go": `package util

func FormatNumber(n int) string { return "" }
`,
	})

	files := absFiles(dir, "pkg/math/math.go", "pkg/util/format.go")
	tags, stats, err := ExtractAll(context.Background(), dir, files, types.RefreshAlways, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.FilesProcessed)

	defs := filterByKind(tags, types.Definition)
	names := tagNames(defs)

	assert.Contains(t, names, "Calculator")
	assert.Contains(t, names, "Add")
	assert.Contains(t, names, "Multiply")
	assert.Contains(t, names, "FormatNumber")
}

func TestExtractAll_PythonDefinitions(t *testing.T) {
	dir := setupTestRepo(t, map[string]string{
		"app.py": `
class Calculator:
    def add(self, a, b):
        return a + b

def multiply(a, b):
    return a * b
`,
	})

	files := absFiles(dir, "app.py")
	tags, stats, err := ExtractAll(context.Background(), dir, files, types.RefreshAlways, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilesProcessed)

	names := tagNames(filterByKind(tags, types.Definition))
	assert.Contains(t, names, "Calculator")
	assert.Contains(t, names, "add")
	assert.Contains(t, names, "multiply")
}

func TestExtractAll_UnknownExtensionUsesLexerFallback(t *testing.T) {
	dir := setupTestRepo(t, map[string]string{
		"notes.txt": "Calculator multiply add\n",
	})

	files := absFiles(dir, "notes.txt")
	tags, stats, err := ExtractAll(context.Background(), dir, files, types.RefreshAlways, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilesProcessed)

	// The lexer fallback yields reference-only tags, never definitions.
	assert.Empty(t, filterByKind(tags, types.Definition))
	names := tagNames(filterByKind(tags, types.Reference))
	assert.Contains(t, names, "Calculator")
}

func TestExtractAll_MissingFileSkipped(t *testing.T) {
	dir := setupTestRepo(t, map[string]string{
		"main.go": "package main\n\nfunc Hello() string { return \"hello\" }\n",
	})

	files := absFiles(dir, "main.go", "does-not-exist.go")
	reporter := &testReporter{}
	_, stats, err := ExtractAll(context.Background(), dir, files, types.RefreshAlways, reporter)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilesProcessed)
	assert.Equal(t, 1, stats.FilesSkipped)
	assert.NotEmpty(t, reporter.warnings)
}

func TestExtractAll_CacheHitsOnSecondRun(t *testing.T) {
	dir := setupTestRepo(t, map[string]string{
		"main.go": "package main\n\nfunc Hello() string { return \"hello\" }\n",
	})
	files := absFiles(dir, "main.go")

	_, stats1, err := ExtractAll(context.Background(), dir, files, types.RefreshAuto, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, stats1.CacheHits)

	_, stats2, err := ExtractAll(context.Background(), dir, files, types.RefreshAuto, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, stats2.CacheHits)
}

func TestExtractAll_CacheInvalidatedOnChange(t *testing.T) {
	dir := setupTestRepo(t, map[string]string{
		"main.go": "package main\n\nfunc Hello() string { return \"hello\" }\n",
	})
	files := absFiles(dir, "main.go")

	_, _, err := ExtractAll(context.Background(), dir, files, types.RefreshAuto, nil)
	require.NoError(t, err)

	later := time.Now().Add(time.Second)
	path := filepath.Join(dir, "main.go")
	require.NoError(t, os.WriteFile(path, []byte("package main\n\nfunc Goodbye() string { return \"bye\" }\n"), 0o644))
	require.NoError(t, os.Chtimes(path, later, later))

	tags, stats, err := ExtractAll(context.Background(), dir, files, types.RefreshAuto, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.CacheHits, "modified file should be re-extracted, not served from cache")
	names := tagNames(filterByKind(tags, types.Definition))
	assert.Contains(t, names, "Goodbye")
	assert.NotContains(t, names, "Hello")
}

func TestExtractAll_RefreshAlwaysBypassesCache(t *testing.T) {
	dir := setupTestRepo(t, map[string]string{
		"main.go": "package main\n\nfunc Hello() string { return \"hello\" }\n",
	})
	files := absFiles(dir, "main.go")

	_, _, err := ExtractAll(context.Background(), dir, files, types.RefreshAuto, nil)
	require.NoError(t, err)

	_, stats, err := ExtractAll(context.Background(), dir, files, types.RefreshAlways, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.CacheHits)
}

func TestExtractAll_RefreshFilesAlwaysReExtractsUnchangedFile(t *testing.T) {
	dir := setupTestRepo(t, map[string]string{
		"main.go": "package main\n\nfunc Hello() string { return \"hello\" }\n",
	})
	files := absFiles(dir, "main.go")

	_, _, err := ExtractAll(context.Background(), dir, files, types.RefreshAuto, nil)
	require.NoError(t, err)

	// No change to the file at all: refresh=files must still re-extract it
	// rather than serve the cached entry, unlike auto/manual.
	_, stats, err := ExtractAll(context.Background(), dir, files, types.RefreshFiles, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.CacheHits, "refresh=files must re-extract every scanned file")
}

func TestExtractAll_RefreshFilesPicksUpEditsAndWritesBack(t *testing.T) {
	dir := setupTestRepo(t, map[string]string{
		"main.go": "package main\n\nfunc Hello() string { return \"hello\" }\n",
	})
	files := absFiles(dir, "main.go")

	_, _, err := ExtractAll(context.Background(), dir, files, types.RefreshFiles, nil)
	require.NoError(t, err)

	path := filepath.Join(dir, "main.go")
	require.NoError(t, os.WriteFile(path, []byte("package main\n\nfunc Goodbye() string { return \"bye\" }\n"), 0o644))

	tags, stats, err := ExtractAll(context.Background(), dir, files, types.RefreshFiles, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.CacheHits)
	names := tagNames(filterByKind(tags, types.Definition))
	assert.Contains(t, names, "Goodbye")
	assert.NotContains(t, names, "Hello")

	// The write-back should make a subsequent auto run see the new content
	// as cached and valid (since mtime/size now match what was stored).
	_, autoStats, err := ExtractAll(context.Background(), dir, files, types.RefreshAuto, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, autoStats.CacheHits, "refresh=files must still write back")
}

func TestExtractAll_ContextCancellationReturnsError(t *testing.T) {
	dir := setupTestRepo(t, map[string]string{
		"main.go": "package main\n\nfunc Hello() {}\n",
	})
	files := absFiles(dir, "main.go")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := ExtractAll(ctx, dir, files, types.RefreshAlways, nil)
	assert.Error(t, err)
}

// --- Test helpers ---

func setupTestRepo(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

func absFiles(dir string, rels ...string) []string {
	out := make([]string, 0, len(rels))
	for _, r := range rels {
		out = append(out, filepath.Join(dir, r))
	}
	return out
}

func filterByKind(tags []types.Tag, kind types.RefKind) []types.Tag {
	var out []types.Tag
	for _, tg := range tags {
		if tg.Kind == kind {
			out = append(out, tg)
		}
	}
	return out
}

func tagNames(tags []types.Tag) []string {
	out := make([]string, 0, len(tags))
	for _, tg := range tags {
		out = append(out, tg.Name)
	}
	return out
}
