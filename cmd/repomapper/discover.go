// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"

	repogit "github.com/repomapper-dev/repomapper/internal/git"
)

// importantFilenames are surfaced to the map even when untracked or outside
// the language registry — README/LICENSE/build files the teacher's pipeline
// would otherwise never see a definition in.
var importantFilenames = []string{
	"README.md", "README", "LICENSE", "LICENSE.md", "Makefile",
	"Dockerfile", "docker-compose.yml", "go.mod",
	".github/workflows/ci.yml", ".github/workflows/ci.yaml",
}

// importantFiles returns the subset of importantFilenames present under
// root, as absolute paths.
func importantFiles(root string) []string {
	var out []string
	for _, rel := range importantFilenames {
		abs := filepath.Join(root, rel)
		if _, err := os.Stat(abs); err == nil {
			out = append(out, abs)
		}
	}
	return out
}

func dedupeStrings(ss []string) []string {
	seen := make(map[string]struct{}, len(ss))
	out := make([]string, 0, len(ss))
	for _, s := range ss {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

var skipDirs = map[string]struct{}{
	"__pycache__":  {},
	"node_modules": {},
	".git":         {},
	".hg":          {},
	".svn":         {},
	"venv":         {},
	".venv":        {},
	"build":        {},
	"dist":         {},
}

// discoverFiles returns every candidate source file under root, as absolute
// paths. Git-tracked files are preferred when root is a git repository;
// otherwise a .gitignore-respecting filesystem walk is used.
func discoverFiles(root string) ([]string, error) {
	if repo, err := repogit.Open(root); err == nil {
		rels, err := repo.TrackedFiles()
		if err != nil {
			return nil, err
		}
		out := make([]string, 0, len(rels))
		for _, rel := range rels {
			out = append(out, filepath.Join(repo.Root(), rel))
		}
		sort.Strings(out)
		return out, nil
	}

	gi := loadGitignore(root)
	var out []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		name := d.Name()
		if d.IsDir() {
			if path == root {
				return nil
			}
			if _, skip := skipDirs[name]; skip || strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") || d.Type()&os.ModeSymlink != 0 {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		if gi != nil && gi.MatchesPath(rel) {
			return nil
		}
		out = append(out, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}

func loadGitignore(root string) *ignore.GitIgnore {
	gi, err := ignore.CompileIgnoreFile(filepath.Join(root, ".gitignore"))
	if err != nil {
		return nil
	}
	return gi
}
