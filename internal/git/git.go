// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package git provides read-only repository discovery: listing the files
// git already tracks, for use as the repomap's candidate file set.
package git

import (
	"errors"
	"fmt"
	"sort"

	gogit "github.com/go-git/go-git/v5"
)

// ErrNoGit is returned when the working directory is not a git repository.
var ErrNoGit = errors.New("not a git repository")

// Repo wraps a go-git repository for read-only file discovery.
type Repo struct {
	repo *gogit.Repository
	root string
}

// Open opens an existing git repository rooted at or above dir. Returns
// ErrNoGit if no repository is found.
func Open(dir string) (*Repo, error) {
	r, err := gogit.PlainOpenWithOptions(dir, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoGit, err)
	}
	wt, err := r.Worktree()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoGit, err)
	}
	return &Repo{repo: r, root: wt.Filesystem.Root()}, nil
}

// Root returns the absolute path of the repository's working tree.
func (r *Repo) Root() string {
	return r.root
}

// TrackedFiles returns every file path (relative to Root, forward-slash
// separated) known to git: committed at HEAD plus anything staged. A
// repository with no commits yet returns only the staged set.
func (r *Repo) TrackedFiles() ([]string, error) {
	seen := make(map[string]struct{})

	head, err := r.repo.Head()
	if err == nil {
		commit, err := r.repo.CommitObject(head.Hash())
		if err != nil {
			return nil, fmt.Errorf("resolving HEAD commit: %w", err)
		}
		tree, err := commit.Tree()
		if err != nil {
			return nil, fmt.Errorf("reading HEAD tree: %w", err)
		}
		walker := tree.Files()
		defer walker.Close()
		for {
			f, err := walker.Next()
			if err != nil {
				break
			}
			seen[f.Name] = struct{}{}
		}
	}

	idx, err := r.repo.Storer.Index()
	if err != nil {
		return nil, fmt.Errorf("reading index: %w", err)
	}
	for _, entry := range idx.Entries {
		seen[entry.Name] = struct{}{}
	}

	out := make([]string, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Strings(out)
	return out, nil
}
