// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package repomap

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/repomapper-dev/repomapper/pkg/types"
)

func chatBasenames(chatFiles []string) map[string]struct{} {
	out := make(map[string]struct{}, len(chatFiles))
	for _, f := range chatFiles {
		out[filepath.Base(f)] = struct{}{}
	}
	return out
}

// GenerateMap is the single entry point of the ranked-tag engine (§6).
// root is the repository root (used for the cache location and relative
// paths); chatFiles/otherFiles/mentionedFnames/mentionedIdentifiers/
// refresh/forceRefresh/mapTokens mirror the builder contract exactly.
//
// The return value is the rendered map; an empty string means "no content
// fit the budget" and is not an error. The call is idempotent for
// identical inputs and cache state (P1, P2).
func GenerateMap(ctx context.Context, root string, in types.GenerateMapInput, io types.FileIO, count types.TokenCounter, reporter types.Reporter) (string, error) {
	if in.MapTokens < 0 {
		return "", fmt.Errorf("repomap: negative map_tokens %d", in.MapTokens)
	}
	if in.MapTokens == 0 {
		return "", nil
	}

	refresh := in.Refresh
	if in.ForceRefresh {
		refresh = types.RefreshAlways
	}

	allFiles := make([]string, 0, len(in.ChatFiles)+len(in.OtherFiles))
	allFiles = append(allFiles, in.ChatFiles...)
	allFiles = append(allFiles, in.OtherFiles...)

	// A canceled context still returns whatever tags were extracted so far;
	// the cache was already committed by ExtractAll (§5 cancellation).
	tags, _, _ := ExtractAll(ctx, root, allFiles, refresh, reporter)

	otherRel := toRelPaths(root, in.OtherFiles)

	mentionedFnames, mentionedIdentifiers := deriveMentions(in.Context, otherRel, chatBasenames(in.ChatFiles), in.MentionedFnames, in.MentionedIdentifiers)

	g := buildGraph(tags, mentionedIdentifiers)

	chatAbs := in.ChatFiles
	mentionedFnamesAbs := setToAbs(root, mentionedFnames)
	personalization := buildPersonalization(g, chatAbs, mentionedFnamesAbs, in.OtherFiles)

	fileRank := rankFiles(g, personalization)
	ranked := rankTags(g, fileRank, chatAbs)

	return selectWithinBudget(ranked, otherRel, in.MapTokens, io, count), nil
}

func toRelPaths(root string, abs []string) []string {
	out := make([]string, 0, len(abs))
	for _, p := range abs {
		rel, err := filepath.Rel(root, p)
		if err != nil {
			rel = p
		}
		out = append(out, filepath.ToSlash(rel))
	}
	return out
}

func setToAbs(root string, relSet map[string]struct{}) []string {
	out := make([]string, 0, len(relSet))
	for rel := range relSet {
		if filepath.IsAbs(rel) {
			out = append(out, rel)
			continue
		}
		out = append(out, filepath.Join(root, rel))
	}
	return out
}
