// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package repomap

import (
	"path/filepath"
	"regexp"
	"strings"
)

// minIdentifierLen is the shortest identifier considered when matching
// free-text mentions to repository files by stem — short idents like "id"
// or "run" would match almost any file and add noise.
const minIdentifierLen = 5

var wordRe = regexp.MustCompile(`\w+`)

// deriveMentions extracts mentioned_fnames/mentioned_identifiers from
// free-text context, supplementing (never replacing) caller-supplied sets.
// Grounded on the original aider-derived toolkit's _extract_identifiers /
// _extract_file_mentions / _match_identifiers_to_files: split context into
// words, match repo-relative basenames directly, and match long
// identifiers to file stems.
func deriveMentions(context string, repoRelFiles []string, chatBasenames map[string]struct{}, existingFnames map[string]struct{}, existingIdentifiers map[string]struct{}) (map[string]struct{}, map[string]struct{}) {
	fnames := copySet(existingFnames)
	idents := copySet(existingIdentifiers)

	if context == "" {
		return fnames, idents
	}

	for _, m := range wordRe.FindAllString(context, -1) {
		idents[m] = struct{}{}
	}

	words := make(map[string]struct{})
	for _, w := range strings.Fields(context) {
		w = strings.Trim(w, ",.!;:?")
		w = strings.Trim(w, "\"'`*_")
		w = strings.ReplaceAll(w, "\\", "/")
		if w != "" {
			words[w] = struct{}{}
		}
	}

	byBasename := make(map[string][]string)
	for _, rel := range repoRelFiles {
		base := filepath.Base(rel)
		if _, isChat := chatBasenames[base]; isChat {
			// Already visible to the caller as a chat file; never re-surface
			// it as a mention under its own basename.
			continue
		}
		if strings.ContainsAny(base, "/._-") {
			byBasename[base] = append(byBasename[base], rel)
		}
		if _, ok := words[rel]; ok {
			fnames[rel] = struct{}{}
		}
	}
	for base, rels := range byBasename {
		if _, ok := words[base]; ok && len(rels) == 1 {
			fnames[rels[0]] = struct{}{}
		}
	}

	byStem := make(map[string][]string)
	for _, rel := range repoRelFiles {
		if _, isChat := chatBasenames[filepath.Base(rel)]; isChat {
			continue
		}
		stem := strings.TrimSuffix(filepath.Base(rel), filepath.Ext(rel))
		stem = strings.ToLower(stem)
		if len(stem) < minIdentifierLen {
			continue
		}
		byStem[stem] = append(byStem[stem], rel)
	}
	for ident := range idents {
		if len(ident) < minIdentifierLen {
			continue
		}
		for _, rel := range byStem[strings.ToLower(ident)] {
			fnames[rel] = struct{}{}
		}
	}

	return fnames, idents
}

func copySet(m map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(m))
	for k := range m {
		out[k] = struct{}{}
	}
	return out
}
