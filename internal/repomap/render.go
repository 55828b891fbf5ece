// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package repomap

import (
	"sort"
	"strings"

	"github.com/repomapper-dev/repomapper/pkg/types"
)

const elisionMarker = "⋮"

// renderPrefix renders the first len(anchors) ranked tags (already sliced
// by the caller) grouped by file, each expanded to its context-hoisted
// source, followed by header-only entries for any of otherFiles that
// contributed no anchor and were not already rendered (§4.6 step 1, §4.7).
func renderPrefix(anchors []types.RankedTag, otherFiles []string, io types.FileIO) string {
	byFile := make(map[string][]int)
	var order []string
	for _, a := range anchors {
		if _, ok := byFile[a.RelPath]; !ok {
			order = append(order, a.RelPath)
		}
		byFile[a.RelPath] = append(byFile[a.RelPath], a.Line)
	}

	var buf strings.Builder
	rendered := make(map[string]bool)
	for _, path := range order {
		buf.WriteString(renderFile(path, byFile[path], io))
		rendered[path] = true
	}

	for _, path := range otherFiles {
		if rendered[path] {
			continue
		}
		buf.WriteString(renderHeaderOnly(path))
		rendered[path] = true
	}

	return buf.String()
}

// renderFile implements §4.7 steps 2-5 for a single file: read source,
// compute the kept-line set via context hoisting, and emit the elided
// listing.
func renderFile(relPath string, anchorLines []int, io types.FileIO) string {
	text, err := io.ReadText(relPath)
	if err != nil {
		return renderHeaderOnly(relPath)
	}

	lines := strings.Split(text, "\n")
	kept := keptLines(lines, anchorLines)

	var buf strings.Builder
	buf.WriteString(relPath + ":\n")

	keptSorted := sortedInts(kept)
	last := -1
	for _, ln := range keptSorted {
		if ln < 0 || ln >= len(lines) {
			continue
		}
		if ln > last+1 {
			buf.WriteString(elisionMarker + "\n")
		}
		buf.WriteString("│" + lines[ln] + "\n")
		last = ln
	}
	if len(keptSorted) == 0 || keptSorted[len(keptSorted)-1] < len(lines)-1 {
		buf.WriteString(elisionMarker + "\n")
	}
	buf.WriteString("\n")

	return buf.String()
}

// renderHeaderOnly emits the "no anchor contributed" form (§4.7: "header-
// only entries") — also used when the source cannot be read (§4.7 step 2).
func renderHeaderOnly(relPath string) string {
	return relPath + ":\n" + elisionMarker + "\n\n"
}

// keptLines computes the context-hoisting rule (§4.7 step 3): each anchor
// keeps itself, plus every ancestor line whose indentation strictly
// decreases walking upward, stopping at column 0 or a blank line.
func keptLines(lines []string, anchors []int) map[int]struct{} {
	kept := make(map[int]struct{})
	for _, anchor := range anchors {
		if anchor < 0 || anchor >= len(lines) {
			continue
		}
		kept[anchor] = struct{}{}
		indent := indentOf(lines[anchor])
		for ln := anchor - 1; ln >= 0 && indent > 0; ln-- {
			line := lines[ln]
			if strings.TrimSpace(line) == "" {
				break
			}
			lineIndent := indentOf(line)
			if lineIndent < indent {
				kept[ln] = struct{}{}
				indent = lineIndent
				if indent == 0 {
					break
				}
			}
		}
	}
	return kept
}

func indentOf(line string) int {
	n := 0
	for _, r := range line {
		if r == ' ' {
			n++
		} else if r == '\t' {
			n += 8
		} else {
			break
		}
	}
	return n
}

func sortedInts(m map[int]struct{}) []int {
	out := make([]int, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}
