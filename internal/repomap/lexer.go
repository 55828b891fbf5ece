// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package repomap

import (
	"bytes"
	"regexp"
)

// identifierRe approximates a pygments-style generic identifier token: a
// letter or underscore followed by letters, digits, or underscores. It
// intentionally ignores language keywords — the lexer fallback exists to
// recover reference edges for unfamiliar languages, not to classify tokens.
var identifierRe = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`)

type tokenPos struct {
	text string
	line int
}

// lexTokens tokenizes source text into identifier-class tokens with their
// 0-based line numbers. It never emits definitions — the lexer fallback
// only contributes reference edges (§4.2 step 1).
func lexTokens(source []byte) []tokenPos {
	var out []tokenPos
	line := 0
	lineStart := 0
	for _, loc := range identifierRe.FindAllIndex(source, -1) {
		for lineStart < loc[0] {
			nl := bytes.IndexByte(source[lineStart:loc[0]], '\n')
			if nl == -1 {
				break
			}
			line++
			lineStart += nl + 1
		}
		out = append(out, tokenPos{
			text: string(source[loc[0]:loc[1]]),
			line: line,
		})
	}
	return out
}
