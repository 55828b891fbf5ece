// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package repomap

import (
	"github.com/repomapper-dev/repomapper/pkg/types"
)

// budgetSlack is ε in "total_tokens(output) ≤ budget * (1 + ε)" (§3).
const budgetSlack = 0.15

// earlyExitFraction stops the binary search once two consecutive probes
// differ by less than 1% of the target budget (§4.6 step 3).
const earlyExitFraction = 0.01

// selectWithinBudget binary-searches the prefix length of ranked (the
// Ranker's output) whose rendered form is the largest that still fits
// within budgetTokens*(1+ε). otherFiles are files with no selected tag;
// they render header-only when still present after the chosen prefix.
// Renders are memoized by prefix length, so no prefix is rendered twice; a
// call renders the zero prefix plus at most ⌊log2(N+1)⌋+1 search probes,
// which can exceed ⌈log2 N⌉+1 renders (§4.6 step 4).
func selectWithinBudget(ranked []types.RankedTag, otherFiles []string, budgetTokens int, io types.FileIO, count types.TokenCounter) string {
	n := len(ranked)
	limit := float64(budgetTokens) * (1 + budgetSlack)

	memo := make(map[int]string, n+1)
	renderAt := func(k int) string {
		if text, ok := memo[k]; ok {
			return text
		}
		text := renderPrefix(ranked[:k], otherFiles, io)
		memo[k] = text
		return text
	}

	if budgetTokens <= 0 {
		return ""
	}

	zero := renderAt(0)
	if float64(count(zero)) > limit {
		return ""
	}

	lo, hi := 0, n
	best := 0
	var prevTokens float64 = -1
	for lo <= hi {
		mid := (lo + hi) / 2
		text := renderAt(mid)
		tokens := float64(count(text))

		if tokens <= limit {
			best = mid
			lo = mid + 1
		} else {
			hi = mid - 1
		}

		if prevTokens >= 0 {
			delta := tokens - prevTokens
			if delta < 0 {
				delta = -delta
			}
			if delta < earlyExitFraction*float64(budgetTokens) {
				break
			}
		}
		prevTokens = tokens
	}

	return renderAt(best)
}
