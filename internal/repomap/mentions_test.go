// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package repomap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveMentions_EmptyContextKeepsExistingSets(t *testing.T) {
	fnames := map[string]struct{}{"a.go": {}}
	idents := map[string]struct{}{"Foo": {}}

	outFnames, outIdents := deriveMentions("", []string{"a.go", "b.go"}, nil, fnames, idents)
	assert.Equal(t, fnames, outFnames)
	assert.Equal(t, idents, outIdents)
}

func TestDeriveMentions_MatchesFileByBasename(t *testing.T) {
	fnames, _ := deriveMentions("please look at format.go for details", []string{"pkg/util/format.go"}, nil, nil, nil)
	assert.Contains(t, fnames, "pkg/util/format.go")
}

func TestDeriveMentions_MatchesIdentifierToFileStem(t *testing.T) {
	fnames, idents := deriveMentions("the Calculator type needs work", []string{"pkg/math/calculator.go"}, nil, nil, nil)
	assert.Contains(t, idents, "Calculator")
	assert.Contains(t, fnames, "pkg/math/calculator.go")
}

func TestDeriveMentions_ShortIdentifiersDoNotMatchFiles(t *testing.T) {
	fnames, _ := deriveMentions("run the id check", []string{"pkg/id/id.go"}, nil, nil, nil)
	assert.NotContains(t, fnames, "pkg/id/id.go")
}

func TestDeriveMentions_NeverMutatesCallerSets(t *testing.T) {
	fnames := map[string]struct{}{"a.go": {}}
	_, _ = deriveMentions("b.go", []string{"a.go", "b.go"}, nil, fnames, nil)
	assert.Len(t, fnames, 1, "deriveMentions must not mutate the caller's set")
}

func TestDeriveMentions_ExcludesChatFileBasenameCollision(t *testing.T) {
	chatBases := map[string]struct{}{"format.go": {}}
	fnames, _ := deriveMentions("please look at format.go for details", []string{"pkg/util/format.go"}, chatBases, nil, nil)
	assert.NotContains(t, fnames, "pkg/util/format.go", "a basename already visible as a chat file must not be re-surfaced as a mention")
}
