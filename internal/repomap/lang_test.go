// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package repomap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveLanguage_ByExtension(t *testing.T) {
	cases := map[string]string{
		"main.go":       "go",
		"app.py":        "python",
		"widget.pyi":    "python",
		"index.js":      "javascript",
		"index.jsx":     "javascript",
		"index.ts":      "typescript",
		"App.tsx":       "tsx",
		"lib.rb":        "ruby",
		"Main.java":     "java",
		"main.rs":       "rust",
		"util.c":        "c",
		"util.h":        "c",
		"util.cpp":      "cpp",
		"config.yaml":   "yaml",
		"config.yml":    "yaml",
		"index.php":     "php",
	}
	for path, want := range cases {
		lang := resolveLanguage(path)
		require.NotNil(t, lang, "expected a language for %s", path)
		assert.Equal(t, want, lang.name)
	}
}

func TestResolveLanguage_UnknownExtensionReturnsNil(t *testing.T) {
	assert.Nil(t, resolveLanguage("notes.txt"))
	assert.Nil(t, resolveLanguage("image.png"))
}

func TestResolveLanguage_FilenameOverride(t *testing.T) {
	assert.Nil(t, resolveLanguage("Makefile"), "Makefile has no grammar and should fall back to the lexer")
}

func TestTagQuery_CompilesForEveryRegisteredLanguage(t *testing.T) {
	for name, lang := range languages {
		q, err := lang.tagQuery()
		require.NoError(t, err, "language %s", name)
		assert.NotNil(t, q, "language %s", name)
	}
}
