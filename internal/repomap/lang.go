// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package repomap

import (
	"embed"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/php"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/ruby"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
	"github.com/smacker/go-tree-sitter/yaml"
)

//go:embed queries/*.scm
var queryFS embed.FS

// language is one entry of the language registry: resolves a file extension
// to a tree-sitter grammar and the query that extracts definitions and
// references from it. The registry never interprets the query captures; it
// only hands the compiled query to the extractor.
type language struct {
	name  string
	lang  *sitter.Language

	once  sync.Once
	query *sitter.Query
	err   error
}

func (l *language) tagQuery() (*sitter.Query, error) {
	l.once.Do(func() {
		data, readErr := queryFS.ReadFile(fmt.Sprintf("queries/%s.scm", l.name))
		if readErr != nil {
			l.err = fmt.Errorf("reading query for %s: %w", l.name, readErr)
			return
		}
		q, qErr := sitter.NewQuery(data, l.lang)
		if qErr != nil {
			l.err = fmt.Errorf("compiling query for %s: %w", l.name, qErr)
			return
		}
		l.query = q
	})
	return l.query, l.err
}

var languages = map[string]*language{
	"go":         {name: "go", lang: golang.GetLanguage()},
	"python":     {name: "python", lang: python.GetLanguage()},
	"javascript": {name: "javascript", lang: javascript.GetLanguage()},
	"typescript": {name: "typescript", lang: typescript.GetLanguage()},
	"tsx":        {name: "tsx", lang: tsx.GetLanguage()},
	"ruby":       {name: "ruby", lang: ruby.GetLanguage()},
	"java":       {name: "java", lang: java.GetLanguage()},
	"rust":       {name: "rust", lang: rust.GetLanguage()},
	"c":          {name: "c", lang: c.GetLanguage()},
	"cpp":        {name: "cpp", lang: cpp.GetLanguage()},
	"yaml":       {name: "yaml", lang: yaml.GetLanguage()},
	"php":        {name: "php", lang: php.GetLanguage()},
}

// extensions maps a lower-cased file extension (including the leading dot)
// or a bare filename override to a language registry key.
var extensions = map[string]string{
	".go":    "go",
	".py":    "python",
	".pyi":   "python",
	".js":    "javascript",
	".jsx":   "javascript",
	".mjs":   "javascript",
	".cjs":   "javascript",
	".ts":    "typescript",
	".mts":   "typescript",
	".tsx":   "tsx",
	".rb":    "ruby",
	".java":  "java",
	".rs":    "rust",
	".c":     "c",
	".h":     "c",
	".cc":    "cpp",
	".cpp":   "cpp",
	".cxx":   "cpp",
	".hpp":   "cpp",
	".hh":    "cpp",
	".yaml":  "yaml",
	".yml":   "yaml",
	".php":   "php",
}

// filenameOverrides resolves extensionless files by exact basename.
var filenameOverrides = map[string]string{
	"Makefile": "",
}

// resolveLanguage returns the registry entry for path, or nil if the
// extension (or filename) is unrecognized and the extractor should fall
// back to the lexer path.
func resolveLanguage(path string) *language {
	base := filepath.Base(path)
	if key, ok := filenameOverrides[base]; ok {
		if key == "" {
			return nil
		}
		return languages[key]
	}
	ext := strings.ToLower(filepath.Ext(path))
	key, ok := extensions[ext]
	if !ok {
		return nil
	}
	return languages[key]
}
