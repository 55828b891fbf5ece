// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"os"
	"path/filepath"
)

// consoleReporter sends warnings and errors to stderr, matching the
// teacher's io.tool_warning/io.tool_error convention.
type consoleReporter struct{}

func (consoleReporter) Warn(msg string)  { fmt.Fprintln(os.Stderr, "warning: "+msg) }
func (consoleReporter) Error(msg string) { fmt.Fprintln(os.Stderr, "error: "+msg) }

// fileIO reads source text relative to a fixed repository root.
type fileIO struct {
	root string
}

func (f fileIO) ReadText(relPath string) (string, error) {
	data, err := os.ReadFile(filepath.Join(f.root, relPath))
	if err != nil {
		return "", err
	}
	return string(data), nil
}
