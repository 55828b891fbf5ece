// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/repomapper-dev/repomapper/internal/repomap"
	"github.com/repomapper-dev/repomapper/pkg/types"
)

func newMapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "map",
		Short: "Generate a ranked repository map",
		RunE:  runMap,
	}

	cmd.Flags().StringSlice("chat-file", nil, "File already in the chat context (repeatable)")
	cmd.Flags().StringSlice("mention", nil, "File explicitly mentioned in conversation (repeatable)")
	cmd.Flags().StringSlice("ident", nil, "Identifier explicitly mentioned in conversation (repeatable)")
	cmd.Flags().StringSlice("include", nil, "File to consider even if untracked (repeatable)")
	cmd.Flags().String("context", "", "Free-text context to mine for file/identifier mentions")
	cmd.Flags().Int("map-tokens", 1024, "Token budget for the rendered map")
	cmd.Flags().String("refresh", "auto", "Cache refresh mode: auto, files, manual, always")
	cmd.Flags().Bool("force-refresh", false, "Force full re-extraction, bypassing the cache")
	cmd.Flags().Duration("timeout", 30*time.Second, "Maximum time to spend extracting tags")

	viper.BindPFlag("map-tokens", cmd.Flags().Lookup("map-tokens"))
	viper.BindPFlag("refresh", cmd.Flags().Lookup("refresh"))

	return cmd
}

func runMap(cmd *cobra.Command, args []string) error {
	root, err := filepath.Abs(viper.GetString("root"))
	if err != nil {
		return fmt.Errorf("resolving root: %w", err)
	}

	chatFilesRel, _ := cmd.Flags().GetStringSlice("chat-file")
	mentionsRel, _ := cmd.Flags().GetStringSlice("mention")
	idents, _ := cmd.Flags().GetStringSlice("ident")
	includeRel, _ := cmd.Flags().GetStringSlice("include")
	contextText, _ := cmd.Flags().GetString("context")
	forceRefresh, _ := cmd.Flags().GetBool("force-refresh")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	refreshMode, err := types.ParseRefreshMode(viper.GetString("refresh"))
	if err != nil {
		return err
	}

	allFiles, err := discoverFiles(root)
	if err != nil {
		return fmt.Errorf("discovering files: %w", err)
	}
	allFiles = append(allFiles, importantFiles(root)...)
	allFiles = append(allFiles, toAbs(root, includeRel)...)
	allFiles = dedupeStrings(allFiles)

	chatFiles := toAbs(root, chatFilesRel)
	chatSet := toSet(chatFiles)

	var otherFiles []string
	for _, f := range allFiles {
		if !chatSet[f] {
			otherFiles = append(otherFiles, f)
		}
	}

	in := types.GenerateMapInput{
		ChatFiles:            chatFiles,
		OtherFiles:           otherFiles,
		MentionedFnames:      stringSliceToSet(mentionsRel),
		MentionedIdentifiers: stringSliceToSet(idents),
		Context:              contextText,
		Refresh:              refreshMode,
		ForceRefresh:         forceRefresh,
		MapTokens:            viper.GetInt("map-tokens"),
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	out, err := repomap.GenerateMap(ctx, root, in, fileIO{root: root}, countTokens, consoleReporter{})
	if err != nil {
		return err
	}

	fmt.Fprint(os.Stdout, out)
	return nil
}

func toAbs(root string, rels []string) []string {
	out := make([]string, 0, len(rels))
	for _, r := range rels {
		if filepath.IsAbs(r) {
			out = append(out, r)
			continue
		}
		out = append(out, filepath.Join(root, r))
	}
	return out
}

func toSet(ss []string) map[string]bool {
	m := make(map[string]bool, len(ss))
	for _, s := range ss {
		m[s] = true
	}
	return m
}

func stringSliceToSet(ss []string) map[string]struct{} {
	m := make(map[string]struct{}, len(ss))
	for _, s := range ss {
		m[s] = struct{}{}
	}
	return m
}
