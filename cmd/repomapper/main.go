// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Command repomapper builds a ranked, token-budget-constrained map of a
// repository's definitions and references.
package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "repomapper",
		Short: "Ranked repository map generator",
		Long:  "repomapper extracts definitions and references from a repository, ranks them with personalized PageRank, and renders the result within a token budget.",
	}

	rootCmd.PersistentFlags().String("root", ".", "Repository root directory")

	viper.BindPFlag("root", rootCmd.PersistentFlags().Lookup("root"))

	viper.SetEnvPrefix("REPOMAPPER")
	viper.AutomaticEnv()

	viper.SetConfigName(".repomapper")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.ReadInConfig() // Ignore error; config file is optional.

	rootCmd.AddCommand(newMapCmd())
	rootCmd.AddCommand(newVersionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print repomapper version",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println("repomapper " + version)
		},
	}
}
