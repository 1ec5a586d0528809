package main

import (
	"context"
	"encoding/json"
	"io"

	"github.com/spf13/cobra"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <handle>",
	Short: "Print the upsolve set for a Codeforces handle",
	Args:  cobra.ExactArgs(1),
	RunE:  runResolve,
}

var extractCmd = &cobra.Command{
	Use:   "extract <problem-url>",
	Short: "Print the scraped statement of a Codeforces problem",
	Args:  cobra.ExactArgs(1),
	RunE:  runExtract,
}

func runResolve(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	defer log.Sync()

	s, err := buildScrapers(cfg, log)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	candidates, err := s.resolver.ResolveUpsolveSet(ctx, args[0])
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), candidates)
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	defer log.Sync()

	s, err := buildScrapers(cfg, log)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	st, err := s.extractor.ExtractProblem(ctx, args[0])
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), st)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
