// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/exam-engine/internal/bankstore"
	"github.com/pdiddy/exam-engine/pkg/types"
)

var bankCmd = &cobra.Command{
	Use:   "bank",
	Short: "Manage the SQLite bank index (store, retrieve, sample)",
	Long: `Bank manages a local SQLite index over the enhanced question bank. Use
subcommands to index the bank, query it, or draw a practice-exam sample
with the answers withheld.`,
}

// --- store subcommand ---

var bankStoreCmd = &cobra.Command{
	Use:   "store",
	Short: "Index the enhanced bank into the SQLite store",
	Long: `Store reads output/enhanced_test_bank.json and ingests it into a SQLite
database with FTS5 indexing at output/index/bank.db. An unchanged bank
file is skipped on subsequent runs.`,
	RunE: runBankStore,
}

func runBankStore(cmd *cobra.Command, args []string) error {
	cfg := bankStoreConfig(cmd)

	store, err := bankstore.NewStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	bankPath := filepath.Join(cfg.OutputDir, bankstore.EnhancedBankFile)
	_, err = store.Index(context.Background(), bankPath, os.Stdout)
	return err
}

// --- retrieve subcommand ---

var bankRetrieveCmd = &cobra.Command{
	Use:   "retrieve [query]",
	Short: "Query the bank index with full-text search and filters",
	Long: `Retrieve searches the indexed bank using FTS5 full-text search over
stems and explanations, structured filters (section, difficulty, tag),
or a combination of both.`,
	RunE: runBankRetrieve,
}

func runBankRetrieve(cmd *cobra.Command, args []string) error {
	cfg := bankStoreConfig(cmd)
	store, err := bankstore.NewStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	opts := bankQueryOptsFromFlags(cmd, args)
	if opts.Query == "" && opts.SectionID == "" && opts.Difficulty == "" && len(opts.Tags) == 0 {
		return fmt.Errorf("query or filter required: provide a search query, --section, --difficulty, or --tag")
	}

	results, err := store.Retrieve(context.Background(), opts)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatRetrieveOutput(results, jsonOutput)
}

func formatRetrieveOutput(results []types.Question, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-10s  %-8s  %-50s  %-20s  %s\n",
		"ID", "Diff", "Question", "Section", "Page")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 100))

	for _, q := range results {
		stem := q.QuestionText
		if len(stem) > 50 {
			stem = stem[:47] + "..."
		}
		section := q.SectionID
		if len(section) > 20 {
			section = section[:17] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-10s  %-8s  %-50s  %-20s  %d\n",
			q.QuestionID, q.Difficulty, stem, section, q.PageRef)
	}

	fmt.Fprintf(os.Stdout, "\n%d results\n", len(results))
	return nil
}

// --- sample subcommand ---

var bankSampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Draw a random practice sample with answers withheld",
	Long: `Sample returns a random subset of the indexed bank as JSON with the
explanation and correct-answer markers stripped, the shape a
practice-exam front end consumes. The same seed yields the same sample.`,
	RunE: runBankSample,
}

func runBankSample(cmd *cobra.Command, args []string) error {
	count, _ := cmd.Flags().GetInt("count")
	seed, _ := cmd.Flags().GetUint64("seed")
	seed = resolveSeed(seed)

	cfg := bankStoreConfig(cmd)
	store, err := bankstore.NewStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	sampled, err := store.Sample(context.Background(), count, seed)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(sampled)
}

// --- shared helpers ---

func bankStoreConfig(cmd *cobra.Command) types.BankStoreConfig {
	outputDir, _ := cmd.Flags().GetString("output-dir")
	if outputDir == "" {
		outputDir = "output"
	}
	maxResults, _ := cmd.Flags().GetInt("max-results")

	return types.BankStoreConfig{
		OutputDir:  outputDir,
		MaxResults: maxResults,
	}
}

func bankQueryOptsFromFlags(cmd *cobra.Command, args []string) bankstore.QueryOptions {
	queryText, _ := cmd.Flags().GetString("query")
	if queryText == "" && len(args) > 0 {
		queryText = strings.Join(args, " ")
	}

	section, _ := cmd.Flags().GetString("section")
	difficulty, _ := cmd.Flags().GetString("difficulty")
	tag, _ := cmd.Flags().GetString("tag")
	limit, _ := cmd.Flags().GetInt("limit")

	opts := bankstore.QueryOptions{
		Query:      queryText,
		SectionID:  section,
		Difficulty: types.Difficulty(difficulty),
		MaxResults: limit,
	}
	if tag != "" {
		opts.Tags = []string{tag}
	}
	return opts
}

func init() {
	// Shared flags on the parent command, inherited by subcommands.
	bankCmd.PersistentFlags().String("output-dir", "output", "base directory for bank artifacts (contains index/)")
	bankCmd.PersistentFlags().Int("max-results", 20, "maximum number of query results")

	// Retrieve flags.
	bankRetrieveCmd.Flags().String("query", "", "full-text search query")
	bankRetrieveCmd.Flags().String("section", "", "filter by section ID")
	bankRetrieveCmd.Flags().String("difficulty", "", "filter by difficulty: easy, medium, hard")
	bankRetrieveCmd.Flags().String("tag", "", "filter by tag")
	bankRetrieveCmd.Flags().Int("limit", 0, "maximum results (0 = use default)")
	bankRetrieveCmd.Flags().Bool("json", false, "output results as JSON")

	// Sample flags.
	bankSampleCmd.Flags().Int("count", 25, "number of questions to sample")
	bankSampleCmd.Flags().Uint64("seed", 0, "random seed for the sample (0 = time-based, printed to stderr)")

	// Wire subcommands.
	bankCmd.AddCommand(bankStoreCmd)
	bankCmd.AddCommand(bankRetrieveCmd)
	bankCmd.AddCommand(bankSampleCmd)

	rootCmd.AddCommand(bankCmd)
}
