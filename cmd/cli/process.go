package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/price-standard/price-service/internal/locator"
	"github.com/price-standard/price-service/internal/pipeline"
	"github.com/price-standard/price-service/internal/types"
)

var (
	processK2           int
	processK3           int
	processRecalculate  bool
	processOutput       string
	processHeaderPolicy string
	processSheet        string
	processFormat       string
)

// processCmd represents the process command
var processCmd = &cobra.Command{
	Use:   "process <file>",
	Short: "Standardize a price list",
	Long: `Standardize a price list (.xlsx, .xlsm or .csv). The result is written as a new
workbook with a document header block, styled sale and category rows and print setup.

Discount percentages default to the pricing.discounts configuration (К2=30, К3=40).`,
	Example: `  price-standard process ./price.xlsx
  price-standard process ./price.xlsx --k2 25 --k3 35 --recalculate
  price-standard process ./price.csv --output ./out/standard.xlsx --output-format json`,
	Args: cobra.ExactArgs(1),
	RunE: runProcess,
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().IntVar(&processK2, "k2", 30, "Discount percent for the К2 marker")
	processCmd.Flags().IntVar(&processK3, "k3", 40, "Discount percent for the К3 marker")
	processCmd.Flags().BoolVar(&processRecalculate, "recalculate", false, "Recompute special prices that are already filled in")
	processCmd.Flags().StringVarP(&processOutput, "output", "o", "", "Output file (default: generated name next to the input)")
	processCmd.Flags().StringVar(&processHeaderPolicy, "header-policy", "", "Header detection policy: strict or generic")
	processCmd.Flags().StringVar(&processSheet, "sheet", "", "Worksheet to read (default: the active sheet)")
	processCmd.Flags().StringVar(&processFormat, "output-format", "table", "Report format: table or json")
}

func runProcess(cmd *cobra.Command, args []string) error {
	filePath := args[0]

	pc := cfg.Pipeline()
	if processHeaderPolicy != "" {
		policy := locator.Policy(strings.ToLower(processHeaderPolicy))
		if policy != locator.PolicyStrict && policy != locator.PolicyGeneric {
			return fmt.Errorf("invalid header policy: %s (use 'strict' or 'generic')", processHeaderPolicy)
		}
		pc.HeaderPolicy = policy
	}
	if processSheet != "" {
		pc.Sheet = processSheet
	}

	opts := cfg.Options()
	if cmd.Flags().Changed("k2") {
		opts.Discounts["К2"] = processK2
	}
	if cmd.Flags().Changed("k3") {
		opts.Discounts["К3"] = processK3
	}
	if cmd.Flags().Changed("recalculate") {
		opts.RecalculateExisting = processRecalculate
	}

	logger.Info().Str("file", filePath).Msg("Reading file")
	content, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	p := newPipeline(pc, nil)
	out, err := p.Run(context.Background(), pipeline.Input{Filename: filepath.Base(filePath), Content: content}, opts)
	if err != nil {
		result := types.Result{Success: false, Message: pipeline.FailureMessage(err), Stats: types.NewProcessingStats()}
		if reportErr := report(result, ""); reportErr != nil {
			return reportErr
		}
		return err
	}

	target := processOutput
	if target == "" {
		target = filepath.Join(filepath.Dir(filePath), out.Name)
	}
	if dir := filepath.Dir(target); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(target, out.Content, 0644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	logger.Info().Str("output", target).Int("bytes", len(out.Content)).Msg("Wrote standardized price list")

	return report(types.Result{
		Success:    true,
		Message:    pipeline.SuccessMessage(out.Stats),
		OutputName: filepath.Base(target),
		Stats:      out.Stats,
	}, target)
}

func report(result types.Result, target string) error {
	switch strings.ToLower(processFormat) {
	case "json":
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(result)
	case "table":
		outputResultTable(result, target)
		return nil
	default:
		return fmt.Errorf("invalid output format: %s (use 'table' or 'json')", processFormat)
	}
}

func outputResultTable(result types.Result, target string) {
	fmt.Printf("\n%s\n", result.Message)
	fmt.Println(strings.Repeat("-", 60))
	if !result.Success {
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintf(w, "Metric\tValue\n")
	fmt.Fprintf(w, "------\t-----\n")
	fmt.Fprintf(w, "Output\t%s\n", target)
	fmt.Fprintf(w, "Rows Processed\t%d\n", result.Stats.RowsProcessed)
	fmt.Fprintf(w, "Rows On Sale\t%d\n", result.Stats.RowsWithSale)
	for _, rule := range []types.Rule{
		types.RuleDiscountComputed,
		types.RuleKeptExistingSpecial,
		types.RuleK4ForcedSale,
		types.RulePlainRetail,
	} {
		fmt.Fprintf(w, "Rule %s\t%d\n", rule, result.Stats.PerRule[rule])
	}
	w.Flush()
}
