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

	"github.com/price-standard/price-service/internal/pipeline"
	"github.com/price-standard/price-service/internal/types"
)

var (
	inspectOutput string
	inspectSheet  string
)

// inspectCmd represents the inspect command
var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Show how a price list would be read",
	Long: `Show the detected header row, the column assigned to each role and how many rows
each cleaning pass removes, without writing any output.`,
	Example: `  price-standard inspect ./price.xlsx
  price-standard inspect ./price.xlsx --sheet "Лист2" --output json`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().StringVar(&inspectOutput, "output", "table", "Output format: table or json")
	inspectCmd.Flags().StringVar(&inspectSheet, "sheet", "", "Worksheet to read (default: the active sheet)")
}

func runInspect(cmd *cobra.Command, args []string) error {
	filePath := args[0]

	content, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	pc := cfg.Pipeline()
	if inspectSheet != "" {
		pc.Sheet = inspectSheet
	}

	insp, err := newPipeline(pc, nil).Inspect(context.Background(), pipeline.Input{Filename: filepath.Base(filePath), Content: content})
	if err != nil {
		return fmt.Errorf("inspect failed: %w", err)
	}

	switch strings.ToLower(inspectOutput) {
	case "json":
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(insp)
	case "table":
		outputInspectTable(filePath, insp)
	default:
		return fmt.Errorf("invalid output format: %s (use 'table' or 'json')", inspectOutput)
	}
	return nil
}

func outputInspectTable(filePath string, insp *pipeline.Inspection) {
	fmt.Printf("\nInspection of %s (sheet %q)\n", filePath, insp.Sheet)
	fmt.Println(strings.Repeat("-", 60))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintf(w, "Total Rows\t%d\n", insp.TotalRows)
	fmt.Fprintf(w, "Header Row\t%d\n", insp.HeaderRow)
	fmt.Fprintf(w, "Data Rows\t%d\n", insp.DataRows)
	w.Flush()

	fmt.Printf("\nColumns:\n")
	fmt.Println(strings.Repeat("-", 60))
	w = tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintf(w, "Role\tColumn\tHeader\n")
	fmt.Fprintf(w, "----\t------\t------\n")
	for _, role := range types.Roles {
		idx, ok := insp.Columns.Index(role)
		if !ok {
			fmt.Fprintf(w, "%s\t-\t(not found)\n", role)
			continue
		}
		header := ""
		if idx < len(insp.Header) {
			header = insp.Header[idx]
		}
		fmt.Fprintf(w, "%s\t%d\t%s\n", role, idx+1, header)
	}
	w.Flush()

	fmt.Printf("\nCleaning Passes:\n")
	fmt.Println(strings.Repeat("-", 60))
	w = tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintf(w, "Pass\tRemoved\n")
	fmt.Fprintf(w, "----\t-------\n")
	for _, r := range insp.Cleaning {
		fmt.Fprintf(w, "%s\t%d\n", r.Pass, r.Removed)
	}
	w.Flush()
}
