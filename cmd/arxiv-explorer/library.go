package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/arxiv-explorer/internal/library"
)

var libraryCmd = &cobra.Command{
	Use:   "library [paper-id]",
	Short: "List or show papers in the local catalog",
	Long: `Library lists the downloaded papers recorded in the local catalog, most
recent first. With a paper ID argument it prints that paper's full record.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLibrary,
}

func init() {
	libraryCmd.Flags().Bool("json", false, "output as JSON")

	rootCmd.AddCommand(libraryCmd)
}

func runLibrary(cmd *cobra.Command, args []string) error {
	cfg := sessionConfig()
	lib, err := library.Open(cfg.Library)
	if err != nil {
		return fmt.Errorf("opening library: %w", err)
	}
	defer lib.Close()

	asJSON, _ := cmd.Flags().GetBool("json")

	if len(args) == 1 {
		rec, err := lib.Get(args[0])
		if err != nil {
			return err
		}
		if asJSON {
			return printJSON(rec)
		}
		printRecord(rec)
		return nil
	}

	records, err := lib.List()
	if err != nil {
		return err
	}
	if asJSON {
		return printJSON(records)
	}
	if len(records) == 0 {
		fmt.Println("Library is empty.")
		return nil
	}
	for _, rec := range records {
		fmt.Printf("%-14s  %s  %s\n",
			rec.Paper.ID, rec.DownloadedAt.Format("2006-01-02"), rec.Paper.Title)
	}
	return nil
}

func printRecord(rec library.Record) {
	fmt.Printf("ID:         %s\n", rec.Paper.ID)
	fmt.Printf("Title:      %s\n", rec.Paper.Title)
	for i, a := range rec.Paper.Authors {
		if i == 0 {
			fmt.Printf("Authors:    %s\n", a)
		} else {
			fmt.Printf("            %s\n", a)
		}
	}
	fmt.Printf("Published:  %s\n", rec.Paper.Published.Format("2006-01-02"))
	fmt.Printf("PDF:        %s\n", rec.PDFPath)
	fmt.Printf("Downloaded: %s\n", rec.DownloadedAt.Format("2006-01-02 15:04"))
	if rec.Paper.Abstract != "" {
		fmt.Printf("\n%s\n", rec.Paper.Abstract)
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
