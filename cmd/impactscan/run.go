package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"impactscan/internal/docloader"
	"impactscan/internal/logger"
)

var runDocumentPath string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the conflict-detection pipeline against a document and print the resulting bill impacts as JSON",
	RunE:  runRun,
}

func init() {
	runCmd.Flags().StringVar(&runDocumentPath, "document", "", "path to the corporate document (.txt or .pdf)")
	_ = runCmd.MarkFlagRequired("document")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.close()

	if _, err := os.Stat(runDocumentPath); err != nil {
		return fmt.Errorf("document not found: %w", err)
	}

	loader := docloader.ForExtension(extOfPath(runDocumentPath))
	pages, err := loader.Load(runDocumentPath)
	if err != nil {
		return fmt.Errorf("load document: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	start := time.Now()
	impacts, err := a.driver.Run(ctx, pages)
	if err != nil {
		return fmt.Errorf("run pipeline: %w", err)
	}

	logger.Info("pipeline run complete", "bills_impacted", len(impacts), "elapsed", time.Since(start).String())

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(impacts)
}

func extOfPath(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '.' {
			return path[i:]
		}
		if path[i] == '/' {
			break
		}
	}
	return ""
}
