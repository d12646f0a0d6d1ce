package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"impactscan/internal/core"
	"impactscan/internal/logger"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the persistent embedding cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print the number of entries in the persistent embedding cache",
	RunE:  runCacheStats,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every entry from the persistent embedding cache",
	RunE:  runCacheClear,
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd, cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}

func runCacheStats(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.close()

	n, err := a.cacheAdmin.CacheCount(context.Background())
	if err != nil {
		return fmt.Errorf("count embedding cache entries: %w", err)
	}

	fmt.Printf("embedding cache entries: %d\n", n)
	return nil
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.close()

	n, err := a.cacheAdmin.CacheClear(context.Background())
	if err != nil {
		return fmt.Errorf("clear embedding cache: %w", err)
	}

	entry := core.AuditEntry{
		ID:          uuid.NewString(),
		Actor:       "cli",
		Action:      "cache_cleared",
		ReferenceID: "embedding_cache",
		Properties:  map[string]any{"entries_removed": n},
		Timestamp:   time.Now(),
	}
	if err := a.audit.Record(context.Background(), entry); err != nil {
		logger.Warn("failed to record cache clear audit entry", "error", err)
	}

	fmt.Printf("removed %d embedding cache entries\n", n)
	return nil
}
