package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/harentsoaR/carrental-api/internal/store"
)

var indexesCmd = &cobra.Command{
	Use:   "indexes",
	Short: "Manage collection indexes",
}

var indexesSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Create any missing index on users, cars and bookings",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		if err := store.EnsureIndexes(ctx, database()); err != nil {
			return err
		}

		counts := make(map[string]int)
		for coll, models := range store.Indexes() {
			counts[coll] = len(models)
		}
		colls := make([]string, 0, len(counts))
		for coll := range counts {
			colls = append(colls, coll)
		}
		sort.Strings(colls)
		for _, coll := range colls {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d indexes ensured\n", coll, counts[coll])
		}
		logger.Info("indexes synced", zap.String("database", cfg.Mongo.Database))
		return nil
	},
}

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check that MongoDB answers",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		if err := client.Ping(ctx, readpref.Primary()); err != nil {
			return fmt.Errorf("ping: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "MongoDB reachable, database %q\n", cfg.Mongo.Database)
		return nil
	},
}
