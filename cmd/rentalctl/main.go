// Command rentalctl runs maintenance tasks against the rental database.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/harentsoaR/carrental-api/internal/config"
	"github.com/harentsoaR/carrental-api/internal/logging"
	"github.com/harentsoaR/carrental-api/internal/store"
)

var (
	cfg    *config.Config
	logger *zap.Logger
	client *mongo.Client

	timeout time.Duration
)

var rootCmd = &cobra.Command{
	Use:           "rentalctl",
	Short:         "Maintenance commands for the car rental database",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, err = config.Load(); err != nil {
			return err
		}
		if logger, err = logging.New(cfg.LogLevel, cfg.IsDevelopment()); err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()
		client, err = store.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.Timeout)
		return err
	},
}

// cleanup runs after every command, including ones that fail.
func cleanup() {
	if client != nil {
		_ = client.Disconnect(context.Background())
		client = nil
	}
	if logger != nil {
		_ = logger.Sync()
		logger = nil
	}
}

func init() {
	cobra.OnFinalize(cleanup)
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "overall deadline for the command")

	usersCmd.AddCommand(usersStatsCmd)
	indexesCmd.AddCommand(indexesSyncCmd)
	rootCmd.AddCommand(usersCmd, indexesCmd, pingCmd)
}

func database() *mongo.Database {
	return client.Database(cfg.Mongo.Database)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
