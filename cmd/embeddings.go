package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var embeddingsBatchSize int

var embeddingsCmd = &cobra.Command{
	Use:   "embeddings",
	Short: "Manage material embeddings",
}

var embeddingsRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Compute embeddings for materials that have none",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		updated, err := env.Ranker.RefreshEmbeddings(ctx, embeddingsBatchSize)
		if err != nil {
			return err
		}

		zap.L().Info("embeddings refreshed", zap.Int("updated", updated))
		return nil
	},
}

func init() {
	embeddingsRefreshCmd.Flags().IntVar(&embeddingsBatchSize, "batch-size", 0, "materials per provider batch (default from config)")
	embeddingsCmd.AddCommand(embeddingsRefreshCmd)
	rootCmd.AddCommand(embeddingsCmd)
}
