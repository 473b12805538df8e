package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/renoworks/pricing-engine/internal/model"
)

var seedFlags struct {
	materialsFile string
	refreshEmbeds bool
}

// seedMaterial is the YAML shape of one catalog row in a seed file.
type seedMaterial struct {
	Name         string  `yaml:"name"`
	Description  string  `yaml:"description"`
	UnitPrice    float64 `yaml:"unit_price"`
	Unit         string  `yaml:"unit"`
	Region       string  `yaml:"region"`
	Vendor       string  `yaml:"vendor"`
	QualityScore int     `yaml:"quality_score"`
	SourceURL    string  `yaml:"source_url"`
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed regional multipliers and, optionally, catalog materials",
	Long:  "Seeds the regional pricing table from the built-in defaults (existing rows are never overwritten) and bulk-loads materials from a YAML file when one is given.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		if err := env.Store.SeedRegionalPricing(ctx, cfg.Pricing.RegionalMultipliers); err != nil {
			return err
		}
		zap.L().Info("regional pricing seeded", zap.Int("regions", len(cfg.Pricing.RegionalMultipliers)))

		if seedFlags.materialsFile != "" {
			materials, err := loadSeedMaterials(seedFlags.materialsFile)
			if err != nil {
				return err
			}

			inserted, err := env.Store.BulkInsertMaterials(ctx, materials)
			if err != nil {
				return err
			}
			zap.L().Info("materials seeded",
				zap.String("file", seedFlags.materialsFile),
				zap.Int64("inserted", inserted))
		}

		if seedFlags.refreshEmbeds {
			updated, err := env.Ranker.RefreshEmbeddings(ctx, cfg.Embedding.BatchSize)
			if err != nil {
				return err
			}
			zap.L().Info("embeddings refreshed", zap.Int("updated", updated))
		}

		return nil
	},
}

func loadSeedMaterials(path string) ([]model.Material, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "read seed file")
	}

	var rows []seedMaterial
	if err := yaml.Unmarshal(data, &rows); err != nil {
		return nil, eris.Wrap(err, "parse seed file")
	}
	if len(rows) == 0 {
		return nil, eris.New("seed file contains no materials")
	}

	materials := make([]model.Material, 0, len(rows))
	for i, row := range rows {
		if row.Name == "" {
			return nil, eris.Errorf("seed file row %d: name is required", i+1)
		}
		if row.UnitPrice <= 0 {
			return nil, eris.Errorf("seed file row %d (%s): unit_price must be > 0", i+1, row.Name)
		}
		materials = append(materials, model.Material{
			Name:         row.Name,
			Description:  row.Description,
			UnitPrice:    row.UnitPrice,
			Unit:         row.Unit,
			Region:       row.Region,
			Vendor:       row.Vendor,
			QualityScore: row.QualityScore,
			SourceURL:    row.SourceURL,
		})
	}
	return materials, nil
}

func init() {
	seedCmd.Flags().StringVar(&seedFlags.materialsFile, "materials", "", "YAML file of materials to bulk-load")
	seedCmd.Flags().BoolVar(&seedFlags.refreshEmbeds, "refresh-embeddings", false, "compute embeddings for materials missing one after seeding")
	rootCmd.AddCommand(seedCmd)
}
