package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/renoworks/pricing-engine/internal/model"
)

var searchFlags struct {
	region   string
	unit     string
	vendor   string
	quality  int
	minPrice float64
	maxPrice float64
	limit    int
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the material catalog by confidence",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		filters := model.SearchFilters{
			Region:       searchFlags.region,
			Unit:         searchFlags.unit,
			Vendor:       searchFlags.vendor,
			QualityScore: searchFlags.quality,
			MinPrice:     searchFlags.minPrice,
			MaxPrice:     searchFlags.maxPrice,
		}

		results, err := env.Ranker.Search(ctx, strings.Join(args, " "), filters, searchFlags.limit)
		if err != nil {
			return err
		}

		out, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	searchCmd.Flags().StringVar(&searchFlags.region, "region", "", "filter by region")
	searchCmd.Flags().StringVar(&searchFlags.unit, "unit", "", "filter by unit")
	searchCmd.Flags().StringVar(&searchFlags.vendor, "vendor", "", "filter by vendor")
	searchCmd.Flags().IntVar(&searchFlags.quality, "quality", 0, "minimum quality score (1-10)")
	searchCmd.Flags().Float64Var(&searchFlags.minPrice, "min-price", 0, "minimum unit price")
	searchCmd.Flags().Float64Var(&searchFlags.maxPrice, "max-price", 0, "maximum unit price")
	searchCmd.Flags().IntVar(&searchFlags.limit, "limit", 0, "maximum results (default from config)")
	rootCmd.AddCommand(searchCmd)
}
