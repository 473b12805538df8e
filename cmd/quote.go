package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/renoworks/pricing-engine/internal/model"
)

var quoteCmd = &cobra.Command{
	Use:   "quote",
	Short: "Generate and inspect priced proposals",
}

var quoteGenerateFlags struct {
	transcript  string
	file        string
	region      string
	projectType string
	userType    string
}

var quoteGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a priced proposal from a job transcript",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		transcript := quoteGenerateFlags.transcript
		if quoteGenerateFlags.file != "" {
			data, err := os.ReadFile(quoteGenerateFlags.file)
			if err != nil {
				return eris.Wrap(err, "read transcript file")
			}
			transcript = string(data)
		}
		if transcript == "" {
			return eris.New("either --transcript or --file is required")
		}

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		quote, err := env.Proposals.GenerateProposal(ctx, transcript,
			quoteGenerateFlags.region, quoteGenerateFlags.projectType,
			model.UserType(quoteGenerateFlags.userType))
		if err != nil {
			return err
		}

		return printJSON(quote)
	},
}

var quoteGetCmd = &cobra.Command{
	Use:   "get <quote-id>",
	Short: "Show a stored proposal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		quote, err := env.Proposals.GetQuote(ctx, args[0])
		if err != nil {
			return err
		}
		if quote == nil {
			return eris.Errorf("quote %s not found", args[0])
		}

		return printJSON(quote)
	},
}

var quoteListFlags struct {
	userType string
	region   string
	limit    int
}

var quoteListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored proposals, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		quotes, err := env.Proposals.ListQuotes(ctx, model.QuoteFilter{
			UserType: model.UserType(quoteListFlags.userType),
			Region:   quoteListFlags.region,
			Limit:    quoteListFlags.limit,
		})
		if err != nil {
			return err
		}

		return printJSON(quotes)
	},
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func init() {
	quoteGenerateCmd.Flags().StringVar(&quoteGenerateFlags.transcript, "transcript", "", "job transcript text")
	quoteGenerateCmd.Flags().StringVar(&quoteGenerateFlags.file, "file", "", "read transcript from file")
	quoteGenerateCmd.Flags().StringVar(&quoteGenerateFlags.region, "region", "", "project region")
	quoteGenerateCmd.Flags().StringVar(&quoteGenerateFlags.projectType, "project-type", "renovation", "project type (renovation or new build)")
	quoteGenerateCmd.Flags().StringVar(&quoteGenerateFlags.userType, "user-type", "client", "requesting user type (contractor, architect, client)")

	quoteListCmd.Flags().StringVar(&quoteListFlags.userType, "user-type", "", "filter by user type")
	quoteListCmd.Flags().StringVar(&quoteListFlags.region, "region", "", "filter by region")
	quoteListCmd.Flags().IntVar(&quoteListFlags.limit, "limit", 20, "maximum quotes")

	quoteCmd.AddCommand(quoteGenerateCmd, quoteGetCmd, quoteListCmd)
	rootCmd.AddCommand(quoteCmd)
}
