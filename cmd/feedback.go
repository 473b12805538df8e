package main

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/renoworks/pricing-engine/internal/model"
)

var feedbackCmd = &cobra.Command{
	Use:   "feedback",
	Short: "Submit and inspect quote feedback",
}

var feedbackSubmitFlags struct {
	quoteID  string
	userType string
	verdict  string
	comment  string
	material []string
	pricing  []string
}

var feedbackSubmitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit a verdict on a stored quote",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if feedbackSubmitFlags.quoteID == "" {
			return eris.New("--quote is required")
		}

		materialNotes, err := parseNotes(feedbackSubmitFlags.material)
		if err != nil {
			return eris.Wrap(err, "parse --material")
		}
		pricingNotes, err := parseNotes(feedbackSubmitFlags.pricing)
		if err != nil {
			return eris.Wrap(err, "parse --pricing")
		}

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		result, err := env.Learner.Submit(ctx, &model.Feedback{
			QuoteID:          feedbackSubmitFlags.quoteID,
			UserType:         model.UserType(feedbackSubmitFlags.userType),
			Verdict:          model.Verdict(feedbackSubmitFlags.verdict),
			Comment:          feedbackSubmitFlags.comment,
			MaterialFeedback: materialNotes,
			PricingFeedback:  pricingNotes,
		})
		if err != nil {
			return err
		}

		return printJSON(result)
	},
}

var feedbackListCmd = &cobra.Command{
	Use:   "list <quote-id>",
	Short: "List feedback for a quote",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		listed, err := env.Learner.List(ctx, args[0])
		if err != nil {
			return err
		}

		return printJSON(listed)
	},
}

var feedbackAnalyticsCmd = &cobra.Command{
	Use:   "analytics",
	Short: "Show aggregate feedback statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		analytics, err := env.Learner.Analytics(ctx)
		if err != nil {
			return err
		}

		return printJSON(analytics)
	},
}

// parseNotes turns repeated "key=note" flags into a map.
func parseNotes(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	notes := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, note, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, eris.Errorf("expected key=note, got %q", pair)
		}
		notes[key] = note
	}
	return notes, nil
}

func init() {
	feedbackSubmitCmd.Flags().StringVar(&feedbackSubmitFlags.quoteID, "quote", "", "quote ID the feedback refers to")
	feedbackSubmitCmd.Flags().StringVar(&feedbackSubmitFlags.userType, "user-type", "client", "submitting user type")
	feedbackSubmitCmd.Flags().StringVar(&feedbackSubmitFlags.verdict, "verdict", "", "verdict (accepted, rejected, overpriced, underpriced, modified)")
	feedbackSubmitCmd.Flags().StringVar(&feedbackSubmitFlags.comment, "comment", "", "free-text comment")
	feedbackSubmitCmd.Flags().StringArrayVar(&feedbackSubmitFlags.material, "material", nil, "material note as name=note, repeatable")
	feedbackSubmitCmd.Flags().StringArrayVar(&feedbackSubmitFlags.pricing, "pricing", nil, "pricing note as aspect=note, repeatable")

	feedbackCmd.AddCommand(feedbackSubmitCmd, feedbackListCmd, feedbackAnalyticsCmd)
	rootCmd.AddCommand(feedbackCmd)
}
