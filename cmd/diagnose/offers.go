package main

import (
	"github.com/spf13/cobra"

	"github.com/mdrashedmamun/smb-coaching-ai/internal/offers"
)

type offersInput struct {
	Offers  []offers.Offer        `json:"offers" validate:"required,min=1,dive"`
	Context offers.ScoringContext `json:"context"`
	Survey  *offers.Survey        `json:"survey,omitempty"`
}

type offersOutput struct {
	Constraint offers.ConstraintType `json:"constraint"`
	Offers     []offers.ScoredOffer  `json:"offers"`
}

var offersCmd = &cobra.Command{
	Use:   "offers",
	Short: "Score an offer portfolio against the revenue gap and constraint",
	Long:  "Scores every offer and ranks the portfolio. When context.constraint is empty and a survey is given, the constraint is inferred from the survey answers.",
	RunE:  runOffers,
}

var offersInputPath string

func init() {
	addInputFlag(offersCmd, &offersInputPath)
	rootCmd.AddCommand(offersCmd)
}

func runOffers(cmd *cobra.Command, _ []string) error {
	var in offersInput
	if err := readInput(cmd, offersInputPath, &in); err != nil {
		return err
	}
	ctx := in.Context
	if ctx.Constraint == "" && in.Survey != nil {
		ctx.Constraint = offers.InferConstraint(*in.Survey)
	}
	if ctx.Constraint == "" {
		ctx.Constraint = offers.ConstraintLeadFlow
	}
	return printJSON(cmd, offersOutput{Constraint: ctx.Constraint, Offers: offers.ScoreOffers(in.Offers, ctx)})
}
