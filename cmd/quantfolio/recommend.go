package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quantfolio/quantfolio/internal/strategy"
)

var (
	recommendHorizon int
	recommendRisk    string
	recommendSize    float64
)

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Recommend a strategy for an investment profile",
	Long: `Map an investment horizon, risk tolerance and portfolio size to one
of the built-in strategies and print the recommendation.`,
	RunE: runRecommend,
}

func init() {
	recommendCmd.Flags().IntVar(&recommendHorizon, "horizon", 2, "investment horizon in years (1, 2 or 5)")
	recommendCmd.Flags().StringVar(&recommendRisk, "risk", "medium", "risk tolerance (low, medium or high)")
	recommendCmd.Flags().Float64Var(&recommendSize, "size", 0, "portfolio size in account currency")

	rootCmd.AddCommand(recommendCmd)
}

func runRecommend(cmd *cobra.Command, args []string) error {
	rec, err := strategy.Select(recommendHorizon, strategy.RiskTolerance(recommendRisk), recommendSize)
	if err != nil {
		return err
	}

	fmt.Printf("Recommended strategy: %s\n", rec.StrategyName)
	fmt.Printf("  Rebalance:  %s\n", rec.RebalanceFrequency)
	fmt.Printf("  Confidence: %.0f%%\n", rec.Confidence*100)
	fmt.Printf("  Reasoning:  %s\n", rec.Reasoning)
	return nil
}
