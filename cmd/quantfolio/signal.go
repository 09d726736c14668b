package main

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/quantfolio/quantfolio/internal/collector"
	"github.com/quantfolio/quantfolio/internal/core"
	"github.com/quantfolio/quantfolio/internal/strategy"
)

var (
	signalTickers  []string
	signalLookback int
	signalVerbose  bool
)

var signalCmd = &cobra.Command{
	Use:   "signal [strategy]",
	Short: "Generate trading signals for a set of tickers",
	Long: `Fetch recent daily prices for each ticker, run the strategy's
indicators over them and print the combined signal per ticker.`,
	Args: cobra.ExactArgs(1),
	RunE: runSignal,
}

func init() {
	signalCmd.Flags().StringSliceVar(&signalTickers, "tickers", nil, "tickers to analyze (required)")
	signalCmd.Flags().IntVar(&signalLookback, "lookback", 0, "days of history to fetch (default from config)")
	signalCmd.Flags().BoolVarP(&signalVerbose, "verbose", "v", false, "print the per-indicator vote breakdown")

	signalCmd.MarkFlagRequired("tickers")

	rootCmd.AddCommand(signalCmd)
}

func runSignal(cmd *cobra.Command, args []string) error {
	log := mustLogger()
	defer log.Sync()

	registry := strategy.NewRegistry()
	cfg, err := registry.Get(args[0])
	if err != nil {
		return err
	}

	appCfg, err := loadConfig(log)
	if err != nil {
		return err
	}
	provider, err := buildProvider(appCfg)
	if err != nil {
		return err
	}

	lookback := signalLookback
	if lookback <= 0 {
		lookback = appCfg.Backtest.LookbackDays
	}
	end := time.Now().UTC()
	start := end.AddDate(0, 0, -lookback)

	seriesByTicker := make(map[string]core.PriceSeries, len(signalTickers))
	for _, ticker := range signalTickers {
		if err := collector.ValidateTicker(ticker); err != nil {
			return err
		}
		series, err := provider.FetchDaily(cmd.Context(), ticker, start, end)
		if err != nil {
			return fmt.Errorf("fetching %s: %w", ticker, err)
		}
		seriesByTicker[ticker] = series
	}

	engine := strategy.NewEngine(log)
	signals, err := engine.GenerateSignals(cfg, seriesByTicker)
	if err != nil {
		return err
	}

	printSignals(cfg.Name, signals)
	return nil
}

func printSignals(strategyName string, signals map[string]core.Signal) {
	tickers := make([]string, 0, len(signals))
	for t := range signals {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)

	fmt.Printf("Strategy: %s\n\n", strategyName)
	for _, ticker := range tickers {
		sig := signals[ticker]
		fmt.Printf("%-8s %-5s confidence %.0f%%  @ %.2f\n",
			ticker, strings.ToUpper(string(sig.Action)), sig.Confidence*100, sig.Price)
		fmt.Printf("         %s\n", sig.Reason)
		if signalVerbose {
			for _, vote := range sig.Breakdown {
				fmt.Printf("         - %-10s %-5s value %.4f stability %.2f\n",
					vote.Indicator, vote.Action, vote.Value, vote.Stability)
			}
		}
	}
}
