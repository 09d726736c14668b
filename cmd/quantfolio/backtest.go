package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/quantfolio/quantfolio/internal/backtest"
	"github.com/quantfolio/quantfolio/internal/collector/csvfile"
	"github.com/quantfolio/quantfolio/internal/core"
	"github.com/quantfolio/quantfolio/internal/strategy"
)

var (
	backtestTicker     string
	backtestCSV        string
	backtestFrom       string
	backtestTo         string
	backtestCapital    float64
	backtestPosition   float64
	backtestCommission float64
	backtestTrades     bool
)

var backtestCmd = &cobra.Command{
	Use:   "backtest [strategy]",
	Short: "Run a backtest and print its performance",
	Long: `Run a strategy against historical prices and print the trade log
and performance metrics. Prices come from a CSV file (--csv) or from the
configured provider.`,
	Args: cobra.ExactArgs(1),
	RunE: runBacktest,
}

func init() {
	backtestCmd.Flags().StringVar(&backtestTicker, "ticker", "", "ticker to backtest (required)")
	backtestCmd.Flags().StringVar(&backtestCSV, "csv", "", "CSV file with daily bars (overrides the configured provider)")
	backtestCmd.Flags().StringVar(&backtestFrom, "from", "", "start date YYYY-MM-DD")
	backtestCmd.Flags().StringVar(&backtestTo, "to", "", "end date YYYY-MM-DD")
	backtestCmd.Flags().Float64Var(&backtestCapital, "capital", 10000, "initial capital")
	backtestCmd.Flags().Float64Var(&backtestPosition, "position", 0.5, "fraction of cash per entry, (0,1]")
	backtestCmd.Flags().Float64Var(&backtestCommission, "commission", 0, "flat commission per trade")
	backtestCmd.Flags().BoolVar(&backtestTrades, "trades", false, "print every trade")

	backtestCmd.MarkFlagRequired("ticker")

	rootCmd.AddCommand(backtestCmd)
}

func runBacktest(cmd *cobra.Command, args []string) error {
	log := mustLogger()
	defer log.Sync()

	registry := strategy.NewRegistry()
	cfg, err := registry.Get(args[0])
	if err != nil {
		return err
	}

	series, err := loadBacktestSeries(cmd.Context(), log)
	if err != nil {
		return err
	}

	sim, err := backtest.New(backtest.RunConfig{
		Ticker:              backtestTicker,
		Bars:                series.Bars,
		Strategy:            cfg,
		InitialCapital:      backtestCapital,
		PositionSizePercent: backtestPosition,
		Commission:          backtestCommission,
	}, log)
	if err != nil {
		return err
	}

	result, err := sim.Run()
	if err != nil {
		return err
	}

	printResult(result)
	return nil
}

func loadBacktestSeries(ctx context.Context, log *zap.Logger) (core.PriceSeries, error) {
	if backtestCSV != "" {
		return csvfile.Load(backtestCSV, backtestTicker)
	}

	cfg, err := loadConfig(log)
	if err != nil {
		return core.PriceSeries{}, err
	}
	provider, err := buildProvider(cfg)
	if err != nil {
		return core.PriceSeries{}, err
	}

	end := time.Now().UTC()
	if backtestTo != "" {
		if end, err = time.Parse(time.DateOnly, backtestTo); err != nil {
			return core.PriceSeries{}, fmt.Errorf("invalid to date (expected YYYY-MM-DD): %w", err)
		}
	}
	start := end.AddDate(0, 0, -cfg.Backtest.LookbackDays)
	if backtestFrom != "" {
		if start, err = time.Parse(time.DateOnly, backtestFrom); err != nil {
			return core.PriceSeries{}, fmt.Errorf("invalid from date (expected YYYY-MM-DD): %w", err)
		}
	}

	return provider.FetchDaily(ctx, backtestTicker, start, end)
}

func printResult(result *backtest.Result) {
	m := result.Metrics

	fmt.Println("=== quantfolio backtest ===")
	fmt.Printf("Strategy: %s\n", result.StrategyName)
	fmt.Printf("Ticker:   %s\n", result.Ticker)
	fmt.Printf("Period:   %s to %s\n",
		result.StartDate.Format(time.DateOnly), result.EndDate.Format(time.DateOnly))
	fmt.Println()

	fmt.Printf("Initial capital:  %12.2f\n", m.InitialCapital)
	fmt.Printf("Final value:      %12.2f\n", m.FinalValue)
	fmt.Printf("Total return:     %11.2f%%\n", m.TotalReturn*100)
	fmt.Printf("CAGR:             %11.2f%%\n", m.CAGR*100)
	fmt.Printf("Sharpe ratio:     %12.2f\n", m.SharpeRatio)
	fmt.Printf("Max drawdown:     %11.2f%%\n", m.MaxDrawdown*100)
	fmt.Printf("Trades:           %6d (%d profitable, win rate %.0f%%)\n",
		m.TotalTrades, m.ProfitableTrades, m.WinRate*100)
	fmt.Printf("Average return:   %11.2f%%\n", m.AverageReturn*100)

	if backtestTrades && len(result.Trades) > 0 {
		fmt.Println()
		fmt.Println("Date        Side  Price      Qty        Value  Reason")
		for _, tr := range result.Trades {
			fmt.Printf("%s  %-4s  %8.2f  %5d  %10.2f  %s\n",
				tr.Date.Format(time.DateOnly), tr.Type, tr.Price, tr.Quantity, tr.Value, tr.Reason)
		}
	}
}
