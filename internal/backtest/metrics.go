package backtest

import (
	"math"

	"github.com/quantfolio/quantfolio/internal/mathkit"
)

// hoursPerYear uses a 365.25-day calendar year for CAGR.
const hoursPerYear = 365.25 * 24

// tradingDaysPerYear annualizes daily Sharpe ratios.
const tradingDaysPerYear = 252

// computeMetrics derives the end-of-run statistics from the daily value
// series and trade log. Called exactly once, after the last bar.
func (s *Simulator) computeMetrics() Metrics {
	finalValue := s.cfg.InitialCapital
	if len(s.daily) > 0 {
		finalValue = s.daily[len(s.daily)-1].PortfolioValue
	}

	var sells, wins int
	for _, t := range s.trades {
		if t.Type != TradeSell {
			continue
		}
		sells++
		if t.RealizedPnL != nil && *t.RealizedPnL > 0 {
			wins++
		}
	}

	var winRate, averageReturn float64
	if sells > 0 {
		winRate = float64(wins) / float64(sells)
		averageReturn = s.realizedPnL / float64(sells) / s.cfg.InitialCapital
	}

	return Metrics{
		TotalReturn:      (finalValue - s.cfg.InitialCapital) / s.cfg.InitialCapital,
		CAGR:             cagr(s.daily, s.cfg.InitialCapital, finalValue),
		SharpeRatio:      sharpeRatio(dailyReturns(s.daily)),
		MaxDrawdown:      maxDrawdown(s.daily),
		WinRate:          winRate,
		TotalTrades:      len(s.trades),
		ProfitableTrades: wins,
		AverageReturn:    averageReturn,
		FinalValue:       finalValue,
		InitialCapital:   s.cfg.InitialCapital,
	}
}

// cagr annualizes growth over the elapsed calendar time between the
// first and last simulated bars. Zero if no time elapsed.
func cagr(daily []DailyValue, initial, final float64) float64 {
	if len(daily) < 2 || initial <= 0 {
		return 0
	}
	elapsed := daily[len(daily)-1].Date.Sub(daily[0].Date)
	years := elapsed.Hours() / hoursPerYear
	if years <= 0 {
		return 0
	}
	return math.Pow(final/initial, 1/years) - 1
}

// dailyReturns converts the value series into bar-over-bar returns.
func dailyReturns(daily []DailyValue) []float64 {
	if len(daily) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(daily)-1)
	for i := 1; i < len(daily); i++ {
		prev := daily[i-1].PortfolioValue
		if prev == 0 {
			returns = append(returns, 0)
			continue
		}
		returns = append(returns, daily[i].PortfolioValue/prev-1)
	}
	return returns
}

// sharpeRatio computes mean/stddev of daily returns annualized by √252,
// with risk-free rate zero and population standard deviation. Zero when
// the deviation vanishes or fewer than two values exist.
func sharpeRatio(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	mean := mathkit.Mean(returns)
	sd := mathkit.StdDevAround(returns, mean)
	if sd == 0 {
		return 0
	}
	return mean / sd * math.Sqrt(tradingDaysPerYear)
}

// maxDrawdown returns the most negative peak-to-trough decline over the
// daily value series, 0 when the series never declines or is empty.
func maxDrawdown(daily []DailyValue) float64 {
	if len(daily) == 0 {
		return 0
	}
	peak := daily[0].PortfolioValue
	var maxDD float64
	for _, d := range daily {
		if d.PortfolioValue > peak {
			peak = d.PortfolioValue
		}
		if peak > 0 {
			dd := (d.PortfolioValue - peak) / peak
			if dd < maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}
