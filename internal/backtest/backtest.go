package backtest

import (
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	talib "github.com/markcheno/go-talib"

	"tickerlab/internal/metrics"
	"tickerlab/internal/series"
)

// ErrInvalidConfig reports a caller-contract violation in the backtest
// configuration. No computation is performed when it is returned.
var ErrInvalidConfig = errors.New("invalid backtest config")

// Config holds the parameters of a moving-average crossover backtest.
type Config struct {
	FastWindow     int
	SlowWindow     int
	RiskFreeRate   float64
	PeriodsPerYear float64
}

// Validate checks the window ordering and annualization constant. The fast
// window must be strictly shorter than the slow one.
func (c Config) Validate() error {
	if c.FastWindow < 1 || c.SlowWindow < 1 {
		return fmt.Errorf("%w: windows must be >= 1, got fast=%d slow=%d", ErrInvalidConfig, c.FastWindow, c.SlowWindow)
	}
	if c.FastWindow >= c.SlowWindow {
		return fmt.Errorf("%w: fast window (%d) must be shorter than slow window (%d)", ErrInvalidConfig, c.FastWindow, c.SlowWindow)
	}
	if c.PeriodsPerYear <= 0 {
		return fmt.Errorf("%w: periods per year must be positive, got %v", ErrInvalidConfig, c.PeriodsPerYear)
	}
	return nil
}

// Summary holds the scalar metrics derived from one equity curve. Any field
// may be the undefined sentinel (see metrics.IsUndefined).
type Summary struct {
	CAGR        float64
	MaxDrawdown float64
	Sharpe      float64
}

// CurveReport is one side of a backtest: per-period returns, the compounded
// equity curve and its summary metrics.
type CurveReport struct {
	Returns []float64
	Equity  []float64
	Summary Summary
}

// Result is the outcome of a single crossover backtest run. Signal holds the
// per-observation position (0 or 1), with the undefined sentinel where the
// slow window has not filled yet.
type Result struct {
	ID       uuid.UUID
	Symbol   string
	Config   Config
	Signal   []float64
	Strategy CurveReport
	BuyHold  CurveReport
}

// Run executes an SMA crossover backtest over the price series. The binary
// signal (fast SMA > slow SMA) is lagged by exactly one period before it
// gates that period's return, so today's position is decided on yesterday's
// close. Periods before the signal is defined hold a flat position.
// An empty series is not an error; all metrics come back undefined.
func Run(symbol string, prices series.PriceSeries, cfg Config) (Result, error) {
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}

	closes := prices.Prices()
	signal := crossoverSignal(closes, cfg.FastWindow, cfg.SlowWindow)

	rawReturns := prices.Returns()
	strategyReturns := make([]float64, len(rawReturns))
	for j := range rawReturns {
		// rawReturns[j] is realized at observation j+1; the position held
		// through it comes from the signal at observation j.
		if sig := signal[j]; !metrics.IsUndefined(sig) {
			strategyReturns[j] = sig * rawReturns[j]
		}
	}

	return Result{
		ID:       uuid.New(),
		Symbol:   symbol,
		Config:   cfg,
		Signal:   signal,
		Strategy: report(strategyReturns, cfg),
		BuyHold:  report(rawReturns, cfg),
	}, nil
}

func report(returns []float64, cfg Config) CurveReport {
	equity := series.EquityCurve(returns)
	return CurveReport{
		Returns: returns,
		Equity:  equity,
		Summary: Summary{
			CAGR:        metrics.CAGR(equity, cfg.PeriodsPerYear),
			MaxDrawdown: metrics.MaxDrawdown(equity),
			Sharpe:      metrics.Sharpe(returns, cfg.RiskFreeRate, cfg.PeriodsPerYear),
		},
	}
}

// crossoverSignal computes the binary fast>slow signal per observation,
// undefined until both trailing windows have filled.
func crossoverSignal(closes []float64, fastWindow, slowWindow int) []float64 {
	signal := make([]float64, len(closes))
	for i := range signal {
		signal[i] = metrics.Undefined()
	}
	if len(closes) < slowWindow {
		return signal
	}
	fast := talib.Sma(closes, fastWindow)
	slow := talib.Sma(closes, slowWindow)
	for i := slowWindow - 1; i < len(closes); i++ {
		if fast[i] > slow[i] {
			signal[i] = 1
		} else {
			signal[i] = 0
		}
	}
	return signal
}

// SMA exposes the trailing simple moving average used by the signal, with
// the undefined sentinel over the warm-up region. Used by chart callers.
func SMA(closes []float64, window int) []float64 {
	out := make([]float64, len(closes))
	for i := range out {
		out[i] = math.NaN()
	}
	if window < 1 || len(closes) < window {
		return out
	}
	sma := talib.Sma(closes, window)
	copy(out[window-1:], sma[window-1:])
	return out
}
