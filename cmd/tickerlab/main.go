package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"tickerlab/internal/allocation"
	"tickerlab/internal/backtest"
	"tickerlab/internal/chart"
	"tickerlab/internal/config"
	"tickerlab/internal/logging"
	"tickerlab/internal/marketdata"
	"tickerlab/internal/metrics"
	"tickerlab/internal/portfolio"
	"tickerlab/internal/series"
)

const usage = `usage: tickerlab [-config FILE] COMMAND [args]

commands:
  fetch SYMBOL      fetch price history and print a summary
  backtest SYMBOL   run the SMA crossover backtest
  allocate          plan a whole-share allocation of the configured budget
  var SYMBOL        compute historical Value-at-Risk
  portfolio         value the configured weighted portfolio
`

type app struct {
	cfg     config.Config
	log     zerolog.Logger
	history marketdata.HistoryProvider
	prices  marketdata.LastPriceProvider
}

func main() {
	cfgPath := flag.String("config", "", "path to YAML config (defaults apply when empty)")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	log := logging.Init("tickerlab")

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	client := &http.Client{Timeout: cfg.HTTPTimeoutDuration()}
	yahoo := marketdata.NewYahooProvider(client)
	spark := marketdata.NewSparkProvider(client)
	static := marketdata.NewStaticProvider()
	chain := marketdata.NewChain(log, yahoo, spark, static)

	a := &app{
		cfg:     cfg,
		log:     log,
		history: marketdata.NewCache(chain, cfg.CacheTTLDuration()),
		prices:  marketdata.NewPriceChain(log, yahoo, static),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	cmd, args := flag.Arg(0), flag.Args()[1:]
	switch cmd {
	case "fetch":
		err = a.runFetch(ctx, args)
	case "backtest":
		err = a.runBacktest(ctx, args)
	case "allocate":
		err = a.runAllocate(ctx, args)
	case "var":
		err = a.runVaR(ctx, args)
	case "portfolio":
		err = a.runPortfolio(ctx, args)
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatal().Err(err).Str("command", cmd).Msg("command failed")
	}
}

func (a *app) fetchHistory(ctx context.Context, symbol string) (marketdata.HistoryResult, error) {
	return a.history.History(ctx, marketdata.HistoryRequest{
		Symbol:   strings.ToUpper(symbol),
		Range:    a.cfg.Range,
		Interval: a.cfg.Interval,
	})
}

func (a *app) runFetch(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("fetch", flag.ExitOnError)
	chartOut := fs.String("chart", "", "write a price chart PNG to this path")
	fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("fetch: exactly one SYMBOL expected")
	}
	symbol := strings.ToUpper(fs.Arg(0))

	res, err := a.fetchHistory(ctx, symbol)
	if err != nil {
		return err
	}
	points := res.Series.Points()
	first, last := points[0], points[len(points)-1]
	change := last.Price/first.Price - 1

	fmt.Printf("%s: %d bars from %s (source: %s)\n", symbol, res.Series.Len(), a.cfg.Range, res.Source)
	fmt.Printf("  first %10.2f  (%s)\n", first.Price, time.Unix(first.Timestamp, 0).UTC().Format("2006-01-02"))
	fmt.Printf("  last  %10.2f  (%s)\n", last.Price, time.Unix(last.Timestamp, 0).UTC().Format("2006-01-02"))
	fmt.Printf("  change %+8.2f%%\n", change*100)

	if *chartOut != "" {
		closes := res.Series.Prices()
		img, err := chart.PriceWithSMA(symbol, res.Series.Timestamps(), closes,
			backtest.SMA(closes, a.cfg.Backtest.FastWindow),
			backtest.SMA(closes, a.cfg.Backtest.SlowWindow))
		if err != nil {
			return err
		}
		if err := os.WriteFile(*chartOut, img, 0o644); err != nil {
			return err
		}
		a.log.Info().Str("path", *chartOut).Msg("wrote price chart")
	}
	return nil
}

// equityRow is one line of the exported backtest balance history.
type equityRow struct {
	Timestamp int64   `csv:"timestamp"`
	Strategy  float64 `csv:"strategy"`
	BuyHold   float64 `csv:"buy_hold"`
}

func (a *app) runBacktest(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("backtest", flag.ExitOnError)
	chartOut := fs.String("chart", "", "write an equity chart PNG to this path")
	csvOut := fs.String("csv", "", "write the balance history CSV to this path")
	fast := fs.Int("fast", 0, "fast SMA window (overrides config)")
	slow := fs.Int("slow", 0, "slow SMA window (overrides config)")
	fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("backtest: exactly one SYMBOL expected")
	}
	symbol := strings.ToUpper(fs.Arg(0))

	cfg := backtest.Config{
		FastWindow:     a.cfg.Backtest.FastWindow,
		SlowWindow:     a.cfg.Backtest.SlowWindow,
		RiskFreeRate:   a.cfg.RiskFreeRate,
		PeriodsPerYear: a.cfg.PeriodsPerYear,
	}
	if *fast > 0 {
		cfg.FastWindow = *fast
	}
	if *slow > 0 {
		cfg.SlowWindow = *slow
	}

	res, err := a.fetchHistory(ctx, symbol)
	if err != nil {
		return err
	}
	result, err := backtest.Run(symbol, res.Series, cfg)
	if err != nil {
		return err
	}

	fmt.Printf("%s SMA(%d/%d) over %d bars (source: %s, run %s)\n",
		symbol, cfg.FastWindow, cfg.SlowWindow, res.Series.Len(), res.Source, result.ID)
	printSummary("strategy", result.Strategy.Summary)
	printSummary("buy&hold", result.BuyHold.Summary)

	ts := res.Series.Timestamps()
	if *chartOut != "" {
		img, err := chart.EquityCurves(symbol, ts, result.Strategy.Equity, result.BuyHold.Equity)
		if err != nil {
			return err
		}
		if err := os.WriteFile(*chartOut, img, 0o644); err != nil {
			return err
		}
		a.log.Info().Str("path", *chartOut).Msg("wrote equity chart")
	}
	if *csvOut != "" {
		rows := make([]equityRow, len(ts))
		for i := range ts {
			rows[i] = equityRow{Timestamp: ts[i], Strategy: result.Strategy.Equity[i], BuyHold: result.BuyHold.Equity[i]}
		}
		if err := writeCSV(*csvOut, &rows); err != nil {
			return err
		}
		a.log.Info().Str("path", *csvOut).Msg("wrote balance history")
	}
	return nil
}

func (a *app) runAllocate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("allocate", flag.ExitOnError)
	csvOut := fs.String("csv", "", "write the allocation plan CSV to this path")
	budgetFlag := fs.Float64("budget", 0, "budget (overrides config)")
	fs.Parse(args)

	req := allocation.Request{}
	symbols := make([]string, 0, len(a.cfg.Allocation))
	for _, l := range a.cfg.Allocation {
		ticker := strings.ToUpper(l.Ticker)
		req.Lines = append(req.Lines, allocation.Line{Ticker: ticker, TargetWeight: l.Weight})
		symbols = append(symbols, ticker)
	}
	if err := req.Validate(); err != nil {
		return err
	}

	budget := decimal.NewFromFloat(a.cfg.Budget)
	if *budgetFlag > 0 {
		budget = decimal.NewFromFloat(*budgetFlag)
	}

	quotes, err := a.prices.LastPrices(ctx, symbols)
	if err != nil {
		return err
	}
	prices := make(map[string]decimal.Decimal, len(quotes))
	for sym, q := range quotes {
		prices[sym] = q.Price
		if q.Source == marketdata.SourceStatic {
			a.log.Warn().Str("symbol", sym).Msg("no market source available, using a synthetic sample price")
		}
	}

	plan, err := allocation.PlanAllocation(req, budget, prices)
	if err != nil {
		return err
	}

	fmt.Printf("allocation plan %s (budget %s)\n", plan.ID, plan.Budget.StringFixed(2))
	fmt.Printf("%-8s %10s %8s %8s %12s  %s\n", "ticker", "price", "weight", "shares", "invested", "source")
	for _, row := range plan.Rows {
		if row.MissingPrice {
			fmt.Printf("%-8s %10s %8.2f %8s %12s\n", row.Ticker, "n/a", row.TargetWeight, "-", "missing price")
			continue
		}
		fmt.Printf("%-8s %10s %8.2f %8d %12s  %s\n",
			row.Ticker, row.Price.StringFixed(2), row.TargetWeight, row.Shares, row.InvestedAmount.StringFixed(2),
			quotes[row.Ticker].Source)
	}
	fmt.Printf("unallocated cash: %s\n", plan.CashRemaining.StringFixed(2))

	if *csvOut != "" {
		rows := plan.Rows
		if err := writeCSV(*csvOut, &rows); err != nil {
			return err
		}
		a.log.Info().Str("path", *csvOut).Msg("wrote allocation plan")
	}
	return nil
}

func (a *app) runVaR(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("var", flag.ExitOnError)
	confidence := fs.Float64("confidence", 0, "confidence level (overrides config)")
	fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("var: exactly one SYMBOL expected")
	}
	symbol := strings.ToUpper(fs.Arg(0))

	level := a.cfg.VaRConfidence
	if *confidence > 0 {
		level = *confidence
	}

	res, err := a.fetchHistory(ctx, symbol)
	if err != nil {
		return err
	}
	v := metrics.HistoricalVaR(res.Series.Returns(), level)
	fmt.Printf("%s historical VaR at %.0f%% confidence: %s (negative = loss; source: %s)\n",
		symbol, level*100, fmtMetric(v), res.Source)
	return nil
}

func (a *app) runPortfolio(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("portfolio", flag.ExitOnError)
	fs.Parse(args)

	holdings := make([]portfolio.Holding, 0, len(a.cfg.Allocation))
	for _, l := range a.cfg.Allocation {
		holdings = append(holdings, portfolio.Holding{Symbol: strings.ToUpper(l.Ticker), Weight: l.Weight})
	}

	histories := make([]series.PriceSeries, 0, len(holdings))
	for _, h := range holdings {
		res, err := a.fetchHistory(ctx, h.Symbol)
		if err != nil {
			return err
		}
		histories = append(histories, res.Series)
	}

	// Join the histories on a shared timeline so assets with different
	// trading calendars are valued on the same dates.
	timestamps, assetPrices, err := portfolio.Align(histories)
	if err != nil {
		return err
	}
	if len(timestamps) < 2 {
		return fmt.Errorf("not enough overlapping history for portfolio valuation")
	}

	ps, err := portfolio.Weighted(timestamps, assetPrices, holdings, 100)
	if err != nil {
		return err
	}
	stats := portfolio.Stats(ps, a.cfg.PeriodsPerYear)

	fmt.Printf("weighted portfolio over %d bars\n", stats.Periods)
	fmt.Printf("  total return %s\n", fmtPct(stats.TotalReturn))
	fmt.Printf("  CAGR         %s\n", fmtPct(stats.CAGR))
	fmt.Printf("  volatility   %s\n", fmtPct(stats.Volatility))
	fmt.Printf("  sharpe       %s\n", fmtMetric(stats.Sharpe))
	fmt.Printf("  max drawdown %s\n", fmtPct(stats.MaxDrawdown))
	return nil
}

func printSummary(name string, s backtest.Summary) {
	fmt.Printf("  %-8s CAGR %s  max drawdown %s  sharpe %s\n",
		name, fmtPct(s.CAGR), fmtPct(s.MaxDrawdown), fmtMetric(s.Sharpe))
}

// fmtMetric formats a metric, rendering the undefined sentinel as "n/a" so
// it never breaks downstream formatting.
func fmtMetric(v float64) string {
	if metrics.IsUndefined(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.4f", v)
}

func fmtPct(v float64) string {
	if metrics.IsUndefined(v) {
		return "n/a"
	}
	return fmt.Sprintf("%+.2f%%", v*100)
}

func writeCSV(path string, rows any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return gocsv.MarshalFile(rows, f)
}
