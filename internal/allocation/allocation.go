package allocation

import (
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// weightTolerance is the absolute tolerance on the target-weight sum.
const weightTolerance = 1e-6

// ErrInvalidRequest reports a malformed allocation request. No partial plan
// is produced when it is returned.
var ErrInvalidRequest = errors.New("invalid allocation request")

// Line is one (ticker, target weight) row of an allocation request.
// Duplicate tickers are allowed and allocated independently per row.
type Line struct {
	Ticker       string
	TargetWeight float64
}

// Request is an ordered set of target weights expected to sum to 1.0.
type Request struct {
	Lines []Line
}

// Validate checks that every weight is in [0,1] and the sum is 1.0 within
// the tolerance.
func (r Request) Validate() error {
	if len(r.Lines) == 0 {
		return fmt.Errorf("%w: no lines", ErrInvalidRequest)
	}
	sum := 0.0
	for _, l := range r.Lines {
		if l.Ticker == "" {
			return fmt.Errorf("%w: empty ticker", ErrInvalidRequest)
		}
		if l.TargetWeight < 0 || l.TargetWeight > 1 {
			return fmt.Errorf("%w: weight %v for %s outside [0,1]", ErrInvalidRequest, l.TargetWeight, l.Ticker)
		}
		sum += l.TargetWeight
	}
	if math.Abs(sum-1.0) > weightTolerance {
		return fmt.Errorf("%w: target weights sum to %v, want 1.0", ErrInvalidRequest, sum)
	}
	return nil
}

// Row is one planned position. MissingPrice marks tickers whose price lookup
// failed; such rows carry the target amount but no shares, distinguishable
// from a zero-weight ticker.
type Row struct {
	Ticker         string          `csv:"ticker"`
	TargetWeight   float64         `csv:"target_weight"`
	Price          decimal.Decimal `csv:"price"`
	TargetAmount   decimal.Decimal `csv:"target_amount"`
	Shares         int64           `csv:"shares"`
	InvestedAmount decimal.Decimal `csv:"invested_amount"`
	MissingPrice   bool            `csv:"missing_price"`
}

// Plan is a whole-share allocation of a budget across the requested tickers,
// in request order.
type Plan struct {
	ID            uuid.UUID
	Budget        decimal.Decimal
	Rows          []Row
	CashRemaining decimal.Decimal
}

// PlanAllocation allocates the budget per the request's target weights using
// whole shares only. Shares are floored, never rounded up, so the plan can
// never over-invest: CashRemaining is always in [0, budget] given valid
// prices. Tickers absent from prices (or with a non-positive price) are
// flagged MissingPrice while the remaining rows complete normally.
func PlanAllocation(req Request, budget decimal.Decimal, prices map[string]decimal.Decimal) (Plan, error) {
	if err := req.Validate(); err != nil {
		return Plan{}, err
	}
	if budget.IsNegative() {
		return Plan{}, fmt.Errorf("%w: budget %s is negative", ErrInvalidRequest, budget)
	}

	rows := make([]Row, 0, len(req.Lines))
	invested := decimal.Zero
	for _, l := range req.Lines {
		weight := decimal.NewFromFloat(l.TargetWeight)
		target := budget.Mul(weight)
		row := Row{
			Ticker:       l.Ticker,
			TargetWeight: l.TargetWeight,
			TargetAmount: target,
		}

		price, ok := prices[l.Ticker]
		if !ok || !price.IsPositive() {
			row.MissingPrice = true
			rows = append(rows, row)
			continue
		}

		shares := target.Div(price).Floor().IntPart()
		row.Price = price
		row.Shares = shares
		row.InvestedAmount = price.Mul(decimal.NewFromInt(shares))
		invested = invested.Add(row.InvestedAmount)
		rows = append(rows, row)
	}

	return Plan{
		ID:            uuid.New(),
		Budget:        budget,
		Rows:          rows,
		CashRemaining: budget.Sub(invested),
	}, nil
}
