package analytics

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/NgigiN/smswallet/internal/storage"
	"github.com/shopspring/decimal"
)

type TrendPeriod string

const (
	Last7Days  TrendPeriod = "7d"
	Last30Days TrendPeriod = "30d"
	Last90Days TrendPeriod = "90d"
	ThisMonth  TrendPeriod = "month"
	LastMonth  TrendPeriod = "lastmonth"
)

const (
	MaxDailyPoints = 30
	TopMerchants   = 10
)

// ParseTrendPeriod accepts the short names used on the command line and in chat.
func ParseTrendPeriod(s string) (TrendPeriod, error) {
	switch p := TrendPeriod(strings.ToLower(strings.TrimSpace(s))); p {
	case Last7Days, Last30Days, Last90Days, ThisMonth, LastMonth:
		return p, nil
	case "":
		return Last30Days, nil
	default:
		return "", fmt.Errorf("unknown trend period %q (use 7d, 30d, 90d, month or lastmonth)", s)
	}
}

type DailyPoint struct {
	Day    time.Time
	Label  string // "Jan 2"
	Amount decimal.Decimal
}

// Breakdown is an amount grouped under one name, a category or a merchant.
type Breakdown struct {
	Name   string
	Amount decimal.Decimal
	Count  int
}

type Trends struct {
	Period                TrendPeriod
	From, To              time.Time
	TotalSpent            decimal.Decimal
	TotalReceived         decimal.Decimal
	Daily                 []DailyPoint
	Categories            []Breakdown
	TopMerchants          []Breakdown
	SpendingChangePercent float64
}

// Window returns the inclusive bounds of p as of the engine clock.
func (e *Engine) Window(p TrendPeriod) (from, to time.Time) {
	n := e.now()
	today := n.BeginningOfDay()
	switch p {
	case Last7Days:
		return today.AddDate(0, 0, -6), n.Time
	case Last90Days:
		return today.AddDate(0, 0, -89), n.Time
	case ThisMonth:
		return n.BeginningOfMonth(), n.Time
	case LastMonth:
		last := e.calendar.With(n.BeginningOfMonth().AddDate(0, 0, -1))
		return last.BeginningOfMonth(), last.EndOfMonth()
	default:
		return today.AddDate(0, 0, -29), n.Time
	}
}

// Trends compares the window of p with the window of equal length right before it.
func (e *Engine) Trends(ctx context.Context, p TrendPeriod) (Trends, error) {
	from, to := e.Window(p)
	prevFrom, prevTo := from.Add(-to.Sub(from)), from.Add(-time.Millisecond)

	current, err := e.store.GetTransactionsBetween(ctx, from, to)
	if err != nil {
		return Trends{}, fmt.Errorf("load %s transactions: %w", p, err)
	}
	previous, err := e.store.GetTransactionsBetween(ctx, prevFrom, prevTo)
	if err != nil {
		return Trends{}, fmt.Errorf("load previous %s transactions: %w", p, err)
	}

	t := ComputeTrends(current, from, to, e.calendar.TimeLocation)
	t.Period = p
	t.SpendingChangePercent = ChangePercent(t.TotalSpent, spent(previous))
	return t, nil
}

// ComputeTrends aggregates txs over [from, to]. Days are bucketed in loc.
func ComputeTrends(txs []storage.Transaction, from, to time.Time, loc *time.Location) Trends {
	if loc == nil {
		loc = time.Local
	}
	t := Trends{From: from, To: to}

	daily := make(map[string]decimal.Decimal)
	categories := make(map[string]*Breakdown)
	merchants := make(map[string]*Breakdown)

	for _, tx := range txs {
		if tx.Direction == storage.DirectionReceived {
			t.TotalReceived = t.TotalReceived.Add(tx.Amount)
			continue
		}
		if tx.Direction != storage.DirectionSent {
			continue
		}
		t.TotalSpent = t.TotalSpent.Add(tx.Amount)

		day := tx.Time(loc).Format(time.DateOnly)
		daily[day] = daily[day].Add(tx.Amount)
		accumulate(categories, tx.Category, tx.Amount)
		accumulate(merchants, tx.RecipientName, tx.Amount)
	}

	t.Daily = dailySeries(daily, from.In(loc), to.In(loc))
	t.Categories = sorted(categories)
	t.TopMerchants = sorted(merchants)
	if len(t.TopMerchants) > TopMerchants {
		t.TopMerchants = t.TopMerchants[:TopMerchants]
	}
	return t
}

// ChangePercent is (current-previous)/previous*100, or 0 when previous is zero.
func ChangePercent(current, previous decimal.Decimal) float64 {
	if previous.IsZero() {
		return 0
	}
	return current.Sub(previous).Div(previous).Mul(decimal.NewFromInt(100)).Round(2).InexactFloat64()
}

func spent(txs []storage.Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range txs {
		if tx.Direction == storage.DirectionSent {
			total = total.Add(tx.Amount)
		}
	}
	return total
}

func accumulate(m map[string]*Breakdown, name string, amount decimal.Decimal) {
	b, ok := m[name]
	if !ok {
		b = &Breakdown{Name: name}
		m[name] = b
	}
	b.Amount = b.Amount.Add(amount)
	b.Count++
}

func sorted(m map[string]*Breakdown) []Breakdown {
	out := make([]Breakdown, 0, len(m))
	for _, b := range m {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Amount.Equal(out[j].Amount) {
			return out[i].Amount.GreaterThan(out[j].Amount)
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// dailySeries emits one point per calendar day in [from, to], keeping the most recent
// MaxDailyPoints.
func dailySeries(amounts map[string]decimal.Decimal, from, to time.Time) []DailyPoint {
	start := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, from.Location())
	var points []DailyPoint
	for d := start; !d.After(to); d = d.AddDate(0, 0, 1) {
		points = append(points, DailyPoint{
			Day:    d,
			Label:  d.Format("Jan 2"),
			Amount: amounts[d.Format(time.DateOnly)],
		})
	}
	if len(points) > MaxDailyPoints {
		points = points[len(points)-MaxDailyPoints:]
	}
	return points
}
