package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/NgigiN/smswallet/internal/storage"
	"github.com/jinzhu/now"
	"github.com/shopspring/decimal"
)

// Store is the read side the engine aggregates over.
type Store interface {
	GetAllTransactions(ctx context.Context) ([]storage.Transaction, error)
	GetTransactionsBetween(ctx context.Context, from, to time.Time) ([]storage.Transaction, error)
	GetActiveBudgets(ctx context.Context) ([]storage.Budget, error)
	SpendByCategory(ctx context.Context, from, to time.Time, categories []string) (map[string]decimal.Decimal, error)
}

// Engine computes statistics, budget utilization and trends from the store on demand.
// It holds no state of its own beyond the calendar settings.
type Engine struct {
	store    Store
	calendar *now.Config
	clock    func() time.Time
}

func NewEngine(store Store, loc *time.Location, weekStart time.Weekday) *Engine {
	if loc == nil {
		loc = time.Local
	}
	return &Engine{
		store: store,
		calendar: &now.Config{
			WeekStartDay: weekStart,
			TimeLocation: loc,
		},
		clock: time.Now,
	}
}

func (e *Engine) now() *now.Now {
	return e.calendar.With(e.clock().In(e.calendar.TimeLocation))
}

// Statistics summarises every stored transaction.
func (e *Engine) Statistics(ctx context.Context) (Statistics, error) {
	txs, err := e.store.GetAllTransactions(ctx)
	if err != nil {
		return Statistics{}, fmt.Errorf("compute statistics: %w", err)
	}
	return ComputeStatistics(txs, e.calendar.TimeLocation), nil
}
