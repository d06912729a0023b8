package analytics

import (
	"sort"
	"time"

	"github.com/NgigiN/smswallet/internal/storage"
	"github.com/shopspring/decimal"
)

// MaxMonthlySummaries is how many recent months Statistics keeps.
const MaxMonthlySummaries = 6

type CategorySummary struct {
	Category       string
	TotalAmount    decimal.Decimal
	SentAmount     decimal.Decimal
	ReceivedAmount decimal.Decimal
	Count          int
}

type MonthlySummary struct {
	Label          string // "Jan 2025"
	Year           int
	Month          time.Month
	SentAmount     decimal.Decimal
	ReceivedAmount decimal.Decimal
	Count          int
}

type Statistics struct {
	TotalSent         decimal.Decimal
	TotalReceived     decimal.Decimal
	NetBalance        decimal.Decimal
	TransactionCount  int
	CategorySummaries []CategorySummary
	MonthlySummaries  []MonthlySummary
}

// ComputeStatistics summarises txs. Months are bucketed in loc.
func ComputeStatistics(txs []storage.Transaction, loc *time.Location) Statistics {
	if loc == nil {
		loc = time.Local
	}

	stats := Statistics{TransactionCount: len(txs)}
	categories := make(map[string]*CategorySummary)
	months := make(map[[2]int]*MonthlySummary)

	for _, tx := range txs {
		cat, ok := categories[tx.Category]
		if !ok {
			cat = &CategorySummary{Category: tx.Category}
			categories[tx.Category] = cat
		}
		t := tx.Time(loc)
		key := [2]int{t.Year(), int(t.Month())}
		month, ok := months[key]
		if !ok {
			month = &MonthlySummary{
				Label: t.Format("Jan 2006"),
				Year:  t.Year(),
				Month: t.Month(),
			}
			months[key] = month
		}

		cat.TotalAmount = cat.TotalAmount.Add(tx.Amount)
		cat.Count++
		month.Count++

		switch tx.Direction {
		case storage.DirectionSent:
			stats.TotalSent = stats.TotalSent.Add(tx.Amount)
			cat.SentAmount = cat.SentAmount.Add(tx.Amount)
			month.SentAmount = month.SentAmount.Add(tx.Amount)
		case storage.DirectionReceived:
			stats.TotalReceived = stats.TotalReceived.Add(tx.Amount)
			cat.ReceivedAmount = cat.ReceivedAmount.Add(tx.Amount)
			month.ReceivedAmount = month.ReceivedAmount.Add(tx.Amount)
		}
	}
	stats.NetBalance = stats.TotalReceived.Sub(stats.TotalSent)

	stats.CategorySummaries = make([]CategorySummary, 0, len(categories))
	for _, c := range categories {
		stats.CategorySummaries = append(stats.CategorySummaries, *c)
	}
	sort.Slice(stats.CategorySummaries, func(i, j int) bool {
		a, b := stats.CategorySummaries[i], stats.CategorySummaries[j]
		if !a.TotalAmount.Equal(b.TotalAmount) {
			return a.TotalAmount.GreaterThan(b.TotalAmount)
		}
		return a.Category < b.Category
	})

	monthly := make([]MonthlySummary, 0, len(months))
	for _, m := range months {
		monthly = append(monthly, *m)
	}
	sort.Slice(monthly, func(i, j int) bool {
		if monthly[i].Year != monthly[j].Year {
			return monthly[i].Year < monthly[j].Year
		}
		return monthly[i].Month < monthly[j].Month
	})
	if len(monthly) > MaxMonthlySummaries {
		monthly = monthly[len(monthly)-MaxMonthlySummaries:]
	}
	stats.MonthlySummaries = monthly

	return stats
}
