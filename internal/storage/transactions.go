package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const insertBatchSize = 100

func (d *Database) SaveTransaction(ctx context.Context, tx *Transaction) error {
	if err := d.db.WithContext(ctx).Create(tx).Error; err != nil {
		return storeErr("save transaction", err)
	}
	return nil
}

// SaveTransactions inserts txs in a single database transaction and returns how many
// rows were written. Rows whose reference id is already stored are skipped; any other
// failure writes nothing.
func (d *Database) SaveTransactions(ctx context.Context, txs []Transaction) (int, error) {
	if len(txs) == 0 {
		return 0, nil
	}
	var inserted int64
	err := d.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		res := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "reference_id"}},
			DoNothing: true,
		}).CreateInBatches(txs, insertBatchSize)
		inserted = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return 0, storeErr("save transaction batch", err)
	}
	return int(inserted), nil
}

// FindTransactionByReference returns ErrNotFound when no transaction carries ref.
func (d *Database) FindTransactionByReference(ctx context.Context, ref string) (*Transaction, error) {
	var tx Transaction
	res := d.db.WithContext(ctx).Where("reference_id = ?", ref).Limit(1).Find(&tx)
	if res.Error != nil {
		return nil, storeErr("find transaction by reference", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return &tx, nil
}

func (d *Database) GetTransaction(ctx context.Context, id uint) (*Transaction, error) {
	var tx Transaction
	res := d.db.WithContext(ctx).Limit(1).Find(&tx, id)
	if res.Error != nil {
		return nil, storeErr("get transaction", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return &tx, nil
}

// GetAllTransactions returns every transaction, newest first.
func (d *Database) GetAllTransactions(ctx context.Context) ([]Transaction, error) {
	var txs []Transaction
	if err := d.db.WithContext(ctx).Order("timestamp DESC").Find(&txs).Error; err != nil {
		return nil, storeErr("get transactions", err)
	}
	return txs, nil
}

// GetTransactionsBetween returns transactions with from <= timestamp <= to, newest first.
func (d *Database) GetTransactionsBetween(ctx context.Context, from, to time.Time) ([]Transaction, error) {
	var txs []Transaction
	err := d.db.WithContext(ctx).
		Where("timestamp BETWEEN ? AND ?", from.UnixMilli(), to.UnixMilli()).
		Order("timestamp DESC").
		Find(&txs).Error
	if err != nil {
		return nil, storeErr("get transactions by date range", err)
	}
	return txs, nil
}

func (d *Database) GetTransactionsByCategory(ctx context.Context, category string) ([]Transaction, error) {
	var txs []Transaction
	err := d.db.WithContext(ctx).
		Where("LOWER(category) = ?", strings.ToLower(category)).
		Order("timestamp DESC").
		Find(&txs).Error
	if err != nil {
		return nil, storeErr("get transactions by category", err)
	}
	return txs, nil
}

// SearchTransactions matches query as a case-insensitive substring of recipient or notes.
func (d *Database) SearchTransactions(ctx context.Context, query string) ([]Transaction, error) {
	pattern := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"
	var txs []Transaction
	err := d.db.WithContext(ctx).
		Where("LOWER(recipient_name) LIKE ? OR LOWER(notes) LIKE ?", pattern, pattern).
		Order("timestamp DESC").
		Find(&txs).Error
	if err != nil {
		return nil, storeErr("search transactions", err)
	}
	return txs, nil
}

func (d *Database) CountTransactions(ctx context.Context) (int64, error) {
	var n int64
	if err := d.db.WithContext(ctx).Model(&Transaction{}).Count(&n).Error; err != nil {
		return 0, storeErr("count transactions", err)
	}
	return n, nil
}

func (d *Database) UpdateTransactionNotes(ctx context.Context, id uint, notes string) error {
	return d.updateTransaction(ctx, id, "notes", notes)
}

func (d *Database) UpdateTransactionCategory(ctx context.Context, id uint, category string) error {
	return d.updateTransaction(ctx, id, "category", category)
}

func (d *Database) updateTransaction(ctx context.Context, id uint, column string, value any) error {
	res := d.db.WithContext(ctx).Model(&Transaction{}).Where("id = ?", id).Update(column, value)
	if res.Error != nil {
		return storeErr("update transaction "+column, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("transaction %d: %w", id, ErrNotFound)
	}
	return nil
}

type categoryTotal struct {
	Category string
	Total    decimal.Decimal
}

// SpendByCategory sums SENT amounts per category within [from, to], restricted to the
// given categories. Categories with no spend are absent from the result.
func (d *Database) SpendByCategory(ctx context.Context, from, to time.Time, categories []string) (map[string]decimal.Decimal, error) {
	out := make(map[string]decimal.Decimal, len(categories))
	if len(categories) == 0 {
		return out, nil
	}

	var rows []categoryTotal
	err := d.db.WithContext(ctx).
		Model(&Transaction{}).
		Select("category, SUM(amount) AS total").
		Where("direction = ? AND timestamp BETWEEN ? AND ? AND category IN ?",
			DirectionSent, from.UnixMilli(), to.UnixMilli(), categories).
		Group("category").
		Scan(&rows).Error
	if err != nil {
		return nil, storeErr("sum spend by category", err)
	}
	for _, r := range rows {
		out[r.Category] = r.Total.Round(2)
	}
	return out, nil
}
