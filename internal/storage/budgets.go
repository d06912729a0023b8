package storage

import (
	"context"
	"fmt"

	"gorm.io/gorm/clause"
)

func (d *Database) GetActiveBudgets(ctx context.Context) ([]Budget, error) {
	var budgets []Budget
	if err := d.db.WithContext(ctx).Where("is_active = ?", true).Order("category ASC").Find(&budgets).Error; err != nil {
		return nil, storeErr("get active budgets", err)
	}
	return budgets, nil
}

func (d *Database) GetAllBudgets(ctx context.Context) ([]Budget, error) {
	var budgets []Budget
	if err := d.db.WithContext(ctx).Order("category ASC").Find(&budgets).Error; err != nil {
		return nil, storeErr("get budgets", err)
	}
	return budgets, nil
}

// UpsertBudget creates the budget or, when one already exists for the same category and
// period, overwrites its limit and threshold and reactivates it.
func (d *Database) UpsertBudget(ctx context.Context, b *Budget) error {
	err := d.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "category"}, {Name: "period"}},
		DoUpdates: clause.AssignmentColumns([]string{"limit_amount", "alert_threshold", "is_active", "updated_at"}),
	}).Create(b).Error
	if err != nil {
		return storeErr("upsert budget", err)
	}
	return nil
}

// DeactivateBudget soft-deletes a budget so its history stays queryable.
func (d *Database) DeactivateBudget(ctx context.Context, id uint) error {
	res := d.db.WithContext(ctx).Model(&Budget{}).Where("id = ?", id).Update("is_active", false)
	if res.Error != nil {
		return storeErr("deactivate budget", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("budget %d: %w", id, ErrNotFound)
	}
	return nil
}
