package storage

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ListRules returns rules in precedence order: custom rules newest first, then the
// defaults in seed order.
func (d *Database) ListRules(ctx context.Context) ([]CategoryRule, error) {
	var rules []CategoryRule
	err := d.db.WithContext(ctx).
		Order("is_custom DESC").
		Order("CASE WHEN is_custom THEN -id ELSE id END ASC").
		Find(&rules).Error
	if err != nil {
		return nil, storeErr("list category rules", err)
	}
	return rules, nil
}

func (d *Database) SaveRule(ctx context.Context, rule *CategoryRule) error {
	if err := d.db.WithContext(ctx).Create(rule).Error; err != nil {
		return storeErr("save category rule", err)
	}
	return nil
}

// LearnRule moves transaction txID into rule.Category and saves rule, both or neither.
func (d *Database) LearnRule(ctx context.Context, txID uint, rule *CategoryRule) error {
	err := d.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		res := db.Model(&Transaction{}).Where("id = ?", txID).Update("category", rule.Category)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("transaction %d: %w", txID, ErrNotFound)
		}
		return db.Create(rule).Error
	})
	if errors.Is(err, ErrNotFound) {
		return err
	}
	if err != nil {
		return storeErr("learn category rule", err)
	}
	return nil
}

func (d *Database) SaveRules(ctx context.Context, rules []CategoryRule) error {
	if len(rules) == 0 {
		return nil
	}
	if err := d.db.WithContext(ctx).CreateInBatches(rules, insertBatchSize).Error; err != nil {
		return storeErr("save category rules", err)
	}
	return nil
}

func (d *Database) DeleteRule(ctx context.Context, id uint) error {
	res := d.db.WithContext(ctx).Delete(&CategoryRule{}, id)
	if res.Error != nil {
		return storeErr("delete category rule", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("category rule %d: %w", id, ErrNotFound)
	}
	return nil
}

func (d *Database) DeleteCustomRules(ctx context.Context) error {
	if err := d.db.WithContext(ctx).Where("is_custom = ?", true).Delete(&CategoryRule{}).Error; err != nil {
		return storeErr("delete custom category rules", err)
	}
	return nil
}

func (d *Database) DeleteAllRules(ctx context.Context) error {
	if err := d.db.WithContext(ctx).Where("1 = 1").Delete(&CategoryRule{}).Error; err != nil {
		return storeErr("delete category rules", err)
	}
	return nil
}

func (d *Database) CountRules(ctx context.Context) (int64, error) {
	var n int64
	if err := d.db.WithContext(ctx).Model(&CategoryRule{}).Count(&n).Error; err != nil {
		return 0, storeErr("count category rules", err)
	}
	return n, nil
}

// DistinctCategories lists every category named by a rule, alphabetically.
func (d *Database) DistinctCategories(ctx context.Context) ([]string, error) {
	var categories []string
	err := d.db.WithContext(ctx).
		Model(&CategoryRule{}).
		Distinct().
		Order("category ASC").
		Pluck("category", &categories).Error
	if err != nil {
		return nil, storeErr("list rule categories", err)
	}
	return categories, nil
}
