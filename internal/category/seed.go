package category

import (
	"context"
	"fmt"

	"github.com/NgigiN/smswallet/internal/storage"
)

// RuleStore is what seeding and reset need from the store.
type RuleStore interface {
	CountRules(ctx context.Context) (int64, error)
	SaveRules(ctx context.Context, rules []storage.CategoryRule) error
	DeleteAllRules(ctx context.Context) error
}

// SeedDefaults inserts DefaultRules when the store has no rules yet. It is safe to
// call on every start.
func SeedDefaults(ctx context.Context, store RuleStore) (bool, error) {
	n, err := store.CountRules(ctx)
	if err != nil {
		return false, fmt.Errorf("seed rules: %w", err)
	}
	if n > 0 {
		return false, nil
	}
	if err := store.SaveRules(ctx, DefaultRules()); err != nil {
		return false, fmt.Errorf("seed rules: %w", err)
	}
	return true, nil
}

// ResetToDefaults drops every rule, custom ones included, and reseeds the defaults.
func ResetToDefaults(ctx context.Context, store RuleStore) error {
	if err := store.DeleteAllRules(ctx); err != nil {
		return fmt.Errorf("reset rules: %w", err)
	}
	if err := store.SaveRules(ctx, DefaultRules()); err != nil {
		return fmt.Errorf("reset rules: %w", err)
	}
	return nil
}
