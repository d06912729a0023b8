package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/NgigiN/smswallet/internal/category"
	"github.com/NgigiN/smswallet/internal/storage"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// ValidationError rejects user input before it reaches the store. Message is meant to
// be shown to the user as is.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Store is the persistence needed by explicit user actions.
type Store interface {
	category.RuleStore
	SaveTransaction(ctx context.Context, tx *storage.Transaction) error
	GetTransaction(ctx context.Context, id uint) (*storage.Transaction, error)
	UpdateTransactionNotes(ctx context.Context, id uint, notes string) error
	UpdateTransactionCategory(ctx context.Context, id uint, category string) error
	UpsertBudget(ctx context.Context, b *storage.Budget) error
	DeactivateBudget(ctx context.Context, id uint) error
	SaveRule(ctx context.Context, rule *storage.CategoryRule) error
	LearnRule(ctx context.Context, txID uint, rule *storage.CategoryRule) error
	DeleteRule(ctx context.Context, id uint) error
}

// Service carries out edits the user asks for: manual entries, budgets and rules.
type Service struct {
	store Store
	log   zerolog.Logger
	clock func() time.Time
}

func NewService(store Store, log zerolog.Logger) *Service {
	return &Service{
		store: store,
		log:   log,
		clock: time.Now,
	}
}

type ManualEntry struct {
	Amount    decimal.Decimal
	Recipient string
	Direction storage.Direction
	Category  string
	Notes     string
	At        time.Time // zero means now
}

// AddTransaction records a transaction the user typed in.
func (s *Service) AddTransaction(ctx context.Context, e ManualEntry) (*storage.Transaction, error) {
	if !e.Amount.IsPositive() {
		return nil, invalid("amount", "Amount must be greater than zero")
	}
	recipient := strings.TrimSpace(e.Recipient)
	if recipient == "" {
		return nil, invalid("recipient", "Recipient is required")
	}
	if e.Direction != storage.DirectionSent && e.Direction != storage.DirectionReceived {
		return nil, invalid("direction", "Direction must be %s or %s", storage.DirectionSent, storage.DirectionReceived)
	}
	cat := category.Normalize(e.Category)
	if cat == "" {
		cat = storage.DefaultCategory
	}
	at := e.At
	if at.IsZero() {
		at = s.clock()
	}

	tx := &storage.Transaction{
		Amount:        e.Amount,
		RecipientName: recipient,
		Direction:     e.Direction,
		Category:      cat,
		Notes:         strings.TrimSpace(e.Notes),
		Timestamp:     at.UnixMilli(),
		SourceApp:     storage.SourceManual,
		IsParsed:      false,
	}
	if err := s.store.SaveTransaction(ctx, tx); err != nil {
		return nil, err
	}
	s.log.Info().Uint("id", tx.ID).Str("category", cat).Msg("manual transaction added")
	return tx, nil
}

func (s *Service) UpdateNotes(ctx context.Context, id uint, notes string) error {
	return s.store.UpdateTransactionNotes(ctx, id, strings.TrimSpace(notes))
}

func (s *Service) UpdateCategory(ctx context.Context, id uint, raw string) error {
	cat := category.Normalize(raw)
	if cat == "" {
		return invalid("category", "Category is required")
	}
	return s.store.UpdateTransactionCategory(ctx, id, cat)
}

type BudgetInput struct {
	Category       string
	Limit          decimal.Decimal
	Period         storage.Period
	AlertThreshold float64 // zero means the default
}

// SaveBudget creates or replaces the budget for a category and period.
func (s *Service) SaveBudget(ctx context.Context, in BudgetInput) (*storage.Budget, error) {
	cat := category.Normalize(in.Category)
	if cat == "" {
		return nil, invalid("category", "Category is required")
	}
	if !in.Limit.IsPositive() {
		return nil, invalid("limit", "Budget limit must be greater than zero")
	}
	period := storage.Period(strings.ToUpper(strings.TrimSpace(string(in.Period))))
	if period == "" {
		period = storage.PeriodMonthly
	}
	if period != storage.PeriodMonthly && period != storage.PeriodWeekly {
		return nil, invalid("period", "Period must be %s or %s", storage.PeriodMonthly, storage.PeriodWeekly)
	}
	threshold := in.AlertThreshold
	if threshold == 0 {
		threshold = storage.DefaultAlertThreshold
	}
	if threshold < 0 || threshold > 1 {
		return nil, invalid("alertThreshold", "Alert threshold must be between 0 and 1")
	}

	b := &storage.Budget{
		Category:       cat,
		LimitAmount:    in.Limit,
		Period:         period,
		AlertThreshold: threshold,
		IsActive:       true,
	}
	if err := s.store.UpsertBudget(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// DeleteBudget deactivates the budget; the row is kept.
func (s *Service) DeleteBudget(ctx context.Context, id uint) error {
	return s.store.DeactivateBudget(ctx, id)
}

// SuggestRule prefills a rule that would have put tx in its current category.
func SuggestRule(tx storage.Transaction) storage.CategoryRule {
	return storage.CategoryRule{
		Keyword:  category.SuggestKeyword(tx.RecipientName),
		Category: tx.Category,
		IsCustom: true,
	}
}

// SaveRule adds a custom keyword rule. It takes precedence over every existing rule.
func (s *Service) SaveRule(ctx context.Context, keyword, cat, icon string) (*storage.CategoryRule, error) {
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	if keyword == "" {
		return nil, invalid("keyword", "Keyword is required")
	}
	cat = category.Normalize(cat)
	if cat == "" {
		return nil, invalid("category", "Category is required")
	}

	rule := &storage.CategoryRule{Keyword: keyword, Category: cat, Icon: icon, IsCustom: true}
	if err := s.store.SaveRule(ctx, rule); err != nil {
		return nil, err
	}
	s.log.Info().Str("keyword", keyword).Str("category", cat).Msg("rule saved")
	return rule, nil
}

// SaveRuleFromTransaction recategorizes the transaction and remembers its recipient so
// future messages land in the same category.
func (s *Service) SaveRuleFromTransaction(ctx context.Context, id uint, cat string) (*storage.CategoryRule, error) {
	tx, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return nil, err
	}
	tx.Category = category.Normalize(cat)
	if tx.Category == "" {
		return nil, invalid("category", "Category is required")
	}
	rule := SuggestRule(*tx)
	if strings.TrimSpace(rule.Keyword) == "" {
		return nil, invalid("keyword", "Keyword is required")
	}

	if err := s.store.LearnRule(ctx, id, &rule); err != nil {
		return nil, err
	}
	s.log.Info().Uint("transaction", id).Str("keyword", rule.Keyword).Str("category", rule.Category).Msg("rule learned")
	return &rule, nil
}

func (s *Service) DeleteRule(ctx context.Context, id uint) error {
	return s.store.DeleteRule(ctx, id)
}

// ResetRules drops every rule, custom ones included, and reseeds the defaults.
func (s *Service) ResetRules(ctx context.Context) error {
	if err := category.ResetToDefaults(ctx, s.store); err != nil {
		return err
	}
	s.log.Info().Msg("rules reset to defaults")
	return nil
}
