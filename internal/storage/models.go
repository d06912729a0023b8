package storage

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Direction is the flow of money relative to the account holder.
type Direction string

const (
	DirectionSent     Direction = "SENT"
	DirectionReceived Direction = "RECEIVED"
)

// Period is the window a budget limit applies to.
type Period string

const (
	PeriodMonthly Period = "MONTHLY"
	PeriodWeekly  Period = "WEEKLY"
)

const (
	DefaultCategory       = "Other"
	SourceManual          = "Manual"
	DefaultAlertThreshold = 0.8
)

// Transaction represents a stored financial transaction.
type Transaction struct {
	gorm.Model
	Amount        decimal.Decimal `gorm:"type:numeric;not null"`
	RecipientName string
	Direction     Direction `gorm:"index;not null"`
	Category      string    `gorm:"index;not null;default:Other"`
	Notes         string
	Timestamp     int64 `gorm:"index"` // epoch millis
	RawText       string
	SourceApp     string
	ReferenceID   *string `gorm:"uniqueIndex"`
	IsParsed      bool
}

// Time returns the transaction timestamp as a time.Time in loc.
func (t Transaction) Time(loc *time.Location) time.Time {
	return time.UnixMilli(t.Timestamp).In(loc)
}

// Ref returns the reference id or "" when the vendor issued none.
func (t Transaction) Ref() string {
	if t.ReferenceID == nil {
		return ""
	}
	return *t.ReferenceID
}

// CategoryRule maps a recipient keyword to a category. Custom rules are evaluated
// before the defaults.
type CategoryRule struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	Keyword   string `gorm:"not null"`
	Category  string `gorm:"not null"`
	Icon      string
	IsCustom  bool
}

// Budget is a spending limit for one category. Budgets are deactivated, never deleted.
type Budget struct {
	ID             uint `gorm:"primaryKey"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Category       string          `gorm:"not null;uniqueIndex:idx_budget_category_period"`
	LimitAmount    decimal.Decimal `gorm:"type:numeric;not null"`
	Period         Period          `gorm:"not null;uniqueIndex:idx_budget_category_period"`
	AlertThreshold float64         `gorm:"not null"`
	IsActive       bool            `gorm:"not null"`
}
