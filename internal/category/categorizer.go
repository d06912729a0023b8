package category

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/NgigiN/smswallet/internal/storage"
)

// RuleRepository is the slice of the store the categorizer reads from.
type RuleRepository interface {
	ListRules(ctx context.Context) ([]storage.CategoryRule, error)
}

// Categorizer maps a recipient to a category using the stored rules. Rules are read on
// every call so edits made at runtime apply to the next message.
type Categorizer struct {
	repo RuleRepository
}

func NewCategorizer(repo RuleRepository) *Categorizer {
	return &Categorizer{repo: repo}
}

// Categorize returns the category of the first rule whose keyword occurs in recipient.
// Without a match, senders that look like a bank or wallet yield Transfers.
func (c *Categorizer) Categorize(ctx context.Context, recipient, sender string) (string, error) {
	rules, err := c.repo.ListRules(ctx)
	if err != nil {
		return "", fmt.Errorf("categorize: list rules: %w", err)
	}
	return Match(rules, recipient, sender), nil
}

// Match applies rules in order without touching the store.
func Match(rules []storage.CategoryRule, recipient, sender string) string {
	r := strings.ToLower(recipient)
	for _, rule := range rules {
		kw := strings.ToLower(strings.TrimSpace(rule.Keyword))
		if kw != "" && strings.Contains(r, kw) {
			return rule.Category
		}
	}

	s := strings.ToLower(sender)
	if strings.Contains(s, "bank") || strings.Contains(s, "wallet") {
		return Transfers
	}
	return Other
}

// SuggestKeyword proposes a rule keyword for a recipient name: the first word of at
// least three letters or digits, else the first 10 characters of the name.
func SuggestKeyword(recipientName string) string {
	lower := strings.ToLower(recipientName)
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			return r
		}
		return -1
	}, lower)

	for _, tok := range strings.Fields(cleaned) {
		if len([]rune(tok)) >= 3 {
			return tok
		}
	}

	fallback := []rune(strings.TrimSpace(lower))
	if len(fallback) > 10 {
		fallback = fallback[:10]
	}
	return string(fallback)
}
