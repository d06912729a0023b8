package sms

import (
	"context"
	"fmt"
	"time"

	"github.com/NgigiN/smswallet/internal/storage"
)

// Message is one inbound text: who sent it, what it says and when it arrived.
type Message struct {
	Sender     string
	Body       string
	ReceivedAt time.Time
}

// Categorizer assigns a category from the recipient and the message sender.
type Categorizer interface {
	Categorize(ctx context.Context, recipient, sender string) (string, error)
}

// Parser turns raw messages into categorized, unsaved transactions.
type Parser struct {
	registry    *Registry
	categorizer Categorizer
}

func NewParser(registry *Registry, categorizer Categorizer) *Parser {
	return &Parser{registry: registry, categorizer: categorizer}
}

// Parse returns ok=false when no extractor recognises the message. An error is only
// returned when categorization could not read its rules.
func (p *Parser) Parse(ctx context.Context, msg Message) (*storage.Transaction, bool, error) {
	res, ok := p.registry.Extract(msg.Sender, msg.Body)
	if !ok {
		return nil, false, nil
	}

	category, err := p.categorizer.Categorize(ctx, res.Recipient, msg.Sender)
	if err != nil {
		return nil, false, fmt.Errorf("parse message: %w", err)
	}

	tx := &storage.Transaction{
		Amount:        res.Amount,
		RecipientName: res.Recipient,
		Direction:     res.Direction,
		Category:      category,
		Timestamp:     msg.ReceivedAt.UnixMilli(),
		RawText:       msg.Body,
		SourceApp:     res.Vendor,
		IsParsed:      true,
	}
	if res.ReferenceID != "" {
		ref := res.ReferenceID
		tx.ReferenceID = &ref
	}
	return tx, true, nil
}
