package ingest

import (
	"context"
	"errors"
	"fmt"

	"github.com/NgigiN/smswallet/internal/sms"
	"github.com/NgigiN/smswallet/internal/storage"
	"github.com/rs/zerolog"
)

// Outcome is what happened to one ingested message.
type Outcome int

const (
	NoMatch Outcome = iota
	Inserted
	Duplicate
)

func (o Outcome) String() string {
	switch o {
	case Inserted:
		return "inserted"
	case Duplicate:
		return "duplicate"
	default:
		return "no_match"
	}
}

// MessageParser turns a message into an unsaved transaction.
type MessageParser interface {
	Parse(ctx context.Context, msg sms.Message) (*storage.Transaction, bool, error)
}

// ReferenceLookup finds an already stored transaction by vendor reference id.
type ReferenceLookup interface {
	FindTransactionByReference(ctx context.Context, ref string) (*storage.Transaction, error)
}

// Store is what live ingestion needs from persistence.
type Store interface {
	ReferenceLookup
	SaveTransaction(ctx context.Context, tx *storage.Transaction) error
}

type Result struct {
	Outcome     Outcome
	Transaction *storage.Transaction // nil on NoMatch
}

// Option adjusts a parsed transaction before it is stored.
type Option func(*storage.Transaction)

// WithCategory overrides the category chosen by the rules.
func WithCategory(category string) Option {
	return func(tx *storage.Transaction) {
		if category != "" {
			tx.Category = category
		}
	}
}

// WithNotes attaches free-form notes.
func WithNotes(notes string) Option {
	return func(tx *storage.Transaction) {
		tx.Notes = notes
	}
}

// Pipeline ingests messages one at a time as they arrive.
type Pipeline struct {
	parser MessageParser
	store  Store
	log    zerolog.Logger
}

func NewPipeline(parser MessageParser, store Store, log zerolog.Logger) *Pipeline {
	return &Pipeline{parser: parser, store: store, log: log}
}

// Ingest parses, categorizes, de-duplicates and stores msg. Unrecognised messages and
// repeated reference ids are normal outcomes, not errors.
func (p *Pipeline) Ingest(ctx context.Context, msg sms.Message, opts ...Option) (Result, error) {
	tx, ok, err := p.parser.Parse(ctx, msg)
	if err != nil {
		return Result{}, err
	}
	if !ok {
		p.log.Debug().Str("sender", msg.Sender).Msg("message did not match any extractor")
		return Result{Outcome: NoMatch}, nil
	}
	for _, opt := range opts {
		opt(tx)
	}

	if ref := tx.Ref(); ref != "" {
		existing, err := isKnownReference(ctx, p.store, ref)
		if err != nil {
			return Result{}, err
		}
		if existing != nil {
			p.log.Debug().Str("reference", ref).Msg("skipping duplicate transaction")
			return Result{Outcome: Duplicate, Transaction: existing}, nil
		}
	}

	if err := p.store.SaveTransaction(ctx, tx); err != nil {
		// a concurrent insert won the race on the unique index
		if errors.Is(err, storage.ErrDuplicate) {
			return Result{Outcome: Duplicate, Transaction: tx}, nil
		}
		return Result{}, fmt.Errorf("ingest message: %w", err)
	}

	p.log.Info().
		Uint("id", tx.ID).
		Str("amount", tx.Amount.StringFixed(2)).
		Str("recipient", tx.RecipientName).
		Str("category", tx.Category).
		Str("source", tx.SourceApp).
		Msg("transaction recorded")
	return Result{Outcome: Inserted, Transaction: tx}, nil
}

func isKnownReference(ctx context.Context, store ReferenceLookup, ref string) (*storage.Transaction, error) {
	existing, err := store.FindTransactionByReference(ctx, ref)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("check reference %s: %w", ref, err)
	}
	return existing, nil
}
