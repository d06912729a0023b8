package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/NgigiN/smswallet/internal/storage"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"
)

// ProgressInterval is how many messages pass between progress reports.
const ProgressInterval = 10

// ProgressFunc receives (processed, total) counts. Calls are monotonic and the last
// one is always (total, total).
type ProgressFunc func(processed, total int)

// BatchStore is what a historical import needs from persistence.
type BatchStore interface {
	ReferenceLookup
	// SaveTransactions writes txs atomically, skipping reference ids already stored,
	// and returns the number written.
	SaveTransactions(ctx context.Context, txs []storage.Transaction) (int, error)
}

type ImportOptions struct {
	// MaxAge skips messages older than now-MaxAge. Zero imports everything.
	MaxAge time.Duration
}

type ImportResult struct {
	Processed  int
	Parsed     int
	Duplicates int
	Inserted   int
}

// Importer scans message history and stores every new transaction in one batch.
// Only one import runs at a time; further calls wait their turn.
type Importer struct {
	parser MessageParser
	store  BatchStore
	log    zerolog.Logger
	sem    *semaphore.Weighted
	now    func() time.Time
}

func NewImporter(parser MessageParser, store BatchStore, log zerolog.Logger) *Importer {
	return &Importer{
		parser: parser,
		store:  store,
		log:    log,
		sem:    semaphore.NewWeighted(1),
		now:    time.Now,
	}
}

// Import runs synchronously. If ctx is cancelled or any step fails, nothing is written.
func (im *Importer) Import(ctx context.Context, src Source, opts ImportOptions, progress ProgressFunc) (ImportResult, error) {
	if err := im.sem.Acquire(ctx, 1); err != nil {
		return ImportResult{}, fmt.Errorf("wait for running import: %w", err)
	}
	defer im.sem.Release(1)

	if progress == nil {
		progress = func(int, int) {}
	}

	var since time.Time
	if opts.MaxAge > 0 {
		since = im.now().Add(-opts.MaxAge)
	}

	cursor, err := src.Open(ctx, since)
	if err != nil {
		return ImportResult{}, fmt.Errorf("open message source: %w", err)
	}
	defer cursor.Close()

	total := cursor.Total()
	var (
		res     ImportResult
		pending []storage.Transaction
		seen    = make(map[string]struct{})
	)

	for {
		if err := ctx.Err(); err != nil {
			return ImportResult{}, err
		}
		msg, ok := cursor.Next()
		if !ok {
			break
		}
		res.Processed++

		tx, parsed, err := im.parser.Parse(ctx, msg)
		if err != nil {
			return ImportResult{}, err
		}
		if parsed {
			res.Parsed++
			dup, err := im.isDuplicate(ctx, tx.Ref(), seen)
			if err != nil {
				return ImportResult{}, err
			}
			if dup {
				res.Duplicates++
			} else {
				pending = append(pending, *tx)
			}
		}

		if res.Processed%ProgressInterval == 0 && res.Processed < total {
			progress(res.Processed, total)
		}
	}
	if err := cursor.Err(); err != nil {
		return ImportResult{}, fmt.Errorf("read message source: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return ImportResult{}, err
	}

	if len(pending) > 0 {
		inserted, err := im.store.SaveTransactions(ctx, pending)
		if err != nil {
			return ImportResult{}, fmt.Errorf("import messages: %w", err)
		}
		// stored by a live ingest since the reference check
		res.Duplicates += len(pending) - inserted
		res.Inserted = inserted
	}
	progress(total, total)

	im.log.Info().
		Int("processed", res.Processed).
		Int("parsed", res.Parsed).
		Int("duplicates", res.Duplicates).
		Int("inserted", res.Inserted).
		Msg("import finished")
	return res, nil
}

// isDuplicate checks ref against the batch so far and then the store. Transactions
// without a reference id are never duplicates.
func (im *Importer) isDuplicate(ctx context.Context, ref string, seen map[string]struct{}) (bool, error) {
	if ref == "" {
		return false, nil
	}
	if _, ok := seen[ref]; ok {
		return true, nil
	}
	existing, err := isKnownReference(ctx, im.store, ref)
	if err != nil {
		return false, err
	}
	seen[ref] = struct{}{}
	return existing != nil, nil
}
