package ingest

import (
	"context"

	"github.com/google/uuid"
)

type Progress struct {
	Processed int
	Total     int
}

// ImportTask is an import running in the background.
type ImportTask struct {
	ID string

	progress chan Progress
	cancel   context.CancelFunc
	done     chan struct{}
	result   ImportResult
	err      error
}

// Start launches Import in its own goroutine. The task outlives the caller until it
// finishes or Cancel is called.
func (im *Importer) Start(ctx context.Context, src Source, opts ImportOptions) *ImportTask {
	ctx, cancel := context.WithCancel(ctx)
	t := &ImportTask{
		ID:       uuid.NewString(),
		progress: make(chan Progress, 1),
		cancel:   cancel,
		done:     make(chan struct{}),
	}

	go func() {
		defer close(t.done)
		defer close(t.progress)
		defer cancel()

		log := im.log.With().Str("import_id", t.ID).Logger()
		t.result, t.err = im.Import(ctx, src, opts, t.publish)
		if t.err != nil {
			log.Error().Err(t.err).Msg("import failed")
		}
	}()
	return t
}

// Progress delivers the most recent report. Slow readers skip intermediate values.
// The channel is closed when the task ends.
func (t *ImportTask) Progress() <-chan Progress {
	return t.progress
}

// publish keeps only the latest value in the buffer. There is a single writer.
func (t *ImportTask) publish(processed, total int) {
	p := Progress{Processed: processed, Total: total}
	for {
		select {
		case t.progress <- p:
			return
		default:
		}
		select {
		case <-t.progress:
		default:
		}
	}
}

func (t *ImportTask) Cancel() {
	t.cancel()
}

// Done is closed once the task has finished.
func (t *ImportTask) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the task ends and returns its outcome.
func (t *ImportTask) Wait() (ImportResult, error) {
	<-t.done
	return t.result, t.err
}
