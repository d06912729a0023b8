package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

func TestImportTaskCompletes(t *testing.T) {
	db := newTestDatabase(t)
	im := NewImporter(newParser(db), db, zerolog.Nop())

	var src SliceSource
	for i := 0; i < 15; i++ {
		src = append(src, gpay(i))
	}

	task := im.Start(context.Background(), src, ImportOptions{})
	if _, err := uuid.Parse(task.ID); err != nil {
		t.Errorf("task id %q is not a uuid: %v", task.ID, err)
	}

	res, err := task.Wait()
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	if res.Inserted != 15 {
		t.Errorf("inserted %d, want 15", res.Inserted)
	}

	// only the latest report is retained once the task is done
	var last Progress
	for p := range task.Progress() {
		last = p
	}
	if last != (Progress{15, 15}) {
		t.Errorf("last progress = %v, want {15 15}", last)
	}
}

func TestImportTaskCancel(t *testing.T) {
	db := newTestDatabase(t)
	im := NewImporter(newParser(db), db, zerolog.Nop())
	gate := &gateSource{opened: make(chan struct{}), release: make(chan struct{})}

	task := im.Start(context.Background(), gate, ImportOptions{})
	<-gate.opened
	task.Cancel()
	close(gate.release)

	select {
	case <-task.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("task did not finish after cancel")
	}
	if _, err := task.Wait(); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if got := count(t, db); got != 0 {
		t.Errorf("stored %d, want 0", got)
	}
}

func TestPublishKeepsLatest(t *testing.T) {
	task := &ImportTask{progress: make(chan Progress, 1)}
	task.publish(10, 30)
	task.publish(20, 30)
	task.publish(30, 30)

	if got := <-task.progress; got != (Progress{30, 30}) {
		t.Errorf("got %v, want {30 30}", got)
	}
}
