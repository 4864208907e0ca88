package syncstore

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/sandeepkv93/taskmesh/internal/config"
	"github.com/sandeepkv93/taskmesh/internal/dql"
	"github.com/sandeepkv93/taskmesh/internal/model"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Connector{}.Connect(config.Profile{ID: "test", Root: t.TempDir()})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func observe(t *testing.T, store *Store, query string) (<-chan []model.Document, *Handle) {
	t.Helper()
	results := make(chan []model.Document, 16)
	handle, err := store.Observe(query, func(docs []model.Document) { results <- docs })
	if err != nil {
		t.Fatalf("observe: %v", err)
	}
	return results, handle
}

func waitResult(t *testing.T, results <-chan []model.Document) []model.Document {
	t.Helper()
	select {
	case docs := <-results:
		return docs
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for observer delivery")
		return nil
	}
}

func TestObserveDeliversOnRegistrationAndAfterMutations(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	results, handle := observe(t, store, dql.QueryVisibleTasks)
	defer handle.Cancel()

	if first := waitResult(t, results); len(first) != 0 {
		t.Fatalf("expected empty initial result, got %+v", first)
	}

	b := model.Task{ID: "b", Title: "second"}
	a := model.Task{ID: "a", Title: "first"}
	for _, task := range []model.Task{b, a} {
		if err := store.Execute(ctx, dql.StmtInsertTask, model.Document{"task": task}); err != nil {
			t.Fatalf("insert %s: %v", task.ID, err)
		}
		waitResult(t, results)
	}

	if err := store.Execute(ctx, dql.StmtSoftDelete, model.Document{"id": "b"}); err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	docs := waitResult(t, results)
	if len(docs) != 1 || docs[0]["_id"] != "a" {
		t.Fatalf("expected only task a after delete, got %+v", docs)
	}

	if err := store.Execute(ctx, dql.StmtSetDone, model.Document{"id": "a", "done": true}); err != nil {
		t.Fatalf("set done: %v", err)
	}
	docs = waitResult(t, results)
	if docs[0]["done"] != true {
		t.Fatalf("expected done task, got %+v", docs[0])
	}
}

func TestResultsOrderedByID(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	for _, id := range []string{"c", "a", "b"} {
		if err := store.Execute(ctx, dql.StmtInsertTask, model.Document{"task": model.Task{ID: id, Title: id}}); err != nil {
			t.Fatalf("insert %s: %v", id, err)
		}
	}
	results, handle := observe(t, store, dql.QueryVisibleTasks)
	defer handle.Cancel()
	docs := waitResult(t, results)
	if len(docs) != 3 || docs[0]["_id"] != "a" || docs[1]["_id"] != "b" || docs[2]["_id"] != "c" {
		t.Fatalf("unexpected order: %+v", docs)
	}
}

func TestCancelledObserverStopsReceiving(t *testing.T) {
	store := openStore(t)
	results, handle := observe(t, store, dql.QueryVisibleTasks)
	waitResult(t, results)
	handle.Cancel()
	handle.Cancel()

	if err := store.Execute(context.Background(), dql.StmtInsertTask, model.Document{"task": model.NewTask("late")}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	select {
	case docs := <-results:
		t.Fatalf("cancelled observer received %+v", docs)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestExecuteErrors(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	if err := store.Execute(ctx, dql.QueryVisibleTasks, nil); !errors.Is(err, ErrSelectNotExecutable) {
		t.Fatalf("expected ErrSelectNotExecutable, got %v", err)
	}
	if err := store.Execute(ctx, "UPDATE notes SET done = true WHERE _id = 'x'", nil); !errors.Is(err, ErrUnknownCollection) {
		t.Fatalf("expected ErrUnknownCollection, got %v", err)
	}
	if err := store.Execute(ctx, dql.StmtInsertTask, model.Document{"task": model.Task{ID: "x"}}); !errors.Is(err, model.ErrMissingTitle) {
		t.Fatalf("expected ErrMissingTitle, got %v", err)
	}
	if err := store.Execute(ctx, dql.StmtSetDone, model.Document{"id": "missing", "done": true}); err == nil {
		t.Fatal("expected error updating a missing task")
	}
}

func TestSubscribeAndObserveValidation(t *testing.T) {
	store := openStore(t)
	sub, err := store.Subscribe(dql.QuerySubscribeTasks)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	sub.Cancel()

	if _, err := store.Subscribe(dql.StmtSoftDelete); !errors.Is(err, ErrMutationNotSupported) {
		t.Fatalf("expected ErrMutationNotSupported, got %v", err)
	}
	if _, err := store.Observe(dql.QueryVisibleTasks, nil); !errors.Is(err, ErrObserverCallbackNil) {
		t.Fatalf("expected ErrObserverCallbackNil, got %v", err)
	}
	if _, err := store.Observe("SELECT * FROM notes", func([]model.Document) {}); !errors.Is(err, ErrUnknownCollection) {
		t.Fatalf("expected ErrUnknownCollection, got %v", err)
	}
}

func TestSyncToggle(t *testing.T) {
	store := openStore(t)
	if !store.IsSyncActive() {
		t.Fatal("sync should start active")
	}
	store.StopSync()
	if store.IsSyncActive() {
		t.Fatal("sync should be inactive after StopSync")
	}
	store.StartSync()
	if !store.IsSyncActive() {
		t.Fatal("sync should be active after StartSync")
	}
}

func TestStoppedSyncHoldsDeliveries(t *testing.T) {
	store := openStore(t)
	results, handle := observe(t, store, dql.QueryVisibleTasks)
	defer handle.Cancel()
	waitResult(t, results)

	store.StopSync()
	task := model.Task{ID: "a", Title: "offline"}
	if err := store.Execute(context.Background(), dql.StmtInsertTask, model.Document{"task": task}); err != nil {
		t.Fatalf("insert while stopped: %v", err)
	}
	select {
	case docs := <-results:
		t.Fatalf("expected no delivery while sync is stopped, got %+v", docs)
	case <-time.After(50 * time.Millisecond):
	}

	store.StartSync()
	docs := waitResult(t, results)
	if len(docs) != 1 || docs[0]["_id"] != "a" {
		t.Fatalf("expected held change after StartSync, got %+v", docs)
	}
}

func TestClosedStoreRejectsCalls(t *testing.T) {
	store := openStore(t)
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if _, err := store.Subscribe(dql.QuerySubscribeTasks); !errors.Is(err, ErrStoreClosed) {
		t.Fatalf("expected ErrStoreClosed, got %v", err)
	}
	if err := store.Execute(context.Background(), dql.StmtSoftDelete, model.Document{"id": "x"}); !errors.Is(err, ErrStoreClosed) {
		t.Fatalf("expected ErrStoreClosed, got %v", err)
	}
}

func TestTemporaryRootRemovedOnClose(t *testing.T) {
	base := t.TempDir()
	store, err := Connector{BaseDir: base}.Connect(config.Profile{ID: "scratch/one"})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	entries, _ := os.ReadDir(base)
	if len(entries) != 1 {
		t.Fatalf("expected one temp root, got %d", len(entries))
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	entries, _ = os.ReadDir(base)
	if len(entries) != 0 {
		t.Fatalf("expected temp root removed, got %d entries", len(entries))
	}
}
