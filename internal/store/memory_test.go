package store

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemory_QueryFiltersAndOrders(t *testing.T) {
	st := NewMemory()
	ctx := context.Background()

	for _, d := range []struct {
		user string
		n    int64
	}{
		{"user1", 1},
		{"user1", 3},
		{"user1", 2},
		{"user2", 5},
	} {
		if _, err := st.Add(ctx, "items", map[string]interface{}{"userId": d.user, "n": d.n}); err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
	}

	docs, err := st.Query(ctx, "items", []Filter{{Path: "userId", Op: "==", Value: "user1"}}, &Order{Path: "n", Desc: true})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(docs) != 3 {
		t.Fatalf("Expected 3 documents, got %d", len(docs))
	}
	for i, want := range []int64{3, 2, 1} {
		if docs[i].Data["n"] != want {
			t.Errorf("Expected n=%d at position %d, got %v", want, i, docs[i].Data["n"])
		}
	}
}

func TestMemory_QueryComparesTimes(t *testing.T) {
	st := NewMemory()
	ctx := context.Background()
	base := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		if _, err := st.Add(ctx, "items", map[string]interface{}{"at": base.AddDate(0, 0, i)}); err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
	}

	docs, err := st.Query(ctx, "items", []Filter{{Path: "at", Op: ">", Value: base}}, nil)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(docs) != 2 {
		t.Errorf("Expected 2 documents after the base time, got %d", len(docs))
	}
}

func TestMemory_GetNotFound(t *testing.T) {
	st := NewMemory()

	_, err := st.Get(context.Background(), "items", "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got: %v", err)
	}
}

func TestMemory_Update(t *testing.T) {
	st := NewMemory()
	ctx := context.Background()

	id, err := st.Add(ctx, "items", map[string]interface{}{"status": "confirmed"})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if err := st.Update(ctx, "items", id, map[string]interface{}{"status": "cancelled"}); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	doc, err := st.Get(ctx, "items", id)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if doc.Data["status"] != "cancelled" {
		t.Errorf("Expected status cancelled, got %v", doc.Data["status"])
	}

	if err := st.Update(ctx, "items", "missing", map[string]interface{}{"status": "x"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got: %v", err)
	}
}

func TestMemory_BatchCreateIsAtomic(t *testing.T) {
	st := NewMemory()
	ctx := context.Background()

	if err := st.BatchCreate(ctx, "locks", []Document{{ID: "a", Data: map[string]interface{}{}}}); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	err := st.BatchCreate(ctx, "locks", []Document{
		{ID: "b", Data: map[string]interface{}{}},
		{ID: "a", Data: map[string]interface{}{}},
	})
	if !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("Expected ErrAlreadyExists, got: %v", err)
	}

	// Конфликт откатывает весь пакет: "b" не должен появиться.
	if _, err := st.Get(ctx, "locks", "b"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected b to be absent after a failed batch, got: %v", err)
	}
}

func TestMemory_ServerTimestamp(t *testing.T) {
	st := NewMemory()
	fixed := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)
	st.Now = func() time.Time { return fixed }

	id, err := st.Add(context.Background(), "items", map[string]interface{}{"createdAt": ServerTimestamp})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	doc, err := st.Get(context.Background(), "items", id)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if doc.Data["createdAt"] != fixed {
		t.Errorf("Expected createdAt %v, got %v", fixed, doc.Data["createdAt"])
	}
}

func TestMemory_Subscribe(t *testing.T) {
	st := NewMemory()
	ctx := context.Background()

	sub, err := st.Subscribe(ctx, "items", []Filter{{Path: "userId", Op: "==", Value: "user1"}}, nil)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	defer sub.Stop()

	// Первый снимок приходит сразу и пустой.
	snap := nextSnapshot(t, sub)
	if len(snap.Docs) != 0 {
		t.Fatalf("Expected empty initial snapshot, got %d documents", len(snap.Docs))
	}

	if _, err := st.Add(ctx, "items", map[string]interface{}{"userId": "user1"}); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	snap = nextSnapshot(t, sub)
	if len(snap.Docs) != 1 {
		t.Fatalf("Expected 1 document, got %d", len(snap.Docs))
	}

	// Чужие документы в выборку не попадают.
	if _, err := st.Add(ctx, "items", map[string]interface{}{"userId": "user2"}); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	snap = nextSnapshot(t, sub)
	if len(snap.Docs) != 1 {
		t.Errorf("Expected the snapshot to stay at 1 document, got %d", len(snap.Docs))
	}
}

func TestMemory_SubscribeStopClosesChannel(t *testing.T) {
	st := NewMemory()

	sub, err := st.Subscribe(context.Background(), "items", nil, nil)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	sub.Stop()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, open := <-sub.Snapshots():
			if !open {
				return
			}
		case <-deadline:
			t.Fatal("Expected Snapshots channel to close after Stop")
		}
	}
}

func nextSnapshot(t *testing.T, sub Subscription) Snapshot {
	t.Helper()
	select {
	case snap, open := <-sub.Snapshots():
		if !open {
			t.Fatal("Snapshots channel closed unexpectedly")
		}
		return snap
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for a snapshot")
	}
	return Snapshot{}
}
