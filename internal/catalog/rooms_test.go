package catalog

import (
	"context"
	"errors"
	"testing"

	"hotelapp/internal/store"
)

func TestService_FetchRooms(t *testing.T) {
	st := store.NewMemory()
	s := NewService(st)
	ctx := context.Background()

	for _, name := range []string{"Standard Room", "Deluxe Room"} {
		if _, err := st.Add(ctx, "rooms", map[string]interface{}{
			"name":        name,
			"price":       100.0,
			"roomNumbers": []interface{}{"101"},
		}); err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
	}

	rooms, err := s.FetchRooms(ctx)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(rooms) != 2 {
		t.Errorf("Expected 2 rooms, got %d", len(rooms))
	}
}

func TestService_GetRoom(t *testing.T) {
	st := store.NewMemory()
	s := NewService(st)
	ctx := context.Background()

	id, err := st.Add(ctx, "rooms", map[string]interface{}{"name": "Deluxe Room"})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	room, err := s.GetRoom(ctx, id)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if room.Name != "Deluxe Room" {
		t.Errorf("Expected name 'Deluxe Room', got %q", room.Name)
	}

	if _, err := s.GetRoom(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("Expected store.ErrNotFound, got: %v", err)
	}
}
