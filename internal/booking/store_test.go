package booking

import (
	"context"
	"errors"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(NewMemoryBlobStore(), nil)
}

func TestCreateMarksSlotBooked(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	b := Booking{Date: "2025-06-02", Time: "09:00 AM", ContactName: "A", ContactEmail: "a@x.com"}
	if err := store.Create(ctx, b); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if !store.IsSlotBooked(ctx, "2025-06-02", "09:00 AM") {
		t.Error("expected slot to be booked")
	}
	for _, slot := range store.AvailableSlots(ctx, "2025-06-02") {
		if slot == "09:00 AM" {
			t.Error("booked slot must not appear in available slots")
		}
	}
}

func TestCreateRejectsTakenSlot(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	b := Booking{Date: "2025-06-02", Time: "09:00 AM", ContactName: "A", ContactEmail: "a@x.com"}
	if err := store.Create(ctx, b); err != nil {
		t.Fatalf("first Create returned error: %v", err)
	}

	b2 := Booking{Date: "2025-06-02", Time: "09:00 AM", ContactName: "B", ContactEmail: "b@x.com"}
	if err := store.Create(ctx, b2); !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("expected ErrSlotTaken, got %v", err)
	}
	if got := len(store.List(ctx)); got != 1 {
		t.Errorf("expected 1 booking after rejected duplicate, got %d", got)
	}
}

func TestCreateValidatesInput(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Create(ctx, Booking{Date: "06/02/2025", Time: "09:00 AM"}); err == nil {
		t.Error("expected error for malformed date")
	}
	if err := store.Create(ctx, Booking{Date: "2025-06-02", Time: "noon"}); err == nil {
		t.Error("expected error for unknown slot label")
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	b := Booking{Date: "2025-06-02", Time: "10:00 AM", ContactName: "A", ContactEmail: "a@x.com"}
	if err := store.Create(ctx, b); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if err := store.Delete(ctx, "2025-06-02", "10:00 AM"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if store.IsSlotBooked(ctx, "2025-06-02", "10:00 AM") {
		t.Error("slot still booked after delete")
	}

	// Second delete of the same pair is a no-op, not an error.
	if err := store.Delete(ctx, "2025-06-02", "10:00 AM"); err != nil {
		t.Fatalf("repeated Delete returned error: %v", err)
	}
}

func TestAvailableSlotsCountAndOrder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	booked := []string{"09:30 AM", "01:00 PM", "03:30 PM"}
	for i, slot := range booked {
		b := Booking{Date: "2025-06-03", Time: slot, ContactName: "N", ContactEmail: "n@x.com"}
		if err := store.Create(ctx, b); err != nil {
			t.Fatalf("Create %d returned error: %v", i, err)
		}
	}

	free := store.AvailableSlots(ctx, "2025-06-03")
	if len(free) != len(TimeSlots)-len(booked) {
		t.Fatalf("expected %d free slots, got %d", len(TimeSlots)-len(booked), len(free))
	}

	// Canonical order is preserved: each free slot appears in enumeration order.
	last := -1
	for _, slot := range free {
		idx := slotIndex(slot)
		if idx <= last {
			t.Fatalf("slot order violated at %q", slot)
		}
		last = idx
	}
}

func TestAvailabilityStatusThresholds(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	date := "2025-06-04"

	if got := store.AvailabilityStatus(ctx, date); got.Status != StatusAvailable || got.Remaining != 12 {
		t.Fatalf("fresh date: got %+v", got)
	}

	for i, slot := range TimeSlots[:10] {
		b := Booking{Date: date, Time: slot, ContactName: "N", ContactEmail: "n@x.com"}
		if err := store.Create(ctx, b); err != nil {
			t.Fatalf("Create %d returned error: %v", i, err)
		}
	}
	if got := store.AvailabilityStatus(ctx, date); got.Status != StatusLimited || got.Remaining != 2 {
		t.Fatalf("2 remaining: got %+v", got)
	}

	for _, slot := range TimeSlots[10:] {
		b := Booking{Date: date, Time: slot, ContactName: "N", ContactEmail: "n@x.com"}
		if err := store.Create(ctx, b); err != nil {
			t.Fatalf("Create returned error: %v", err)
		}
	}
	if got := store.AvailabilityStatus(ctx, date); got.Status != StatusFull || got.Remaining != 0 {
		t.Fatalf("full date: got %+v", got)
	}
}

func TestFutureSortsAscending(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	entries := []Booking{
		{Date: "2025-06-10", Time: "01:00 PM", ContactName: "C", ContactEmail: "c@x.com"},
		{Date: "2025-06-02", Time: "09:30 AM", ContactName: "A", ContactEmail: "a@x.com"},
		{Date: "2025-06-02", Time: "09:00 AM", ContactName: "B", ContactEmail: "b@x.com"},
		{Date: "2025-05-01", Time: "09:00 AM", ContactName: "D", ContactEmail: "d@x.com"},
	}
	for _, b := range entries {
		if err := store.Create(ctx, b); err != nil {
			t.Fatalf("Create returned error: %v", err)
		}
	}

	future := store.Future(ctx, "2025-06-01")
	if len(future) != 3 {
		t.Fatalf("expected 3 future bookings, got %d", len(future))
	}
	if future[0].Time != "09:00 AM" || future[1].Time != "09:30 AM" {
		t.Errorf("same-day bookings not in slot order: %+v", future)
	}
	if future[2].Date != "2025-06-10" {
		t.Errorf("expected last booking on 2025-06-10, got %s", future[2].Date)
	}
}

func TestListRecoversFromCorruptBlob(t *testing.T) {
	blob := NewMemoryBlobStore()
	if err := blob.Write(context.Background(), []byte("{not json")); err != nil {
		t.Fatalf("seed write failed: %v", err)
	}

	store := NewStore(blob, nil)
	if got := store.List(context.Background()); len(got) != 0 {
		t.Fatalf("corrupt blob should read as empty, got %d entries", len(got))
	}

	// The store stays usable: a create overwrites the corrupt blob.
	b := Booking{Date: "2025-06-02", Time: "09:00 AM", ContactName: "A", ContactEmail: "a@x.com"}
	if err := store.Create(context.Background(), b); err != nil {
		t.Fatalf("Create after corrupt blob returned error: %v", err)
	}
	if got := len(store.List(context.Background())); got != 1 {
		t.Fatalf("expected 1 booking, got %d", got)
	}
}

type failingBlob struct{}

func (failingBlob) Read(context.Context) ([]byte, error) {
	return nil, errors.New("backend down")
}

func (failingBlob) Write(context.Context, []byte) error {
	return errors.New("backend down")
}

func TestReadFailureTreatedAsEmpty(t *testing.T) {
	store := NewStore(failingBlob{}, nil)
	if got := store.List(context.Background()); len(got) != 0 {
		t.Fatalf("read failure should yield empty collection, got %d", len(got))
	}
	if store.IsSlotBooked(context.Background(), "2025-06-02", "09:00 AM") {
		t.Error("no slot can be booked when the backend is unreadable")
	}
}
