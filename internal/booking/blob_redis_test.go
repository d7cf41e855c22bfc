package booking

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisBlob(t *testing.T) *RedisBlobStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisBlobStore(client, "test_bookings")
}

func TestRedisBlobRoundTrip(t *testing.T) {
	blob := newRedisBlob(t)
	ctx := context.Background()

	if _, err := blob.Read(ctx); !errors.Is(err, ErrBlobNotFound) {
		t.Fatalf("expected ErrBlobNotFound on fresh key, got %v", err)
	}

	if err := blob.Write(ctx, []byte(`[{"date":"2025-06-02"}]`)); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	raw, err := blob.Read(ctx)
	if err != nil {
		t.Fatalf("Read returned error: %v", err)
	}
	if string(raw) != `[{"date":"2025-06-02"}]` {
		t.Errorf("unexpected blob content: %s", raw)
	}
}

func TestStoreOverRedisBlob(t *testing.T) {
	store := NewStore(newRedisBlob(t), nil)
	ctx := context.Background()

	b := Booking{Date: "2025-06-02", Time: "09:00 AM", ContactName: "A", ContactEmail: "a@x.com"}
	if err := store.Create(ctx, b); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if !store.IsSlotBooked(ctx, "2025-06-02", "09:00 AM") {
		t.Error("expected slot booked through redis backend")
	}
	if err := store.Delete(ctx, "2025-06-02", "09:00 AM"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if store.IsSlotBooked(ctx, "2025-06-02", "09:00 AM") {
		t.Error("slot still booked after delete")
	}
}
