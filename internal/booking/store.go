package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/dmorgan-dev/consulting-site/pkg/logging"
)

// ErrBlobNotFound is returned by BlobStore implementations when the named
// blob has never been written. The store treats it as an empty collection.
var ErrBlobNotFound = errors.New("booking: blob not found")

// ErrSlotTaken is returned by Create when the (date, time) pair is already
// booked.
var ErrSlotTaken = errors.New("booking: slot already booked")

// BlobStore reads and writes the single serialized booking collection.
// Implementations can be swapped (Redis, DynamoDB, memory) without touching
// call sites.
type BlobStore interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
}

var storeTracer = otel.Tracer("consulting.internal.booking")

// Store is the single source of truth for which consultation slots are taken.
// It is single-writer by design: the whole collection is read and written
// wholesale on every mutation, last writer wins.
type Store struct {
	blob   BlobStore
	logger *logging.Logger
}

// NewStore creates a booking store over the given blob backend.
func NewStore(blob BlobStore, logger *logging.Logger) *Store {
	if blob == nil {
		panic("booking: blob store required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Store{blob: blob, logger: logger}
}

// List returns every live booking. An absent or unparseable blob yields an
// empty collection, never an error.
func (s *Store) List(ctx context.Context) []Booking {
	raw, err := s.blob.Read(ctx)
	if err != nil {
		if !errors.Is(err, ErrBlobNotFound) {
			s.logger.Warn("booking: blob read failed, treating as empty", "error", err)
		}
		return []Booking{}
	}

	var bookings []Booking
	if err := json.Unmarshal(raw, &bookings); err != nil {
		s.logger.Warn("booking: blob corrupt, treating as empty", "error", err)
		return []Booking{}
	}
	return bookings
}

// IsSlotBooked reports whether some booking matches both date and time
// exactly.
func (s *Store) IsSlotBooked(ctx context.Context, date, timeLabel string) bool {
	for _, b := range s.List(ctx) {
		if b.Date == date && b.Time == timeLabel {
			return true
		}
	}
	return false
}

// AvailableSlots returns the fixed slot enumeration minus the labels already
// booked on date, preserving canonical order.
func (s *Store) AvailableSlots(ctx context.Context, date string) []string {
	booked := make(map[string]struct{})
	for _, b := range s.List(ctx) {
		if b.Date == date {
			booked[b.Time] = struct{}{}
		}
	}

	free := make([]string, 0, len(TimeSlots))
	for _, slot := range TimeSlots {
		if _, taken := booked[slot]; !taken {
			free = append(free, slot)
		}
	}
	return free
}

// AvailabilityStatus classifies a date by its remaining slot count.
func (s *Store) AvailabilityStatus(ctx context.Context, date string) Availability {
	remaining := len(s.AvailableSlots(ctx, date))
	return Availability{
		Date:      date,
		Remaining: remaining,
		Status:    classify(remaining),
	}
}

// Create appends a booking and writes back the full collection. A slot that
// is already booked is rejected with ErrSlotTaken.
func (s *Store) Create(ctx context.Context, b Booking) error {
	ctx, span := storeTracer.Start(ctx, "booking.create")
	defer span.End()
	span.SetAttributes(
		attribute.String("booking.date", b.Date),
		attribute.String("booking.time", b.Time),
	)

	if _, err := ParseDate(b.Date); err != nil {
		return fmt.Errorf("booking: invalid date %q: %w", b.Date, err)
	}
	if !IsValidSlot(b.Time) {
		return fmt.Errorf("booking: invalid time slot %q", b.Time)
	}

	bookings := s.List(ctx)
	for _, existing := range bookings {
		if existing.Date == b.Date && existing.Time == b.Time {
			return ErrSlotTaken
		}
	}

	if b.CreatedAt == "" {
		b.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	bookings = append(bookings, b)

	if err := s.write(ctx, bookings); err != nil {
		span.RecordError(err)
		return err
	}
	s.logger.Info("booking created", "date", b.Date, "time", b.Time)
	return nil
}

// Delete removes the first booking matching (date, time) and writes back the
// filtered collection. A missing match is a no-op, not an error.
func (s *Store) Delete(ctx context.Context, date, timeLabel string) error {
	ctx, span := storeTracer.Start(ctx, "booking.delete")
	defer span.End()

	bookings := s.List(ctx)
	filtered := make([]Booking, 0, len(bookings))
	removed := false
	for _, b := range bookings {
		if !removed && b.Date == date && b.Time == timeLabel {
			removed = true
			continue
		}
		filtered = append(filtered, b)
	}
	if !removed {
		return nil
	}

	if err := s.write(ctx, filtered); err != nil {
		span.RecordError(err)
		return err
	}
	s.logger.Info("booking cancelled", "date", date, "time", timeLabel)
	return nil
}

// Future returns all bookings on or after referenceDate, sorted ascending by
// date and then by slot order within a date.
func (s *Store) Future(ctx context.Context, referenceDate string) []Booking {
	out := make([]Booking, 0)
	for _, b := range s.List(ctx) {
		if b.Date >= referenceDate {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return slotIndex(out[i].Time) < slotIndex(out[j].Time)
	})
	return out
}

func (s *Store) write(ctx context.Context, bookings []Booking) error {
	data, err := json.Marshal(bookings)
	if err != nil {
		return fmt.Errorf("booking: marshal collection: %w", err)
	}
	if err := s.blob.Write(ctx, data); err != nil {
		return fmt.Errorf("booking: blob write: %w", err)
	}
	return nil
}
