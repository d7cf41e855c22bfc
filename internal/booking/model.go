package booking

import (
	"time"
)

// DateLayout is the canonical wire format for booking dates. Dates carry no
// time-zone component and are always interpreted in the consultant's zone.
const DateLayout = "2006-01-02"

// TimeSlots enumerates the bookable half-hour labels, morning window first,
// in canonical display order.
var TimeSlots = []string{
	"09:00 AM", "09:30 AM", "10:00 AM", "10:30 AM", "11:00 AM", "11:30 AM",
	"01:00 PM", "01:30 PM", "02:00 PM", "02:30 PM", "03:00 PM", "03:30 PM",
}

// Booking is one reserved consultation slot.
type Booking struct {
	Date         string `json:"date"`
	Time         string `json:"time"`
	ContactName  string `json:"contactName"`
	ContactEmail string `json:"contactEmail"`
	CreatedAt    string `json:"createdAt,omitempty"`
}

// Status classifies how much of a date remains bookable.
type Status string

const (
	StatusFull      Status = "full"
	StatusLimited   Status = "limited"
	StatusAvailable Status = "available"
)

// Availability reports the remaining slot count for a date and its class.
type Availability struct {
	Date      string `json:"date"`
	Remaining int    `json:"remaining"`
	Status    Status `json:"status"`
}

const limitedThreshold = 2

func classify(remaining int) Status {
	switch {
	case remaining <= 0:
		return StatusFull
	case remaining <= limitedThreshold:
		return StatusLimited
	default:
		return StatusAvailable
	}
}

// IsValidSlot reports whether label is one of the fixed time slots.
func IsValidSlot(label string) bool {
	for _, s := range TimeSlots {
		if s == label {
			return true
		}
	}
	return false
}

func slotIndex(label string) int {
	for i, s := range TimeSlots {
		if s == label {
			return i
		}
	}
	return len(TimeSlots)
}

// ParseDate validates a YYYY-MM-DD date string.
func ParseDate(date string) (time.Time, error) {
	return time.Parse(DateLayout, date)
}

// SelectableDates returns the next count weekday dates starting from the day
// after "from". Weekends and past dates are never offered.
func SelectableDates(from time.Time, count int) []string {
	dates := make([]string, 0, count)
	d := from
	for len(dates) < count {
		d = d.AddDate(0, 0, 1)
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		dates = append(dates, d.Format(DateLayout))
	}
	return dates
}
