package notify

import (
	"context"
	"fmt"

	"github.com/dmorgan-dev/consulting-site/internal/booking"
	"github.com/dmorgan-dev/consulting-site/pkg/logging"
)

// Service renders and sends the site's transactional emails: booking
// confirmations and cancellations to the visitor, contact-form messages to
// the consultant.
type Service struct {
	sender          EmailSender
	consultantEmail string
	logger          *logging.Logger
}

// NewService creates a notification service over the given sender.
func NewService(sender EmailSender, consultantEmail string, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		sender:          sender,
		consultantEmail: consultantEmail,
		logger:          logger,
	}
}

// SendBookingConfirmation emails the visitor their consultation details and
// copies the consultant.
func (s *Service) SendBookingConfirmation(ctx context.Context, b booking.Booking) error {
	if s == nil || s.sender == nil {
		return nil
	}

	msg := EmailMessage{
		To:      b.ContactEmail,
		ToName:  b.ContactName,
		Subject: fmt.Sprintf("Consultation confirmed for %s at %s", b.Date, b.Time),
		Body: fmt.Sprintf(
			"Hi %s,\n\nYour consultation is booked for %s at %s.\n\n"+
				"If you need to reschedule, cancel this slot on the site and pick another.\n\n"+
				"Talk soon,\nMorgan Consulting",
			b.ContactName, b.Date, b.Time,
		),
	}
	if err := s.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("notify: booking confirmation: %w", err)
	}

	s.copyConsultant(ctx,
		fmt.Sprintf("New consultation: %s at %s", b.Date, b.Time),
		fmt.Sprintf("%s (%s) booked %s at %s.", b.ContactName, b.ContactEmail, b.Date, b.Time),
	)
	return nil
}

// SendBookingCancellation emails the visitor that their slot was released.
func (s *Service) SendBookingCancellation(ctx context.Context, b booking.Booking) error {
	if s == nil || s.sender == nil {
		return nil
	}

	msg := EmailMessage{
		To:      b.ContactEmail,
		ToName:  b.ContactName,
		Subject: fmt.Sprintf("Consultation cancelled: %s at %s", b.Date, b.Time),
		Body: fmt.Sprintf(
			"Hi %s,\n\nYour consultation on %s at %s has been cancelled.\n"+
				"You can book a new slot on the site any time.\n\nMorgan Consulting",
			b.ContactName, b.Date, b.Time,
		),
	}
	if err := s.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("notify: booking cancellation: %w", err)
	}

	s.copyConsultant(ctx,
		fmt.Sprintf("Cancelled consultation: %s at %s", b.Date, b.Time),
		fmt.Sprintf("%s (%s) cancelled %s at %s.", b.ContactName, b.ContactEmail, b.Date, b.Time),
	)
	return nil
}

// SendContactMessage forwards a contact-form submission to the consultant.
func (s *Service) SendContactMessage(ctx context.Context, name, email, message string) error {
	if s == nil || s.sender == nil {
		return nil
	}
	if s.consultantEmail == "" {
		return fmt.Errorf("notify: consultant email not configured")
	}

	msg := EmailMessage{
		To:      s.consultantEmail,
		ToName:  "Morgan Consulting",
		Subject: fmt.Sprintf("Website inquiry from %s", name),
		Body:    fmt.Sprintf("From: %s <%s>\n\n%s", name, email, message),
	}
	if err := s.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("notify: contact message: %w", err)
	}
	return nil
}

// copyConsultant is best-effort; a failed copy never fails the caller's flow.
func (s *Service) copyConsultant(ctx context.Context, subject, body string) {
	if s.consultantEmail == "" {
		return
	}
	err := s.sender.Send(ctx, EmailMessage{
		To:      s.consultantEmail,
		ToName:  "Morgan Consulting",
		Subject: subject,
		Body:    body,
	})
	if err != nil {
		s.logger.Warn("consultant copy failed", "error", err, "subject", subject)
	}
}

var _ booking.ConfirmationSender = (*Service)(nil)
