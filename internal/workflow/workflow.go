// Package workflow couples booking status changes to their calendar and
// email side effects. It is the only place where the three stores of
// record (bookings, calendar, outbound mail) are mutated together.
package workflow

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/mvillanueva/parokya/internal/model"
	"github.com/mvillanueva/parokya/internal/store"
)

// Notifier dispatches booking status emails.
type Notifier interface {
	SendAcceptance(model.Booking) error
	SendCancellation(model.Booking) error
}

type Workflow struct {
	bookings *store.BookingStore
	events   *store.EventStore
	notifier Notifier
	logger   *slog.Logger
}

func New(bookings *store.BookingStore, events *store.EventStore, notifier Notifier, logger *slog.Logger) *Workflow {
	return &Workflow{
		bookings: bookings,
		events:   events,
		notifier: notifier,
		logger:   logger,
	}
}

// Result reports what a transition actually did. EmailErr is set when the
// status and calendar writes committed but the notification failed; the
// committed state is never rolled back for a mail failure.
type Result struct {
	Booking      *model.Booking
	Event        *model.CalendarEvent
	EventDeleted bool
	EmailErr     error
}

// EventTitle is the derived calendar title for an accepted booking,
// e.g. "wedding - Ana Cruz".
func EventTitle(b model.Booking) string {
	return b.Type + " - " + b.Name()
}

// EventWindow derives the calendar start/end strings for a booking.
// Masses run an hour, everything else ninety minutes.
func EventWindow(date, timeOfDay, bookingType string) (start, end string, err error) {
	startT, err := time.ParseInLocation(model.EventTimeLayout, date+" "+timeOfDay, time.Local)
	if err != nil {
		return "", "", fmt.Errorf("parse booking start: %w", err)
	}
	endT := startT.Add(model.EventDuration(bookingType))
	return startT.Format(model.EventTimeLayout), endT.Format(model.EventTimeLayout), nil
}

// Transition moves a booking to newStatus and applies the side effects:
//
//   - accepted: upsert a calendar event keyed by the booking id and send
//     the acceptance email;
//   - cancelled after accepted: delete that calendar event and send the
//     cancellation email;
//   - cancelled otherwise: cancellation email only.
//
// A store failure aborts the remaining steps and is returned as the error;
// already-committed steps stay committed. Because the calendar upsert is
// idempotent, retrying a half-completed transition is safe.
func (w *Workflow) Transition(id, newStatus string) (*Result, error) {
	b, err := w.bookings.GetByID(id)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, nil
	}
	prior := b.Status

	if err := w.bookings.UpdateStatus(id, newStatus); err != nil {
		return nil, err
	}
	b.Status = newStatus
	res := &Result{Booking: b}

	switch {
	case newStatus == model.StatusAccepted:
		ev, err := w.upsertBookingEvent(*b)
		if err != nil {
			return nil, err
		}
		res.Event = ev
		res.EmailErr = w.notify(w.notifier.SendAcceptance, *b, "acceptance")

	case newStatus == model.StatusCancelled && prior == model.StatusAccepted:
		if err := w.events.Delete(b.ID); err != nil {
			return nil, err
		}
		res.EventDeleted = true
		res.EmailErr = w.notify(w.notifier.SendCancellation, *b, "cancellation")

	case newStatus == model.StatusCancelled:
		res.EmailErr = w.notify(w.notifier.SendCancellation, *b, "cancellation")
	}

	return res, nil
}

// SyncAccepted persists edited booking fields and, when the booking is
// already accepted, rewrites its calendar event from the edited values.
// The edit path sends no email; the parishioner was notified when the
// booking was first accepted.
func (w *Workflow) SyncAccepted(b *model.Booking) (*Result, error) {
	updated, err := w.bookings.Update(b)
	if err != nil {
		return nil, err
	}
	res := &Result{Booking: updated}

	if updated.Status == model.StatusAccepted {
		ev, err := w.upsertBookingEvent(*updated)
		if err != nil {
			return nil, err
		}
		res.Event = ev
	}

	return res, nil
}

func (w *Workflow) upsertBookingEvent(b model.Booking) (*model.CalendarEvent, error) {
	start, end, err := EventWindow(b.Date, b.Time, b.Type)
	if err != nil {
		return nil, err
	}
	return w.events.Upsert(b.ID, EventTitle(b), start, end, "", model.CalendarBooking, "")
}

func (w *Workflow) notify(send func(model.Booking) error, b model.Booking, kind string) error {
	if err := send(b); err != nil {
		w.logger.Error("send "+kind+" email", "booking_id", b.ID, "error", err)
		return fmt.Errorf("send %s email: %w", kind, err)
	}
	return nil
}
