package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mvillanueva/parokya/internal/model"
)

type BookingStore struct {
	db *sql.DB
}

func NewBookingStore(db *sql.DB) *BookingStore {
	return &BookingStore{db: db}
}

const bookingCols = `id, first_name, last_name, email, phone, booking_type, date, time, status, created_at, updated_at`

func scanBooking(scanner interface{ Scan(...any) error }) (*model.Booking, error) {
	var b model.Booking
	err := scanner.Scan(&b.ID, &b.FirstName, &b.LastName, &b.Email, &b.Phone, &b.Type,
		&b.Date, &b.Time, &b.Status, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// Create normalizes the submitted date and time to the canonical
// YYYY-MM-DD / 24-hour HH:MM strings and persists a new pending booking.
func (s *BookingStore) Create(firstName, lastName, email, phone, bookingType, date, timeOfDay string) (*model.Booking, error) {
	normDate, err := NormalizeDate(date)
	if err != nil {
		return nil, fmt.Errorf("normalize date: %w", err)
	}
	normTime, err := NormalizeTime(timeOfDay)
	if err != nil {
		return nil, fmt.Errorf("normalize time: %w", err)
	}

	id := uuid.NewString()
	_, err = s.db.Exec(
		`INSERT INTO bookings (id, first_name, last_name, email, phone, booking_type, date, time, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, firstName, lastName, email, phone, bookingType, normDate, normTime, model.StatusPending,
	)
	if err != nil {
		return nil, fmt.Errorf("insert booking: %w", err)
	}

	return s.GetByID(id)
}

func (s *BookingStore) GetByID(id string) (*model.Booking, error) {
	row := s.db.QueryRow(`SELECT `+bookingCols+` FROM bookings WHERE id = ?`, id)
	b, err := scanBooking(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}
	return b, nil
}

// List returns every booking, oldest service date first. An empty table
// yields an empty slice, not an error.
func (s *BookingStore) List() ([]model.Booking, error) {
	rows, err := s.db.Query(`SELECT ` + bookingCols + ` FROM bookings ORDER BY date, time, id`)
	if err != nil {
		return nil, fmt.Errorf("query bookings: %w", err)
	}
	defer rows.Close()

	bookings := []model.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

// Update overwrites a booking's mutable fields. Date and time pass through
// the same normalization as Create so edited values stay canonical.
func (s *BookingStore) Update(b *model.Booking) (*model.Booking, error) {
	normDate, err := NormalizeDate(b.Date)
	if err != nil {
		return nil, fmt.Errorf("normalize date: %w", err)
	}
	normTime, err := NormalizeTime(b.Time)
	if err != nil {
		return nil, fmt.Errorf("normalize time: %w", err)
	}

	_, err = s.db.Exec(
		`UPDATE bookings
		 SET first_name = ?, last_name = ?, email = ?, phone = ?, booking_type = ?, date = ?, time = ?, status = ?
		 WHERE id = ?`,
		b.FirstName, b.LastName, b.Email, b.Phone, b.Type, normDate, normTime, b.Status, b.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update booking: %w", err)
	}

	return s.GetByID(b.ID)
}

func (s *BookingStore) UpdateStatus(id, status string) error {
	_, err := s.db.Exec(`UPDATE bookings SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("update booking status: %w", err)
	}
	return nil
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04",
	"01/02/2006",
}

// NormalizeDate parses a submitted date value and formats it as YYYY-MM-DD.
// The clock fields are taken as supplied; no time zone conversion happens.
func NormalizeDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02"), nil
		}
	}
	return "", fmt.Errorf("unrecognized date %q", s)
}

var timeLayouts = []string{
	"15:04",
	"15:04:05",
	"3:04 PM",
	"3:04PM",
	time.RFC3339,
	"2006-01-02T15:04",
}

// NormalizeTime parses a submitted time value and formats it as 24-hour HH:MM.
func NormalizeTime(s string) (string, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("15:04"), nil
		}
	}
	return "", fmt.Errorf("unrecognized time %q", s)
}
