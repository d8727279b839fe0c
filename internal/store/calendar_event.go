package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/mvillanueva/parokya/internal/model"
)

type EventStore struct {
	db *sql.DB
}

func NewEventStore(db *sql.DB) *EventStore {
	return &EventStore{db: db}
}

const eventCols = `id, title, start_time, end_time, description, calendar_id, rrule, created_at, updated_at`

func scanEvent(scanner interface{ Scan(...any) error }) (*model.CalendarEvent, error) {
	var e model.CalendarEvent
	err := scanner.Scan(&e.ID, &e.Title, &e.Start, &e.End, &e.Description, &e.CalendarID, &e.RRule,
		&e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Create persists a calendar event under a new store-assigned id.
func (s *EventStore) Create(title, start, end, description, calendarID, rrule string) (*model.CalendarEvent, error) {
	return s.Upsert(uuid.NewString(), title, start, end, description, calendarID, rrule)
}

// Upsert writes a calendar event under a caller-supplied id. Accepting a
// booking keys the event to its booking this way. Writing an existing id
// with identical fields is a no-op, so a retried acceptance cannot
// duplicate calendar side effects.
func (s *EventStore) Upsert(id, title, start, end, description, calendarID, rrule string) (*model.CalendarEvent, error) {
	existing, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	if existing != nil &&
		existing.Title == title && existing.Start == start && existing.End == end &&
		existing.Description == description && existing.CalendarID == calendarID && existing.RRule == rrule {
		return existing, nil
	}

	_, err = s.db.Exec(
		`INSERT INTO calendar_events (id, title, start_time, end_time, description, calendar_id, rrule)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   title = excluded.title,
		   start_time = excluded.start_time,
		   end_time = excluded.end_time,
		   description = excluded.description,
		   calendar_id = excluded.calendar_id,
		   rrule = excluded.rrule`,
		id, title, start, end, description, calendarID, rrule,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert calendar event: %w", err)
	}

	return s.GetByID(id)
}

func (s *EventStore) GetByID(id string) (*model.CalendarEvent, error) {
	row := s.db.QueryRow(`SELECT `+eventCols+` FROM calendar_events WHERE id = ?`, id)
	e, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get calendar event: %w", err)
	}
	return e, nil
}

// List returns the whole calendar ordered by start.
func (s *EventStore) List() ([]model.CalendarEvent, error) {
	return s.list(`SELECT ` + eventCols + ` FROM calendar_events ORDER BY start_time, id`)
}

// ListEvents returns the public events subset (calendar_id = "event"),
// distinct from masses and bookings.
func (s *EventStore) ListEvents() ([]model.CalendarEvent, error) {
	return s.list(`SELECT `+eventCols+` FROM calendar_events WHERE calendar_id = ? ORDER BY start_time, id`,
		model.CalendarEvents)
}

func (s *EventStore) list(query string, args ...any) ([]model.CalendarEvent, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query calendar events: %w", err)
	}
	defer rows.Close()

	events := []model.CalendarEvent{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan calendar event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

func (s *EventStore) Update(id, title, start, end, description, calendarID, rrule string) (*model.CalendarEvent, error) {
	_, err := s.db.Exec(
		`UPDATE calendar_events
		 SET title = ?, start_time = ?, end_time = ?, description = ?, calendar_id = ?, rrule = ?
		 WHERE id = ?`,
		title, start, end, description, calendarID, rrule, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update calendar event: %w", err)
	}

	return s.GetByID(id)
}

func (s *EventStore) Delete(id string) error {
	_, err := s.db.Exec(`DELETE FROM calendar_events WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete calendar event: %w", err)
	}
	return nil
}
