package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mvillanueva/parokya/internal/database"
	"github.com/mvillanueva/parokya/internal/model"
	"github.com/mvillanueva/parokya/internal/store"
	ws "github.com/mvillanueva/parokya/internal/websocket"
	"github.com/mvillanueva/parokya/internal/workflow"
)

var errTest = errors.New("postmark down")

type stubNotifier struct {
	acceptances   int
	cancellations int
	err           error
}

func (s *stubNotifier) SendAcceptance(model.Booking) error {
	s.acceptances++
	return s.err
}

func (s *stubNotifier) SendCancellation(model.Booking) error {
	s.cancellations++
	return s.err
}

type bookingFixture struct {
	handler  *BookingHandler
	bookings *store.BookingStore
	events   *store.EventStore
	notifier *stubNotifier
}

func setupBookingHandler(t *testing.T) *bookingFixture {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	bookings := store.NewBookingStore(db)
	events := store.NewEventStore(db)
	notifier := &stubNotifier{}
	wf := workflow.New(bookings, events, notifier, slog.Default())
	hub := ws.NewHub(slog.Default())

	return &bookingFixture{
		handler:  NewBookingHandler(bookings, wf, hub, slog.Default()),
		bookings: bookings,
		events:   events,
		notifier: notifier,
	}
}

func validBookingBody() string {
	return `{
		"first_name": "Ana",
		"last_name": "Cruz",
		"email": "ana@example.com",
		"phone": "0912 555 0101",
		"type": "wedding",
		"date": "2026-03-01",
		"time": "14:30"
	}`
}

func TestBookingCreateHandler(t *testing.T) {
	f := setupBookingHandler(t)

	req := httptest.NewRequest("POST", "/api/bookings", strings.NewReader(validBookingBody()))
	rec := httptest.NewRecorder()
	f.handler.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}

	var got model.Booking
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Status != model.StatusPending {
		t.Errorf("status = %q, want %q", got.Status, model.StatusPending)
	}
	if got.ID == "" {
		t.Error("expected generated id")
	}
}

func TestBookingCreateValidation(t *testing.T) {
	f := setupBookingHandler(t)

	body := `{"first_name": "", "last_name": "Cruz", "email": "not-an-email", "phone": "12", "type": "picnic", "date": "soon", "time": "later"}`
	req := httptest.NewRequest("POST", "/api/bookings", strings.NewReader(body))
	rec := httptest.NewRecorder()
	f.handler.Create(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	var resp struct {
		Errors map[string]string `json:"errors"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, field := range []string{"first_name", "email", "phone", "type", "date", "time"} {
		if resp.Errors[field] == "" {
			t.Errorf("expected validation error for %q", field)
		}
	}

	// Nothing persisted
	all, err := f.bookings.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("bookings = %d, want 0", len(all))
	}
}

func TestBookingCreateBadJSON(t *testing.T) {
	f := setupBookingHandler(t)

	req := httptest.NewRequest("POST", "/api/bookings", strings.NewReader("{nope"))
	rec := httptest.NewRecorder()
	f.handler.Create(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestBookingAcceptHandler(t *testing.T) {
	f := setupBookingHandler(t)
	b, err := f.bookings.Create("Ana", "Cruz", "ana@example.com", "0912", model.TypeWedding, "2026-03-01", "14:30")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	req := httptest.NewRequest("POST", "/api/bookings/"+b.ID+"/accept", nil)
	req.SetPathValue("id", b.ID)
	rec := httptest.NewRecorder()
	f.handler.Accept(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	var resp struct {
		Booking model.Booking        `json:"booking"`
		Event   *model.CalendarEvent `json:"event"`
		Warning string               `json:"warning"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Booking.Status != model.StatusAccepted {
		t.Errorf("status = %q, want %q", resp.Booking.Status, model.StatusAccepted)
	}
	if resp.Event == nil || resp.Event.ID != b.ID {
		t.Errorf("event = %+v, want id %q", resp.Event, b.ID)
	}
	if resp.Warning != "" {
		t.Errorf("unexpected warning: %q", resp.Warning)
	}
	if f.notifier.acceptances != 1 {
		t.Errorf("acceptance emails = %d, want 1", f.notifier.acceptances)
	}
}

func TestBookingAcceptNotFound(t *testing.T) {
	f := setupBookingHandler(t)

	req := httptest.NewRequest("POST", "/api/bookings/missing/accept", nil)
	req.SetPathValue("id", "missing")
	rec := httptest.NewRecorder()
	f.handler.Accept(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestBookingDeclineWithEmailFailureWarns(t *testing.T) {
	f := setupBookingHandler(t)
	f.notifier.err = errTest
	b, err := f.bookings.Create("Ana", "Cruz", "ana@example.com", "0912", model.TypeWedding, "2026-03-01", "14:30")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	req := httptest.NewRequest("POST", "/api/bookings/"+b.ID+"/decline", nil)
	req.SetPathValue("id", b.ID)
	rec := httptest.NewRecorder()
	f.handler.Decline(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp["warning"] == nil {
		t.Error("expected warning about failed email")
	}

	got, err := f.bookings.GetByID(b.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != model.StatusCancelled {
		t.Errorf("status = %q, want %q", got.Status, model.StatusCancelled)
	}
}

func TestBookingUpdateHandler(t *testing.T) {
	f := setupBookingHandler(t)
	b, err := f.bookings.Create("Ana", "Cruz", "ana@example.com", "0912 555 0101", model.TypeWedding, "2026-03-01", "14:30")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.handler.wf.Transition(b.ID, model.StatusAccepted); err != nil {
		t.Fatalf("accept: %v", err)
	}
	emailsBefore := f.notifier.acceptances

	body := `{
		"first_name": "Ana",
		"last_name": "Cruz",
		"email": "ana@example.com",
		"phone": "0912 555 0101",
		"type": "wedding",
		"date": "2026-03-08",
		"time": "10:00"
	}`
	req := httptest.NewRequest("PUT", "/api/bookings/"+b.ID, strings.NewReader(body))
	req.SetPathValue("id", b.ID)
	rec := httptest.NewRecorder()
	f.handler.Update(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	// Calendar event follows the edit; no email re-sent
	ev, err := f.events.GetByID(b.ID)
	if err != nil || ev == nil {
		t.Fatalf("get event: %v, %v", ev, err)
	}
	if ev.Start != "2026-03-08 10:00" {
		t.Errorf("start = %q, want %q", ev.Start, "2026-03-08 10:00")
	}
	if f.notifier.acceptances != emailsBefore {
		t.Errorf("acceptance emails = %d, want %d", f.notifier.acceptances, emailsBefore)
	}
}

func TestBookingUpdateNotFound(t *testing.T) {
	f := setupBookingHandler(t)

	req := httptest.NewRequest("PUT", "/api/bookings/missing", strings.NewReader(validBookingBody()))
	req.SetPathValue("id", "missing")
	rec := httptest.NewRecorder()
	f.handler.Update(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestBookingListHandler(t *testing.T) {
	f := setupBookingHandler(t)
	if _, err := f.bookings.Create("Ana", "Cruz", "ana@example.com", "0912", model.TypeWedding, "2026-03-01", "14:30"); err != nil {
		t.Fatalf("create: %v", err)
	}

	req := httptest.NewRequest("GET", "/api/bookings", nil)
	rec := httptest.NewRecorder()
	f.handler.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var got []model.Booking
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("len = %d, want 1", len(got))
	}
}
