package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"github.com/mvillanueva/parokya/internal/model"
	"github.com/mvillanueva/parokya/internal/store"
	ws "github.com/mvillanueva/parokya/internal/websocket"
	"github.com/mvillanueva/parokya/internal/workflow"
)

var (
	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	phonePattern = regexp.MustCompile(`^[0-9+()\-\s]{7,20}$`)
)

type BookingHandler struct {
	bookingStore *store.BookingStore
	wf           *workflow.Workflow
	hub          *ws.Hub
	logger       *slog.Logger
}

func NewBookingHandler(bs *store.BookingStore, wf *workflow.Workflow, hub *ws.Hub, logger *slog.Logger) *BookingHandler {
	return &BookingHandler{bookingStore: bs, wf: wf, hub: hub, logger: logger}
}

type bookingRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Type      string `json:"type"`
	Date      string `json:"date"`
	Time      string `json:"time"`
}

func (req *bookingRequest) validate() map[string]string {
	errs := map[string]string{}

	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.Email = strings.TrimSpace(req.Email)
	req.Phone = strings.TrimSpace(req.Phone)

	if req.FirstName == "" {
		errs["first_name"] = "first name is required"
	}
	if req.LastName == "" {
		errs["last_name"] = "last name is required"
	}
	if req.Email == "" {
		errs["email"] = "email is required"
	} else if !emailPattern.MatchString(req.Email) {
		errs["email"] = "invalid email address"
	}
	if req.Phone == "" {
		errs["phone"] = "phone is required"
	} else if !phonePattern.MatchString(req.Phone) {
		errs["phone"] = "invalid phone number"
	}
	if req.Type == "" {
		errs["type"] = "booking type is required"
	} else if !model.ValidType(req.Type) {
		errs["type"] = "unknown booking type"
	}
	if req.Date == "" {
		errs["date"] = "date is required"
	} else if _, err := store.NormalizeDate(req.Date); err != nil {
		errs["date"] = "invalid date"
	}
	if req.Time == "" {
		errs["time"] = "time is required"
	} else if _, err := store.NormalizeTime(req.Time); err != nil {
		errs["time"] = "invalid time"
	}

	return errs
}

// Create handles the public booking form. New bookings always start pending.
func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req bookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if errs := req.validate(); len(errs) > 0 {
		writeFieldErrors(w, errs)
		return
	}

	b, err := h.bookingStore.Create(req.FirstName, req.LastName, req.Email, req.Phone, req.Type, req.Date, req.Time)
	if err != nil {
		h.logger.Error("create booking", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create booking")
		return
	}

	h.hub.Broadcast(ws.NewMessage("booking", "created", b.ID, nil))
	writeJSON(w, http.StatusCreated, b)
}

// List returns every booking for the admin console. Filtering into the
// pending/accepted/cancelled tabs happens client-side.
func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.bookingStore.List()
	if err != nil {
		h.logger.Error("list bookings", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list bookings")
		return
	}
	writeJSON(w, http.StatusOK, bookings)
}

// Accept approves a pending booking: status flips to accepted, the
// calendar gains an event keyed by the booking id, and the parishioner is
// emailed.
func (h *BookingHandler) Accept(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, model.StatusAccepted)
}

// Decline cancels a booking. If the booking had been accepted, its
// calendar event is removed first.
func (h *BookingHandler) Decline(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, model.StatusCancelled)
}

func (h *BookingHandler) transition(w http.ResponseWriter, r *http.Request, newStatus string) {
	res, err := h.wf.Transition(idParam(r), newStatus)
	if err != nil {
		h.logger.Error("booking transition", "status", newStatus, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update booking")
		return
	}
	if res == nil {
		writeError(w, http.StatusNotFound, "booking not found")
		return
	}

	h.broadcast(res)
	writeJSON(w, http.StatusOK, transitionResponse(res))
}

// Update edits a booking's fields. When the booking is already accepted
// its calendar event is rewritten to match; no email is re-sent on edit.
func (h *BookingHandler) Update(w http.ResponseWriter, r *http.Request) {
	existing, err := h.bookingStore.GetByID(idParam(r))
	if err != nil {
		h.logger.Error("get booking", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get booking")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "booking not found")
		return
	}

	var req bookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if errs := req.validate(); len(errs) > 0 {
		writeFieldErrors(w, errs)
		return
	}

	existing.FirstName = req.FirstName
	existing.LastName = req.LastName
	existing.Email = req.Email
	existing.Phone = req.Phone
	existing.Type = req.Type
	existing.Date = req.Date
	existing.Time = req.Time

	res, err := h.wf.SyncAccepted(existing)
	if err != nil {
		h.logger.Error("update booking", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update booking")
		return
	}

	h.broadcast(res)
	writeJSON(w, http.StatusOK, transitionResponse(res))
}

func (h *BookingHandler) broadcast(res *workflow.Result) {
	h.hub.Broadcast(ws.NewMessage("booking", "updated", res.Booking.ID, nil))
	if res.Event != nil {
		h.hub.Broadcast(ws.NewMessage("calendar", "updated", res.Event.ID, nil))
	}
	if res.EventDeleted {
		h.hub.Broadcast(ws.NewMessage("calendar", "deleted", res.Booking.ID, nil))
	}
}

// transitionResponse shapes the admin-facing result. Email failures ride
// along as a warning: the status and calendar writes are already
// committed and are not undone by a notification problem.
func transitionResponse(res *workflow.Result) map[string]any {
	out := map[string]any{"booking": res.Booking}
	if res.Event != nil {
		out["event"] = res.Event
	}
	if res.EmailErr != nil {
		out["warning"] = "booking updated, but the notification email failed to send"
	}
	return out
}
