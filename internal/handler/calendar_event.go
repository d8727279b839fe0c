package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/mvillanueva/parokya/internal/ical"
	"github.com/mvillanueva/parokya/internal/model"
	"github.com/mvillanueva/parokya/internal/recurrence"
	"github.com/mvillanueva/parokya/internal/store"
	ws "github.com/mvillanueva/parokya/internal/websocket"
)

type CalendarEventHandler struct {
	eventStore *store.EventStore
	hub        *ws.Hub
	feedName   string
	logger     *slog.Logger
}

func NewCalendarEventHandler(es *store.EventStore, hub *ws.Hub, feedName string, logger *slog.Logger) *CalendarEventHandler {
	return &CalendarEventHandler{eventStore: es, hub: hub, feedName: feedName, logger: logger}
}

type recurrenceRequest struct {
	Frequency string   `json:"frequency"`
	Days      []string `json:"days"`
	Until     string   `json:"until"` // YYYY-MM-DD
}

type eventRequest struct {
	Title       string             `json:"title"`
	Start       string             `json:"start"`
	End         string             `json:"end"`
	Description string             `json:"description"`
	CalendarID  string             `json:"calendarId"`
	RRule       string             `json:"rrule"`
	Recurrence  *recurrenceRequest `json:"recurrence"`
}

// parseAndValidate checks an event payload and resolves its recurrence
// rule. All validation runs before any store write; a bad recurrence form
// blocks the submission entirely.
func (h *CalendarEventHandler) parseAndValidate(w http.ResponseWriter, r *http.Request) (*eventRequest, bool) {
	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return nil, false
	}

	errs := map[string]string{}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		errs["title"] = "title is required"
	}

	// Datetime-local inputs arrive as "YYYY-MM-DDTHH:mm"; the calendar
	// widget wants a space separator.
	req.Start = strings.Replace(strings.TrimSpace(req.Start), "T", " ", 1)
	req.End = strings.Replace(strings.TrimSpace(req.End), "T", " ", 1)

	start, err := time.Parse(model.EventTimeLayout, req.Start)
	if err != nil {
		errs["start"] = "start must be YYYY-MM-DD HH:mm"
	}
	end, err := time.Parse(model.EventTimeLayout, req.End)
	if err != nil {
		errs["end"] = "end must be YYYY-MM-DD HH:mm"
	}
	if len(errs) == 0 && !start.Before(end) {
		errs["end"] = "end must be after start"
	}

	if req.Recurrence != nil {
		var until time.Time
		if req.Recurrence.Until != "" {
			until, err = time.Parse("2006-01-02", req.Recurrence.Until)
			if err != nil {
				errs["recurrence.until"] = "until must be YYYY-MM-DD"
			}
		}
		if len(errs) == 0 {
			rule, err := recurrence.Build(req.Recurrence.Frequency, req.Recurrence.Days, until, start)
			if err != nil {
				errs["recurrence"] = err.Error()
			} else {
				req.RRule = rule
			}
		}
	} else if req.RRule != "" {
		if _, err := recurrence.Parse(req.RRule); err != nil {
			errs["rrule"] = "invalid recurrence rule"
		}
	}

	if len(errs) > 0 {
		writeFieldErrors(w, errs)
		return nil, false
	}

	return &req, true
}

func (h *CalendarEventHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, ok := h.parseAndValidate(w, r)
	if !ok {
		return
	}

	event, err := h.eventStore.Create(req.Title, req.Start, req.End, req.Description, req.CalendarID, req.RRule)
	if err != nil {
		h.logger.Error("create calendar event", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create event")
		return
	}

	h.hub.Broadcast(ws.NewMessage("calendar", "created", event.ID, nil))
	writeJSON(w, http.StatusCreated, event)
}

// List returns the whole calendar: masses, parish events, and accepted
// bookings. This feeds the public schedule page.
func (h *CalendarEventHandler) List(w http.ResponseWriter, r *http.Request) {
	events, err := h.eventStore.List()
	if err != nil {
		h.logger.Error("list calendar events", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list events")
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// ListEvents returns only entries tagged "event" — the public events page
// subset, distinct from masses and bookings.
func (h *CalendarEventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.eventStore.ListEvents()
	if err != nil {
		h.logger.Error("list events", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list events")
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (h *CalendarEventHandler) Get(w http.ResponseWriter, r *http.Request) {
	event, err := h.eventStore.GetByID(idParam(r))
	if err != nil {
		h.logger.Error("get calendar event", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get event")
		return
	}
	if event == nil {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}
	writeJSON(w, http.StatusOK, event)
}

func (h *CalendarEventHandler) Update(w http.ResponseWriter, r *http.Request) {
	existing, err := h.eventStore.GetByID(idParam(r))
	if err != nil {
		h.logger.Error("get calendar event", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get event")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}

	req, ok := h.parseAndValidate(w, r)
	if !ok {
		return
	}

	event, err := h.eventStore.Update(existing.ID, req.Title, req.Start, req.End, req.Description, req.CalendarID, req.RRule)
	if err != nil {
		h.logger.Error("update calendar event", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update event")
		return
	}

	h.hub.Broadcast(ws.NewMessage("calendar", "updated", event.ID, nil))
	writeJSON(w, http.StatusOK, event)
}

func (h *CalendarEventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	existing, err := h.eventStore.GetByID(idParam(r))
	if err != nil {
		h.logger.Error("get calendar event", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get event")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}

	if err := h.eventStore.Delete(existing.ID); err != nil {
		h.logger.Error("delete calendar event", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete event")
		return
	}

	h.hub.Broadcast(ws.NewMessage("calendar", "deleted", existing.ID, nil))
	w.WriteHeader(http.StatusNoContent)
}

// occurrence is one concrete slot on the schedule, recurring events
// already expanded.
type occurrence struct {
	EventID    string `json:"event_id"`
	Title      string `json:"title"`
	Start      string `json:"start"`
	End        string `json:"end"`
	CalendarID string `json:"calendarId,omitempty"`
}

// Occurrences returns the schedule between from and to (YYYY-MM-DD,
// default the next 60 days) with recurrence rules expanded into concrete
// slots. Agenda-style views consume this instead of expanding rrules
// themselves.
func (h *CalendarEventHandler) Occurrences(w http.ResponseWriter, r *http.Request) {
	from := time.Now().In(time.Local).Truncate(24 * time.Hour)
	if v := r.URL.Query().Get("from"); v != "" {
		t, err := time.ParseInLocation("2006-01-02", v, time.Local)
		if err != nil {
			writeError(w, http.StatusBadRequest, "from must be YYYY-MM-DD")
			return
		}
		from = t
	}
	to := from.AddDate(0, 0, 60)
	if v := r.URL.Query().Get("to"); v != "" {
		t, err := time.ParseInLocation("2006-01-02", v, time.Local)
		if err != nil {
			writeError(w, http.StatusBadRequest, "to must be YYYY-MM-DD")
			return
		}
		to = t.AddDate(0, 0, 1) // inclusive end date
	}
	if !from.Before(to) {
		writeError(w, http.StatusBadRequest, "to must be after from")
		return
	}

	events, err := h.eventStore.List()
	if err != nil {
		h.logger.Error("list calendar events", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list events")
		return
	}

	occurrences := []occurrence{}
	for _, e := range events {
		start, err := e.StartTime(time.Local)
		if err != nil {
			continue
		}
		end, err := e.EndTime(time.Local)
		if err != nil {
			continue
		}

		if e.RRule == "" {
			if start.Before(to) && end.After(from) {
				occurrences = append(occurrences, occurrence{
					EventID: e.ID, Title: e.Title,
					Start: e.Start, End: e.End, CalendarID: e.CalendarID,
				})
			}
			continue
		}

		rule, err := recurrence.Parse(e.RRule)
		if err != nil {
			h.logger.Warn("skipping event with bad rrule", "event_id", e.ID, "error", err)
			continue
		}
		for _, occ := range recurrence.Expand(rule, start, end, from, to) {
			occurrences = append(occurrences, occurrence{
				EventID:    e.ID,
				Title:      e.Title,
				Start:      occ.Start.Format(model.EventTimeLayout),
				End:        occ.End.Format(model.EventTimeLayout),
				CalendarID: e.CalendarID,
			})
		}
	}

	sort.Slice(occurrences, func(i, j int) bool {
		if occurrences[i].Start != occurrences[j].Start {
			return occurrences[i].Start < occurrences[j].Start
		}
		return occurrences[i].EventID < occurrences[j].EventID
	})

	writeJSON(w, http.StatusOK, occurrences)
}

// Feed serves the calendar as iCalendar for subscription from external
// calendar apps.
func (h *CalendarEventHandler) Feed(w http.ResponseWriter, r *http.Request) {
	events, err := h.eventStore.List()
	if err != nil {
		h.logger.Error("ics feed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to build feed")
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Write([]byte(ical.Feed(h.feedName, events, time.Local)))
}
