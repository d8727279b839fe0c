// Package ical serializes the parish calendar as an iCalendar feed so the
// schedule can be subscribed to from any calendar app.
package ical

import (
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/mvillanueva/parokya/internal/model"
)

const prodID = "-//Parokya//Parish Calendar//EN"

// Feed renders the given events as a VCALENDAR. Event start/end strings
// are interpreted in loc, the parish's local time zone. Recurrence rules
// are carried through verbatim; stored rules use the UNTIL-terminated
// subset every consumer of this calendar understands. Rows with
// unparsable times are skipped rather than poisoning the whole feed.
func Feed(name string, events []model.CalendarEvent, loc *time.Location) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(prodID)
	cal.SetXWRCalName(name)

	now := time.Now().UTC()

	for _, e := range events {
		start, err := e.StartTime(loc)
		if err != nil {
			continue
		}
		end, err := e.EndTime(loc)
		if err != nil {
			continue
		}

		ev := cal.AddEvent(e.ID)
		ev.SetDtStampTime(now)
		ev.SetStartAt(start)
		ev.SetEndAt(end)
		ev.SetSummary(e.Title)
		if e.Description != "" {
			ev.SetDescription(e.Description)
		}
		if e.CalendarID != "" {
			ev.SetProperty(ics.ComponentPropertyCategories, e.CalendarID)
		}
		if e.RRule != "" {
			ev.AddRrule(e.RRule)
		}
	}

	return cal.Serialize()
}
