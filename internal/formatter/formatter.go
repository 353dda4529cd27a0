// Package formatter converts syllabus events into Google Calendar event
// payloads. Formatting is pure: no network calls, no mutation of inputs.
package formatter

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"google.golang.org/api/calendar/v3"

	"github.com/gilxsilva/hackharvard-2025-sub000/internal/domain"
)

// productTag opens every event description so students can tell exported
// events apart from ones they created by hand.
const productTag = "Added from Chrona 📚"

// MalformedDateError reports an event date that is not a valid MM/DD/YYYY
// calendar date.
type MalformedDateError struct {
	Input string
}

func (e *MalformedDateError) Error() string {
	return fmt.Sprintf("invalid event date %q: expected MM/DD/YYYY", e.Input)
}

// MalformedTimeError reports a start/end time that is not a valid
// "H:MM AM|PM" clock time, or a range with only one side present.
type MalformedTimeError struct {
	Input  string
	Reason string
}

func (e *MalformedTimeError) Error() string {
	return fmt.Sprintf("invalid event time %q: %s", e.Input, e.Reason)
}

// colorIDs maps event categories to Google Calendar color ids.
var colorIDs = map[domain.Category]string{
	domain.CategoryExam:       "11", // Tomato
	domain.CategoryAssignment: "5",  // Banana
	domain.CategoryClass:      "9",  // Blueberry
	domain.CategoryReminder:   "2",  // Sage
}

// Format converts one syllabus event plus its course metadata into a
// Google Calendar event payload in the given location. Events with both a
// start and an end time become timed events; events with neither become
// all-day events. A range with exactly one side present is rejected rather
// than silently demoted to all-day.
func Format(event domain.Event, course domain.CourseMeta, loc *time.Location) (*calendar.Event, error) {
	if strings.TrimSpace(event.Title) == "" {
		return nil, fmt.Errorf("event title is required")
	}

	year, month, day, err := parseDate(event.Date)
	if err != nil {
		return nil, err
	}

	category := domain.ParseCategory(event.Category)

	out := &calendar.Event{
		Summary:     event.Title,
		Description: buildDescription(course),
		Location:    event.Location,
		Reminders: &calendar.EventReminders{
			UseDefault: false,
			Overrides:  reminderOverrides(category),
			// UseDefault is false, which the API client would otherwise
			// drop from the request body.
			ForceSendFields: []string{"UseDefault"},
		},
	}
	if colorID, ok := colorIDs[category]; ok {
		out.ColorId = colorID
	}

	hasStart := strings.TrimSpace(event.StartTime) != ""
	hasEnd := strings.TrimSpace(event.EndTime) != ""
	switch {
	case hasStart && hasEnd:
		startHour, startMin, err := parseClockTime(event.StartTime)
		if err != nil {
			return nil, err
		}
		endHour, endMin, err := parseClockTime(event.EndTime)
		if err != nil {
			return nil, err
		}
		start := time.Date(year, time.Month(month), day, startHour, startMin, 0, 0, loc)
		end := time.Date(year, time.Month(month), day, endHour, endMin, 0, 0, loc)
		out.Start = &calendar.EventDateTime{
			DateTime: start.Format(time.RFC3339),
			TimeZone: loc.String(),
		}
		out.End = &calendar.EventDateTime{
			DateTime: end.Format(time.RFC3339),
			TimeZone: loc.String(),
		}
	case !hasStart && !hasEnd:
		date := fmt.Sprintf("%04d-%02d-%02d", year, month, day)
		out.Start = &calendar.EventDateTime{Date: date, TimeZone: loc.String()}
		out.End = &calendar.EventDateTime{Date: date, TimeZone: loc.String()}
	default:
		return nil, &MalformedTimeError{
			Input:  event.StartTime + "-" + event.EndTime,
			Reason: "startTime and endTime must both be present or both be absent",
		}
	}

	return out, nil
}

// parseDate parses a strict MM/DD/YYYY date and rejects dates that do not
// exist on the calendar (e.g. 02/30/2025).
func parseDate(input string) (year, month, day int, err error) {
	parts := strings.Split(strings.TrimSpace(input), "/")
	if len(parts) != 3 {
		return 0, 0, 0, &MalformedDateError{Input: input}
	}
	month, errM := strconv.Atoi(parts[0])
	day, errD := strconv.Atoi(parts[1])
	year, errY := strconv.Atoi(parts[2])
	if errM != nil || errD != nil || errY != nil || month < 1 || day < 1 || year < 1 {
		return 0, 0, 0, &MalformedDateError{Input: input}
	}

	// time.Date normalizes overflow (Feb 30 becomes Mar 2), so a round-trip
	// comparison catches nonexistent dates.
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || t.Month() != time.Month(month) || t.Day() != day {
		return 0, 0, 0, &MalformedDateError{Input: input}
	}
	return year, month, day, nil
}

// parseClockTime parses "H:MM AM|PM" (meridiem case-insensitive, the space
// before it optional) into 24-hour clock components.
func parseClockTime(input string) (hour, minute int, err error) {
	s := strings.ToUpper(strings.TrimSpace(input))

	var meridiem string
	switch {
	case strings.HasSuffix(s, "AM"):
		meridiem = "AM"
	case strings.HasSuffix(s, "PM"):
		meridiem = "PM"
	default:
		return 0, 0, &MalformedTimeError{Input: input, Reason: "missing AM/PM"}
	}
	s = strings.TrimSpace(strings.TrimSuffix(s, meridiem))

	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, 0, &MalformedTimeError{Input: input, Reason: "expected H:MM"}
	}
	hour, errH := strconv.Atoi(parts[0])
	minute, errM := strconv.Atoi(parts[1])
	if errH != nil || errM != nil || hour < 1 || hour > 12 || minute < 0 || minute > 59 {
		return 0, 0, &MalformedTimeError{Input: input, Reason: "expected H:MM on a 12-hour clock"}
	}

	// 12 AM is midnight, 12 PM is noon.
	if meridiem == "AM" && hour == 12 {
		hour = 0
	} else if meridiem == "PM" && hour != 12 {
		hour += 12
	}
	return hour, minute, nil
}

// buildDescription composes the fixed-order event description: product tag,
// then course name, then course code, omitting absent lines.
func buildDescription(course domain.CourseMeta) string {
	var b strings.Builder
	b.WriteString(productTag)
	if course.CourseName != "" {
		b.WriteString("\nCourse: " + course.CourseName)
	}
	if course.CourseCode != "" {
		b.WriteString("\nCode: " + course.CourseCode)
	}
	return b.String()
}

// reminderOverrides returns the reminder policy for a category.
// Exams and assignments get an early email on top of the day-before popup;
// classes get a short popup; everything else gets the 30-minute default.
func reminderOverrides(category domain.Category) []*calendar.EventReminder {
	switch category {
	case domain.CategoryExam:
		return []*calendar.EventReminder{
			{Method: "popup", Minutes: 1440},  // 1 day
			{Method: "email", Minutes: 10080}, // 1 week
		}
	case domain.CategoryAssignment:
		return []*calendar.EventReminder{
			{Method: "popup", Minutes: 1440}, // 1 day
			{Method: "email", Minutes: 4320}, // 3 days
		}
	case domain.CategoryClass:
		return []*calendar.EventReminder{
			{Method: "popup", Minutes: 10},
		}
	default:
		return []*calendar.EventReminder{
			{Method: "popup", Minutes: 30},
		}
	}
}
