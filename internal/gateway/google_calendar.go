// Package gateway adapts the Google Calendar API for the export pipeline:
// single-shot event creation and course calendar provisioning.
package gateway

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// requestTimeout bounds every calendar API call so a hung connection cannot
// stall a batch indefinitely.
const requestTimeout = 30 * time.Second

// calendarAPI is the narrow slice of the Google Calendar service the
// gateway uses, split out so tests can substitute a mock.
type calendarAPI interface {
	InsertEvent(ctx context.Context, calendarID string, event *calendar.Event) (*calendar.Event, error)
	InsertCalendar(ctx context.Context, cal *calendar.Calendar) (*calendar.Calendar, error)
	ListCalendars(ctx context.Context) ([]*calendar.CalendarListEntry, error)
}

// googleCalendarAPI is the real implementation backed by *calendar.Service.
type googleCalendarAPI struct {
	service *calendar.Service
}

func (a *googleCalendarAPI) InsertEvent(ctx context.Context, calendarID string, event *calendar.Event) (*calendar.Event, error) {
	return a.service.Events.Insert(calendarID, event).Context(ctx).Do()
}

func (a *googleCalendarAPI) InsertCalendar(ctx context.Context, cal *calendar.Calendar) (*calendar.Calendar, error) {
	return a.service.Calendars.Insert(cal).Context(ctx).Do()
}

func (a *googleCalendarAPI) ListCalendars(ctx context.Context) ([]*calendar.CalendarListEntry, error) {
	list, err := a.service.CalendarList.List().Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return list.Items, nil
}

// GoogleCalendarGateway creates events and calendars on behalf of one
// caller's OAuth token. It performs exactly one API call per operation;
// retry policy lives with the caller.
type GoogleCalendarGateway struct {
	api calendarAPI
}

// NewGoogleCalendarGateway builds a gateway from the caller's OAuth access
// token. The token must carry calendar write scope; it is used for this
// gateway's lifetime and never persisted.
func NewGoogleCalendarGateway(ctx context.Context, accessToken string) (*GoogleCalendarGateway, error) {
	if accessToken == "" {
		return nil, fmt.Errorf("access token is required")
	}

	tokenSource := oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	})
	httpClient := oauth2.NewClient(ctx, tokenSource)
	httpClient.Timeout = requestTimeout

	service, err := calendar.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}

	return &GoogleCalendarGateway{api: &googleCalendarAPI{service: service}}, nil
}

// NewGoogleCalendarGatewayWithAPI builds a gateway around a caller-supplied
// API implementation. Used by tests.
func NewGoogleCalendarGatewayWithAPI(api calendarAPI) *GoogleCalendarGateway {
	return &GoogleCalendarGateway{api: api}
}

// InsertEvent creates one event on the named calendar and returns the
// provider-assigned event id. Single shot: a non-2xx response surfaces as
// *HTTPError with no retry.
func (g *GoogleCalendarGateway) InsertEvent(ctx context.Context, calendarID string, event *calendar.Event) (string, error) {
	created, err := g.api.InsertEvent(ctx, calendarID, event)
	if err != nil {
		return "", asHTTPError(err)
	}
	return created.Id, nil
}

// EnsureCalendar returns the id of a dedicated calendar for the course,
// reusing an existing calendar with the same name before creating one so a
// re-exported syllabus does not pile up duplicates. Creation failure
// surfaces as *CalendarCreationError; the caller decides the fallback.
func (g *GoogleCalendarGateway) EnsureCalendar(ctx context.Context, courseName, courseCode string) (string, error) {
	summary := calendarSummary(courseCode)

	// Lookup failure is not fatal; worst case we create a duplicate.
	if entries, err := g.api.ListCalendars(ctx); err == nil {
		for _, entry := range entries {
			if entry.Summary == summary {
				return entry.Id, nil
			}
		}
	}

	description := "Course events added from Chrona"
	if courseName != "" {
		description = fmt.Sprintf("%s events, added from Chrona", courseName)
	}

	created, err := g.api.InsertCalendar(ctx, &calendar.Calendar{
		Summary:     summary,
		Description: description,
	})
	if err != nil {
		return "", &CalendarCreationError{CourseCode: courseCode, Err: asHTTPError(err)}
	}
	return created.Id, nil
}

// courseEmojis maps course code keywords to a calendar emoji, checked in
// order. Codes matching nothing get the default book.
var courseEmojis = []struct {
	keyword string
	emoji   string
}{
	{"CS", "💻"},
	{"COMP", "💻"},
	{"MATH", "📐"},
	{"STAT", "📊"},
	{"PHYS", "🔭"},
	{"CHEM", "⚗️"},
	{"BIO", "🧬"},
	{"ECON", "📈"},
	{"HIST", "🏛️"},
	{"PSYC", "🧠"},
	{"ENG", "📝"},
	{"MUS", "🎵"},
	{"ART", "🎨"},
}

// calendarSummary names a dedicated course calendar from its course code.
func calendarSummary(courseCode string) string {
	code := strings.ToUpper(strings.TrimSpace(courseCode))
	for _, entry := range courseEmojis {
		if strings.Contains(code, entry.keyword) {
			return entry.emoji + " " + strings.TrimSpace(courseCode)
		}
	}
	return "📖 " + strings.TrimSpace(courseCode)
}
