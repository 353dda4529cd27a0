package gateway

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
)

// MockCalendarAPI is a calendarAPI test double.
type MockCalendarAPI struct {
	mock.Mock
}

func (m *MockCalendarAPI) InsertEvent(ctx context.Context, calendarID string, event *calendar.Event) (*calendar.Event, error) {
	args := m.Called(ctx, calendarID, event)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*calendar.Event), args.Error(1)
}

func (m *MockCalendarAPI) InsertCalendar(ctx context.Context, cal *calendar.Calendar) (*calendar.Calendar, error) {
	args := m.Called(ctx, cal)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*calendar.Calendar), args.Error(1)
}

func (m *MockCalendarAPI) ListCalendars(ctx context.Context) ([]*calendar.CalendarListEntry, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*calendar.CalendarListEntry), args.Error(1)
}

// --- InsertEvent ---

func TestInsertEvent_Success(t *testing.T) {
	api := new(MockCalendarAPI)
	gw := NewGoogleCalendarGatewayWithAPI(api)

	event := &calendar.Event{Summary: "Midterm"}
	api.On("InsertEvent", mock.Anything, "primary", event).
		Return(&calendar.Event{Id: "evt-123"}, nil)

	id, err := gw.InsertEvent(context.Background(), "primary", event)
	require.NoError(t, err)
	assert.Equal(t, "evt-123", id)
	api.AssertExpectations(t)
}

func TestInsertEvent_HTTPError(t *testing.T) {
	api := new(MockCalendarAPI)
	gw := NewGoogleCalendarGatewayWithAPI(api)

	apiErr := &googleapi.Error{Code: 400, Message: "Invalid time range"}
	api.On("InsertEvent", mock.Anything, "primary", mock.Anything).Return(nil, apiErr)

	_, err := gw.InsertEvent(context.Background(), "primary", &calendar.Event{Summary: "x"})
	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, 400, httpErr.Status)
	assert.Contains(t, httpErr.Body, "Invalid time range")
}

func TestInsertEvent_TransportError(t *testing.T) {
	api := new(MockCalendarAPI)
	gw := NewGoogleCalendarGatewayWithAPI(api)

	api.On("InsertEvent", mock.Anything, "primary", mock.Anything).
		Return(nil, errors.New("connection reset"))

	_, err := gw.InsertEvent(context.Background(), "primary", &calendar.Event{Summary: "x"})
	require.Error(t, err)
	var httpErr *HTTPError
	assert.False(t, errors.As(err, &httpErr))
}

// --- IsRateLimit ---

func TestIsRateLimit(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil", nil, false},
		{"googleapi 429", &googleapi.Error{Code: http.StatusTooManyRequests}, true},
		{
			"googleapi 403 rateLimitExceeded",
			&googleapi.Error{Code: http.StatusForbidden, Errors: []googleapi.ErrorItem{{Reason: "rateLimitExceeded"}}},
			true,
		},
		{
			"googleapi 403 userRateLimitExceeded",
			&googleapi.Error{Code: http.StatusForbidden, Errors: []googleapi.ErrorItem{{Reason: "userRateLimitExceeded"}}},
			true,
		},
		{
			"googleapi 403 other reason",
			&googleapi.Error{Code: http.StatusForbidden, Errors: []googleapi.ErrorItem{{Reason: "insufficientPermissions"}}},
			false,
		},
		{"typed 429", &HTTPError{Status: 429, Body: "Too Many Requests"}, true},
		{"typed 400", &HTTPError{Status: 400, Body: "Bad Request"}, false},
		{"message marker", errors.New("Rate Limit Exceeded"), true},
		{"plain error", errors.New("connection reset"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsRateLimit(tt.err))
		})
	}
}

func TestIsRateLimit_WrappedHTTPError(t *testing.T) {
	apiErr := &googleapi.Error{Code: 429, Message: "Rate Limit Exceeded"}
	err := asHTTPError(apiErr)
	assert.True(t, IsRateLimit(err))
}

// --- EnsureCalendar ---

func TestEnsureCalendar_CreatesWhenMissing(t *testing.T) {
	api := new(MockCalendarAPI)
	gw := NewGoogleCalendarGatewayWithAPI(api)

	api.On("ListCalendars", mock.Anything).Return([]*calendar.CalendarListEntry{}, nil)
	api.On("InsertCalendar", mock.Anything, mock.MatchedBy(func(cal *calendar.Calendar) bool {
		return cal.Summary == "📐 MATH 51"
	})).Return(&calendar.Calendar{Id: "cal-456"}, nil)

	id, err := gw.EnsureCalendar(context.Background(), "Linear Algebra", "MATH 51")
	require.NoError(t, err)
	assert.Equal(t, "cal-456", id)
	api.AssertExpectations(t)
}

func TestEnsureCalendar_ReusesExisting(t *testing.T) {
	api := new(MockCalendarAPI)
	gw := NewGoogleCalendarGatewayWithAPI(api)

	api.On("ListCalendars", mock.Anything).Return([]*calendar.CalendarListEntry{
		{Id: "cal-old", Summary: "📐 MATH 51"},
	}, nil)

	id, err := gw.EnsureCalendar(context.Background(), "Linear Algebra", "MATH 51")
	require.NoError(t, err)
	assert.Equal(t, "cal-old", id)
	api.AssertNotCalled(t, "InsertCalendar")
}

func TestEnsureCalendar_CreationError(t *testing.T) {
	api := new(MockCalendarAPI)
	gw := NewGoogleCalendarGatewayWithAPI(api)

	api.On("ListCalendars", mock.Anything).Return(nil, errors.New("lookup failed"))
	api.On("InsertCalendar", mock.Anything, mock.Anything).
		Return(nil, &googleapi.Error{Code: 403, Message: "insufficient permissions"})

	_, err := gw.EnsureCalendar(context.Background(), "Linear Algebra", "MATH 51")
	var createErr *CalendarCreationError
	require.ErrorAs(t, err, &createErr)
	assert.Equal(t, "MATH 51", createErr.CourseCode)
	assert.Contains(t, createErr.Error(), "insufficient permissions")
}

// --- calendarSummary ---

func TestCalendarSummary(t *testing.T) {
	tests := []struct {
		courseCode string
		expected   string
	}{
		{"MATH 51", "📐 MATH 51"},
		{"CS 106B", "💻 CS 106B"},
		{"comp 101", "💻 comp 101"},
		{"CHEM 31A", "⚗️ CHEM 31A"},
		{"BIO 82", "🧬 BIO 82"},
		{"PHIL 1", "📖 PHIL 1"},
	}
	for _, tt := range tests {
		t.Run(tt.courseCode, func(t *testing.T) {
			assert.Equal(t, tt.expected, calendarSummary(tt.courseCode))
		})
	}
}
