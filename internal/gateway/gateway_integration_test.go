//go:build integration

package gateway

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/calendar/v3"
)

// TestInsertEvent_Integration creates a real event on the primary calendar.
// Requires GOOGLE_ACCESS_TOKEN (calendar write scope) in the environment or
// a local .env file.
func TestInsertEvent_Integration(t *testing.T) {
	_ = godotenv.Load()
	token := os.Getenv("GOOGLE_ACCESS_TOKEN")
	if token == "" {
		t.Skip("GOOGLE_ACCESS_TOKEN not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	gw, err := NewGoogleCalendarGateway(ctx, token)
	require.NoError(t, err)

	date := time.Now().AddDate(0, 0, 1).Format("2006-01-02")
	id, err := gw.InsertEvent(ctx, "primary", &calendar.Event{
		Summary: "Chrona integration test",
		Start:   &calendar.EventDateTime{Date: date},
		End:     &calendar.EventDateTime{Date: date},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)
}
