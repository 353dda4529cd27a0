package main

import (
	"context"
	"encoding/json"
	"log"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/gilxsilva/hackharvard-2025-sub000/internal/config"
	"github.com/gilxsilva/hackharvard-2025-sub000/internal/domain"
	"github.com/gilxsilva/hackharvard-2025-sub000/internal/gateway"
	"github.com/gilxsilva/hackharvard-2025-sub000/internal/usecase"
)

// ExportRequest mirrors the dashboard's export call: the reviewed syllabus
// events plus the caller's Google OAuth access token.
type ExportRequest struct {
	Events                  []domain.Event    `json:"events"`
	CourseInfo              domain.CourseMeta `json:"courseInfo"`
	Timezone                string            `json:"timezone,omitempty"`
	AccessToken             string            `json:"accessToken"`
	CalendarID              string            `json:"calendarId,omitempty"`
	CreateDedicatedCalendar bool              `json:"createDedicatedCalendar,omitempty"`
}

// ExportResponse is the batch outcome returned to the dashboard.
type ExportResponse struct {
	Successful int                 `json:"successful"`
	Failed     int                 `json:"failed"`
	Errors     []domain.EventError `json:"errors"`
	CalendarID string              `json:"calendarId"`
}

// errorResponse is the body for request-level failures.
type errorResponse struct {
	Error string `json:"error"`
}

// handler processes one export request from the dashboard's route handler.
func handler(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	cfg, err := config.Load()
	if err != nil {
		log.Printf("failed to load config: %v", err)
		return jsonResponse(500, errorResponse{Error: "configuration error"}), nil
	}

	if cfg.APIKey != "" && headerValue(request.Headers, "x-api-key") != cfg.APIKey {
		return jsonResponse(401, errorResponse{Error: "invalid API key"}), nil
	}

	var req ExportRequest
	if err := json.Unmarshal([]byte(request.Body), &req); err != nil {
		return jsonResponse(400, errorResponse{Error: "invalid request body"}), nil
	}
	if req.AccessToken == "" {
		return jsonResponse(400, errorResponse{Error: "accessToken is required"}), nil
	}
	if len(req.Events) == 0 {
		return jsonResponse(400, errorResponse{Error: "events must not be empty"}), nil
	}

	gw, err := gateway.NewGoogleCalendarGateway(ctx, req.AccessToken)
	if err != nil {
		log.Printf("failed to build calendar gateway: %v", err)
		return jsonResponse(500, errorResponse{Error: "failed to reach calendar provider"}), nil
	}

	timezone := req.Timezone
	if timezone == "" {
		timezone = cfg.Timezone
	}
	calendarID := req.CalendarID
	if calendarID == "" {
		calendarID = cfg.DefaultCalendarID
	}

	uc := usecase.NewExportScheduleUseCase(gw, gw)
	result, usedCalendarID, err := uc.Execute(ctx, usecase.ExportParams{
		Events:            req.Events,
		Course:            req.CourseInfo,
		Timezone:          timezone,
		CalendarID:        calendarID,
		DedicatedCalendar: req.CreateDedicatedCalendar,
		OnProgress: func(completed, total int) {
			if completed%10 == 0 || completed == total {
				log.Printf("export progress: %d/%d", completed, total)
			}
		},
	})
	if err != nil {
		if strings.Contains(err.Error(), "invalid timezone") {
			return jsonResponse(400, errorResponse{Error: err.Error()}), nil
		}
		log.Printf("export aborted: %v", err)
		return jsonResponse(500, errorResponse{Error: "export aborted"}), nil
	}

	log.Printf("export finished: %d created, %d failed on calendar %s",
		result.Successful, result.Failed, usedCalendarID)

	// Partial failure is still a completed export; 207 lets the dashboard
	// surface the per-event errors as a warning.
	status := 200
	if result.Failed > 0 {
		status = 207
	}
	return jsonResponse(status, ExportResponse{
		Successful: result.Successful,
		Failed:     result.Failed,
		Errors:     result.Errors,
		CalendarID: usedCalendarID,
	}), nil
}

// headerValue looks up a header case-insensitively; API Gateway does not
// normalize header casing.
func headerValue(headers map[string]string, name string) string {
	for key, value := range headers {
		if strings.EqualFold(key, name) {
			return value
		}
	}
	return ""
}

// jsonResponse marshals a body into an API Gateway proxy response.
func jsonResponse(status int, body any) events.APIGatewayProxyResponse {
	payload, err := json.Marshal(body)
	if err != nil {
		log.Printf("failed to marshal response: %v", err)
		return events.APIGatewayProxyResponse{StatusCode: 500, Body: `{"error":"internal error"}`}
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(payload),
	}
}

func main() {
	lambda.Start(handler)
}
