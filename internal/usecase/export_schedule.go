// Package usecase drives the batched export of syllabus events to the
// calendar provider: format everything up front, optionally provision a
// dedicated course calendar, then submit one event at a time with pacing
// and bounded retry, accounting for every event in the result.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"google.golang.org/api/calendar/v3"

	"github.com/gilxsilva/hackharvard-2025-sub000/internal/domain"
	"github.com/gilxsilva/hackharvard-2025-sub000/internal/formatter"
	"github.com/gilxsilva/hackharvard-2025-sub000/internal/gateway"
)

const (
	// defaultMaxAttempts bounds retries for a rate-limited event creation.
	defaultMaxAttempts = 3

	// backoffBase is the first retry wait; it doubles per attempt.
	backoffBase = time.Second

	// requestPacing is the wait after every event attempt, success or
	// failure, to stay under the provider's rate limit.
	requestPacing = 300 * time.Millisecond

	// batchWindowSize groups events for progress logging, matching the
	// provider's per-request cap. Submission stays strictly sequential.
	batchWindowSize = 50
)

// EventSubmitter creates a single event on a calendar: one network call,
// no retry.
type EventSubmitter interface {
	InsertEvent(ctx context.Context, calendarID string, event *calendar.Event) (string, error)
}

// CalendarProvisioner finds or creates a dedicated course calendar.
type CalendarProvisioner interface {
	EnsureCalendar(ctx context.Context, courseName, courseCode string) (string, error)
}

// ProgressFunc reports completed/total after each event attempt.
type ProgressFunc func(completed, total int)

// ExportParams carries one export invocation.
type ExportParams struct {
	Events            []domain.Event
	Course            domain.CourseMeta
	Timezone          string // IANA name, e.g. "America/New_York"
	CalendarID        string // default target; empty means "primary"
	DedicatedCalendar bool   // provision a per-course calendar first
	OnProgress        ProgressFunc
}

// ExportScheduleUseCase sequences syllabus events through formatting,
// provisioning, and paced submission.
type ExportScheduleUseCase struct {
	submitter   EventSubmitter
	provisioner CalendarProvisioner
	maxAttempts int
	sleep       func(ctx context.Context, d time.Duration) error
}

// NewExportScheduleUseCase builds the use case with production retry and
// pacing behavior.
func NewExportScheduleUseCase(submitter EventSubmitter, provisioner CalendarProvisioner) *ExportScheduleUseCase {
	return &ExportScheduleUseCase{
		submitter:   submitter,
		provisioner: provisioner,
		maxAttempts: defaultMaxAttempts,
		sleep:       sleepContext,
	}
}

// Execute runs one export batch and returns the aggregate result plus the
// calendar id the events were created on. Formatting failures are recorded
// per event without any network call; submission failures are recorded per
// event without aborting the batch. Execute itself only fails for invalid
// arguments or a cancelled context.
func (uc *ExportScheduleUseCase) Execute(ctx context.Context, p ExportParams) (domain.BatchResult, string, error) {
	result := domain.BatchResult{Errors: []domain.EventError{}}

	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return result, "", fmt.Errorf("invalid timezone %q: %w", p.Timezone, err)
	}

	calendarID := p.CalendarID
	if calendarID == "" {
		calendarID = "primary"
	}
	if p.DedicatedCalendar && p.Course.CourseCode != "" {
		id, err := uc.provisioner.EnsureCalendar(ctx, p.Course.CourseName, p.Course.CourseCode)
		if err != nil {
			// Fall back to the default calendar rather than failing the
			// whole export.
			log.Printf("could not provision calendar for %s, falling back to %s: %v",
				p.Course.CourseCode, calendarID, err)
		} else {
			calendarID = id
		}
	}

	// Format everything before touching the network so malformed events
	// never cost an API call.
	formatted := make([]*calendar.Event, 0, len(p.Events))
	for _, event := range p.Events {
		payload, err := formatter.Format(event, p.Course, loc)
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, domain.EventError{
				EventTitle: event.Title,
				Error:      err.Error(),
			})
			continue
		}
		formatted = append(formatted, payload)
	}

	submitted, err := uc.SubmitBatch(ctx, formatted, calendarID, p.OnProgress)
	result.Successful += submitted.Successful
	result.Failed += submitted.Failed
	result.Errors = append(result.Errors, submitted.Errors...)
	return result, calendarID, err
}

// SubmitBatch submits already formatted events strictly one at a time, in
// input order, pacing after every attempt. One event's failure never aborts
// the batch; every event is attempted exactly once (retries for throttling
// are internal). The only error SubmitBatch returns is a cancelled context,
// alongside the partial result accumulated so far.
func (uc *ExportScheduleUseCase) SubmitBatch(ctx context.Context, events []*calendar.Event, calendarID string, onProgress ProgressFunc) (domain.BatchResult, error) {
	result := domain.BatchResult{Errors: []domain.EventError{}}
	total := len(events)
	completed := 0

	for start := 0; start < total; start += batchWindowSize {
		end := min(start+batchWindowSize, total)
		log.Printf("submitting events %d-%d of %d to calendar %s", start+1, end, total, calendarID)

		for _, event := range events[start:end] {
			if err := ctx.Err(); err != nil {
				return result, err
			}

			_, err := uc.submitWithRetry(ctx, calendarID, event)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return result, err
				}
				result.Failed++
				result.Errors = append(result.Errors, domain.EventError{
					EventTitle: event.Summary,
					Error:      err.Error(),
				})
				log.Printf("failed to create %q: %v", event.Summary, err)
			} else {
				result.Successful++
			}

			completed++
			if onProgress != nil {
				onProgress(completed, total)
			}

			if err := uc.sleep(ctx, requestPacing); err != nil {
				return result, err
			}
		}
	}

	return result, nil
}

// submitWithRetry retries rate-limited creations with exponential backoff
// (1s, 2s, 4s) up to maxAttempts. Any other failure propagates immediately:
// a request the provider rejected outright will not get better by resending
// it.
func (uc *ExportScheduleUseCase) submitWithRetry(ctx context.Context, calendarID string, event *calendar.Event) (string, error) {
	var lastErr error
	for attempt := 0; attempt < uc.maxAttempts; attempt++ {
		id, err := uc.submitter.InsertEvent(ctx, calendarID, event)
		if err == nil {
			return id, nil
		}
		if !gateway.IsRateLimit(err) {
			return "", err
		}

		lastErr = err
		wait := backoffBase << attempt
		log.Printf("rate limited creating %q, waiting %s (attempt %d/%d)",
			event.Summary, wait, attempt+1, uc.maxAttempts)
		if err := uc.sleep(ctx, wait); err != nil {
			return "", err
		}
	}
	return "", lastErr
}

// sleepContext waits for d unless the context is cancelled first.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
