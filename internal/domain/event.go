package domain

import "strings"

// Category classifies a syllabus event and drives its reminder policy and color.
type Category string

const (
	CategoryClass      Category = "class"
	CategoryExam       Category = "exam"
	CategoryAssignment Category = "assignment"
	CategoryReminder   Category = "reminder"
)

// ParseCategory maps free-form category text to a known Category.
// Unknown or empty input yields the empty Category, which selects the
// default reminder policy and no color.
func ParseCategory(s string) Category {
	switch Category(strings.ToLower(strings.TrimSpace(s))) {
	case CategoryClass:
		return CategoryClass
	case CategoryExam:
		return CategoryExam
	case CategoryAssignment:
		return CategoryAssignment
	case CategoryReminder:
		return CategoryReminder
	}
	return ""
}

// Event is one syllabus item to export, either AI-extracted from a syllabus
// or entered by hand in the review step.
type Event struct {
	Title     string `json:"title"`
	Date      string `json:"date"`                // MM/DD/YYYY
	StartTime string `json:"startTime,omitempty"` // "H:MM AM|PM"
	EndTime   string `json:"endTime,omitempty"`   // "H:MM AM|PM"
	Location  string `json:"location,omitempty"`
	Category  string `json:"category,omitempty"`
}

// CourseMeta is the course a batch of events belongs to. Both fields are
// optional; they feed event descriptions and dedicated calendar naming.
type CourseMeta struct {
	CourseName string `json:"courseName,omitempty"`
	CourseCode string `json:"courseCode,omitempty"`
}

// EventError records why a single event could not be created.
type EventError struct {
	EventTitle string `json:"eventTitle"`
	Error      string `json:"error"`
}

// BatchResult is the aggregate outcome of one export batch.
// Successful + Failed always equals the number of events in the batch,
// and len(Errors) always equals Failed.
type BatchResult struct {
	Successful int          `json:"successful"`
	Failed     int          `json:"failed"`
	Errors     []EventError `json:"errors"`
}
