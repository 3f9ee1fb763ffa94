// Package photo implements photo persistence, the upload workflow and the
// admin moderation workflow.
package photo

import (
	"errors"
	"time"

	"github.com/staffphoto/service/internal/employee"
)

// Status is the moderation state of a photo.
type Status string

const (
	StatusUnprocessed Status = "unprocessed"
	StatusProcessed   Status = "processed"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusProcessed || s == StatusUnprocessed
}

// Photo is an uploaded image record. EmployeeID is the employee's internal id.
type Photo struct {
	ID         string             `json:"id"`
	URL        string             `json:"url"`
	Key        string             `json:"key"`
	EmployeeID string             `json:"employeeId"`
	Status     Status             `json:"status"`
	CreatedAt  time.Time          `json:"createdAt"`
	Employee   *employee.Employee `json:"employee,omitempty"`
}

// Filter narrows a listing. Empty fields do not filter.
type Filter struct {
	// Search matches the employee name or employee number by substring.
	Search     string
	Department string
	Status     Status
}

var (
	// ErrNotFound is returned when a photo does not exist.
	ErrNotFound = errors.New("photo not found")
	// ErrEmployeeNotFound is returned when a photo references a missing employee.
	ErrEmployeeNotFound = errors.New("employee not found")
	// ErrInvalidStatus is returned when the store rejects a status value.
	ErrInvalidStatus = errors.New("invalid photo status")
	// ErrAlreadyRecorded is returned when a photo row already exists for the object key.
	ErrAlreadyRecorded = errors.New("photo already recorded")
)

// ValidationError reports bad caller input. Message is safe to show to users.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// IsValidation reports whether err is a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
