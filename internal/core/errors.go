package core

import "errors"

var (
	// ErrFileTooLarge is returned when an uploaded packing list exceeds the
	// configured size limit.
	ErrFileTooLarge = errors.New("file too large")

	// ErrNoFile is returned when a request carries no spreadsheet.
	ErrNoFile = errors.New("no file provided")

	// ErrSubmissionNotFound is returned for unknown or evicted submission ids.
	ErrSubmissionNotFound = errors.New("submission not found")

	// ErrNoItems is returned when a submission carries no items list at all.
	// An empty list is accepted.
	ErrNoItems = errors.New("submission has no items")

	// ErrInvalidSubmission is returned when a submission body cannot be decoded.
	ErrInvalidSubmission = errors.New("invalid submission")
)
