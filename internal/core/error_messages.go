package core

// error_messages.go maps technical errors to user-facing messages with codes
// for support reference. Users quote the code; support looks it up here.
//
// # Parse Errors (PARSE001-PARSE099)
//
//	PARSE001 - Header not found: No header row in the first rows of the sheet
//	           Action: Make sure the sheet has a header row naming item, description and quantity
//	           Patterns: "header not found"
//
//	PARSE002 - Required columns missing: Description or quantity column is missing
//	           Action: Add a description column and a quantity column to the header
//	           Patterns: "required columns missing"
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large
//	FILE002 - Unsupported format (legacy .xls, binary files)
//	FILE003 - Unreadable workbook
//	FILE004 - No file provided
//	FILE005 - Empty file
//	FILE006 - Invalid CSV
//
// # Generation Errors (GEN001-GEN099)
//
//	GEN001 - Generator script missing
//	GEN002 - Generator could not be started
//	GEN003 - Nothing generated and no sample available
//
// # Submission Errors (SUB001-SUB099)
//
//	SUB001 - Submission not found
//	SUB002 - Submission has no items
//	SUB003 - Submission body could not be decoded
//
// # Capacity (UPL002, UPL004, UPL005, RATE001)
//
// Kept from the upload codes: busy, cancelled, timed out, rate limited.
//
// # Default Error (ERR000)
//
// Fallback when no pattern matches. Check the logs for the technical error.
//
// # Pattern Matching
//
// Patterns are matched case-insensitively with strings.Contains. The first
// match wins, so specific patterns come before general ones.

import (
	"fmt"
	"net/http"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
	Status  int    // HTTP status the error maps to
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error patterns (case-insensitive) to user messages.
// The first matching pattern wins, so order matters.
var errorPatterns = []errorPattern{
	// =========================================================================
	// Parse Errors (PARSE001-PARSE002)
	// =========================================================================
	{
		pattern: "header not found",
		msg: UserMessage{
			Message: "Could not find the header row in the packing list",
			Action:  "Make sure one of the first rows names item, description and quantity columns",
			Code:    "PARSE001",
			Status:  http.StatusUnprocessableEntity,
		},
	},
	{
		pattern: "required columns missing",
		msg: UserMessage{
			Message: "The packing list is missing a required column",
			Action:  "Add a description column and a quantity column to the header row",
			Code:    "PARSE002",
			Status:  http.StatusUnprocessableEntity,
		},
	},

	// =========================================================================
	// File Errors (FILE001-FILE006)
	// =========================================================================
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds the maximum upload size",
			Action:  "Remove unused sheets or split the packing list",
			Code:    "FILE001",
			Status:  http.StatusRequestEntityTooLarge,
		},
	},
	{
		pattern: "unsupported spreadsheet format",
		msg: UserMessage{
			Message: "This file type is not supported",
			Action:  "Save the packing list as .xlsx or .csv",
			Code:    "FILE002",
			Status:  http.StatusUnsupportedMediaType,
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The uploaded file is empty",
			Action:  "Please upload a packing list with data rows",
			Code:    "FILE005",
			Status:  http.StatusBadRequest,
		},
	},
	{
		pattern: "open workbook",
		msg: UserMessage{
			Message: "The workbook could not be opened",
			Action:  "Re-save the file in Excel and upload it again",
			Code:    "FILE003",
			Status:  http.StatusUnprocessableEntity,
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please select a packing list to upload",
			Code:    "FILE004",
			Status:  http.StatusBadRequest,
		},
	},
	{
		pattern: "invalid csv",
		msg: UserMessage{
			Message: "File is not a valid CSV",
			Action:  "Check for unbalanced quotes or save the sheet as .xlsx",
			Code:    "FILE006",
			Status:  http.StatusUnprocessableEntity,
		},
	},

	// =========================================================================
	// Generation Errors (GEN001-GEN003)
	// =========================================================================
	{
		pattern: "generator script not found",
		msg: UserMessage{
			Message: "The form generator is not installed",
			Action:  "Contact support; the generator script path is misconfigured",
			Code:    "GEN001",
			Status:  http.StatusServiceUnavailable,
		},
	},
	{
		pattern: "generator could not be started",
		msg: UserMessage{
			Message: "The form generator could not be started",
			Action:  "Please try again later or contact support",
			Code:    "GEN002",
			Status:  http.StatusServiceUnavailable,
		},
	},
	{
		pattern: "no artifacts generated",
		msg: UserMessage{
			Message: "No forms were generated",
			Action:  "Check the items and retry; contact support if it keeps failing",
			Code:    "GEN003",
			Status:  http.StatusBadGateway,
		},
	},

	// =========================================================================
	// Submission Errors (SUB001-SUB003)
	// =========================================================================
	{
		pattern: "submission not found",
		msg: UserMessage{
			Message: "Submission not found",
			Action:  "The submission may have expired. Please submit the items again",
			Code:    "SUB001",
			Status:  http.StatusNotFound,
		},
	},
	{
		pattern: "no items",
		msg: UserMessage{
			Message: "The submission has no items",
			Action:  "Upload a packing list with at least one valid row",
			Code:    "SUB002",
			Status:  http.StatusBadRequest,
		},
	},
	{
		pattern: "invalid submission",
		msg: UserMessage{
			Message: "The submission could not be read",
			Action:  "Send a JSON body with an items array",
			Code:    "SUB003",
			Status:  http.StatusBadRequest,
		},
	},

	// =========================================================================
	// Capacity (UPL002, UPL004, UPL005, RATE001)
	// =========================================================================
	{
		pattern: "too many concurrent submissions",
		msg: UserMessage{
			Message: "System is busy generating other forms",
			Action:  "Please wait a moment and try again",
			Code:    "UPL002",
			Status:  http.StatusServiceUnavailable,
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "UPL004",
			Status:  http.StatusRequestTimeout,
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try again with fewer items or check your connection",
			Code:    "UPL005",
			Status:  http.StatusGatewayTimeout,
		},
	},
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
			Status:  http.StatusTooManyRequests,
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
	Status:  http.StatusInternalServerError,
}

// MapError converts a technical error to a user-friendly message.
// It returns the first matching pattern, or ERR000.
//
// Example:
//
//	msg := MapError(fmt.Errorf("parse: %w", packing.ErrHeaderNotFound))
//	// msg.Code == "PARSE001"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matches a known pattern rather than the
// ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user-facing message.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err to a UserError. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
