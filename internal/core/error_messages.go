// # Error Codes Reference
//
// This file defines user-friendly error messages with codes for support
// reference. Users quote the code; support looks it up here.
//
// # Reference Data Errors (REF001-REF099)
//
//	REF001 - Reference not loaded: Reference data is not loaded yet
//	         Action: Wait for the initial load to finish or check the reference source
//	         Matches: ErrReferenceNotLoaded, ErrNoReferenceTable
//
//	REF002 - Invalid reference entry: The reference file contains an unusable row
//	         Action: Fix the reported row in the reference file and reload
//	         Matches: *InvalidEntryError, "invalid reference entry"
//
//	REF003 - Reload failed: Reference data could not be reloaded
//	         Action: Previous data is still in use. Check the server logs
//	         Patterns: "reload reference data"
//
//	REF004 - No loader: Reloading is not configured on this server
//	         Action: Start the server with a reference source
//	         Patterns: "no reference loader configured"
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large: File exceeds the maximum upload size
//	FILE002 - Unsupported format: Only CSV, TSV and XLSX are accepted
//	FILE003 - Encoding error: File could not be decoded
//	FILE004 - No file: No file was provided
//	FILE005 - Empty file: The file has no rows
//	FILE006 - No usable rows: No row contained a usable code
//
// # Mapping Errors (MAP001-MAP099)
//
//	MAP001 - No code column: Could not tell which column holds the codes
//	         Action: Name the column "HSN Code" or supply a mapping file
//
// # Source Errors (SRC001-SRC099)
//
//	SRC001 - Source unavailable: The reference source could not be read
//	SRC002 - Source not found: The reference file or object does not exist
//	SRC003 - Source timeout: The reference source did not respond
//
// # Request Errors (BLK001, REQ001-REQ099, RATE001)
//
//	BLK001  - System busy: Too many bulk validations in progress
//	REQ001  - Invalid request: The request body could not be parsed
//	REQ002  - Too many codes: The bulk request exceeds the code limit
//	RATE001 - Rate limited: Too many requests
//
// # Default Error (ERR000)
//
// Fallback when nothing matches. Check the logs for the technical error.
//
// # Matching
//
// Sentinel errors are matched with errors.Is and errors.As first. If none
// match, patterns are matched case-insensitively with strings.Contains in
// declaration order, so specific patterns come before general ones.
package core

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

var (
	msgRefNotLoaded = UserMessage{
		Message: "Reference data is not loaded yet",
		Action:  "Wait for the initial load to finish or check the reference source",
		Code:    "REF001",
	}
	msgRefInvalidEntry = UserMessage{
		Message: "The reference file contains an unusable row",
		Action:  "Fix the reported row in the reference file and reload",
		Code:    "REF002",
	}
	msgBulkBusy = UserMessage{
		Message: "Too many bulk validations in progress",
		Action:  "Please wait a moment and try again",
		Code:    "BLK001",
	}
	msgTooManyCodes = UserMessage{
		Message: "The bulk request exceeds the code limit",
		Action:  "Split the list into smaller batches",
		Code:    "REQ002",
	}
)

// errorTarget maps a sentinel error to its user message.
type errorTarget struct {
	target error
	msg    UserMessage
}

var errorTargets = []errorTarget{
	{ErrReferenceNotLoaded, msgRefNotLoaded},
	{ErrNoReferenceTable, msgRefNotLoaded},
	{ErrTooManyBulkJobs, msgBulkBusy},
	{ErrTooManyCodes, msgTooManyCodes},
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error text (case-insensitive) to user messages.
// The first match wins.
var errorPatterns = []errorPattern{
	// =========================================================================
	// File Errors (FILE001-FILE006)
	// =========================================================================
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds the maximum upload size",
			Action:  "Split the file into smaller files",
			Code:    "FILE001",
		},
	},
	{
		pattern: "request body too large",
		msg: UserMessage{
			Message: "File exceeds the maximum upload size",
			Action:  "Split the file into smaller files",
			Code:    "FILE001",
		},
	},
	{
		pattern: "unsupported file format",
		msg: UserMessage{
			Message: "Only CSV, TSV and XLSX files are accepted",
			Action:  "Save the file as CSV or XLSX and try again",
			Code:    "FILE002",
		},
	},
	{
		pattern: "encoding error",
		msg: UserMessage{
			Message: "File could not be decoded",
			Action:  "Save the file as UTF-8 and try again",
			Code:    "FILE003",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was provided",
			Action:  "Please select a file to upload",
			Code:    "FILE004",
		},
	},
	{
		pattern: "file is empty",
		msg: UserMessage{
			Message: "The file has no rows",
			Action:  "Upload a file with a header and data rows",
			Code:    "FILE005",
		},
	},
	{
		pattern: "no usable rows",
		msg: UserMessage{
			Message: "No row contained a usable code",
			Action:  "Check that the code column holds numeric codes",
			Code:    "FILE006",
		},
	},

	// =========================================================================
	// Mapping Errors (MAP001)
	// =========================================================================
	{
		pattern: "no code column",
		msg: UserMessage{
			Message: "Could not tell which column holds the codes",
			Action:  "Name the column \"HSN Code\" or supply a mapping file",
			Code:    "MAP001",
		},
	},

	// =========================================================================
	// Source Errors (SRC001-SRC003)
	// =========================================================================
	{
		pattern: "no such file",
		msg: UserMessage{
			Message: "The reference file or object does not exist",
			Action:  "Check the configured reference location",
			Code:    "SRC002",
		},
	},
	{
		pattern: "nosuchkey",
		msg: UserMessage{
			Message: "The reference file or object does not exist",
			Action:  "Check the configured reference location",
			Code:    "SRC002",
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "The reference source did not respond",
			Action:  "Please try again in a few moments",
			Code:    "SRC003",
		},
	},
	{
		pattern: "deadline exceeded",
		msg: UserMessage{
			Message: "The reference source did not respond",
			Action:  "Please try again in a few moments",
			Code:    "SRC003",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "The reference source did not respond",
			Action:  "Please try again in a few moments",
			Code:    "SRC003",
		},
	},
	{
		pattern: "source unavailable",
		msg: UserMessage{
			Message: "The reference source could not be read",
			Action:  "Check the reference location and credentials",
			Code:    "SRC001",
		},
	},

	// =========================================================================
	// Reference Errors (REF002-REF004)
	// =========================================================================
	{
		pattern: "invalid reference entry",
		msg:     msgRefInvalidEntry,
	},
	{
		pattern: "no reference loader configured",
		msg: UserMessage{
			Message: "Reloading is not configured on this server",
			Action:  "Start the server with a reference source",
			Code:    "REF004",
		},
	},
	{
		pattern: "reload reference data",
		msg: UserMessage{
			Message: "Reference data could not be reloaded",
			Action:  "The previous data is still in use. Check the server logs",
			Code:    "REF003",
		},
	},

	// =========================================================================
	// Request Errors (REQ001, RATE001)
	// =========================================================================
	{
		pattern: "invalid request",
		msg: UserMessage{
			Message: "The request body could not be parsed",
			Action:  "Send JSON in the documented shape",
			Code:    "REQ001",
		},
	},
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
//
//	msg := MapError(ErrReferenceNotLoaded)
//	// msg.Code == "REF001"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, et := range errorTargets {
		if errors.Is(err, et.target) {
			return et.msg
		}
	}
	var entryErr *InvalidEntryError
	if errors.As(err, &entryErr) {
		return msgRefInvalidEntry
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display:
// "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific code rather than ERR000.
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
