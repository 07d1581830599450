package core

// # Error Codes Reference
//
// User-facing messages with codes for support reference. A user quoting a
// code lets whoever maintains the labeling setup find the cause quickly.
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File not found: The selected file no longer exists
//	          Action: Refresh the file list and pick another file
//	          Patterns: "no such file", "file does not exist"
//
//	FILE002 - Permission denied: The file could not be read or written
//	          Action: Check permissions on the documents and results folders
//	          Patterns: "permission denied"
//
//	FILE003 - Invalid CSV: The file is not a valid CSV
//	          Action: Ensure the file is comma-separated with consistent columns
//	          Patterns: "wrong number of fields", "parse error", "bare \" in non-quoted-field"
//
//	FILE004 - Empty file: The file has no records to label
//	          Action: Pick a file with at least one data row
//	          Patterns: "file has no records", "empty file"
//
//	FILE005 - Report exists: A report with the same name already exists
//	          Action: Wait a second and retry the export
//	          Patterns: "file already exists", "file exists"
//
// # Schema Errors (SCH001-SCH099)
//
//	SCH001 - Missing column: Required column is missing from the CSV
//	         Action: The file needs "user" and "text" columns
//	         Patterns: "missing required column"
//
// # Progress Errors (PRG001-PRG099)
//
//	PRG001 - Corrupt progress: Saved progress could not be read
//	         Action: Start a new session; the saved progress was discarded
//	         Kind: serialization
//
//	PRG002 - Progress mismatch: Saved progress does not match the file
//	         Action: The file changed since it was saved; start a new session
//	         Patterns: "saved progress does not match file"
//
//	PRG003 - No progress: There is no saved progress to resume
//	         Action: Start a new session
//	         Patterns: "no saved progress"
//
// # Validation Errors (VAL001-VAL099)
//
//	VAL001 - Username required            Patterns: "username is required"
//	VAL002 - File already completed       Patterns: "file already completed"
//	VAL003 - No sentiment selected        Patterns: "no sentiment selected"
//	VAL004 - Action not allowed now       Patterns: "action not allowed"
//	VAL005 - No file selected             Patterns: "no file selected"
//	VAL006 - Invalid file name            Patterns: "invalid file name"
//	VAL007 - Unknown sentiment            Patterns: "unknown sentiment"
//	VAL008 - Invalid username             Patterns: "invalid username"
//
// # Rate Limiting (RATE001)
//
//	RATE001 - Rate limited: Too many requests
//
// # Default Error (ERR000)
//
// Fallback when no specific pattern or kind matches. Check the logs for the
// original technical error.
//
// # Matching
//
// Patterns are matched case-insensitively with strings.Contains; the first
// match wins. When no pattern matches, the error's Kind picks a generic
// message for its category before falling back to ERR000.

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// =========================================================================
	// File Errors (FILE001-FILE005)
	// =========================================================================
	{
		pattern: "no such file",
		msg: UserMessage{
			Message: "The selected file no longer exists",
			Action:  "Refresh the file list and pick another file",
			Code:    "FILE001",
		},
	},
	{
		pattern: "file does not exist",
		msg: UserMessage{
			Message: "The selected file no longer exists",
			Action:  "Refresh the file list and pick another file",
			Code:    "FILE001",
		},
	},
	{
		pattern: "permission denied",
		msg: UserMessage{
			Message: "The file could not be read or written",
			Action:  "Check permissions on the documents and results folders",
			Code:    "FILE002",
		},
	},
	{
		pattern: "wrong number of fields",
		msg: UserMessage{
			Message: "The file is not a valid CSV",
			Action:  "Ensure the file is comma-separated with consistent columns",
			Code:    "FILE003",
		},
	},
	{
		pattern: "parse error",
		msg: UserMessage{
			Message: "The file is not a valid CSV",
			Action:  "Ensure the file is comma-separated with consistent columns",
			Code:    "FILE003",
		},
	},
	{
		pattern: "file has no records",
		msg: UserMessage{
			Message: "The file has no records to label",
			Action:  "Pick a file with at least one data row",
			Code:    "FILE004",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The file has no records to label",
			Action:  "Pick a file with at least one data row",
			Code:    "FILE004",
		},
	},
	{
		pattern: "file already exists",
		msg: UserMessage{
			Message: "A report with the same name already exists",
			Action:  "Wait a second and retry the export",
			Code:    "FILE005",
		},
	},
	{
		pattern: "file exists",
		msg: UserMessage{
			Message: "A report with the same name already exists",
			Action:  "Wait a second and retry the export",
			Code:    "FILE005",
		},
	},

	// =========================================================================
	// Schema Errors (SCH001)
	// =========================================================================
	{
		pattern: "missing required column",
		msg: UserMessage{
			Message: "Required column is missing from the CSV",
			Action:  `The file needs "user" and "text" columns`,
			Code:    "SCH001",
		},
	},

	// =========================================================================
	// Progress Errors (PRG002-PRG003)
	// =========================================================================
	{
		pattern: "saved progress does not match file",
		msg: UserMessage{
			Message: "Saved progress does not match the file",
			Action:  "The file changed since it was saved; start a new session",
			Code:    "PRG002",
		},
	},
	{
		pattern: "no saved progress",
		msg: UserMessage{
			Message: "There is no saved progress to resume",
			Action:  "Start a new session",
			Code:    "PRG003",
		},
	},

	// =========================================================================
	// Validation Errors (VAL001-VAL007)
	// =========================================================================
	{
		pattern: "username is required",
		msg: UserMessage{
			Message: "Please enter your name",
			Action:  "Your name is used to label the exported column",
			Code:    "VAL001",
		},
	},
	{
		pattern: "file already completed",
		msg: UserMessage{
			Message: "This file has already been completed",
			Action:  "Select another file or reset completed files",
			Code:    "VAL002",
		},
	},
	{
		pattern: "no sentiment selected",
		msg: UserMessage{
			Message: "Select a sentiment before submitting",
			Action:  "Choose Positive, Neutral or Negative",
			Code:    "VAL003",
		},
	},
	{
		pattern: "action not allowed",
		msg: UserMessage{
			Message: "That action is not available right now",
			Action:  "Reload the page to see the current step",
			Code:    "VAL004",
		},
	},
	{
		pattern: "no file selected",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Choose a file to label",
			Code:    "VAL005",
		},
	},
	{
		pattern: "invalid file name",
		msg: UserMessage{
			Message: "The file name is not valid",
			Action:  "Choose a CSV file from the list",
			Code:    "VAL006",
		},
	},
	{
		pattern: "unknown sentiment",
		msg: UserMessage{
			Message: "Unknown sentiment",
			Action:  "Choose Positive, Neutral or Negative",
			Code:    "VAL007",
		},
	},
	{
		pattern: "invalid username",
		msg: UserMessage{
			Message: "Your name cannot contain slashes or \"..\"",
			Action:  "Enter a plain name",
			Code:    "VAL008",
		},
	},

	// =========================================================================
	// Rate Limiting (RATE001)
	// =========================================================================
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// kindMessages are used when no pattern matches but the error carries a Kind.
var kindMessages = map[ErrorKind]UserMessage{
	KindIO: {
		Message: "A file could not be read or written",
		Action:  "Check that the documents and results folders are accessible",
		Code:    "FILE000",
	},
	KindSchema: {
		Message: "The CSV does not have the expected columns",
		Action:  `The file needs "user" and "text" columns`,
		Code:    "SCH000",
	},
	KindSerialization: {
		Message: "Saved progress could not be read",
		Action:  "Start a new session; the saved progress was discarded",
		Code:    "PRG001",
	},
	KindValidation: {
		Message: "The request was not valid",
		Action:  "Check your input and try again",
		Code:    "VAL000",
	},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
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

	if msg, ok := kindMessages[KindOf(err)]; ok {
		return msg
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
