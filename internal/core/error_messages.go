package core

// error_messages.go maps technical errors to user-facing messages with a
// short code that users can quote to support. Patterns are matched case-insensitively with
// strings.Contains against the error text; the first match wins, so more
// specific patterns come first.
//
// # Validation (VAL)
//
//	VAL003 - Required field is empty             "required field"
//	VAL004 - Required column missing from file   "missing required column"
//	VAL007 - Submitted data is incomplete        "invalid input"
//
// # Inventory (INV)
//
//	INV001 - Location does not exist             "location not found"
//	INV002 - Item does not exist                 "item not found"
//	INV003 - Record does not exist               "not found"
//	INV004 - Import run does not exist           "import not found"
//
// # Authentication (AUTH)
//
//	AUTH001 - Not signed in                      "not authenticated"
//	AUTH002 - Session expired or invalid         "invalid session"
//	AUTH003 - Sign-in attempt could not be verified  "invalid oauth state"
//	AUTH004 - Identity provider refused sign-in  "oauth exchange"
//	AUTH005 - Sign-in is not set up              "sign-in is not configured"
//
// # Files (FILE)
//
//	FILE001 - Upload exceeds the size limit      "request body too large", "file too large"
//	FILE002 - File is not a valid CSV            "invalid csv"
//	FILE003 - File is not a valid workbook       "invalid xlsx"
//	FILE004 - No file selected                   "no file provided"
//	FILE005 - File has no rows                   "empty file"
//
// # Uploads (UPL)
//
//	UPL002 - Too many imports running            "too many uploads"
//	UPL004 - Request cancelled                   "context canceled"
//	UPL005 - Request timed out                   "context deadline exceeded"
//
// # Storage (DB)
//
//	DB001 - Record id already exists             "duplicate key"
//	DB004 - Storage unreachable                  "connection refused"
//	DB005 - Storage connection dropped           "connection reset"
//	DB006 - Storage operation timed out          "timeout"
//	DB007 - Storage busy                         "deadlock"
//
// # Rate limiting (RATE)
//
//	RATE001 - Too many requests                  "rate limit"
//
// ERR000 is the fallback; check the logs for the technical error, which is
// always logged with the request id.

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened
	Action  string // What to do about it
	Code    string // Support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// Validation
	{"required field", UserMessage{"Required field is empty", "Fill in the item name for every row", "VAL003"}},
	{"missing required column", UserMessage{"Required column is missing from the file", "Include ItemName and ItemLocation columns in the header row", "VAL004"}},
	{"invalid input", UserMessage{"Some required information is missing", "Check the highlighted fields and try again", "VAL007"}},

	// Inventory
	{"location not found", UserMessage{"Location not found", "Pick one of your existing locations", "INV001"}},
	{"item not found", UserMessage{"Item not found", "It may have been deleted. Refresh and try again", "INV002"}},
	{"import not found", UserMessage{"Import not found", "Pick a run from your import history", "INV004"}},
	{"not found", UserMessage{"Record not found", "Refresh and try again", "INV003"}},

	// Authentication
	{"not authenticated", UserMessage{"You are not signed in", "Sign in and try again", "AUTH001"}},
	{"invalid session", UserMessage{"Your session has expired", "Sign in again", "AUTH002"}},
	{"invalid oauth state", UserMessage{"Sign-in could not be verified", "Start the sign-in again from the login page", "AUTH003"}},
	{"oauth exchange", UserMessage{"The identity provider refused the sign-in", "Try signing in again", "AUTH004"}},
	{"sign-in is not configured", UserMessage{"Sign-in is not available on this server", "Contact the administrator", "AUTH005"}},

	// Files
	{"request body too large", UserMessage{"File exceeds the maximum upload size", "Split the file into smaller parts", "FILE001"}},
	{"file too large", UserMessage{"File exceeds the maximum upload size", "Split the file into smaller parts", "FILE001"}},
	{"invalid csv", UserMessage{"File is not a valid CSV", "Export the sheet as comma-separated values", "FILE002"}},
	{"invalid xlsx", UserMessage{"File is not a valid Excel workbook", "Save the file as .xlsx or export it as CSV", "FILE003"}},
	{"no file provided", UserMessage{"No file was selected", "Choose a CSV or XLSX file to import", "FILE004"}},
	{"empty file", UserMessage{"The uploaded file is empty", "Upload a file with a header row and data rows", "FILE005"}},

	// Uploads
	{"too many uploads", UserMessage{"Too many imports are running", "Please wait a moment and try again", "UPL002"}},
	{"context canceled", UserMessage{"Request was cancelled", "Please try again", "UPL004"}},
	{"context deadline exceeded", UserMessage{"Request timed out", "Try a smaller file or check your connection", "UPL005"}},

	// Storage
	{"duplicate key", UserMessage{"A record with this ID already exists", "Please try again", "DB001"}},
	{"connection refused", UserMessage{"Unable to reach storage", "Please try again in a few moments", "DB004"}},
	{"connection reset", UserMessage{"Storage connection was interrupted", "Please try again", "DB005"}},
	{"timeout", UserMessage{"Operation timed out", "Please try again later", "DB006"}},
	{"deadlock", UserMessage{"Storage was busy with conflicting operations", "Please try again", "DB007"}},

	// Rate limiting
	{"rate limit", UserMessage{"Too many requests", "Please wait a moment before trying again", "RATE001"}},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// Unknown errors map to ERR000.
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

// FormatUserError renders err as "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matches a known pattern.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
