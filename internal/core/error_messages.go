package core

// error_messages.go maps technical errors to coded, user-facing messages.
//
// Error codes are grouped by category:
//
//	FMT001  - Unknown format: institution code is not registered
//	FMT002  - Invalid format definition in a descriptor file
//	SCH001  - Input has no columns
//	SCH002  - Required column has no source
//	DATE001 - Date value does not match the format's pattern (strict mode)
//	FILE001 - File too large
//	FILE002 - Invalid CSV
//	FILE003 - Encoding error
//	FILE004 - No file provided
//	FILE005 - Empty file
//	FILE006 - Unsupported file type
//	FILE007 - Unreadable PDF, or no transaction table found in it
//	FILE008 - Unreadable spreadsheet
//	OUT001  - Unsupported output format
//	CONV001 - Too many conversions in progress
//	AUTH001 - API key missing
//	AUTH002 - API key not recognized
//	UPL004  - Request cancelled
//	UPL005  - Request timed out
//	ERR000  - Fallback; check the logs for the technical error
//
// Errors produced by this module carry their code: typed errors such as
// UnknownFormatError, or a CodedError anywhere in the chain. Error text is
// only consulted for errors without one, because it may contain file names
// and cell values. Patterns are matched case-insensitively with
// strings.Contains; the first matching pattern wins.

import (
	"context"
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

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// Formats
	{
		pattern: "unknown format",
		msg: UserMessage{
			Message: "This bank format is not supported",
			Action:  "Pick one of the listed format codes",
			Code:    "FMT001",
		},
	},
	{
		pattern: "invalid format definition",
		msg: UserMessage{
			Message: "A custom format definition is invalid",
			Action:  "Fix the formats file and restart",
			Code:    "FMT002",
		},
	},

	// Schema
	{
		pattern: "input table has no columns",
		msg: UserMessage{
			Message: "The file has no columns",
			Action:  "Check that the export contains a transaction table",
			Code:    "SCH001",
		},
	},
	{
		pattern: "no source column",
		msg: UserMessage{
			Message: "A required column was not found in the file",
			Action:  "Check that the file was exported by the selected bank",
			Code:    "SCH002",
		},
	},
	{
		pattern: "date format mismatch",
		msg: UserMessage{
			Message: "A date does not match the bank's date format",
			Action:  "Check the selected format, or disable strict dates",
			Code:    "DATE001",
		},
	},

	// Files
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds maximum size limit",
			Action:  "Split the statement into smaller periods",
			Code:    "FILE001",
		},
	},
	{
		pattern: "invalid csv",
		msg: UserMessage{
			Message: "File is not a valid CSV",
			Action:  "Ensure file is comma-separated with a header row",
			Code:    "FILE002",
		},
	},
	{
		pattern: "encoding error",
		msg: UserMessage{
			Message: "File contains invalid characters",
			Action:  "Save file as UTF-8 or set the input encoding",
			Code:    "FILE003",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please select a statement to convert",
			Code:    "FILE004",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The uploaded file is empty",
			Action:  "Please upload a statement with transactions",
			Code:    "FILE005",
		},
	},
	{
		pattern: "unsupported file type",
		msg: UserMessage{
			Message: "File type is not supported",
			Action:  "Upload a PDF, CSV or XLSX statement",
			Code:    "FILE006",
		},
	},
	{
		pattern: "invalid pdf",
		msg: UserMessage{
			Message: "Could not read a transaction table from the PDF",
			Action:  "Check that the PDF is a text statement, not a scan",
			Code:    "FILE007",
		},
	},
	{
		pattern: "invalid spreadsheet",
		msg: UserMessage{
			Message: "Could not read the spreadsheet",
			Action:  "Save the file as .xlsx and try again",
			Code:    "FILE008",
		},
	},

	{
		pattern: "unsupported output format",
		msg: UserMessage{
			Message: "Output format is not supported",
			Action:  "Choose csv or xlsx",
			Code:    "OUT001",
		},
	},

	// Conversion process
	{
		pattern: "too many concurrent conversions",
		msg: UserMessage{
			Message: "System is busy processing other conversions",
			Action:  "Please wait a moment and try again",
			Code:    "CONV001",
		},
	},

	// Auth
	{
		pattern: "missing api key",
		msg: UserMessage{
			Message: "An API key is required",
			Action:  "Send the key in the X-API-Key header",
			Code:    "AUTH001",
		},
	},
	{
		pattern: "invalid api key",
		msg: UserMessage{
			Message: "The API key was not recognized",
			Action:  "Check the key with your administrator",
			Code:    "AUTH002",
		},
	},

	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "UPL004",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller file or check your connection",
			Code:    "UPL005",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// messagesByCode indexes errorPatterns by code.
var messagesByCode = func() map[string]UserMessage {
	m := make(map[string]UserMessage, len(errorPatterns))
	for _, ep := range errorPatterns {
		m[ep.msg.Code] = ep.msg
	}
	return m
}()

// MapError converts a technical error to a user-friendly message.
// If no code is found, a generic fallback with code ERR000 is returned.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	if code := errorCode(err); code != "" {
		if msg, ok := messagesByCode[code]; ok {
			return msg
		}
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// errorCode returns the code carried by the chain of err, preferring a
// CodedError over typed errors, or "" if there is none.
func errorCode(err error) string {
	var (
		coded   *CodedError
		unknown *UnknownFormatError
		schema  *SchemaMismatchError
		date    *DateFormatError
	)
	switch {
	case errors.As(err, &coded):
		return coded.Code
	case errors.As(err, &unknown):
		return "FMT001"
	case errors.As(err, &schema):
		switch schema.Reason {
		case ReasonNoColumns:
			return "SCH001"
		case ReasonMissingSources:
			return "SCH002"
		default:
			return "FMT002"
		}
	case errors.As(err, &date):
		return "DATE001"
	case errors.Is(err, context.Canceled):
		return "UPL004"
	case errors.Is(err, context.DeadlineExceeded):
		return "UPL005"
	}
	return ""
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

// IsUserFacing reports whether err matches a known pattern (not ERR000).
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user-facing message.
// Error returns the user message; Unwrap returns the technical error.
type UserError struct {
	Technical error
	User      UserMessage
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
