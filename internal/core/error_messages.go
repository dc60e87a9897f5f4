package core

// # Error Codes Reference
//
// This file maps technical errors to user messages with a code that users
// can quote to support staff.
//
// # Import Errors (FMT, FILE, PROC, IMP)
//
//	FMT001  - Unsupported format: the declared media type has no decoder
//	          Action: Upload text/csv or a SpreadsheetML (.xml) export
//	FILE001 - File too large
//	FILE002 - Invalid CSV: malformed quoting or structure
//	FILE004 - No file provided
//	FILE005 - Empty file
//	FILE006 - Invalid spreadsheet XML
//	PROC001 - A record could not be persisted; see the import log
//	IMP001  - Import not found
//	IMP002  - Too many imports in progress
//
// # Database Errors (DB001-DB099)
//
//	DB001 - Duplicate key              Patterns: "duplicate key"
//	DB002 - Unique constraint          Patterns: "unique constraint", "violates unique"
//	DB003 - Foreign key                Patterns: "foreign key constraint", "violates foreign key"
//	DB004 - Connection refused         Patterns: "connection refused"
//	DB005 - Connection reset           Patterns: "connection reset"
//	DB006 - Timeout                    Patterns: "timeout"
//	DB007 - Deadlock                   Patterns: "deadlock"
//
// # Request Errors (REQ001-REQ099)
//
//	REQ001 - Request cancelled         Patterns: "context canceled"
//	REQ002 - Request timed out         Patterns: "context deadline exceeded"
//	REQ003 - Malformed request         Patterns: "invalid request"
//
// ERR000 is the fallback; check the application logs for the original error.

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage is a user-facing description of an error.
type UserMessage struct {
	Message string `json:"message"`
	Action  string `json:"action"`
	Code    string `json:"code"`
}

var (
	msgUnsupportedFormat = UserMessage{
		Message: "Unsupported file format",
		Action:  "Upload a CSV (text/csv) or SpreadsheetML (application/xml) export",
		Code:    "FMT001",
	}
	msgInvalidCSV = UserMessage{
		Message: "File is not a valid CSV",
		Action:  "Check quoting and make sure the first row holds the column names",
		Code:    "FILE002",
	}
	msgEmptyFile = UserMessage{
		Message: "The uploaded file is empty",
		Action:  "Upload a file with a header row and data rows",
		Code:    "FILE005",
	}
	msgInvalidXML = UserMessage{
		Message: "File is not a valid spreadsheet XML export",
		Action:  "Export the sheet again as XML Spreadsheet 2003",
		Code:    "FILE006",
	}
	msgProcessing = UserMessage{
		Message: "Some records could not be saved",
		Action:  "Check the import log for the failing rows",
		Code:    "PROC001",
	}
	msgNotFound = UserMessage{
		Message: "Import not found",
		Action:  "Check the import id",
		Code:    "IMP001",
	}
	msgBusy = UserMessage{
		Message: "System busy: too many imports in progress",
		Action:  "Please wait a moment and try again",
		Code:    "IMP002",
	}
)

// errorPattern maps a substring to a user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns are tried in order against the lowercased error text when
// no typed error matches.
var errorPatterns = []errorPattern{
	{
		pattern: "duplicate key",
		msg: UserMessage{
			Message: "A record with this key already exists",
			Action:  "Check the file for repeated rows",
			Code:    "DB001",
		},
	},
	{
		pattern: "unique constraint",
		msg: UserMessage{
			Message: "This value must be unique but already exists",
			Action:  "Check the file for duplicate entries",
			Code:    "DB002",
		},
	},
	{
		pattern: "violates unique",
		msg: UserMessage{
			Message: "This value must be unique but already exists",
			Action:  "Check the file for duplicate entries",
			Code:    "DB002",
		},
	},
	{
		pattern: "foreign key constraint",
		msg: UserMessage{
			Message: "Referenced record does not exist",
			Action:  "Please try again or contact support",
			Code:    "DB003",
		},
	},
	{
		pattern: "violates foreign key",
		msg: UserMessage{
			Message: "Referenced record does not exist",
			Action:  "Please try again or contact support",
			Code:    "DB003",
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Please try again in a few moments",
			Code:    "DB004",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB005",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller file or try again later",
			Code:    "REQ002",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Try a smaller file or try again later",
			Code:    "DB006",
		},
	},
	{
		pattern: "deadlock",
		msg: UserMessage{
			Message: "Database was busy with conflicting operations",
			Action:  "Please try again",
			Code:    "DB007",
		},
	},
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds maximum size limit",
			Action:  "Split the file into smaller exports",
			Code:    "FILE001",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Attach the export in the \"file\" form field",
			Code:    "FILE004",
		},
	},
	{
		pattern: "invalid request",
		msg: UserMessage{
			Message: "The request could not be understood",
			Action:  "Check the query parameters and form fields",
			Code:    "REQ003",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "REQ001",
		},
	},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message. Typed
// import errors are matched first, then the text patterns (case-insensitive).
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var decodeErr *DecodeError
	switch {
	case errors.Is(err, ErrUnsupportedFormat):
		return msgUnsupportedFormat
	case errors.As(err, &decodeErr):
		if decodeErr.Err != nil && strings.Contains(decodeErr.Err.Error(), "empty file") {
			return msgEmptyFile
		}
		if decodeErr.Format == "xml" {
			return msgInvalidXML
		}
		return msgInvalidCSV
	case errors.Is(err, ErrProcessing):
		return msgProcessing
	case errors.Is(err, ErrNotFound):
		return msgNotFound
	case errors.Is(err, ErrTooManyImports):
		return msgBusy
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError renders "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to something other than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user message.
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

// NewUserError maps err. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
