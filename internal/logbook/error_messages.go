package logbook

// error_messages.go maps technical errors from the layers around the
// pipeline to user-facing messages with support codes.
//
// # Payload Errors (PAY001-PAY099)
//
//	PAY001 - Invalid payload: The analysis payload is not valid JSON
//	         Patterns: "invalid payload", "invalid character", "unexpected end of json"
//	PAY002 - Empty payload: The payload contains no tables
//	         Patterns: "empty payload"
//	PAY003 - Payload too large: The payload exceeds the size limit
//	         Patterns: "request body too large", "payload too large"
//	PAY004 - Unknown format: The payload format is not recognized
//	         Patterns: "unknown payload format"
//
// # Source Errors (SRC001-SRC099)
//
//	SRC001 - Object not found: The referenced storage object does not exist
//	         Patterns: "nosuchkey", "nosuchbucket"
//	SRC002 - Access denied: Storage credentials were rejected
//	         Patterns: "accessdenied", "access denied"
//	SRC003 - File not found: The local input file does not exist
//	         Patterns: "no such file"
//	SRC004 - Storage disabled: s3:// sources are not configured
//	         Patterns: "storage is not configured"
//
// # OCR Errors (OCR001-OCR099)
//
//	OCR001 - OCR unavailable: This build has no OCR support
//	         Patterns: "ocr support not enabled"
//	OCR002 - Bad page image: The page image could not be decoded
//	         Patterns: "decode page image"
//	OCR003 - No geometry: Page images need a payload with cell positions
//	         Patterns: "requires a textract payload"
//
// # Rules Errors (RUL001-RUL099)
//
//	RUL001 - Invalid rules: The rules file could not be loaded
//	         Patterns: "invalid rules", "parse rules"
//
// # Capacity and Request Errors
//
//	SCAN001 - Busy: Too many reconstructions in progress
//	REQ001  - Request cancelled
//	REQ002  - Request timed out
//	RATE001 - Too many requests
//
// # Default Error (ERR000)
//
// Fallback when no pattern matches. Check the application logs for the
// technical error.
//
// Patterns are matched case-insensitively with strings.Contains and the first
// match wins, so specific patterns come before general ones.

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
	// Payload Errors (PAY001-PAY004)
	// =========================================================================
	{
		pattern: "unknown payload format",
		msg: UserMessage{
			Message: "The analysis payload format is not recognized",
			Action:  "Send a table list or a document analysis response, or set the format explicitly",
			Code:    "PAY004",
		},
	},
	{
		pattern: "empty payload",
		msg: UserMessage{
			Message: "The analysis payload contains no tables",
			Action:  "Check that the page was analyzed with table detection enabled",
			Code:    "PAY002",
		},
	},
	{
		pattern: "request body too large",
		msg: UserMessage{
			Message: "The analysis payload is too large",
			Action:  "Send one page per request",
			Code:    "PAY003",
		},
	},
	{
		pattern: "payload too large",
		msg: UserMessage{
			Message: "The analysis payload is too large",
			Action:  "Send one page per request",
			Code:    "PAY003",
		},
	},
	{
		pattern: "invalid payload",
		msg: UserMessage{
			Message: "The analysis payload is not valid JSON",
			Action:  "Check that the request body is the unmodified analysis output",
			Code:    "PAY001",
		},
	},
	{
		pattern: "invalid character",
		msg: UserMessage{
			Message: "The analysis payload is not valid JSON",
			Action:  "Check that the request body is the unmodified analysis output",
			Code:    "PAY001",
		},
	},
	{
		pattern: "unexpected end of json",
		msg: UserMessage{
			Message: "The analysis payload is truncated",
			Action:  "Upload the complete analysis output",
			Code:    "PAY001",
		},
	},

	// =========================================================================
	// Source Errors (SRC001-SRC004)
	// =========================================================================
	{
		pattern: "nosuchkey",
		msg: UserMessage{
			Message: "The referenced storage object does not exist",
			Action:  "Verify the bucket and key",
			Code:    "SRC001",
		},
	},
	{
		pattern: "nosuchbucket",
		msg: UserMessage{
			Message: "The referenced storage bucket does not exist",
			Action:  "Verify the bucket name",
			Code:    "SRC001",
		},
	},
	{
		pattern: "accessdenied",
		msg: UserMessage{
			Message: "Storage access was denied",
			Action:  "Check the configured storage credentials",
			Code:    "SRC002",
		},
	},
	{
		pattern: "access denied",
		msg: UserMessage{
			Message: "Storage access was denied",
			Action:  "Check the configured storage credentials",
			Code:    "SRC002",
		},
	},
	{
		pattern: "no such file",
		msg: UserMessage{
			Message: "The input file does not exist",
			Action:  "Check the path and try again",
			Code:    "SRC003",
		},
	},
	{
		pattern: "storage is not configured",
		msg: UserMessage{
			Message: "Fetching payloads from storage is not enabled",
			Action:  "Send the payload in the request body",
			Code:    "SRC004",
		},
	},

	// =========================================================================
	// OCR Errors (OCR001-OCR003)
	// =========================================================================
	{
		pattern: "ocr support not enabled",
		msg: UserMessage{
			Message: "OCR rescanning is not available in this build",
			Action:  "Rebuild with -tags ocr or omit the page image",
			Code:    "OCR001",
		},
	},
	{
		pattern: "decode page image",
		msg: UserMessage{
			Message: "The page image could not be read",
			Action:  "Use a PNG, JPEG, TIFF, BMP, GIF or WebP image",
			Code:    "OCR002",
		},
	},
	{
		pattern: "requires a textract payload",
		msg: UserMessage{
			Message: "Page images can only be used with document analysis payloads",
			Action:  "Send the document analysis output or omit the page image",
			Code:    "OCR003",
		},
	},

	// =========================================================================
	// Rules Errors (RUL001)
	// =========================================================================
	{
		pattern: "invalid rules",
		msg: UserMessage{
			Message: "The reconstruction rules are invalid",
			Action:  "Fix the rules file reported in the logs",
			Code:    "RUL001",
		},
	},
	{
		pattern: "parse rules",
		msg: UserMessage{
			Message: "The reconstruction rules are invalid",
			Action:  "Fix the rules file reported in the logs",
			Code:    "RUL001",
		},
	},

	// =========================================================================
	// Capacity and Request Errors
	// =========================================================================
	{
		pattern: "too many concurrent scans",
		msg: UserMessage{
			Message: "The service is busy reconstructing other pages",
			Action:  "Please wait a moment and try again",
			Code:    "SCAN001",
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
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try again with a single page",
			Code:    "REQ002",
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

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// It returns the first matching pattern's message, or ERR000.
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

// FormatUserError formats an error as "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matches a known pattern rather than
// falling back to ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user message.
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
