// error_messages.go maps technical errors to messages an operator or API
// client can act on. Every message carries a code to quote to support.
//
// # Rejection Codes (REJ001-REJ099)
//
// One code per ReasonCode, resolved from *ValidationError before any
// text matching:
//
//	REJ001 - INSUFFICIENT_FIELDS: the line needs a name and a price
//	REJ002 - EMPTY_NAME:          the product name is blank
//	REJ003 - MALFORMED_PRICE:     the price is not a decimal number
//	REJ004 - NEGATIVE_PRICE:      the price is below zero
//	REJ005 - PRICE_OUT_OF_RANGE:  the price is above 1,000,000
//	REJ006 - EMPTY_LINE:          the line holds only whitespace
//	REJ007 - UNEXPECTED_ERROR:    the line could not be processed
//
// # Storage Errors (DB001-DB099)
//
//	DB001 - Not found:          no product with this id (ErrNotFound)
//	DB002 - No store:           persistence is not configured (ErrNoStore)
//	DB003 - Duplicate:          "duplicate key", "unique constraint"
//	DB004 - Connection refused: "connection refused"
//	DB005 - Connection reset:   "connection reset"
//	DB006 - Busy:               "database is locked", "deadlock"
//	DB007 - Input unreadable:   ErrInputUnreadable
//
// # Request Errors (HTTP001-HTTP099)
//
//	HTTP001 - Rate limited:      "rate limit"
//	HTTP002 - Cancelled:         "context canceled"
//	HTTP003 - Timed out:         "context deadline exceeded", "timeout"
//	HTTP004 - Bad request body:  "invalid request body"
//
// # Default Error (ERR000)
//
// Fallback when nothing matches. Check the logs for the technical error.
//
// Text patterns are matched case-insensitively with strings.Contains and the
// first match wins, so specific patterns come before general ones.
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

var rejectionMessages = map[ReasonCode]UserMessage{
	ReasonInsufficientFields: {
		Message: "The line does not have both a name and a price",
		Action:  "Provide lines in the form Name,Price",
		Code:    "REJ001",
	},
	ReasonEmptyName: {
		Message: "Product name is empty",
		Action:  "Give every product a name",
		Code:    "REJ002",
	},
	ReasonMalformedPrice: {
		Message: "Price is not a valid number",
		Action:  "Use a plain decimal such as 1299.99 without currency symbols",
		Code:    "REJ003",
	},
	ReasonNegativePrice: {
		Message: "Price cannot be negative",
		Action:  "Use a price of zero or more",
		Code:    "REJ004",
	},
	ReasonPriceOutOfRange: {
		Message: "Price is unreasonably high",
		Action:  "Use a price no greater than 1,000,000",
		Code:    "REJ005",
	},
	ReasonEmptyLine: {
		Message: "The line is empty",
		Action:  "Remove blank lines from the file",
		Code:    "REJ006",
	},
	ReasonUnexpectedError: {
		Message: "The line could not be processed",
		Action:  "Check the logs and report the line to support",
		Code:    "REJ007",
	},
}

// sentinelMessages are checked with errors.Is before text patterns.
var sentinelMessages = []struct {
	target error
	msg    UserMessage
}{
	{ErrNotFound, UserMessage{
		Message: "Product not found",
		Action:  "Check the product id",
		Code:    "DB001",
	}},
	{ErrNoStore, UserMessage{
		Message: "Product storage is not configured",
		Action:  "Configure a database driver and restart",
		Code:    "DB002",
	}},
	{ErrInputUnreadable, UserMessage{
		Message: "The input file could not be read",
		Action:  "Check that the file exists and is readable",
		Code:    "DB007",
	}},
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	{
		pattern: "duplicate key",
		msg: UserMessage{
			Message: "A product with this id already exists",
			Action:  "Retry the request",
			Code:    "DB003",
		},
	},
	{
		pattern: "unique constraint",
		msg: UserMessage{
			Message: "A product with this id already exists",
			Action:  "Retry the request",
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
		pattern: "database is locked",
		msg: UserMessage{
			Message: "Database is busy",
			Action:  "Please try again",
			Code:    "DB006",
		},
	},
	{
		pattern: "deadlock",
		msg: UserMessage{
			Message: "Database was busy with conflicting operations",
			Action:  "Please try again",
			Code:    "DB006",
		},
	},
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "HTTP001",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "HTTP002",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Please try again",
			Code:    "HTTP003",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Please try again later",
			Code:    "HTTP003",
		},
	},
	{
		pattern: "invalid request body",
		msg: UserMessage{
			Message: "The request body could not be read",
			Action:  `Send JSON like {"name": "Laptop", "price": 1299.99}`,
			Code:    "HTTP004",
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
// Validation errors map by reason code, then known sentinels, then the text
// patterns. If nothing matches, the ERR000 fallback is returned.
//
// Example:
//
//	_, err := Validate([]string{"Laptop", "abc"})
//	msg := MapError(err)
//	// msg.Code == "REJ003"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var verr *ValidationError
	if errors.As(err, &verr) {
		if msg, ok := rejectionMessages[verr.Code]; ok {
			return msg
		}
	}

	for _, sm := range sentinelMessages {
		if errors.Is(err, sm.target) {
			return sm.msg
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

// RejectionMessage returns the user message for a rejection reason.
func RejectionMessage(code ReasonCode) UserMessage {
	if msg, ok := rejectionMessages[code]; ok {
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

// IsUserFacing reports whether err maps to a specific message rather than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
