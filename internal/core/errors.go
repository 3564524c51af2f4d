package core

// errors.go defines the domain error taxonomy and the mapping from
// technical errors to user-facing messages with support codes.
//
// Domain errors are sentinel values matched with errors.Is at the request
// boundary and surfaced as 4xx responses. Anything else (store failures,
// encoding failures) is treated as fatal for the request: logged, returned
// as a 5xx, never retried.

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors. All of these are recovered at the request boundary.
var (
	// ErrParse indicates the uploaded bytes are not valid delimited text.
	ErrParse = errors.New("invalid csv")

	// ErrEmptyDataset indicates a CSV with a header but zero data rows,
	// or no header at all.
	ErrEmptyDataset = errors.New("empty dataset: no data rows")

	// ErrNotFound indicates no dataset exists for a read-dependent operation.
	ErrNotFound = errors.New("no dataset found")

	// ErrIndexOutOfRange indicates a positional index outside [0, rowCount).
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrEmptyRow indicates an append payload with no non-empty fields.
	ErrEmptyRow = errors.New("empty row: at least one field must be set")

	// ErrDatasetsNotFound indicates one or both merge operands could not
	// be resolved.
	ErrDatasetsNotFound = errors.New("merge datasets not found")
)

// UserMessage provides user-friendly error information with a code for
// support reference.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// domainMessages maps domain sentinel errors to user messages.
// Codes: CSV0xx for ingestion, DATA0xx for row operations, MRG0xx for merge.
var domainMessages = []struct {
	err error
	msg UserMessage
}{
	{ErrParse, UserMessage{
		Message: "The file is not a valid CSV",
		Action:  "Ensure the file is comma-separated UTF-8 text with a header row",
		Code:    "CSV001",
	}},
	{ErrEmptyDataset, UserMessage{
		Message: "The CSV has no data rows",
		Action:  "Upload a file with a header and at least one data row",
		Code:    "CSV002",
	}},
	{ErrNotFound, UserMessage{
		Message: "No dataset has been uploaded yet",
		Action:  "Upload a CSV file first",
		Code:    "DATA001",
	}},
	{ErrIndexOutOfRange, UserMessage{
		Message: "Row index is out of range",
		Action:  "Refresh the table and try again",
		Code:    "DATA002",
	}},
	{ErrEmptyRow, UserMessage{
		Message: "The row is empty",
		Action:  "Fill in at least one field",
		Code:    "DATA003",
	}},
	{ErrDatasetsNotFound, UserMessage{
		Message: "Datasets to merge were not found",
		Action:  "Upload both datasets before merging",
		Code:    "MRG001",
	}},
}

// storePatterns maps lower-level error text (case-insensitive substring
// match, first match wins) to user messages. These cover store and
// transport failures that reach the boundary without a domain type.
var storePatterns = []struct {
	pattern string
	msg     UserMessage
}{
	{"connection refused", UserMessage{
		Message: "Unable to connect to the database",
		Action:  "Please try again in a few moments",
		Code:    "DB001",
	}},
	{"connection reset", UserMessage{
		Message: "Database connection was interrupted",
		Action:  "Please try again",
		Code:    "DB002",
	}},
	{"timeout", UserMessage{
		Message: "Operation timed out",
		Action:  "Try a smaller file or try again later",
		Code:    "DB003",
	}},
	{"context canceled", UserMessage{
		Message: "Request was cancelled",
		Action:  "Please try again",
		Code:    "REQ001",
	}},
	{"context deadline exceeded", UserMessage{
		Message: "Request timed out",
		Action:  "Try a smaller file or check your connection",
		Code:    "REQ002",
	}},
}

// defaultMessage is the fallback for unexpected errors. Support staff
// should check application logs for the original technical error when
// users report ERR000.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// Domain sentinels are matched first with errors.Is, then known store
// failure patterns, then the ERR000 fallback.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, dm := range domainMessages {
		if errors.Is(err, dm.err) {
			return dm.msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, sp := range storePatterns {
		if strings.Contains(errStr, sp.pattern) {
			return sp.msg
		}
	}

	return defaultMessage
}

// IsDomainError reports whether err matches one of the domain sentinels,
// i.e. it is a client-correctable failure rather than a server fault.
func IsDomainError(err error) bool {
	for _, dm := range domainMessages {
		if errors.Is(err, dm.err) {
			return true
		}
	}
	return false
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
