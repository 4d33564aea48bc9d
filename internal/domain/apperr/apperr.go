// Package apperr defines the error taxonomy shared by usecases and transports.
package apperr

import (
	"errors"
	"fmt"
)

// Code identifies a failure kind.
type Code string

const (
	CodeExtraction      Code = "EXTRACTION"
	CodeParsing         Code = "PARSING"
	CodeEmbedding       Code = "EMBEDDING"
	CodeNoResume        Code = "NO_RESUME"
	CodeStillProcessing Code = "STILL_PROCESSING"
	CodeResumeFailed    Code = "RESUME_FAILED"
	CodeInsightsFormat  Code = "INSIGHTS_FORMAT"
	CodeValidation      Code = "VALIDATION"
	CodeNotFound        Code = "NOT_FOUND"
	// CodeSuperseded marks a pipeline write rejected because a newer upload owns the resume.
	CodeSuperseded Code = "SUPERSEDED"
)

// Error is a coded error with optional cause and details.
type Error struct {
	Code     Code
	Message  string
	Cause    error
	Metadata map[string]string
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error with the same code so errors.Is works on sentinels.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// WithMeta returns the error with an extra detail attached.
func (e *Error) WithMeta(key, value string) *Error {
	if e.Metadata == nil {
		e.Metadata = make(map[string]string)
	}
	e.Metadata[key] = value
	return e
}

// New creates a coded error.
func New(code Code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

// Wrap creates a coded error around cause.
func Wrap(code Code, msg string, cause error) *Error {
	return &Error{Code: code, Message: msg, Cause: cause}
}

// CodeOf returns the code of the first *Error in the chain, or "".
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Is reports whether err carries code.
func Is(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}

func Extraction(msg string, cause error) *Error {
	return Wrap(CodeExtraction, msg, cause)
}

func Parsing(msg string, cause error) *Error {
	return Wrap(CodeParsing, msg, cause)
}

func Embedding(msg string, cause error) *Error {
	return Wrap(CodeEmbedding, msg, cause)
}

func NoResume() *Error {
	return New(CodeNoResume, "no resume uploaded")
}

func StillProcessing() *Error {
	return New(CodeStillProcessing, "resume is still processing")
}

// ResumeFailed reports that the last pipeline run for the resume failed.
func ResumeFailed(processingError string) *Error {
	return New(CodeResumeFailed, "resume processing failed").WithMeta("processingError", processingError)
}

func InsightsFormat(msg string, cause error) *Error {
	return Wrap(CodeInsightsFormat, msg, cause)
}

func Validation(msg string) *Error {
	return New(CodeValidation, msg)
}

func NotFound(what string) *Error {
	return New(CodeNotFound, what+" not found")
}

func Superseded() *Error {
	return New(CodeSuperseded, "resume version superseded")
}
