// Package apperr classifies failures so handlers can pick between a 404 page,
// a re-rendered form, a silent redirect, or a 500 page.
package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindNotFound            Kind = "NOT_FOUND"
	KindValidation          Kind = "VALIDATION_ERROR"
	KindPermissionDenied    Kind = "PERMISSION_DENIED"
	KindPreconditionAlready Kind = "PRECONDITION_ALREADY"
	KindInternal            Kind = "INTERNAL_ERROR"
)

type Error struct {
	Kind    Kind
	Message string
	// Fields holds per-field messages for validation failures.
	Fields map[string][]string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches two *Error values by kind and message so sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Message == t.Message
}

var (
	ErrSelfFollow = &Error{Kind: KindPreconditionAlready, Message: "cannot follow yourself"}
	ErrAnonymous  = &Error{Kind: KindPermissionDenied, Message: "authentication required"}
	ErrNotAuthor  = &Error{Kind: KindPermissionDenied, Message: "only the author may change this post"}
	ErrNotStaff   = &Error{Kind: KindPermissionDenied, Message: "staff only"}
)

func NotFound(resource string, key any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("%s %v not found", resource, key)}
}

func Validation(fields map[string][]string) *Error {
	return &Error{Kind: KindValidation, Message: "validation failed", Fields: fields}
}

func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: "internal server error", Err: err}
}

func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if err == nil {
		return ""
	}
	return KindInternal
}

func IsNotFound(err error) bool            { return KindOf(err) == KindNotFound }
func IsValidation(err error) bool          { return KindOf(err) == KindValidation }
func IsPermissionDenied(err error) bool    { return KindOf(err) == KindPermissionDenied }
func IsPreconditionAlready(err error) bool { return KindOf(err) == KindPreconditionAlready }

// FieldErrors returns the per-field messages carried by a validation error.
func FieldErrors(err error) map[string][]string {
	var e *Error
	if errors.As(err, &e) && e.Kind == KindValidation {
		return e.Fields
	}
	return nil
}
