// Package validation provides error sinks used by aggregate validators.
//
// Validators never return early with an error. They report every problem to a
// Handler, and the caller decides whether to collect all of them (Notification)
// or only care about the first one (FirstErrorHandler).
package validation

import "strings"

// Error is a single human-readable validation problem.
type Error struct {
	Message string `json:"message"`
}

// NewError creates an Error with the given message.
func NewError(message string) Error {
	return Error{Message: message}
}

func (e Error) Error() string {
	return e.Message
}

// Handler receives validation errors.
type Handler interface {
	Append(err Error)
	HasErrors() bool
	Errors() []Error
}

// Notification collects every appended error.
type Notification struct {
	errors []Error
}

// NewNotification creates an empty Notification.
func NewNotification() *Notification {
	return &Notification{}
}

func (n *Notification) Append(err Error) {
	n.errors = append(n.errors, err)
}

// Merge appends all errors held by other.
func (n *Notification) Merge(other Handler) {
	if other == nil {
		return
	}
	n.errors = append(n.errors, other.Errors()...)
}

func (n *Notification) HasErrors() bool {
	return len(n.errors) > 0
}

func (n *Notification) Errors() []Error {
	out := make([]Error, len(n.errors))
	copy(out, n.errors)
	return out
}

// FirstErrorHandler keeps only the first appended error.
type FirstErrorHandler struct {
	first *Error
}

func (h *FirstErrorHandler) Append(err Error) {
	if h.first == nil {
		h.first = &err
	}
}

func (h *FirstErrorHandler) HasErrors() bool {
	return h.first != nil
}

func (h *FirstErrorHandler) Errors() []Error {
	if h.first == nil {
		return nil
	}
	return []Error{*h.first}
}

// Err returns the first error, or nil.
func (h *FirstErrorHandler) Err() error {
	if h.first == nil {
		return nil
	}
	return *h.first
}

// NotificationError carries the full list of validation errors of a rejected command.
type NotificationError struct {
	Message string
	Errs    []Error
}

// NewNotificationError builds a NotificationError from a handler's errors.
func NewNotificationError(message string, h Handler) *NotificationError {
	return &NotificationError{Message: message, Errs: h.Errors()}
}

func (e *NotificationError) Error() string {
	if len(e.Errs) == 0 {
		return e.Message
	}
	msgs := make([]string, 0, len(e.Errs))
	for _, err := range e.Errs {
		msgs = append(msgs, err.Message)
	}
	return e.Message + ": " + strings.Join(msgs, "; ")
}
