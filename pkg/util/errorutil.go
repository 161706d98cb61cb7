package util

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Message identifiers shared by the error constructors. Catalog entries live in
// internal/locale/messages.
const (
	MsgInternalError  = "InternalError"
	MsgInvalidPayload = "InvalidPayload"
	MsgNotFound       = "RecordNotFound"
	MsgRouteNotFound  = "RouteNotFound"
	MsgTooManyTries   = "TooManyAttempts"
)

// MessageRef is a template value that names another catalog message; it is
// localized before being substituted.
type MessageRef string

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	MessageID  string
	Data       map[string]any
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.MessageID, e.Err)
	}
	return e.MessageID
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// WithDetails attaches extra response details and returns the same error.
func (e *DomainError) WithDetails(details map[string]any) *DomainError {
	e.Details = details
	return e
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, messageID string, status int, data map[string]any) *DomainError {
	return &DomainError{Code: code, MessageID: messageID, HTTPStatus: status, Data: data}
}

func NewValidationError(messageID string, data map[string]any) error {
	return NewDomainError("VALIDATION_FAILED", messageID, http.StatusBadRequest, data)
}

// NewNotFound reports a missing resource.
func NewNotFound(messageID string, data map[string]any) error {
	return NewDomainError("NOT_FOUND", messageID, http.StatusNotFound, data)
}

func NewUnauthorized(messageID string) error {
	return NewDomainError("UNAUTHORIZED", messageID, http.StatusUnauthorized, nil)
}

func NewForbidden(messageID string) error {
	return NewDomainError("FORBIDDEN", messageID, http.StatusForbidden, nil)
}

func NewConflict(messageID string, data map[string]any) error {
	return NewDomainError("CONFLICT", messageID, http.StatusConflict, data)
}

func NewTooManyRequests() error {
	return NewDomainError("TOO_MANY_REQUESTS", MsgTooManyTries, http.StatusTooManyRequests, nil)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		MessageID:  MsgInternalError,
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fromFiberError(fiberErr)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return NewDomainError("NOT_FOUND", MsgNotFound, http.StatusNotFound, map[string]any{"Entity": MessageRef("EntityResource")})
	}
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		MessageID:  MsgInternalError,
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func fromFiberError(err *fiber.Error) *DomainError {
	switch err.Code {
	case http.StatusNotFound:
		return NewDomainError("NOT_FOUND", MsgRouteNotFound, err.Code, nil)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return NewDomainError("VALIDATION_FAILED", MsgInvalidPayload, err.Code, nil)
	case http.StatusRequestEntityTooLarge:
		return NewDomainError("PAYLOAD_TOO_LARGE", MsgInvalidPayload, err.Code, nil)
	case http.StatusMethodNotAllowed:
		return NewDomainError("METHOD_NOT_ALLOWED", MsgRouteNotFound, err.Code, nil)
	}
	if err.Code >= http.StatusInternalServerError {
		return &DomainError{Code: "INTERNAL_ERROR", MessageID: MsgInternalError, HTTPStatus: err.Code, Err: err}
	}
	return NewDomainError("REQUEST_FAILED", MsgInvalidPayload, err.Code, nil)
}

func MapError(err error) error {
	return ToDomainError(err)
}
