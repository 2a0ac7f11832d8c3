package errors

import (
	"fmt"
	"net/http"
)

// AppError is a client-facing error with a stable numeric id, a name and the HTTP status
// it is rendered with. AppErrors are returned unchanged across layers, never wrapped.
type AppError struct {
	ID         int
	Name       string
	Message    string
	HTTPStatus int
	// InternalLog is logged server side and never rendered.
	InternalLog string
	cause       error
}

// Body is the JSON representation sent to clients.
type Body struct {
	Error   bool   `json:"error"`
	Name    string `json:"name"`
	ID      int    `json:"id"`
	Message string `json:"message"`
}

func (e *AppError) Error() string {
	return fmt.Sprintf("error %d (%s): %s", e.ID, e.Name, e.Message)
}

// Unwrap exposes the underlying cause, if any.
func (e *AppError) Unwrap() error {
	return e.cause
}

// Body returns the client-facing JSON body.
func (e *AppError) Body() Body {
	return Body{Error: true, Name: e.Name, ID: e.ID, Message: e.Message}
}

// WithCause attaches an underlying error for logging.
func (e *AppError) WithCause(err error) *AppError {
	e.cause = err
	return e
}

// AsAppError returns the first AppError in err's tree.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Error names.
const (
	NameInternalServer  = "InternalServerError"
	NameUnauthorized    = "UnauthorizedError"
	NameUnauthenticated = "UnauthenticatedError"
	NameNotFound        = "NotFoundError"
	NameValidation      = "ValidationError"
	NameDatabaseInsert  = "DatabaseInsertError"
	NameDatabaseFetch   = "DatabaseFetchError"
	NameDatabaseDelete  = "DatabaseDeleteError"
)

// DefaultUnauthorizedMessage is used when a principal lacks the roles for a route.
const DefaultUnauthorizedMessage = "User does not have the privileges for this task."

// NewUnauthorized is returned when a valid principal is not allowed to perform the
// request. It is rendered as 401.
func NewUnauthorized(message string) *AppError {
	if message == "" {
		message = DefaultUnauthorizedMessage
	}
	return &AppError{ID: 101, Name: NameUnauthorized, Message: message, HTTPStatus: http.StatusUnauthorized}
}

// NewUnauthenticated is returned when no valid credential was presented. It is
// rendered as 403.
func NewUnauthenticated(message string) *AppError {
	return &AppError{ID: 102, Name: NameUnauthenticated, Message: message, HTTPStatus: http.StatusForbidden}
}

// NewInternalServer is returned for misconfiguration and unexpected failures.
func NewInternalServer(message string) *AppError {
	if message == "" {
		message = "An internal server error occurred. Please try again or contact support."
	}
	return &AppError{ID: 100, Name: NameInternalServer, Message: message, HTTPStatus: http.StatusInternalServerError}
}

// NewNotFound reports an unknown endpoint or resource.
func NewNotFound(message string) *AppError {
	return &AppError{ID: 103, Name: NameNotFound, Message: message, HTTPStatus: http.StatusNotFound}
}

// NewValidation reports invalid client input.
func NewValidation(message string) *AppError {
	return &AppError{ID: 104, Name: NameValidation, Message: message, HTTPStatus: http.StatusBadRequest}
}

// NewPayloadTooLarge reports a request body over the accepted size. It is a
// validation failure rendered as 413.
func NewPayloadTooLarge(message string) *AppError {
	return &AppError{ID: 104, Name: NameValidation, Message: message, HTTPStatus: http.StatusRequestEntityTooLarge}
}

func NewDatabaseInsert(message string) *AppError {
	return &AppError{ID: 105, Name: NameDatabaseInsert, Message: message, HTTPStatus: http.StatusInternalServerError}
}

func NewDatabaseFetch(message string) *AppError {
	return &AppError{ID: 106, Name: NameDatabaseFetch, Message: message, HTTPStatus: http.StatusInternalServerError}
}

func NewDatabaseDelete(message string) *AppError {
	return &AppError{ID: 111, Name: NameDatabaseDelete, Message: message, HTTPStatus: http.StatusInternalServerError}
}
