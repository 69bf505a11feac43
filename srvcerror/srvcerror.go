package srvcerror

import "net/http"

type Error struct {
	errorCode  string
	msgToUser  string // public
	dbgInfoErr error  // private, for debugging

	httpStatus int // optional, for HTTP responses
}

func (e *Error) Error() string {
	return e.msgToUser
}

func (e *Error) ErrorCode() string {
	return e.errorCode
}

func (e *Error) DebugInfo() error {
	return e.dbgInfoErr
}

// Unwrap exposes the debug error to errors.Is and errors.As.
func (e *Error) Unwrap() error {
	return e.dbgInfoErr
}

func (e *Error) SetDebug(err error) *Error {
	e.dbgInfoErr = err
	return e
}

func (e *Error) HttpStatusCode() int {
	if e.httpStatus == 0 {
		return http.StatusInternalServerError
	}
	return e.httpStatus
}

func (e *Error) SetHttpStatusCode(code int) *Error {
	e.httpStatus = code
	return e
}

func New(errorCode string, msgToUser string) *Error {
	return &Error{
		errorCode: errorCode,
		msgToUser: msgToUser,
	}
}

const ErrCodeInternalServerError = "internal_server_error"

func ErrInternalSE() *Error {
	return New(
		ErrCodeInternalServerError,
		"internal server error",
	).SetHttpStatusCode(http.StatusInternalServerError)
}

const ErrCodeInvalidForm = "invalid_form"

func ErrInvalidForm() *Error {
	return New(
		ErrCodeInvalidForm,
		"The submission form could not be read.",
	).SetHttpStatusCode(http.StatusBadRequest)
}

const ErrCodeStoreUnavailable = "store_unavailable"

// ErrStoreUnavailable reports a failed document or blob store call. The
// store's own description is shown to the user.
func ErrStoreUnavailable(err error) *Error {
	return New(
		ErrCodeStoreUnavailable,
		err.Error(),
	).SetDebug(err).SetHttpStatusCode(http.StatusBadGateway)
}

const ErrCodeNotFound = "not_found"

func ErrNotFound(what string) *Error {
	return New(
		ErrCodeNotFound,
		what+" not found",
	).SetHttpStatusCode(http.StatusNotFound)
}

const ErrCodeFormTooLarge = "form_too_large"

func ErrFormTooLarge() *Error {
	return New(
		ErrCodeFormTooLarge,
		"The submission is too large.",
	).SetHttpStatusCode(http.StatusRequestEntityTooLarge)
}
