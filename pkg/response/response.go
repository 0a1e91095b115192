package response

import (
	appErr "shopadmin/pkg/errors"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"

	internalMessage = "Internal server error."
)

// Response represents the standard API envelope. Endpoint-specific payloads
// embed it so every body carries status and message.
type Response struct {
	Status  string            `json:"status"`            // "success" or "error"
	Message string            `json:"message,omitempty"` // human readable outcome
	Errors  map[string]string `json:"errors,omitempty"`  // field -> message, validation failures only
}

// Success returns a success envelope with the given message
func Success(message string) Response {
	return Response{
		Status:  StatusSuccess,
		Message: message,
	}
}

// Error returns an error envelope with the given message
func Error(message string) Response {
	return Response{
		Status:  StatusError,
		Message: message,
	}
}

// ValidationError returns an error envelope carrying per-field messages
func ValidationError(message string, fields map[string]string) Response {
	return Response{
		Status:  StatusError,
		Message: message,
		Errors:  fields,
	}
}

// FromError builds the status and envelope for err. Causes wrapped inside
// the error are never rendered.
func FromError(err error) (int, Response) {
	status := appErr.HTTPStatus(err)
	ae, ok := appErr.As(err)
	if !ok || ae.Code == appErr.CodeInternal {
		msg := internalMessage
		if ok && ae.Message != "" {
			msg = ae.Message
		}
		return status, Error(msg)
	}
	if ae.Code == appErr.CodeValidation {
		return status, ValidationError(ae.Message, ae.Fields)
	}
	return status, Error(ae.Message)
}
