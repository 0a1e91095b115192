package service

import (
	appErr "shopadmin/pkg/errors"
)

var (
	// ErrInvalidCredentials is returned for every failed login so callers
	// cannot tell an unknown email from a wrong password.
	ErrInvalidCredentials = appErr.New(appErr.CodeInvalidCredentials, "Invalid email or password.")
	ErrUnauthenticated    = appErr.New(appErr.CodeUnauthenticated, "Unauthenticated.")
	ErrForbidden          = appErr.New(appErr.CodeForbidden, "You do not have permission to access this resource.")
)

const (
	msgInternal        = "Something went wrong. Please try again later."
	msgEmailTaken      = "The email has already been taken."
	msgUserNotFound    = "User not found."
	msgProductNotFound = "Product not found."
)
