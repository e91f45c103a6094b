package user

import "errors"

var (
	ErrMissingClaims           = errors.New("missing or invalid token claims")
	ErrEmployeeRequired        = errors.New("this action requires an employee account")
	ErrInsufficientPermissions = errors.New("insufficient permissions")
	ErrInvalidRole             = errors.New("invalid role")
)
