package service

import "errors"

// Common service errors
var (
	// ErrPermissionDenied is returned when a user doesn't have permission for an action
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidCredentials is returned when login fails
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrAccountDeactivated is returned on login for a deactivated account
	ErrAccountDeactivated = errors.New("account is deactivated")

	// ErrEmailTaken is returned when creating a user with an existing email
	ErrEmailTaken = errors.New("email already in use")

	// ErrCannotDeleteSelf is returned when an admin tries to delete their own account
	ErrCannotDeleteSelf = errors.New("cannot delete your own account")

	// ErrCannotRemoveLastAdmin is returned when deleting would leave no active admin
	ErrCannotRemoveLastAdmin = errors.New("cannot remove the last admin account")

	// ErrAdminExists is returned by seed-admin when an admin account already exists
	ErrAdminExists = errors.New("an admin account already exists")

	// ErrNoAssignableUsers is returned when no active sales user can take a lead
	ErrNoAssignableUsers = errors.New("no active sales users available for assignment")
)
