package blog

import "errors"

var (
	// ErrNotFound covers missing records and records the viewer may not see
	ErrNotFound = errors.New("not found")
	// ErrNotOwner is returned when a viewer tries to change someone else's post or comment
	ErrNotOwner = errors.New("not the author")
	// ErrUsernameTaken is returned when a profile edit picks an existing username
	ErrUsernameTaken = errors.New("username already taken")
	// ErrInvalidChoice is returned when a post references a missing category or location
	ErrInvalidChoice = errors.New("invalid choice")
)
