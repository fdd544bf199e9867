package domain

import "errors"

var (
	// ErrPlayerNotFound signals that a member lookup matched nothing,
	// as opposed to a member that exists but has no points in range.
	ErrPlayerNotFound = errors.New("player not found")

	// ErrNicknameTaken signals a case-insensitive nickname collision
	// within a family.
	ErrNicknameTaken = errors.New("nickname already used in this family")

	ErrInvalidNickname = errors.New("invalid nickname")
)
