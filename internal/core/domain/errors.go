package domain

import "errors"

var (
	ErrNotFound      = errors.New("call not found")
	ErrAlreadyExists = errors.New("call already exists")
	ErrInvalidState  = errors.New("invalid call state")
	ErrInvalidInput  = errors.New("invalid input")

	// ErrTranslationUnavailable is a soft error: the message is kept, the
	// translation is left unset.
	ErrTranslationUnavailable = errors.New("translation unavailable")
	// ErrNoTranslation is returned by translators that have no entry for a text.
	ErrNoTranslation = errors.New("no translation")
)
