package flashcard

import "errors"

var (
	ErrTextTooShort     = errors.New("text too short, provide more content")
	ErrMissingCardSides = errors.New("front and back are required")
)
