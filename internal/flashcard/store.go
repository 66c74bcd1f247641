package flashcard

import "context"

// Store persists cards, explanation history and per-user generation
// counters.
type Store interface {
	// ListCards returns the user's cards, newest first.
	ListCards(ctx context.Context, userID string) ([]Card, error)

	// SaveCard inserts a single card.
	SaveCard(ctx context.Context, card *Card) error

	// SaveCards inserts a batch of generated cards.
	SaveCards(ctx context.Context, cards []Card) error

	// SaveExplanation appends an explanation history entry.
	SaveExplanation(ctx context.Context, exp *Explanation) error

	// IncrementFlashcardsGenerated bumps the user's generation counter.
	IncrementFlashcardsGenerated(ctx context.Context, userID string, n int) error

	// IncrementExplanationsGenerated bumps the user's explanation counter.
	IncrementExplanationsGenerated(ctx context.Context, userID string) error
}
