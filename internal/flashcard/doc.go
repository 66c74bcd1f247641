// Package flashcard implements the study features sitting behind the
// premium gate: per-user flashcards, text-to-cards generation and short
// explanations with optional history.
package flashcard
