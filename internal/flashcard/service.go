package flashcard

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/cardbuddy/cardbuddy/pkg/logger"
)

const (
	minGenerateTextLen = 20
	minExplainTextLen  = 10
	maxTextLen         = 5000
	maxHistoryTextLen  = 500
)

// Service implements the flashcard and explanation operations. Cards are
// premium features; explanations work for anonymous callers too, with
// history kept only for authenticated ones.
type Service struct {
	store Store
	gen   Generator
	log   *slog.Logger
}

// NewService creates the flashcard service.
// Panics on nil dependencies to fail fast during initialization.
func NewService(store Store, gen Generator, log *slog.Logger) *Service {
	if store == nil {
		panic("flashcard: Store is required")
	}
	if gen == nil {
		panic("flashcard: Generator is required")
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Service{store: store, gen: gen, log: log}
}

// List returns the user's cards, newest first.
func (s *Service) List(ctx context.Context, userID string) ([]Card, error) {
	return s.store.ListCards(ctx, userID)
}

// Create stores a single hand-written card. Front and back are required;
// an empty category defaults to General.
func (s *Service) Create(ctx context.Context, userID, front, back, category string) (*Card, error) {
	if front == "" || back == "" {
		return nil, ErrMissingCardSides
	}
	if category == "" {
		category = defaultCategory
	}

	card := &Card{
		ID:        uuid.NewString(),
		UserID:    userID,
		Front:     front,
		Back:      back,
		Category:  category,
		CreatedAt: time.Now().Unix(),
	}
	if err := s.store.SaveCard(ctx, card); err != nil {
		return nil, err
	}
	return card, nil
}

// GenerateFromText derives cards from the given text and persists them.
// The generation counter is best-effort; a counter failure is logged and
// never fails the request.
func (s *Service) GenerateFromText(ctx context.Context, userID, text string) ([]Card, error) {
	if len(text) < minGenerateTextLen {
		return nil, ErrTextTooShort
	}
	if len(text) > maxTextLen {
		text = text[:maxTextLen]
	}

	now := time.Now().Unix()
	drafts := s.gen.Cards(text)
	cards := make([]Card, len(drafts))
	for i, d := range drafts {
		cards[i] = Card{
			ID:        uuid.NewString(),
			UserID:    userID,
			Front:     d.Front,
			Back:      d.Back,
			Category:  d.Category,
			CreatedAt: now,
		}
	}

	if err := s.store.SaveCards(ctx, cards); err != nil {
		return nil, err
	}

	if err := s.store.IncrementFlashcardsGenerated(ctx, userID, len(cards)); err != nil {
		s.log.ErrorContext(ctx, "failed to update generation counter",
			logger.UserID(userID), logger.Error(err))
	}

	return cards, nil
}

// Explain produces a short explanation of the text. It returns the
// explanation together with the length of the (possibly truncated) input.
// When userID is set the explanation is appended to the user's history; a
// history failure is logged and never fails the request.
func (s *Service) Explain(ctx context.Context, userID, text, source string) (string, int, error) {
	if len(text) < minExplainTextLen {
		return "", 0, ErrTextTooShort
	}
	if len(text) > maxTextLen {
		text = text[:maxTextLen]
	}

	explanation := s.gen.Explain(text)

	if userID != "" {
		original := text
		if len(original) > maxHistoryTextLen {
			original = original[:maxHistoryTextLen] + "..."
		}
		exp := &Explanation{
			ID:           uuid.NewString(),
			UserID:       userID,
			OriginalText: original,
			Explanation:  explanation,
			Source:       source,
			CreatedAt:    time.Now().Unix(),
		}
		if err := s.store.SaveExplanation(ctx, exp); err != nil {
			s.log.ErrorContext(ctx, "failed to save explanation history",
				logger.UserID(userID), logger.Error(err))
		} else if err := s.store.IncrementExplanationsGenerated(ctx, userID); err != nil {
			s.log.ErrorContext(ctx, "failed to update explanation counter",
				logger.UserID(userID), logger.Error(err))
		}
	}

	return explanation, len(text), nil
}
