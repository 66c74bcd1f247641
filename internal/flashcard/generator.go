package flashcard

import (
	"fmt"
	"strings"
)

// Generator turns source text into card drafts and short explanations.
// The default implementation is deterministic; an AI-backed one can be
// swapped in without touching the service.
type Generator interface {
	Cards(text string) []Draft
	Explain(text string) string
}

const (
	maxDraftsPerText = 5
	minSentenceLen   = 10
	frontWordLimit   = 8
	defaultCategory  = "General"
)

// SentenceGenerator derives cards from the text's own sentences: the front
// asks about the sentence's opening words, the back is the full sentence.
type SentenceGenerator struct{}

func NewSentenceGenerator() *SentenceGenerator { return &SentenceGenerator{} }

func (g *SentenceGenerator) Cards(text string) []Draft {
	drafts := make([]Draft, 0, maxDraftsPerText)
	for _, sentence := range splitSentences(text) {
		if len(sentence) < minSentenceLen {
			continue
		}
		drafts = append(drafts, Draft{
			Front:    fmt.Sprintf("What does %q refer to?", openingWords(sentence)),
			Back:     sentence,
			Category: defaultCategory,
		})
		if len(drafts) == maxDraftsPerText {
			break
		}
	}

	// Always produce at least one card for text that passed validation.
	if len(drafts) == 0 {
		drafts = append(drafts, Draft{
			Front:    "What is the key idea of this text?",
			Back:     strings.TrimSpace(text),
			Category: defaultCategory,
		})
	}
	return drafts
}

func (g *SentenceGenerator) Explain(text string) string {
	text = strings.TrimSpace(text)
	if len(text) < 100 {
		return "Simply put: " + text
	}
	first := splitSentences(text)[0]
	if !strings.HasSuffix(first, ".") {
		first += "."
	}
	return fmt.Sprintf(
		"In simple terms, this is about %s The key idea is to understand this concept as if explaining to a 5-year-old.",
		first)
}

func splitSentences(text string) []string {
	parts := strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?' || r == '\n'
	})
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		out = append(out, strings.TrimSpace(text))
	}
	return out
}

func openingWords(sentence string) string {
	words := strings.Fields(sentence)
	if len(words) > frontWordLimit {
		words = words[:frontWordLimit]
		return strings.Join(words, " ") + "..."
	}
	return strings.Join(words, " ")
}

var _ Generator = (*SentenceGenerator)(nil)
