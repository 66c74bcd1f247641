package flashcard_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardbuddy/cardbuddy/internal/flashcard"
)

func TestSentenceGenerator_Cards(t *testing.T) {
	t.Parallel()

	gen := flashcard.NewSentenceGenerator()

	t.Run("one card per qualifying sentence", func(t *testing.T) {
		t.Parallel()
		text := "Photosynthesis converts light into chemical energy. Plants store that energy as glucose. Tiny bit. Oxygen is released as a byproduct."

		drafts := gen.Cards(text)
		require.Len(t, drafts, 3)
		assert.Contains(t, drafts[0].Front, "Photosynthesis converts light")
		assert.Equal(t, "Plants store that energy as glucose", drafts[1].Back)
		assert.Equal(t, "General", drafts[0].Category)
	})

	t.Run("caps the number of drafts", func(t *testing.T) {
		t.Parallel()
		text := strings.Repeat("This sentence is long enough to qualify. ", 10)

		drafts := gen.Cards(text)
		assert.Len(t, drafts, 5)
	})

	t.Run("always yields at least one card", func(t *testing.T) {
		t.Parallel()
		drafts := gen.Cards("short. bits. only.")
		require.Len(t, drafts, 1)
		assert.Equal(t, "What is the key idea of this text?", drafts[0].Front)
	})

	t.Run("deterministic for identical input", func(t *testing.T) {
		t.Parallel()
		text := "Entropy always increases in an isolated system. Heat flows from hot to cold."
		assert.Equal(t, gen.Cards(text), gen.Cards(text))
	})
}

func TestSentenceGenerator_Explain(t *testing.T) {
	t.Parallel()

	gen := flashcard.NewSentenceGenerator()

	t.Run("short text gets the direct formula", func(t *testing.T) {
		t.Parallel()
		got := gen.Explain("Gravity pulls things down.")
		assert.Equal(t, "Simply put: Gravity pulls things down.", got)
	})

	t.Run("long text is summarized from the first sentence", func(t *testing.T) {
		t.Parallel()
		text := "Quantum entanglement links the states of two particles. " +
			strings.Repeat("More detail follows here. ", 5)

		got := gen.Explain(text)
		assert.True(t, strings.HasPrefix(got, "In simple terms, this is about Quantum entanglement links the states of two particles."))
		assert.Contains(t, got, "5-year-old")
	})
}
