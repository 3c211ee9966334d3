package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRankQuotes(t *testing.T) {
	t.Run("cheapest gets rank 1 and the recommendation", func(t *testing.T) {
		quotes := []CompanyQuote{
			{ID: "a", FinalPremium: 12000},
			{ID: "b", FinalPremium: 9500},
			{ID: "c", FinalPremium: 11000},
		}

		ranked := RankQuotes(quotes)

		require.Len(t, ranked, 3)
		assert.Equal(t, "b", ranked[0].ID)
		assert.Equal(t, 1, ranked[0].Ranking)
		assert.True(t, ranked[0].IsRecommended)

		assert.Equal(t, "c", ranked[1].ID)
		assert.Equal(t, 2, ranked[1].Ranking)
		assert.False(t, ranked[1].IsRecommended)

		assert.Equal(t, "a", ranked[2].ID)
		assert.Equal(t, 3, ranked[2].Ranking)
		assert.False(t, ranked[2].IsRecommended)
	})

	t.Run("exactly one quote is recommended", func(t *testing.T) {
		quotes := []CompanyQuote{
			{ID: "a", FinalPremium: 5000, IsRecommended: true},
			{ID: "b", FinalPremium: 4000, IsRecommended: true},
			{ID: "c", FinalPremium: 6000, IsRecommended: true},
		}

		ranked := RankQuotes(quotes)

		recommended := 0
		for _, q := range ranked {
			if q.IsRecommended {
				recommended++
				assert.Equal(t, 1, q.Ranking)
			}
		}
		assert.Equal(t, 1, recommended)
	})

	t.Run("ties keep input order", func(t *testing.T) {
		quotes := []CompanyQuote{
			{ID: "first", FinalPremium: 7000},
			{ID: "second", FinalPremium: 7000},
			{ID: "third", FinalPremium: 7000},
		}

		ranked := RankQuotes(quotes)

		assert.Equal(t, "first", ranked[0].ID)
		assert.Equal(t, "second", ranked[1].ID)
		assert.Equal(t, "third", ranked[2].ID)
		assert.True(t, ranked[0].IsRecommended)
	})

	t.Run("idempotent on an already ranked set", func(t *testing.T) {
		quotes := []CompanyQuote{
			{ID: "a", FinalPremium: 12000},
			{ID: "b", FinalPremium: 9500},
			{ID: "c", FinalPremium: 11000},
		}

		once := RankQuotes(quotes)
		twice := RankQuotes(once)

		assert.Equal(t, once, twice)
	})

	t.Run("does not mutate its input", func(t *testing.T) {
		quotes := []CompanyQuote{
			{ID: "a", FinalPremium: 12000},
			{ID: "b", FinalPremium: 9500},
		}

		_ = RankQuotes(quotes)

		assert.Equal(t, "a", quotes[0].ID)
		assert.Equal(t, 0, quotes[0].Ranking)
		assert.False(t, quotes[1].IsRecommended)
	})

	t.Run("single quote is rank 1 and recommended", func(t *testing.T) {
		ranked := RankQuotes([]CompanyQuote{{ID: "only", FinalPremium: 100}})

		assert.Equal(t, 1, ranked[0].Ranking)
		assert.True(t, ranked[0].IsRecommended)
	})

	t.Run("empty input stays empty", func(t *testing.T) {
		assert.Empty(t, RankQuotes(nil))
	})
}
