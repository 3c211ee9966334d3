package core

import "sort"

// RankQuotes orders company quotes ascending by final premium and assigns
// 1-based rankings. The cheapest quote, and only it, is flagged recommended.
// The sort is stable: equal premiums keep their input order. Pure and
// idempotent; the caller persists the result.
func RankQuotes(quotes []CompanyQuote) []CompanyQuote {
	ranked := make([]CompanyQuote, len(quotes))
	copy(ranked, quotes)

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].FinalPremium < ranked[j].FinalPremium
	})

	for i := range ranked {
		ranked[i].Ranking = i + 1
		ranked[i].IsRecommended = i == 0
	}
	return ranked
}
