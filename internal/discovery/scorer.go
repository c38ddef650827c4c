// Copyright 2025 SAP SE
// SPDX-License-Identifier: Apache-2.0

package discovery

import (
	"github.com/cobaltcore-dev/propscout/internal/catalog"
	"github.com/shopspring/decimal"
)

// A soft preference and the score it adds when an offer satisfies it.
type preference struct {
	weight    int
	satisfied func(offer catalog.Offer, facts []catalog.RuleFact) bool
}

var preferences = map[string]preference{
	"no-trailing-drawdown": {2, func(_ catalog.Offer, facts []catalog.RuleFact) bool {
		return !anyFact(facts, isTrailing)
	}},
	"low-time-pressure": {2, func(_ catalog.Offer, facts []catalog.RuleFact) bool {
		return !anyFact(facts, isTimePressure)
	}},
	"minimize-monthly-fees": {1, func(offer catalog.Offer, _ []catalog.RuleFact) bool {
		return !offer.MonthlyFee.UnwrapOr(decimal.Zero).IsPositive()
	}},
	"prefer-fewer-phases": {1, func(offer catalog.Offer, _ []catalog.RuleFact) bool {
		return catalog.StepCount(offer.Phases) == 1
	}},
	"no-daily-loss-limit": {1, func(_ catalog.Offer, facts []catalog.RuleFact) bool {
		return !anyFact(facts, isDailyLoss)
	}},
}

// Sum the weights of the must-have preferences the offer satisfies.
// Unknown and repeated keys count nothing.
func Score(req Request, offer catalog.Offer, facts []catalog.RuleFact) int {
	score := 0
	seen := make(map[string]bool, len(req.MustHave))
	for _, key := range req.MustHave {
		pref, ok := preferences[key]
		if !ok || seen[key] {
			continue
		}
		seen[key] = true
		if pref.satisfied(offer, facts) {
			score += pref.weight
		}
	}
	return score
}
