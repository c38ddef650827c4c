// Copyright 2025 SAP SE
// SPDX-License-Identifier: Apache-2.0

package discovery

import (
	"github.com/cobaltcore-dev/propscout/internal/catalog"
)

// Check the hard constraints of the request against an offer.
// An offer is rejected if its upfront price is above the budget ceiling
// or if it carries a rule of a family the request excludes.
// Unknown exclude keys exclude nothing.
func Eligible(req Request, offer catalog.Offer, facts []catalog.RuleFact) bool {
	if req.BudgetCeiling != nil && req.BudgetCeiling.IsPositive() &&
		offer.PriceInitial.GreaterThan(*req.BudgetCeiling) {

		return false
	}
	for _, key := range req.Exclude {
		fragments, ok := exclusions[key]
		if !ok {
			continue
		}
		if anyFact(facts, func(f catalog.RuleFact) bool { return slugHasAny(f.Type, fragments) }) {
			return false
		}
	}
	return true
}
