// Copyright 2025 SAP SE
// SPDX-License-Identifier: Apache-2.0

package discovery

import (
	"errors"
	"fmt"

	"github.com/cobaltcore-dev/propscout/internal/catalog"
)

// Returned by Run when no offer passes the hard constraints of the request.
var ErrNoViableCandidates = errors.New("no viable candidates")

const BeatsCurrentBadge = "Fewer account-ending rules than your current offer"

// A surviving offer together with everything derived from it.
type Recommendation struct {
	// Position in the final order, starting at zero for the primary.
	Rank        int                `json:"rank"`
	Offer       catalog.Offer      `json:"offer"`
	Firm        catalog.Firm       `json:"firm"`
	Score       int                `json:"score"`
	Cost        CostModel          `json:"cost"`
	Risk        RuleRiskSurface    `json:"risk"`
	Explanation Explanation        `json:"explanation"`
	Rows        []TradeoffRow      `json:"rows"`
	Facts       []catalog.RuleFact `json:"-"`
}

type Result struct {
	Primary      Recommendation   `json:"primary"`
	Alternatives []Recommendation `json:"alternatives"`
	// Set when the primary beats the offer the trader currently holds.
	BeatsCurrentBadge string   `json:"beatsCurrentBadge,omitempty"`
	BeatsCurrentWhy   []string `json:"beatsCurrentWhy,omitempty"`
	// Offers in the catalog and offers that passed the hard constraints.
	Considered int `json:"considered"`
	Eligible   int `json:"eligible"`
}

// Rank the catalog's offers for the request.
//
// Only evaluation phase rules are taken into account. Offers of unknown
// firms and repeated offer ids are skipped.
func Run(req Request, c catalog.Catalog, opts Options) (Result, error) {
	opts = opts.withDefaults()
	req = req.Normalize(opts.DefaultPriorities)

	firms := c.FirmIndex()
	facts := c.FactsIndex(catalog.PhaseEvaluation)
	seen := make(map[string]bool, len(c.Offers))
	var candidates []Recommendation
	for _, offer := range c.Offers {
		if seen[offer.ID] {
			continue
		}
		seen[offer.ID] = true
		firm, ok := firms[offer.FirmSlug]
		if !ok {
			continue
		}
		offerFacts := facts[offer.ID]
		if !Eligible(req, offer, offerFacts) {
			continue
		}
		candidates = append(candidates, Recommendation{
			Offer:       offer,
			Firm:        firm,
			Score:       Score(req, offer, offerFacts),
			Cost:        BuildCost(offer),
			Risk:        Classify(offerFacts),
			Explanation: Explain(offer, offerFacts, opts.HighUpfrontCost),
			Rows:        CompareRows(offer, offerFacts),
			Facts:       offerFacts,
		})
	}
	if len(candidates) == 0 {
		return Result{}, ErrNoViableCandidates
	}

	ranked := Rank(candidates, req.Priorities)
	result := Result{
		Primary:      ranked[0],
		Alternatives: ranked[1:min(len(ranked), 1+opts.MaxAlternatives)],
		Considered:   len(c.Offers),
		Eligible:     len(ranked),
	}
	if req.CurrentAccountID != "" {
		for _, current := range ranked {
			if current.Offer.ID == req.CurrentAccountID {
				result.BeatsCurrentBadge, result.BeatsCurrentWhy = beatsCurrent(result.Primary, current)
				break
			}
		}
	}
	return result, nil
}

// Badge and reasons if the primary has strictly fewer kill rules
// than the current offer.
func beatsCurrent(primary, current Recommendation) (badge string, why []string) {
	primaryKills, currentKills := len(primary.Risk.KillRules), len(current.Risk.KillRules)
	if primaryKills >= currentKills {
		return "", nil
	}
	why = []string{fmt.Sprintf("%s has %s that can end the account, your current offer has %d.",
		primary.Offer.Name, pluralize(primaryKills, "rule", "rules"), currentKills)}
	switch {
	case primary.Cost.TypicalToFund.LessThan(current.Cost.TypicalToFund):
		why = append(why, fmt.Sprintf("It also costs less to reach funding (%s vs. %s).",
			catalog.FormatMoney(primary.Cost.TypicalToFund), catalog.FormatMoney(current.Cost.TypicalToFund)))
	case !anyFact(primary.Facts, isTimePressure) && anyFact(current.Facts, isTimePressure):
		why = append(why, "It also has no time limit or inactivity rule.")
	}
	return BeatsCurrentBadge, why
}
