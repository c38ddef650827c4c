// Copyright 2025 SAP SE
// SPDX-License-Identifier: Apache-2.0

package discovery

import (
	"reflect"
	"testing"

	"github.com/cobaltcore-dev/propscout/internal/catalog"
	"github.com/majewsky/gg/option"
	"github.com/shopspring/decimal"
)

func TestRank(t *testing.T) {
	cheap := recommendationFor(catalog.Offer{ID: "cheap", PriceInitial: money(100)}, []catalog.RuleFact{trailingDrawdown})
	safe := recommendationFor(catalog.Offer{ID: "safe", PriceInitial: money(200)}, nil)
	timed := recommendationFor(catalog.Offer{ID: "timed", PriceInitial: money(150)}, []catalog.RuleFact{timeLimit})
	withReset := recommendationFor(catalog.Offer{ID: "with-reset", PriceInitial: money(200), PriceReset: option.Some(money(80))}, nil)
	twoStep := recommendationFor(catalog.Offer{
		ID:           "two-step",
		PriceInitial: money(90),
		Phases:       catalog.PhaseList{catalog.PhaseEvaluation, catalog.PhaseVerification, catalog.PhaseFunded},
	}, nil)
	oneStep := recommendationFor(catalog.Offer{
		ID:           "one-step",
		PriceInitial: money(120),
		Phases:       catalog.PhaseList{catalog.PhaseEvaluation, catalog.PhaseFunded},
	}, nil)
	// Both list two phases, but only funded-listed has a single step before funding.
	fundedListed := recommendationFor(catalog.Offer{
		ID:           "funded-listed",
		PriceInitial: money(120),
		Phases:       catalog.PhaseList{catalog.PhaseEvaluation, catalog.PhaseFunded},
	}, nil)
	unfundedListed := recommendationFor(catalog.Offer{
		ID:           "unfunded-listed",
		PriceInitial: money(90),
		Phases:       catalog.PhaseList{catalog.PhaseEvaluation, catalog.PhaseVerification},
	}, nil)

	tests := []struct {
		name       string
		candidates []Recommendation
		priorities []Priority
		expected   []string
	}{
		{"fewer kill rules first", []Recommendation{cheap, safe}, DefaultPriorities, []string{"safe", "cheap"}},
		{"total cost first", []Recommendation{safe, cheap}, []Priority{PriorityTotalCost}, []string{"cheap", "safe"}},
		{"time pressure", []Recommendation{timed, safe}, []Priority{PriorityTimePressure}, []string{"safe", "timed"}},
		{"missing reset ranks last", []Recommendation{safe, withReset}, []Priority{PriorityResetExposure}, []string{"with-reset", "safe"}},
		{"phase count", []Recommendation{twoStep, oneStep}, []Priority{PriorityPhaseCount}, []string{"one-step", "two-step"}},
		{"phase count ignores the funded phase", []Recommendation{unfundedListed, fundedListed}, []Priority{PriorityPhaseCount}, []string{"funded-listed", "unfunded-listed"}},
		{"fallback on cost", []Recommendation{oneStep, twoStep}, nil, []string{"two-step", "one-step"}},
		{"fallback on reset", []Recommendation{safe, withReset}, nil, []string{"with-reset", "safe"}},
		{"unknown priorities ignored", []Recommendation{safe, cheap}, []Priority{"vibes"}, []string{"safe", "cheap"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ranked := Rank(tt.candidates, tt.priorities)
			if got := ids(ranked); !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
			for i, r := range ranked {
				if r.Rank != i {
					t.Errorf("expected rank %d for %s, got %d", i, r.Offer.ID, r.Rank)
				}
			}
		})
	}
}

func TestRankScoreDominates(t *testing.T) {
	cheap := recommendationFor(catalog.Offer{ID: "cheap", PriceInitial: money(100)}, nil)
	preferred := recommendationFor(catalog.Offer{ID: "preferred", PriceInitial: money(500)}, []catalog.RuleFact{trailingDrawdown})
	preferred.Score = 1
	ranked := Rank([]Recommendation{cheap, preferred}, []Priority{PriorityKillRules, PriorityTotalCost})
	if got := ids(ranked); !reflect.DeepEqual(got, []string{"preferred", "cheap"}) {
		t.Errorf("expected the higher score first, got %v", got)
	}
}

func TestRankIsStable(t *testing.T) {
	var candidates []Recommendation
	for _, id := range []string{"c", "a", "b"} {
		candidates = append(candidates, recommendationFor(catalog.Offer{ID: id, PriceInitial: money(100)}, nil))
	}
	ranked := Rank(candidates, DefaultPriorities)
	if got := ids(ranked); !reflect.DeepEqual(got, []string{"c", "a", "b"}) {
		t.Errorf("expected ties to keep input order, got %v", got)
	}
	if candidates[1].Rank != 0 || candidates[2].Rank != 0 {
		t.Error("expected the input to be left untouched")
	}
}

func TestCompareMissingLast(t *testing.T) {
	some := option.Some(money(10))
	none := option.None[decimal.Decimal]()
	tests := []struct {
		a, b     option.Option[decimal.Decimal]
		expected int
	}{
		{some, some, 0},
		{some, none, -1},
		{none, some, 1},
		{none, none, 0},
		{option.Some(money(5)), some, -1},
	}
	for _, tt := range tests {
		if got := compareMissingLast(tt.a, tt.b); got != tt.expected {
			t.Errorf("compareMissingLast(%v, %v): expected %d, got %d", tt.a, tt.b, tt.expected, got)
		}
	}
}

func TestFallbackIsStrictWhenKillsOrCostDiffer(t *testing.T) {
	c := demoCatalog(t)
	var candidates []Recommendation
	for _, offer := range c.Offers {
		candidates = append(candidates, recommendationFor(offer, c.Facts(offer.ID, catalog.PhaseEvaluation)))
	}
	fallback := Chain(fallbackComparators...)
	for _, a := range candidates {
		for _, b := range candidates {
			if a.Offer.ID == b.Offer.ID {
				continue
			}
			differ := len(a.Risk.KillRules) != len(b.Risk.KillRules) ||
				!a.Cost.TypicalToFund.Equal(b.Cost.TypicalToFund)
			if !differ {
				continue
			}
			ab, ba := fallback(a, b), fallback(b, a)
			if ab == 0 || ab != -ba {
				t.Errorf("expected a strict order between %s and %s, got %d and %d", a.Offer.ID, b.Offer.ID, ab, ba)
			}
		}
	}
}
