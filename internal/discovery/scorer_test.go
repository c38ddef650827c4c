// Copyright 2025 SAP SE
// SPDX-License-Identifier: Apache-2.0

package discovery

import (
	"testing"

	"github.com/cobaltcore-dev/propscout/internal/catalog"
	"github.com/majewsky/gg/option"
)

func TestScore(t *testing.T) {
	c := scenarioCatalog()
	offerT, _ := c.Offer("offer-t")
	offerA, _ := c.Offer("offer-a")
	monthly := catalog.Offer{
		ID:         "monthly",
		Phases:     catalog.PhaseList{catalog.PhaseEvaluation, catalog.PhaseVerification, catalog.PhaseFunded},
		MonthlyFee: option.Some(money(49)),
	}

	tests := []struct {
		name     string
		mustHave []string
		offer    catalog.Offer
		facts    []catalog.RuleFact
		expected int
	}{
		{"nothing requested", nil, offerT, c.Facts("offer-t", catalog.PhaseEvaluation), 0},
		{"all satisfied", []string{"no-trailing-drawdown", "low-time-pressure", "minimize-monthly-fees", "prefer-fewer-phases", "no-daily-loss-limit"},
			offerT, c.Facts("offer-t", catalog.PhaseEvaluation), 7},
		{"trailing and time rules", []string{"no-trailing-drawdown", "low-time-pressure"},
			offerA, c.Facts("offer-a", catalog.PhaseEvaluation), 0},
		{"single step satisfied", []string{"prefer-fewer-phases", "minimize-monthly-fees"},
			offerA, c.Facts("offer-a", catalog.PhaseEvaluation), 2},
		{"funded phase is not a step", []string{"prefer-fewer-phases"},
			catalog.Offer{ID: "listed", Phases: catalog.PhaseList{catalog.PhaseEvaluation, catalog.PhaseFunded}}, nil, 1},
		{"monthly fee and two steps", []string{"prefer-fewer-phases", "minimize-monthly-fees"}, monthly, nil, 0},
		{"daily loss limit present", []string{"no-daily-loss-limit"}, monthly, []catalog.RuleFact{dailyLossLimit}, 0},
		{"unknown keys", []string{"free-coffee"}, offerT, nil, 0},
		{"repeated keys count once", []string{"low-time-pressure", "low-time-pressure"}, offerT, nil, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(Request{MustHave: tt.mustHave}, tt.offer, tt.facts)
			if got != tt.expected {
				t.Errorf("expected score %d, got %d", tt.expected, got)
			}
		})
	}
}
