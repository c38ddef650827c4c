// Copyright 2025 SAP SE
// SPDX-License-Identifier: Apache-2.0

package discovery

import (
	"testing"

	"github.com/cobaltcore-dev/propscout/internal/catalog"
	"github.com/majewsky/gg/option"
	"github.com/shopspring/decimal"
)

func money(amount int64) decimal.Decimal {
	return decimal.NewFromInt(amount)
}

func ceiling(amount int64) *decimal.Decimal {
	d := money(amount)
	return &d
}

var (
	staticDrawdown = catalog.RuleFact{
		Type: "static-drawdown", Label: "Static max drawdown",
		Severity: catalog.SeverityConstraint, Value: catalog.Money{Amount: money(2000)},
	}
	trailingDrawdown = catalog.RuleFact{
		Type: "trailing-drawdown", Label: "Trailing drawdown",
		Severity: catalog.SeverityKill, Value: catalog.Money{Amount: money(2500)},
	}
	timeLimit = catalog.RuleFact{
		Type: "time-limit", Label: "Pass within 30 days",
		Severity: catalog.SeverityConstraint, Value: catalog.Days{N: 30},
	}
	inactivityRule = catalog.RuleFact{
		Type: "inactivity-rule", Label: "Trade every 10 days",
		Severity: catalog.SeverityConstraint, Value: catalog.Days{N: 10},
	}
	dailyLossLimit = catalog.RuleFact{
		Type: "daily-loss-limit", Label: "Daily loss limit",
		Severity: catalog.SeverityConstraint, Value: catalog.Money{Amount: money(1100)},
	}
)

// Offer T: no trailing drawdown, no time pressure, $165, no reset.
// Offer A: trailing drawdown, time pressure, $145, $80 reset.
func scenarioCatalog() catalog.Catalog {
	return catalog.Catalog{
		Firms: []catalog.Firm{
			{Slug: "tally", Name: "Tally Funding"},
			{Slug: "acme", Name: "Acme Prop"},
		},
		Offers: []catalog.Offer{
			{
				ID: "offer-t", FirmSlug: "tally", Name: "Offer T",
				Size:         money(50000),
				Phases:       catalog.PhaseList{catalog.PhaseEvaluation, catalog.PhaseFunded},
				PriceInitial: money(165),
			},
			{
				ID: "offer-a", FirmSlug: "acme", Name: "Offer A",
				Size: money(50000),
				Phases: catalog.NamedPhases{
					{Phase: catalog.PhaseEvaluation, Label: "Challenge"},
					{Phase: catalog.PhaseFunded, Label: "Funded"},
				},
				PriceInitial: money(145),
				PriceReset:   option.Some(money(80)),
			},
		},
		Profiles: []catalog.OfferRuleProfile{
			{OfferID: "offer-t", Phase: catalog.PhaseEvaluation, Facts: []catalog.RuleFact{staticDrawdown}},
			{OfferID: "offer-a", Phase: catalog.PhaseEvaluation, Facts: []catalog.RuleFact{trailingDrawdown, timeLimit}},
		},
	}
}

func demoCatalog(t *testing.T) catalog.Catalog {
	t.Helper()
	c, err := catalog.ParseFixture(catalog.DemoFixture)
	if err != nil {
		t.Fatalf("failed to parse demo catalog: %v", err)
	}
	return c
}

func recommendationFor(offer catalog.Offer, facts []catalog.RuleFact) Recommendation {
	return Recommendation{
		Offer: offer,
		Cost:  BuildCost(offer),
		Risk:  Classify(facts),
		Facts: facts,
	}
}

func ids(recs []Recommendation) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Offer.ID
	}
	return out
}
