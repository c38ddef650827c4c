// Copyright 2025 SAP SE
// SPDX-License-Identifier: Apache-2.0

package discovery

import (
	"strings"

	"github.com/cobaltcore-dev/propscout/internal/catalog"
)

// Rule families are recognized by fragments of the rule type slug.
// A new slug that contains one of these fragments for unrelated reasons
// is put into the family anyway.
// TODO: replace the fragment matching with an explicit slug to family table
// once the catalog carries a rule type registry.
var (
	pressureFragments     = []string{"time", "deadline", "profit-target", "inactivity"}
	varianceFragments     = []string{"trailing", "daily-loss", "drawdown"}
	timePressureFragments = []string{"time", "inactivity", "deadline"}
	payoutFragments       = []string{"payout", "consistency"}
	scalingFragments      = []string{"scaling", "contract-limit", "position-limit"}
)

// Hard constraint keys and the rule families they exclude.
var exclusions = map[string][]string{
	"avoid-inactivity-rules":  {"inactivity"},
	"avoid-trailing-drawdown": {"trailing"},
	"avoid-time-limits":       {"time-limit", "deadline"},
	"avoid-consistency-rules": {"consistency"},
	"avoid-news-restrictions": {"news"},
}

func slugHasAny(slug string, fragments []string) bool {
	for _, f := range fragments {
		if strings.Contains(slug, f) {
			return true
		}
	}
	return false
}

func anyFact(facts []catalog.RuleFact, match func(catalog.RuleFact) bool) bool {
	for _, f := range facts {
		if match(f) {
			return true
		}
	}
	return false
}

func factsWhere(facts []catalog.RuleFact, match func(catalog.RuleFact) bool) []catalog.RuleFact {
	var out []catalog.RuleFact
	for _, f := range facts {
		if match(f) {
			out = append(out, f)
		}
	}
	return out
}

func isTrailing(f catalog.RuleFact) bool     { return strings.Contains(f.Type, "trailing") }
func isDailyLoss(f catalog.RuleFact) bool    { return strings.Contains(f.Type, "daily-loss") }
func isDrawdown(f catalog.RuleFact) bool     { return strings.Contains(f.Type, "drawdown") }
func isTimePressure(f catalog.RuleFact) bool { return slugHasAny(f.Type, timePressureFragments) }
func isPayout(f catalog.RuleFact) bool       { return slugHasAny(f.Type, payoutFragments) }
func isScaling(f catalog.RuleFact) bool      { return slugHasAny(f.Type, scalingFragments) }
func isKill(f catalog.RuleFact) bool         { return f.Severity == catalog.SeverityKill }

func labels(facts []catalog.RuleFact) []string {
	out := make([]string, 0, len(facts))
	for _, f := range facts {
		if f.Label != "" {
			out = append(out, f.Label)
		} else {
			out = append(out, f.Type)
		}
	}
	return out
}
