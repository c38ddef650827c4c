// Copyright 2025 SAP SE
// SPDX-License-Identifier: Apache-2.0

package discovery

import (
	"github.com/cobaltcore-dev/propscout/internal/catalog"
)

// Rule facts of an offer grouped by how they threaten the account.
// The three lists are disjoint, facts that fit none of them are left out.
type RuleRiskSurface struct {
	// Rules whose violation ends the account.
	KillRules []catalog.RuleFact `json:"killRules"`
	// Rules that force reactive trading under time or performance stress.
	PressureRules []catalog.RuleFact `json:"pressureRules"`
	// Rules that turn ordinary variance into violations.
	VarianceAmplifiers []catalog.RuleFact `json:"varianceAmplifiers"`
}

// Partition rule facts into risk buckets:
//   - kill severity always goes to KillRules,
//   - constraints of the time, deadline, profit-target or inactivity
//     families go to PressureRules,
//   - any other non-kill rule of the trailing, daily-loss or drawdown
//     families goes to VarianceAmplifiers.
func Classify(facts []catalog.RuleFact) RuleRiskSurface {
	surface := RuleRiskSurface{
		KillRules:          []catalog.RuleFact{},
		PressureRules:      []catalog.RuleFact{},
		VarianceAmplifiers: []catalog.RuleFact{},
	}
	for _, f := range facts {
		switch {
		case f.Severity == catalog.SeverityKill:
			surface.KillRules = append(surface.KillRules, f)
		case f.Severity == catalog.SeverityConstraint && slugHasAny(f.Type, pressureFragments):
			surface.PressureRules = append(surface.PressureRules, f)
		case slugHasAny(f.Type, varianceFragments):
			surface.VarianceAmplifiers = append(surface.VarianceAmplifiers, f)
		}
	}
	return surface
}
